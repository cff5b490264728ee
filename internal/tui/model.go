package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"askai/internal/domain"
	"askai/internal/session"
)

// SessionPort is the TUI-facing subset of the session.
type SessionPort interface {
	Submit(ctx context.Context, query string) (*session.Cycle, bool)
	Clear()
	Toggle(ctx context.Context)
	Snapshot() session.Snapshot
}

// SnapshotMsg carries a session state change into the program loop.
type SnapshotMsg session.Snapshot

// Model is the Bubble Tea model for the Ask AI widget.
type Model struct {
	ctx      context.Context
	session  SessionPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	snap     session.Snapshot
	ready    bool
	width    int
}

// New creates a new TUI model instance.
func New(ctx context.Context, s SessionPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about this website and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		session:  s,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		snap:     s.Snapshot(),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and session events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, fh := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + 1 + qh + 1 // header, progress, help, input box
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-fh)
		m.refresh()
		return m, nil
	case SnapshotMsg:
		snap := session.Snapshot(msg)
		if snap.Version < m.snap.Version {
			return m, nil
		}
		wasLoading := m.snap.Loading
		m.snap = snap
		m.refresh()
		if snap.Loading && !wasLoading {
			return m, m.spinner.Tick
		}
		return m, nil
	case spinner.TickMsg:
		if !m.snap.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+o":
			m.session.Toggle(m.ctx)
			return m, nil
		case "ctrl+l":
			m.session.Clear()
			return m, nil
		case "enter":
			if !m.snap.Open || m.snap.Loading {
				return m, nil
			}
			if _, ok := m.session.Submit(m.ctx, m.input.Value()); ok {
				m.input.Reset()
			}
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the widget.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Ask AI") + " " + badge(m.snap.Status)
	if !m.snap.Open {
		return header + "\n" + helpStyle.Render("ctrl+o open • ctrl+c quit")
	}
	var progress string
	if m.snap.Loading && m.snap.Progress != "" {
		progress = m.spinner.View() + " " + progressStyle.Render(m.snap.Progress)
	}
	input := queryBoxStyle.Render(m.input.View())
	help := helpStyle.Render("enter ask • ctrl+l clear • ctrl+o close • ctrl+c quit")
	return header + "\n" + transcriptStyle.Render(m.viewport.View()) + "\n" + progress + "\n" + input + "\n" + help
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderMessages(m.snap.Messages, m.viewport.Width))
	m.viewport.GotoBottom()
}

func renderMessages(msgs []domain.Message, width int) string {
	if len(msgs) == 0 {
		return dimStyle.Render("Ask a question about the blog, notes, projects or resume.")
	}
	body := lipgloss.NewStyle()
	if width > 4 {
		body = body.Width(width - 4)
	}
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.Role == domain.RoleUser {
			b.WriteString(userRoleStyle.Render(" You "))
		} else {
			b.WriteString(assistantRoleStyle.Render(" Ask AI "))
		}
		b.WriteString("\n")
		b.WriteString(body.Render(msg.Text))
		if len(msg.Sources) > 0 {
			b.WriteString("\n")
			b.WriteString(dimStyle.Render("Sources:"))
			for _, d := range msg.Sources {
				fmt.Fprintf(&b, "\n  %s %s", sourceTag.Render("["+string(d.Source)+"]"), linkStyle.Render(d.Title+" "+d.URL))
			}
		}
	}
	return b.String()
}

func badge(s domain.ServiceStatus) string {
	style := badgeStyle
	switch s {
	case domain.StatusOnline:
		style = style.Background(lipgloss.Color("28"))
	case domain.StatusLimited:
		style = style.Background(lipgloss.Color("214"))
	case domain.StatusOffline:
		style = style.Background(lipgloss.Color("160"))
	default:
		style = style.Background(lipgloss.Color("240"))
	}
	return style.Render(s.Label())
}

// Package session owns one Ask AI conversation: the message history, the
// single in-flight ask cycle and the advisory service status.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"askai/internal/answer"
	"askai/internal/domain"
	"askai/internal/health"
	"askai/internal/retriever"
)

const (
	ProgressThinking   = "Thinking..."
	ProgressRetrieving = "Getting results..."

	BootErrorID   = "boot-error"
	BootErrorText = "Ask AI index missing. Run the update workflow once."

	DefaultStageDelay     = 250 * time.Millisecond
	DefaultRequestTimeout = 20 * time.Second
)

// State is the phase of the current ask cycle.
type State string

const (
	StateIdle            State = "idle"
	StateThinking        State = "thinking"
	StateRetrieving      State = "retrieving"
	StateAwaitingService State = "awaiting_service"
)

// Retriever ranks the corpus for a query.
type Retriever interface {
	Search(query string) []domain.ScoredDocument
}

// Loader fills the document index.
type Loader interface {
	Load(ctx context.Context, src domain.CorpusSource) error
}

// Snapshot is a copy of the observable session state. Version increases with
// every change so observers can drop out-of-order deliveries.
type Snapshot struct {
	Version  uint64               `json:"version"`
	Open     bool                 `json:"open"`
	Loading  bool                 `json:"loading"`
	State    State                `json:"state"`
	Progress string               `json:"progress"`
	Status   domain.ServiceStatus `json:"status"`
	Messages []domain.Message     `json:"messages"`
}

type Option func(*Session)

// WithStageDelay sets the pause between the progress stages.
func WithStageDelay(d time.Duration) Option {
	return func(s *Session) { s.stageDelay = d }
}

// WithRequestTimeout bounds the completion call.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session sequences retrieval, the completion call and message appends.
type Session struct {
	retriever Retriever
	completer domain.Completer
	monitor   *health.Monitor
	logger    *zap.Logger

	stageDelay     time.Duration
	requestTimeout time.Duration

	mu       sync.Mutex
	version  uint64
	messages []domain.Message
	open     bool
	loading  bool
	state    State
	progress string
	// clears bumps on every Clear; a cycle started under an older value is stale
	clears uint64
	booted bool
	subs   map[int]func(Snapshot)
	nextID int
}

// New creates a session. monitor may be nil, in which case the status stays
// at checking until an ask cycle reports an outcome.
func New(r Retriever, c domain.Completer, monitor *health.Monitor, opts ...Option) *Session {
	if monitor == nil {
		monitor = health.NewMonitor(nil)
	}
	s := &Session{
		retriever:      r,
		completer:      c,
		monitor:        monitor,
		logger:         zap.NewNop(),
		stageDelay:     DefaultStageDelay,
		requestTimeout: DefaultRequestTimeout,
		state:          StateIdle,
		subs:           make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	monitor.Watch(func(domain.ServiceStatus) { s.bump() })
	return s
}

// Init loads the corpus. On failure the session keeps working with whatever
// the index holds and shows the boot warning once.
func (s *Session) Init(ctx context.Context, loader Loader, src domain.CorpusSource) error {
	if err := loader.Load(ctx, src); err != nil {
		s.logger.Warn("corpus unavailable", zap.Error(err))
		s.WarnIndexMissing()
		return err
	}
	return nil
}

// WarnIndexMissing appends the boot warning unless it was already shown.
func (s *Session) WarnIndexMissing() {
	s.mu.Lock()
	if s.booted {
		s.mu.Unlock()
		return
	}
	s.booted = true
	s.messages = append(s.messages, domain.Message{
		ID:      BootErrorID,
		Role:    domain.RoleAssistant,
		Text:    BootErrorText,
		Sources: []domain.Document{},
	})
	s.version++
	s.mu.Unlock()
	s.notify()
}

// Open shows the widget and starts a health check. Opening an already open
// session does nothing.
func (s *Session) Open(ctx context.Context) {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return
	}
	s.open = true
	s.version++
	s.mu.Unlock()
	s.notify()
	// the generation is taken before Open returns so a following Close drops the result
	gen := s.monitor.Begin()
	go s.monitor.Check(ctx, gen)
}

// Close hides the widget; a health check begun by Open is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.open = false
	s.version++
	s.mu.Unlock()
	s.monitor.Invalidate()
	s.notify()
}

// Toggle flips between Open and Close.
func (s *Session) Toggle(ctx context.Context) {
	if s.Snapshot().Open {
		s.Close()
		return
	}
	s.Open(ctx)
}

// CheckHealth runs one health check and publishes the result.
func (s *Session) CheckHealth(ctx context.Context) domain.ServiceStatus {
	status, _ := s.monitor.Refresh(ctx)
	return status
}

// Clear empties the conversation and the progress label. An in-flight cycle
// keeps running but its reply is dropped.
func (s *Session) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.progress = ""
	s.clears++
	s.version++
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	msgs := make([]domain.Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{
		Version:  s.version,
		Open:     s.open,
		Loading:  s.loading,
		State:    s.state,
		Progress: s.progress,
		Status:   s.monitor.Status(),
		Messages: msgs,
	}
}

// Subscribe registers fn for every state change. fn runs on the goroutine
// that made the change and must not block.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) bump() {
	s.mu.Lock()
	s.version++
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Submit appends the user message and starts an ask cycle. It returns false
// without side effects when the query is blank or a cycle is in flight.
func (s *Session) Submit(ctx context.Context, query string) (*Cycle, bool) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, false
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, false
	}
	s.loading = true
	s.state = StateThinking
	s.progress = ProgressThinking
	s.messages = append(s.messages, domain.Message{
		ID:   "u-" + uuid.NewString(),
		Role: domain.RoleUser,
		Text: trimmed,
	})
	epoch := s.clears
	s.version++
	s.mu.Unlock()
	s.notify()

	c := &Cycle{Query: trimmed, done: make(chan struct{})}
	go s.run(ctx, c, epoch)
	return c, true
}

func (s *Session) run(ctx context.Context, c *Cycle, epoch uint64) {
	start := time.Now()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.state = StateIdle
		if s.clears == epoch {
			s.progress = ""
		}
		s.version++
		s.mu.Unlock()
		s.notify()
		close(c.done)
		s.logger.Info("ask cycle finished",
			zap.String("outcome", string(c.outcome)),
			zap.NamedError("reason", c.err),
			zap.Int("sources", len(c.reply.Sources)),
			zap.Bool("delivered", c.delivered),
			zap.Duration("elapsed", time.Since(start)))
	}()

	s.pause(ctx)
	s.stage(epoch, StateRetrieving, ProgressRetrieving)
	docs := retriever.Documents(s.retriever.Search(c.Query))
	s.pause(ctx)

	if len(docs) == 0 {
		c.outcome = OutcomeNoMatch
		c.err = domain.ErrNoMatch
		s.deliver(c, epoch, answer.NotFound(c.Query), []domain.Document{})
		return
	}

	s.stage(epoch, StateAwaitingService, ProgressRetrieving)
	callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	resp, err := s.completer.Complete(callCtx, domain.CompletionRequest{
		Question: c.Query,
		Context:  answer.BuildContext(docs),
	})
	cancel()

	text := s.resolve(c, docs, resp, err)
	s.deliver(c, epoch, text, docs)
}

// resolve turns the completion outcome into message text and records the
// service status it implies.
func (s *Session) resolve(c *Cycle, docs []domain.Document, resp domain.Completion, err error) string {
	var se *domain.ServiceError
	c.err = err
	switch {
	case err == nil:
		s.monitor.Set(domain.StatusOnline)
		var raw any
		if resp != nil {
			raw = resp.Answer()
		}
		if str, ok := raw.(string); ok && strings.TrimSpace(str) != "" {
			c.outcome = OutcomeAnswered
		} else {
			c.outcome = OutcomeFallback
		}
		return answer.ComposeRemote(c.Query, docs, raw)
	case errors.As(err, &se):
		c.outcome = OutcomeServiceError
		if se.Limited() {
			c.outcome = OutcomeLimited
			s.monitor.Set(domain.StatusLimited)
		}
		s.logger.Warn("completion service error", zap.Int("status", se.Status), zap.String("message", se.Message))
		return answer.ServiceFailure(answer.ServiceErrorText(se), c.Query, docs)
	default:
		c.outcome = OutcomeTransportFailure
		if errors.Is(err, domain.ErrMalformedReply) {
			// a reply did arrive, only its body was unusable
			s.monitor.Set(domain.StatusOnline)
		}
		s.logger.Warn("completion transport failure", zap.Error(err))
		return answer.TransportFailure(c.Query, docs)
	}
}

func (s *Session) deliver(c *Cycle, epoch uint64, text string, docs []domain.Document) {
	msg := domain.Message{
		ID:      "a-" + uuid.NewString(),
		Role:    domain.RoleAssistant,
		Text:    text,
		Sources: docs,
	}
	c.reply = msg

	s.mu.Lock()
	if s.clears != epoch {
		s.mu.Unlock()
		s.logger.Debug("dropping reply of a cleared conversation", zap.String("query", c.Query))
		return
	}
	s.messages = append(s.messages, msg)
	c.delivered = true
	s.version++
	s.mu.Unlock()
	s.notify()
}

func (s *Session) stage(epoch uint64, st State, label string) {
	s.mu.Lock()
	s.state = st
	if s.clears == epoch {
		s.progress = label
	}
	s.version++
	s.mu.Unlock()
	s.notify()
}

func (s *Session) pause(ctx context.Context) {
	if s.stageDelay <= 0 {
		return
	}
	t := time.NewTimer(s.stageDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

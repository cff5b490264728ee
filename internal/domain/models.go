package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source classifies where a document came from on the site.
type Source string

const (
	SourceBlog    Source = "blog"
	SourceNote    Source = "note"
	SourceProject Source = "project"
	SourceCode    Source = "code"
	SourceResume  Source = "resume"
)

// legacy names written by the corpus generator
var sourceAliases = map[string]Source{
	"blog":     SourceBlog,
	"note":     SourceNote,
	"substack": SourceNote,
	"llms":     SourceNote,
	"project":  SourceProject,
	"projects": SourceProject,
	"code":     SourceCode,
	"mlcode":   SourceCode,
	"resume":   SourceResume,
}

// ParseSource normalizes a corpus source name.
func ParseSource(s string) (Source, error) {
	if src, ok := sourceAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return src, nil
	}
	return "", fmt.Errorf("unknown document source %q", s)
}

func (s *Source) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	src, err := ParseSource(raw)
	if err != nil {
		return err
	}
	*s = src
	return nil
}

// Document is one retrievable unit of site content. Immutable once loaded.
type Document struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source Source `json:"source"`
	Text   string `json:"text"`
}

// ScoredDocument pairs a document with its lexical score.
type ScoredDocument struct {
	Document Document `json:"document"`
	Score    int      `json:"score"`
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation.
type Message struct {
	ID      string     `json:"id"`
	Role    Role       `json:"role"`
	Text    string     `json:"text"`
	Sources []Document `json:"sources,omitempty"`
}

// ServiceStatus is the advisory health of the remote completion service.
type ServiceStatus string

const (
	StatusChecking ServiceStatus = "checking"
	StatusOnline   ServiceStatus = "online"
	StatusLimited  ServiceStatus = "limited"
	StatusOffline  ServiceStatus = "offline"
)

// Label is the badge text shown next to the widget title.
func (s ServiceStatus) Label() string {
	switch s {
	case StatusOnline:
		return "Online"
	case StatusLimited:
		return "Limit reached"
	case StatusOffline:
		return "Offline"
	default:
		return "Checking"
	}
}

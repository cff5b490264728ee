package session

import (
	"context"

	"askai/internal/domain"
)

// Outcome classifies how an ask cycle ended.
type Outcome string

const (
	OutcomeNoMatch          Outcome = "no_match"
	OutcomeAnswered         Outcome = "answered"
	OutcomeFallback         Outcome = "fallback"
	OutcomeServiceError     Outcome = "service_error"
	OutcomeLimited          Outcome = "limited"
	OutcomeTransportFailure Outcome = "transport_failure"
)

// Cycle is the handle of one submitted question.
type Cycle struct {
	Query string

	done      chan struct{}
	reply     domain.Message
	outcome   Outcome
	err       error
	delivered bool
}

// Done is closed when the cycle has finished and the session is idle again.
func (c *Cycle) Done() <-chan struct{} { return c.done }

// Wait blocks until the cycle finishes or ctx ends.
func (c *Cycle) Wait(ctx context.Context) (domain.Message, error) {
	select {
	case <-c.done:
		return c.reply, nil
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

// Reply returns the assistant message produced by the cycle and whether it
// was appended to the conversation. It is only meaningful after Done.
func (c *Cycle) Reply() (domain.Message, bool) {
	select {
	case <-c.done:
		return c.reply, c.delivered
	default:
		return domain.Message{}, false
	}
}

// Outcome is only meaningful after Done.
func (c *Cycle) Outcome() Outcome {
	select {
	case <-c.done:
		return c.outcome
	default:
		return ""
	}
}

// Err reports why the cycle fell back: domain.ErrNoMatch when nothing was
// retrieved, or the completion error. It is nil for answered and fallback
// cycles and before Done.
func (c *Cycle) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

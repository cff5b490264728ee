// Package health tracks whether the completion proxy is usable.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"askai/internal/domain"
)

// limitReached is the proxy's health status when the usage quota is spent.
const limitReached = "limit_reached"

// HTTPChecker queries the proxy's GET health endpoint.
type HTTPChecker struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewHTTPChecker(url string, client *http.Client, logger *zap.Logger) *HTTPChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPChecker{url: url, client: client, logger: logger}
}

// Check maps the health reply: no reply, a non-2xx status or an undecodable
// body is offline; {"status":"limit_reached"} is limited; anything else is
// online.
func (c *HTTPChecker) Check(ctx context.Context) domain.ServiceStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		c.logger.Warn("health request invalid", zap.String("url", c.url), zap.Error(err))
		return domain.StatusOffline
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Info("health check failed", zap.String("url", c.url), zap.Error(err))
		return domain.StatusOffline
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Info("health check non-success", zap.Int("status", resp.StatusCode))
		return domain.StatusOffline
	}
	var body struct {
		Status any `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Info("health body undecodable", zap.Error(err))
		return domain.StatusOffline
	}
	if s, ok := body.Status.(string); ok && s == limitReached {
		return domain.StatusLimited
	}
	return domain.StatusOnline
}

// Monitor holds the advisory service status of one session.
type Monitor struct {
	checker domain.HealthChecker

	mu     sync.RWMutex
	status domain.ServiceStatus
	gen    uint64
	watch  func(domain.ServiceStatus)
}

func NewMonitor(checker domain.HealthChecker) *Monitor {
	return &Monitor{checker: checker, status: domain.StatusChecking}
}

// Watch registers fn to run after every status change, replacing any
// previous watcher.
func (m *Monitor) Watch(fn func(domain.ServiceStatus)) {
	m.mu.Lock()
	m.watch = fn
	m.mu.Unlock()
}

func (m *Monitor) Status() domain.ServiceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Set records an outcome observed outside a health check.
func (m *Monitor) Set(s domain.ServiceStatus) {
	m.mu.Lock()
	m.status = s
	fn := m.watch
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Refresh marks the status as checking, runs the check and applies its
// result unless another Refresh or Invalidate happened meanwhile. The
// returned flag reports whether the result was applied. Without a checker it
// reports the current status and does nothing.
func (m *Monitor) Refresh(ctx context.Context) (domain.ServiceStatus, bool) {
	return m.Check(ctx, m.Begin())
}

// Begin starts a check: it marks the status as checking and returns the
// generation the result must still match to be applied. Without a checker it
// changes nothing.
func (m *Monitor) Begin() uint64 {
	if m.checker == nil {
		return 0
	}
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.status = domain.StatusChecking
	fn := m.watch
	m.mu.Unlock()
	if fn != nil {
		fn(domain.StatusChecking)
	}
	return gen
}

// Check runs the checker for the generation returned by Begin and applies
// the result only if no later Begin or Invalidate happened.
func (m *Monitor) Check(ctx context.Context, gen uint64) (domain.ServiceStatus, bool) {
	if m.checker == nil {
		return m.Status(), false
	}
	s := m.checker.Check(ctx)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return s, false
	}
	m.status = s
	fn := m.watch
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
	return s, true
}

// Invalidate discards the result of any check begun before it.
func (m *Monitor) Invalidate() {
	m.mu.Lock()
	m.gen++
	m.mu.Unlock()
}

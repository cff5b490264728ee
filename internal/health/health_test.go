package health

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"askai/internal/domain"
)

func TestHTTPCheckerMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   domain.ServiceStatus
	}{
		{"ok", http.StatusOK, `{"status":"ok"}`, domain.StatusOnline},
		{"no status field", http.StatusOK, `{}`, domain.StatusOnline},
		{"limit reached", http.StatusOK, `{"status":"limit_reached"}`, domain.StatusLimited},
		{"non success", http.StatusServiceUnavailable, `{"status":"ok"}`, domain.StatusOffline},
		{"limit on error status", http.StatusTooManyRequests, `{"status":"limit_reached"}`, domain.StatusOffline},
		{"not json", http.StatusOK, `<html>`, domain.StatusOffline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			c := NewHTTPChecker(server.URL+"/health", server.Client(), nil)
			assert.Equal(t, tc.want, c.Check(context.Background()))
		})
	}
}

func TestHTTPCheckerNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assert.Equal(t, domain.StatusOffline, NewHTTPChecker(url, nil, nil).Check(context.Background()))
}

type fakeChecker struct {
	result  domain.ServiceStatus
	started chan struct{}
	release chan struct{}
}

func (f *fakeChecker) Check(ctx context.Context) domain.ServiceStatus {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.result
}

func TestMonitorRefresh(t *testing.T) {
	m := NewMonitor(&fakeChecker{result: domain.StatusLimited})
	assert.Equal(t, domain.StatusChecking, m.Status())

	s, applied := m.Refresh(context.Background())
	assert.True(t, applied)
	assert.Equal(t, domain.StatusLimited, s)
	assert.Equal(t, domain.StatusLimited, m.Status())

	m.Set(domain.StatusOnline)
	assert.Equal(t, domain.StatusOnline, m.Status())
}

func TestMonitorShowsCheckingDuringRefresh(t *testing.T) {
	f := &fakeChecker{result: domain.StatusOnline, started: make(chan struct{}), release: make(chan struct{})}
	m := NewMonitor(f)
	m.Set(domain.StatusOffline)

	done := make(chan struct{})
	go func() {
		m.Refresh(context.Background())
		close(done)
	}()
	<-f.started
	assert.Equal(t, domain.StatusChecking, m.Status())
	close(f.release)
	<-done
	assert.Equal(t, domain.StatusOnline, m.Status())
}

func TestMonitorInvalidateDropsResult(t *testing.T) {
	f := &fakeChecker{result: domain.StatusOffline, started: make(chan struct{}), release: make(chan struct{})}
	m := NewMonitor(f)

	var applied bool
	done := make(chan struct{})
	go func() {
		_, applied = m.Refresh(context.Background())
		close(done)
	}()
	<-f.started
	m.Invalidate()
	m.Set(domain.StatusOnline)
	close(f.release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh did not return")
	}
	assert.False(t, applied)
	assert.Equal(t, domain.StatusOnline, m.Status())
}

func TestMonitorInvalidateBeforeCheckRuns(t *testing.T) {
	m := NewMonitor(&fakeChecker{result: domain.StatusOffline})

	gen := m.Begin()
	assert.Equal(t, domain.StatusChecking, m.Status())
	m.Invalidate()

	s, applied := m.Check(context.Background(), gen)
	assert.Equal(t, domain.StatusOffline, s)
	assert.False(t, applied)
	assert.Equal(t, domain.StatusChecking, m.Status())
}

func TestMonitorWithoutChecker(t *testing.T) {
	m := NewMonitor(nil)
	m.Set(domain.StatusLimited)

	s, applied := m.Check(context.Background(), m.Begin())
	assert.False(t, applied)
	assert.Equal(t, domain.StatusLimited, s)
}

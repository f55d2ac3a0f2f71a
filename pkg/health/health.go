// Package health serves /livez and /readyz probes.
//
// Checks run in the background. A check turns unhealthy after FailureThreshold
// consecutive failures and healthy again after SuccessThreshold successes, so a
// single slow database ping does not pull the instance out of rotation.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc returns nil when the checked dependency is healthy.
type CheckFunc func(ctx context.Context) error

// Thresholds applied to every registered check.
const (
	FailureThreshold = 3
	SuccessThreshold = 1
)

type probeKind int

const (
	liveness probeKind = iota
	readiness
)

type probe struct {
	name    string
	kind    probeKind
	timeout time.Duration
	check   CheckFunc

	mu       sync.Mutex
	healthy  bool
	lastErr  error
	failures int
	passes   int
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.check(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastErr = err
	if err != nil {
		p.passes = 0
		p.failures++
		if p.failures >= FailureThreshold {
			p.healthy = false
		}
		return
	}
	p.failures = 0
	p.passes++
	if p.passes >= SuccessThreshold {
		p.healthy = true
	}
}

// failure returns the failure message, or "" when healthy.
func (p *probe) failure() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.healthy:
		return ""
	case p.lastErr != nil:
		return p.lastErr.Error()
	default:
		return "check is unhealthy"
	}
}

// Health tracks liveness and readiness of the server.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	probes []*probe
	stop   context.CancelFunc
	group  *errgroup.Group
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

func (h *Health) add(kind probeKind, name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.probes = append(h.probes, &probe{
		name:    name,
		kind:    kind,
		timeout: timeout,
		check:   check,
		healthy: true,
	})
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.add(liveness, name, timeout, check)
}

// AddReadinessCheck registers a check that decides whether the instance
// should receive traffic, such as a database ping.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.add(readiness, name, timeout, check)
}

// Start runs every check immediately and then once per interval until Stop
// is called or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	h.mu.Lock()
	h.stop = cancel
	h.group = g
	probes := append([]*probe(nil), h.probes...)
	h.mu.Unlock()

	for _, p := range probes {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				p.run(ctx)
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}
}

// Stop cancels background checks and waits for them to return. It is safe to
// call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	stop, g := h.stop, h.group
	h.stop, h.group = nil, nil
	h.mu.Unlock()

	if stop == nil {
		return
	}
	stop()
	_ = g.Wait()
}

// SetReady flips the manual readiness gate.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness check passes.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.failures(readiness)) == 0
}

func (h *Health) failures(kind probeKind) map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]string)
	for _, p := range h.probes {
		if p.kind != kind {
			continue
		}
		if msg := p.failure(); msg != "" {
			out[p.name] = msg
		}
	}
	return out
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(liveness))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(readiness)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

// writeStatus writes {"status":"ok"} or 503 with {"status":"unhealthy","checks":{...}}.
func writeStatus(w http.ResponseWriter, failures map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("status")
		if len(failures) == 0 {
			e.Str("ok")
			return
		}
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")

		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		sort.Strings(names)

		e.FieldStart("checks")
		e.Obj(func(e *jx.Encoder) {
			for _, name := range names {
				e.FieldStart(name)
				e.Str(failures[name])
			}
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

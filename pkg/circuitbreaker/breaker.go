// Package circuitbreaker keeps one breaker per gateway route on top of
// sony/gobreaker. A breaker counts transport errors, timeouts and upstream
// 5xx responses as failures; while it is open (or its single half-open trial
// slot is taken) calls are refused with ErrCircuitOpen before any network I/O.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

type Settings struct {
	// FailureThreshold trips the breaker after this many consecutive failures.
	FailureThreshold uint32
	// MinRequests and FailureRatio trip it on failure rate once the window has
	// seen enough traffic.
	MinRequests  uint32
	FailureRatio float64
	// Interval is the closed-state counting window; counts reset when it ends.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before the half-open trial.
	OpenTimeout time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		MinRequests:      10,
		FailureRatio:     0.5,
		Interval:         60 * time.Second,
		OpenTimeout:      30 * time.Second,
	}
}

func (s Settings) readyToTrip(c gobreaker.Counts) bool {
	if s.FailureThreshold > 0 && c.ConsecutiveFailures >= s.FailureThreshold {
		return true
	}
	if s.MinRequests == 0 || c.Requests <= c.TotalExclusions {
		return false
	}
	// cancelled calls are excluded from the rate
	counted := c.Requests - c.TotalExclusions
	if counted < s.MinRequests {
		return false
	}
	return float64(c.TotalFailures)/float64(counted) >= s.FailureRatio
}

type Breaker struct {
	route    string
	cb       *gobreaker.CircuitBreaker[*http.Response]
	observer Observer
}

func New(route string, s Settings, observer Observer, log *slog.Logger) *Breaker {
	if observer == nil {
		observer = NopObserver{}
	}
	if log == nil {
		log = slog.Default()
	}

	b := &Breaker{route: route, observer: observer}
	b.cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        route,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: s.readyToTrip,
		// runs under the breaker's lock: must not call back into b.cb
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("route", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			observer.OnStateChange(name, from, to)
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
		// A caller hanging up says nothing about the upstream. Excluded calls
		// leave the counts alone and free the half-open trial slot.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})
	return b
}

func (b *Breaker) Route() string { return b.route }

func (b *Breaker) State() State { return b.cb.State() }

// upstreamFailure marks a response that reached us but must count against
// the breaker. The response itself is still handed back to the caller.
type upstreamFailure struct {
	status int
}

func (e *upstreamFailure) Error() string {
	return fmt.Sprintf("upstream responded %d", e.status)
}

// Do runs call through the breaker. A 5xx response is returned unchanged with
// a nil error after being recorded as a failure.
func (b *Breaker) Do(call func() (*http.Response, error)) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := call()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, &upstreamFailure{status: resp.StatusCode}
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.observer.OnRejected(b.route)
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, b.route)
	}

	var uf *upstreamFailure
	switch {
	case errors.As(err, &uf):
		b.observer.OnFailure(b.route)
		return resp, nil
	case err != nil:
		if !errors.Is(err, context.Canceled) {
			b.observer.OnFailure(b.route)
		}
		return nil, err
	}

	b.observer.OnSuccess(b.route)
	return resp, nil
}

type Snapshot struct {
	Route                string `json:"route"`
	State                string `json:"state"`
	Requests             uint32 `json:"requests"`
	TotalSuccesses       uint32 `json:"totalSuccesses"`
	TotalFailures        uint32 `json:"totalFailures"`
	ConsecutiveSuccesses uint32 `json:"consecutiveSuccesses"`
	ConsecutiveFailures  uint32 `json:"consecutiveFailures"`
}

func (b *Breaker) Snapshot() Snapshot {
	state := b.cb.State()
	c := b.cb.Counts()
	return Snapshot{
		Route:                b.route,
		State:                state.String(),
		Requests:             c.Requests,
		TotalSuccesses:       c.TotalSuccesses,
		TotalFailures:        c.TotalFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		ConsecutiveFailures:  c.ConsecutiveFailures,
	}
}

// Transport wraps an http.RoundTripper so every round trip goes through the
// breaker.
type Transport struct {
	Breaker *Breaker
	Next    http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.Breaker.Do(func() (*http.Response, error) {
		return t.Next.RoundTrip(req)
	})
}

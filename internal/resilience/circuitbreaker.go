// Package resilience keeps the inference line alive when remote providers
// misbehave. A [CircuitBreaker] suspends calls to a backend that keeps
// failing, and [FallbackGroup] routes each utterance to the first healthy
// backend in a configured chain, so one dead STT or translation endpoint
// degrades a session to its fallback instead of degrading every result.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while a backend is
// suspended and its retry window has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen]. Entered after a failure
	// streak, left when the retry window elapses.
	StateOpen

	// StateHalfOpen admits a bounded number of probe calls. Enough successes
	// close the breaker; the first failure re-opens it.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes one breaker.
//
// The defaults assume the caller is the inference line, which issues roughly
// one call per utterance (every second or two of speech). Tripping after
// three failures and retrying after ten seconds means a dead backend costs a
// handful of degraded utterances, not half a conversation.
type CircuitBreakerConfig struct {
	// Name labels the backend in log output, e.g. "stt/whisper-native".
	Name string

	// MaxFailures is the failure streak that trips the breaker. Default: 3.
	MaxFailures int

	// ResetTimeout is how long calls stay suspended before probing resumes.
	// Default: 10s.
	ResetTimeout time.Duration

	// HalfOpenMax is how many successful probes close the breaker again.
	// Default: 2.
	HalfOpenMax int
}

func (c *CircuitBreakerConfig) applyDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 3
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 10 * time.Second
	}
	if c.HalfOpenMax <= 0 {
		c.HalfOpenMax = 2
	}
}

// CircuitBreaker suspends calls to a backend after a streak of failures and
// probes it again after a retry window.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	streak   int       // consecutive failures while closed
	openedAt time.Time // when the breaker last tripped
	probes   int       // probe calls admitted this half-open period
	probeOK  int       // successful probes this half-open period
}

// NewCircuitBreaker creates a breaker in the closed state. Zero config
// fields take the documented defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.applyDefaults()
	return &CircuitBreaker{cfg: cfg}
}

// Execute runs fn unless the breaker is suspending calls, in which case it
// returns [ErrCircuitOpen] without invoking fn. fn's error is passed through.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}
	err = fn()
	cb.observe(probe, err)
	return err
}

// admit decides whether a call may proceed and whether it counts as a
// half-open probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.openedAt) < cb.cfg.ResetTimeout {
			return false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probes = 0
		cb.probeOK = 0
		slog.Info("probing suspended backend", "breaker", cb.cfg.Name)
	}

	if cb.state == StateHalfOpen {
		if cb.probes >= cb.cfg.HalfOpenMax {
			// Probe budget spent, wait for the outcomes.
			return false, ErrCircuitOpen
		}
		cb.probes++
		return true, nil
	}
	return false, nil
}

// observe records a call outcome and drives the state transitions.
func (cb *CircuitBreaker) observe(probe bool, callErr error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if callErr == nil {
		if !probe {
			cb.streak = 0
			return
		}
		cb.probeOK++
		if cb.probeOK >= cb.cfg.HalfOpenMax {
			cb.state = StateClosed
			cb.streak = 0
			slog.Info("backend recovered, resuming calls", "breaker", cb.cfg.Name)
		}
		return
	}

	if probe {
		// One failed probe is enough evidence the backend is still down.
		cb.trip()
		return
	}
	cb.streak++
	if cb.streak >= cb.cfg.MaxFailures {
		cb.trip()
	}
}

// trip suspends calls. Must be called with cb.mu held.
func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	slog.Warn("suspending backend after repeated failures",
		"breaker", cb.cfg.Name,
		"retry_in", cb.cfg.ResetTimeout)
}

// State returns the breaker's current mode. An open breaker whose retry
// window has elapsed reports [StateHalfOpen]; the stored state changes on
// the next [CircuitBreaker.Execute].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to closed, clearing the failure streak.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.streak = 0
	cb.probes = 0
	cb.probeOK = 0
	slog.Info("circuit breaker manually reset", "breaker", cb.cfg.Name)
}

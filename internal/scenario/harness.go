package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// Harness is the external test context a scenario suspends while its steps
// run. Suspend is called once before execution starts; Resume is called
// exactly once when the scenario finishes, and after runs in the resumed
// context. Fail reports a user-visible failure from inside after.
type Harness interface {
	Suspend(timeout time.Duration)
	Resume(after func())
	Fail(msg string)
}

// DefaultGrace is added to the suspend timeout by the bundled harnesses.
// Worst-case durations are estimates that scheduling overshoots slightly.
// Input pacing is not part of any worst case either: with a Pacer
// attached, each click or setValue may wait up to one pacer interval, so
// slow input rates need a grace of at least that interval per input step.
const DefaultGrace = time.Second

// suspension is the resume handshake shared by the bundled harnesses.
type suspension struct {
	grace   time.Duration
	mu      sync.Mutex
	timeout time.Duration
	resumed chan func()
}

func newSuspension(grace time.Duration) *suspension {
	return &suspension{grace: grace, resumed: make(chan func(), 1)}
}

func (s *suspension) Suspend(timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = timeout
}

func (s *suspension) Resume(after func()) {
	if after == nil {
		after = func() {}
	}
	select {
	case s.resumed <- after:
	default:
		panic("scenario: harness resumed more than once")
	}
}

// wait blocks until Resume and returns its continuation. It fails once the
// suspend timeout plus grace has passed or ctx is done.
func (s *suspension) wait(ctx context.Context) (func(), error) {
	s.mu.Lock()
	timeout := s.timeout + s.grace
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case after := <-s.resumed:
		return after, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TB binds a scenario to a Go test.
type TB struct {
	*suspension
	t testing.TB
}

var _ Harness = (*TB)(nil)

// NewTB creates a harness reporting failures through t.
func NewTB(t testing.TB) *TB {
	return &TB{suspension: newSuspension(DefaultGrace), t: t}
}

func (h *TB) Fail(msg string) {
	h.t.Helper()
	h.t.Error(msg)
}

// Wait blocks the test goroutine until the scenario resumes, then runs the
// continuation. A timeout fails the test immediately.
func (h *TB) Wait() {
	h.t.Helper()
	after, err := h.wait(h.t.Context())
	if err != nil {
		h.t.Fatal(err)
	}
	after()
}

// ErrTimeout is returned by CLI.Wait when the scenario never resumed.
var ErrTimeout = errors.New("scenario timed out")

// CLI binds a scenario to a command-line run.
type CLI struct {
	*suspension
	mu       sync.Mutex
	failures []string
}

var _ Harness = (*CLI)(nil)

// NewCLI creates a harness whose Wait returns the failure as an error.
func NewCLI(grace time.Duration) *CLI {
	return &CLI{suspension: newSuspension(grace)}
}

func (h *CLI) Fail(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, msg)
}

// Wait blocks until the scenario resumes. It returns nil on success, the
// formatted failure otherwise, an error wrapping ErrTimeout, or ctx.Err().
func (h *CLI) Wait(ctx context.Context) error {
	after, err := h.wait(ctx)
	if err != nil {
		return err
	}
	after()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.failures) == 0 {
		return nil
	}
	return errors.New(h.failures[0])
}

package scrollaction

import "sync"

// Call records a single ContinuousScrollAction invocation, for assertions in tests.
type Call struct {
	Phase string
	V     Velocity
}

// TestScroll is a ContinuousScrollAction that records every call instead of
// forwarding it anywhere, for deterministic pipeline tests.
type TestScroll struct {
	mu         sync.Mutex
	calls      []Call
	inEpisode  bool
	failBegin  error
	failUpdate error
	failEnd    error
}

// NewTestScroll creates a TestScroll.
func NewTestScroll() *TestScroll {
	return &TestScroll{}
}

func (t *TestScroll) Begin(v Velocity) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inEpisode {
		return ErrPhaseOrder
	}
	if t.failBegin != nil {
		return t.failBegin
	}
	t.inEpisode = true
	t.calls = append(t.calls, Call{Phase: "begin", V: v})
	return nil
}

func (t *TestScroll) Update(v Velocity) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.inEpisode {
		return ErrPhaseOrder
	}
	if t.failUpdate != nil {
		return t.failUpdate
	}
	t.calls = append(t.calls, Call{Phase: "change", V: v})
	return nil
}

func (t *TestScroll) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.inEpisode {
		return ErrPhaseOrder
	}
	if t.failEnd != nil {
		return t.failEnd
	}
	t.inEpisode = false
	t.calls = append(t.calls, Call{Phase: "end"})
	return nil
}

// Calls returns a copy of every recorded call, in order.
func (t *TestScroll) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// Reset clears recorded calls and episode state.
func (t *TestScroll) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
	t.inEpisode = false
}

// SetFailBegin configures Begin to return err on every subsequent call.
func (t *TestScroll) SetFailBegin(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failBegin = err
}

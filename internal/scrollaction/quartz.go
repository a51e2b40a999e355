package scrollaction

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// QuartzScroll implements ContinuousScrollAction by driving a small external helper
// process over a line-delimited JSON protocol, the same lazily-started,
// idle-shutdown subprocess idiom the hand-landmark detector uses. On macOS this
// helper wraps CGEventCreateScrollWheelEvent (Quartz Event Services); the Go side
// only knows the wire protocol. It owns the velocity-to-pixel mapping:
// callers pass raw per-frame velocity, QuartzScroll derives dt itself between calls.
type QuartzScroll struct {
	cfg Config

	mu         sync.Mutex
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	started    bool
	inEpisode  bool
	idleTimer  *time.Timer
	lastCallAt time.Time
}

type quartzCommand struct {
	Phase string  `json:"phase"`
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
}

// NewQuartzScroll creates a QuartzScroll. The helper process is started lazily on
// the first Begin call.
func NewQuartzScroll(cfg Config) *QuartzScroll {
	return &QuartzScroll{cfg: cfg}
}

// Begin starts a SCROLLING episode, launching the helper process if needed.
func (q *QuartzScroll) Begin(v Velocity) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inEpisode {
		return ErrPhaseOrder
	}
	if err := q.ensureStarted(); err != nil {
		return err
	}
	q.inEpisode = true
	q.lastCallAt = time.Now()

	dx, dy := q.cfg.DeltaPx(v, 0)
	return q.send(quartzCommand{Phase: "begin", DX: dx, DY: dy})
}

// Update emits a Change-phase event with the per-frame delta.
func (q *QuartzScroll) Update(v Velocity) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.inEpisode {
		return ErrPhaseOrder
	}

	now := time.Now()
	dt := now.Sub(q.lastCallAt).Seconds()
	q.lastCallAt = now

	dx, dy := q.cfg.DeltaPx(v, dt)
	return q.send(quartzCommand{Phase: "change", DX: dx, DY: dy})
}

// End emits an End-phase event and closes out the episode.
func (q *QuartzScroll) End() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.inEpisode {
		return ErrPhaseOrder
	}
	q.inEpisode = false
	return q.send(quartzCommand{Phase: "end"})
}

// Close shuts down the helper process.
func (q *QuartzScroll) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shutdown()
}

func (q *QuartzScroll) send(cmd quartzCommand) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode scroll command: %w", err)
	}
	data = append(data, '\n')
	if _, err := q.stdin.Write(data); err != nil {
		return fmt.Errorf("write scroll command: %w", err)
	}
	q.resetIdleTimer()
	return nil
}

func (q *QuartzScroll) ensureStarted() error {
	if q.started {
		return nil
	}

	helperPath := findScrollHelper()
	if helperPath == "" {
		return fmt.Errorf("quartz_scroll_helper not found")
	}

	q.cmd = exec.Command(helperPath)

	stdin, err := q.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := q.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	q.cmd.Stderr = os.Stderr

	if err := q.cmd.Start(); err != nil {
		return fmt.Errorf("start scroll helper: %w", err)
	}

	q.stdin = stdin
	q.stdout = bufio.NewReader(stdout)
	q.started = true

	return nil
}

func (q *QuartzScroll) shutdown() error {
	if !q.started {
		return nil
	}
	if q.idleTimer != nil {
		q.idleTimer.Stop()
		q.idleTimer = nil
	}
	if q.stdin != nil {
		q.stdin.Close()
	}
	err := q.cmd.Wait()
	q.started = false
	q.cmd = nil
	q.stdin = nil
	q.stdout = nil
	return err
}

func (q *QuartzScroll) resetIdleTimer() {
	if q.idleTimer != nil {
		q.idleTimer.Stop()
	}
	q.idleTimer = time.AfterFunc(30*time.Second, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if !q.inEpisode {
			q.shutdown()
		}
	})
}

func findScrollHelper() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/quartz_scroll_helper",
		"../scripts/quartz_scroll_helper",
		filepath.Join(execDir, "scripts/quartz_scroll_helper"),
		filepath.Join(os.Getenv("HOME"), ".kuchipudi/scripts/quartz_scroll_helper"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// ReadNaturalScrollingPreference shells out to `defaults read` once at startup to
// determine whether natural scrolling is enabled.
func ReadNaturalScrollingPreference() bool {
	out, err := exec.Command("defaults", "read", "-g", "com.apple.swipescrolldirection").Output()
	if err != nil {
		return false
	}
	return string(trimNewline(out)) == "1"
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return b
}

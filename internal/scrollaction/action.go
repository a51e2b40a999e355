// Package scrollaction implements the ContinuousScrollAction contract:
// a phase-correct scroll-event emitter over an opaque OS scroll sink, plus the
// velocity-to-pixel mapping and natural-scrolling inversion feeding it.
package scrollaction

import (
	"errors"
	"math"
)

// ErrPhaseOrder is returned when Update or End is called without a preceding Begin,
// or Begin is called twice without an intervening End.
var ErrPhaseOrder = errors.New("scrollaction: phase order violation")

// Velocity is the minimal shape ContinuousScrollAction needs from a velocity
// estimate: vx/vy in image-normalized units per second.
type Velocity struct {
	VX, VY float64
}

// ContinuousScrollAction is the capability-level contract over the OS scroll sink.
// Implementations must be safe to call only from the OS main dispatch
// context; the type itself does no locking.
type ContinuousScrollAction interface {
	Begin(v Velocity) error
	Update(v Velocity) error
	End() error
}

// Config holds the velocity-to-pixel mapping parameters.
type Config struct {
	PixelsPerUnit    float64
	MaxStepPx        float64
	NaturalScrolling bool
}

// DeltaPx maps a velocity sample and elapsed time to a per-frame pixel delta,
// applying the configured clamp and natural-scrolling inversion:
//
//	dy_px = clamp(scale * vy * dt_seconds, -max_step, +max_step)
func (c Config) DeltaPx(v Velocity, dtSeconds float64) (dxPx, dyPx float64) {
	dx := clamp(c.PixelsPerUnit*v.VX*dtSeconds, -c.MaxStepPx, c.MaxStepPx)
	dy := clamp(c.PixelsPerUnit*v.VY*dtSeconds, -c.MaxStepPx, c.MaxStepPx)

	if c.NaturalScrolling {
		dy = -dy
	}

	return dx, dy
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

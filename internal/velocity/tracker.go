// Package velocity implements the time-windowed, smoothed fingertip-midpoint
// velocity estimator and the 2-state scroll activation controller.
package velocity

import (
	"math"

	"github.com/ayusman/kuchipudi/internal/kinematics"
)

// Vector2D is a 2D velocity estimate in image-normalized units per second.
type Vector2D struct {
	VX, VY    float64
	Magnitude float64
}

// TrackerConfig holds the tuning parameters for the velocity estimator.
type TrackerConfig struct {
	WindowMs       int64
	MinDtMs        int64
	MinSamples     int
	EMABeta        float64
	NoiseThreshold float64
}

// Tracker computes a smoothed 2D velocity from a KinematicsBuffer of fingertip
// midpoint samples.
type Tracker struct {
	cfg TrackerConfig

	vxEMA, vyEMA float64
	smoothed     bool
}

// NewTracker creates a Tracker with the given configuration.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// Reset zeros the EMA state, as required when ControllerState transitions to IDLE.
func (t *Tracker) Reset() {
	t.vxEMA, t.vyEMA = 0, 0
	t.smoothed = false
}

// Update computes the velocity estimate for the current frame from the kinematics
// buffer's samples within the configured window, applies EMA smoothing and a
// deadband, and returns the result.
func (t *Tracker) Update(buf *kinematics.Buffer) Vector2D {
	oldest, newest, ok := buf.OldestWithinWindow(t.cfg.WindowMs)

	var rawVX, rawVY float64
	haveSample := false

	if ok {
		dt := newest.TMs - oldest.TMs
		if dt >= t.cfg.MinDtMs && buf.Len() >= t.cfg.MinSamples && dt > 0 {
			rawVX = (newest.MidpointImg.X - oldest.MidpointImg.X) * 1000 / float64(dt)
			rawVY = (newest.MidpointImg.Y - oldest.MidpointImg.Y) * 1000 / float64(dt)
			haveSample = true
		}
	}

	// An infeasible window contributes a raw velocity of exactly zero into the
	// EMA, not a hold of the prior value.
	if !haveSample {
		rawVX, rawVY = 0, 0
	}

	if !t.smoothed {
		t.vxEMA, t.vyEMA = rawVX, rawVY
		t.smoothed = true
	} else {
		beta := t.cfg.EMABeta
		t.vxEMA = beta*rawVX + (1-beta)*t.vxEMA
		t.vyEMA = beta*rawVY + (1-beta)*t.vyEMA
	}

	vx := deadband(t.vxEMA, t.cfg.NoiseThreshold)
	vy := deadband(t.vyEMA, t.cfg.NoiseThreshold)

	return Vector2D{VX: vx, VY: vy, Magnitude: math.Hypot(vx, vy)}
}

func deadband(v, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

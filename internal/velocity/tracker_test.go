package velocity

import (
	"testing"

	"github.com/ayusman/kuchipudi/internal/align"
	"github.com/ayusman/kuchipudi/internal/kinematics"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func fillBuffer(b *kinematics.Buffer, positions [][2]float64, tMs []int64) {
	for i, p := range positions {
		b.Append(kinematics.Sample{TMs: tMs[i], MidpointImg: align.Point2D{X: p[0], Y: p[1]}})
	}
}

func TestTracker_InsufficientSamplesYieldsZero(t *testing.T) {
	buf := kinematics.New(16)
	buf.Append(kinematics.Sample{TMs: 0, MidpointImg: align.Point2D{X: 0, Y: 0}})

	tr := NewTracker(TrackerConfig{WindowMs: 100, MinDtMs: 10, MinSamples: 3, EMABeta: 1.0, NoiseThreshold: 0})
	v := tr.Update(buf)

	assert.Equal(t, 0.0, v.VX)
	assert.Equal(t, 0.0, v.VY)
}

func TestTracker_ComputesRawVelocityOnFirstSufficientSample(t *testing.T) {
	buf := kinematics.New(16)
	fillBuffer(buf, [][2]float64{{0, 0}, {0.1, 0}, {0.2, 0}}, []int64{0, 50, 100})

	// EMABeta=1 and no prior smoothed state means the first update equals the
	// raw instantaneous velocity exactly.
	tr := NewTracker(TrackerConfig{WindowMs: 1000, MinDtMs: 10, MinSamples: 3, EMABeta: 1.0, NoiseThreshold: 0})
	v := tr.Update(buf)

	// dt = 100ms across the window, dx = 0.2, so vx = 0.2 * 1000/100 = 2.0 units/s.
	assert.InDelta(t, 2.0, v.VX, 1e-9)
	assert.InDelta(t, 0.0, v.VY, 1e-9)
}

func TestTracker_DeadbandZeroesSmallVelocity(t *testing.T) {
	buf := kinematics.New(16)
	fillBuffer(buf, [][2]float64{{0, 0}, {0.001, 0}}, []int64{0, 100})

	tr := NewTracker(TrackerConfig{WindowMs: 1000, MinDtMs: 10, MinSamples: 2, EMABeta: 1.0, NoiseThreshold: 0.5})
	v := tr.Update(buf)

	assert.Equal(t, 0.0, v.VX)
	assert.Equal(t, 0.0, v.Magnitude)
}

func TestTracker_Reset(t *testing.T) {
	buf := kinematics.New(16)
	fillBuffer(buf, [][2]float64{{0, 0}, {1, 0}}, []int64{0, 100})

	tr := NewTracker(TrackerConfig{WindowMs: 1000, MinDtMs: 10, MinSamples: 2, EMABeta: 0.5, NoiseThreshold: 0})
	tr.Update(buf)
	assert.True(t, tr.smoothed)

	tr.Reset()
	assert.False(t, tr.smoothed)
	assert.Equal(t, 0.0, tr.vxEMA)
}

// TestTracker_EMAConvergesTowardConstantVelocity checks that repeatedly feeding a
// constant raw velocity drives the EMA toward that value regardless of beta, a
// basic sanity property of exponential smoothing.
func TestTracker_EMAConvergesTowardConstantVelocity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		beta := rapid.Float64Range(0.05, 1.0).Draw(rt, "beta")
		vxTarget := rapid.Float64Range(-5, 5).Draw(rt, "vxTarget")

		tr := NewTracker(TrackerConfig{WindowMs: 1000, MinDtMs: 10, MinSamples: 2, EMABeta: beta, NoiseThreshold: 0})

		tMs := int64(0)
		x := 0.0
		for i := 0; i < 200; i++ {
			buf := kinematics.New(4)
			buf.Append(kinematics.Sample{TMs: tMs, MidpointImg: align.Point2D{X: x, Y: 0}})
			tMs += 20
			x += vxTarget * 20.0 / 1000.0
			buf.Append(kinematics.Sample{TMs: tMs, MidpointImg: align.Point2D{X: x, Y: 0}})
			tr.Update(buf)
		}

		if diff := tr.vxEMA - vxTarget; diff > 1e-3 || diff < -1e-3 {
			rt.Fatalf("EMA did not converge to constant velocity: got %f, want %f (beta=%f)", tr.vxEMA, vxTarget, beta)
		}
	})
}

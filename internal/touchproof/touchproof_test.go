package touchproof

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func baseConfig() Config {
	return Config{
		ProximityEnter: 1.0,
		ProximityExit:  2.0,
		AngleEnterDeg:  160,
		AngleExitDeg:   120,
		VisibilityAMin: 0,
		ProximityEMA:   1.0,
		AngleEMA:       1.0,
		DistanceK:      0,
		AngleK:         0,
		GateBandLow:    0.3,
		GateBandHigh:   0.7,
		TEnter:         0.5,
		TExit:          0.3,
		NEnter:         3,
		NExit:          2,
	}
}

// touching feeds one frame whose proximity and angle scores are both 1 (distance
// and angle comfortably past "enter"), visibility asymmetry unavailable.
func touching(d *Detector) Signals {
	return d.Update(0, 10, 0.5, nil, 0, false)
}

// notTouching feeds one frame whose proximity and angle scores are both 0.
func notTouching(d *Detector) Signals {
	return d.Update(10, 170, 0.5, nil, 0, false)
}

func TestNew_StartsUnarmed(t *testing.T) {
	d := New(baseConfig())
	if d.State() != StateUnarmed {
		t.Fatalf("State() = %v, want UNARMED", d.State())
	}
	if d.IsTouching() {
		t.Fatal("IsTouching() = true on a fresh detector")
	}
}

func TestDetector_EntersReadyAfterNEnterConsecutiveFrames(t *testing.T) {
	d := New(baseConfig())

	for i := 0; i < baseConfig().NEnter-1; i++ {
		sig := touching(d)
		if sig.State != StateUnarmed || sig.IsTouching {
			t.Fatalf("frame %d: state=%v touching=%v before NEnter reached", i, sig.State, sig.IsTouching)
		}
	}

	sig := touching(d)
	if sig.State != StateReady || !sig.IsTouching {
		t.Fatalf("after NEnter frames: state=%v touching=%v, want READY/true", sig.State, sig.IsTouching)
	}
}

func TestDetector_NonConsecutiveAboveThresholdResetsEnterCounter(t *testing.T) {
	cfg := baseConfig()
	d := New(cfg)

	touching(d)
	touching(d)
	notTouching(d) // below TEnter: resets cEnter to 0

	for i := 0; i < cfg.NEnter-1; i++ {
		sig := touching(d)
		if sig.State != StateUnarmed {
			t.Fatalf("frame %d after reset: state=%v, want still UNARMED", i, sig.State)
		}
	}
	sig := touching(d)
	if sig.State != StateReady {
		t.Fatalf("state=%v after a fresh run of NEnter frames, want READY", sig.State)
	}
}

func TestDetector_ExitsAfterNExitConsecutiveBelowThreshold(t *testing.T) {
	cfg := baseConfig()
	d := New(cfg)

	for i := 0; i < cfg.NEnter; i++ {
		touching(d)
	}
	if d.State() != StateReady {
		t.Fatalf("State() = %v, want READY before exercising exit path", d.State())
	}

	for i := 0; i < cfg.NExit-1; i++ {
		sig := notTouching(d)
		if sig.State != StateReady || !sig.IsTouching {
			t.Fatalf("frame %d: state=%v touching=%v before NExit reached", i, sig.State, sig.IsTouching)
		}
	}

	sig := notTouching(d)
	if sig.State != StateUnarmed || sig.IsTouching {
		t.Fatalf("after NExit frames: state=%v touching=%v, want UNARMED/false", sig.State, sig.IsTouching)
	}
}

func TestDetector_NonConsecutiveBelowThresholdResetsExitCounter(t *testing.T) {
	cfg := baseConfig()
	d := New(cfg)
	for i := 0; i < cfg.NEnter; i++ {
		touching(d)
	}

	notTouching(d)
	touching(d) // above TExit: resets cExit to 0

	for i := 0; i < cfg.NExit; i++ {
		sig := notTouching(d)
		if i < cfg.NExit-1 && sig.State != StateReady {
			t.Fatalf("frame %d: state=%v, want still READY after cExit reset", i, sig.State)
		}
	}
	if d.State() != StateUnarmed {
		t.Fatalf("State() = %v, want UNARMED after a fresh run of NExit frames", d.State())
	}
}

func TestDetector_Reset(t *testing.T) {
	d := New(baseConfig())
	for i := 0; i < baseConfig().NEnter; i++ {
		touching(d)
	}
	if d.State() != StateReady {
		t.Fatal("expected READY before Reset()")
	}

	d.Reset()

	if d.State() != StateUnarmed {
		t.Fatalf("State() = %v after Reset(), want UNARMED", d.State())
	}
	if d.IsTouching() {
		t.Fatal("IsTouching() = true after Reset()")
	}
	if d.cEnter != 0 || d.cExit != 0 {
		t.Fatalf("counters not cleared by Reset(): cEnter=%d cExit=%d", d.cEnter, d.cExit)
	}
}

func TestDetector_HoldLastTouching_IsANoOpSnapshot(t *testing.T) {
	d := New(baseConfig())
	for i := 0; i < baseConfig().NEnter; i++ {
		touching(d)
	}

	before := d.cEnter
	sig := d.HoldLastTouching()
	if !sig.IsTouching || sig.State != StateReady {
		t.Fatalf("HoldLastTouching() = %+v, want IsTouching=true State=READY", sig)
	}
	if d.cEnter != before {
		t.Fatal("HoldLastTouching() must not advance hysteresis counters")
	}
}

func TestDetector_NeedsMFC_StateReadyAlwaysNeedsIt(t *testing.T) {
	d := New(baseConfig())
	for i := 0; i < baseConfig().NEnter; i++ {
		touching(d)
	}
	if !d.NeedsMFC(0, 0, 0.9) {
		t.Fatal("NeedsMFC() = false while READY, want true regardless of signals")
	}
}

func TestDetector_NeedsMFC_GateBand(t *testing.T) {
	d := New(baseConfig())

	// initialFused = 0.7*prox + 0.3*ang; with prox=ang=0.5, initialFused=0.5,
	// squarely inside [0.3, 0.7].
	if !d.NeedsMFC(0.5, 0.5, 0.9) {
		t.Fatal("NeedsMFC() = false inside the gate band, want true")
	}

	// prox=ang=1 -> initialFused=1, above the gate band and far away, so MFC
	// isn't needed.
	if d.NeedsMFC(1, 1, 0.9) {
		t.Fatal("NeedsMFC() = true outside the gate band while far away, want false")
	}
}

func TestDetector_NeedsMFC_CloseDistanceAlwaysNeedsIt(t *testing.T) {
	d := New(baseConfig())
	if !d.NeedsMFC(1, 1, 0.1) {
		t.Fatal("NeedsMFC() = false when distanceFactor < 0.3, want true")
	}
}

func TestWeights_BaseTablesSumToOne(t *testing.T) {
	if math.Abs(wNear.Sum()-1) > 1e-9 {
		t.Fatalf("wNear.Sum() = %f, want 1", wNear.Sum())
	}
	if math.Abs(wFar.Sum()-1) > 1e-9 {
		t.Fatalf("wFar.Sum() = %f, want 1", wFar.Sum())
	}
}

// TestWeightsUsed_AlwaysSumsToOne is the weight-normalization invariant: whether or
// not MFC is evaluated this frame, the weights actually applied to the fused score
// must sum to 1.
func TestWeightsUsed_AlwaysSumsToOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		distanceFactor := rapid.Float64Range(0, 1).Draw(rt, "distanceFactor")
		mfcEvaluated := rapid.Bool().Draw(rt, "mfcEvaluated")

		prox, ang, mfc, vis := WeightsUsed(distanceFactor, mfcEvaluated)
		sum := prox + ang + mfc + vis

		if math.Abs(sum-1) > 1e-9 {
			rt.Fatalf("weights sum to %f (prox=%f ang=%f mfc=%f vis=%f), want 1", sum, prox, ang, mfc, vis)
		}
		if !mfcEvaluated && mfc != 0 {
			rt.Fatalf("mfc weight = %f with mfcEvaluated=false, want 0", mfc)
		}
	})
}

func TestScoreVisibility_NilIsZero(t *testing.T) {
	if got := scoreVisibility(nil, 0.5); got != 0 {
		t.Fatalf("scoreVisibility(nil, ...) = %f, want 0", got)
	}
}

func TestScoreVisibility_AboveMinIsOne(t *testing.T) {
	a := 0.9
	if got := scoreVisibility(&a, 0.5); got != 1 {
		t.Fatalf("scoreVisibility(0.9, aMin=0.5) = %f, want 1", got)
	}
}

func TestScoreVisibility_BelowMinIsProportional(t *testing.T) {
	a := 0.25
	if got := scoreVisibility(&a, 0.5); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("scoreVisibility(0.25, aMin=0.5) = %f, want 0.5", got)
	}
}

func TestPieceLinearDesc(t *testing.T) {
	cases := []struct {
		v, enter, exit, want float64
	}{
		{v: 0, enter: 1, exit: 2, want: 1},
		{v: 1, enter: 1, exit: 2, want: 1},
		{v: 2, enter: 1, exit: 2, want: 0},
		{v: 3, enter: 1, exit: 2, want: 0},
		{v: 1.5, enter: 1, exit: 2, want: 0.5},
	}
	for _, c := range cases {
		if got := pieceLinearDesc(c.v, c.enter, c.exit); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("pieceLinearDesc(%f, %f, %f) = %f, want %f", c.v, c.enter, c.exit, got, c.want)
		}
	}
}

func TestInterpolateWeights_ClampsToNearAndFarOutsideBand(t *testing.T) {
	near := interpolateWeights(0.1)
	if near != wNear {
		t.Fatalf("interpolateWeights(0.1) = %+v, want wNear", near)
	}
	far := interpolateWeights(0.9)
	if far != wFar {
		t.Fatalf("interpolateWeights(0.9) = %+v, want wFar", far)
	}
}

func TestInterpolateWeights_BlendsLinearlyInBand(t *testing.T) {
	mid := interpolateWeights(0.5)
	wantProx := 0.5*wNear.prox + 0.5*wFar.prox
	if math.Abs(mid.prox-wantProx) > 1e-9 {
		t.Fatalf("interpolateWeights(0.5).prox = %f, want %f", mid.prox, wantProx)
	}
}

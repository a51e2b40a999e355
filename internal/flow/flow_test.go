package flow

import (
	"image"
	"math"
	"testing"

	"gocv.io/x/gocv"
)

func TestPearson_PerfectPositiveCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{2, 4, 6, 8}
	if got := pearson(a, b); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("pearson() = %f, want 1.0", got)
	}
}

func TestPearson_PerfectNegativeCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{4, 3, 2, 1}
	if got := pearson(a, b); math.Abs(got+1.0) > 1e-9 {
		t.Fatalf("pearson() = %f, want -1.0", got)
	}
}

func TestPearson_ZeroVarianceYieldsZero(t *testing.T) {
	a := []float64{5, 5, 5, 5}
	b := []float64{1, 2, 3, 4}
	if got := pearson(a, b); got != 0 {
		t.Fatalf("pearson() with zero variance = %f, want 0", got)
	}
}

func TestPearson_EmptyYieldsZero(t *testing.T) {
	if got := pearson(nil, nil); got != 0 {
		t.Fatalf("pearson(nil, nil) = %f, want 0", got)
	}
}

func TestMeanAbsMag(t *testing.T) {
	vs := []flowVec{{fx: 3, fy: 4}, {fx: 0, fy: 0}}
	if got := meanAbsMag(vs); math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("meanAbsMag() = %f, want 2.5", got)
	}
}

func TestMeanAbsMag_Empty(t *testing.T) {
	if got := meanAbsMag(nil); got != 0 {
		t.Fatalf("meanAbsMag(nil) = %f, want 0", got)
	}
}

func TestClamp01(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0: 0, 0.5: 0.5, 1: 1, 2: 1}
	for in, want := range cases {
		if got := clamp01(in); got != want {
			t.Fatalf("clamp01(%f) = %f, want %f", in, got, want)
		}
	}
}

func blankGray(size int) gocv.Mat {
	m := gocv.NewMatWithSize(size, size, gocv.MatTypeCV8UC1)
	return m
}

func TestProbe_Update_FirstFrameIsInfeasible(t *testing.T) {
	p := New(5, 7)
	defer p.Close()

	gray := blankGray(100)
	defer gray.Close()

	err := p.Update(&gray, image.Pt(50, 50), image.Pt(40, 40))
	if err != ErrInfeasible {
		t.Fatalf("Update() on first frame error = %v, want ErrInfeasible", err)
	}
}

func TestProbe_Update_OutOfBoundsPatchIsInfeasible(t *testing.T) {
	p := New(5, 7)
	defer p.Close()

	gray := blankGray(100)
	defer gray.Close()

	err := p.Update(&gray, image.Pt(1, 1), image.Pt(40, 40))
	if err != ErrInfeasible {
		t.Fatalf("Update() with out-of-bounds patch error = %v, want ErrInfeasible", err)
	}

	// A second frame still can't produce history since the first frame never
	// established a valid previous-gray baseline for that patch geometry.
	gray2 := blankGray(100)
	defer gray2.Close()
	err = p.Update(&gray2, image.Pt(1, 1), image.Pt(40, 40))
	if err != ErrInfeasible {
		t.Fatalf("Update() second call error = %v, want ErrInfeasible", err)
	}
}

func TestProbe_Reset_ClearsHistory(t *testing.T) {
	p := New(5, 7)
	defer p.Close()

	g1 := blankGray(100)
	defer g1.Close()
	g2 := blankGray(100)
	defer g2.Close()

	p.Update(&g1, image.Pt(50, 50), image.Pt(40, 40))
	p.Update(&g2, image.Pt(50, 50), image.Pt(40, 40))

	p.Reset()

	if p.hasPrev {
		t.Fatal("Reset() did not clear hasPrev")
	}
	if len(p.indexHist) != 0 || len(p.middleHist) != 0 {
		t.Fatal("Reset() did not clear flow history")
	}
	if got := p.Score(0.5, 0.5, 0.5); got != 0 {
		t.Fatalf("Score() after Reset() = %f, want 0", got)
	}
}

func TestProbe_Score_InsufficientHistoryYieldsZero(t *testing.T) {
	p := New(5, 7)
	defer p.Close()
	if got := p.Score(0.5, 0.5, 0.5); got != 0 {
		t.Fatalf("Score() with no history = %f, want 0", got)
	}
}

func TestProbe_Score_BoundedToUnitRange(t *testing.T) {
	p := New(8, 7)
	defer p.Close()

	checker := gocv.NewMatWithSize(120, 120, gocv.MatTypeCV8UC1)
	defer checker.Close()
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			if (x/10+y/10)%2 == 0 {
				checker.SetUCharAt(y, x, 255)
			}
		}
	}

	for i := 0; i < 4; i++ {
		frame := gocv.NewMat()
		checker.CopyTo(&frame)
		p.Update(&frame, image.Pt(60, 60), image.Pt(40, 40))
		frame.Close()
	}

	got := p.Score(0.6, 0.4, 0.5)
	if got < 0 || got > 1 {
		t.Fatalf("Score() = %f, out of [0,1] range", got)
	}
}

func TestAppendBounded_CapsAtWindow(t *testing.T) {
	var hist []flowVec
	for i := 0; i < 10; i++ {
		hist = appendBounded(hist, flowVec{fx: float64(i)}, 3)
	}
	if len(hist) != 3 {
		t.Fatalf("len(hist) = %d, want 3", len(hist))
	}
	if hist[len(hist)-1].fx != 9 {
		t.Fatalf("hist[last].fx = %f, want 9 (most recent kept)", hist[len(hist)-1].fx)
	}
}

func TestNew_ClampsDegenerateParams(t *testing.T) {
	p := New(0, 0)
	defer p.Close()
	if p.windowFrames < 1 {
		t.Fatalf("windowFrames = %d, want >= 1", p.windowFrames)
	}
	if p.patchSize < 3 {
		t.Fatalf("patchSize = %d, want >= 3", p.patchSize)
	}
}

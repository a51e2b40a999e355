// Package flow computes Micro-Flow Cohesion (MFC): whether the index and middle
// fingertips move as one, via Lucas-Kanade optical flow over a short patch history.
package flow

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// ErrInfeasible is returned when a fingertip patch falls outside the frame or there
// is not yet enough flow history; MFC is treated as
// gated off, not an error that aborts the frame.
var ErrInfeasible = errors.New("flow: infeasible")

type flowVec struct{ fx, fy float64 }

// Probe maintains a short history of Lucas-Kanade flow vectors at the two fingertip
// patches and derives the MFC score from their correlation and magnitude ratio.
type Probe struct {
	windowFrames int
	patchSize    int

	prevGray gocv.Mat
	hasPrev  bool

	indexHist  []flowVec
	middleHist []flowVec
}

// New creates a Probe with the given history window (frames) and patch size (pixels).
func New(windowFrames, patchSize int) *Probe {
	if windowFrames < 1 {
		windowFrames = 1
	}
	if patchSize < 3 {
		patchSize = 3
	}
	return &Probe{
		windowFrames: windowFrames,
		patchSize:    patchSize,
		prevGray:     gocv.NewMat(),
	}
}

// Close releases the probe's native resources.
func (p *Probe) Close() {
	if !p.prevGray.Empty() {
		p.prevGray.Close()
	}
}

// Reset clears flow history, e.g. on hand loss or controller re-entering IDLE.
func (p *Probe) Reset() {
	p.hasPrev = false
	p.indexHist = p.indexHist[:0]
	p.middleHist = p.middleHist[:0]
}

// Update computes the flow vectors for this frame at the given fingertip pixel
// positions and appends them to history. It must be called once per frame before
// Score. Returns ErrInfeasible if a patch falls outside the frame.
func (p *Probe) Update(gray *gocv.Mat, indexPx, middlePx image.Point) error {
	if !inBounds(gray, indexPx, p.patchSize) || !inBounds(gray, middlePx, p.patchSize) {
		p.hasPrev = true
		gray.CopyTo(&p.prevGray)
		return ErrInfeasible
	}

	if !p.hasPrev {
		gray.CopyTo(&p.prevGray)
		p.hasPrev = true
		return ErrInfeasible
	}

	iv, err1 := p.flowAt(gray, indexPx)
	mv, err2 := p.flowAt(gray, middlePx)
	gray.CopyTo(&p.prevGray)

	if err1 != nil || err2 != nil {
		return ErrInfeasible
	}

	p.indexHist = appendBounded(p.indexHist, iv, p.windowFrames)
	p.middleHist = appendBounded(p.middleHist, mv, p.windowFrames)

	return nil
}

func appendBounded(hist []flowVec, v flowVec, max int) []flowVec {
	hist = append(hist, v)
	if len(hist) > max {
		hist = hist[len(hist)-max:]
	}
	return hist
}

func inBounds(m *gocv.Mat, center image.Point, patch int) bool {
	half := patch / 2
	return center.X-half >= 0 && center.Y-half >= 0 &&
		center.X+half < m.Cols() && center.Y+half < m.Rows()
}

// flowAt runs Lucas-Kanade optical flow for a single point between prevGray and gray.
func (p *Probe) flowAt(gray *gocv.Mat, pt image.Point) (flowVec, error) {
	prevPts := gocv.NewMatWithSize(1, 1, gocv.MatTypeCV32FC2)
	defer prevPts.Close()

	prevData, err := prevPts.DataPtrFloat32()
	if err != nil || len(prevData) < 2 {
		return flowVec{}, ErrInfeasible
	}
	prevData[0] = float32(pt.X)
	prevData[1] = float32(pt.Y)

	nextPts := gocv.NewMat()
	defer nextPts.Close()
	status := gocv.NewMat()
	defer status.Close()
	errOut := gocv.NewMat()
	defer errOut.Close()

	gocv.CalcOpticalFlowPyrLK(p.prevGray, *gray, prevPts, &nextPts, &status, &errOut)

	statusBytes := status.ToBytes()
	if len(statusBytes) == 0 || statusBytes[0] == 0 {
		return flowVec{}, ErrInfeasible
	}

	nextData, err := nextPts.DataPtrFloat32()
	if err != nil || len(nextData) < 2 {
		return flowVec{}, ErrInfeasible
	}

	return flowVec{fx: float64(nextData[0]) - float64(pt.X), fy: float64(nextData[1]) - float64(pt.Y)}, nil
}

// Score computes the MFC score:
//
//	corr = 0.5 * (pearson(fx_index, fx_middle) + pearson(fy_index, fy_middle))
//	mag_ratio = min(mean|f_idx|, mean|f_mid|) / max(mean|f_idx|, mean|f_mid|)
//	mag_score = 1 if mag_ratio in [magRatioMin, 1] else 0 (0 if both ~0)
//	mfc = clamp(corrWeight*max(0,corr) + magWeight*mag_score, 0, 1)
func (p *Probe) Score(corrWeight, magWeight, magRatioMin float64) float64 {
	n := len(p.indexHist)
	if n > len(p.middleHist) {
		n = len(p.middleHist)
	}
	if n < 2 {
		return 0
	}

	idx := p.indexHist[len(p.indexHist)-n:]
	mid := p.middleHist[len(p.middleHist)-n:]

	fxI := make([]float64, n)
	fyI := make([]float64, n)
	fxM := make([]float64, n)
	fyM := make([]float64, n)
	for i := 0; i < n; i++ {
		fxI[i], fyI[i] = idx[i].fx, idx[i].fy
		fxM[i], fyM[i] = mid[i].fx, mid[i].fy
	}

	corr := 0.5 * (pearson(fxI, fxM) + pearson(fyI, fyM))

	magI := meanAbsMag(idx)
	magM := meanAbsMag(mid)

	var magScore float64
	maxMag := math.Max(magI, magM)
	if maxMag < 1e-9 {
		magScore = 0
	} else {
		ratio := math.Min(magI, magM) / maxMag
		if ratio >= magRatioMin && ratio <= 1 {
			magScore = 1
		}
	}

	mfc := corrWeight*math.Max(0, corr) + magWeight*magScore
	return clamp01(mfc)
}

func meanAbsMag(vs []flowVec) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += math.Hypot(v.fx, v.fy)
	}
	return sum / float64(len(vs))
}

// pearson computes the Pearson correlation coefficient, treating NaN (e.g. from
// zero variance) as 0
func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 {
		return 0
	}

	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	denom := math.Sqrt(varA * varB)
	if denom < 1e-12 {
		return 0
	}

	r := cov / denom
	if math.IsNaN(r) {
		return 0
	}
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

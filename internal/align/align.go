// Package align computes the hand-frame coordinate system: a palm-centered,
// rotation- and scale-normalized frame derived from raw landmarks.
package align

import (
	"errors"
	"math"

	"github.com/ayusman/kuchipudi/internal/detector"
)

// ErrDegenerateHand is returned when the landmarks yield a zero scale (index-MCP
// and index-tip coincide) or a zero-length vector where an angle is required.
// The frame must be dropped and state held, not reset, when this occurs.
var ErrDegenerateHand = errors.New("align: degenerate hand")

// Point2D is a point in the hand-relative coordinate system.
type Point2D struct {
	X, Y float64
}

// Frame is the per-frame hand coordinate system derived from 21 landmarks.
type Frame struct {
	PalmCenter Point2D
	Theta      float64
	Scale      float64
	hand       *detector.HandLandmarks
	imageW     int
	imageH     int
}

// New computes the hand frame for a single detection. imageW/imageH are the source
// frame's pixel dimensions, used to derive FingerLengthPx and DistanceFactor.
func New(hand *detector.HandLandmarks, imageW, imageH int) (*Frame, error) {
	wrist := hand.Points[detector.Wrist]
	middleMCP := hand.Points[detector.MiddleMCP]
	indexMCP := hand.Points[detector.IndexMCP]
	indexTip := hand.Points[detector.IndexTip]

	palmCenter := Point2D{
		X: (wrist.X + middleMCP.X) / 2,
		Y: (wrist.Y + middleMCP.Y) / 2,
	}

	theta := math.Atan2(middleMCP.Y-wrist.Y, middleMCP.X-wrist.X)

	dx := indexTip.X - indexMCP.X
	dy := indexTip.Y - indexMCP.Y
	scale := math.Sqrt(dx*dx + dy*dy)
	if scale <= 0 {
		return nil, ErrDegenerateHand
	}

	return &Frame{
		PalmCenter: palmCenter,
		Theta:      theta,
		Scale:      scale,
		hand:       hand,
		imageW:     imageW,
		imageH:     imageH,
	}, nil
}

// ToHandFrame transforms an image-space landmark into hand-frame coordinates:
// translate by -palm_center, rotate by -theta, divide by scale.
func (f *Frame) ToHandFrame(p detector.Landmark) Point2D {
	tx := p.X - f.PalmCenter.X
	ty := p.Y - f.PalmCenter.Y

	cos, sin := math.Cos(-f.Theta), math.Sin(-f.Theta)
	rx := tx*cos - ty*sin
	ry := tx*sin + ty*cos

	return Point2D{X: rx / f.Scale, Y: ry / f.Scale}
}

// IndexTipHand returns the index fingertip in hand-frame coordinates.
func (f *Frame) IndexTipHand() Point2D {
	return f.ToHandFrame(f.hand.Points[detector.IndexTip])
}

// MiddleTipHand returns the middle fingertip in hand-frame coordinates.
func (f *Frame) MiddleTipHand() Point2D {
	return f.ToHandFrame(f.hand.Points[detector.MiddleTip])
}

// RingTipHand returns the ring fingertip in hand-frame coordinates.
func (f *Frame) RingTipHand() Point2D {
	return f.ToHandFrame(f.hand.Points[detector.RingTip])
}

// PinkyTipHand returns the pinky fingertip in hand-frame coordinates.
func (f *Frame) PinkyTipHand() Point2D {
	return f.ToHandFrame(f.hand.Points[detector.PinkyTip])
}

// IndexMCPPoint returns the index MCP landmark in image coordinates.
func (f *Frame) IndexMCPPoint() detector.Landmark { return f.hand.Points[detector.IndexMCP] }

// MiddleMCPPoint returns the middle MCP landmark in image coordinates.
func (f *Frame) MiddleMCPPoint() detector.Landmark { return f.hand.Points[detector.MiddleMCP] }

// RingMCPPoint returns the ring MCP landmark in image coordinates.
func (f *Frame) RingMCPPoint() detector.Landmark { return f.hand.Points[detector.RingMCP] }

// PinkyMCPPoint returns the pinky MCP landmark in image coordinates.
func (f *Frame) PinkyMCPPoint() detector.Landmark { return f.hand.Points[detector.PinkyMCP] }

// NormalizedFingertipDistance is ||tip_index_hand - tip_middle_hand||, in finger
// length units.
func (f *Frame) NormalizedFingertipDistance() float64 {
	a := f.IndexTipHand()
	b := f.MiddleTipHand()
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// FingertipAngleDeg is the angle in degrees between the hand-frame vectors from the
// palm center to each fingertip. Returns ErrDegenerateHand if either vector has zero
// length.
func (f *Frame) FingertipAngleDeg() (float64, error) {
	a := f.IndexTipHand()
	b := f.MiddleTipHand()

	magA := math.Hypot(a.X, a.Y)
	magB := math.Hypot(b.X, b.Y)
	if magA <= 0 || magB <= 0 {
		return 0, ErrDegenerateHand
	}

	dot := a.X*b.X + a.Y*b.Y
	cosTheta := dot / (magA * magB)
	// Clamp for numerical safety; acos is undefined outside [-1, 1].
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}

	return math.Acos(cosTheta) * 180 / math.Pi, nil
}

// FingerLengthPx is the finger-length scale expressed in source-frame pixels.
func (f *Frame) FingerLengthPx() float64 {
	return f.Scale * math.Max(float64(f.imageW), float64(f.imageH))
}

// DistanceFactor is the camera-distance proxy: 0 when the hand
// is very close to the camera, 1 when far, derived from FingerLengthPx.
func (f *Frame) DistanceFactor() float64 {
	d := (200 - f.FingerLengthPx()) / 150
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

// FingertipMidpointImage returns the midpoint of the index and middle fingertips in
// image-normalized coordinates, used by KinematicsBuffer and VelocityTracker.
func FingertipMidpointImage(hand *detector.HandLandmarks) (x, y float64) {
	idx := hand.Points[detector.IndexTip]
	mid := hand.Points[detector.MiddleTip]
	return (idx.X + mid.X) / 2, (idx.Y + mid.Y) / 2
}

// FingertipMidpointHand returns the midpoint of the index and middle fingertips in
// hand-frame coordinates.
func (f *Frame) FingertipMidpointHand() Point2D {
	a := f.IndexTipHand()
	b := f.MiddleTipHand()
	return Point2D{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

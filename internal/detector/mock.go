package detector

import "gocv.io/x/gocv"

// MockDetector is a test implementation of the Detector interface. It allows tests
// to control the detection results deterministically.
type MockDetector struct {
	hands []HandLandmarks
	found bool
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hand(s) that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
	m.found = len(hands) > 0
}

// SetNoHand configures the detector to report no hand found this frame.
func (m *MockDetector) SetNoHand() {
	m.hands = nil
	m.found = false
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat, tMs int64) ([]HandLandmarks, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return m.hands, m.found, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

func ptr(v float64) *float64 { return &v }

// PinchLandmarks returns a hand with the index and middle fingertips touching
// (normalized_fingertip_distance small, fingertip angle small), at the given
// fingertip-midpoint image position. Used to drive the TouchProof/Velocity/Controller
// chain deterministically in tests.
func PinchLandmarks(midX, midY float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Confidence: 0.95}

	h.Points[Wrist] = Landmark{X: 0.5, Y: 0.85}
	h.Points[IndexMCP] = Landmark{X: 0.5, Y: midY + 0.18}
	h.Points[IndexTip] = Landmark{X: midX - 0.005, Y: midY}
	h.Points[MiddleMCP] = Landmark{X: 0.5, Y: 0.55}
	h.Points[MiddleTip] = Landmark{X: midX + 0.005, Y: midY}

	// Ring and pinky curled toward the palm (irrelevant to touch/angle scoring,
	// but kept plausible so pose.IsHighFive correctly reports false).
	h.Points[RingMCP] = Landmark{X: 0.45, Y: 0.60}
	h.Points[RingTip] = Landmark{X: 0.46, Y: 0.62}
	h.Points[PinkyMCP] = Landmark{X: 0.40, Y: 0.62}
	h.Points[PinkyTip] = Landmark{X: 0.41, Y: 0.64}

	for i := range h.Points {
		h.Points[i].Visibility = ptr(0.98)
	}

	return h
}

// ReleaseLandmarks returns a hand with the fingertips spread apart (far distance,
// large angle) — the released counterpart to PinchLandmarks.
func ReleaseLandmarks(midX, midY float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Confidence: 0.95}

	h.Points[Wrist] = Landmark{X: 0.5, Y: 0.85}
	h.Points[IndexMCP] = Landmark{X: 0.5, Y: midY + 0.18}
	h.Points[IndexTip] = Landmark{X: midX - 0.18, Y: midY - 0.05}
	h.Points[MiddleMCP] = Landmark{X: 0.5, Y: 0.55}
	h.Points[MiddleTip] = Landmark{X: midX + 0.18, Y: midY + 0.05}

	h.Points[RingMCP] = Landmark{X: 0.45, Y: 0.60}
	h.Points[RingTip] = Landmark{X: 0.46, Y: 0.62}
	h.Points[PinkyMCP] = Landmark{X: 0.40, Y: 0.62}
	h.Points[PinkyTip] = Landmark{X: 0.41, Y: 0.64}

	for i := range h.Points {
		h.Points[i].Visibility = ptr(0.98)
	}

	return h
}

// HighFiveLandmarks returns a hand with all four non-thumb fingers fully extended
// (fingertip well beyond its MCP along the hand frame's wrist-to-fingers axis),
// used to drive pose.IsHighFive.
func HighFiveLandmarks() HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Confidence: 0.95}

	h.Points[Wrist] = Landmark{X: 0.5, Y: 0.85}
	h.Points[ThumbTip] = Landmark{X: 0.30, Y: 0.60}

	h.Points[IndexMCP] = Landmark{X: 0.55, Y: 0.65}
	h.Points[IndexTip] = Landmark{X: 0.58, Y: 0.30}

	h.Points[MiddleMCP] = Landmark{X: 0.50, Y: 0.62}
	h.Points[MiddleTip] = Landmark{X: 0.50, Y: 0.22}

	h.Points[RingMCP] = Landmark{X: 0.45, Y: 0.64}
	h.Points[RingTip] = Landmark{X: 0.43, Y: 0.28}

	h.Points[PinkyMCP] = Landmark{X: 0.40, Y: 0.68}
	h.Points[PinkyTip] = Landmark{X: 0.37, Y: 0.38}

	for i := range h.Points {
		h.Points[i].Visibility = ptr(0.98)
	}

	return h
}

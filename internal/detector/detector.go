package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations. Per 
// this is an external collaborator; the pipeline only depends on this interface.
type Detector interface {
	// Detect analyzes a video frame and returns detected hands, plus false if no
	// hand was found this frame.
	Detect(frame *gocv.Mat, tMs int64) ([]HandLandmarks, bool, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	MaxHands        int
	MinConfidence   float64
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

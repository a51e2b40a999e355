// Package app provides the main application logic for the Kuchipudi scroll pipeline.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/kuchipudi/internal/capture"
	"github.com/ayusman/kuchipudi/internal/config"
	"github.com/ayusman/kuchipudi/internal/detector"
	"github.com/ayusman/kuchipudi/internal/dispatch"
	"github.com/ayusman/kuchipudi/internal/flow"
	"github.com/ayusman/kuchipudi/internal/hud"
	"github.com/ayusman/kuchipudi/internal/kinematics"
	"github.com/ayusman/kuchipudi/internal/pose"
	"github.com/ayusman/kuchipudi/internal/scrollaction"
	"github.com/ayusman/kuchipudi/internal/touchproof"
	"github.com/ayusman/kuchipudi/internal/velocity"
	"gocv.io/x/gocv"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 30
	// IdleTimeoutMs is the time to wait with no motion before switching back to idle.
	IdleTimeoutMs = 2000
	// KinematicsCapacity covers the longer of the velocity window and flow history
	// windows at typical frame rates.
	KinematicsCapacity = 64
)

// Config holds construction-time wiring for the App.
type Config struct {
	Cfg      config.Config
	Detector detector.Detector
	Scroll   scrollaction.ContinuousScrollAction
	Hud      hud.Publisher
}

// App is the main application that orchestrates the perception-to-scroll pipeline.
type App struct {
	cfg config.Config

	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector

	flowProbe  *flow.Probe
	touchprf   *touchproof.Detector
	kinBuf     *kinematics.Buffer
	velTracker *velocity.Tracker
	controller *velocity.Controller
	dispatcher *dispatch.Dispatcher

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}

	lastHandSeenMs int64
	haveLastHand   bool

	overlayMu sync.RWMutex
	overlay   OverlayState
}

// OverlayState is a snapshot of the pipeline's current touch/scroll status,
// consumed by the debug MJPEG stream to annotate frames with what the
// pipeline is actually seeing.
type OverlayState struct {
	Hands    int
	Touching bool
	VY       float64
}

// Overlay returns the most recent OverlayState.
func (a *App) Overlay() OverlayState {
	a.overlayMu.RLock()
	defer a.overlayMu.RUnlock()
	return a.overlay
}

func (a *App) setOverlay(o OverlayState) {
	a.overlayMu.Lock()
	a.overlay = o
	a.overlayMu.Unlock()
}

// New creates a new App instance with the given configuration.
func New(appCfg Config) *App {
	cfg := appCfg.Cfg

	a := &App{
		cfg:      cfg,
		camera:   capture.NewCamera(cfg.CameraID),
		motion:   capture.NewMotionDetector(1.0),
		detector: appCfg.Detector,
		enabled:  false,
	}

	a.flowProbe = flow.New(cfg.OpticalFlow.WindowFrames, cfg.OpticalFlow.PatchSize)
	a.touchprf = touchproof.New(touchproof.Config{
		ProximityEnter: cfg.TouchProof.ProximityEnter,
		ProximityExit:  cfg.TouchProof.ProximityExit,
		AngleEnterDeg:  cfg.TouchProof.AngleEnterDeg,
		AngleExitDeg:   cfg.TouchProof.AngleExitDeg,
		VisibilityAMin: cfg.TouchProof.VisibilityAMin,
		ProximityEMA:   cfg.TouchProof.ProximityEMA,
		AngleEMA:       cfg.TouchProof.AngleEMA,
		DistanceK:      cfg.TouchProof.DistanceK,
		AngleK:         cfg.TouchProof.AngleK,
		GateBandLow:    cfg.TouchProof.GateBandLow,
		GateBandHigh:   cfg.TouchProof.GateBandHigh,
		TEnter:         cfg.TouchProof.TEnter,
		TExit:          cfg.TouchProof.TExit,
		NEnter:         cfg.TouchProof.NEnter,
		NExit:          cfg.TouchProof.NExit,
	})
	a.kinBuf = kinematics.New(KinematicsCapacity)
	a.velTracker = velocity.NewTracker(velocity.TrackerConfig{
		WindowMs:       int64(cfg.Velocity.WindowMs),
		MinDtMs:        int64(cfg.Velocity.MinDtMs),
		MinSamples:     cfg.Velocity.MinSamples,
		EMABeta:        cfg.Velocity.EMABeta,
		NoiseThreshold: cfg.Velocity.NoiseThreshold,
	})
	a.controller = velocity.NewController(velocity.ControllerConfig{})

	scroll := appCfg.Scroll
	if scroll == nil {
		scroll = scrollaction.NewNullScroll()
	}
	hudPub := appCfg.Hud
	if hudPub == nil {
		hudPub = noopPublisher{}
	}
	a.dispatcher = dispatch.New(dispatch.Config{
		VRef:  cfg.Scroll.VRef,
		HudHz: float64(cfg.HUD.HudHz),
	}, scroll, hudPub)

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a
}

// SetEnabled enables or disables the pipeline.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether the pipeline is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsTouching reports the TouchProofDetector's last decision, for the tray status.
func (a *App) IsTouching() bool {
	return a.touchprf.IsTouching()
}

// Start begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline()

	log.Println("Scroll pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()
	a.flowProbe.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Scroll pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Step runs a single frame through the perception-to-scroll chain directly,
// bypassing the camera/ticker loop. It exists for driving the pipeline
// synchronously from tests and offline batch tooling; frame is closed before
// Step returns.
func (a *App) Step(frame *gocv.Mat) {
	a.processFrame(frame)
}

type noopPublisher struct{}

func (noopPublisher) Publish(any) {}

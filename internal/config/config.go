// Package config loads the configuration surface for the Kuchipudi scroll pipeline.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// TouchProof holds all thresholds, EMA coefficients, and frame counts for the
// fingertip-contact hysteresis detector.
type TouchProof struct {
	ProximityEnter  float64 `toml:"proximity_enter"`
	ProximityExit   float64 `toml:"proximity_exit"`
	AngleEnterDeg   float64 `toml:"angle_enter_deg"`
	AngleExitDeg    float64 `toml:"angle_exit_deg"`
	VisibilityAMin  float64 `toml:"visibility_a_min"`
	ProximityEMA    float64 `toml:"proximity_ema_alpha"`
	AngleEMA        float64 `toml:"angle_ema_alpha"`
	DistanceK       float64 `toml:"distance_k"`
	AngleK          float64 `toml:"angle_k"`
	GateBandLow     float64 `toml:"gate_band_low"`
	GateBandHigh    float64 `toml:"gate_band_high"`
	TEnter          float64 `toml:"t_enter"`
	TExit           float64 `toml:"t_exit"`
	NEnter          int     `toml:"n_enter"`
	NExit           int     `toml:"n_exit"`
	MFCCorrWeight   float64 `toml:"mfc_corr_weight"`
	MFCMagWeight    float64 `toml:"mfc_mag_weight"`
	MFCMagRatioMin  float64 `toml:"mfc_mag_ratio_min"`
}

// Velocity holds tuning for the fingertip-midpoint velocity tracker.
type Velocity struct {
	WindowMs       int     `toml:"window_ms"`
	MinDtMs        int     `toml:"min_dt_ms"`
	MinSamples     int     `toml:"min_samples"`
	EMABeta        float64 `toml:"ema_beta"`
	NoiseThreshold float64 `toml:"noise_threshold"`
}

// OpticalFlow holds tuning for the Micro-Flow Cohesion probe.
type OpticalFlow struct {
	WindowFrames int `toml:"window_frames"`
	PatchSize    int `toml:"patch_size"`
}

// Scroll holds tuning for the velocity-to-pixel mapping and OS sink.
type Scroll struct {
	Enabled                 bool    `toml:"enabled"`
	PixelsPerUnit           float64 `toml:"pixels_per_unit"`
	MaxStepPx               float64 `toml:"max_step_px"`
	RespectSystemPreference bool    `toml:"respect_system_preference"`
	VRef                    float64 `toml:"v_ref"`
}

// Pose holds tuning for the high-five stop gesture.
type Pose struct {
	HighFiveMargin float64 `toml:"high_five_margin"`
}

// HUD holds the localhost broadcast plane's configuration.
type HUD struct {
	Enabled         bool    `toml:"enabled"`
	Port            uint16  `toml:"port"`
	Token           string  `toml:"token"`
	HudHz           int     `toml:"hud_hz"`
	CameraHz        int     `toml:"camera_hz"`
	CameraFrameSkip int     `toml:"camera_frame_skip"`
	Position        string  `toml:"position"`
	Opacity         float64 `toml:"opacity"`
}

// Config is the full configuration surface read from config.toml.
type Config struct {
	Headless       bool        `toml:"headless"`
	CameraID       int         `toml:"camera_id"`
	HandLossGraceMs int        `toml:"hand_loss_grace_ms"`
	TouchProof     TouchProof  `toml:"touchproof"`
	Velocity       Velocity    `toml:"velocity"`
	OpticalFlow    OpticalFlow `toml:"optical_flow"`
	Scroll         Scroll      `toml:"scroll"`
	Pose           Pose        `toml:"pose"`
	HUD            HUD         `toml:"hud"`
}

// Default returns a Config populated with reasonable defaults for every subsystem.
func Default() Config {
	return Config{
		Headless:        false,
		CameraID:        0,
		HandLossGraceMs: 200,
		TouchProof: TouchProof{
			ProximityEnter: 0.35,
			ProximityExit:  0.55,
			AngleEnterDeg:  20,
			AngleExitDeg:   35,
			VisibilityAMin: 0.3,
			ProximityEMA:   0.3,
			AngleEMA:       0.2,
			DistanceK:      0.30,
			AngleK:         2.0,
			GateBandLow:    0.40,
			GateBandHigh:   0.70,
			TEnter:         0.75,
			TExit:          0.58,
			NEnter:         4,
			NExit:          3,
			MFCCorrWeight:  0.7,
			MFCMagWeight:   0.3,
			MFCMagRatioMin: 0.4,
		},
		Velocity: Velocity{
			WindowMs:       100,
			MinDtMs:        10,
			MinSamples:     3,
			EMABeta:        0.3,
			NoiseThreshold: 0.01,
		},
		OpticalFlow: OpticalFlow{
			WindowFrames: 5,
			PatchSize:    15,
		},
		Scroll: Scroll{
			Enabled:                 true,
			PixelsPerUnit:           2000,
			MaxStepPx:               120,
			RespectSystemPreference: true,
			VRef:                    0.6,
		},
		Pose: Pose{
			HighFiveMargin: 0.15,
		},
		HUD: HUD{
			Enabled:         true,
			Port:            8765,
			Token:           "",
			HudHz:           60,
			CameraHz:        30,
			CameraFrameSkip: 3,
			Position:        "top-right",
			Opacity:         0.85,
		},
	}
}

// Load reads an optional TOML configuration file, starting from Default() and
// overriding any fields present in the file. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// DefaultPath returns the conventional config file location, ~/.kuchipudi/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kuchipudi", "config.toml")
}

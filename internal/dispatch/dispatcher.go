// Package dispatch implements VelocityDispatcher: the lifecycle bridge
// translating VelocityController transitions into scroll-action calls and HUD
// events, throttling scroll HUD events to hud_hz.
package dispatch

import (
	"math"

	"github.com/ayusman/kuchipudi/internal/hud"
	"github.com/ayusman/kuchipudi/internal/scrollaction"
	"github.com/ayusman/kuchipudi/internal/velocity"
)

// Config holds the speed-normalization reference and HUD throttle rate.
type Config struct {
	VRef  float64
	HudHz float64
}

// Dispatcher wires a ContinuousScrollAction and a HUD publisher to controller
// transitions for a single hand.
type Dispatcher struct {
	cfg    Config
	scroll scrollaction.ContinuousScrollAction
	hud    hud.Publisher

	minIntervalMs  int64
	lastScrollSent int64
	haveSent       bool
}

// New creates a Dispatcher.
func New(cfg Config, scroll scrollaction.ContinuousScrollAction, publisher hud.Publisher) *Dispatcher {
	minInterval := int64(0)
	if cfg.HudHz > 0 {
		minInterval = int64(1000 / cfg.HudHz)
	}
	return &Dispatcher{cfg: cfg, scroll: scroll, hud: publisher, minIntervalMs: minInterval}
}

// Dispatch handles one frame's controller output. hands is the number of
// hands the detector saw this frame, forwarded into the touchproof HUD event.
func (d *Dispatcher) Dispatch(state velocity.ControllerState, v velocity.Vector2D, transition velocity.Transition, tMs int64, hands int) error {
	sv := scrollaction.Velocity{VX: v.VX, VY: v.VY}

	switch transition {
	case velocity.TransitionBegin:
		if err := d.scroll.Begin(sv); err != nil {
			return err
		}
		d.haveSent = false
		d.publishScroll(v, tMs, true)
		d.hud.Publish(hud.TouchProofMessage{Active: true, Hands: hands})

	case velocity.TransitionEnd:
		if err := d.scroll.End(); err != nil {
			return err
		}
		d.hud.Publish(hud.HideMessage{})
		d.hud.Publish(hud.TouchProofMessage{Active: false, Hands: hands})

	case velocity.TransitionNone:
		if state == velocity.StateScrolling {
			if err := d.scroll.Update(sv); err != nil {
				return err
			}
			d.publishScroll(v, tMs, false)
		}
	}

	return nil
}

// publishScroll throttles scroll events to hud_hz, always forwarding the first
// event of a new episode regardless of the throttle window.
func (d *Dispatcher) publishScroll(v velocity.Vector2D, tMs int64, force bool) {
	if !force && d.haveSent && d.minIntervalMs > 0 && tMs-d.lastScrollSent < d.minIntervalMs {
		return
	}
	d.lastScrollSent = tMs
	d.haveSent = true

	speed := 0.0
	if d.cfg.VRef > 0 {
		speed = clamp01(math.Abs(v.Magnitude) / d.cfg.VRef)
	}

	d.hud.Publish(hud.ScrollMessage{VY: v.VY, Speed: speed})
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

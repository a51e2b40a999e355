package velocity

// ControllerState is the 2-state scroll-activation machine's state.
type ControllerState string

const (
	StateIdle      ControllerState = "IDLE"
	StateScrolling ControllerState = "SCROLLING"
)

// Transition describes whether this frame's Update crossed a state boundary.
type Transition string

const (
	TransitionNone  Transition = "NONE"
	TransitionBegin Transition = "BEGIN"
	TransitionEnd   Transition = "END"
)

// ControllerConfig holds the optional early-stop tuning; disabled by
// default so OS momentum owns the SCROLLING -> IDLE tail.
type ControllerConfig struct {
	EndIdleEnabled   bool
	EndIdleThreshold float64
	EndIdleHoldMs    int64
}

// Controller drives IDLE <-> SCROLLING from touching, pose, hand presence, and
// velocity. It never emits Change directly: every SCROLLING frame
// without a transition is an implicit Change.
type Controller struct {
	cfg   ControllerConfig
	state ControllerState

	belowThresholdSinceMs int64
	belowThresholdSet     bool
}

// NewController creates a Controller starting in IDLE.
func NewController(cfg ControllerConfig) *Controller {
	return &Controller{cfg: cfg, state: StateIdle}
}

// State returns the controller's current state.
func (c *Controller) State() ControllerState { return c.state }

// Reset forces the controller back to IDLE, e.g. on an explicit session reset.
func (c *Controller) Reset() {
	c.state = StateIdle
	c.belowThresholdSet = false
}

// Update advances the controller for one frame. handPresent is false
// once no hand has been detected for longer than the hand-loss grace period;
// a missing hand still within grace counts as present. highFive
// reports whether the current pose is the open-palm stop gesture. tMs is the
// frame's capture timestamp, used only by the optional end_idle_hold_ms path.
func (c *Controller) Update(touching, handPresent, highFive bool, v Vector2D, tMs int64) (ControllerState, Vector2D, Transition) {
	switch c.state {
	case StateIdle:
		if touching && handPresent {
			c.state = StateScrolling
			c.belowThresholdSet = false
			return c.state, v, TransitionBegin
		}
		return c.state, v, TransitionNone

	case StateScrolling:
		if !touching || !handPresent || highFive {
			c.state = StateIdle
			c.belowThresholdSet = false
			return c.state, v, TransitionEnd
		}

		if c.cfg.EndIdleEnabled {
			if v.Magnitude < c.cfg.EndIdleThreshold {
				if !c.belowThresholdSet {
					c.belowThresholdSinceMs = tMs
					c.belowThresholdSet = true
				} else if tMs-c.belowThresholdSinceMs >= c.cfg.EndIdleHoldMs {
					c.state = StateIdle
					c.belowThresholdSet = false
					return c.state, v, TransitionEnd
				}
			} else {
				c.belowThresholdSet = false
			}
		}

		return c.state, v, TransitionNone
	}

	return c.state, v, TransitionNone
}

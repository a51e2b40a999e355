package scrollaction

// NullScroll is a ContinuousScrollAction that discards every event. Used when no
// scroll sink is configured (headless verification, or platforms without a helper).
type NullScroll struct{}

// NewNullScroll creates a NullScroll.
func NewNullScroll() *NullScroll { return &NullScroll{} }

func (NullScroll) Begin(Velocity) error  { return nil }
func (NullScroll) Update(Velocity) error { return nil }
func (NullScroll) End() error            { return nil }

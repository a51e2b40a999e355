// Package pose implements the high-five pose test consumed by VelocityController:
// all four non-thumb fingertips extended well beyond their MCP along the
// hand frame's wrist-to-fingers axis forces an immediate SCROLLING -> IDLE
// transition.
package pose

import "github.com/ayusman/kuchipudi/internal/align"

// Config holds the margin by which a fingertip's hand-frame x must exceed its
// MCP's hand-frame x (the x-axis runs from the wrist toward the middle MCP) to
// count as "extended".
type Config struct {
	HighFiveMargin float64
}

// IsHighFive reports whether all four non-thumb fingers are extended: fingertip
// hand-frame x beyond MCP hand-frame x (farther from the wrist along the
// wrist-to-fingers axis) by at least HighFiveMargin, for index, middle, ring,
// and pinky simultaneously.
func IsHighFive(f *align.Frame, cfg Config) bool {
	fingers := [][2]align.Point2D{
		{f.ToHandFrame(f.IndexMCPPoint()), f.IndexTipHand()},
		{f.ToHandFrame(f.MiddleMCPPoint()), f.MiddleTipHand()},
		{f.ToHandFrame(f.RingMCPPoint()), f.RingTipHand()},
		{f.ToHandFrame(f.PinkyMCPPoint()), f.PinkyTipHand()},
	}

	for _, mcpTip := range fingers {
		mcp, tip := mcpTip[0], mcpTip[1]
		if !(tip.X-mcp.X >= cfg.HighFiveMargin) {
			return false
		}
	}
	return true
}

package main

// Arena is the shrinking circular platform, centered on the origin.
// The radius is a pure function of elapsed match time — no internal
// mutable drift — so replays reproduce identical shrink timing.
type Arena struct {
	StartRadius float64
	MinRadius   float64
	ShrinkDelay float64 // seconds of grace before shrinking begins
	ShrinkRate  float64 // radius units lost per second
}

// NewArena builds the platform from match configuration
func NewArena(cfg MatchConfig) Arena {
	return Arena{
		StartRadius: cfg.ArenaStartRadius,
		MinRadius:   cfg.ArenaMinRadius,
		ShrinkDelay: cfg.ArenaShrinkDelay,
		ShrinkRate:  cfg.ArenaShrinkRate,
	}
}

// CurrentRadius returns the platform radius at the given elapsed time.
// Non-increasing in t, clamped to the configured minimum.
func (a Arena) CurrentRadius(elapsed float64) float64 {
	if elapsed <= a.ShrinkDelay {
		return a.StartRadius
	}
	r := a.StartRadius - a.ShrinkRate*(elapsed-a.ShrinkDelay)
	if r < a.MinRadius {
		return a.MinRadius
	}
	return r
}

// OutOfBounds reports whether a point has left the platform
func (a Arena) OutOfBounds(x, y, radius float64) bool {
	return a.EdgeDistance(x, y, radius) < 0
}

// EdgeDistance returns how far inside the boundary a point sits.
// Negative values mean the point is already off the platform.
func (a Arena) EdgeDistance(x, y, radius float64) float64 {
	return radius - Distance(0, 0, x, y)
}

// ShrinkEndTime returns when the radius reaches the minimum
func (a Arena) ShrinkEndTime() float64 {
	if a.ShrinkRate <= 0 {
		return a.ShrinkDelay
	}
	return a.ShrinkDelay + (a.StartRadius-a.MinRadius)/a.ShrinkRate
}

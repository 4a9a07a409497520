package main

import "math"

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	radSum := r1 + r2
	return DistanceSq(x1, y1, x2, y2) <= radSum*radSum
}

// segmentCircleIntersect checks if a line segment (x1,y1)-(x2,y2)
// intersects a circle at (cx,cy) with radius r
func segmentCircleIntersect(x1, y1, x2, y2, cx, cy, r float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	fx := x1 - cx
	fy := y1 - cy
	a := dx*dx + dy*dy
	if a == 0 {
		// Degenerate segment, fall back to a point test
		return fx*fx+fy*fy <= r*r
	}
	b := 2 * (fx*dx + fy*dy)
	c := fx*fx + fy*fy - r*r
	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return false
	}
	discriminant = math.Sqrt(discriminant)
	t1 := (-b - discriminant) / (2 * a)
	t2 := (-b + discriminant) / (2 * a)
	return (t1 >= 0 && t1 <= 1) || (t2 >= 0 && t2 <= 1) || (t1 <= 0 && t2 >= 1)
}

// CheckSweptCollision checks whether an actor that moved from
// (px,py) to (x,y) this tick passed through the circle at (cx,cy,cr).
// The swept radii are summed so a dash crossing an opponent's position
// within a single tick still registers.
func CheckSweptCollision(px, py, x, y, r, cx, cy, cr float64) bool {
	return segmentCircleIntersect(px, py, x, y, cx, cy, r+cr)
}

// ResolveActorCollision separates two overlapping actors along the
// minimum-translation vector and exchanges momentum. A dashing actor
// transfers more momentum than it receives; the returned impulse
// magnitude feeds the CollisionOccurred event.
func ResolveActorCollision(a, b *Actor, cfg MatchConfig) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dist := math.Sqrt(dx*dx + dy*dy)

	// Exact overlap: no direction to separate along. Pick a fixed
	// axis rather than a random one so replays stay bit-identical.
	if dist < 1e-4 {
		dx = 1
		dy = 0
		dist = 1
	}
	nx := dx / dist
	ny := dy / dist

	// Positional correction: split the overlap, weighted by mass so a
	// size-boosted actor gives less ground
	minDist := a.Radius() + b.Radius()
	overlap := minDist - dist
	if overlap > 0 {
		ma := a.Mass()
		mb := b.Mass()
		total := ma + mb
		a.X -= nx * overlap * (mb / total)
		a.Y -= ny * overlap * (mb / total)
		b.X += nx * overlap * (ma / total)
		b.Y += ny * overlap * (ma / total)
	}

	// Velocity exchange along the contact normal
	relVX := b.VX - a.VX
	relVY := b.VY - a.VY
	velAlongNormal := relVX*nx + relVY*ny
	if velAlongNormal > 0 {
		return 0 // already separating
	}

	impulse := -(1 + cfg.Bounce) * velAlongNormal / 2

	// Dash weighting: the dashing side keeps its momentum, the other
	// side absorbs the hit. Both dashing cancels back to symmetric.
	aShare := 1.0
	bShare := 1.0
	knock := 0.0
	switch {
	case a.DashActive() && !b.DashActive():
		aShare = 0.35
		bShare = 1.65
		knock = cfg.DashKnockback * a.Speed() / cfg.DashSpeed
	case b.DashActive() && !a.DashActive():
		aShare = 1.65
		bShare = 0.35
		knock = cfg.DashKnockback * b.Speed() / cfg.DashSpeed
	}

	// A shield effect soaks the knockback bonus but not the base bounce
	if a.HasEffect(EffectShield) {
		aShare = math.Min(aShare, 0.5)
	}
	if b.HasEffect(EffectShield) {
		bShare = math.Min(bShare, 0.5)
	}

	a.VX -= nx * impulse * aShare
	a.VY -= ny * impulse * aShare
	b.VX += nx * impulse * bShare
	b.VY += ny * impulse * bShare

	// Gameplay push so even slow contact shoves both parties apart,
	// biased toward whichever side is being knocked back
	if knock > 0 {
		if a.DashActive() {
			if !b.HasEffect(EffectShield) {
				b.VX += nx * knock
				b.VY += ny * knock
			}
		} else {
			if !a.HasEffect(EffectShield) {
				a.VX -= nx * knock
				a.VY -= ny * knock
			}
		}
	}

	return impulse + knock
}

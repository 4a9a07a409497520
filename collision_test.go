package main

import (
	"math"
	"testing"
)

func TestCheckCollision(t *testing.T) {
	if !CheckCollision(0, 0, 10, 15, 0, 10) {
		t.Error("circles 15 apart with radii 10+10 should collide")
	}
	if CheckCollision(0, 0, 10, 25, 0, 10) {
		t.Error("circles 25 apart with radii 10+10 should not collide")
	}
	// Exactly touching counts as contact
	if !CheckCollision(0, 0, 10, 20, 0, 10) {
		t.Error("tangent circles should count as colliding")
	}
}

func TestSweptCollisionCatchesTunneling(t *testing.T) {
	// A dash that starts left of the target and ends right of it in one
	// tick: endpoints are both clear but the path crosses the target.
	if CheckCollision(60, 0, 20, 0, 0, 20) {
		t.Fatal("end position should be clear of the target")
	}
	if !CheckSweptCollision(-60, 0, 60, 0, 20, 0, 0, 20) {
		t.Error("swept test should catch the path crossing the target")
	}
	if CheckSweptCollision(-60, 100, 60, 100, 20, 0, 0, 20) {
		t.Error("swept test should not report a path that misses")
	}
}

func TestSweptCollisionDegenerateSegment(t *testing.T) {
	// Zero-length path falls back to a point test
	if !CheckSweptCollision(5, 0, 5, 0, 10, 0, 0, 10) {
		t.Error("stationary overlapping circles should collide")
	}
	if CheckSweptCollision(50, 0, 50, 0, 10, 0, 0, 10) {
		t.Error("stationary distant circles should not collide")
	}
}

func TestResolveSeparatesOverlap(t *testing.T) {
	cfg := DefaultMatchConfig()
	a := NewActor(0, 0, 0, cfg)
	b := NewActor(1, 25, 0, cfg) // radii 20+20, overlapping by 15

	ResolveActorCollision(a, b, cfg)

	dist := Distance(a.X, a.Y, b.X, b.Y)
	if dist < a.Radius()+b.Radius()-1e-9 {
		t.Errorf("actors still overlapping after resolve, dist %f", dist)
	}
}

func TestResolveDasherKnocksBack(t *testing.T) {
	cfg := DefaultMatchConfig()
	a := NewActor(0, 0, 0, cfg)
	b := NewActor(1, 30, 0, cfg)
	a.Dash = DashActivePhase
	a.VX = cfg.DashSpeed

	impulse := ResolveActorCollision(a, b, cfg)

	if impulse <= 0 {
		t.Fatalf("head-on dash contact should produce a positive impulse, got %f", impulse)
	}
	if b.VX <= 0 {
		t.Errorf("target should be knocked away from the dasher, VX=%f", b.VX)
	}
	if b.VX <= a.VX {
		t.Errorf("target should come out faster than the dasher, a.VX=%f b.VX=%f", a.VX, b.VX)
	}
}

func TestResolveShieldSoaksKnockback(t *testing.T) {
	cfg := DefaultMatchConfig()

	a := NewActor(0, 0, 0, cfg)
	b := NewActor(1, 30, 0, cfg)
	a.Dash = DashActivePhase
	a.VX = cfg.DashSpeed
	ResolveActorCollision(a, b, cfg)
	unshielded := b.VX

	a2 := NewActor(0, 0, 0, cfg)
	b2 := NewActor(1, 30, 0, cfg)
	a2.Dash = DashActivePhase
	a2.VX = cfg.DashSpeed
	b2.ApplyEffect(EffectShield, 5)
	ResolveActorCollision(a2, b2, cfg)

	if b2.VX >= unshielded {
		t.Errorf("shielded target took as much knockback: %f vs %f", b2.VX, unshielded)
	}
}

func TestResolveExactOverlapIsDeterministic(t *testing.T) {
	cfg := DefaultMatchConfig()
	for i := 0; i < 5; i++ {
		a := NewActor(0, 50, 50, cfg)
		b := NewActor(1, 50, 50, cfg)
		ResolveActorCollision(a, b, cfg)
		// Same fallback axis every time
		if a.Y != 50 || b.Y != 50 {
			t.Fatalf("exact overlap should separate along a fixed axis, a=(%f,%f) b=(%f,%f)", a.X, a.Y, b.X, b.Y)
		}
		if a.X >= b.X {
			t.Fatalf("separation order flipped: a.X=%f b.X=%f", a.X, b.X)
		}
	}
}

func TestResolveSeparatingContactNoImpulse(t *testing.T) {
	cfg := DefaultMatchConfig()
	a := NewActor(0, 0, 0, cfg)
	b := NewActor(1, 45, 0, cfg)
	a.VX = -100
	b.VX = 100
	impulse := ResolveActorCollision(a, b, cfg)
	if impulse != 0 {
		t.Errorf("already-separating actors should not exchange impulse, got %f", impulse)
	}
	if math.Abs(a.VX+100) > 1e-9 || math.Abs(b.VX-100) > 1e-9 {
		t.Error("velocities should be untouched when separating")
	}
}

package main

import "testing"

func TestArenaRadiusDelayAndShrink(t *testing.T) {
	cfg := DefaultMatchConfig()
	a := NewArena(cfg)

	if a.CurrentRadius(0) != cfg.ArenaStartRadius {
		t.Errorf("radius at t=0 should be %f, got %f", cfg.ArenaStartRadius, a.CurrentRadius(0))
	}
	if a.CurrentRadius(cfg.ArenaShrinkDelay) != cfg.ArenaStartRadius {
		t.Error("radius should hold through the shrink delay")
	}
	after := a.CurrentRadius(cfg.ArenaShrinkDelay + 1)
	want := cfg.ArenaStartRadius - cfg.ArenaShrinkRate
	if after != want {
		t.Errorf("radius 1s into shrink should be %f, got %f", want, after)
	}
}

func TestArenaRadiusNonIncreasing(t *testing.T) {
	a := NewArena(DefaultMatchConfig())
	prev := a.CurrentRadius(0)
	for ti := 1; ti < 2000; ti++ {
		r := a.CurrentRadius(float64(ti) * 0.05)
		if r > prev {
			t.Fatalf("radius increased at t=%f: %f > %f", float64(ti)*0.05, r, prev)
		}
		prev = r
	}
}

func TestArenaRadiusClampsAtMinimum(t *testing.T) {
	cfg := DefaultMatchConfig()
	a := NewArena(cfg)
	r := a.CurrentRadius(1e6)
	if r != cfg.ArenaMinRadius {
		t.Errorf("radius should clamp at %f, got %f", cfg.ArenaMinRadius, r)
	}
}

func TestArenaOutOfBounds(t *testing.T) {
	a := NewArena(DefaultMatchConfig())
	if a.OutOfBounds(0, 0, 100) {
		t.Error("center should be in bounds")
	}
	if a.OutOfBounds(99, 0, 100) {
		t.Error("inside the radius should be in bounds")
	}
	if !a.OutOfBounds(101, 0, 100) {
		t.Error("outside the radius should be out of bounds")
	}
	// Elimination keys off the center point, not the body edge
	if a.OutOfBounds(100, 0, 100) {
		t.Error("center exactly on the boundary is still in")
	}
}

func TestArenaShrinkEndTime(t *testing.T) {
	cfg := DefaultMatchConfig()
	a := NewArena(cfg)
	end := a.ShrinkEndTime()
	if a.CurrentRadius(end) != cfg.ArenaMinRadius {
		t.Errorf("radius at shrink end should be the minimum, got %f", a.CurrentRadius(end))
	}
	if a.CurrentRadius(end-0.5) <= cfg.ArenaMinRadius {
		t.Error("radius just before shrink end should still be above the minimum")
	}
}

package main

import "testing"

// stepPowerUps advances the manager n ticks, collecting every event
func stepPowerUps(m *PowerUpManager, n int, radius float64, rng *RNG, cfg MatchConfig, sink *eventSink) {
	for i := 0; i < n; i++ {
		sink.tick++
		m.Update(testDt, radius, rng, cfg, sink)
	}
}

func TestPowerUpSpawnTelegraph(t *testing.T) {
	cfg := DefaultMatchConfig()
	m := NewPowerUpManager(cfg)
	rng := NewRNG(1)
	var sink eventSink

	// Run just past the spawn interval: the slot should be telegraphing,
	// not yet live
	ticks := int(cfg.PowerUpInterval/testDt) + 2
	stepPowerUps(m, ticks, cfg.ArenaStartRadius, rng, cfg, &sink)

	live := 0
	telegraphing := 0
	for _, s := range m.ActiveStates() {
		if s.Live {
			live++
		} else {
			telegraphing++
		}
	}
	if telegraphing != 1 || live != 0 {
		t.Fatalf("expected one telegraphing slot, got %d telegraphing %d live", telegraphing, live)
	}
	for _, ev := range sink.events {
		if ev.Type == EvPowerUpSpawned {
			t.Fatal("spawned event should not fire during the telegraph")
		}
	}

	// Telegraph completes
	stepPowerUps(m, int(spawnTelegraph/testDt)+2, cfg.ArenaStartRadius, rng, cfg, &sink)
	found := false
	for _, ev := range sink.events {
		if ev.Type == EvPowerUpSpawned {
			found = true
		}
	}
	if !found {
		t.Error("spawned event should fire when the orb goes live")
	}
}

func TestPowerUpExpiresUnclaimed(t *testing.T) {
	cfg := DefaultMatchConfig()
	m := NewPowerUpManager(cfg)
	rng := NewRNG(2)
	var sink eventSink

	total := int((cfg.PowerUpInterval+spawnTelegraph+cfg.PowerUpLifetime)/testDt) + 4
	stepPowerUps(m, total, cfg.ArenaStartRadius, rng, cfg, &sink)

	spawned, expired, claimed := 0, 0, 0
	for _, ev := range sink.events {
		switch ev.Type {
		case EvPowerUpSpawned:
			spawned++
		case EvPowerUpExpired:
			expired++
		case EvPowerUpClaimed:
			claimed++
		}
	}
	if spawned == 0 {
		t.Fatal("no orbs spawned")
	}
	if expired == 0 {
		t.Error("unclaimed orbs should expire")
	}
	if claimed != 0 {
		t.Error("nothing should be claimed with no actors")
	}
}

func TestPowerUpClaimedNotExpired(t *testing.T) {
	cfg := DefaultMatchConfig()
	m := NewPowerUpManager(cfg)
	rng := NewRNG(3)
	var sink eventSink

	actors := []*Actor{NewActor(0, 0, 0, cfg), NewActor(1, 200, 200, cfg)}
	grid := NewSpatialGrid()

	total := int((cfg.PowerUpInterval + spawnTelegraph + cfg.PowerUpLifetime + 2) / testDt)
	for i := 0; i < total; i++ {
		sink.tick++
		m.Update(testDt, cfg.ArenaStartRadius, rng, cfg, &sink)
		// Actor 0 teleports onto every live orb
		for _, s := range m.ActiveStates() {
			if s.Live {
				actors[0].X = s.X
				actors[0].Y = s.Y
			}
		}
		grid.Clear()
		m.InsertInto(grid, cfg)
		m.CheckPickups(grid, actors, cfg, &sink)
	}

	spawned, expired, claimed := 0, 0, 0
	for _, ev := range sink.events {
		switch ev.Type {
		case EvPowerUpSpawned:
			spawned++
		case EvPowerUpExpired:
			expired++
		case EvPowerUpClaimed:
			claimed++
			if ev.Actor != 0 {
				t.Errorf("claim attributed to wrong actor %d", ev.Actor)
			}
		}
	}
	if claimed == 0 {
		t.Fatal("actor sitting on live orbs should claim them")
	}
	// A slot leaves through exactly one of the two exits
	if claimed+expired != spawned {
		t.Errorf("claims (%d) + expiries (%d) should equal spawns (%d)", claimed, expired, spawned)
	}
}

func TestPowerUpSpawnSequenceDeterministic(t *testing.T) {
	cfg := DefaultMatchConfig()
	run := func(seed uint64) []PowerUpState {
		m := NewPowerUpManager(cfg)
		rng := NewRNG(seed)
		var sink eventSink
		stepPowerUps(m, 4000, cfg.ArenaStartRadius, rng, cfg, &sink)
		return m.ActiveStates()
	}

	a := run(77)
	b := run(77)
	if len(a) != len(b) {
		t.Fatalf("runs diverged: %d vs %d slots", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("slot %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPowerUpSpawnsInsideArena(t *testing.T) {
	cfg := DefaultMatchConfig()
	m := NewPowerUpManager(cfg)
	rng := NewRNG(11)
	var sink eventSink

	radius := cfg.ArenaMinRadius
	stepPowerUps(m, 6000, radius, rng, cfg, &sink)
	for _, s := range m.ActiveStates() {
		if Distance(0, 0, s.X, s.Y) > radius {
			t.Errorf("orb spawned outside the boundary at (%f, %f)", s.X, s.Y)
		}
	}
}

func TestApplyPowerUpFreezeHitsOpponent(t *testing.T) {
	cfg := DefaultMatchConfig()
	a := NewActor(0, 0, 0, cfg)
	b := NewActor(1, 100, 0, cfg)

	applyPowerUp(PowerFreeze, a, b, cfg)
	if a.HasEffect(EffectFreeze) {
		t.Error("freeze should not affect the claimer")
	}
	if !b.HasEffect(EffectFreeze) {
		t.Error("freeze should land on the opponent")
	}
}

func TestApplyPowerUpMultiDashRefillsCharges(t *testing.T) {
	cfg := DefaultMatchConfig()
	a := NewActor(0, 0, 0, cfg)
	a.Charges = 0
	a.DashCD = 0.7

	applyPowerUp(PowerMultiDash, a, nil, cfg)
	if a.Charges != a.MaxCharges {
		t.Errorf("multi dash should refill charges, have %d", a.Charges)
	}
	if !a.HasEffect(EffectMultiDash) {
		t.Error("multi dash effect should be active")
	}
}

func TestApplyPowerUpTeleportRecenters(t *testing.T) {
	cfg := DefaultMatchConfig()
	a := NewActor(0, 250, -100, cfg)
	a.VX = 300

	applyPowerUp(PowerTeleport, a, nil, cfg)
	if a.X != 0 || a.Y != 0 {
		t.Errorf("teleport should recenter, got (%f, %f)", a.X, a.Y)
	}
	if a.VX != 0 {
		t.Error("teleport should zero velocity")
	}
	if a.HasEffect(EffectTeleport) {
		t.Error("teleport is instantaneous, no resident effect")
	}
}

func TestPowerUpMagnetExtendsReach(t *testing.T) {
	cfg := DefaultMatchConfig()
	m := NewPowerUpManager(cfg)
	m.slots[0] = PowerUpSlot{Phase: SlotActive, Kind: PowerSpeed, X: 0, Y: 0, Timer: 10}

	// Just outside normal pickup reach
	dist := cfg.ActorRadius + cfg.PowerUpRadius + 5
	a := NewActor(0, dist, 0, cfg)
	b := NewActor(1, 300, 0, cfg)
	grid := NewSpatialGrid()
	m.InsertInto(grid, cfg)
	var sink eventSink
	m.CheckPickups(grid, []*Actor{a, b}, cfg, &sink)
	if len(sink.events) != 0 {
		t.Fatal("orb outside reach should not be claimed")
	}

	a.ApplyEffect(EffectMagnet, 5)
	m.CheckPickups(grid, []*Actor{a, b}, cfg, &sink)
	if len(sink.events) != 1 || sink.events[0].Type != EvPowerUpClaimed {
		t.Error("magnet should extend pickup reach")
	}
}

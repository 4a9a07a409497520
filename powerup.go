package main

import "math"

// PowerUpKind enumerates the spawnable power-up variants
type PowerUpKind int

const (
	PowerSpeed PowerUpKind = iota
	PowerShield
	PowerMultiDash
	PowerSizeUp
	PowerSizeDown
	PowerFreeze
	PowerMagnet
	PowerTeleport
	PowerKindCount
)

var powerUpNames = [PowerKindCount]string{
	"speed", "shield", "multi_dash", "size_up", "size_down",
	"freeze", "magnet", "teleport",
}

// String returns the wire name of the kind
func (k PowerUpKind) String() string {
	if k < 0 || k >= PowerKindCount {
		return "unknown"
	}
	return powerUpNames[k]
}

// PowerUpPhase is the per-slot lifecycle state
type PowerUpPhase int

const (
	SlotEmpty PowerUpPhase = iota
	SlotSpawning
	SlotActive
)

const spawnTelegraph = 1.0 // seconds a slot telegraphs before going live

// PowerUpSlot holds one spawn slot's state
type PowerUpSlot struct {
	Phase PowerUpPhase
	Kind  PowerUpKind
	X, Y  float64
	Timer float64 // Spawning: time until live; Active: remaining life
}

// PowerUpManager owns the spawn slots. Spawn timing, position and kind
// all come from the match RNG, so a replayed seed reproduces the exact
// spawn sequence.
type PowerUpManager struct {
	slots      []PowerUpSlot
	spawnTimer float64
}

// NewPowerUpManager creates the configured number of empty slots
func NewPowerUpManager(cfg MatchConfig) *PowerUpManager {
	return &PowerUpManager{slots: make([]PowerUpSlot, cfg.PowerUpSlots)}
}

// Reset clears all slots for a new round
func (m *PowerUpManager) Reset() {
	for i := range m.slots {
		m.slots[i] = PowerUpSlot{}
	}
	m.spawnTimer = 0
}

// Update advances spawn timers and expiry for one tick. Claimed orbs
// are handled separately in CheckPickups so the claim/expire decision
// is unambiguous: a slot leaves Active through exactly one of the two.
func (m *PowerUpManager) Update(dt, arenaRadius float64, rng *RNG, cfg MatchConfig, sink *eventSink) {
	m.spawnTimer += dt
	if m.spawnTimer >= cfg.PowerUpInterval {
		m.spawnTimer -= cfg.PowerUpInterval
		if i := m.emptySlot(); i >= 0 {
			m.schedule(i, arenaRadius, rng)
		}
	}

	for i := range m.slots {
		s := &m.slots[i]
		switch s.Phase {
		case SlotSpawning:
			s.Timer -= dt
			if s.Timer <= 0 {
				s.Phase = SlotActive
				s.Timer = cfg.PowerUpLifetime
				sink.emit(Event{Type: EvPowerUpSpawned, Actor: -1, Other: -1, Kind: s.Kind, Slot: i})
			}
		case SlotActive:
			s.Timer -= dt
			if s.Timer <= 0 {
				sink.emit(Event{Type: EvPowerUpExpired, Actor: -1, Other: -1, Kind: s.Kind, Slot: i})
				*s = PowerUpSlot{}
			}
		}
	}
}

func (m *PowerUpManager) emptySlot() int {
	for i := range m.slots {
		if m.slots[i].Phase == SlotEmpty {
			return i
		}
	}
	return -1
}

// schedule draws position and kind from the match RNG. Spawns land
// well inside the current boundary so a fresh orb is never already
// outside a shrinking platform.
func (m *PowerUpManager) schedule(i int, arenaRadius float64, rng *RNG) {
	angle := rng.Range(0, 2*math.Pi)
	dist := rng.Range(0, arenaRadius*0.7)
	m.slots[i] = PowerUpSlot{
		Phase: SlotSpawning,
		Kind:  PowerUpKind(rng.Intn(int(PowerKindCount))),
		X:     math.Cos(angle) * dist,
		Y:     math.Sin(angle) * dist,
		Timer: spawnTelegraph,
	}
}

// InsertInto registers live orbs with the broad-phase grid
func (m *PowerUpManager) InsertInto(grid *SpatialGrid, cfg MatchConfig) {
	for i := range m.slots {
		if m.slots[i].Phase == SlotActive {
			grid.InsertCircle(m.slots[i].X, m.slots[i].Y, cfg.PowerUpRadius, EntityRef{Kind: 'k', Idx: i})
		}
	}
}

// CheckPickups claims orbs touched by actors this tick. Actors are
// scanned in slot order and a claimed slot is cleared immediately, so
// resolution stays deterministic when both actors reach an orb at once
// and duplicate grid refs for one orb cannot double-claim.
func (m *PowerUpManager) CheckPickups(grid *SpatialGrid, actors []*Actor, cfg MatchConfig, sink *eventSink) {
	for _, a := range actors {
		if !a.Alive {
			continue
		}
		reach := cfg.PowerUpRadius
		if a.HasEffect(EffectMagnet) {
			reach *= 3
		}
		for _, ref := range grid.Query(a.X, a.Y, a.Radius()+reach) {
			if ref.Kind != 'k' {
				continue
			}
			s := &m.slots[ref.Idx]
			if s.Phase != SlotActive {
				continue
			}
			if !CheckCollision(a.X, a.Y, a.Radius(), s.X, s.Y, reach) {
				continue
			}
			applyPowerUp(s.Kind, a, opponentOf(actors, a), cfg)
			sink.emit(Event{Type: EvPowerUpClaimed, Actor: a.Slot, Other: -1, Kind: s.Kind, Slot: ref.Idx})
			*s = PowerUpSlot{}
		}
	}
}

func opponentOf(actors []*Actor, a *Actor) *Actor {
	for _, o := range actors {
		if o.Slot != a.Slot {
			return o
		}
	}
	return nil
}

// applyPowerUp maps a claimed kind onto actor state. Durations are
// tuning data from MatchConfig, not hard-coded behavior.
func applyPowerUp(kind PowerUpKind, a, opponent *Actor, cfg MatchConfig) {
	d := cfg.EffectDuration
	switch kind {
	case PowerSpeed:
		a.ApplyEffect(EffectSpeed, d)
	case PowerShield:
		a.ApplyEffect(EffectShield, d)
	case PowerMultiDash:
		a.ApplyEffect(EffectMultiDash, d*1.6)
		a.Charges = a.MaxCharges
		a.DashCD = 0
	case PowerSizeUp:
		a.ApplyEffect(EffectSizeUp, d)
	case PowerSizeDown:
		a.ApplyEffect(EffectSizeDown, d)
	case PowerFreeze:
		if opponent != nil && opponent.Alive {
			opponent.ApplyEffect(EffectFreeze, 2.0)
		}
	case PowerMagnet:
		a.ApplyEffect(EffectMagnet, d)
	case PowerTeleport:
		// Instantaneous: relocate to the platform center
		a.X = 0
		a.Y = 0
		a.VX = 0
		a.VY = 0
		a.PrevX = 0
		a.PrevY = 0
	}
}

// ActiveStates converts live slots to protocol state
func (m *PowerUpManager) ActiveStates() []PowerUpState {
	out := make([]PowerUpState, 0, len(m.slots))
	for i := range m.slots {
		s := &m.slots[i]
		if s.Phase == SlotEmpty {
			continue
		}
		out = append(out, PowerUpState{
			Slot:     i,
			Kind:     int(s.Kind),
			X:        round1(s.X),
			Y:        round1(s.Y),
			Live:     s.Phase == SlotActive,
			Remaining: round1(s.Timer),
		})
	}
	return out
}

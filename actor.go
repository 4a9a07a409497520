package main

import "math"

// DashState is the dash sub-state machine
type DashState int

const (
	DashReady DashState = iota
	DashActivePhase
	DashCooldownPhase
)

// EffectKind enumerates the timed status effects a power-up can apply
type EffectKind int

const (
	EffectSpeed EffectKind = iota
	EffectShield
	EffectMultiDash
	EffectSizeUp
	EffectSizeDown
	EffectFreeze
	EffectMagnet
	EffectTeleport // instantaneous, never resident in the effect set
	EffectCount
)

// Actor is one combatant's kinematic state. Owned exclusively by the
// tick that is executing; everything here is mutated only inside Step
// and the collision/elimination passes that follow it.
type Actor struct {
	Slot   int
	X, Y   float64
	VX, VY float64
	FX, FY float64 // facing, unit vector
	Stocks int
	Alive  bool

	Dash        DashState
	DashTimeT   float64 // remaining active-window time
	DashCD      float64 // remaining cooldown on the recharging charge
	Charges     int
	MaxCharges  int
	bufferedDash bool
	bufferT      float64

	// remaining duration per effect kind; 0 = inactive
	Effects [EffectCount]float64

	baseRadius float64
	lastX      float64 // last position confirmed finite
	lastY      float64
	PrevX      float64 // position at the start of the current tick
	PrevY      float64
}

// NewActor creates a combatant at the given spawn position
func NewActor(slot int, x, y float64, cfg MatchConfig) *Actor {
	return &Actor{
		Slot:       slot,
		X:          x,
		Y:          y,
		FX:         1,
		Stocks:     cfg.Stocks,
		Alive:      true,
		Charges:    cfg.DashCharges,
		MaxCharges: cfg.DashCharges,
		baseRadius: cfg.ActorRadius,
		lastX:      x,
		lastY:      y,
		PrevX:      x,
		PrevY:      y,
	}
}

// Radius returns the collision radius including size effects
func (a *Actor) Radius() float64 {
	r := a.baseRadius
	if a.HasEffect(EffectSizeUp) {
		r *= 1.5
	}
	if a.HasEffect(EffectSizeDown) {
		r *= 0.6
	}
	return r
}

// Mass scales with the square of the size multiplier
func (a *Actor) Mass() float64 {
	m := a.Radius() / a.baseRadius
	return m * m
}

// Speed returns the current velocity magnitude
func (a *Actor) Speed() float64 {
	return math.Sqrt(a.VX*a.VX + a.VY*a.VY)
}

// DashActive reports whether the actor is inside its dash window
func (a *Actor) DashActive() bool {
	return a.Dash == DashActivePhase
}

// HasEffect reports whether the given timed effect is running
func (a *Actor) HasEffect(k EffectKind) bool {
	return a.Effects[k] > 0
}

// ApplyEffect starts (or refreshes) a timed effect
func (a *Actor) ApplyEffect(k EffectKind, duration float64) {
	if a.Effects[k] < duration {
		a.Effects[k] = duration
	}
}

// Step advances the actor by one fixed timestep. The input frame must
// already be sanitized. Returns true when a dash started this tick.
func (a *Actor) Step(in InputFrame, cfg MatchConfig, dt float64) bool {
	if !a.Alive {
		return false
	}
	a.PrevX = a.X
	a.PrevY = a.Y

	a.tickEffects(dt)
	a.tickDashRecharge(cfg, dt)

	if a.bufferT > 0 {
		a.bufferT -= dt
		if a.bufferT <= 0 {
			a.bufferedDash = false
		}
	}

	frozen := a.HasEffect(EffectFreeze)
	dashStarted := false

	if a.Dash == DashActivePhase {
		a.DashTimeT -= dt
		if a.DashTimeT <= 0 {
			a.Dash = DashCooldownPhase
			a.DashTimeT = 0
		} else {
			// Dash overrides steering: mostly impulse, a sliver of carry
			a.VX = a.VX*0.1 + a.FX*cfg.DashSpeed*0.9
			a.VY = a.VY*0.1 + a.FY*cfg.DashSpeed*0.9
		}
	} else if !frozen {
		a.steer(in, cfg, dt)

		wantDash := in.Dash || a.bufferedDash
		if wantDash && a.Charges > 0 {
			if in.Moving() {
				a.startDash(in.MoveX, in.MoveY, cfg)
				dashStarted = true
			} else if in.Dash {
				// No direction yet: hold the press briefly so a
				// near-simultaneous direction key still dashes
				a.bufferedDash = true
				a.bufferT = cfg.DashBuffer
			}
		}
	}

	// Friction plus speed clamp
	a.VX *= cfg.ActorFriction
	a.VY *= cfg.ActorFriction
	maxSpd := cfg.ActorMaxSpeed
	if a.HasEffect(EffectSpeed) {
		maxSpd *= 1.5
	}
	if a.Dash == DashActivePhase {
		maxSpd = cfg.DashSpeed
	}
	if spd := a.Speed(); spd > maxSpd {
		scale := maxSpd / spd
		a.VX *= scale
		a.VY *= scale
	}

	a.X += a.VX * dt
	a.Y += a.VY * dt

	// Non-finite positions are a recoverable anomaly: restore the last
	// valid position and kill the velocity instead of propagating NaN
	if !isFinite(a.X, a.Y) {
		a.X = a.lastX
		a.Y = a.lastY
		a.VX = 0
		a.VY = 0
	} else {
		a.lastX = a.X
		a.lastY = a.Y
	}

	return dashStarted
}

func (a *Actor) steer(in InputFrame, cfg MatchConfig, dt float64) {
	speedMul := 1.0
	if a.HasEffect(EffectSpeed) {
		speedMul = 1.5
	}
	targetVX := in.MoveX * cfg.ActorMaxSpeed * speedMul
	targetVY := in.MoveY * cfg.ActorMaxSpeed * speedMul

	k := Clamp(cfg.ActorSteerRate*dt, 0, 1)
	a.VX += (targetVX - a.VX) * k
	a.VY += (targetVY - a.VY) * k

	if in.Moving() {
		a.FX, a.FY = Normalize(in.MoveX, in.MoveY)
	}
}

func (a *Actor) startDash(dirX, dirY float64, cfg MatchConfig) {
	a.FX, a.FY = Normalize(dirX, dirY)
	a.Dash = DashActivePhase
	a.DashTimeT = cfg.DashDuration
	a.Charges--
	a.bufferedDash = false
	a.bufferT = 0
	if a.DashCD <= 0 {
		cd := cfg.DashCooldown
		if a.HasEffect(EffectMultiDash) {
			cd /= 2
		}
		a.DashCD = cd
	}
}

// tickDashRecharge returns spent charges one at a time after a cooldown
func (a *Actor) tickDashRecharge(cfg MatchConfig, dt float64) {
	if a.Charges >= a.MaxCharges {
		if a.Dash == DashCooldownPhase {
			a.Dash = DashReady
		}
		a.DashCD = 0
		return
	}
	if a.DashCD > 0 {
		a.DashCD -= dt
		if a.DashCD <= 0 {
			a.Charges++
			if a.Charges < a.MaxCharges {
				cd := cfg.DashCooldown
				if a.HasEffect(EffectMultiDash) {
					cd /= 2
				}
				a.DashCD = cd
			} else {
				a.DashCD = 0
			}
			if a.Dash == DashCooldownPhase {
				a.Dash = DashReady
			}
		}
	}
}

func (a *Actor) tickEffects(dt float64) {
	for k := range a.Effects {
		if a.Effects[k] > 0 {
			a.Effects[k] -= dt
			if a.Effects[k] < 0 {
				a.Effects[k] = 0
			}
		}
	}
}

// Eliminate removes a stock. Returns true if the actor is out of the match.
func (a *Actor) Eliminate() bool {
	a.Stocks--
	if a.Stocks <= 0 {
		a.Stocks = 0
		a.Alive = false
		return true
	}
	return false
}

// Respawn resets the actor at the given position with a stock intact
func (a *Actor) Respawn(x, y float64) {
	a.X = x
	a.Y = y
	a.VX = 0
	a.VY = 0
	a.lastX = x
	a.lastY = y
	a.PrevX = x
	a.PrevY = y
	a.Dash = DashReady
	a.DashTimeT = 0
	a.DashCD = 0
	a.Charges = a.MaxCharges
	a.bufferedDash = false
	a.bufferT = 0
	for k := range a.Effects {
		a.Effects[k] = 0
	}
}

// ToState converts to protocol state
func (a *Actor) ToState() ActorState {
	effects := make([]int, 0, 2)
	for k := range a.Effects {
		if a.Effects[k] > 0 {
			effects = append(effects, k)
		}
	}
	return ActorState{
		Slot:    a.Slot,
		X:       round1(a.X),
		Y:       round1(a.Y),
		VX:      round1(a.VX),
		VY:      round1(a.VY),
		Stocks:  a.Stocks,
		Alive:   a.Alive,
		Dashing: a.Dash == DashActivePhase,
		Charges: a.Charges,
		Effects: effects,
	}
}

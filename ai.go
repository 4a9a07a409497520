package main

import (
	"log"
	"math"
)

// AIState is the closed set of behavioral modes
type AIState int

const (
	AIIdle AIState = iota
	AIApproach
	AIRetreat
	AIBait
	AIPunish
	AIFleeBoundary
	AIRecover
	aiStateCount
)

var aiStateNames = [aiStateCount]string{
	"idle", "approach", "retreat", "bait", "punish", "flee_boundary", "recover",
}

// String returns the state name for diagnostics
func (s AIState) String() string {
	if s < 0 || s >= aiStateCount {
		return "invalid"
	}
	return aiStateNames[s]
}

// Decision thresholds (world units)
const (
	aiFleeEdgeDist   = 60.0  // edge distance that forces FleeBoundary
	aiCriticalEdge   = 30.0  // edge distance worth spending a dash on
	aiPunishRange    = 180.0 // react to an opponent dash inside this
	aiDangerRange    = 220.0 // back off from a dash we cannot punish
	aiApproachRange  = 200.0 // close in beyond this distance
	aiBaitRange      = 160.0 // preferred circling distance
	aiChaseDashRange = 260.0 // dash to close distance beyond this
	aiHistorySize    = 16    // remembered opponent positions
)

// AIObservation is the information a human could perceive: both
// actors' positions and velocities and the visible platform boundary.
// Opponent dash state is inferred from speed, never read out of the
// opponent struct, so difficulty tiers stay honest.
type AIObservation struct {
	SelfX, SelfY   float64
	SelfVX, SelfVY float64
	OppX, OppY     float64
	OppVX, OppVY   float64
	ArenaRadius    float64
	DashReady      bool    // own charge available (own UI shows this)
	DashSpeed      float64 // ruleset dash tuning, same values the HUD shows
	DashTime       float64
}

type aiSample struct {
	x, y float64
	t    float64
}

// AIDecisionEngine is a finite-state controller producing the same
// InputFrame vocabulary a human controller produces. It re-decides on
// a reaction timer scaled by difficulty tier; between decisions it
// keeps executing the current state against fresh observations.
type AIDecisionEngine struct {
	slot  int
	tier  AITier
	state AIState

	decisionT float64
	elapsed   float64
	history   [aiHistorySize]aiSample
	histLen   int
	histHead  int

	strafeDir float64
	strafeT   float64
}

// NewAIDecisionEngine creates an engine for the given actor slot
func NewAIDecisionEngine(slot int, tier AITier) *AIDecisionEngine {
	return &AIDecisionEngine{
		slot:      slot,
		tier:      tier,
		state:     AIIdle,
		strafeDir: 1,
	}
}

// State returns the current behavioral mode
func (e *AIDecisionEngine) State() AIState {
	return e.state
}

// Decide produces the actor's InputFrame for this tick
func (e *AIDecisionEngine) Decide(tick uint64, obs AIObservation, rng *RNG, dt float64) InputFrame {
	e.elapsed += dt
	e.remember(obs)

	e.decisionT -= dt
	if e.decisionT <= 0 {
		e.decisionT = e.tier.ReactionTime
		e.transition(obs, rng)
	}

	frame := e.execute(obs, rng, dt)
	frame.Tick = tick
	frame.Actor = e.slot
	return frame
}

func (e *AIDecisionEngine) remember(obs AIObservation) {
	e.history[e.histHead] = aiSample{x: obs.OppX, y: obs.OppY, t: e.elapsed}
	e.histHead = (e.histHead + 1) % aiHistorySize
	if e.histLen < aiHistorySize {
		e.histLen++
	}
}

// predict extrapolates the opponent's position from remembered samples
func (e *AIDecisionEngine) predict(obs AIObservation) (float64, float64) {
	if e.histLen < 2 {
		return obs.OppX, obs.OppY
	}
	newest := e.history[(e.histHead+aiHistorySize-1)%aiHistorySize]
	oldest := e.history[(e.histHead+aiHistorySize-e.histLen)%aiHistorySize]
	span := newest.t - oldest.t
	if span <= 0 {
		return obs.OppX, obs.OppY
	}
	vx := (newest.x - oldest.x) / span
	vy := (newest.y - oldest.y) / span
	return obs.OppX + vx*e.tier.Prediction, obs.OppY + vy*e.tier.Prediction
}

// transition applies the fixed priority table. Boundary danger always
// wins; a punishable opponent dash comes next; everything else orders
// by distance and own dash availability.
func (e *AIDecisionEngine) transition(obs AIObservation, rng *RNG) {
	dist := Distance(obs.SelfX, obs.SelfY, obs.OppX, obs.OppY)
	edge := obs.ArenaRadius - Distance(0, 0, obs.SelfX, obs.SelfY)
	oppSpeed := math.Sqrt(obs.OppVX*obs.OppVX + obs.OppVY*obs.OppVY)
	oppDashing := oppSpeed > obs.DashSpeed*0.8

	// Moving outward fast near the edge needs correcting before
	// anything tactical
	outward := obs.SelfVX*obs.SelfX+obs.SelfVY*obs.SelfY > 0

	var next AIState
	switch {
	case edge < aiFleeEdgeDist:
		next = AIFleeBoundary
	case edge < aiFleeEdgeDist*2 && outward && math.Hypot(obs.SelfVX, obs.SelfVY) > obs.DashSpeed*0.5:
		next = AIRecover
	case oppDashing && dist < aiPunishRange && obs.DashReady:
		next = AIPunish
	case oppDashing && dist < aiDangerRange:
		next = AIRetreat
	case dist > aiApproachRange:
		next = AIApproach
	case obs.DashReady:
		next = AIBait
	case dist < aiBaitRange:
		next = AIRetreat
	default:
		next = AIIdle
	}

	// Mistake injection: lower tiers occasionally pick a random legal
	// state instead of the table's answer
	if rng.Chance(e.tier.MistakeRate) {
		next = AIState(rng.Intn(int(aiStateCount)))
	}

	if next < 0 || next >= aiStateCount {
		log.Printf("ai: invalid state transition to %d, falling back to idle", next)
		next = AIIdle
	}
	e.state = next
}

// execute maps the current state onto a movement vector and dash flag
func (e *AIDecisionEngine) execute(obs AIObservation, rng *RNG, dt float64) InputFrame {
	switch e.state {
	case AIFleeBoundary:
		return e.moveToCenter(obs, true)
	case AIRecover:
		return e.moveToCenter(obs, false)
	case AIPunish:
		return e.punish(obs)
	case AIApproach:
		return e.approach(obs)
	case AIRetreat:
		return e.retreat(obs)
	case AIBait:
		return e.bait(obs, rng, dt)
	case AIIdle:
		return e.idle(obs)
	default:
		log.Printf("ai: executing unknown state %d, treating as idle", e.state)
		return e.idle(obs)
	}
}

func (e *AIDecisionEngine) moveToCenter(obs AIObservation, dashOut bool) InputFrame {
	mx, my := Normalize(-obs.SelfX, -obs.SelfY)
	edge := obs.ArenaRadius - Distance(0, 0, obs.SelfX, obs.SelfY)
	dash := dashOut && obs.DashReady && edge < aiCriticalEdge
	return InputFrame{MoveX: mx, MoveY: my, Dash: dash}
}

func (e *AIDecisionEngine) punish(obs AIObservation) InputFrame {
	px, py := e.predict(obs)
	mx, my := Normalize(px-obs.SelfX, py-obs.SelfY)
	dist := Distance(obs.SelfX, obs.SelfY, px, py)
	// Only commit the dash once the intercept is inside dash reach
	reach := obs.DashSpeed * obs.DashTime * 1.2
	return InputFrame{MoveX: mx, MoveY: my, Dash: obs.DashReady && dist < reach}
}

func (e *AIDecisionEngine) approach(obs AIObservation) InputFrame {
	px, py := e.predict(obs)
	mx, my := Normalize(px-obs.SelfX, py-obs.SelfY)
	dist := Distance(obs.SelfX, obs.SelfY, obs.OppX, obs.OppY)
	return InputFrame{MoveX: mx, MoveY: my, Dash: obs.DashReady && dist > aiChaseDashRange}
}

func (e *AIDecisionEngine) retreat(obs AIObservation) InputFrame {
	// Away from the opponent but biased toward the center so backing
	// off never backs off the platform
	ax, ay := Normalize(obs.SelfX-obs.OppX, obs.SelfY-obs.OppY)
	cx, cy := Normalize(-obs.SelfX, -obs.SelfY)
	mx, my := Normalize(ax*0.6+cx*0.4, ay*0.6+cy*0.4)
	return InputFrame{MoveX: mx, MoveY: my}
}

// bait circles the opponent at mid range, holding the dash for a
// counter. Strafe direction flips on a timer drawn from the match RNG.
func (e *AIDecisionEngine) bait(obs AIObservation, rng *RNG, dt float64) InputFrame {
	e.strafeT -= dt
	if e.strafeT <= 0 {
		e.strafeDir = -e.strafeDir
		e.strafeT = rng.Range(1.5, 3.5)
	}
	toX := obs.OppX - obs.SelfX
	toY := obs.OppY - obs.SelfY
	dist := math.Hypot(toX, toY)
	nx, ny := Normalize(toX, toY)
	radial := Clamp((dist-aiBaitRange)/(aiBaitRange*0.5), -1, 1)
	tangential := e.strafeDir * (1.0 - math.Abs(radial)*0.7)
	mx := nx*radial + -ny*tangential
	my := ny*radial + nx*tangential
	mx, my = Normalize(mx, my)
	return InputFrame{MoveX: mx, MoveY: my}
}

// idle drifts toward a ring partway out from the center, the neutral
// position that keeps both escape and attack open
func (e *AIDecisionEngine) idle(obs AIObservation) InputFrame {
	ideal := obs.ArenaRadius * 0.3
	fromCenter := Distance(0, 0, obs.SelfX, obs.SelfY)
	if fromCenter > ideal+20 {
		mx, my := Normalize(-obs.SelfX, -obs.SelfY)
		return InputFrame{MoveX: mx, MoveY: my}
	}
	if fromCenter < ideal-20 && fromCenter > 1 {
		mx, my := Normalize(obs.SelfX, obs.SelfY)
		return InputFrame{MoveX: mx, MoveY: my}
	}
	return InputFrame{}
}

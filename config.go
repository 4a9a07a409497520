package main

// Gameplay tuning defaults. Knockback and effect magnitudes are data,
// not algorithm: everything the simulation needs is carried inside an
// immutable MatchConfig resolved once at match start.
const (
	DefaultTickRate = 60 // fixed simulation steps per second

	// Arena
	ArenaStartRadius = 300.0
	ArenaMinRadius   = 100.0
	ArenaShrinkDelay = 10.0 // seconds before shrinking starts
	ArenaShrinkRate  = 20.0 // units of radius lost per second

	// Actors
	ActorRadius     = 20.0
	ActorSteerRate  = 15.0  // fraction/s the velocity closes on the intent
	ActorMaxSpeed   = 300.0 // units/s steering speed cap
	ActorFriction   = 0.92  // velocity multiplier per tick
	ActorStocks     = 3
	SpawnRingRadius = 150.0 // distance from center at round start

	// Dash
	DashSpeed        = 600.0 // units/s during the active window
	DashDuration     = 0.15  // seconds of active window
	DashCooldown     = 1.0   // seconds before a spent charge returns
	DashCharges      = 2
	DashBufferWindow = 0.1  // seconds a directionless dash press is held
	DashKnockback    = 250.0 // extra separation impulse on dash contact
	CollisionBounce  = 0.7   // restitution for actor-actor contact

	// Power-ups
	PowerUpSlots         = 3
	PowerUpSpawnInterval = 8.0  // seconds between spawn attempts
	PowerUpLifetime      = 15.0 // seconds before an unclaimed orb expires
	PowerUpRadius        = 15.0
	PowerUpEffectTime    = 5.0 // default timed-effect duration

	// Match flow
	CountdownSeconds = 3.0
	ResultSeconds    = 5.0
	RoundsToWin      = 3
)

// AITier holds the knobs one difficulty level scales
type AITier struct {
	Name         string
	ReactionTime float64 // seconds between decisions
	Prediction   float64 // seconds of opponent lead prediction
	MistakeRate  float64 // probability a decision is replaced by a random one
}

// AITiers is the difficulty table, index 0 (easiest) to 3 (hardest)
var AITiers = [4]AITier{
	{Name: "easy", ReactionTime: 0.50, Prediction: 0.10, MistakeRate: 0.25},
	{Name: "medium", ReactionTime: 0.25, Prediction: 0.20, MistakeRate: 0.12},
	{Name: "hard", ReactionTime: 0.10, Prediction: 0.30, MistakeRate: 0.05},
	{Name: "expert", ReactionTime: 0.05, Prediction: 0.35, MistakeRate: 0.01},
}

// MatchConfig is the immutable tuning surface consumed by the
// simulation. It is captured in replay snapshots so old logs play back
// under the constants they were recorded with.
type MatchConfig struct {
	TickRate int `msgpack:"tr" json:"tickRate"`

	ArenaStartRadius float64 `msgpack:"ar" json:"arenaStartRadius"`
	ArenaMinRadius   float64 `msgpack:"am" json:"arenaMinRadius"`
	ArenaShrinkDelay float64 `msgpack:"ad" json:"arenaShrinkDelay"`
	ArenaShrinkRate  float64 `msgpack:"as" json:"arenaShrinkRate"`

	ActorRadius    float64 `msgpack:"rr" json:"actorRadius"`
	ActorSteerRate float64 `msgpack:"aa" json:"actorSteerRate"`
	ActorMaxSpeed  float64 `msgpack:"ms" json:"actorMaxSpeed"`
	ActorFriction  float64 `msgpack:"fr" json:"actorFriction"`
	Stocks         int     `msgpack:"st" json:"stocks"`
	SpawnRing      float64 `msgpack:"sr" json:"spawnRing"`

	DashSpeed     float64 `msgpack:"ds" json:"dashSpeed"`
	DashDuration  float64 `msgpack:"dd" json:"dashDuration"`
	DashCooldown  float64 `msgpack:"dc" json:"dashCooldown"`
	DashCharges   int     `msgpack:"dn" json:"dashCharges"`
	DashBuffer    float64 `msgpack:"db" json:"dashBuffer"`
	DashKnockback float64 `msgpack:"dk" json:"dashKnockback"`
	Bounce        float64 `msgpack:"bo" json:"bounce"`

	PowerUpSlots    int     `msgpack:"ps" json:"powerUpSlots"`
	PowerUpInterval float64 `msgpack:"pi" json:"powerUpInterval"`
	PowerUpLifetime float64 `msgpack:"pl" json:"powerUpLifetime"`
	PowerUpRadius   float64 `msgpack:"pr" json:"powerUpRadius"`
	EffectDuration  float64 `msgpack:"ed" json:"effectDuration"`

	Countdown   float64 `msgpack:"cd" json:"countdown"`
	ResultTime  float64 `msgpack:"rt" json:"resultTime"`
	RoundsToWin int     `msgpack:"rw" json:"roundsToWin"`

	AITier int `msgpack:"at" json:"aiTier"` // index into AITiers
}

// DefaultMatchConfig returns the standard ruleset
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		TickRate: DefaultTickRate,

		ArenaStartRadius: ArenaStartRadius,
		ArenaMinRadius:   ArenaMinRadius,
		ArenaShrinkDelay: ArenaShrinkDelay,
		ArenaShrinkRate:  ArenaShrinkRate,

		ActorRadius:   ActorRadius,
		ActorSteerRate: ActorSteerRate,
		ActorMaxSpeed: ActorMaxSpeed,
		ActorFriction: ActorFriction,
		Stocks:        ActorStocks,
		SpawnRing:     SpawnRingRadius,

		DashSpeed:     DashSpeed,
		DashDuration:  DashDuration,
		DashCooldown:  DashCooldown,
		DashCharges:   DashCharges,
		DashBuffer:    DashBufferWindow,
		DashKnockback: DashKnockback,
		Bounce:        CollisionBounce,

		PowerUpSlots:    PowerUpSlots,
		PowerUpInterval: PowerUpSpawnInterval,
		PowerUpLifetime: PowerUpLifetime,
		PowerUpRadius:   PowerUpRadius,
		EffectDuration:  PowerUpEffectTime,

		Countdown:   CountdownSeconds,
		ResultTime:  ResultSeconds,
		RoundsToWin: RoundsToWin,

		AITier: 1,
	}
}

// Dt returns the fixed timestep in seconds
func (c MatchConfig) Dt() float64 {
	return 1.0 / float64(c.TickRate)
}

// Tier returns the AI difficulty row, clamped to the table
func (c MatchConfig) Tier() AITier {
	i := c.AITier
	if i < 0 {
		i = 0
	} else if i >= len(AITiers) {
		i = len(AITiers) - 1
	}
	return AITiers[i]
}

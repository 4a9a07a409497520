package main

import (
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	BroadcastRate = 30 // state broadcasts per second
	LoopRate      = 120
	LoopDuration  = time.Second / LoopRate

	maxFrameTime = 0.25 // seconds of real time consumed per loop pass, cap

	// aiSeedSalt derives the AI noise stream from the match seed. The
	// simulation core's stream must stay untouched by AI draws: playback
	// replays recorded frames without running the AI, so any draw the AI
	// took from the sim stream would shift power-up spawns out from
	// under the replay.
	aiSeedSalt = 0xbf58476d1ce4e5b9
)

// Broadcaster is the transport seen by the simulation
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game owns one match: the simulation core, the round structure and
// the connected clients. The loop runs on a wall-clock ticker but the
// simulation only ever advances in fixed steps of cfg.Dt(): elapsed
// real time goes into an accumulator and whole steps are drained from
// it, the remainder carried to the next pass. Stop lands between
// ticks, never inside one.
type Game struct {
	mu  sync.RWMutex
	cfg MatchConfig

	seed     uint64
	rng      *RNG
	aiRNG    *RNG // AI decision noise; never consumed by stepTick
	arena    Arena
	actors   [2]*Actor
	powerups *PowerUpManager
	grid     *SpatialGrid
	match    MatchState
	sink     eventSink

	tick      uint64
	roundTime float64
	accum     float64
	lastPass  time.Time

	staged      [2]ClientInput
	dashLatch   [2]bool
	occupied    [2]bool
	names       [2]string
	clients     map[int]Broadcaster
	controllers map[int]Broadcaster // phone controllers, keyed by slot

	ai       *AIDecisionEngine
	recorder *ReplayRecorder

	running  bool
	stop     chan struct{}
	stopOnce sync.Once

	queryBuf []EntityRef
	frameBuf []InputFrame
	pending  []Event // events since the last state broadcast

	// set by the session layer
	onEvents func(tick uint64, events []Event)
	onFinish func(winner int, log *ReplayLog)
}

// NewGame creates a match with the given ruleset and RNG seed
func NewGame(cfg MatchConfig, seed uint64) *Game {
	g := &Game{
		cfg:         cfg,
		seed:        seed,
		rng:         NewRNG(seed),
		aiRNG:       NewRNG(seed ^ aiSeedSalt),
		arena:       NewArena(cfg),
		powerups:    NewPowerUpManager(cfg),
		grid:        NewSpatialGrid(),
		match:       NewMatchState(),
		clients:     make(map[int]Broadcaster),
		controllers: make(map[int]Broadcaster),
		stop:        make(chan struct{}),
	}
	sx, sy := SpawnPositions(&cfg)
	for i := 0; i < 2; i++ {
		g.actors[i] = NewActor(i, sx[i], sy[i], cfg)
	}
	g.recorder = NewReplayRecorder(ReplaySnapshot{
		Seed:   seed,
		Config: cfg,
		SpawnX: sx,
		SpawnY: sy,
	})
	return g
}

// SetHooks wires the session layer's observers. Call before Run.
func (g *Game) SetHooks(onEvents func(tick uint64, events []Event), onFinish func(winner int, log *ReplayLog)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onEvents = onEvents
	g.onFinish = onFinish
}

// AttachAI fills slot 1 with a scripted opponent at the config's tier
func (g *Game) AttachAI() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ai = NewAIDecisionEngine(1, g.cfg.Tier())
	g.occupied[1] = true
	g.names[1] = "cpu_" + g.cfg.Tier().Name
	g.match.Ready[1] = true
}

// Run starts the match loop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.lastPass = time.Now()
	g.mu.Unlock()

	ticker := time.NewTicker(LoopDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		g.stopOnce.Do(func() { close(g.stop) })
	}
}

// ClaimSlot reserves an actor slot for a joining player. Returns -1
// when the match is full.
func (g *Game) ClaimSlot(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < 2; i++ {
		if !g.occupied[i] {
			g.occupied[i] = true
			g.names[i] = name
			return i
		}
	}
	return -1
}

// ReleaseSlot frees a slot for good (lobby leave or expired reconnect)
func (g *Game) ReleaseSlot(slot int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slot < 0 || slot > 1 {
		return
	}
	g.occupied[slot] = false
	g.names[slot] = ""
	g.match.Ready[slot] = false
	delete(g.clients, slot)
	delete(g.controllers, slot)
}

// DetachClient drops the transport but keeps the slot reserved, so a
// reattach token can resume it
func (g *Game) DetachClient(slot int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, slot)
}

// Forfeit ends the match in the opponent's favor
func (g *Game) Forfeit(slot int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slot < 0 || slot > 1 {
		return
	}
	g.occupied[slot] = false
	g.names[slot] = ""
	delete(g.clients, slot)
	delete(g.controllers, slot)
	if g.match.Phase == PhaseCountdown || g.match.Phase == PhasePlaying {
		g.finishMatch(1 - slot)
	}
}

// SlotName returns the display name bound to a slot
func (g *Game) SlotName(slot int) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if slot < 0 || slot > 1 {
		return ""
	}
	return g.names[slot]
}

// SetClient associates a transport with a slot
func (g *Game) SetClient(slot int, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[slot] = client
}

// SetController attaches a phone controller to a slot. The player's own
// transport stays in place; the controller is an extra input source that
// also receives broadcasts.
func (g *Game) SetController(slot int, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controllers[slot] = client
}

// DetachController drops a slot's phone controller
func (g *Game) DetachController(slot int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.controllers, slot)
}

// SetReady flips a slot's ready flag; the countdown starts once both
// sides are in
func (g *Game) SetReady(slot int, ready bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slot < 0 || slot > 1 || !g.occupied[slot] {
		return
	}
	g.match.Ready[slot] = ready
	if g.ai != nil {
		g.match.Ready[1] = true
	}

	switch g.match.Phase {
	case PhaseLobby:
		if g.occupied[0] && g.occupied[1] && g.match.BothReady() {
			g.beginRound()
		}
	case PhaseResult:
		if g.match.Over() && g.match.BothReady() {
			g.rematch()
		}
	}
}

// HandleInput stages a client's input for the next tick. Dash presses
// are latched so one that lands between ticks is not lost.
func (g *Game) HandleInput(slot int, in ClientInput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slot < 0 || slot > 1 {
		return
	}
	g.staged[slot] = in
	if in.Dash {
		g.dashLatch[slot] = true
	}
}

// PlayerCount returns the number of occupied human slots
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for i := 0; i < 2; i++ {
		if g.occupied[i] && !(g.ai != nil && i == 1) {
			n++
		}
	}
	return n
}

// Phase returns the current match phase
func (g *Game) Phase() MatchPhase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.match.Phase
}

// AITierIndex returns the configured AI tier, or -1 for a PvP match
func (g *Game) AITierIndex() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.ai == nil {
		return -1
	}
	return g.cfg.AITier
}

// update runs one loop pass, feeding the real elapsed time into the
// fixed-step accumulator
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(g.lastPass).Seconds()
	g.lastPass = now
	g.advance(elapsed)
}

// advance drains whole fixed steps from the accumulated elapsed time,
// carrying the fractional remainder into the next pass. Elapsed time is
// capped so a stalled process cannot trigger a catch-up spiral.
func (g *Game) advance(elapsed float64) {
	if elapsed > maxFrameTime {
		elapsed = maxFrameTime
	}
	g.accum += elapsed

	dt := g.cfg.Dt()
	for g.accum >= dt {
		g.accum -= dt
		g.step(dt)
	}
}

// step advances the match by exactly one fixed timestep
func (g *Game) step(dt float64) {
	switch g.match.Phase {
	case PhaseLobby:
		return
	case PhaseCountdown:
		g.match.CountdownT -= dt
		if g.match.CountdownT <= 0 {
			g.match.Phase = PhasePlaying
			g.broadcastJSON(Envelope{T: MsgPhase, Data: g.match.Phase.String()})
		}
	case PhasePlaying:
		frames := g.collectInputs()
		events := g.stepTick(frames, dt)
		g.recorder.Record(frames)
		g.pending = append(g.pending, events...)
		g.afterTick(events)
	case PhaseResult:
		g.match.ResultT -= dt
		if g.match.ResultT <= 0 && !g.match.Over() {
			g.beginRound()
		}
	}

	every := uint64(g.cfg.TickRate / BroadcastRate)
	if every == 0 {
		every = 1
	}
	if g.tick%every == 0 || g.match.Phase != PhasePlaying {
		g.broadcastState(g.pending)
		g.pending = g.pending[:0]
	}
}

// collectInputs turns staged client input and the AI decision into
// this tick's sanitized InputFrames, ordered by slot
func (g *Game) collectInputs() []InputFrame {
	g.frameBuf = g.frameBuf[:0]
	for slot := 0; slot < 2; slot++ {
		if g.ai != nil && slot == 1 {
			frame := g.ai.Decide(g.tick, g.observe(1), g.aiRNG, g.cfg.Dt())
			g.frameBuf = append(g.frameBuf, frame.Sanitize())
			continue
		}
		if !g.occupied[slot] {
			continue
		}
		in := g.staged[slot]
		frame := InputFrame{
			Tick:  g.tick,
			Actor: slot,
			MoveX: in.MX,
			MoveY: in.MY,
			Dash:  in.Dash || g.dashLatch[slot],
		}
		g.frameBuf = append(g.frameBuf, frame.Sanitize())
		g.dashLatch[slot] = false
	}
	return g.frameBuf
}

// observe builds the perceivable world for the AI slot: positions,
// velocities and the boundary, nothing private to the opponent
func (g *Game) observe(slot int) AIObservation {
	self := g.actors[slot]
	opp := g.actors[1-slot]
	return AIObservation{
		SelfX: self.X, SelfY: self.Y,
		SelfVX: self.VX, SelfVY: self.VY,
		OppX: opp.X, OppY: opp.Y,
		OppVX: opp.VX, OppVY: opp.VY,
		ArenaRadius: g.arena.CurrentRadius(g.roundTime),
		DashReady:   self.Charges > 0,
		DashSpeed:   g.cfg.DashSpeed,
		DashTime:    g.cfg.DashDuration,
	}
}

// stepTick is the deterministic simulation core. Live play and replay
// playback both come through here with the same frame stream; nothing
// inside may read the wall clock or any RNG but g.rng.
func (g *Game) stepTick(frames []InputFrame, dt float64) []Event {
	g.tick++
	g.roundTime += dt
	g.sink.tick = g.tick
	g.sink.events = g.sink.events[:0]

	radius := g.arena.CurrentRadius(g.roundTime)

	// Apply inputs in slot order
	sort.SliceStable(frames, func(i, j int) bool { return frames[i].Actor < frames[j].Actor })
	var inputs [2]InputFrame
	for _, f := range frames {
		if f.Actor >= 0 && f.Actor < 2 {
			inputs[f.Actor] = f
		}
	}
	for i := 0; i < 2; i++ {
		if g.actors[i].Step(inputs[i], g.cfg, dt) {
			g.sink.emit(Event{Type: EvDashStarted, Actor: i, Other: -1})
		}
	}

	g.resolveCollisions()
	g.checkBoundary(radius)

	g.powerups.Update(dt, radius, g.rng, g.cfg, &g.sink)
	g.grid.Clear()
	g.powerups.InsertInto(g.grid, g.cfg)
	g.powerups.CheckPickups(g.grid, g.actors[:], g.cfg, &g.sink)

	g.checkRoundEnd()

	return g.sink.events
}

// resolveCollisions runs the broad phase over both actors' swept paths
// and resolves any contact. Both the inserted capsule and the query are
// swept over the whole tick, so a dash crossing several cells cannot
// pass clean through the opponent regardless of which slot is dashing.
func (g *Game) resolveCollisions() {
	a, b := g.actors[0], g.actors[1]
	if !a.Alive || !b.Alive {
		return
	}

	g.grid.Clear()
	g.grid.InsertSegment(b.PrevX, b.PrevY, b.X, b.Y, b.Radius(), EntityRef{Kind: 'a', Idx: 1})
	g.queryBuf = g.queryBuf[:0]
	g.queryBuf = g.grid.QuerySegment(a.PrevX, a.PrevY, a.X, a.Y, a.Radius(), g.queryBuf)

	hit := false
	for _, ref := range g.queryBuf {
		if ref.Kind == 'a' && ref.Idx == 1 {
			hit = true
			break
		}
	}
	if !hit {
		return
	}

	overlap := CheckCollision(a.X, a.Y, a.Radius(), b.X, b.Y, b.Radius())
	if !overlap {
		// End positions are apart; check the paths themselves
		swept := CheckSweptCollision(a.PrevX, a.PrevY, a.X, a.Y, a.Radius(), b.X, b.Y, b.Radius()) ||
			CheckSweptCollision(b.PrevX, b.PrevY, b.X, b.Y, b.Radius(), a.X, a.Y, a.Radius())
		if !swept {
			return
		}
		// Rewind the faster mover to its closest approach so the
		// resolver has a genuine contact to separate
		if a.Speed() >= b.Speed() {
			rewindToApproach(a, b)
		} else {
			rewindToApproach(b, a)
		}
	}

	impulse := ResolveActorCollision(a, b, g.cfg)
	if impulse > 0 {
		g.sink.emit(Event{Type: EvCollision, Actor: 0, Other: 1, Impulse: impulse})
	}
}

// rewindToApproach moves m back along its tick path to the point
// nearest the stationary reference
func rewindToApproach(m, ref *Actor) {
	dx := m.X - m.PrevX
	dy := m.Y - m.PrevY
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		return
	}
	t := ((ref.X-m.PrevX)*dx + (ref.Y-m.PrevY)*dy) / d2
	t = Clamp(t, 0, 1)
	m.X = m.PrevX + dx*t
	m.Y = m.PrevY + dy*t
}

// checkBoundary eliminates actors whose center crossed the boundary
// and respawns the ones with stocks left
func (g *Game) checkBoundary(radius float64) {
	for i := 0; i < 2; i++ {
		a := g.actors[i]
		if !a.Alive || !g.arena.OutOfBounds(a.X, a.Y, radius) {
			continue
		}
		out := a.Eliminate()
		g.sink.emit(Event{Type: EvEliminated, Actor: i, Other: -1, Stocks: a.Stocks})
		if !out {
			opp := g.actors[1-i]
			rx, ry := RespawnPosition(&g.cfg, opp.X, opp.Y, radius)
			a.Respawn(rx, ry)
		}
	}
}

// checkRoundEnd closes the round once a side is out of stocks
func (g *Game) checkRoundEnd() {
	a0, a1 := g.actors[0].Alive, g.actors[1].Alive
	if a0 && a1 {
		return
	}

	winner := -1 // both out on the same tick is a draw, round is replayed
	if a0 && !a1 {
		winner = 0
	} else if a1 && !a0 {
		winner = 1
	}

	g.sink.emit(Event{Type: EvRoundEnded, Actor: -1, Other: -1, Winner: winner})
	decided := g.match.EndRound(winner, &g.cfg)

	g.broadcastJSON(Envelope{T: MsgRoundEnd, Data: RoundEndMsg{
		Winner: winner,
		Round:  g.match.Round,
		Wins:   g.match.Wins,
	}})

	if decided {
		g.sink.emit(Event{Type: EvMatchEnded, Actor: -1, Other: -1, Winner: g.match.MatchWinner})
		g.finishMatch(g.match.MatchWinner)
	}
}

// beginRound resets the simulation field and starts the countdown.
// The tick counter keeps running across rounds so the replay log stays
// one monotonic stream.
func (g *Game) beginRound() {
	g.match.StartCountdown(&g.cfg)
	g.roundTime = 0
	sx, sy := SpawnPositions(&g.cfg)
	for i := 0; i < 2; i++ {
		g.actors[i].Stocks = g.cfg.Stocks
		g.actors[i].Alive = true
		g.actors[i].Respawn(sx[i], sy[i])
	}
	g.powerups.Reset()
	g.broadcastJSON(Envelope{T: MsgPhase, Data: g.match.Phase.String()})
}

func (g *Game) rematch() {
	g.match.ResetForRematch()
	g.recorder = NewReplayRecorder(g.recorder.log.Snapshot)
	seed := g.rng.Uint64()
	g.recorder.log.Snapshot.Seed = seed
	g.rng = NewRNG(seed)
	g.aiRNG = NewRNG(seed ^ aiSeedSalt)
	g.tick = 0
	g.beginRound()
}

// finishMatch closes the replay log and hands the result to the
// session layer. Called with the lock held.
func (g *Game) finishMatch(winner int) {
	if g.match.MatchWinner < 0 {
		g.match.Phase = PhaseResult
		g.match.MatchWinner = winner
		g.match.ResultT = g.cfg.ResultTime
	}
	log := g.recorder.Finish(g.tick, winner)
	g.broadcastJSON(Envelope{T: MsgMatchEnd, Data: MatchEndMsg{
		Winner: winner,
		Wins:   g.match.Wins,
	}})
	if g.onFinish != nil {
		go g.onFinish(winner, log)
	}
}

// afterTick fans the tick's event list out to observers
func (g *Game) afterTick(events []Event) {
	if len(events) > 0 && g.onEvents != nil {
		buf := make([]Event, len(events))
		copy(buf, events)
		go g.onEvents(g.tick, buf)
	}
}

// snapshotState builds the broadcast state under the held lock
func (g *Game) snapshotState(events []Event) GameState {
	state := GameState{
		Tick:      g.tick,
		Phase:     g.match.Phase.String(),
		Radius:    round1(g.arena.CurrentRadius(g.roundTime)),
		Round:     g.match.Round,
		Wins:      g.match.Wins,
		Actors:    make([]ActorState, 0, 2),
		PowerUps:  g.powerups.ActiveStates(),
		PhaseTime: g.phaseTime(),
	}
	for i := 0; i < 2; i++ {
		state.Actors = append(state.Actors, g.actors[i].ToState())
	}
	for _, ev := range events {
		state.Events = append(state.Events, eventToState(ev))
	}
	return state
}

func (g *Game) phaseTime() float64 {
	switch g.match.Phase {
	case PhaseCountdown:
		return round1(g.match.CountdownT)
	case PhaseResult:
		return round1(g.match.ResultT)
	default:
		return 0
	}
}

// broadcastState sends the msgpack state frame to all clients
func (g *Game) broadcastState(events []Event) {
	data, err := msgpack.Marshal(g.snapshotState(events))
	if err != nil {
		return
	}
	for _, client := range g.clients {
		client.SendBinary(data)
	}
	for _, client := range g.controllers {
		client.SendBinary(data)
	}
}

// broadcastJSON sends a control message to all clients
func (g *Game) broadcastJSON(msg Envelope) {
	for _, client := range g.clients {
		client.SendJSON(msg)
	}
	for _, client := range g.controllers {
		client.SendJSON(msg)
	}
}

// NotifyController tells connected clients a phone controller attached
// to or detached from a slot
func (g *Game) NotifyController(slot int, attached bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := MsgCtrlOff
	if attached {
		t = MsgCtrlOn
	}
	g.broadcastJSON(Envelope{T: t, Data: map[string]int{"slot": slot}})
}

// PlayReplay re-simulates a recorded log and verifies it reaches the
// recorded outcome. Speed is irrelevant here: playback consumes ticks
// as fast as the CPU allows because dt never came from the wall clock.
func PlayReplay(log *ReplayLog) (uint64, int, error) {
	player, err := NewReplayPlayer(log)
	if err != nil {
		return 0, -1, err
	}

	g := NewGame(log.Snapshot.Config, log.Snapshot.Seed)
	g.occupied[0] = true
	g.occupied[1] = true
	g.match.Phase = PhasePlaying
	g.match.Round = 1
	dt := g.cfg.Dt()

	winner := -1
	for !player.Done() {
		frames, err := player.NextFrames()
		if err != nil {
			return g.tick, winner, err
		}
		events := g.stepTick(frames, dt)
		for _, ev := range events {
			if ev.Type == EvMatchEnded {
				winner = ev.Winner
			}
			if ev.Type == EvRoundEnded && !g.match.Over() && g.match.Phase == PhaseResult {
				// Replay logs carry a continuous tick stream; rounds
				// restart immediately without a countdown
				g.beginRound()
				g.match.Phase = PhasePlaying
			}
		}
		if winner >= 0 {
			break
		}
	}

	if err := player.VerifyOutcome(g.tick, winner); err != nil {
		return g.tick, winner, err
	}
	return g.tick, winner, nil
}

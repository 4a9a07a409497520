package main

import "math"

// MatchPhase represents the lifecycle of a match
type MatchPhase int

const (
	PhaseLobby     MatchPhase = 0
	PhaseCountdown MatchPhase = 1
	PhasePlaying   MatchPhase = 2
	PhaseResult    MatchPhase = 3
)

var phaseNames = map[MatchPhase]string{
	PhaseLobby:     "lobby",
	PhaseCountdown: "countdown",
	PhasePlaying:   "playing",
	PhaseResult:    "result",
}

// String returns the phase name used on the wire
func (p MatchPhase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return "unknown"
}

// MatchState tracks the round structure around the simulation: which
// phase we are in, how many rounds each slot has taken and whether
// the whole match is decided.
type MatchState struct {
	Phase       MatchPhase
	Round       int // 1-based, current round number
	Wins        [2]int
	CountdownT  float64
	ResultT     float64
	Ready       [2]bool
	MatchWinner int // -1 until decided
	RoundWinner int // -1 until the current result phase has one
}

// NewMatchState creates the pre-match lobby state
func NewMatchState() MatchState {
	return MatchState{
		Phase:       PhaseLobby,
		MatchWinner: -1,
		RoundWinner: -1,
	}
}

// BothReady reports whether both slots have readied up
func (ms *MatchState) BothReady() bool {
	return ms.Ready[0] && ms.Ready[1]
}

// StartCountdown moves into the countdown for the next round
func (ms *MatchState) StartCountdown(cfg *MatchConfig) {
	ms.Phase = PhaseCountdown
	ms.CountdownT = cfg.Countdown
	ms.Round++
	ms.RoundWinner = -1
	ms.Ready[0] = false
	ms.Ready[1] = false
}

// EndRound records the round winner and moves into the result phase.
// Returns true when the round decided the whole match.
func (ms *MatchState) EndRound(winner int, cfg *MatchConfig) bool {
	ms.Phase = PhaseResult
	ms.ResultT = cfg.ResultTime
	ms.RoundWinner = winner
	if winner >= 0 && winner < 2 {
		ms.Wins[winner]++
		if ms.Wins[winner] >= cfg.RoundsToWin {
			ms.MatchWinner = winner
		}
	}
	return ms.MatchWinner >= 0
}

// Over reports whether the match has been decided
func (ms *MatchState) Over() bool {
	return ms.MatchWinner >= 0
}

// ResetForRematch clears scores for a new best-of series
func (ms *MatchState) ResetForRematch() {
	*ms = NewMatchState()
}

// SpawnPositions returns the two starting positions, facing each
// other across the center on the spawn ring
func SpawnPositions(cfg *MatchConfig) (x, y [2]float64) {
	r := cfg.SpawnRing
	x[0], y[0] = -r, 0.0
	x[1], y[1] = r, 0.0
	return
}

// RespawnPosition places an eliminated actor back on the spawn ring,
// on the side opposite its opponent, clamped inside the current
// boundary
func RespawnPosition(cfg *MatchConfig, oppX, oppY, arenaRadius float64) (float64, float64) {
	r := math.Min(cfg.SpawnRing, arenaRadius*0.75)
	nx, ny := Normalize(oppX, oppY)
	if nx == 0 && ny == 0 {
		nx = 1
	}
	return -nx * r, -ny * r
}

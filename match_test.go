package main

import "testing"

func TestMatchPhaseFlow(t *testing.T) {
	cfg := DefaultMatchConfig()
	ms := NewMatchState()

	if ms.Phase != PhaseLobby {
		t.Fatal("new match should start in the lobby")
	}
	ms.Ready[0] = true
	if ms.BothReady() {
		t.Error("one ready vote should not count as both")
	}
	ms.Ready[1] = true
	if !ms.BothReady() {
		t.Error("both ready votes should register")
	}

	ms.StartCountdown(&cfg)
	if ms.Phase != PhaseCountdown || ms.Round != 1 {
		t.Errorf("countdown should start round 1, got phase %v round %d", ms.Phase, ms.Round)
	}
	if ms.Ready[0] || ms.Ready[1] {
		t.Error("countdown should clear ready votes")
	}
}

func TestMatchRoundsToWin(t *testing.T) {
	cfg := DefaultMatchConfig()
	ms := NewMatchState()
	ms.StartCountdown(&cfg)

	for i := 0; i < cfg.RoundsToWin-1; i++ {
		if ms.EndRound(0, &cfg) {
			t.Fatalf("round %d should not decide the match", i+1)
		}
		if ms.Over() {
			t.Fatal("match should not be over yet")
		}
		ms.StartCountdown(&cfg)
	}
	if !ms.EndRound(0, &cfg) {
		t.Error("reaching the round target should decide the match")
	}
	if ms.MatchWinner != 0 {
		t.Errorf("winner should be slot 0, got %d", ms.MatchWinner)
	}
}

func TestMatchDrawRoundAwardsNoWin(t *testing.T) {
	cfg := DefaultMatchConfig()
	ms := NewMatchState()
	ms.StartCountdown(&cfg)

	if ms.EndRound(-1, &cfg) {
		t.Error("a drawn round should never decide the match")
	}
	if ms.Wins[0] != 0 || ms.Wins[1] != 0 {
		t.Errorf("draw should award nothing, wins %v", ms.Wins)
	}
}

func TestMatchRematchReset(t *testing.T) {
	cfg := DefaultMatchConfig()
	ms := NewMatchState()
	ms.StartCountdown(&cfg)
	for !ms.Over() {
		ms.EndRound(1, &cfg)
	}

	ms.ResetForRematch()
	if ms.Phase != PhaseLobby || ms.Round != 0 || ms.Over() {
		t.Error("rematch should restore the initial state")
	}
	if ms.Wins[0] != 0 || ms.Wins[1] != 0 {
		t.Error("rematch should clear the score")
	}
}

func TestSpawnPositionsFaceEachOther(t *testing.T) {
	cfg := DefaultMatchConfig()
	x, y := SpawnPositions(&cfg)
	if x[0] != -x[1] || y[0] != -y[1] {
		t.Errorf("spawns should mirror through the center: (%f,%f) vs (%f,%f)", x[0], y[0], x[1], y[1])
	}
	if Distance(0, 0, x[0], y[0]) != cfg.SpawnRing {
		t.Error("spawns should sit on the spawn ring")
	}
}

func TestRespawnPositionOppositeOpponent(t *testing.T) {
	cfg := DefaultMatchConfig()
	x, y := RespawnPosition(&cfg, 100, 0, cfg.ArenaStartRadius)
	if x >= 0 {
		t.Errorf("respawn should land opposite the opponent, got (%f, %f)", x, y)
	}

	// Shrunken arena pulls the respawn ring inward
	x, y = RespawnPosition(&cfg, 100, 0, 100)
	if Distance(0, 0, x, y) > 100 {
		t.Errorf("respawn should stay inside the boundary, got (%f, %f)", x, y)
	}
}

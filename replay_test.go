package main

import (
	"errors"
	"testing"
)

func testSnapshot() ReplaySnapshot {
	cfg := DefaultMatchConfig()
	sx, sy := SpawnPositions(&cfg)
	return ReplaySnapshot{Seed: 42, Config: cfg, SpawnX: sx, SpawnY: sy}
}

func TestReplayRoundTrip(t *testing.T) {
	rec := NewReplayRecorder(testSnapshot())
	rec.Record([]InputFrame{
		{Tick: 0, Actor: 1, MoveX: 1},
		{Tick: 0, Actor: 0, MoveX: -1},
	})
	rec.Record([]InputFrame{{Tick: 1, Actor: 0, Dash: true, MoveX: -1}})
	log := rec.Finish(10, 0)

	data, err := log.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeReplay(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Version != ReplayVersion || got.EndTick != 10 || got.Winner != 0 {
		t.Errorf("header mismatch: %+v", got)
	}
	if got.Snapshot.Seed != 42 {
		t.Errorf("seed mismatch: %d", got.Snapshot.Seed)
	}
	if len(got.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(got.Frames))
	}
	// Frames within a tick come back in slot order
	if got.Frames[0].Actor != 0 || got.Frames[1].Actor != 1 {
		t.Errorf("frames not slot-ordered within tick: %+v", got.Frames[:2])
	}
}

func TestReplayRejectsWrongVersion(t *testing.T) {
	rec := NewReplayRecorder(testSnapshot())
	log := rec.Finish(0, -1)
	log.Version = "arena-replay-1"

	data, _ := log.Encode()
	_, err := DecodeReplay(data)
	if !errors.Is(err, ErrUnplayableReplay) {
		t.Errorf("wrong version should be unplayable, got %v", err)
	}
}

func TestReplayRejectsGarbage(t *testing.T) {
	_, err := DecodeReplay([]byte("not msgpack at all"))
	if !errors.Is(err, ErrUnplayableReplay) {
		t.Errorf("garbage should be unplayable, got %v", err)
	}
}

func TestReplayRejectsOutOfOrderFrames(t *testing.T) {
	log := &ReplayLog{
		Version:  ReplayVersion,
		Snapshot: testSnapshot(),
		Frames: []InputFrame{
			{Tick: 5, Actor: 0},
			{Tick: 3, Actor: 0},
		},
		EndTick: 10,
	}
	if err := log.Validate(); !errors.Is(err, ErrUnplayableReplay) {
		t.Errorf("out-of-order frames should be unplayable, got %v", err)
	}
}

func TestReplayRejectsTruncation(t *testing.T) {
	log := &ReplayLog{
		Version:  ReplayVersion,
		Snapshot: testSnapshot(),
		Frames:   []InputFrame{{Tick: 50, Actor: 0}},
		EndTick:  10, // frames reference ticks past the recorded end
	}
	if err := log.Validate(); !errors.Is(err, ErrUnplayableReplay) {
		t.Errorf("truncated log should be unplayable, got %v", err)
	}
}

func TestReplayRejectsBadActor(t *testing.T) {
	log := &ReplayLog{
		Version:  ReplayVersion,
		Snapshot: testSnapshot(),
		Frames:   []InputFrame{{Tick: 0, Actor: 7}},
		EndTick:  10,
	}
	if err := log.Validate(); !errors.Is(err, ErrUnplayableReplay) {
		t.Errorf("unknown actor slot should be unplayable, got %v", err)
	}
}

func TestReplayPlayerDeliversFramesByTick(t *testing.T) {
	rec := NewReplayRecorder(testSnapshot())
	for tick := uint64(0); tick < 3; tick++ {
		rec.Record([]InputFrame{
			{Tick: tick, Actor: 1, MoveX: -1},
			{Tick: tick, Actor: 0, MoveX: float64(tick)},
		})
	}
	log := rec.Finish(3, 1)

	p, err := NewReplayPlayer(log)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}

	for tick := uint64(0); tick < 3; tick++ {
		got, err := p.NextFrames()
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if len(got) != 2 || got[0].Tick != tick || got[0].Actor != 0 || got[1].Actor != 1 {
			t.Fatalf("tick %d delivered wrong frames: %+v", tick, got)
		}
		if got[0].MoveX != float64(tick) {
			t.Errorf("tick %d delivered stale input %f", tick, got[0].MoveX)
		}
	}
	got, err := p.NextFrames()
	if err != nil || len(got) != 0 {
		t.Errorf("end tick should carry no frames, got %d (%v)", len(got), err)
	}
	if !p.Done() {
		t.Error("player should be done after the end tick")
	}
}

func TestReplayMissingFrameHaltsPlayback(t *testing.T) {
	rec := NewReplayRecorder(testSnapshot())
	for tick := uint64(0); tick < 4; tick++ {
		frames := []InputFrame{
			{Tick: tick, Actor: 0, MoveX: 1},
			{Tick: tick, Actor: 1, MoveX: -1},
		}
		if tick == 2 {
			frames = frames[:1] // slot 1's frame lost
		}
		rec.Record(frames)
	}
	log := rec.Finish(4, 0)

	// Ordering is intact, so the hole is only detectable during playback
	if err := log.Validate(); err != nil {
		t.Fatalf("validate should pass: %v", err)
	}

	p, err := NewReplayPlayer(log)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	for i := 0; i < 5 && err == nil; i++ {
		_, err = p.NextFrames()
	}
	if !errors.Is(err, ErrReplayDesync) {
		t.Errorf("missing per-slot frame should desync, got %v", err)
	}

	if _, _, err := PlayReplay(log); !errors.Is(err, ErrReplayDesync) {
		t.Errorf("playback should halt on the hole, got %v", err)
	}
}

func TestReplayVerifyOutcome(t *testing.T) {
	rec := NewReplayRecorder(testSnapshot())
	log := rec.Finish(100, 1)
	p, _ := NewReplayPlayer(log)

	if err := p.VerifyOutcome(100, 1); err != nil {
		t.Errorf("matching outcome should verify, got %v", err)
	}
	if err := p.VerifyOutcome(100, 0); !errors.Is(err, ErrReplayDesync) {
		t.Errorf("wrong winner should desync, got %v", err)
	}
	if err := p.VerifyOutcome(99, 1); !errors.Is(err, ErrReplayDesync) {
		t.Errorf("wrong end tick should desync, got %v", err)
	}
}

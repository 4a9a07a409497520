package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// ReplayVersion tags the replay format. Logs with any other tag are
// rejected rather than misinterpreted.
const ReplayVersion = "arena-replay-2"

var (
	ErrUnplayableReplay = errors.New("replay cannot be played back")
	ErrReplayDesync     = errors.New("replay diverged from recorded outcome")
)

// ReplaySnapshot pins down everything a playback needs besides the
// input stream: spawn positions, the full tuning config and the RNG
// seed. Same snapshot + same frames = same match, bit for bit.
type ReplaySnapshot struct {
	Seed   uint64      `msgpack:"seed"`
	Config MatchConfig `msgpack:"cfg"`
	SpawnX [2]float64  `msgpack:"sx"`
	SpawnY [2]float64  `msgpack:"sy"`
}

// ReplayLog is the recorded match: a version tag, the initial
// snapshot and every InputFrame in tick order
type ReplayLog struct {
	Version  string         `msgpack:"v"`
	Snapshot ReplaySnapshot `msgpack:"snap"`
	Frames   []InputFrame   `msgpack:"frames"`
	EndTick  uint64         `msgpack:"end"`
	Winner   int            `msgpack:"w"`
}

// Encode serializes the log to the msgpack wire form
func (r *ReplayLog) Encode() ([]byte, error) {
	return msgpack.Marshal(r)
}

// DecodeReplay parses and validates a recorded log
func DecodeReplay(data []byte) (*ReplayLog, error) {
	var r ReplayLog
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnplayableReplay, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the invariants playback relies on
func (r *ReplayLog) Validate() error {
	if r.Version != ReplayVersion {
		return fmt.Errorf("%w: version %q, want %q", ErrUnplayableReplay, r.Version, ReplayVersion)
	}
	if r.Snapshot.Config.TickRate <= 0 {
		return fmt.Errorf("%w: invalid tick rate %d", ErrUnplayableReplay, r.Snapshot.Config.TickRate)
	}
	lastTick := uint64(0)
	for i, f := range r.Frames {
		if f.Actor < 0 || f.Actor > 1 {
			return fmt.Errorf("%w: frame %d has actor %d", ErrUnplayableReplay, i, f.Actor)
		}
		if f.Tick < lastTick {
			return fmt.Errorf("%w: frame %d out of order (tick %d after %d)", ErrUnplayableReplay, i, f.Tick, lastTick)
		}
		lastTick = f.Tick
	}
	if len(r.Frames) > 0 && r.EndTick < lastTick {
		return fmt.Errorf("%w: truncated (end tick %d, last frame tick %d)", ErrUnplayableReplay, r.EndTick, lastTick)
	}
	return nil
}

// ReplayRecorder accumulates a log during a live match
type ReplayRecorder struct {
	log ReplayLog
}

// NewReplayRecorder starts recording with the match's initial snapshot
func NewReplayRecorder(snap ReplaySnapshot) *ReplayRecorder {
	return &ReplayRecorder{log: ReplayLog{
		Version:  ReplayVersion,
		Snapshot: snap,
	}}
}

// Record appends the tick's sanitized input frames. Frames within a
// tick are ordered by actor slot so the log is deterministic
// regardless of arrival order.
func (r *ReplayRecorder) Record(frames []InputFrame) {
	if len(frames) == 0 {
		return
	}
	start := len(r.log.Frames)
	r.log.Frames = append(r.log.Frames, frames...)
	tail := r.log.Frames[start:]
	sort.SliceStable(tail, func(i, j int) bool { return tail[i].Actor < tail[j].Actor })
}

// Finish closes the log with the match outcome and returns it
func (r *ReplayRecorder) Finish(endTick uint64, winner int) *ReplayLog {
	r.log.EndTick = endTick
	r.log.Winner = winner
	return &r.log
}

// ReplayPlayer feeds a recorded log back through the simulation.
// Playback speed changes only how fast ticks are consumed in wall
// time; every tick still advances by the recorded fixed timestep.
type ReplayPlayer struct {
	log  *ReplayLog
	next int // index of the first undelivered frame
	tick uint64
}

// NewReplayPlayer prepares playback of a validated log
func NewReplayPlayer(log *ReplayLog) (*ReplayPlayer, error) {
	if err := log.Validate(); err != nil {
		return nil, err
	}
	return &ReplayPlayer{log: log}, nil
}

// Done reports whether playback has consumed the whole log
func (p *ReplayPlayer) Done() bool {
	return p.tick > p.log.EndTick
}

// Tick returns the next tick number to simulate
func (p *ReplayPlayer) Tick() uint64 {
	return p.tick
}

// NextFrames returns the input frames recorded for the current tick
// and advances to the next one. Every tick before the recorded end
// carries exactly one frame per slot; a hole in the log is a fatal
// desync, playback never substitutes a guessed input.
func (p *ReplayPlayer) NextFrames() ([]InputFrame, error) {
	start := p.next
	for p.next < len(p.log.Frames) && p.log.Frames[p.next].Tick == p.tick {
		p.next++
	}
	frames := p.log.Frames[start:p.next]
	if p.tick < p.log.EndTick {
		if len(frames) != 2 || frames[0].Actor != 0 || frames[1].Actor != 1 {
			return nil, fmt.Errorf("%w: tick %d carries %d input frames, want one per slot",
				ErrReplayDesync, p.tick, len(frames))
		}
	}
	p.tick++
	return frames, nil
}

// VerifyOutcome compares the simulated result against the recorded
// one. A mismatch means the engine no longer reproduces the log.
func (p *ReplayPlayer) VerifyOutcome(endTick uint64, winner int) error {
	if endTick != p.log.EndTick || winner != p.log.Winner {
		return fmt.Errorf("%w: got end tick %d winner %d, recorded %d/%d",
			ErrReplayDesync, endTick, winner, p.log.EndTick, p.log.Winner)
	}
	return nil
}

package main

// EventType identifies a discrete simulation event
type EventType string

const (
	EvDashStarted    EventType = "dash_started"
	EvCollision      EventType = "collision"
	EvEliminated     EventType = "eliminated"
	EvPowerUpSpawned EventType = "powerup_spawned"
	EvPowerUpClaimed EventType = "powerup_claimed"
	EvPowerUpExpired EventType = "powerup_expired"
	EvRoundEnded     EventType = "round_ended"
	EvMatchEnded     EventType = "match_ended"
)

// Event is one discrete occurrence inside a tick. The flat shape keeps
// event lists directly comparable, which the determinism tests rely on.
// Presentation layers (particles, shake, audio, HUD) consume the list
// after the tick completes; nothing in it can reach back into the sim.
type Event struct {
	Type    EventType   `msgpack:"t" json:"t"`
	Tick    uint64      `msgpack:"k" json:"k"`
	Actor   int         `msgpack:"a" json:"a"`           // primary actor slot, -1 if none
	Other   int         `msgpack:"o" json:"o"`           // secondary actor slot, -1 if none
	Impulse float64     `msgpack:"i" json:"i,omitempty"` // collision impulse magnitude
	Stocks  int         `msgpack:"s" json:"s,omitempty"` // stocks remaining after elimination
	Kind    PowerUpKind `msgpack:"p" json:"p,omitempty"` // power-up kind
	Slot    int         `msgpack:"l" json:"l,omitempty"` // power-up slot index
	Winner  int         `msgpack:"w" json:"w,omitempty"` // winning actor slot, -1 for draw
}

// eventSink collects the events of the tick being executed
type eventSink struct {
	tick   uint64
	events []Event
}

func (s *eventSink) emit(e Event) {
	e.Tick = s.tick
	s.events = append(s.events, e)
}

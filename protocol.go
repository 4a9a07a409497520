package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin    = "join"
	MsgLeave   = "leave"
	MsgInput   = "input"
	MsgCreate  = "create"  // create match
	MsgList    = "list"    // list matches
	MsgCheck   = "check"   // check if match exists
	MsgReady   = "ready"   // vote to start / rematch
	MsgControl = "control" // phone controller attach (jwt token)
)

// Server -> Client message types
const (
	MsgState     = "state"
	MsgWelcome   = "welcome"
	MsgPhase     = "phase"
	MsgRoundEnd  = "round_end"
	MsgMatchEnd  = "match_end"
	MsgMatches   = "matches"
	MsgJoined    = "joined"
	MsgCreated   = "created" // match created, client should navigate
	MsgError     = "error"
	MsgChecked   = "checked"    // match check response
	MsgControlOK = "control_ok" // controller attach confirmed
	MsgCtrlOn    = "ctrl_on"    // notify desktop: controller attached
	MsgCtrlOff   = "ctrl_off"   // notify desktop: controller detached
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClientInput is sent by the client every input tick. The server stamps
// it into an InputFrame for the next simulation tick.
type ClientInput struct {
	MX   float64 `json:"mx"` // movement X, clamped to the unit disc server-side
	MY   float64 `json:"my"` // movement Y
	Dash bool    `json:"dash"`
}

// JoinMsg is sent when a player wants to join a match
type JoinMsg struct {
	Name    string `json:"name"`
	MatchID string `json:"mid"`
	Token   string `json:"tok,omitempty"` // reattach token from a previous session
}

// CreateMsg is sent when a player wants to create a match
type CreateMsg struct {
	Name      string `json:"name"`
	MatchName string `json:"mname"`
	AITier    int    `json:"tier"` // -1 for human opponent
	Seed      uint64 `json:"seed,omitempty"`
}

// ActorState is broadcast per actor each tick
type ActorState struct {
	Slot    int     `msgpack:"s" json:"s"`
	X       float64 `msgpack:"x" json:"x"`
	Y       float64 `msgpack:"y" json:"y"`
	VX      float64 `msgpack:"vx" json:"vx"`
	VY      float64 `msgpack:"vy" json:"vy"`
	Stocks  int     `msgpack:"st" json:"st"`
	Alive   bool    `msgpack:"a" json:"a"`
	Dashing bool    `msgpack:"d" json:"d"`
	Charges int     `msgpack:"c" json:"c"`
	Effects []int   `msgpack:"e,omitempty" json:"e,omitempty"` // active effect kinds
}

// PowerUpState is broadcast per occupied power-up slot
type PowerUpState struct {
	Slot      int     `msgpack:"s" json:"s"`
	Kind      int     `msgpack:"k" json:"k"`
	X         float64 `msgpack:"x" json:"x"`
	Y         float64 `msgpack:"y" json:"y"`
	Live      bool    `msgpack:"l" json:"l"` // false while telegraphing
	Remaining float64 `msgpack:"r" json:"r"`
}

// EventState is the wire form of a simulation event
type EventState struct {
	Type    string  `msgpack:"t" json:"t"`
	Tick    uint64  `msgpack:"tk" json:"tk"`
	Actor   int     `msgpack:"a" json:"a"`
	Other   int     `msgpack:"o,omitempty" json:"o,omitempty"`
	Impulse float64 `msgpack:"i,omitempty" json:"i,omitempty"`
	Stocks  int     `msgpack:"st,omitempty" json:"st,omitempty"`
	Kind    int     `msgpack:"k,omitempty" json:"k,omitempty"`
	Slot    int     `msgpack:"sl,omitempty" json:"sl,omitempty"`
	Winner  int     `msgpack:"w,omitempty" json:"w,omitempty"`
}

// GameState is the full state broadcast. It goes out as msgpack on the
// binary websocket frame; the json tags exist for debug endpoints.
type GameState struct {
	Tick      uint64         `msgpack:"tick" json:"tick"`
	Phase     string         `msgpack:"ph" json:"ph"`
	PhaseTime float64        `msgpack:"pt" json:"pt"`
	Radius    float64        `msgpack:"rad" json:"rad"`
	Round     int            `msgpack:"rd" json:"rd"`
	Wins      [2]int         `msgpack:"w" json:"w"`
	Actors    []ActorState   `msgpack:"ac" json:"ac"`
	PowerUps  []PowerUpState `msgpack:"pu" json:"pu"`
	Events    []EventState   `msgpack:"ev,omitempty" json:"ev,omitempty"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	Slot  int    `json:"slot"`
	Token string `json:"tok"` // jwt for reattaching after a disconnect
}

// RoundEndMsg is broadcast when a round is decided
type RoundEndMsg struct {
	Winner int    `json:"w"`
	Round  int    `json:"rd"`
	Wins   [2]int `json:"wins"`
}

// MatchEndMsg is broadcast when the match is decided
type MatchEndMsg struct {
	Winner int    `json:"w"`
	Wins   [2]int `json:"wins"`
}

// MatchInfo is used in the match list
type MatchInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Phase   string `json:"phase"`
	AITier  int    `json:"tier"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// ControlMsg is sent by a phone controller to attach to an actor slot
type ControlMsg struct {
	MID   string `json:"mid"`
	Token string `json:"tok"`
}

// CheckMsg is sent by a client to check if a match exists
type CheckMsg struct {
	MID string `json:"mid"`
}

// CheckedMsg is the response to a match check
type CheckedMsg struct {
	MID     string `json:"mid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

// ReadyMsg toggles the sender's ready flag in the lobby or result phase
type ReadyMsg struct {
	Ready bool `json:"r"`
}

func eventToState(ev Event) EventState {
	return EventState{
		Type:    string(ev.Type),
		Tick:    ev.Tick,
		Actor:   ev.Actor,
		Other:   ev.Other,
		Impulse: round1(ev.Impulse),
		Stocks:  ev.Stocks,
		Kind:    int(ev.Kind),
		Slot:    ev.Slot,
		Winner:  ev.Winner,
	}
}

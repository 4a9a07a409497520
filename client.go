package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 80
	maxNameLen        = 16
)

// Client represents a WebSocket connection
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	slot         int // actor slot in the joined session, -1 when unjoined
	sessionID    string
	remoteAddr   string
	isController bool
	msgCount     int
	msgResetAt   time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		slot:       -1,
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		// Binary input messages: 6 bytes [0x01, mx_hi, mx_lo, my_hi, my_lo, flags]
		if msgType == websocket.BinaryMessage && len(message) == 6 && message[0] == 0x01 {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgControl:
		c.handleControl(env.D)
	case MsgReady:
		c.handleReady(env.D)
	}
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgMatches, Data: sessions})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	mname := msg.MatchName
	if mname == "" {
		mname = "Sumo Ring"
	}
	if len(mname) > 30 {
		mname = mname[:30]
	}
	tier := msg.AITier
	if tier >= len(AITiers) {
		tier = len(AITiers) - 1
	}
	seed := msg.Seed
	if seed == 0 {
		seed = NewRNG(uint64(time.Now().UnixNano())).Uint64()
	}

	sess := c.hub.sessions.CreateSession(mname, DefaultMatchConfig(), seed, tier)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "too many active matches"}})
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"mid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := msg.Name
	if name == "" {
		name = GenerateGuestName()
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	// A reattach token resumes a reserved slot after a disconnect
	if msg.Token != "" {
		c.handleReattach(msg.Token)
		return
	}

	sess := c.hub.sessions.GetSession(msg.MatchID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "match not found"}})
		return
	}

	slot := sess.Game.ClaimSlot(name)
	if slot < 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "match full"}})
		return
	}
	c.slot = slot
	c.sessionID = sess.ID

	sess.Game.SetClient(slot, c)

	token, err := c.hub.auth.IssueSlotToken(sess.ID, slot)
	if err != nil {
		log.Printf("issue slot token: %v", err)
	}
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"mid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{Slot: slot, Token: token}})
}

func (c *Client) handleReattach(token string) {
	sid, slot, err := c.hub.auth.ValidateSlotToken(token)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "invalid token"}})
		return
	}
	sess := c.hub.sessions.GetSession(sid)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "match not found"}})
		return
	}

	c.slot = slot
	c.sessionID = sid
	sess.Game.SetClient(slot, c)
	c.hub.sessions.PlayerReattached(sid, slot)

	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"mid": sid}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{Slot: slot, Token: token}})
}

// handleBinaryInput decodes a compact 6-byte binary input message
func (c *Client) handleBinaryInput(msg []byte) {
	if c.sessionID == "" || c.slot < 0 {
		return
	}
	// Decode: [0x01, mx_hi, mx_lo, my_hi, my_lo, flags]
	// Movement axes are int16 thousandths of the unit disc.
	mx := float64(int16(uint16(msg[1])<<8|uint16(msg[2]))) / 1000
	my := float64(int16(uint16(msg[3])<<8|uint16(msg[4]))) / 1000
	flags := msg[5]

	input := ClientInput{
		MX:   mx,
		MY:   my,
		Dash: flags&0x01 != 0,
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.Game.HandleInput(c.slot, input)
}

func (c *Client) handleInput(data json.RawMessage) {
	if c.sessionID == "" || c.slot < 0 {
		return
	}
	var input ClientInput
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.Game.HandleInput(c.slot, input)
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.MID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{MID: msg.MID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		MID:     msg.MID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
	}})
}

func (c *Client) handleLeave() {
	if c.sessionID != "" && c.slot >= 0 {
		if c.isController {
			if sess := c.hub.sessions.GetSession(c.sessionID); sess != nil {
				sess.Game.DetachController(c.slot)
				sess.Game.NotifyController(c.slot, false)
			}
		} else {
			sess := c.hub.sessions.GetSession(c.sessionID)
			if sess != nil {
				sess.Game.ReleaseSlot(c.slot)
			}
			c.hub.sessions.cleanupIfEmpty(c.sessionID)
		}
		c.sessionID = ""
		c.slot = -1
		c.isController = false
	}
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sid, slot, err := c.hub.auth.ValidateSlotToken(msg.Token)
	if err != nil || sid != msg.MID {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "invalid token"}})
		return
	}
	sess := c.hub.sessions.GetSession(sid)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "match not found"}})
		return
	}

	c.sessionID = sid
	c.slot = slot
	c.isController = true

	sess.Game.SetController(slot, c)
	sess.Game.NotifyController(slot, true)
	c.SendJSON(Envelope{T: MsgControlOK, Data: map[string]int{"slot": slot}})
}

func (c *Client) handleReady(data json.RawMessage) {
	if c.sessionID == "" || c.slot < 0 {
		return
	}
	ready := true
	var msg ReadyMsg
	if len(data) > 0 && json.Unmarshal(data, &msg) == nil {
		ready = msg.Ready
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.Game.SetReady(c.slot, ready)
}

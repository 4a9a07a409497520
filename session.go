package main

import (
	"log"
	"sync"
	"time"
)

const (
	maxSessions    = 100
	reconnectGrace = 10 * time.Second
)

// Session represents one hosted match that players can join
type Session struct {
	ID   string
	Name string
	Game *Game

	mu       sync.Mutex
	forfeits [2]*time.Timer
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	db        *DB
	analytics *Analytics
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(db *DB, analytics *Analytics) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		db:        db,
		analytics: analytics,
	}
}

// CreateSession hosts a new match. aiTier >= 0 fills the second slot
// with a scripted opponent. Returns nil if the session limit is hit.
func (sm *SessionManager) CreateSession(name string, cfg MatchConfig, seed uint64, aiTier int) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := GenerateUUID()
	if aiTier >= 0 {
		cfg.AITier = aiTier
	}
	game := NewGame(cfg, seed)
	sess := &Session{
		ID:   id,
		Name: name,
		Game: game,
	}
	game.SetHooks(
		func(tick uint64, events []Event) {
			if sm.analytics != nil {
				sm.analytics.TrackSimEvents(id, events)
			}
		},
		func(winner int, replay *ReplayLog) {
			sm.persistResult(sess, winner, replay)
		},
	)
	if aiTier >= 0 {
		game.AttachAI()
	}

	sm.sessions[id] = sess
	if sm.analytics != nil {
		sm.analytics.Track(EvtSessionStart, id, -1, 0, "")
		sm.analytics.SetActiveSessions(len(sm.sessions))
	}
	go game.Run()
	return sess
}

// persistResult stores the finished match and its replay
func (sm *SessionManager) persistResult(sess *Session, winner int, replay *ReplayLog) {
	if sm.analytics != nil {
		sm.analytics.Track(EvtMatchEnd, sess.ID, winner, replay.EndTick, "")
	}
	if sm.db == nil {
		return
	}
	g := sess.Game
	g.mu.RLock()
	wins := g.match.Wins
	tier := -1
	if g.ai != nil {
		tier = g.cfg.AITier
	}
	duration := float64(replay.EndTick) * g.cfg.Dt()
	g.mu.RUnlock()

	matchID, err := sm.db.RecordMatch(sess.ID, sess.Name, tier, winner, wins[0], wins[1], replay.EndTick, duration)
	if err != nil {
		log.Printf("session %s: record match: %v", sess.ID, err)
		return
	}
	data, err := replay.Encode()
	if err != nil {
		log.Printf("session %s: encode replay: %v", sess.ID, err)
		return
	}
	if err := sm.db.SaveReplay(matchID, replay.Version, data); err != nil {
		log.Printf("session %s: save replay: %v", sess.ID, err)
	}
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// PlayerDisconnected detaches a slot's transport and starts the
// reconnect grace timer. If the token holder does not reattach in
// time, the slot forfeits.
func (sm *SessionManager) PlayerDisconnected(sessionID string, slot int) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}

	phase := sess.Game.Phase()
	if phase == PhaseCountdown || phase == PhasePlaying {
		sess.Game.DetachClient(slot)
		sess.mu.Lock()
		if sess.forfeits[slot] == nil {
			sess.forfeits[slot] = time.AfterFunc(reconnectGrace, func() {
				sess.Game.Forfeit(slot)
				sm.cleanupIfEmpty(sessionID)
			})
		}
		sess.mu.Unlock()
		return
	}

	sess.Game.ReleaseSlot(slot)
	sm.cleanupIfEmpty(sessionID)
}

// PlayerReattached cancels a pending forfeit after a token reattach
func (sm *SessionManager) PlayerReattached(sessionID string, slot int) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.mu.Lock()
	if t := sess.forfeits[slot]; t != nil {
		t.Stop()
		sess.forfeits[slot] = nil
	}
	sess.mu.Unlock()
}

// cleanupIfEmpty stops and removes a session with no humans left
func (sm *SessionManager) cleanupIfEmpty(sessionID string) {
	sess := sm.GetSession(sessionID)
	if sess == nil || sess.Game.PlayerCount() > 0 {
		return
	}
	sess.Game.Stop()
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	n := len(sm.sessions)
	sm.mu.Unlock()
	if sm.analytics != nil {
		sm.analytics.Track(EvtSessionEnd, sessionID, -1, 0, "")
		sm.analytics.SetActiveSessions(n)
	}
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []MatchInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]MatchInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, MatchInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
			Phase:   sess.Game.Phase().String(),
			AITier:  sess.Game.AITierIndex(),
		})
	}
	return list
}

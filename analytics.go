package main

import (
	"database/sql"
	"log"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtMatchEnd     = "match_end"
	EvtRoundEnd     = "round_end"
	EvtDash         = "dash"
	EvtCollision    = "collision"
	EvtElimination  = "elimination"
	EvtPowerUpClaim = "powerup_claim"
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	SessionID string
	Actor     int // actor slot, -1 when not actor-specific
	Tick      uint64
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	// Live metrics (mutex-protected, read from the HTTP stats handler)
	mu              sync.RWMutex
	concurrentPeers int
	activeSessions  int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, 1024),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, sessionID string, actor int, tick uint64, data string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		SessionID: sessionID,
		Actor:     actor,
		Tick:      tick,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full — drop event rather than blocking game loop
	}
}

// TrackSimEvents maps a tick's simulation events onto analytics rows
func (a *Analytics) TrackSimEvents(sessionID string, events []Event) {
	for _, ev := range events {
		switch ev.Type {
		case EvDashStarted:
			a.Track(EvtDash, sessionID, ev.Actor, ev.Tick, "")
		case EvCollision:
			a.Track(EvtCollision, sessionID, ev.Actor, ev.Tick, "")
		case EvEliminated:
			a.Track(EvtElimination, sessionID, ev.Actor, ev.Tick, "")
		case EvPowerUpClaimed:
			a.Track(EvtPowerUpClaim, sessionID, ev.Actor, ev.Tick, `{"kind":"`+ev.Kind.String()+`"}`)
		case EvRoundEnded:
			a.Track(EvtRoundEnd, sessionID, ev.Winner, ev.Tick, "")
		}
	}
}

// SetConcurrentPeers updates the live player count metric
func (a *Analytics) SetConcurrentPeers(n int) {
	a.mu.Lock()
	a.concurrentPeers = n
	a.mu.Unlock()
}

// SetActiveSessions updates the live session count metric
func (a *Analytics) SetActiveSessions(n int) {
	a.mu.Lock()
	a.activeSessions = n
	a.mu.Unlock()
}

// GetLiveMetrics returns current live metrics
func (a *Analytics) GetLiveMetrics() (int, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.concurrentPeers, a.activeSessions
}

// Stop gracefully shuts down the analytics writer
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			// Flush immediately if batch is large
			if len(batch) >= 50 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// Drain remaining events
			close(a.events)
			for evt := range a.events {
				batch = append(batch, evt)
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, session_id, actor, tick, data, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		actor := sql.NullInt64{Int64: int64(evt.Actor), Valid: evt.Actor >= 0}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		_, err := stmt.Exec(evt.Type, sid, actor, evt.Tick, data, evt.Timestamp.Format(time.RFC3339))
		if err != nil {
			log.Printf("analytics: insert error: %v", err)
		}
	}
	tx.Commit()
}

// --- Query methods for the API ---

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// MatchStats returns match count and average duration for the last N days
func (a *Analytics) MatchStats(days int) (MatchAnalytics, error) {
	var m MatchAnalytics
	if a.db == nil {
		return m, nil
	}
	var avgDur sql.NullFloat64
	err := a.db.conn.QueryRow(`
		SELECT COUNT(*), AVG(duration) FROM matches
		WHERE created_at >= date('now', '-' || ? || ' days')
	`, days).Scan(&m.Count, &avgDur)
	m.AvgDuration = avgDur.Float64
	return m, err
}

// DailyMatchHistory returns matches finished per day for the last N days
func (a *Analytics) DailyMatchHistory(days int) ([]DayCount, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT date(created_at) as day, COUNT(*)
		FROM matches
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY day ORDER BY day
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			continue
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}

// MatchAnalytics holds aggregated match statistics
type MatchAnalytics struct {
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avg_duration"`
}

// DayCount holds a count for a specific day
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

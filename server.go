package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var uuidPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		// SPA: serve index.html for root and match ID paths
		if r.URL.Path == "/" || uuidPathRe.MatchString(r.URL.Path) {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// Join QR code: scanning it opens the match join URL on a phone
	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		mid := r.URL.Query().Get("mid")
		if mid == "" || hub.sessions.GetSession(mid) == nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		joinURL := scheme + "://" + r.Host + "/" + mid
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// Replay download: raw msgpack log by match row ID
	mux.HandleFunc("/replay", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.Error(w, "no storage", http.StatusNotFound)
			return
		}
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		data, err := hub.db.GetReplay(id)
		if err != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		if data == nil {
			http.Error(w, "replay not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.Write(data)
	})

	// Replay verification: re-simulate a stored log and report the outcome
	mux.HandleFunc("/replay/verify", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.Error(w, "no storage", http.StatusNotFound)
			return
		}
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		data, err := hub.db.GetReplay(id)
		if err != nil || data == nil {
			http.Error(w, "replay not found", http.StatusNotFound)
			return
		}
		replay, err := DecodeReplay(data)
		if err != nil {
			writeJSON(w, map[string]interface{}{"ok": false, "error": err.Error()})
			return
		}
		endTick, winner, err := PlayReplay(replay)
		resp := map[string]interface{}{
			"ok":      err == nil,
			"endTick": endTick,
			"winner":  winner,
		}
		if err != nil {
			resp["error"] = err.Error()
		}
		writeJSON(w, resp)
	})

	// Recent match history
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			writeJSON(w, []MatchRow{})
			return
		}
		matches, err := hub.db.RecentMatches(20)
		if err != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, matches)
	})

	// Live and historical metrics
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		peers, sessions := 0, 0
		var counts map[string]int
		var daily []DayCount
		var matches MatchAnalytics
		if hub.analytics != nil {
			peers, sessions = hub.analytics.GetLiveMetrics()
			counts, _ = hub.analytics.EventCounts(7)
			daily, _ = hub.analytics.DailyMatchHistory(7)
			matches, _ = hub.analytics.MatchStats(7)
		}
		writeJSON(w, map[string]interface{}{
			"peers":        peers,
			"sessions":     sessions,
			"event_counts": counts,
			"daily":        daily,
			"matches":      matches,
		})
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

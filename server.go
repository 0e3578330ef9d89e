package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameHostOrigin,
}

// sameHostOrigin accepts requests without an Origin header (native clients)
// and browser requests originating from the host being served.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// clientIP strips the port from RemoteAddr
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// queryInt reads an integer query parameter, falling back to def when the
// value is missing or outside (0, max]
func queryInt(r *http.Request, key string, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err == nil && n > 0 && n <= max {
		return n
	}
	return def
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", spaHandler(clientDir))
	mux.HandleFunc("/ws", wsHandler(hub))
	mux.HandleFunc("/qr/", qrHandler(hub))

	// Read-only JSON API
	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.Error(w, "no database", http.StatusServiceUnavailable)
			return
		}
		limit := queryInt(r, "limit", 20, 100)
		entries, err := hub.db.GetLeaderboard(r.URL.Query().Get("by"), limit)
		if err != nil {
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, entries)
	})

	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		if hub.analytics == nil {
			http.Error(w, "no analytics", http.StatusServiceUnavailable)
			return
		}
		peers, sessions := hub.analytics.GetLiveMetrics()
		dau, _ := hub.analytics.DAUCount()
		wau, _ := hub.analytics.WAUCount()
		mau, _ := hub.analytics.MAUCount()
		events, _ := hub.analytics.EventCounts(7)
		history, _ := hub.analytics.DailyActiveHistory(14)
		writeJSON(w, map[string]interface{}{
			"peers":       peers,
			"sessions":    sessions,
			"dau":         dau,
			"wau":         wau,
			"mau":         mau,
			"events":      events,
			"dau_history": history,
		})
	})

	mux.HandleFunc("/api/matches", func(w http.ResponseWriter, r *http.Request) {
		if hub.analytics == nil {
			http.Error(w, "no analytics", http.StatusServiceUnavailable)
			return
		}
		stats, err := hub.analytics.MatchStats(queryInt(r, "days", 7, 90))
		if err != nil {
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, stats)
	})

	mux.HandleFunc("/api/waves", func(w http.ResponseWriter, r *http.Request) {
		if hub.analytics == nil {
			http.Error(w, "no analytics", http.StatusServiceUnavailable)
			return
		}
		funnel, err := hub.analytics.WaveFunnel(30)
		if err != nil {
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, funnel)
	})

	mux.HandleFunc("/api/upgrades", func(w http.ResponseWriter, r *http.Request) {
		if hub.analytics == nil {
			http.Error(w, "no analytics", http.StatusServiceUnavailable)
			return
		}
		picks, err := hub.analytics.PopularUpgrades(10)
		if err != nil {
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, picks)
	})

	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.Error(w, "no database", http.StatusServiceUnavailable)
			return
		}
		pid, err := strconv.ParseInt(r.URL.Query().Get("pid"), 10, 64)
		if err != nil || pid <= 0 {
			http.Error(w, "bad player id", http.StatusBadRequest)
			return
		}
		player, err := hub.db.GetPlayerByID(pid)
		if err != nil {
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		if player == nil {
			http.Error(w, "player not found", http.StatusNotFound)
			return
		}
		history, err := hub.db.GetMatchHistory(pid, 20)
		if err != nil {
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, history)
	})

	return mux
}

// spaHandler serves the client bundle. The root page and session share
// links all get index.html so the frontend router takes over; everything
// else falls through to the file server. No-cache keeps browsers
// revalidating after deploys.
func spaHandler(clientDir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(clientDir))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if r.URL.Path == "/" || sessionPathRe.MatchString(r.URL.Path) {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	}
}

// sessionPathRe matches share links of the form /<session uuid>
var sessionPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// wsHandler admits the connection against the per-IP and global caps before
// upgrading, then hands the socket to a client's pump pair
func wsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !hub.AdmitConn(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.ReleaseConn(ip)
			logrus.WithError(err).Warn("ws upgrade failed")
			return
		}

		client := NewClient(hub, conn, ip)
		hub.attach <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

// qrHandler renders a QR code for joining a session from a phone. Scanning
// it opens the session's SPA page.
func qrHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimPrefix(r.URL.Path, "/qr/")
		if hub.sessions.GetSession(sid) == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		png, err := qrcode.Encode(scheme+"://"+r.Host+"/"+sid, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("api response encode failed")
	}
}

package main

import (
	"sync"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub owns every live socket and the session table behind them. Clients
// attach from the HTTP upgrader and detach from their read pumps; everything
// else reaches a session through the manager.
type Hub struct {
	mu     sync.RWMutex
	peers  map[*Client]struct{}
	attach chan *Client
	detach chan *Client

	sessions *SessionManager
	gate     connGate

	db        *DB
	auth      *Auth
	analytics *Analytics

	// authenticated accounts currently connected, account id -> socket
	onlineMu sync.RWMutex
	online   map[int64]*Client
}

func NewHub(db *DB, analytics *Analytics, reg *arsenal.Registry) *Hub {
	return &Hub{
		peers:     make(map[*Client]struct{}),
		attach:    make(chan *Client, 64),
		detach:    make(chan *Client, 64),
		sessions:  NewSessionManager(reg, db, analytics),
		gate:      connGate{perIP: make(map[string]int)},
		db:        db,
		auth:      NewAuth(db),
		analytics: analytics,
		online:    make(map[int64]*Client),
	}
}

// Run serializes attach/detach bookkeeping. Detach also unwinds whatever the
// client was part of: session membership and the online table.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.attach:
			h.mu.Lock()
			h.peers[c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.detach:
			h.mu.Lock()
			_, known := h.peers[c]
			if known {
				delete(h.peers, c)
			}
			h.mu.Unlock()
			if !known {
				continue
			}
			close(c.send)
			if c.sessionID != "" {
				h.sessions.RemovePlayer(c.sessionID, c.playerID)
			}
			if c.authPlayerID != 0 {
				h.SetOffline(c.authPlayerID, c)
			}
		}
	}
}

// AdmitConn reserves a connection slot for ip. Check and count are a single
// step so a burst cannot slip past the cap between them.
func (h *Hub) AdmitConn(ip string) bool {
	n, ok := h.gate.admit(ip)
	if ok && h.analytics != nil {
		h.analytics.SetConcurrentPeers(n)
	}
	return ok
}

// ReleaseConn returns the slot taken by AdmitConn.
func (h *Hub) ReleaseConn(ip string) {
	n := h.gate.release(ip)
	if h.analytics != nil {
		h.analytics.SetConcurrentPeers(n)
	}
}

// SetOnline binds an authenticated account to this socket and returns the
// socket it displaced, if the account was already connected elsewhere.
func (h *Hub) SetOnline(playerID int64, c *Client) *Client {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	prev := h.online[playerID]
	if prev == c {
		return nil
	}
	h.online[playerID] = c
	return prev
}

// SetOffline clears the account's online entry, but only while it still
// points at this socket; a displaced connection must not knock out its
// successor.
func (h *Hub) SetOffline(playerID int64, c *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	if h.online[playerID] == c {
		delete(h.online, playerID)
	}
}

// ClientCount returns the number of attached sockets.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// connGate caps sockets per source IP and in total.
type connGate struct {
	mu    sync.Mutex
	perIP map[string]int
	total int
}

func (g *connGate) admit(ip string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.total >= maxTotalConns || g.perIP[ip] >= maxConnsPerIP {
		return g.total, false
	}
	g.perIP[ip]++
	g.total++
	return g.total, true
}

func (g *connGate) release(ip string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.perIP[ip] <= 1 {
		delete(g.perIP, ip)
	} else {
		g.perIP[ip]--
	}
	if g.total > 0 {
		g.total--
	}
	return g.total
}

package main

import (
	"sync"

	"github.com/google/uuid"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

const maxSessions = 100

// Session is one joinable arena: an id players share out of band (link or
// QR code), a display name, and the loop that owns its world.
type Session struct {
	ID   string
	Name string
	Mode GameMode
	Game *Game
}

// info builds this session's row in the lobby listing.
func (s *Session) info() SessionInfo {
	return SessionInfo{
		ID:      s.ID,
		Name:    s.Name,
		Players: s.Game.PlayerCount(),
		Mode:    int(s.Mode),
	}
}

// SessionManager creates, lists and reaps sessions. The dependencies every
// game needs (registry, db, analytics) are held here so all sessions get
// the same wiring.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	registry  *arsenal.Registry
	db        *DB
	analytics *Analytics
}

func NewSessionManager(reg *arsenal.Registry, db *DB, analytics *Analytics) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		registry:  reg,
		db:        db,
		analytics: analytics,
	}
}

// CreateSession starts a session running the given mode's rule and returns
// it, or nil when the session cap is hit.
func (sm *SessionManager) CreateSession(name string, mode GameMode) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := uuid.NewString()
	sess := &Session{
		ID:   id,
		Name: name,
		Mode: mode,
		Game: NewGame(id, DefaultConfig(mode), sm.registry, sm.db, sm.analytics),
	}
	sm.sessions[id] = sess
	go sess.Game.Run()

	if sm.analytics != nil {
		sm.analytics.SetActiveSessions(len(sm.sessions))
	}
	return sess
}

// GetSession returns a session by id, or nil.
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemovePlayer takes a player out of a session and reaps the session once
// the last player leaves.
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.Game.RemovePlayer(playerID)
	if sess.Game.PlayerCount() == 0 {
		sm.reap(sessionID, sess)
	}
}

func (sm *SessionManager) reap(id string, sess *Session) {
	sess.Game.Stop()
	sm.mu.Lock()
	delete(sm.sessions, id)
	n := len(sm.sessions)
	sm.mu.Unlock()
	if sm.analytics != nil {
		sm.analytics.SetActiveSessions(n)
	}
}

// ListSessions returns a snapshot for the lobby browser.
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, sess.info())
	}
	return list
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// StopAll stops every session's loop, for shutdown.
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		sess.Game.Stop()
		delete(sm.sessions, id)
	}
}

package main

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // movement updates dominate; 60Hz move + combat traffic
	maxNameLen        = 16
	maxSessionNameLen = 30
)

// Client is one WebSocket connection. The read pump owns all fields except
// send; the write pump drains send until the hub closes it on detach.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	sessionID  string
	remoteAddr string

	msgCount   int
	msgResetAt time.Time

	authPlayerID int64 // 0 until registered, logged in, or given a guest row
	authUsername string
}

func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		remoteAddr: remoteAddr,
		send:       make(chan []byte, sendBufSize),
	}
}

// ReadPump decodes and routes inbound frames until the peer goes away or
// floods past the message budget.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.ReleaseConn(c.remoteAddr)
		c.hub.detach <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Debug("ws read error")
			}
			return
		}
		if c.overBudget(time.Now()) {
			logrus.WithField("addr", c.remoteAddr).Warn("message flood, disconnecting")
			return
		}
		c.handleMessage(message)
	}
}

// overBudget counts inbound messages against a one-second window.
func (c *Client) overBudget(now time.Time) bool {
	if now.After(c.msgResetAt) {
		c.msgCount = 0
		c.msgResetAt = now.Add(time.Second)
	}
	c.msgCount++
	return c.msgCount > maxMessagesPerSec
}

// WritePump flushes queued frames and keeps the connection alive with pings.
// Frames starting with the 0xFF marker go out as binary, the rest as text.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			var err error
			if len(frame) > 0 && frame[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, frame[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, frame)
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

// SendJSON queues a message as a text frame.
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).Error("marshal error")
		return
	}
	c.enqueue(data)
}

// sendError reports a failure the client UI should surface
func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// SendBinary queues pre-marshaled bytes as a binary frame, marked with a
// leading 0xFF so WritePump can tell it from text.
func (c *Client) SendBinary(data []byte) {
	frame := make([]byte, len(data)+1)
	frame[0] = 0xFF
	copy(frame[1:], data)
	c.enqueue(frame)
}

// enqueue drops the frame when the buffer is full (slow consumer) and
// swallows the panic from a send channel the hub already closed.
func (c *Client) enqueue(frame []byte) {
	defer func() { recover() }()
	select {
	case c.send <- frame:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logrus.WithError(err).Debug("unmarshal error")
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgMove:
		c.handleMove(env.D)
	case MsgFire:
		c.handleFire(env.D)
	case MsgRequestHit:
		c.handleRequestHit(env.D)
	case MsgReload:
		c.handleReload(env.D)
	case MsgUpgradePick:
		c.handleUpgradePick(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	case MsgLeaderboard:
		c.handleLeaderboard(env.D)
	}
}

// session returns the client's joined session, or nil while in the lobby.
func (c *Client) session() *Session {
	if c.sessionID == "" || c.playerID == "" {
		return nil
	}
	return c.hub.sessions.GetSession(c.sessionID)
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := msg.SessionName
	if sname == "" {
		sname = "Arena"
	}
	if len(sname) > maxSessionNameLen {
		sname = sname[:maxSessionNameLen]
	}

	mode := GameMode(msg.Mode)
	if mode < ModeDeathmatch || mode > ModeWave {
		mode = ModeDeathmatch
	}
	sess := c.hub.sessions.CreateSession(sname, mode)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}

	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := msg.Name
	if name == "" {
		if c.authUsername != "" {
			name = c.authUsername
		} else {
			name = GenerateGuestName()
		}
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}

	// Guests get a throwaway account so their stats still persist. A
	// name collision just means no persistence for this visit.
	if c.authPlayerID == 0 && c.hub.db != nil {
		if id, err := c.hub.db.CreateGuest(name); err == nil {
			c.authPlayerID = id
			c.authUsername = name
		}
	}

	player := sess.Game.AddPlayer(name, c.authPlayerID)
	if player == nil {
		c.sendError("session full")
		return
	}
	c.playerID = player.ID
	c.sessionID = sess.ID

	sess.Game.SetClient(player.ID, c)

	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		ID:     player.ID,
		Weapon: player.CurWeapon,
		Pos:    player.Pos,
		Mode:   sess.Mode.String(),
	}})
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	reply := CheckedMsg{SID: msg.SID}
	if sess := c.hub.sessions.GetSession(msg.SID); sess != nil {
		reply.Exists = true
		reply.Name = sess.Name
		reply.Players = sess.Game.PlayerCount()
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: reply})
}

func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	c.hub.sessions.RemovePlayer(c.sessionID, c.playerID)
	c.sessionID = ""
	c.playerID = ""
}

func (c *Client) handleMove(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess.Game.HandleMove(c.playerID, msg)
}

func (c *Client) handleFire(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg FireMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess.Game.HandleFire(c.playerID, msg)
}

func (c *Client) handleRequestHit(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var claim HitClaimMsg
	if err := json.Unmarshal(data, &claim); err != nil {
		return
	}
	sess.Game.HandleHitClaim(c.playerID, claim)
}

func (c *Client) handleReload(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg ReloadMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess.Game.HandleReload(c.playerID, msg)
}

func (c *Client) handleUpgradePick(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg UpgradePickMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess.Game.HandleUpgradePick(c.playerID, msg)
}

func (c *Client) handleRegister(data json.RawMessage) {
	c.credentialFlow(data, func(username, password string) (int64, string, error) {
		return c.hub.auth.Register(username, password)
	})
}

func (c *Client) handleLogin(data json.RawMessage) {
	c.credentialFlow(data, func(username, password string) (int64, string, error) {
		return c.hub.auth.Login(username, password, c.remoteAddr)
	})
}

// credentialFlow decodes a username/password payload, runs one auth step,
// and binds the resulting identity to this socket. Failures go back as
// error messages so the login form can show them.
func (c *Client) credentialFlow(data json.RawMessage, step func(username, password string) (int64, string, error)) {
	if c.hub.auth == nil {
		return
	}
	var msg CredentialsMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := step(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.bindAccount(id, msg.Username, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	c.bindAccount(id, username, msg.Token)
}

// bindAccount attaches an authenticated identity to this socket. An account
// may only be connected once; the newer connection wins and the older one is
// told why before it is dropped.
func (c *Client) bindAccount(id int64, username, token string) {
	c.authPlayerID = id
	c.authUsername = username
	if prev := c.hub.SetOnline(id, c); prev != nil {
		prev.sendError("signed in from another connection")
		prev.conn.Close()
	}
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: username,
		PlayerID: id,
	}})
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		c.sendError("not authenticated")
		return
	}
	stats, err := c.hub.db.GetStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.sendError("profile not found")
		return
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:     c.authUsername,
		Level:        stats.Level,
		XP:           stats.XP,
		Kills:        stats.Kills,
		Deaths:       stats.Deaths,
		Headshots:    stats.Headshots,
		WavesCleared: stats.WavesCleared,
		Wins:         stats.Wins,
		Losses:       stats.Losses,
		Playtime:     int64(stats.Playtime),
	}})
}

// handleLeaderboard serves the in-game rankings panel. No auth needed;
// guests can browse. An absent payload means defaults.
func (c *Client) handleLeaderboard(data json.RawMessage) {
	if c.hub.db == nil {
		c.sendError("rankings unavailable")
		return
	}
	var msg LeaderboardMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	limit := msg.Limit
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	entries, err := c.hub.db.GetLeaderboard(msg.By, limit)
	if err != nil {
		c.sendError("rankings unavailable")
		return
	}
	c.SendJSON(Envelope{T: MsgLeaderboardData, Data: LeaderboardDataMsg{By: msg.By, Entries: entries}})
}

package main

import (
	"database/sql"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event types for analytics tracking
const (
	EvtMatchStart   = "match_start"
	EvtMatchEnd     = "match_end"
	EvtPlayerKill   = "player_kill"
	EvtPlayerDeath  = "player_death"
	EvtWaveClear    = "wave_clear"
	EvtUpgradePick  = "upgrade_pick"
	EvtAchievement  = "achievement"
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
)

const (
	analyticsQueueCap   = 1024
	analyticsBatchMax   = 50
	analyticsFlushEvery = 5 * time.Second
)

// AnalyticsEvent is one row bound for the analytics_events table.
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics collects gameplay events without touching the hot path: Track
// enqueues, a background pump batches rows into sqlite. Live gauges
// (peers, sessions) are kept in memory only.
type Analytics struct {
	db    *DB
	queue chan AnalyticsEvent
	stop  chan struct{}
	wg    sync.WaitGroup

	mu              sync.RWMutex
	concurrentPeers int
	activeSessions  int
}

// NewAnalytics creates and starts the analytics background pump
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:    db,
		queue: make(chan AnalyticsEvent, analyticsQueueCap),
		stop:  make(chan struct{}),
	}
	a.wg.Add(1)
	go a.pump()
	return a
}

// Track enqueues an event for async persistence (never blocks)
func (a *Analytics) Track(evtType string, playerID int64, sessionID string, data string) {
	select {
	case a.queue <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full: drop the event rather than block the game loop
	}
}

// SetConcurrentPeers updates the live connection gauge
func (a *Analytics) SetConcurrentPeers(n int) {
	a.mu.Lock()
	a.concurrentPeers = n
	a.mu.Unlock()
}

// SetActiveSessions updates the live session gauge
func (a *Analytics) SetActiveSessions(n int) {
	a.mu.Lock()
	a.activeSessions = n
	a.mu.Unlock()
}

// GetLiveMetrics returns the current gauges: peers, sessions
func (a *Analytics) GetLiveMetrics() (int, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.concurrentPeers, a.activeSessions
}

// Stop flushes whatever is queued and shuts the pump down. Track stays safe
// to call afterwards; late events are simply never written.
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

func (a *Analytics) pump() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, analyticsBatchMax)
	ticker := time.NewTicker(analyticsFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.queue:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchMax {
				a.writeBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.writeBatch(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case evt := <-a.queue:
					batch = append(batch, evt)
				default:
					a.writeBatch(batch)
					return
				}
			}
		}
	}
}

func (a *Analytics) writeBatch(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		logrus.WithError(err).Warn("analytics: begin tx failed")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		logrus.WithError(err).Warn("analytics: prepare failed")
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			logrus.WithError(err).Warn("analytics: insert failed")
		}
	}
	tx.Commit()
}

// --- Aggregation queries for the API ---

// MatchAnalytics holds aggregated match statistics
type MatchAnalytics struct {
	Mode        string  `json:"mode"`
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avg_duration"`
}

// UpgradeAnalytics holds pick count per upgrade
type UpgradeAnalytics struct {
	UpgradeID string `json:"upgrade_id"`
	Count     int    `json:"count"`
}

// WaveAnalytics holds clear count per wave number
type WaveAnalytics struct {
	Wave  int `json:"wave"`
	Count int `json:"count"`
}

// DayCount holds a count for a specific day
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// withinDays bounds a query to the last N days. It takes the day count as
// a bind parameter; zero means since midnight UTC.
const withinDays = `created_at >= date('now', '-' || ? || ' days')`

// activePlayers counts distinct players seen in the last N days
func (a *Analytics) activePlayers(days int) (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var n int
	err := a.db.conn.QueryRow(
		`SELECT COUNT(DISTINCT player_id) FROM analytics_events
		 WHERE player_id IS NOT NULL AND `+withinDays,
		days).Scan(&n)
	return n, err
}

func (a *Analytics) DAUCount() (int, error) { return a.activePlayers(0) }
func (a *Analytics) WAUCount() (int, error) { return a.activePlayers(7) }
func (a *Analytics) MAUCount() (int, error) { return a.activePlayers(30) }

// MatchStats returns match counts grouped by mode for the last N days.
// Duration comes out of the event payload, so rows with broken JSON only
// lose the average, not the count.
func (a *Analytics) MatchStats(days int) ([]MatchAnalytics, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(
		`SELECT COALESCE(json_extract(data, '$.mode'), 'unknown') AS mode,
			COUNT(*) AS cnt,
			AVG(CAST(CASE WHEN json_valid(data) THEN json_extract(data, '$.duration') END AS REAL)) AS avg_dur
		 FROM analytics_events
		 WHERE event_type = ? AND `+withinDays+`
		 GROUP BY mode ORDER BY cnt DESC`,
		EvtMatchEnd, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []MatchAnalytics
	for rows.Next() {
		var m MatchAnalytics
		var avgDur sql.NullFloat64
		if err := rows.Scan(&m.Mode, &m.Count, &avgDur); err != nil {
			continue
		}
		m.AvgDuration = avgDur.Float64
		stats = append(stats, m)
	}
	return stats, rows.Err()
}

// EventCounts returns how often each event type fired in the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(
		`SELECT event_type, COUNT(*) FROM analytics_events
		 WHERE `+withinDays+`
		 GROUP BY event_type ORDER BY COUNT(*) DESC`,
		days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			continue
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// PopularUpgrades returns the most picked wave-mode upgrades
func (a *Analytics) PopularUpgrades(limit int) ([]UpgradeAnalytics, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(
		`SELECT COALESCE(json_extract(data, '$.upgrade'), 'unknown') AS upg, COUNT(*) AS cnt
		 FROM analytics_events
		 WHERE event_type = ? AND json_valid(data)
		 GROUP BY upg ORDER BY cnt DESC LIMIT ?`,
		EvtUpgradePick, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var picks []UpgradeAnalytics
	for rows.Next() {
		var ua UpgradeAnalytics
		if err := rows.Scan(&ua.UpgradeID, &ua.Count); err != nil {
			continue
		}
		picks = append(picks, ua)
	}
	return picks, rows.Err()
}

// WaveFunnel returns how many sessions cleared each wave, for tuning the
// difficulty curve.
func (a *Analytics) WaveFunnel(days int) ([]WaveAnalytics, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(
		`SELECT CAST(json_extract(data, '$.wave') AS INTEGER) AS wave, COUNT(*) AS cnt
		 FROM analytics_events
		 WHERE event_type = ? AND json_valid(data) AND `+withinDays+`
		 GROUP BY wave ORDER BY wave`,
		EvtWaveClear, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var funnel []WaveAnalytics
	for rows.Next() {
		var wa WaveAnalytics
		if err := rows.Scan(&wa.Wave, &wa.Count); err != nil {
			continue
		}
		funnel = append(funnel, wa)
	}
	return funnel, rows.Err()
}

// DailyActiveHistory returns per-day distinct player counts for the last N
// days, oldest first.
func (a *Analytics) DailyActiveHistory(days int) ([]DayCount, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(
		`SELECT date(created_at) AS day, COUNT(DISTINCT player_id)
		 FROM analytics_events
		 WHERE player_id IS NOT NULL AND `+withinDays+`
		 GROUP BY day ORDER BY day`,
		days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			continue
		}
		history = append(history, dc)
	}
	return history, rows.Err()
}

package main

import "time"

// HistoryWindow bounds how far back hit claims can rewind.
const HistoryWindow = time.Second

// PositionSnapshot records where every positional entity stood at one
// network tick.
type PositionSnapshot struct {
	At  time.Time
	Pos map[string]Vec3
}

// History is the rolling snapshot buffer behind lag compensation. Oldest
// entries sit at the front; every Record prunes what fell out of the window.
type History struct {
	window time.Duration
	snaps  []PositionSnapshot
}

func NewHistory(window time.Duration) *History {
	if window <= 0 {
		window = HistoryWindow
	}
	return &History{window: window}
}

// Record appends one snapshot and drops everything older than the window.
func (h *History) Record(at time.Time, pos map[string]Vec3) {
	h.snaps = append(h.snaps, PositionSnapshot{At: at, Pos: pos})

	cutoff := at.Add(-h.window)
	drop := 0
	for drop < len(h.snaps) && h.snaps[drop].At.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		h.snaps = append(h.snaps[:0], h.snaps[drop:]...)
	}
}

func (h *History) Len() int { return len(h.snaps) }

// PositionAt rewinds an entity to the given instant by interpolating the
// two snapshots bracketing it. Instants newer than the newest snapshot use
// the newest verbatim; instants older than the window clamp to the oldest.
// Returns false when no snapshot mentions the entity at all.
func (h *History) PositionAt(id string, at time.Time) (Vec3, bool) {
	if len(h.snaps) == 0 {
		return Vec3{}, false
	}

	// Last snapshot at or before the instant; claims are near-now, so
	// walking backwards ends quickly.
	from := -1
	for i := len(h.snaps) - 1; i >= 0; i-- {
		if !h.snaps[i].At.After(at) {
			from = i
			break
		}
	}

	switch {
	case from == -1:
		// Older than everything retained
		p, ok := h.snaps[0].Pos[id]
		return p, ok
	case from == len(h.snaps)-1:
		// Newer than the newest recording
		p, ok := h.snaps[from].Pos[id]
		return p, ok
	}

	a, b := h.snaps[from], h.snaps[from+1]
	pa, okA := a.Pos[id]
	pb, okB := b.Pos[id]
	switch {
	case okA && okB:
		span := b.At.Sub(a.At).Seconds()
		if span <= 0 {
			return pb, true
		}
		alpha := Clamp(at.Sub(a.At).Seconds()/span, 0, 1)
		return Lerp(pa, pb, alpha), true
	case okA:
		// Entity despawned between the two ticks
		return pa, true
	case okB:
		// Entity appeared between the two ticks
		return pb, true
	}
	return Vec3{}, false
}

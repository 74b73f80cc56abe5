// Package daterange implements DateRangeManager and InterstitialManager of
// spec.md §4.9: an ordered, mutex-serialized table of EXT-X-DATERANGE
// entries, rendered to the manifest model on demand. Grounded on the
// teacher SDK's mutex-guarded-map-plus-order-slice convention (seen
// throughout pkg/room's participant tracking) rather than any one file, since
// spec.md §4.9 names no direct teacher ancestor.
package daterange

import (
	"sync"
	"time"

	"github.com/hlskit/hlskit/pkg/errors"
	"github.com/hlskit/hlskit/pkg/manifest"
)

// Entry is one tracked date range, open or closed.
type Entry struct {
	ID               string
	Class            string
	StartDate        time.Time
	EndDate          *time.Time
	Duration         *float64
	PlannedDuration  *float64
	SCTE35Cmd        string
	SCTE35Out        string
	SCTE35In         string
	EndOnNext        bool
	CustomAttributes map[string]string
	Completed        bool
}

// Manager tracks DateRange entries in insertion order, per spec.md §4.9.
// IDs are unique; insertion order is preserved across the entry's lifetime
// even after Close.
type Manager struct {
	mu      sync.Mutex
	entries []Entry
	index   map[string]int
}

// NewManager creates an empty DateRangeManager.
func NewManager() *Manager {
	return &Manager{index: make(map[string]int)}
}

// Open creates a new range. id must not already be known.
func (m *Manager) Open(id string, startDate time.Time, class string, plannedDuration *float64, customAttrs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.index[id]; exists {
		return errors.Newf(errors.ErrCodeDuplicateDateRangeID, "date range %q already exists", id)
	}
	m.index[id] = len(m.entries)
	m.entries = append(m.entries, Entry{
		ID:               id,
		Class:            class,
		StartDate:        startDate,
		PlannedDuration:  plannedDuration,
		CustomAttributes: customAttrs,
	})
	return nil
}

// Close fixes DURATION on an open range from its start date to endDate.
func (m *Manager) Close(id string, endDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.index[id]
	if !ok {
		return errors.Newf(errors.ErrCodeDateRangeNotFound, "date range %q not found", id)
	}
	e := &m.entries[idx]
	end := endDate
	e.EndDate = &end
	d := endDate.Sub(e.StartDate).Seconds()
	e.Duration = &d
	e.Completed = true
	return nil
}

// Remove deletes a range entirely, regardless of completion state.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.index[id]
	if !ok {
		return errors.Newf(errors.ErrCodeDateRangeNotFound, "date range %q not found", id)
	}
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)
	delete(m.index, id)
	for i := idx; i < len(m.entries); i++ {
		m.index[m.entries[i].ID] = i
	}
	return nil
}

// SetSCTE35 attaches SCTE-35 cue carriage to an existing range, per spec.md
// §4.9: the cue payload is carried opaquely (no parsing).
func (m *Manager) SetSCTE35(id string, cmd, out, in string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.index[id]
	if !ok {
		return errors.Newf(errors.ErrCodeDateRangeNotFound, "date range %q not found", id)
	}
	e := &m.entries[idx]
	e.SCTE35Cmd = cmd
	e.SCTE35Out = out
	e.SCTE35In = in
	return nil
}

// Ranges renders every tracked entry to the manifest model, in insertion
// order, for inclusion in a playlist.
func (m *Manager) Ranges() []manifest.DateRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]manifest.DateRange, 0, len(m.entries))
	for _, e := range m.entries {
		dr := manifest.DateRange{
			ID:               e.ID,
			Class:            e.Class,
			StartDate:        e.StartDate.UTC().Format(time.RFC3339Nano),
			Duration:         e.Duration,
			PlannedDuration:  e.PlannedDuration,
			SCTE35Cmd:        e.SCTE35Cmd,
			SCTE35Out:        e.SCTE35Out,
			SCTE35In:         e.SCTE35In,
			EndOnNext:        e.EndOnNext,
			CustomAttributes: e.CustomAttributes,
		}
		if e.EndDate != nil {
			dr.EndDate = e.EndDate.UTC().Format(time.RFC3339Nano)
		}
		out = append(out, dr)
	}
	return out
}

// CompletedIDs returns the ids of every closed range, in insertion order —
// by construction this is always a subset of the known ids, per spec.md
// §4.9's invariant.
func (m *Manager) CompletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		if e.Completed {
			out = append(out, e.ID)
		}
	}
	return out
}

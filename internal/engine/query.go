package engine

import "sort"
import "time"

// Read-only projections over the store.  These take only brief read
// scopes: the stand/cycle maps are immutable after seeding, and per-entry
// state reads lock a single cycle for the duration of a field copy.

// AvailableCycle is one reservable cycle at a stand.
type AvailableCycle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListAvailable returns the cycles currently AVAILABLE at a stand,
// ordered by cycle ID so repeated queries are stable.
func (s *Store) ListAvailable(standID string) ([]AvailableCycle, error) {
	s.mu.RLock()
	st, ok := s.stands[standID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrStandNotFound
	}
	out := make([]AvailableCycle, 0, len(st.cycleIDs))
	for _, id := range st.cycleIDs {
		e, err := s.entry(id)
		if err != nil {
			continue
		}
		e.mu.Lock()
		if !e.state.held() {
			out = append(out, AvailableCycle{ID: e.id, Name: e.name})
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// HeldCycle describes a user's active reservation.
type HeldCycle struct {
	CycleID string
	StandID string
	Since   time.Time
}

// UserStatus reports whether the user currently holds a cycle.  The
// holder index and the entry are read separately, so a release racing
// this call yields a consistent "not holding" answer rather than a torn
// record.
func (s *Store) UserStatus(userID uint64) (HeldCycle, bool) {
	s.mu.RLock()
	cycleID, ok := s.holders[userID]
	s.mu.RUnlock()
	if !ok {
		return HeldCycle{}, false
	}
	e, err := s.entry(cycleID)
	if err != nil {
		return HeldCycle{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.holder != userID {
		return HeldCycle{}, false
	}
	return HeldCycle{CycleID: e.id, StandID: e.standID, Since: e.reservedAt}, true
}

// StandSummary is the per-stand availability projection.
type StandSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
}

// Stands returns a summary of every stand, ordered by stand ID.
func (s *Store) Stands() []StandSummary {
	s.mu.RLock()
	stands := make([]*standEntry, 0, len(s.stands))
	for _, st := range s.stands {
		stands = append(stands, st)
	}
	s.mu.RUnlock()

	out := make([]StandSummary, 0, len(stands))
	for _, st := range stands {
		sum := StandSummary{ID: st.id, Name: st.name, Total: len(st.cycleIDs)}
		for _, id := range st.cycleIDs {
			e, err := s.entry(id)
			if err != nil {
				continue
			}
			e.mu.Lock()
			if !e.state.held() {
				sum.Available++
			}
			e.mu.Unlock()
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CycleState returns the current lock state of a cycle.  Used by
// handlers for diagnostics and by tests to assert transitions.
func (s *Store) CycleState(cycleID string) (State, error) {
	e, err := s.entry(cycleID)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, nil
}

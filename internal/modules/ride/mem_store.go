// README: In-memory ride store with the same conditional-update semantics as PGStore.
package ride

import (
	"context"
	"sort"
	"sync"

	"cityride/internal/types"
)

// MemStore holds rides in a map behind one mutex. Each mutating method is
// a single critical section, matching the atomicity the SQL statements in
// PGStore provide. The test suite runs against it; nothing stops callers
// from using it as a throwaway backend.
type MemStore struct {
	mu     sync.Mutex
	rides  map[types.ID]*Ride
	events []Event
	nextEv int64
}

func NewMemStore() *MemStore {
	return &MemStore{rides: make(map[types.ID]*Ride)}
}

func (s *MemStore) CreateIfNoActive(_ context.Context, r *Ride) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rides {
		if existing.PassengerID == r.PassengerID && !existing.Status.Terminal() {
			return false, nil
		}
	}
	cp := *r
	s.rides[r.ID] = &cp
	return true, nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) UpdateStatus(_ context.Context, id types.ID, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (s *MemStore) AcceptWaiting(_ context.Context, id types.ID, driverID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok || r.Status != StatusWaiting {
		return false, nil
	}
	for _, other := range s.rides {
		if other.DriverID != nil && *other.DriverID == driverID &&
			(other.Status == StatusAccepted || other.Status == StatusPickedUp) {
			return false, nil
		}
	}
	d := driverID
	r.Status = StatusAccepted
	r.DriverID = &d
	return true, nil
}

func (s *MemStore) ActiveByPassenger(_ context.Context, passengerID types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		if r.PassengerID == passengerID && !r.Status.Terminal() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) ActiveByDriver(_ context.Context, driverID types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		if r.DriverID != nil && *r.DriverID == driverID &&
			(r.Status == StatusAccepted || r.Status == StatusPickedUp) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) OpenRides(_ context.Context) ([]*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Ride
	for _, r := range s.rides {
		if r.Status == StatusWaiting {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) History(_ context.Context, role HistoryRole, id types.ID, limit int) ([]*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Ride
	for _, r := range s.rides {
		if !r.Status.Terminal() {
			continue
		}
		switch role {
		case HistoryPassenger:
			if r.PassengerID != id {
				continue
			}
		case HistoryDriver:
			if r.DriverID == nil || *r.DriverID != id {
				continue
			}
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEv++
	cp := *e
	cp.ID = s.nextEv
	s.events = append(s.events, cp)
	return nil
}

// Events returns a snapshot of the audit trail, oldest first.
func (s *MemStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

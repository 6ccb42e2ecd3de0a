// README: In-memory account store used by the test suite.
package account

import (
	"context"
	"sort"
	"sync"

	"cityride/internal/types"
)

type MemStore struct {
	mu      sync.Mutex
	users   map[types.ID]*User
	drivers map[types.ID]*DriverProfile
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:   make(map[types.ID]*User),
		drivers: make(map[types.ID]*DriverProfile),
	}
}

func (s *MemStore) CreateUser(_ context.Context, u *User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Phone == u.Phone {
			return false, nil
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return true, nil
}

func (s *MemStore) GetUser(_ context.Context, id types.ID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) CreateDriverProfile(_ context.Context, p *DriverProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.drivers[p.UserID] = &cp
	return nil
}

func (s *MemStore) GetDriverProfile(_ context.Context, userID types.ID) (*DriverProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.drivers[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) SetVerification(_ context.Context, userID types.ID, status VerificationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.drivers[userID]
	if !ok {
		return false, nil
	}
	p.Verification = status
	return true, nil
}

func (s *MemStore) PendingDrivers(_ context.Context) ([]*DriverProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*DriverProfile
	for _, p := range s.drivers {
		if p.Verification == VerificationPending {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Package store provides in-memory and PostgreSQL persistence for
// investigator profiles and their unavailable dates.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"mandat/internal/investigator/models"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
)

// InMemory keeps investigator profiles in process memory.
type InMemory struct {
	mu            sync.RWMutex
	investigators map[id.InvestigatorID]*models.Investigator
	unavailable   map[id.InvestigatorID][]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		investigators: make(map[id.InvestigatorID]*models.Investigator),
		unavailable:   make(map[id.InvestigatorID][]time.Time),
	}
}

func (s *InMemory) Create(_ context.Context, inv *models.Investigator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.investigators[inv.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.investigators {
		if existing.UserID == inv.UserID {
			return sentinel.ErrConflict
		}
	}
	cp := *inv
	s.investigators[inv.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, investigatorID id.InvestigatorID) (*models.Investigator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.investigators[investigatorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *InMemory) FindByUserID(_ context.Context, userID id.UserID) (*models.Investigator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.investigators {
		if inv.UserID == userID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, inv *models.Investigator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.investigators[inv.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *inv
	s.investigators[inv.ID] = &cp
	return nil
}

func (s *InMemory) ListAvailableInRegion(_ context.Context, region string) ([]*models.Investigator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Investigator
	for _, inv := range s.investigators {
		if inv.Region == region && inv.Availability == models.AvailabilityAvailable {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *InMemory) UnavailableDates(_ context.Context, investigatorID id.InvestigatorID) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := s.unavailable[investigatorID]
	out := make([]time.Time, len(dates))
	copy(out, dates)
	return out, nil
}

func (s *InMemory) AddUnavailableDate(_ context.Context, investigatorID id.InvestigatorID, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.investigators[investigatorID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.unavailable[investigatorID] {
		if models.SameCalendarDay(existing, day) {
			return sentinel.ErrConflict
		}
	}
	s.unavailable[investigatorID] = append(s.unavailable[investigatorID], day)
	return nil
}

func (s *InMemory) RemoveUnavailableDate(_ context.Context, investigatorID id.InvestigatorID, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := s.unavailable[investigatorID]
	for i, existing := range dates {
		if models.SameCalendarDay(existing, day) {
			s.unavailable[investigatorID] = append(dates[:i], dates[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

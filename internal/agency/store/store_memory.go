// Package store provides in-memory and PostgreSQL persistence for agencies.
package store

import (
	"context"
	"sync"

	"mandat/internal/agency/models"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
)

// InMemory keeps agencies in process memory.
type InMemory struct {
	mu       sync.RWMutex
	agencies map[id.AgencyID]*models.Agency
}

func NewInMemory() *InMemory {
	return &InMemory{agencies: make(map[id.AgencyID]*models.Agency)}
}

func (s *InMemory) Create(_ context.Context, a *models.Agency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agencies[a.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.agencies {
		if existing.OwnerUserID == a.OwnerUserID {
			return sentinel.ErrConflict
		}
	}
	cp := *a
	s.agencies[a.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, agencyID id.AgencyID) (*models.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agencies[agencyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemory) FindByOwner(_ context.Context, ownerUserID id.UserID) (*models.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.agencies {
		if a.OwnerUserID == ownerUserID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, a *models.Agency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agencies[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *a
	s.agencies[a.ID] = &cp
	return nil
}

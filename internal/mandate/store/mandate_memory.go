// Package store provides in-memory and PostgreSQL persistence for mandates
// and candidatures.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"mandat/internal/mandate/models"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
)

// InMemoryMandates keeps mandates and ratings in process memory. Used in
// tests and when no database is configured.
type InMemoryMandates struct {
	mu       sync.RWMutex
	mandates map[id.MandateID]*models.Mandate
	ratings  map[id.MandateID]*models.Rating
}

func NewInMemoryMandates() *InMemoryMandates {
	return &InMemoryMandates{
		mandates: make(map[id.MandateID]*models.Mandate),
		ratings:  make(map[id.MandateID]*models.Rating),
	}
}

func (s *InMemoryMandates) Create(_ context.Context, m *models.Mandate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mandates[m.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *m
	s.mandates[m.ID] = &cp
	return nil
}

func (s *InMemoryMandates) FindByID(_ context.Context, mandateID id.MandateID) (*models.Mandate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mandates[mandateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *InMemoryMandates) Update(_ context.Context, m *models.Mandate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mandates[m.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *m
	s.mandates[m.ID] = &cp
	return nil
}

func (s *InMemoryMandates) ListByAgency(_ context.Context, agencyID id.AgencyID) ([]*models.Mandate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Mandate
	for _, m := range s.mandates {
		if m.AgencyID == agencyID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryMandates) ListOpenPublic(_ context.Context) ([]*models.Mandate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Mandate
	for _, m := range s.mandates {
		if m.Status == models.StatusOpen && m.AssignmentType == models.AssignmentPublic {
			cp := *m
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// AssignIfUnassigned checks and mutates under the write lock, so concurrent
// callers serialize and at most one wins.
func (s *InMemoryMandates) AssignIfUnassigned(_ context.Context, mandateID id.MandateID, investigatorID id.InvestigatorID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mandates[mandateID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if m.IsAssignedTo(investigatorID) {
		// Same holder, but only an in-progress mandate counts as assigned;
		// a terminal mandate is left untouched.
		return m.Status == models.StatusInProgress, nil
	}
	if m.HasAssignedInvestigator() || m.Status != models.StatusOpen {
		return false, nil
	}
	m.ApplyAssignment(investigatorID, now)
	return true, nil
}

func (s *InMemoryMandates) ClearAssignment(_ context.Context, mandateID id.MandateID, now time.Time) (id.InvestigatorID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mandates[mandateID]
	if !ok {
		return id.InvestigatorID{}, sentinel.ErrNotFound
	}
	if !m.HasAssignedInvestigator() {
		return id.InvestigatorID{}, sentinel.ErrInvalidState
	}
	previous := *m.AssignedTo
	m.ApplyUnassignment(now)
	return previous, nil
}

func (s *InMemoryMandates) CountInProgressByInvestigator(_ context.Context, investigatorID id.InvestigatorID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, m := range s.mandates {
		if m.Status == models.StatusInProgress && m.IsAssignedTo(investigatorID) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryMandates) CreateRating(_ context.Context, r *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ratings[r.MandateID]; ok {
		return sentinel.ErrConflict
	}
	cp := *r
	s.ratings[r.MandateID] = &cp
	return nil
}

func (s *InMemoryMandates) FindRating(_ context.Context, mandateID id.MandateID) (*models.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[mandateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func sortNewestFirst(mandates []*models.Mandate) {
	sort.Slice(mandates, func(i, j int) bool {
		return mandates[i].CreatedAt.After(mandates[j].CreatedAt)
	})
}

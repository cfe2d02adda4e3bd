package store

import (
	"context"
	"sort"
	"sync"

	"mandat/internal/mandate/models"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
)

// InMemoryCandidatures keeps candidatures in process memory.
type InMemoryCandidatures struct {
	mu           sync.RWMutex
	candidatures map[id.CandidatureID]*models.Candidature
}

func NewInMemoryCandidatures() *InMemoryCandidatures {
	return &InMemoryCandidatures{candidatures: make(map[id.CandidatureID]*models.Candidature)}
}

// Create enforces the one-candidature-per-(mandate, investigator) rule.
func (s *InMemoryCandidatures) Create(_ context.Context, c *models.Candidature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.candidatures {
		if existing.MandateID == c.MandateID && existing.InvestigatorID == c.InvestigatorID {
			return sentinel.ErrConflict
		}
	}
	cp := *c
	s.candidatures[c.ID] = &cp
	return nil
}

func (s *InMemoryCandidatures) FindByID(_ context.Context, candidatureID id.CandidatureID) (*models.Candidature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidatures[candidatureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryCandidatures) ListByMandate(_ context.Context, mandateID id.MandateID) ([]*models.Candidature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Candidature
	for _, c := range s.candidatures {
		if c.MandateID == mandateID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortOldestFirst(out)
	return out, nil
}

func (s *InMemoryCandidatures) ListByInvestigator(_ context.Context, investigatorID id.InvestigatorID) ([]*models.Candidature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Candidature
	for _, c := range s.candidatures {
		if c.InvestigatorID == investigatorID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortOldestFirst(out)
	return out, nil
}

func (s *InMemoryCandidatures) Update(_ context.Context, c *models.Candidature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidatures[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *c
	s.candidatures[c.ID] = &cp
	return nil
}

func sortOldestFirst(candidatures []*models.Candidature) {
	sort.Slice(candidatures, func(i, j int) bool {
		return candidatures[i].CreatedAt.Before(candidatures[j].CreatedAt)
	})
}

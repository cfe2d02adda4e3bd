package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mandat/internal/investigator/models"
	"mandat/internal/investigator/store"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/requestcontext"
)

// =============================================================================
// Investigator Service Test Suite
// =============================================================================
// The Redis cache path is exercised by integration tests; these suites run
// cacheless against the in-memory store.

type InvestigatorServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
}

func TestInvestigatorServiceSuite(t *testing.T) {
	suite.Run(t, new(InvestigatorServiceSuite))
}

func (s *InvestigatorServiceSuite) SetupTest() {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), now)
	s.service = NewService(store.NewInMemory())
}

func (s *InvestigatorServiceSuite) register(name string) *models.Investigator {
	inv, err := s.service.Register(s.ctx, id.NewUserID(), name, "Montreal", "Montreal")
	s.Require().NoError(err)
	return inv
}

func (s *InvestigatorServiceSuite) TestRegister() {
	s.Run("new profile starts available", func() {
		inv := s.register("Marie Tremblay")
		s.Equal(models.AvailabilityAvailable, inv.Availability)
	})

	s.Run("one profile per user", func() {
		inv := s.register("Marie Tremblay")
		_, err := s.service.Register(s.ctx, inv.UserID, "Other Name", "Quebec", "Capitale-Nationale")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("empty name is rejected", func() {
		_, err := s.service.Register(s.ctx, id.NewUserID(), "", "Montreal", "Montreal")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *InvestigatorServiceSuite) TestSetAvailability() {
	s.Run("updates the availability status", func() {
		inv := s.register("Marie Tremblay")
		updated, err := s.service.SetAvailability(s.ctx, inv.ID, models.AvailabilityBusy)
		s.NoError(err)
		s.Equal(models.AvailabilityBusy, updated.Availability)

		found, err := s.service.FindByID(s.ctx, inv.ID)
		s.Require().NoError(err)
		s.Equal(models.AvailabilityBusy, found.Availability)
	})

	s.Run("unknown status is rejected", func() {
		inv := s.register("Marie Tremblay")
		_, err := s.service.SetAvailability(s.ctx, inv.ID, models.AvailabilityStatus("vacation"))
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("missing investigator reports not found", func() {
		_, err := s.service.SetAvailability(s.ctx, id.NewInvestigatorID(), models.AvailabilityBusy)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *InvestigatorServiceSuite) TestUnavailableDates() {
	s.Run("add, list and remove a date", func() {
		inv := s.register("Marie Tremblay")
		day := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

		s.NoError(s.service.AddUnavailableDate(s.ctx, inv.ID, day))

		dates, err := s.service.UnavailableDates(s.ctx, inv.ID)
		s.Require().NoError(err)
		s.Require().Len(dates, 1)

		s.NoError(s.service.RemoveUnavailableDate(s.ctx, inv.ID, day))
		dates, err = s.service.UnavailableDates(s.ctx, inv.ID)
		s.Require().NoError(err)
		s.Empty(dates)
	})

	s.Run("same calendar day twice conflicts", func() {
		inv := s.register("Marie Tremblay")
		s.Require().NoError(s.service.AddUnavailableDate(s.ctx, inv.ID, time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)))

		err := s.service.AddUnavailableDate(s.ctx, inv.ID, time.Date(2026, 9, 15, 20, 0, 0, 0, time.UTC))
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("removing an unregistered date reports not found", func() {
		inv := s.register("Marie Tremblay")
		err := s.service.RemoveUnavailableDate(s.ctx, inv.ID, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *InvestigatorServiceSuite) TestListAvailableInRegion() {
	local := s.register("Marie Tremblay")
	busy := s.register("Jean Gagnon")
	_, err := s.service.SetAvailability(s.ctx, busy.ID, models.AvailabilityBusy)
	s.Require().NoError(err)
	_, err = s.service.Register(s.ctx, id.NewUserID(), "Luc Bouchard", "Gatineau", "Outaouais")
	s.Require().NoError(err)

	out, err := s.service.ListAvailableInRegion(s.ctx, "Montreal")
	s.Require().NoError(err)
	s.Require().Len(out, 1)
	s.Equal(local.ID, out[0].ID)
}

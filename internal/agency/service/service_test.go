package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mandat/internal/agency/models"
	"mandat/internal/agency/store"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/requestcontext"
)

// =============================================================================
// Agency Service Test Suite
// =============================================================================

type AgencyServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
}

func TestAgencyServiceSuite(t *testing.T) {
	suite.Run(t, new(AgencyServiceSuite))
}

func (s *AgencyServiceSuite) SetupTest() {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), now)
	s.service = NewService(store.NewInMemory())
}

func (s *AgencyServiceSuite) register() *models.Agency {
	agency, err := s.service.Register(s.ctx, id.NewUserID(), "Agence Quebec Investigations", "PI-12345", "Montreal", "Montreal")
	s.Require().NoError(err)
	return agency
}

func (s *AgencyServiceSuite) TestRegister() {
	s.Run("new agency starts with a pending license", func() {
		agency := s.register()
		s.Equal(models.LicensePending, agency.LicenseStatus)
		s.False(agency.CanPost())
	})

	s.Run("one agency per owner", func() {
		agency := s.register()
		_, err := s.service.Register(s.ctx, agency.OwnerUserID, "Another", "PI-00000", "Quebec", "Capitale-Nationale")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("empty license number is rejected", func() {
		_, err := s.service.Register(s.ctx, id.NewUserID(), "Agence", "", "Montreal", "Montreal")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *AgencyServiceSuite) TestReviewLicense() {
	s.Run("approval verifies the license and opens posting", func() {
		agency := s.register()
		reviewed, err := s.service.ReviewLicense(s.ctx, agency.ID, true)
		s.NoError(err)
		s.Equal(models.LicenseVerified, reviewed.LicenseStatus)

		canPost, err := s.service.CanPost(s.ctx, agency.ID)
		s.NoError(err)
		s.True(canPost)
	})

	s.Run("rejection keeps posting closed", func() {
		agency := s.register()
		reviewed, err := s.service.ReviewLicense(s.ctx, agency.ID, false)
		s.NoError(err)
		s.Equal(models.LicenseRejected, reviewed.LicenseStatus)

		canPost, err := s.service.CanPost(s.ctx, agency.ID)
		s.NoError(err)
		s.False(canPost)
	})

	s.Run("already reviewed license cannot be reviewed again", func() {
		agency := s.register()
		_, err := s.service.ReviewLicense(s.ctx, agency.ID, true)
		s.Require().NoError(err)

		_, err = s.service.ReviewLicense(s.ctx, agency.ID, false)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("missing agency reports not found", func() {
		_, err := s.service.ReviewLicense(s.ctx, id.NewAgencyID(), true)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AgencyServiceSuite) TestResubmitLicense() {
	s.Run("rejected license goes back to pending with the new number", func() {
		agency := s.register()
		_, err := s.service.ReviewLicense(s.ctx, agency.ID, false)
		s.Require().NoError(err)

		resubmitted, err := s.service.ResubmitLicense(s.ctx, agency.ID, "PI-67890")
		s.NoError(err)
		s.Equal(models.LicensePending, resubmitted.LicenseStatus)
		s.Equal("PI-67890", resubmitted.LicenseNumber)
	})

	s.Run("pending license cannot be resubmitted", func() {
		agency := s.register()
		_, err := s.service.ResubmitLicense(s.ctx, agency.ID, "PI-67890")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *AgencyServiceSuite) TestCanPost() {
	s.Run("missing agency cannot post", func() {
		canPost, err := s.service.CanPost(s.ctx, id.NewAgencyID())
		s.NoError(err)
		s.False(canPost)
	})
}

func (s *AgencyServiceSuite) TestAPICredential() {
	s.Run("issued secret verifies and wrong secret does not", func() {
		agency := s.register()
		secret, err := s.service.IssueAPICredential(s.ctx, agency.ID)
		s.Require().NoError(err)
		s.NotEmpty(secret)

		s.NoError(s.service.VerifyAPICredential(s.ctx, agency.ID, secret))
		s.Error(s.service.VerifyAPICredential(s.ctx, agency.ID, "wrong-secret"))
	})

	s.Run("rotation invalidates the previous secret", func() {
		agency := s.register()
		first, err := s.service.IssueAPICredential(s.ctx, agency.ID)
		s.Require().NoError(err)
		second, err := s.service.IssueAPICredential(s.ctx, agency.ID)
		s.Require().NoError(err)
		s.NotEqual(first, second)

		s.Error(s.service.VerifyAPICredential(s.ctx, agency.ID, first))
		s.NoError(s.service.VerifyAPICredential(s.ctx, agency.ID, second))
	})

	s.Run("agency without a credential rejects verification", func() {
		agency := s.register()
		err := s.service.VerifyAPICredential(s.ctx, agency.ID, "anything")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing agency reports not found", func() {
		_, err := s.service.IssueAPICredential(s.ctx, id.NewAgencyID())
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AgencyServiceSuite) TestOwnerUserID() {
	agency := s.register()
	owner, err := s.service.OwnerUserID(s.ctx, agency.ID)
	s.NoError(err)
	s.Equal(agency.OwnerUserID, owner)
}

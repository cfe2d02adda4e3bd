// Package service manages agency registration and license verification, and
// implements the posting gate the workflow orchestrator consults.
package service

import (
	"context"
	"errors"
	"log/slog"

	"mandat/internal/agency/models"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/platform/sentinel"
	"mandat/pkg/requestcontext"
	"mandat/pkg/secrets"
)

// Store persists agencies.
type Store interface {
	Create(ctx context.Context, a *models.Agency) error
	FindByID(ctx context.Context, agencyID id.AgencyID) (*models.Agency, error)
	FindByOwner(ctx context.Context, ownerUserID id.UserID) (*models.Agency, error)
	Update(ctx context.Context, a *models.Agency) error
}

// Service owns agency operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an agency with a pending license for the user.
func (s *Service) Register(ctx context.Context, ownerUserID id.UserID, name, licenseNumber, city, region string) (*models.Agency, error) {
	agency, err := models.NewAgency(id.NewAgencyID(), ownerUserID, name, licenseNumber, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	agency.City = city
	agency.Region = region
	if err := s.store.Create(ctx, agency); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already owns an agency")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create agency")
	}
	s.logger.InfoContext(ctx, "agency registered",
		"agency_id", agency.ID.String(), "owner_user_id", ownerUserID.String())
	return agency, nil
}

// FindByID returns one agency.
func (s *Service) FindByID(ctx context.Context, agencyID id.AgencyID) (*models.Agency, error) {
	agency, err := s.store.FindByID(ctx, agencyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "agency not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find agency")
	}
	return agency, nil
}

// FindByOwner returns the user's agency.
func (s *Service) FindByOwner(ctx context.Context, ownerUserID id.UserID) (*models.Agency, error) {
	agency, err := s.store.FindByOwner(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "agency not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find agency")
	}
	return agency, nil
}

// ReviewLicense records a verification decision on a pending license.
func (s *Service) ReviewLicense(ctx context.Context, agencyID id.AgencyID, approved bool) (*models.Agency, error) {
	agency, err := s.FindByID(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	if err := agency.CanReview(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if approved {
		agency.ApplyVerify(now)
	} else {
		agency.ApplyRejectLicense(now)
	}
	if err := s.store.Update(ctx, agency); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update agency")
	}
	s.logger.InfoContext(ctx, "agency license reviewed",
		"agency_id", agencyID.String(), "approved", approved)
	return agency, nil
}

// ResubmitLicense puts a rejected license back under review.
func (s *Service) ResubmitLicense(ctx context.Context, agencyID id.AgencyID, licenseNumber string) (*models.Agency, error) {
	agency, err := s.FindByID(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	if err := agency.ApplyResubmit(licenseNumber, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, agency); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update agency")
	}
	return agency, nil
}

// IssueAPICredential generates a fresh API secret for the agency, stores its
// hash and returns the plaintext. The plaintext is shown once; issuing a new
// credential invalidates the previous one.
func (s *Service) IssueAPICredential(ctx context.Context, agencyID id.AgencyID) (string, error) {
	agency, err := s.FindByID(ctx, agencyID)
	if err != nil {
		return "", err
	}
	secret, err := secrets.Generate()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "generate credential")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "hash credential")
	}
	agency.ApplyCredential(hash, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, agency); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "update agency")
	}
	s.logger.InfoContext(ctx, "agency credential issued", "agency_id", agencyID.String())
	return secret, nil
}

// VerifyAPICredential checks a presented secret against the agency's stored
// credential hash.
func (s *Service) VerifyAPICredential(ctx context.Context, agencyID id.AgencyID, secret string) error {
	agency, err := s.FindByID(ctx, agencyID)
	if err != nil {
		return err
	}
	if agency.APISecretHash == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "agency has no API credential")
	}
	return secrets.Verify(secret, agency.APISecretHash)
}

// CanPost reports whether the agency's license allows posting mandates.
// Missing agencies cannot post.
func (s *Service) CanPost(ctx context.Context, agencyID id.AgencyID) (bool, error) {
	agency, err := s.store.FindByID(ctx, agencyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return agency.CanPost(), nil
}

// OwnerUserID returns the agency owner's user id for notification
// addressing.
func (s *Service) OwnerUserID(ctx context.Context, agencyID id.AgencyID) (id.UserID, error) {
	agency, err := s.store.FindByID(ctx, agencyID)
	if err != nil {
		return id.UserID{}, err
	}
	return agency.OwnerUserID, nil
}

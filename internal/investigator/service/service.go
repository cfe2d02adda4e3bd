// Package service manages investigator profiles and answers the lookups the
// workflow validator depends on. Profile reads go through an optional Redis
// cache; writes invalidate it.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"mandat/internal/investigator/models"
	"mandat/internal/platform/config"
	"mandat/internal/platform/redis"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/platform/sentinel"
	"mandat/pkg/requestcontext"
)

// Store persists investigator profiles and unavailable dates.
type Store interface {
	Create(ctx context.Context, inv *models.Investigator) error
	FindByID(ctx context.Context, investigatorID id.InvestigatorID) (*models.Investigator, error)
	FindByUserID(ctx context.Context, userID id.UserID) (*models.Investigator, error)
	Update(ctx context.Context, inv *models.Investigator) error
	ListAvailableInRegion(ctx context.Context, region string) ([]*models.Investigator, error)
	UnavailableDates(ctx context.Context, investigatorID id.InvestigatorID) ([]time.Time, error)
	AddUnavailableDate(ctx context.Context, investigatorID id.InvestigatorID, day time.Time) error
	RemoveUnavailableDate(ctx context.Context, investigatorID id.InvestigatorID, day time.Time) error
}

// Service owns investigator profile operations.
type Service struct {
	store  Store
	cache  *redis.Client
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCache enables the profile read-through cache. A nil client leaves
// caching off.
func WithCache(cache *redis.Client) Option {
	return func(s *Service) { s.cache = cache }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an investigator profile for the user.
func (s *Service) Register(ctx context.Context, userID id.UserID, fullName, city, region string) (*models.Investigator, error) {
	inv, err := models.NewInvestigator(id.NewInvestigatorID(), userID, fullName, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	inv.City = city
	inv.Region = region
	if err := s.store.Create(ctx, inv); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already has an investigator profile")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create investigator")
	}
	s.logger.InfoContext(ctx, "investigator registered",
		"investigator_id", inv.ID.String(), "user_id", userID.String())
	return inv, nil
}

// FindByID returns one investigator, served from cache when possible.
func (s *Service) FindByID(ctx context.Context, investigatorID id.InvestigatorID) (*models.Investigator, error) {
	if cached := s.cacheGet(ctx, investigatorID); cached != nil {
		return cached, nil
	}
	inv, err := s.store.FindByID(ctx, investigatorID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, inv)
	return inv, nil
}

// FindByUserID returns the user's investigator profile.
func (s *Service) FindByUserID(ctx context.Context, userID id.UserID) (*models.Investigator, error) {
	inv, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "investigator profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find investigator")
	}
	return inv, nil
}

// SetAvailability updates the investigator's availability status and drops
// the cached profile so the validator sees the change immediately.
func (s *Service) SetAvailability(ctx context.Context, investigatorID id.InvestigatorID, status models.AvailabilityStatus) (*models.Investigator, error) {
	inv, err := s.store.FindByID(ctx, investigatorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "investigator not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find investigator")
	}
	if err := inv.ApplyAvailability(status, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, inv); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update investigator")
	}
	s.cacheInvalidate(ctx, investigatorID)
	return inv, nil
}

// UnavailableDates returns the investigator's registered unavailable days.
func (s *Service) UnavailableDates(ctx context.Context, investigatorID id.InvestigatorID) ([]time.Time, error) {
	return s.store.UnavailableDates(ctx, investigatorID)
}

// AddUnavailableDate registers a calendar day the investigator cannot work.
func (s *Service) AddUnavailableDate(ctx context.Context, investigatorID id.InvestigatorID, day time.Time) error {
	if err := s.store.AddUnavailableDate(ctx, investigatorID, day); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "date is already registered as unavailable")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "investigator not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "add unavailable date")
	}
	return nil
}

// RemoveUnavailableDate unregisters a previously registered day.
func (s *Service) RemoveUnavailableDate(ctx context.Context, investigatorID id.InvestigatorID, day time.Time) error {
	if err := s.store.RemoveUnavailableDate(ctx, investigatorID, day); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "date is not registered as unavailable")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "remove unavailable date")
	}
	return nil
}

// ListAvailableInRegion returns available investigators in the region.
func (s *Service) ListAvailableInRegion(ctx context.Context, region string) ([]*models.Investigator, error) {
	return s.store.ListAvailableInRegion(ctx, region)
}

func cacheKey(investigatorID id.InvestigatorID) string {
	return "investigator:profile:" + investigatorID.String()
}

// cacheGet returns the cached profile or nil. Cache faults degrade to store
// lookups and are logged at debug level only.
func (s *Service) cacheGet(ctx context.Context, investigatorID id.InvestigatorID) *models.Investigator {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKey(investigatorID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.logger.DebugContext(ctx, "profile cache read failed", "error", err.Error())
		}
		return nil
	}
	var inv models.Investigator
	if err := json.Unmarshal(raw, &inv); err != nil {
		s.cacheInvalidate(ctx, investigatorID)
		return nil
	}
	return &inv
}

func (s *Service) cacheSet(ctx context.Context, inv *models.Investigator) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(inv)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(inv.ID), raw, config.AvailabilityCacheTTL).Err(); err != nil {
		s.logger.DebugContext(ctx, "profile cache write failed", "error", err.Error())
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, investigatorID id.InvestigatorID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(investigatorID)).Err(); err != nil {
		s.logger.DebugContext(ctx, "profile cache invalidation failed", "error", err.Error())
	}
}

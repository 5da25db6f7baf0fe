package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/repositories"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/validation"
)

// OfferingService defines the interface for offering operations
type OfferingService interface {
	// ListActive returns active offerings sorted by code. The unfiltered list is
	// served from the snapshot cache.
	ListActive(ctx context.Context, filter models.OfferingFilter) ([]*models.Offering, error)
	// GetActive returns an active offering and records it as the visitor's last visit.
	GetActive(ctx context.Context, id int64, visitor Visitor) (*models.Offering, error)
	LastVisited(ctx context.Context, visitor Visitor) (*models.OfferingRef, bool)

	ListAll(ctx context.Context) ([]*models.Offering, error)
	Get(ctx context.Context, id int64) (*models.Offering, error)
	Create(ctx context.Context, offering *models.Offering) (*models.Offering, error)
	Update(ctx context.Context, id int64, offering *models.Offering) (*models.Offering, error)
	ToggleActive(ctx context.Context, id int64) (*models.Offering, error)
}

// offeringServiceImpl implements OfferingService
type offeringServiceImpl struct {
	gateway repositories.Gateway
	ledger  *CapacityLedger
	cache   *OfferingCache
	logger  zerolog.Logger
	now     func() time.Time
}

// NewOfferingService creates a new OfferingService
func NewOfferingService(
	gateway repositories.Gateway,
	ledger *CapacityLedger,
	offeringCache *OfferingCache,
	logger zerolog.Logger,
) OfferingService {
	return &offeringServiceImpl{
		gateway: gateway,
		ledger:  ledger,
		cache:   offeringCache,
		logger:  logger.With().Str("service", "offering").Logger(),
		now:     time.Now,
	}
}

// validateFilter rejects filters that cannot match anything meaningful
func validateFilter(filter models.OfferingFilter) error {
	if filter.CreditsMin != nil && filter.CreditsMax != nil && *filter.CreditsMin > *filter.CreditsMax {
		return apperrors.NewValidationError("creditsMin", "creditsMin cannot be greater than creditsMax")
	}
	if filter.StartsAt != nil && !filter.StartsAt.Valid() {
		return apperrors.NewValidationError("startsAt", "startsAt must be a time of day")
	}
	if filter.EndsAt != nil && !filter.EndsAt.Valid() {
		return apperrors.NewValidationError("endsAt", "endsAt must be a time of day")
	}
	if filter.StartsAt != nil && filter.EndsAt != nil && *filter.StartsAt >= *filter.EndsAt {
		return apperrors.NewValidationError("endsAt", "endsAt must be after startsAt")
	}
	return nil
}

// ListActive retrieves the active offerings, optionally filtered
func (s *offeringServiceImpl) ListActive(ctx context.Context, filter models.OfferingFilter) ([]*models.Offering, error) {
	filter.NameContains = strings.TrimSpace(filter.NameContains)
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	// Filtered searches are not cached.
	if !filter.IsEmpty() {
		return s.gateway.ListActiveOfferings(ctx, filter)
	}

	return s.cache.ActiveOfferings(ctx, func(ctx context.Context) ([]*models.Offering, error) {
		return s.gateway.ListActiveOfferings(ctx, models.OfferingFilter{})
	})
}

// GetActive retrieves an active offering by ID
func (s *offeringServiceImpl) GetActive(ctx context.Context, id int64, visitor Visitor) (*models.Offering, error) {
	if id <= 0 {
		return nil, apperrors.ErrOfferingNotFound
	}
	offering, err := s.gateway.GetActiveOffering(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.RememberVisit(ctx, visitor, offering.Ref())
	return offering, nil
}

// LastVisited returns the visitor's last-visited pointer, if any
func (s *offeringServiceImpl) LastVisited(ctx context.Context, visitor Visitor) (*models.OfferingRef, bool) {
	return s.cache.LastVisited(ctx, visitor)
}

// ListAll retrieves every offering, including inactive ones
func (s *offeringServiceImpl) ListAll(ctx context.Context) ([]*models.Offering, error) {
	return s.gateway.ListOfferings(ctx)
}

// Get retrieves an offering by ID regardless of its active flag
func (s *offeringServiceImpl) Get(ctx context.Context, id int64) (*models.Offering, error) {
	if id <= 0 {
		return nil, apperrors.ErrOfferingNotFound
	}
	return s.gateway.GetOffering(ctx, id)
}

func normalizeOffering(offering *models.Offering) {
	offering.Code = strings.ToUpper(strings.TrimSpace(offering.Code))
	offering.Name = strings.TrimSpace(offering.Name)
}

// Create creates a new active offering
func (s *offeringServiceImpl) Create(ctx context.Context, offering *models.Offering) (*models.Offering, error) {
	if offering == nil {
		return nil, apperrors.NewValidationError("offering", "offering is required")
	}
	normalizeOffering(offering)
	if err := validation.Struct(offering); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created := *offering
	created.ID = 0
	created.Active = true
	created.CreatedAt = now
	created.UpdatedAt = now

	err := s.gateway.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return tx.InsertOffering(ctx, &created)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateActiveOfferings(ctx)
	s.logger.Info().Int64("offeringId", created.ID).Str("code", created.Code).Msg("Offering created")
	return &created, nil
}

// Update replaces the editable fields of an offering. Capacity cannot drop
// below the number of confirmed enrollments, and a new time slot must not
// overlap another offering held by any actor enrolled in this one.
func (s *offeringServiceImpl) Update(ctx context.Context, id int64, offering *models.Offering) (*models.Offering, error) {
	if id <= 0 {
		return nil, apperrors.ErrOfferingNotFound
	}
	if offering == nil {
		return nil, apperrors.NewValidationError("offering", "offering is required")
	}
	normalizeOffering(offering)
	if err := validation.Struct(offering); err != nil {
		return nil, err
	}

	var updated models.Offering
	err := s.gateway.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		current, err := tx.LockOffering(ctx, id)
		if err != nil {
			return err
		}

		confirmed, err := s.ledger.ConfirmedCount(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("error counting seats: %w", err)
		}
		if offering.Capacity < confirmed {
			return apperrors.NewValidationError("capacity",
				fmt.Sprintf("capacity cannot be lower than the %d confirmed enrollments", confirmed))
		}

		updated = *offering
		updated.ID = id
		updated.Active = current.Active
		updated.CreatedAt = current.CreatedAt
		updated.UpdatedAt = s.now().UTC()

		if updated.StartsAt != current.StartsAt || updated.EndsAt != current.EndsAt {
			if err := checkHoldersSchedule(ctx, tx, &updated); err != nil {
				return err
			}
		}
		return tx.UpdateOffering(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateActiveOfferings(ctx)
	s.logger.Info().Int64("offeringId", id).Msg("Offering updated")
	return &updated, nil
}

// checkHoldersSchedule locks every actor holding the offering, in actor order,
// and rejects the new time slot if it overlaps one of their other offerings.
// The offering row must already be locked.
func checkHoldersSchedule(ctx context.Context, tx repositories.Tx, offering *models.Offering) error {
	actors, err := tx.ScheduleHolders(ctx, offering.ID)
	if err != nil {
		return fmt.Errorf("error loading enrolled actors: %w", err)
	}
	for _, actorID := range actors {
		if err := tx.LockActor(ctx, actorID); err != nil {
			return err
		}
		held, err := tx.ActorSchedule(ctx, actorID)
		if err != nil {
			return fmt.Errorf("error loading schedule: %w", err)
		}
		for _, other := range held {
			if other.ID == offering.ID || !other.Overlaps(offering) {
				continue
			}
			return apperrors.NewValidationError("startsAt", fmt.Sprintf(
				"time slot %s-%s overlaps %s %s-%s held by enrolled actor %s",
				offering.StartsAt, offering.EndsAt, other.Code, other.StartsAt, other.EndsAt, actorID))
		}
	}
	return nil
}

// ToggleActive flips the active flag of an offering
func (s *offeringServiceImpl) ToggleActive(ctx context.Context, id int64) (*models.Offering, error) {
	if id <= 0 {
		return nil, apperrors.ErrOfferingNotFound
	}

	var offering *models.Offering
	err := s.gateway.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		current, err := tx.LockOffering(ctx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := tx.SetOfferingActive(ctx, id, !current.Active, now); err != nil {
			return err
		}
		current.Active = !current.Active
		current.UpdatedAt = now
		offering = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateActiveOfferings(ctx)
	s.logger.Info().Int64("offeringId", id).Bool("active", offering.Active).Msg("Offering active flag toggled")
	return offering, nil
}

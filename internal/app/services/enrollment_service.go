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
	"github.com/yigit/enrollment/internal/pkg/dberrors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EnrollmentService defines the interface for enrollment operations
type EnrollmentService interface {
	// Enroll creates a PENDING enrollment for actorID in offeringID.
	Enroll(ctx context.Context, actorID string, offeringID int64) (*models.Enrollment, error)
	// SetState confirms or cancels a PENDING enrollment. Only administrators may call it.
	SetState(ctx context.Context, role models.RoleType, enrollmentID int64, target models.EnrollmentState) (*models.Enrollment, error)
	GetEnrollment(ctx context.Context, enrollmentID int64) (*models.Enrollment, error)
	// ListOfferingEnrollments returns one roster page, newest registration first.
	ListOfferingEnrollments(ctx context.Context, offeringID int64, limit, offset int) ([]*models.Enrollment, int64, error)
}

// EnrollmentConfig tunes the coordinator.
type EnrollmentConfig struct {
	// ConflictRetries is how many times a transaction that lost a race with a
	// concurrent one is re-run before ErrConcurrencyConflict is returned.
	ConflictRetries int
}

// enrollmentServiceImpl implements EnrollmentService
type enrollmentServiceImpl struct {
	gateway repositories.Gateway
	ledger  *CapacityLedger
	cache   *OfferingCache
	cfg     EnrollmentConfig
	logger  zerolog.Logger
	now     func() time.Time
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(
	gateway repositories.Gateway,
	ledger *CapacityLedger,
	offeringCache *OfferingCache,
	cfg EnrollmentConfig,
	logger zerolog.Logger,
) EnrollmentService {
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	return &enrollmentServiceImpl{
		gateway: gateway,
		ledger:  ledger,
		cache:   offeringCache,
		cfg:     cfg,
		logger:  logger.With().Str("service", "enrollment").Logger(),
		now:     time.Now,
	}
}

// Enroll runs the admission checks in order: the offering must be active, the
// actor must not already hold an enrollment in it, a seat must be free and the
// offering must not overlap the actor's schedule. Checks that guard an invariant
// are repeated under lock inside the transaction.
func (s *enrollmentServiceImpl) Enroll(ctx context.Context, actorID string, offeringID int64) (*models.Enrollment, error) {
	ctx, span := tracer.Start(ctx, "EnrollmentService.Enroll", trace.WithAttributes(
		attribute.Int64("offering.id", offeringID),
	))
	defer span.End()

	if strings.TrimSpace(actorID) == "" {
		return nil, apperrors.NewValidationError("actorId", "actor is required")
	}
	if offeringID <= 0 {
		return nil, apperrors.ErrOfferingNotFound
	}

	if _, err := s.gateway.GetActiveOffering(ctx, offeringID); err != nil {
		return nil, s.fail(span, err)
	}

	// Fast path for repeated clicks; the transaction re-checks under lock.
	exists, err := s.gateway.EnrollmentExists(ctx, offeringID, actorID)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("error checking enrollment: %w", err))
	}
	if exists {
		return nil, s.fail(span, apperrors.ErrDuplicate)
	}

	var (
		enrollment *models.Enrollment
		offering   *models.Offering
	)
	err = s.withRetry(ctx, "enroll", func(ctx context.Context) error {
		return s.gateway.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
			var err error
			enrollment, offering, err = s.enrollTx(ctx, tx, actorID, offeringID)
			return err
		})
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.logger.Info().
		Int64("enrollmentId", enrollment.ID).
		Int64("offeringId", offeringID).
		Str("actorId", actorID).
		Msg("Enrollment created")

	s.cache.RememberVisit(ctx, Visitor{ActorID: actorID}, offering.Ref())
	return enrollment, nil
}

func (s *enrollmentServiceImpl) enrollTx(ctx context.Context, tx repositories.Tx, actorID string, offeringID int64) (*models.Enrollment, *models.Offering, error) {
	offering, err := tx.LockOffering(ctx, offeringID)
	if err != nil {
		return nil, nil, err
	}
	if !offering.Active {
		return nil, nil, apperrors.ErrOfferingNotFound
	}

	if err := tx.LockActor(ctx, actorID); err != nil {
		return nil, nil, err
	}

	exists, err := tx.EnrollmentExists(ctx, offeringID, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("error checking enrollment: %w", err)
	}
	if exists {
		return nil, nil, apperrors.ErrDuplicate
	}

	ok, err := s.ledger.HasCapacity(ctx, tx, offering)
	if err != nil {
		return nil, nil, fmt.Errorf("error counting seats: %w", err)
	}
	if !ok {
		return nil, nil, apperrors.ErrCapacityExceeded
	}

	held, err := tx.ActorSchedule(ctx, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading schedule: %w", err)
	}
	for _, other := range held {
		if other.Overlaps(offering) {
			return nil, nil, fmt.Errorf("%w: %s %s-%s", apperrors.ErrScheduleOverlap, other.Code, other.StartsAt, other.EndsAt)
		}
	}

	now := s.now().UTC()
	enrollment := &models.Enrollment{
		OfferingID: offeringID,
		ActorID:    actorID,
		State:      models.EnrollmentPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.InsertEnrollment(ctx, enrollment); err != nil {
		return nil, nil, err
	}
	return enrollment, offering, nil
}

// SetState moves a PENDING enrollment to CONFIRMED or CANCELLED. Confirming
// requires a free confirmed seat, counted with the offering row locked.
func (s *enrollmentServiceImpl) SetState(ctx context.Context, role models.RoleType, enrollmentID int64, target models.EnrollmentState) (*models.Enrollment, error) {
	ctx, span := tracer.Start(ctx, "EnrollmentService.SetState", trace.WithAttributes(
		attribute.Int64("enrollment.id", enrollmentID),
		attribute.String("enrollment.target_state", string(target)),
	))
	defer span.End()

	if !role.IsAdministrator() {
		return nil, s.fail(span, apperrors.NewForbiddenError("only administrators can change enrollment state"))
	}
	if !target.Valid() {
		return nil, apperrors.NewValidationError("state", "state must be one of CONFIRMED, CANCELLED")
	}

	var enrollment *models.Enrollment
	err := s.withRetry(ctx, "set_state", func(ctx context.Context) error {
		return s.gateway.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
			e, err := tx.LockEnrollment(ctx, enrollmentID)
			if err != nil {
				return err
			}
			if !e.State.CanTransitionTo(target) {
				return fmt.Errorf("%w: %s to %s", apperrors.ErrInvalidTransition, e.State, target)
			}

			if target == models.EnrollmentConfirmed {
				offering, err := tx.LockOffering(ctx, e.OfferingID)
				if err != nil {
					return err
				}
				ok, err := s.ledger.CanConfirm(ctx, tx, offering)
				if err != nil {
					return fmt.Errorf("error counting seats: %w", err)
				}
				if !ok {
					return apperrors.ErrCapacityExceeded
				}
			}

			now := s.now().UTC()
			if err := tx.UpdateEnrollmentState(ctx, e.ID, target, now); err != nil {
				return err
			}
			e.State = target
			e.UpdatedAt = now
			enrollment = e
			return nil
		})
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.logger.Info().
		Int64("enrollmentId", enrollment.ID).
		Str("state", string(enrollment.State)).
		Msg("Enrollment state changed")
	return enrollment, nil
}

// GetEnrollment retrieves an enrollment by ID
func (s *enrollmentServiceImpl) GetEnrollment(ctx context.Context, enrollmentID int64) (*models.Enrollment, error) {
	if enrollmentID <= 0 {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	return s.gateway.GetEnrollment(ctx, enrollmentID)
}

// ListOfferingEnrollments retrieves the roster of an offering, active or not.
func (s *enrollmentServiceImpl) ListOfferingEnrollments(ctx context.Context, offeringID int64, limit, offset int) ([]*models.Enrollment, int64, error) {
	if _, err := s.gateway.GetOffering(ctx, offeringID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		return nil, 0, apperrors.NewValidationError("size", "page size must be positive")
	}
	if offset < 0 {
		offset = 0
	}
	return s.gateway.ListEnrollmentsByOffering(ctx, offeringID, limit, offset)
}

// withRetry re-runs fn while it fails with a transient conflict, up to the
// configured number of retries. Business errors are returned unchanged.
func (s *enrollmentServiceImpl) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= s.cfg.ConflictRetries; attempt++ {
		err = fn(ctx)
		if err == nil || !dberrors.IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("Transaction conflict, retrying")
	}
	return fmt.Errorf("%w: %v", apperrors.ErrConcurrencyConflict, err)
}

// fail records err on the span. Rejections are expected outcomes and are not
// marked as span errors.
func (s *enrollmentServiceImpl) fail(span trace.Span, err error) error {
	if isRejection(err) {
		span.SetAttributes(attribute.String("enrollment.rejection", err.Error()))
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error().Err(err).Msg("Enrollment operation failed")
	return err
}

func isRejection(err error) bool {
	return apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrDuplicate,
		apperrors.ErrCapacityExceeded,
		apperrors.ErrScheduleOverlap,
		apperrors.ErrInvalidTransition,
		apperrors.ErrPermissionDenied,
		apperrors.ErrValidationFailed,
	)
}

package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/dberrors"
)

var enrollmentColumns = []string{"id", "offering_id", "actor_id", "state", "created_at", "updated_at"}

func (s *store) scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var e models.Enrollment
	var state string
	err := row.Scan(
		&e.ID,
		&e.OfferingID,
		&e.ActorID,
		&state,
		s.d.timeDest(&e.CreatedAt),
		s.d.timeDest(&e.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	e.State = models.EnrollmentState(state)
	return &e, nil
}

func (s *store) getEnrollment(ctx context.Context, id int64, lock bool) (*models.Enrollment, error) {
	query := s.d.sb.Select(enrollmentColumns...).From("enrollments").Where(squirrel.Eq{"id": id})
	if lock && s.d.lockSuffix != "" {
		query = query.Suffix(s.d.lockSuffix)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	e, err := s.scanEnrollment(s.q.queryRow(ctx, sqlStr, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("error retrieving enrollment: %w", err)
	}
	return e, nil
}

// GetEnrollment retrieves an enrollment by ID
func (s *store) GetEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	return s.getEnrollment(ctx, id, false)
}

// LockEnrollment retrieves an enrollment and row-locks it for the rest of the transaction.
func (s *store) LockEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	return s.getEnrollment(ctx, id, true)
}

// EnrollmentExists reports whether the actor has an enrollment in the offering, in any state.
func (s *store) EnrollmentExists(ctx context.Context, offeringID int64, actorID string) (bool, error) {
	query := s.d.sb.Select("1").
		From("enrollments").
		Where(squirrel.Eq{"offering_id": offeringID, "actor_id": actorID}).
		Limit(1)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var one int
	if err := s.q.queryRow(ctx, sqlStr, args...).Scan(&one); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("error checking enrollment: %w", err)
	}
	return true, nil
}

// CountEnrollments counts the offering's enrollments in any of states.
func (s *store) CountEnrollments(ctx context.Context, offeringID int64, states ...models.EnrollmentState) (int, error) {
	query := s.d.sb.Select("COUNT(*)").From("enrollments").Where(squirrel.Eq{"offering_id": offeringID})
	if len(states) > 0 {
		query = query.Where(squirrel.Eq{"state": stateValues(states)})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var count int
	if err := s.q.queryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting enrollments: %w", err)
	}
	return count, nil
}

// ScheduleHolders returns the actors whose enrollments in the offering occupy
// their schedule, sorted by actor ID.
func (s *store) ScheduleHolders(ctx context.Context, offeringID int64) ([]string, error) {
	query := s.d.sb.Select("DISTINCT actor_id").
		From("enrollments").
		Where(squirrel.Eq{"offering_id": offeringID}).
		Where(squirrel.Eq{"state": stateValues(models.ScheduleHoldingStates())}).
		OrderBy("actor_id ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := s.q.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var actors []string
	for rows.Next() {
		var actorID string
		if err := rows.Scan(&actorID); err != nil {
			return nil, fmt.Errorf("error scanning actor: %w", err)
		}
		actors = append(actors, actorID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actors: %w", err)
	}
	return actors, nil
}

func stateValues(states []models.EnrollmentState) []string {
	values := make([]string, len(states))
	for i, st := range states {
		values[i] = string(st)
	}
	return values
}

// InsertEnrollment stores a new enrollment and fills in its ID. A second
// enrollment for the same (offering, actor) pair fails with ErrDuplicate.
func (s *store) InsertEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	query := s.d.sb.Insert("enrollments").
		Columns("offering_id", "actor_id", "state", "created_at", "updated_at").
		Values(
			enrollment.OfferingID,
			enrollment.ActorID,
			string(enrollment.State),
			s.d.encodeTime(enrollment.CreatedAt),
			s.d.encodeTime(enrollment.UpdatedAt),
		).
		Suffix("RETURNING id")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := s.q.queryRow(ctx, sqlStr, args...).Scan(&enrollment.ID); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("error creating enrollment: %w", err)
	}
	return nil
}

// UpdateEnrollmentState writes a new state
func (s *store) UpdateEnrollmentState(ctx context.Context, id int64, state models.EnrollmentState, at time.Time) error {
	query := s.d.sb.Update("enrollments").
		Set("state", string(state)).
		Set("updated_at", s.d.encodeTime(at)).
		Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	affected, err := s.q.exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("error updating enrollment: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrEnrollmentNotFound
	}
	return nil
}

// ListEnrollmentsByOffering returns one page of the offering's roster, newest first,
// together with the total roster size.
func (s *store) ListEnrollmentsByOffering(ctx context.Context, offeringID int64, limit, offset int) ([]*models.Enrollment, int64, error) {
	total, err := s.countRoster(ctx, offeringID)
	if err != nil {
		return nil, 0, err
	}

	query := s.d.sb.Select(enrollmentColumns...).
		From("enrollments").
		Where(squirrel.Eq{"offering_id": offeringID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := s.q.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	enrollments := make([]*models.Enrollment, 0, limit)
	for rows.Next() {
		e, err := s.scanEnrollment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating enrollments: %w", err)
	}
	return enrollments, total, nil
}

func (s *store) countRoster(ctx context.Context, offeringID int64) (int64, error) {
	count, err := s.CountEnrollments(ctx, offeringID)
	return int64(count), err
}

// LockActor takes a transaction-scoped lock keyed by the actor so that two
// enrollments by one actor cannot both pass the schedule check.
func (s *store) LockActor(ctx context.Context, actorID string) error {
	if s.d.actorLock == "" {
		return nil
	}
	if _, err := s.q.exec(ctx, s.d.actorLock, actorID); err != nil {
		return fmt.Errorf("error locking actor schedule: %w", err)
	}
	return nil
}

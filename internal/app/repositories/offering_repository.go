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

// store implements the Gateway reads and the Tx operations over either driver.
type store struct {
	q querier
	d dialect
}

func offeringColumns(alias string) []string {
	cols := []string{"id", "code", "name", "credits", "capacity", "starts_at", "ends_at", "active", "created_at", "updated_at"}
	if alias == "" {
		return cols
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return cols
}

func (s *store) scanOffering(row rowScanner) (*models.Offering, error) {
	var o models.Offering
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.Name,
		&o.Credits,
		&o.Capacity,
		&o.StartsAt,
		&o.EndsAt,
		&o.Active,
		s.d.timeDest(&o.CreatedAt),
		s.d.timeDest(&o.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *store) queryOfferings(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Offering, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := s.q.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	offerings := make([]*models.Offering, 0)
	for rows.Next() {
		o, err := s.scanOffering(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning offering: %w", err)
		}
		offerings = append(offerings, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offerings: %w", err)
	}
	return offerings, nil
}

func (s *store) getOffering(ctx context.Context, where squirrel.Sqlizer, lock bool) (*models.Offering, error) {
	query := s.d.sb.Select(offeringColumns("")...).From("offerings").Where(where)
	if lock && s.d.lockSuffix != "" {
		query = query.Suffix(s.d.lockSuffix)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	o, err := s.scanOffering(s.q.queryRow(ctx, sqlStr, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("error retrieving offering: %w", err)
	}
	return o, nil
}

// GetOffering retrieves an offering by ID regardless of its active flag.
func (s *store) GetOffering(ctx context.Context, id int64) (*models.Offering, error) {
	return s.getOffering(ctx, squirrel.Eq{"id": id}, false)
}

// GetActiveOffering retrieves an offering by ID, treating inactive ones as missing.
func (s *store) GetActiveOffering(ctx context.Context, id int64) (*models.Offering, error) {
	return s.getOffering(ctx, squirrel.Eq{"id": id, "active": true}, false)
}

// LockOffering retrieves an offering and row-locks it for the rest of the transaction.
func (s *store) LockOffering(ctx context.Context, id int64) (*models.Offering, error) {
	return s.getOffering(ctx, squirrel.Eq{"id": id}, true)
}

// ListOfferings returns every offering, active or not, ordered by code.
func (s *store) ListOfferings(ctx context.Context) ([]*models.Offering, error) {
	return s.queryOfferings(ctx, s.d.sb.Select(offeringColumns("")...).From("offerings").OrderBy("code ASC"))
}

// ListActiveOfferings returns the active offerings matching filter, ordered by code.
//
// With both time bounds the result holds offerings overlapping [StartsAt, EndsAt).
// A lone StartsAt keeps offerings still running after it and a lone EndsAt keeps
// offerings that begin before it.
func (s *store) ListActiveOfferings(ctx context.Context, filter models.OfferingFilter) ([]*models.Offering, error) {
	query := s.d.sb.Select(offeringColumns("")...).
		From("offerings").
		Where(squirrel.Eq{"active": true})

	if filter.NameContains != "" {
		query = query.Where("name "+s.d.likeOp+` ? ESCAPE '\'`, containsPattern(filter.NameContains))
	}
	if filter.CreditsMin != nil {
		query = query.Where(squirrel.GtOrEq{"credits": *filter.CreditsMin})
	}
	if filter.CreditsMax != nil {
		query = query.Where(squirrel.LtOrEq{"credits": *filter.CreditsMax})
	}
	if filter.StartsAt != nil {
		query = query.Where(squirrel.Gt{"ends_at": filter.StartsAt.Minutes()})
	}
	if filter.EndsAt != nil {
		query = query.Where(squirrel.Lt{"starts_at": filter.EndsAt.Minutes()})
	}

	return s.queryOfferings(ctx, query.OrderBy("code ASC"))
}

// InsertOffering stores a new offering and fills in its ID.
func (s *store) InsertOffering(ctx context.Context, offering *models.Offering) error {
	query := s.d.sb.Insert("offerings").
		Columns("code", "name", "credits", "capacity", "starts_at", "ends_at", "active", "created_at", "updated_at").
		Values(
			offering.Code,
			offering.Name,
			offering.Credits,
			offering.Capacity,
			offering.StartsAt.Minutes(),
			offering.EndsAt.Minutes(),
			offering.Active,
			s.d.encodeTime(offering.CreatedAt),
			s.d.encodeTime(offering.UpdatedAt),
		).
		Suffix("RETURNING id")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := s.q.queryRow(ctx, sqlStr, args...).Scan(&offering.ID); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrOfferingAlreadyExists
		}
		return fmt.Errorf("error creating offering: %w", err)
	}
	return nil
}

// UpdateOffering overwrites the editable fields of an offering. The active flag
// is changed through SetOfferingActive only.
func (s *store) UpdateOffering(ctx context.Context, offering *models.Offering) error {
	query := s.d.sb.Update("offerings").
		Set("code", offering.Code).
		Set("name", offering.Name).
		Set("credits", offering.Credits).
		Set("capacity", offering.Capacity).
		Set("starts_at", offering.StartsAt.Minutes()).
		Set("ends_at", offering.EndsAt.Minutes()).
		Set("updated_at", s.d.encodeTime(offering.UpdatedAt)).
		Where(squirrel.Eq{"id": offering.ID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	affected, err := s.q.exec(ctx, sqlStr, args...)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrOfferingAlreadyExists
		}
		return fmt.Errorf("error updating offering: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrOfferingNotFound
	}
	return nil
}

// SetOfferingActive flips the soft-delete flag.
func (s *store) SetOfferingActive(ctx context.Context, id int64, active bool, at time.Time) error {
	query := s.d.sb.Update("offerings").
		Set("active", active).
		Set("updated_at", s.d.encodeTime(at)).
		Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	affected, err := s.q.exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("error updating offering: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrOfferingNotFound
	}
	return nil
}

// ActorSchedule returns the offerings behind the actor's schedule-holding enrollments.
func (s *store) ActorSchedule(ctx context.Context, actorID string) ([]*models.Offering, error) {
	query := s.d.sb.Select(offeringColumns("o")...).
		From("offerings o").
		Join("enrollments e ON e.offering_id = o.id").
		Where(squirrel.Eq{"e.actor_id": actorID}).
		Where(squirrel.Eq{"e.state": stateValues(models.ScheduleHoldingStates())}).
		OrderBy("o.starts_at ASC")

	return s.queryOfferings(ctx, query)
}

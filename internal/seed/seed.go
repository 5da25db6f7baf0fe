package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/services"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/schedule"
)

// DefaultOfferings is the catalogue created on a fresh database
func DefaultOfferings() []*models.Offering {
	return []*models.Offering{
		{Code: "CS101", Name: "Intro a Programación", Credits: 3, Capacity: 30,
			StartsAt: schedule.MustClock(8, 0), EndsAt: schedule.MustClock(10, 0)},
		{Code: "MA101", Name: "Matemáticas I", Credits: 4, Capacity: 40,
			StartsAt: schedule.MustClock(10, 30), EndsAt: schedule.MustClock(12, 30)},
		{Code: "FI101", Name: "Física I", Credits: 4, Capacity: 35,
			StartsAt: schedule.MustClock(13, 0), EndsAt: schedule.MustClock(15, 0)},
	}
}

// CreateDefaultData creates the default offerings that don't exist yet.
// Existing offerings are left untouched, so running it twice is harmless.
func CreateDefaultData(ctx context.Context, offeringService services.OfferingService, lgr zerolog.Logger) (created int, err error) {
	lgr.Info().Msg("Checking/Creating default offerings...")
	var finalErr error

	for _, offering := range DefaultOfferings() {
		_, createErr := offeringService.Create(ctx, offering)
		switch {
		case createErr == nil:
			created++
			lgr.Info().Str("code", offering.Code).Msg("Default offering created")
		case errors.Is(createErr, apperrors.ErrOfferingAlreadyExists):
			lgr.Debug().Str("code", offering.Code).Msg("Default offering already exists")
		default:
			lgr.Error().Err(createErr).Str("code", offering.Code).Msg("Error creating default offering")
			finalErr = errors.Join(finalErr, createErr)
		}
	}

	lgr.Info().Int("created", created).Msg("Default data check complete")
	return created, finalErr
}

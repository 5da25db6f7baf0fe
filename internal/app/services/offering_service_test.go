package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/repositories"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/cache"
)

func codesOf(offerings []*models.Offering) []string {
	out := make([]string, 0, len(offerings))
	for _, o := range offerings {
		out = append(out, o.Code)
	}
	return out
}

func TestCreateOfferingValidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.offerings.Create(ctx, &models.Offering{
		Code: "CS101", Name: "Intro", Credits: 3, Capacity: 10,
		StartsAt: clockAt(t, "10:00"), EndsAt: clockAt(t, "09:00"),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = env.offerings.Create(ctx, &models.Offering{Code: "CS101", Name: "", Credits: 3, Capacity: 10,
		StartsAt: clockAt(t, "08:00"), EndsAt: clockAt(t, "09:00")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	created, err := env.offerings.Create(ctx, &models.Offering{Code: " cs101 ", Name: " Intro ", Credits: 3, Capacity: 10,
		StartsAt: clockAt(t, "08:00"), EndsAt: clockAt(t, "09:00"), Active: false})
	require.NoError(t, err)
	assert.Equal(t, "CS101", created.Code)
	assert.Equal(t, "Intro", created.Name)
	assert.True(t, created.Active, "new offerings start active")

	_, err = env.offerings.Create(ctx, &models.Offering{Code: "CS101", Name: "Again", Credits: 3, Capacity: 10,
		StartsAt: clockAt(t, "08:00"), EndsAt: clockAt(t, "09:00")})
	assert.ErrorIs(t, err, apperrors.ErrOfferingAlreadyExists)
}

func TestListActiveIsInvalidatedByMutations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	cs := env.createOffering(t, "CS101", 30, "08:00", "10:00")

	list, err := env.offerings.ListActive(ctx, models.OfferingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, codesOf(list))

	res, err := env.store.Get(ctx, env.cache.snapshotKey())
	require.NoError(t, err)
	require.True(t, res.Found, "the unfiltered listing populates the snapshot")

	env.createOffering(t, "AA100", 30, "11:00", "12:00")
	list, err = env.offerings.ListActive(ctx, models.OfferingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"AA100", "CS101"}, codesOf(list), "create invalidates the snapshot")

	_, err = env.offerings.ToggleActive(ctx, cs.ID)
	require.NoError(t, err)
	list, err = env.offerings.ListActive(ctx, models.OfferingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"AA100"}, codesOf(list), "toggle invalidates the snapshot")

	aa := list[0]
	aa.Name = "Renamed"
	_, err = env.offerings.Update(ctx, aa.ID, aa)
	require.NoError(t, err)
	list, err = env.offerings.ListActive(ctx, models.OfferingFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Name, "update invalidates the snapshot")
}

func TestSnapshotStalenessIsBoundedByTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(cache.RedisConfig{Addr: mr.Addr(), OpTimeout: time.Second})
	t.Cleanup(func() { _ = store.Close() })
	env := newTestEnv(t, withStore(store))
	env.createOffering(t, "CS101", 30, "08:00", "10:00")

	_, err := env.offerings.ListActive(ctx, models.OfferingFilter{})
	require.NoError(t, err)

	// A write that bypasses the service leaves the snapshot stale...
	require.NoError(t, env.gateway.WithinTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		now := time.Now()
		return tx.InsertOffering(ctx, &models.Offering{Code: "ZZ999", Name: "Hidden", Credits: 1, Capacity: 1,
			StartsAt: clockAt(t, "18:00"), EndsAt: clockAt(t, "19:00"), Active: true, CreatedAt: now, UpdatedAt: now})
	}))
	list, err := env.offerings.ListActive(ctx, models.OfferingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, codesOf(list))

	// ...but never for longer than the snapshot TTL.
	mr.FastForward(61 * time.Second)
	list, err = env.offerings.ListActive(ctx, models.OfferingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "ZZ999"}, codesOf(list))
}

func TestReadsSurviveUnreachableCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(cache.RedisConfig{Addr: mr.Addr(), OpTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = store.Close() })
	env := newTestEnv(t, withStore(store))
	cs := env.createOffering(t, "CS101", 30, "08:00", "10:00")
	mr.Close()

	list, err := env.offerings.ListActive(ctx, models.OfferingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, codesOf(list))

	got, err := env.offerings.GetActive(ctx, cs.ID, Visitor{SessionID: "s-1"})
	require.NoError(t, err)
	assert.Equal(t, cs.ID, got.ID)

	_, ok := env.offerings.LastVisited(ctx, Visitor{SessionID: "s-1"})
	assert.False(t, ok, "an unreachable cache reads as empty")

	_, err = env.enrollments.Enroll(ctx, "student-1", cs.ID)
	assert.NoError(t, err, "enrollment does not depend on the cache")

	_, err = env.offerings.Create(ctx, &models.Offering{Code: "MA101", Name: "Math", Credits: 4, Capacity: 40,
		StartsAt: clockAt(t, "10:30"), EndsAt: clockAt(t, "12:30")})
	assert.NoError(t, err, "failed invalidation does not fail the mutation")
}

func TestFilteredListingBypassesCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createOffering(t, "CS101", 30, "08:00", "10:00")
	env.createOffering(t, "MA101", 40, "10:30", "12:30")

	list, err := env.offerings.ListActive(ctx, models.OfferingFilter{NameContains: "ma1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MA101"}, codesOf(list))

	res, err := env.store.Get(ctx, env.cache.snapshotKey())
	require.NoError(t, err)
	assert.False(t, res.Found)

	start, end := clockAt(t, "10:00"), clockAt(t, "11:00")
	list, err = env.offerings.ListActive(ctx, models.OfferingFilter{StartsAt: &start, EndsAt: &end})
	require.NoError(t, err)
	assert.Equal(t, []string{"MA101"}, codesOf(list))
}

func TestListActiveRejectsInvalidFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	low, high := 4, 2
	_, err := env.offerings.ListActive(ctx, models.OfferingFilter{CreditsMin: &low, CreditsMax: &high})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	start, end := clockAt(t, "12:00"), clockAt(t, "11:00")
	_, err = env.offerings.ListActive(ctx, models.OfferingFilter{StartsAt: &start, EndsAt: &end})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestGetActiveRecordsLastVisited(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	cs := env.createOffering(t, "CS101", 30, "08:00", "10:00")
	ma := env.createOffering(t, "MA101", 40, "10:30", "12:30")

	_, ok := env.offerings.LastVisited(ctx, Visitor{SessionID: "s-1"})
	assert.False(t, ok)

	_, err := env.offerings.GetActive(ctx, cs.ID, Visitor{SessionID: "s-1"})
	require.NoError(t, err)
	_, err = env.offerings.GetActive(ctx, ma.ID, Visitor{SessionID: "s-1"})
	require.NoError(t, err)

	ref, ok := env.offerings.LastVisited(ctx, Visitor{SessionID: "s-1"})
	require.True(t, ok)
	assert.Equal(t, ma.Ref(), *ref)

	_, ok = env.offerings.LastVisited(ctx, Visitor{SessionID: "s-2"})
	assert.False(t, ok, "pointers are per visitor")

	_, err = env.offerings.ToggleActive(ctx, cs.ID)
	require.NoError(t, err)
	_, err = env.offerings.GetActive(ctx, cs.ID, Visitor{SessionID: "s-1"})
	assert.ErrorIs(t, err, apperrors.ErrOfferingNotFound)

	got, err := env.offerings.Get(ctx, cs.ID)
	require.NoError(t, err)
	assert.False(t, got.Active, "administrators still see inactive offerings")
}

func TestUpdateOffering(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	cs := env.createOffering(t, "CS101", 2, "08:00", "10:00")

	a, err := env.enrollments.Enroll(ctx, "a", cs.ID)
	require.NoError(t, err)
	b, err := env.enrollments.Enroll(ctx, "b", cs.ID)
	require.NoError(t, err)
	for _, e := range []*models.Enrollment{a, b} {
		_, err = env.enrollments.SetState(ctx, models.RoleAdministrator, e.ID, models.EnrollmentConfirmed)
		require.NoError(t, err)
	}

	edit := *cs
	edit.Capacity = 1
	_, err = env.offerings.Update(ctx, cs.ID, &edit)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "capacity cannot drop below confirmed seats")

	edit.Capacity = 5
	edit.EndsAt = clockAt(t, "11:00")
	updated, err := env.offerings.Update(ctx, cs.ID, &edit)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Capacity)
	assert.Equal(t, clockAt(t, "11:00"), updated.EndsAt)
	assert.True(t, updated.Active)

	_, err = env.offerings.Update(ctx, 9999, &edit)
	assert.ErrorIs(t, err, apperrors.ErrOfferingNotFound)

	other := env.createOffering(t, "MA101", 40, "12:00", "13:00")
	clash := *other
	clash.Code = "CS101"
	_, err = env.offerings.Update(ctx, other.ID, &clash)
	assert.ErrorIs(t, err, apperrors.ErrOfferingAlreadyExists)
}

func TestUpdateOfferingKeepsHoldersSchedulesDisjoint(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	cs := env.createOffering(t, "CS101", 30, "08:00", "10:00")
	ma := env.createOffering(t, "MA101", 30, "10:00", "12:00")

	csSeat, err := env.enrollments.Enroll(ctx, "s1", cs.ID)
	require.NoError(t, err)
	_, err = env.enrollments.Enroll(ctx, "s1", ma.ID)
	require.NoError(t, err)
	_, err = env.enrollments.Enroll(ctx, "s2", ma.ID)
	require.NoError(t, err)

	edit := *ma
	edit.StartsAt = clockAt(t, "09:00")
	edit.EndsAt = clockAt(t, "11:00")
	_, err = env.offerings.Update(ctx, ma.ID, &edit)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Contains(t, err.Error(), "CS101")

	stored, err := env.offerings.Get(ctx, ma.ID)
	require.NoError(t, err)
	assert.Equal(t, clockAt(t, "10:00"), stored.StartsAt, "a rejected edit leaves the slot unchanged")

	// Only the time slot is checked; other fields still change freely.
	rename := *ma
	rename.Name = "Matemáticas I"
	_, err = env.offerings.Update(ctx, ma.ID, &rename)
	require.NoError(t, err)

	// Cancelled enrollments stop holding the schedule.
	_, err = env.enrollments.SetState(ctx, models.RoleAdministrator, csSeat.ID, models.EnrollmentCancelled)
	require.NoError(t, err)
	edit.Name = rename.Name
	updated, err := env.offerings.Update(ctx, ma.ID, &edit)
	require.NoError(t, err)
	assert.Equal(t, clockAt(t, "09:00"), updated.StartsAt)
}

func TestListAllIncludesInactive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	cs := env.createOffering(t, "CS101", 30, "08:00", "10:00")
	env.createOffering(t, "AA100", 30, "08:00", "10:00")
	_, err := env.offerings.ToggleActive(ctx, cs.ID)
	require.NoError(t, err)

	all, err := env.offerings.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AA100", "CS101"}, codesOf(all))

	toggled, err := env.offerings.ToggleActive(ctx, cs.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Active)

	_, err = env.offerings.ToggleActive(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrOfferingNotFound)
}

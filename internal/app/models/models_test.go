package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yigit/enrollment/internal/pkg/schedule"
)

func TestEnrollmentStateTransitions(t *testing.T) {
	assert.True(t, EnrollmentPending.CanTransitionTo(EnrollmentConfirmed))
	assert.True(t, EnrollmentPending.CanTransitionTo(EnrollmentCancelled))
	assert.False(t, EnrollmentPending.CanTransitionTo(EnrollmentPending))
	assert.False(t, EnrollmentConfirmed.CanTransitionTo(EnrollmentCancelled))
	assert.False(t, EnrollmentCancelled.CanTransitionTo(EnrollmentConfirmed))

	assert.True(t, EnrollmentPending.HoldsSchedule())
	assert.True(t, EnrollmentConfirmed.HoldsSchedule())
	assert.False(t, EnrollmentCancelled.HoldsSchedule())
	assert.Equal(t, []EnrollmentState{EnrollmentPending, EnrollmentConfirmed}, ScheduleHoldingStates())

	assert.False(t, EnrollmentState("WAITLISTED").Valid())
}

func TestOfferingOverlaps(t *testing.T) {
	a := &Offering{StartsAt: schedule.MustClock(8, 0), EndsAt: schedule.MustClock(10, 0)}
	b := &Offering{StartsAt: schedule.MustClock(10, 0), EndsAt: schedule.MustClock(12, 0)}
	c := &Offering{StartsAt: schedule.MustClock(9, 59), EndsAt: schedule.MustClock(11, 0)}

	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.True(t, b.Overlaps(c))
}

func TestOfferingFilterIsEmpty(t *testing.T) {
	assert.True(t, OfferingFilter{}.IsEmpty())
	credits := 3
	assert.False(t, OfferingFilter{CreditsMin: &credits}.IsEmpty())
	assert.False(t, OfferingFilter{NameContains: "math"}.IsEmpty())
}

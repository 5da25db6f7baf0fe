package models

import "time"

// EnrollmentState represents the lifecycle of an enrollment.
type EnrollmentState string

// Possible enrollment states. CONFIRMED and CANCELLED are terminal.
const (
	EnrollmentPending   EnrollmentState = "PENDING"
	EnrollmentConfirmed EnrollmentState = "CONFIRMED"
	EnrollmentCancelled EnrollmentState = "CANCELLED"
)

// Valid reports whether s is a known state.
func (s EnrollmentState) Valid() bool {
	switch s {
	case EnrollmentPending, EnrollmentConfirmed, EnrollmentCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving from s to target.
func (s EnrollmentState) CanTransitionTo(target EnrollmentState) bool {
	return s == EnrollmentPending && (target == EnrollmentConfirmed || target == EnrollmentCancelled)
}

// HoldsSchedule reports whether an enrollment in this state blocks overlapping enrollments.
func (s EnrollmentState) HoldsSchedule() bool {
	return s != EnrollmentCancelled
}

// ScheduleHoldingStates lists the states whose enrollments occupy the actor's schedule.
func ScheduleHoldingStates() []EnrollmentState {
	var states []EnrollmentState
	for _, s := range []EnrollmentState{EnrollmentPending, EnrollmentConfirmed, EnrollmentCancelled} {
		if s.HoldsSchedule() {
			states = append(states, s)
		}
	}
	return states
}

// Enrollment is an actor's claim on an offering.
type Enrollment struct {
	ID         int64           `json:"id" db:"id"`
	OfferingID int64           `json:"offeringId" db:"offering_id"`
	ActorID    string          `json:"actorId" db:"actor_id"`
	State      EnrollmentState `json:"state" db:"state"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

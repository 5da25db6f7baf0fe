package services

import (
	"context"

	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/repositories"
)

// CapacityLedger answers seat questions inside the caller's transaction. It
// holds no state of its own: the counts come from the gateway every time.
type CapacityLedger struct {
	// countPending makes PENDING enrollments take a seat at creation time.
	countPending bool
}

// NewCapacityLedger creates a ledger with the given creation-time seat policy.
func NewCapacityLedger(countPendingAtCreation bool) *CapacityLedger {
	return &CapacityLedger{countPending: countPendingAtCreation}
}

// ConfirmedCount returns the number of CONFIRMED enrollments in the offering.
func (l *CapacityLedger) ConfirmedCount(ctx context.Context, tx repositories.Tx, offeringID int64) (int, error) {
	return tx.CountEnrollments(ctx, offeringID, models.EnrollmentConfirmed)
}

// SeatsUsed returns the seats the creation policy considers taken.
func (l *CapacityLedger) SeatsUsed(ctx context.Context, tx repositories.Tx, offeringID int64) (int, error) {
	if l.countPending {
		return tx.CountEnrollments(ctx, offeringID, models.EnrollmentPending, models.EnrollmentConfirmed)
	}
	return l.ConfirmedCount(ctx, tx, offeringID)
}

// HasCapacity reports whether a new enrollment may be created in offering.
func (l *CapacityLedger) HasCapacity(ctx context.Context, tx repositories.Tx, offering *models.Offering) (bool, error) {
	used, err := l.SeatsUsed(ctx, tx, offering.ID)
	if err != nil {
		return false, err
	}
	return used < offering.Capacity, nil
}

// CanConfirm reports whether one more enrollment may become CONFIRMED.
// This is the hard gate behind the capacity invariant.
func (l *CapacityLedger) CanConfirm(ctx context.Context, tx repositories.Tx, offering *models.Offering) (bool, error) {
	confirmed, err := l.ConfirmedCount(ctx, tx, offering.ID)
	if err != nil {
		return false, err
	}
	return confirmed < offering.Capacity, nil
}

package repositories

import (
	"context"
	"time"

	"github.com/yigit/enrollment/internal/app/models"
)

// Gateway is the source of truth for offerings and enrollments.
//
// Reads outside WithinTx see committed data only. Every mutation runs inside
// WithinTx, and the Tx methods hold whatever row or advisory locks the backing
// database needs so that capacity and schedule checks stay valid until commit.
type Gateway interface {
	GetOffering(ctx context.Context, id int64) (*models.Offering, error)
	GetActiveOffering(ctx context.Context, id int64) (*models.Offering, error)
	ListOfferings(ctx context.Context) ([]*models.Offering, error)
	ListActiveOfferings(ctx context.Context, filter models.OfferingFilter) ([]*models.Offering, error)

	GetEnrollment(ctx context.Context, id int64) (*models.Enrollment, error)
	EnrollmentExists(ctx context.Context, offeringID int64, actorID string) (bool, error)
	ListEnrollmentsByOffering(ctx context.Context, offeringID int64, limit, offset int) ([]*models.Enrollment, int64, error)

	// WithinTx runs fn in a single transaction, committed only when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// Tx is the transactional view handed to WithinTx callbacks.
type Tx interface {
	// LockOffering reads the offering and blocks competing writers on it until commit.
	LockOffering(ctx context.Context, id int64) (*models.Offering, error)
	// LockActor serializes transactions that read or extend one actor's schedule.
	LockActor(ctx context.Context, actorID string) error
	LockEnrollment(ctx context.Context, id int64) (*models.Enrollment, error)

	EnrollmentExists(ctx context.Context, offeringID int64, actorID string) (bool, error)
	CountEnrollments(ctx context.Context, offeringID int64, states ...models.EnrollmentState) (int, error)
	// ActorSchedule returns the offerings behind the actor's non-cancelled enrollments.
	ActorSchedule(ctx context.Context, actorID string) ([]*models.Offering, error)
	// ScheduleHolders returns the actors holding a non-cancelled enrollment in the offering.
	ScheduleHolders(ctx context.Context, offeringID int64) ([]string, error)
	InsertEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	UpdateEnrollmentState(ctx context.Context, id int64, state models.EnrollmentState, at time.Time) error

	InsertOffering(ctx context.Context, offering *models.Offering) error
	UpdateOffering(ctx context.Context, offering *models.Offering) error
	SetOfferingActive(ctx context.Context, id int64, active bool, at time.Time) error
}

var (
	_ Gateway = (*PostgresGateway)(nil)
	_ Gateway = (*SQLiteGateway)(nil)
	_ Tx      = (*store)(nil)
)

package models

import (
	"time"

	"github.com/yigit/enrollment/internal/pkg/schedule"
)

// Offering is a time-boxed, capacity-limited unit an actor can enroll in.
type Offering struct {
	ID       int64          `json:"id" db:"id"`
	Code     string         `json:"code" db:"code" validate:"required,max=50,offeringcode"`
	Name     string         `json:"name" db:"name" validate:"required,max=200"`
	Credits  int            `json:"credits" db:"credits" validate:"gt=0"`
	Capacity int            `json:"capacity" db:"capacity" validate:"gt=0"`
	StartsAt schedule.Clock `json:"startsAt" db:"starts_at" validate:"clock"`
	EndsAt   schedule.Clock `json:"endsAt" db:"ends_at" validate:"clock,gtfield=StartsAt"`
	// Active=false is a soft delete: hidden from listings and new enrollments.
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Interval returns the offering's [StartsAt, EndsAt) slot.
func (o *Offering) Interval() schedule.Interval {
	return schedule.Interval{Start: o.StartsAt, End: o.EndsAt}
}

// Overlaps reports whether both offerings claim a common instant.
func (o *Offering) Overlaps(other *Offering) bool {
	return o.Interval().Overlaps(other.Interval())
}

// Ref projects the offering onto the pointer stored for an actor's last visit.
func (o *Offering) Ref() OfferingRef {
	return OfferingRef{ID: o.ID, Code: o.Code, Name: o.Name}
}

// OfferingRef is the small projection of an offering kept in the last-visited pointer.
type OfferingRef struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// OfferingFilter narrows the active offerings listing. A zero filter means "everything".
type OfferingFilter struct {
	NameContains string
	CreditsMin   *int
	CreditsMax   *int
	StartsAt     *schedule.Clock
	EndsAt       *schedule.Clock
}

// IsEmpty reports whether no filter is applied, the only shape the snapshot cache serves.
func (f OfferingFilter) IsEmpty() bool {
	return f.NameContains == "" && f.CreditsMin == nil && f.CreditsMax == nil && f.StartsAt == nil && f.EndsAt == nil
}

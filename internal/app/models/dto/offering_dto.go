package dto

import (
	"strings"
	"time"

	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/schedule"
)

// OfferingRequest is the body of the create and update offering endpoints
type OfferingRequest struct {
	Code     string          `json:"code" binding:"required,max=50" example:"CS101"`
	Name     string          `json:"name" binding:"required,max=200" example:"Introduction to Programming"`
	Credits  int             `json:"credits" binding:"required,gt=0" example:"3"`
	Capacity int             `json:"capacity" binding:"required,gt=0" example:"30"`
	StartsAt *schedule.Clock `json:"startsAt" binding:"required" swaggertype:"string" example:"08:00"`
	EndsAt   *schedule.Clock `json:"endsAt" binding:"required" swaggertype:"string" example:"10:00"`
}

// ToModel converts the request into an offering model
func (r *OfferingRequest) ToModel() *models.Offering {
	o := &models.Offering{
		Code:     r.Code,
		Name:     r.Name,
		Credits:  r.Credits,
		Capacity: r.Capacity,
	}
	if r.StartsAt != nil {
		o.StartsAt = *r.StartsAt
	}
	if r.EndsAt != nil {
		o.EndsAt = *r.EndsAt
	}
	return o
}

// OfferingFilterRequest holds the query parameters of the offerings listing
type OfferingFilterRequest struct {
	Name       string `form:"name"`
	CreditsMin *int   `form:"creditsMin"`
	CreditsMax *int   `form:"creditsMax"`
	StartsAt   string `form:"startsAt"`
	EndsAt     string `form:"endsAt"`
}

// ToFilter parses the request into an offering filter
func (r *OfferingFilterRequest) ToFilter() (models.OfferingFilter, error) {
	filter := models.OfferingFilter{
		NameContains: strings.TrimSpace(r.Name),
		CreditsMin:   r.CreditsMin,
		CreditsMax:   r.CreditsMax,
	}

	parse := func(field, value string) (*schedule.Clock, error) {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, nil
		}
		c, err := schedule.ParseClock(value)
		if err != nil {
			return nil, apperrors.NewValidationError(field, field+" must use the HH:MM format")
		}
		return &c, nil
	}

	var err error
	if filter.StartsAt, err = parse("startsAt", r.StartsAt); err != nil {
		return models.OfferingFilter{}, err
	}
	if filter.EndsAt, err = parse("endsAt", r.EndsAt); err != nil {
		return models.OfferingFilter{}, err
	}
	return filter, nil
}

// OfferingResponse represents an offering in API responses
type OfferingResponse struct {
	ID        int64          `json:"id" example:"1"`
	Code      string         `json:"code" example:"CS101"`
	Name      string         `json:"name" example:"Introduction to Programming"`
	Credits   int            `json:"credits" example:"3"`
	Capacity  int            `json:"capacity" example:"30"`
	StartsAt  schedule.Clock `json:"startsAt" swaggertype:"string" example:"08:00"`
	EndsAt    schedule.Clock `json:"endsAt" swaggertype:"string" example:"10:00"`
	Active    bool           `json:"active" example:"true"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// FromOffering converts a models.Offering to an OfferingResponse
func FromOffering(o *models.Offering) OfferingResponse {
	return OfferingResponse{
		ID:        o.ID,
		Code:      o.Code,
		Name:      o.Name,
		Credits:   o.Credits,
		Capacity:  o.Capacity,
		StartsAt:  o.StartsAt,
		EndsAt:    o.EndsAt,
		Active:    o.Active,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// FromOfferings converts a list of offerings, never returning nil
func FromOfferings(offerings []*models.Offering) []OfferingResponse {
	out := make([]OfferingResponse, 0, len(offerings))
	for _, o := range offerings {
		out = append(out, FromOffering(o))
	}
	return out
}

// OfferingRefResponse is the last-visited pointer
type OfferingRefResponse struct {
	ID   int64  `json:"id" example:"1"`
	Code string `json:"code" example:"CS101"`
	Name string `json:"name" example:"Introduction to Programming"`
}

// FromOfferingRef converts a pointer, keeping nil as nil
func FromOfferingRef(ref *models.OfferingRef) *OfferingRefResponse {
	if ref == nil {
		return nil
	}
	return &OfferingRefResponse{ID: ref.ID, Code: ref.Code, Name: ref.Name}
}

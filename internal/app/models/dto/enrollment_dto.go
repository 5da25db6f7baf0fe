package dto

import (
	"time"

	"github.com/yigit/enrollment/internal/app/models"
)

// SetEnrollmentStateRequest is the body of the enrollment state endpoint
type SetEnrollmentStateRequest struct {
	State string `json:"state" binding:"required,oneof=CONFIRMED CANCELLED" example:"CONFIRMED" enums:"CONFIRMED,CANCELLED"`
}

// EnrollmentResponse represents an enrollment in API responses
type EnrollmentResponse struct {
	ID         int64     `json:"id" example:"10"`
	OfferingID int64     `json:"offeringId" example:"1"`
	ActorID    string    `json:"actorId" example:"42"`
	State      string    `json:"state" example:"PENDING" enums:"PENDING,CONFIRMED,CANCELLED"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FromEnrollment converts a models.Enrollment to an EnrollmentResponse
func FromEnrollment(e *models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         e.ID,
		OfferingID: e.OfferingID,
		ActorID:    e.ActorID,
		State:      string(e.State),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// EnrollmentListResponse is one page of an offering roster
type EnrollmentListResponse struct {
	Enrollments    []EnrollmentResponse `json:"enrollments"`
	PaginationInfo PaginationInfo       `json:"paginationInfo"`
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/models/dto"
	"github.com/yigit/enrollment/internal/app/services"
	"github.com/yigit/enrollment/internal/middleware"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/helpers"
)

// EnrollmentController handles enrollment requests and state changes
type EnrollmentController struct {
	enrollmentService services.EnrollmentService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService services.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
	}
}

// Enroll creates a pending enrollment for the caller
// @Summary Enroll in an offering
// @Description Creates a PENDING enrollment for the authenticated caller. Rejections carry a distinct error code.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offering ID" Format(int64) minimum(1)
// @Success 201 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment created"
// @Failure 400 {object} dto.APIResponse "Invalid offering ID format"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.APIResponse "Offering not found or inactive"
// @Failure 409 {object} dto.APIResponse "Duplicate (ENR_001), no seats (ENR_002), schedule overlap (ENR_003) or retryable conflict (ENR_004)"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /offerings/{id}/enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	offeringID, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	actorID, _, ok := middleware.Actor(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	enrollment, err := c.enrollmentService.Enroll(ctx.Request.Context(), actorID, offeringID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.FromEnrollment(enrollment)))
}

// SetState confirms or cancels a pending enrollment
// @Summary Confirm or cancel an enrollment
// @Description Moves a PENDING enrollment to CONFIRMED or CANCELLED. Confirmation fails when the offering is full.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID" Format(int64) minimum(1)
// @Param request body dto.SetEnrollmentStateRequest true "Target state"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment updated"
// @Failure 400 {object} dto.APIResponse "Invalid request data"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.APIResponse "Forbidden - Administrator role required"
// @Failure 404 {object} dto.APIResponse "Enrollment not found"
// @Failure 409 {object} dto.APIResponse "Enrollment is not pending (ENR_005) or the offering is full (ENR_002)"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /admin/enrollments/{id}/state [put]
func (c *EnrollmentController) SetState(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.SetEnrollmentStateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	_, role, _ := middleware.Actor(ctx)
	enrollment, err := c.enrollmentService.SetState(ctx.Request.Context(), role, id, models.EnrollmentState(req.State))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromEnrollment(enrollment)))
}

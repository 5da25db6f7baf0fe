package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollment/internal/app/models/dto"
	"github.com/yigit/enrollment/internal/app/services"
	"github.com/yigit/enrollment/internal/middleware"
	"github.com/yigit/enrollment/internal/pkg/helpers"
)

// AdminOfferingController handles offering management for administrators
type AdminOfferingController struct {
	offeringService   services.OfferingService
	enrollmentService services.EnrollmentService
}

// NewAdminOfferingController creates a new AdminOfferingController
func NewAdminOfferingController(offeringService services.OfferingService, enrollmentService services.EnrollmentService) *AdminOfferingController {
	return &AdminOfferingController{
		offeringService:   offeringService,
		enrollmentService: enrollmentService,
	}
}

// ListOfferings lists every offering
// @Summary List all offerings
// @Description Lists active and inactive offerings ordered by code
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.OfferingResponse} "Offerings retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.APIResponse "Forbidden - Administrator role required"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /admin/offerings [get]
func (c *AdminOfferingController) ListOfferings(ctx *gin.Context) {
	offerings, err := c.offeringService.ListAll(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromOfferings(offerings)))
}

// CreateOffering handles offering creation
// @Summary Create a new offering
// @Description Creates an active offering. The code is stored upper-case and must be unique.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.OfferingRequest true "Offering information"
// @Success 201 {object} dto.APIResponse{data=dto.OfferingResponse} "Offering created successfully"
// @Failure 400 {object} dto.APIResponse "Invalid request data"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.APIResponse "Forbidden - Administrator role required"
// @Failure 409 {object} dto.APIResponse "Offering code already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /admin/offerings [post]
func (c *AdminOfferingController) CreateOffering(ctx *gin.Context) {
	var req dto.OfferingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	offering, err := c.offeringService.Create(ctx.Request.Context(), req.ToModel())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.FromOffering(offering)))
}

// UpdateOffering updates an existing offering
// @Summary Update an offering
// @Description Replaces the editable fields of an offering. Capacity cannot drop below the confirmed seats.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offering ID" Format(int64) minimum(1)
// @Param request body dto.OfferingRequest true "Updated offering information"
// @Success 200 {object} dto.APIResponse{data=dto.OfferingResponse} "Offering updated successfully"
// @Failure 400 {object} dto.APIResponse "Invalid request data"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.APIResponse "Forbidden - Administrator role required"
// @Failure 404 {object} dto.APIResponse "Offering not found"
// @Failure 409 {object} dto.APIResponse "Offering code already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /admin/offerings/{id} [put]
func (c *AdminOfferingController) UpdateOffering(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.OfferingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	offering, err := c.offeringService.Update(ctx.Request.Context(), id, req.ToModel())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromOffering(offering)))
}

// ToggleActive flips the active flag of an offering
// @Summary Toggle offering activation
// @Description Activates an inactive offering or deactivates an active one
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offering ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.OfferingResponse} "Offering toggled"
// @Failure 400 {object} dto.APIResponse "Invalid offering ID format"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.APIResponse "Forbidden - Administrator role required"
// @Failure 404 {object} dto.APIResponse "Offering not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /admin/offerings/{id}/toggle-active [post]
func (c *AdminOfferingController) ToggleActive(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	offering, err := c.offeringService.ToggleActive(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromOffering(offering)))
}

// ListEnrollments returns one page of an offering roster
// @Summary List offering enrollments
// @Description Lists the enrollments of an offering, newest registration first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offering ID" Format(int64) minimum(1)
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size" default(10) minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentListResponse} "Roster retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid offering ID format"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.APIResponse "Forbidden - Administrator role required"
// @Failure 404 {object} dto.APIResponse "Offering not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /admin/offerings/{id}/enrollments [get]
func (c *AdminOfferingController) ListEnrollments(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	page := helpers.ParsePage(ctx)
	enrollments, total, err := c.enrollmentService.ListOfferingEnrollments(ctx.Request.Context(), id, page.Limit(), page.Offset())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		items = append(items, dto.FromEnrollment(e))
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.EnrollmentListResponse{
		Enrollments:    items,
		PaginationInfo: page.Info(total),
	}))
}

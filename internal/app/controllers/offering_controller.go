package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollment/internal/app/models/dto"
	"github.com/yigit/enrollment/internal/app/services"
	"github.com/yigit/enrollment/internal/middleware"
	"github.com/yigit/enrollment/internal/pkg/helpers"
)

// OfferingController serves the public offering catalogue
type OfferingController struct {
	offeringService services.OfferingService
}

// NewOfferingController creates a new OfferingController
func NewOfferingController(offeringService services.OfferingService) *OfferingController {
	return &OfferingController{
		offeringService: offeringService,
	}
}

// visitorOf identifies the caller for last-visited tracking
func visitorOf(ctx *gin.Context) services.Visitor {
	actorID, _, _ := middleware.Actor(ctx)
	return services.Visitor{
		ActorID:   actorID,
		SessionID: middleware.SessionID(ctx),
	}
}

// ListOfferings lists the active offerings
// @Summary List active offerings
// @Description Lists active offerings ordered by code. Without filters the result may be served from a short-lived snapshot.
// @Tags offerings
// @Produce json
// @Param name query string false "Case-insensitive substring of the offering name"
// @Param creditsMin query int false "Minimum credits"
// @Param creditsMax query int false "Maximum credits"
// @Param startsAt query string false "Only offerings running after this time (HH:MM)"
// @Param endsAt query string false "Only offerings running before this time (HH:MM)"
// @Success 200 {object} dto.APIResponse{data=[]dto.OfferingResponse} "Offerings retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid filter"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /offerings [get]
func (c *OfferingController) ListOfferings(ctx *gin.Context) {
	var req dto.OfferingFilterRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	offerings, err := c.offeringService.ListActive(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromOfferings(offerings)))
}

// GetOffering returns an active offering
// @Summary Get offering details
// @Description Returns an active offering and records it as the caller's last visited offering
// @Tags offerings
// @Produce json
// @Param id path int true "Offering ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.OfferingResponse} "Offering retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid offering ID format"
// @Failure 404 {object} dto.APIResponse "Offering not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /offerings/{id} [get]
func (c *OfferingController) GetOffering(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	offering, err := c.offeringService.GetActive(ctx.Request.Context(), id, visitorOf(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromOffering(offering)))
}

// GetLastVisited returns the caller's last visited offering
// @Summary Get last visited offering
// @Description Returns the last offering the caller viewed or enrolled in, or null. The pointer expires after a short TTL.
// @Tags offerings
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.OfferingRefResponse} "Pointer retrieved, data is null when absent"
// @Router /me/last-visited [get]
func (c *OfferingController) GetLastVisited(ctx *gin.Context) {
	ref, _ := c.offeringService.LastVisited(ctx.Request.Context(), visitorOf(ctx))
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromOfferingRef(ref)))
}

package controllers

import (
	"net/http"

	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/app/services"
	"github.com/elimishatrust/studyloan/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ReviewController serves the staff and admin review surface
type ReviewController struct {
	reviewService *services.ReviewService
	logger        zerolog.Logger
}

// NewReviewController creates a new ReviewController
func NewReviewController(reviewService *services.ReviewService, logger zerolog.Logger) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
		logger:        logger,
	}
}

// ListApplicants returns the latest cycle of every applicant
// @Summary List applicants
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApplicantListResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /admin/students [get]
func (c *ReviewController) ListApplicants(ctx *gin.Context) {
	actor, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	resp, err := c.reviewService.ListApplicants(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetApplicant returns one application in review form
// @Summary Get an applicant
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicantResponse}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /admin/students/{id} [get]
func (c *ReviewController) GetApplicant(ctx *gin.Context) {
	actor, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.reviewService.GetApplicant(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// SetStatus records a decision on an application's latest ledger entry
// @Summary Approve or reject an application
// @Tags staff
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Application ID"
// @Param request body dto.UpdateStatusRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.SubmissionResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /staff/submission/{id} [patch]
func (c *ReviewController) SetStatus(ctx *gin.Context) {
	actor, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	resp, err := c.reviewService.SetStatus(ctx.Request.Context(), actor, id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("applicationID", id).Int64("staffID", actor.ID).Str("status", resp.Status).Msg("Application status updated")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

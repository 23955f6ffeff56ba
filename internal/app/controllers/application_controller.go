package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/app/services"
	"github.com/elimishatrust/studyloan/internal/middleware"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// maxPayloadBytes bounds JSON application payloads
const maxPayloadBytes = 1 << 20

// parseIDParam parses a positive ID parameter from the request path
func parseIDParam(ctx *gin.Context, paramName string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(paramName + " must be a positive integer").WithField(paramName)
	}
	return id, nil
}

// readPayload decodes the request body as an application details payload
func readPayload(ctx *gin.Context) (models.Details, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxPayloadBytes))
	if err != nil {
		return nil, err
	}
	return models.ParsePayload(raw)
}

// ApplicationController handles the applicant's own application
type ApplicationController struct {
	applicationService *services.ApplicationService
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService *services.ApplicationService, logger zerolog.Logger) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		logger:             logger,
	}
}

// Submit finalizes the current cycle
// @Summary Submit the application
// @Tags submissions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=dto.SubmitResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /submissions/submit [post]
func (c *ApplicationController) Submit(ctx *gin.Context) {
	user, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	payload, err := readPayload(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.applicationService.Submit(ctx.Request.Context(), user, payload)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// UpdateDetails merges a partial payload into the unsubmitted application
// @Summary Update application details
// @Tags students
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 423 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /students/me/details [patch]
func (c *ApplicationController) UpdateDetails(ctx *gin.Context) {
	user, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	patch, err := readPayload(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.applicationService.UpdateDetails(ctx.Request.Context(), user, patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetSubmissionStatus reports the state of the caller's latest cycle
// @Summary Get submission status
// @Tags students
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=dto.SubmissionStatusResponse}
// @Router /students/me/submission-status [get]
func (c *ApplicationController) GetSubmissionStatus(ctx *gin.Context) {
	user, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	resp, err := c.applicationService.GetSubmissionStatus(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

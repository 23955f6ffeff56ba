package controllers

import (
	"errors"
	"net/http"

	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/app/services"
	"github.com/elimishatrust/studyloan/internal/middleware"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// multipartOverhead is allowed on top of the file limit for boundaries and headers
const multipartOverhead = 64 << 10

// DocumentController handles supporting document uploads
type DocumentController struct {
	documentService *services.DocumentService
	logger          zerolog.Logger
}

// NewDocumentController creates a new DocumentController
func NewDocumentController(documentService *services.DocumentService, logger zerolog.Logger) *DocumentController {
	return &DocumentController{
		documentService: documentService,
		logger:          logger,
	}
}

// Upload stores one file against the caller's latest application
// @Summary Upload a supporting document
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "Document"
// @Success 201 {object} dto.APIResponse{data=dto.DocumentResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 503 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /uploads/upload [post]
func (c *DocumentController) Upload(ctx *gin.Context) {
	user, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.documentService.MaxUploadBytes()+multipartOverhead)
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.HandleAPIError(ctx, err)
			return
		}
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("file is required").WithField("file"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("file could not be read").WithField("file"))
		return
	}
	defer file.Close()

	doc, err := c.documentService.Upload(ctx.Request.Context(), user, services.Upload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     file,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(doc))
}

// List returns the documents of the caller's latest application
// @Summary List uploaded documents
// @Tags uploads
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=dto.DocumentListResponse}
// @Router /uploads [get]
func (c *DocumentController) List(ctx *gin.Context) {
	user, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	resp, err := c.documentService.List(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

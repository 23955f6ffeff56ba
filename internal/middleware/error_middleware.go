package middleware

import (
	"errors"
	"net/http"

	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// kindResponses maps each error kind to its HTTP status and default code
var kindResponses = map[apperrors.Kind]struct {
	status int
	code   dto.ErrorCode
}{
	apperrors.KindUnauthorized:      {http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
	apperrors.KindForbidden:         {http.StatusForbidden, dto.ErrorCodeForbidden},
	apperrors.KindNotFound:          {http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	apperrors.KindConflict:          {http.StatusConflict, dto.ErrorCodeConflict},
	apperrors.KindLocked:            {http.StatusLocked, dto.ErrorCodeLocked},
	apperrors.KindInvalidStatus:     {http.StatusBadRequest, dto.ErrorCodeInvalidStatus},
	apperrors.KindValidation:        {http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	apperrors.KindDependencyFailure: {http.StatusServiceUnavailable, dto.ErrorCodeDependencyFailure},
	apperrors.KindInternal:          {http.StatusInternalServerError, dto.ErrorCodeInternalServer},
}

// HandleAPIError writes the error envelope for err.
// Causes of dependency and internal failures are logged, never returned.
func HandleAPIError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		detail := dto.NewErrorDetail(dto.ErrorCodePayloadTooLarge, "request body too large").
			WithKind(string(apperrors.KindValidation)).
			WithDetails(map[string]interface{}{"maxBytes": tooLarge.Limit})
		c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(detail))
		return
	}

	kind := apperrors.KindOf(err)
	resp, ok := kindResponses[kind]
	if !ok {
		resp = kindResponses[apperrors.KindInternal]
	}

	code := resp.code
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		code = dto.ErrorCodeInvalidCredentials
	case errors.Is(err, apperrors.ErrTokenExpired):
		code = dto.ErrorCodeExpiredToken
	case errors.Is(err, apperrors.ErrTokenInvalid):
		code = dto.ErrorCodeInvalidToken
	}

	detail := dto.NewErrorDetail(code, apperrors.Message(err)).WithKind(string(kind))

	var ce *apperrors.CustomError
	if errors.As(err, &ce) {
		if ce.Field != "" {
			detail = detail.WithField(ce.Field)
		}
		if len(ce.Details) > 0 {
			detail = detail.WithDetails(ce.Details)
		}
	}

	switch kind {
	case apperrors.KindDependencyFailure:
		detail = detail.WithSeverity(dto.ErrorSeverityCritical)
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Dependency failure")
	case apperrors.KindInternal:
		detail.Message = "internal server error"
		detail = detail.WithSeverity(dto.ErrorSeverityCritical)
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
	case apperrors.KindUnauthorized, apperrors.KindForbidden:
		detail = detail.WithSeverity(dto.ErrorSeverityWarning)
	}

	c.JSON(resp.status, dto.NewErrorResponse(detail))
}

// HandleBindingError reports a request that could not be decoded or failed its binding rules
func HandleBindingError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}

// Recovery turns panics into an Internal error response
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		HandleAPIError(c, errors.New("panic"))
		c.Abort()
	})
}

// NoRoute answers unknown paths with the error envelope
func NoRoute(c *gin.Context) {
	HandleAPIError(c, apperrors.NewResourceNotFoundError("route not found"))
}

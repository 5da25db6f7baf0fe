package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/enrollment/internal/app/models/dto"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/logger"
	"github.com/yigit/enrollment/internal/pkg/schedule"
	"github.com/yigit/enrollment/internal/pkg/validation"
)

// StatusClientClosedRequest is reported when the caller went away before the response was written.
const StatusClientClosedRequest = 499

// HandleAPIError maps err to a status code and error envelope and writes it
func HandleAPIError(c *gin.Context, err error) {
	status, detail := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error().Err(err).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func errorResponse(err error) (int, *dto.ErrorDetail) {
	var fieldErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var numErr *strconv.NumError

	switch {
	case errors.As(err, &fieldErrs):
		messages := validation.Messages(err)
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").WithDetails(messages)
		if len(fieldErrs) > 0 {
			detail = detail.WithField(fieldErrs[0].Field())
		}
		return http.StatusBadRequest, detail
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.As(err, &numErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format").
			WithDetails(err.Error())
	case errors.Is(err, schedule.ErrInvalidClock):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Times must use the HH:MM format").
			WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrValidationFailed):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message(err, "Validation failed"))
		if field := fieldOf(err); field != "" {
			detail = detail.WithField(field)
		}
		return http.StatusBadRequest, detail
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message(err, "Resource not found"))
	case errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict, rejection(dto.ErrorCodeDuplicateEnrollment, err)
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		return http.StatusConflict, rejection(dto.ErrorCodeCapacityExceeded, err)
	case errors.Is(err, apperrors.ErrScheduleOverlap):
		return http.StatusConflict, rejection(dto.ErrorCodeScheduleOverlap, err)
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return http.StatusConflict, rejection(dto.ErrorCodeInvalidTransition, err)
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConcurrencyConflict, apperrors.ErrConcurrencyConflict.Error()).
			AsRetryable()
	case errors.Is(err, apperrors.ErrOfferingAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, err.Error()).WithField("code")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, message(err, "Permission denied"))
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, dto.NewErrorDetail(dto.ErrorCodeTimeout, "Request timed out").AsRetryable()
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, dto.NewErrorDetail(dto.ErrorCodeRequestAborted, "Request canceled")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}

// rejection renders a business rule refusal, keeping the context the service attached
func rejection(code dto.ErrorCode, err error) *dto.ErrorDetail {
	return dto.NewErrorDetail(code, err.Error()).WithSeverity(dto.ErrorSeverityWarning)
}

func message(err error, fallback string) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	return fallback
}

func fieldOf(err error) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Details != nil {
		if field, ok := custom.Details["field"].(string); ok {
			return field
		}
	}
	return ""
}

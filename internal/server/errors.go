package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	paymentlogdomain "github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	propertydomain "github.com/smallbiznis/rentbill/internal/property/domain"
	readingdomain "github.com/smallbiznis/rentbill/internal/reading/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := domainCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    code,
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    domainCode(err),
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    domainCode(err),
			Message: "conflict",
		}
	case isInvalidStateError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invalid_state",
			Code:    domainCode(err),
			Message: strings.ReplaceAll(domainCode(err), "_", " "),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidPeriod),
		errors.Is(err, invoicedomain.ErrInvalidActor),
		errors.Is(err, invoicedomain.ErrInvalidStatus),
		errors.Is(err, invoicedomain.ErrInvalidPageToken),
		errors.Is(err, invoicedomain.ErrEmailRequired),
		errors.Is(err, paymentlogdomain.ErrInvalidInvoiceID),
		errors.Is(err, paymentlogdomain.ErrInvalidPageToken),
		errors.Is(err, readingdomain.ErrInvalidID),
		errors.Is(err, readingdomain.ErrInvalidActor),
		errors.Is(err, readingdomain.ErrInvalidPeriod),
		errors.Is(err, readingdomain.ErrInvalidMeterType),
		errors.Is(err, readingdomain.ErrInvalidIndexValue),
		errors.Is(err, readingdomain.ErrInvalidMeterIndex):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, propertydomain.ErrBuildingNotFound),
		errors.Is(err, propertydomain.ErrRoomNotFound),
		errors.Is(err, propertydomain.ErrTenantNotFound),
		errors.Is(err, readingdomain.ErrUtilityReadingNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrInvoiceAlreadyExists),
		errors.Is(err, invoicedomain.ErrInvoiceStatusChanged),
		errors.Is(err, invoicedomain.ErrInvoiceAlreadyPaid),
		errors.Is(err, readingdomain.ErrUtilityReadingExists):
		return true
	default:
		return false
	}
}

func isInvalidStateError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrInvoiceCannotBePaid),
		errors.Is(err, invoicedomain.ErrInvoiceCannotBeVoided),
		errors.Is(err, invoicedomain.ErrInvoiceCannotBeIssued):
		return true
	default:
		return false
	}
}

// domainCode returns the sentinel code wrapped anywhere in err.
func domainCode(err error) string {
	for _, target := range knownErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

var knownErrors = []error{
	invoicedomain.ErrInvoiceNotFound,
	invoicedomain.ErrInvoiceAlreadyExists,
	invoicedomain.ErrInvoiceStatusChanged,
	invoicedomain.ErrInvoiceAlreadyPaid,
	invoicedomain.ErrInvoiceCannotBePaid,
	invoicedomain.ErrInvoiceCannotBeVoided,
	invoicedomain.ErrInvoiceCannotBeIssued,
	invoicedomain.ErrEmailRequired,
	invoicedomain.ErrInvalidID,
	invoicedomain.ErrInvalidPeriod,
	invoicedomain.ErrInvalidActor,
	invoicedomain.ErrInvalidStatus,
	invoicedomain.ErrInvalidPageToken,
	propertydomain.ErrBuildingNotFound,
	propertydomain.ErrRoomNotFound,
	propertydomain.ErrTenantNotFound,
	readingdomain.ErrUtilityReadingNotFound,
	readingdomain.ErrUtilityReadingExists,
	readingdomain.ErrInvalidMeterIndex,
	readingdomain.ErrInvalidIndexValue,
	readingdomain.ErrInvalidMeterType,
	paymentlogdomain.ErrInvalidInvoiceID,
	paymentlogdomain.ErrInvalidPageToken,
	ErrNotFound,
	ErrInvalidRequest,
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "email_required":
		return "email"
	case "invalid_meter_index", "invalid_index_value":
		return "index"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_meter_index":
		return "meter index is lower than the previous period"
	case "email_required":
		return "tenant has no email address"
	default:
		return "invalid value"
	}
}

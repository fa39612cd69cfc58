package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"TickerLens/internal/calculator"
	"TickerLens/internal/collector"
	"TickerLens/internal/export"
)

// Error codes returned in AppError.Code.
const (
	CodeValidation       = "ERR_VALIDATION"
	CodeSymbolNotFound   = "ERR_SYMBOL_NOT_FOUND"
	CodeInsufficientData = "ERR_INSUFFICIENT_DATA"
	CodeUpstream         = "ERR_UPSTREAM"
	CodeNotFound         = "ERR_NOT_FOUND"
	CodeInternal         = "ERR_INTERNAL"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

// WithParam sets a single error param.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// ValidationErrors is a 400 response carrying one entry per failed field.
type ValidationErrors []*AppError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	return v[0].Message
}

// APIResponse is the JSON envelope for every API reply.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []*AppError `json:"errors,omitempty"`
}

// MapError converts a domain error into an AppError.
func MapError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ide *calculator.InsufficientDataError
	switch {
	case errors.Is(err, collector.ErrInvalidSymbol):
		return NewAppError(CodeValidation, "symbol", "symbol is required", http.StatusBadRequest).WithError(err)
	case errors.Is(err, calculator.ErrDaysOutOfRange):
		return NewAppError(CodeValidation, "days",
			fmt.Sprintf("days must be between %d and %d", calculator.MinDaysToAnalyze, calculator.MaxDaysToAnalyze),
			http.StatusBadRequest).WithError(err)
	case errors.Is(err, export.ErrUnknownFormat):
		return NewAppError(CodeValidation, "format", "format must be one of: csv, xlsx, db", http.StatusBadRequest).WithError(err)
	case errors.Is(err, collector.ErrEmptySeries):
		return NewAppError(CodeSymbolNotFound, "symbol",
			"No data found. Please check the stock symbol.", http.StatusNotFound).WithError(err)
	case errors.As(err, &ide):
		return NewAppError(CodeInsufficientData, "days",
			"Not enough price history for the selected window.", http.StatusUnprocessableEntity).
			WithParam("have", ide.Have).
			WithParam("need", ide.Need).
			WithError(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewAppError(CodeUpstream, "", "Market data request timed out.", http.StatusBadGateway).WithError(err)
	default:
		return NewAppError(CodeUpstream, "", "Market data is unavailable right now.", http.StatusBadGateway).WithError(err)
	}
}

// errorHandler renders every error returned by a handler as an APIResponse.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		errs   []*AppError
	)
	var verrs ValidationErrors
	var he *echo.HTTPError
	switch {
	case errors.As(err, &verrs):
		status, errs = http.StatusBadRequest, verrs
	case errors.As(err, &he):
		status = he.Code
		code := CodeInternal
		if status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
			code = CodeNotFound
		}
		errs = []*AppError{NewAppError(code, "", fmt.Sprint(he.Message), status)}
	default:
		appErr := MapError(err)
		status, errs = appErr.Status, []*AppError{appErr}
	}

	resp := APIResponse{Status: status, Message: http.StatusText(status), Errors: errs}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, resp)
}

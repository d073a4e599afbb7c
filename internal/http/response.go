package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/otel"
)

// statusCoder is implemented by errors that carry an HTTP status, such as backend errors.
type statusCoder interface {
	StatusCode() int
}

// fieldErrorer is implemented by form validation errors.
type fieldErrorer interface {
	FieldErrors() map[string]string
}

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KEY_TAG, "WriteJsonResponse").Logger()

	w.Header().Set(KEY_HEADER_CONTENT_TYPE, VALUE_HEADER_APPLICATION_JSON)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"].(int); ok {
		w.WriteHeader(v)
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}

func WriteSuccess(
	c context.Context,
	w http.ResponseWriter,
	statusCode int,
	message string,
	data map[string]interface{},
) {
	body := map[string]interface{}{
		"status":     STATUS_SUCCESS,
		"statusCode": statusCode,
		"message":    message,
	}
	if data != nil {
		body["data"] = data
	}
	WriteJsonResponse(c, w, map[string]string{}, body)
}

// WriteFailure maps err to the failed envelope. Errors carrying a status keep it,
// validation errors become 422 with a per-field map, anything else falls back to fallbackStatus.
func WriteFailure(c context.Context, w http.ResponseWriter, fallbackStatus int, err error) {
	WriteFailureWith(c, w, fallbackStatus, err, nil)
}

// WriteFailureWith is WriteFailure that also returns data, so a form can be re-rendered with what was submitted.
func WriteFailureWith(
	c context.Context,
	w http.ResponseWriter,
	fallbackStatus int,
	err error,
	data map[string]interface{},
) {
	statusCode := StatusFromError(err, fallbackStatus)
	body := map[string]interface{}{
		"status":     STATUS_FAILED,
		"statusCode": statusCode,
		"message":    MessageFromError(err),
	}
	var fe fieldErrorer
	if errors.As(err, &fe) {
		body["errors"] = fe.FieldErrors()
	}
	if data != nil {
		body["data"] = data
	}
	WriteJsonResponse(c, w, map[string]string{}, body)
}

func StatusFromError(err error, fallback int) int {
	var fe fieldErrorer
	if errors.As(err, &fe) {
		return http.StatusUnprocessableEntity
	}
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() != 0 {
		return sc.StatusCode()
	}
	switch {
	case errors.Is(err, inErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrEmptyAuth),
		errors.Is(err, inErrors.ErrTokenInvalid),
		errors.Is(err, inErrors.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, inErrors.ErrInvalidTransition),
		errors.Is(err, inErrors.ErrCheckoutNotReady),
		errors.Is(err, inErrors.ErrEmptyCart):
		return http.StatusConflict
	case errors.Is(err, inErrors.ErrTooManyRequests):
		return http.StatusTooManyRequests
	}
	return fallback
}

// MessageFromError returns the outermost user-facing message. Wrapped internal chains
// ("failed X with error=...") are reduced to the innermost cause so forms show a readable line.
func MessageFromError(err error) string {
	if err == nil {
		return ""
	}
	var fe fieldErrorer
	if errors.As(err, &fe) {
		return inErrors.ErrValidation.Error()
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		if e, ok := sc.(error); ok {
			return e.Error()
		}
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

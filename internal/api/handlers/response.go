package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string            `json:"error"`
	Type   string            `json:"type,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// statusFor maps an error type to its HTTP status
func statusFor(errorType apperrors.ErrorType) int {
	switch errorType {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeInvalidDuration:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeInvalidTransition, apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondWithAppError writes err with the status its type maps to.
// Internal details are logged, never returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
		respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Type: string(apperrors.ErrorTypeInternal)})
		return
	}

	status := statusFor(appErr.Type)
	message := appErr.Message
	if status == http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		if appErr.Type == apperrors.ErrorTypeInternal {
			message = "internal server error"
		}
	}
	respondWithJSON(w, status, ErrorResponse{Error: message, Type: string(appErr.Type), Fields: appErr.Fields})
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewFieldValidationError(name+" must be an integer", map[string]string{name: "numeric"})
	}
	return v, nil
}

// presenter decorates entities for a request
type presenter struct {
	locale lifecycle.Locale
	now    func() time.Time
}

func newPresenter(locale lifecycle.Locale) presenter {
	if locale == "" {
		locale = lifecycle.LocaleEnglish
	}
	return presenter{locale: locale, now: time.Now}
}

// SetClock replaces the clock used to build views
func (p *presenter) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// localeFor reads ?locale=, then Accept-Language, then the default
func (p presenter) localeFor(r *http.Request) lifecycle.Locale {
	if raw := r.URL.Query().Get("locale"); raw != "" {
		return lifecycle.ParseLocale(raw)
	}
	if lang := r.Header.Get("Accept-Language"); len(lang) >= 2 {
		if l := lifecycle.Locale(lang[:2]); l == lifecycle.LocaleSpanish || l == lifecycle.LocaleEnglish {
			return l
		}
	}
	return p.locale
}

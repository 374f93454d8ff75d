package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/camden-git/namerecall/media"
	"github.com/camden-git/namerecall/models"
	"github.com/camden-git/namerecall/registry"
	"github.com/camden-git/namerecall/session"
	"github.com/camden-git/namerecall/store"
	"github.com/camden-git/namerecall/workers"
)

// Error codes used in APIErrorDetail.Code.
const (
	CodeNotFound             = "not_found"
	CodeInvalidRequest       = "invalid_request"
	CodeConfirmationRequired = "confirmation_required"
	CodePersistenceFailed    = "persistence_failed"
	CodeUnsupportedImage     = "unsupported_image"
	CodeUploadTooLarge       = "upload_too_large"
	CodeSuperseded           = "superseded"
	CodeUnavailable          = "unavailable"
	CodeInternal             = "internal_error"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body. Person is
// set when a change was applied in memory but could not be stored.
type APIErrorResponse struct {
	Errors []APIErrorDetail     `json:"errors"`
	Person *session.PersonView `json:"person,omitempty"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	writeAPIErrorResponse(w, httpStatus, code, detail, nil)
}

func writeAPIErrorResponse(w http.ResponseWriter, httpStatus int, code, detail string, person *session.PersonView) {
	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
		Person: person,
	}

	body, err := json.Marshal(resp)
	if err != nil {
		// the person could not be encoded; report the error without it
		resp.Person = nil
		body, _ = json.Marshal(resp)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(append(body, '\n'))
}

// classifyError maps domain errors onto an HTTP status and error code.
func classifyError(err error) (int, string) {
	var notFound *registry.NotFoundError
	switch {
	case errors.As(err, &notFound), errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, session.ErrNotConfirmed):
		return http.StatusPreconditionRequired, CodeConfirmationRequired
	case errors.Is(err, store.ErrPersistence):
		return http.StatusInsufficientStorage, CodePersistenceFailed
	case errors.Is(err, workers.ErrSuperseded):
		return http.StatusConflict, CodeSuperseded
	case errors.Is(err, media.ErrUnsupportedImage), errors.Is(err, media.ErrEmptyUpload):
		return http.StatusUnsupportedMediaType, CodeUnsupportedImage
	case errors.Is(err, workers.ErrQueueFull), errors.Is(err, workers.ErrStopped):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError writes err in the error envelope. person is attached for
// persistence failures, where the change stands in memory.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, person *session.PersonView) {
	status, code := classifyError(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		detail = "Internal server error"
	}
	if code != CodePersistenceFailed {
		person = nil
	}
	writeAPIErrorResponse(w, status, code, detail, person)
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"gitlab.com/toku-assess.net/internal/domain"
)

type ErrorMessage struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func WriteError(w http.ResponseWriter, err ErrorMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	_ = json.NewEncoder(w).Encode(err)
}

func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteDomainError maps err to a status code. Messages of 5xx responses are
// replaced with the status text.
func WriteDomainError(w http.ResponseWriter, err error) {
	status := StatusFromError(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	WriteError(w, ErrorMessage{Message: msg, StatusCode: status})
}

func StatusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrChallengeNotFound), errors.Is(err, domain.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSubmission), errors.Is(err, domain.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGradingInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, domain.ErrSandboxUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSandboxRejected), errors.Is(err, domain.ErrInvalidChallenge):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

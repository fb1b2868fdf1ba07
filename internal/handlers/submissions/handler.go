package submissions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/services/assessment"
	"gitlab.com/toku-assess.net/internal/domain"
	"gitlab.com/toku-assess.net/internal/handlers"
	"gitlab.com/toku-assess.net/internal/handlers/response"
)

const maxBodyBytes = 256 << 10

// SubmissionHandler handles grading and run requests
type SubmissionHandler struct {
	service assessment.IAssessmentService
	logger  primary.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(service assessment.IAssessmentService, logger primary.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the API routes for SubmissionHandler, all behind JWT
func (h *SubmissionHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	api := router.PathPrefix("/api").Subrouter()
	api.Use(mw.JWTMiddleware)
	api.HandleFunc("/challenges/{slug}/submissions", h.Submit).Methods(http.MethodPost)
	api.HandleFunc("/submissions/{submissionId}", h.GetSubmission).Methods(http.MethodGet)
	api.HandleFunc("/run", h.Run).Methods(http.MethodPost)
}

// Submit grades a submission synchronously
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	principal, _ := handlers.PrincipalFromContext(r.Context())

	var req SubmitRequest
	if err := decode(w, r, &req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Invalid request", StatusCode: http.StatusBadRequest})
		return
	}
	if req.SubmissionID == "" {
		req.SubmissionID = uuid.NewString()
	}

	result, err := h.service.GradeSubmission(r.Context(), &domain.Submission{
		ID:            req.SubmissionID,
		LearnerID:     principal.Subject,
		ChallengeSlug: mux.Vars(r)["slug"],
		Language:      req.Language,
		Source:        req.Source,
	})
	if err != nil {
		h.logger.Warn("Failed to grade submission", "submissionId", req.SubmissionID, "error", err)
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, Redact(result))
}

// GetSubmission returns a stored result to its learner or an admin
func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	principal, _ := handlers.PrincipalFromContext(r.Context())
	submissionID := mux.Vars(r)["submissionId"]

	result, err := h.service.GetSubmissionResult(r.Context(), submissionID)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	if result.LearnerID != principal.Subject && !principal.HasRole(domain.RoleAdmin) {
		response.WriteDomainError(w, domain.ErrSubmissionNotFound)
		return
	}
	response.WriteSuccess(w, Redact(result))
}

// Run executes code once against custom stdin
func (h *SubmissionHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decode(w, r, &req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Invalid request", StatusCode: http.StatusBadRequest})
		return
	}

	result, err := h.service.RunCode(r.Context(), req.Language, req.Source, req.Stdin)
	if errors.Is(err, domain.ErrTimeout) {
		result, err = &domain.ExecutionResult{Status: domain.ExitTimeout}, nil
	}
	if err != nil {
		h.logger.Warn("Failed to run code", "language", req.Language, "error", err)
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, result)
}

// Redact clears output and message of hidden cases
func Redact(result *domain.SubmissionResult) *domain.SubmissionResult {
	out := *result
	out.Verdicts = make([]domain.CaseVerdict, len(result.Verdicts))
	for i, v := range result.Verdicts {
		if v.Hidden {
			v.Output = ""
			v.Message = ""
		}
		out.Verdicts[i] = v
	}
	return &out
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

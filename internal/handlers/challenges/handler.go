package challenges

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/services/assessment"
	"gitlab.com/toku-assess.net/internal/domain"
	"gitlab.com/toku-assess.net/internal/handlers"
	"gitlab.com/toku-assess.net/internal/handlers/response"
)

// CacheInvalidator drops cached catalog data of one challenge
type CacheInvalidator interface {
	Invalidate(ctx context.Context, slug string) error
}

// ChallengeHandler handles catalog API requests
type ChallengeHandler struct {
	service assessment.IAssessmentService
	cache   CacheInvalidator
	logger  primary.Logger
}

// NewChallengeHandler creates a catalog handler. cache may be nil.
func NewChallengeHandler(service assessment.IAssessmentService, cache CacheInvalidator, logger primary.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		service: service,
		cache:   cache,
		logger:  logger,
	}
}

// RegisterRoutes registers the API routes for ChallengeHandler
func (h *ChallengeHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	router.HandleFunc("/api/challenges", h.ListChallenges).Methods(http.MethodGet)
	router.HandleFunc("/api/challenges/{slug}", h.GetChallenge).Methods(http.MethodGet)
	router.HandleFunc("/api/languages", h.ListLanguages).Methods(http.MethodGet)

	if h.cache != nil {
		admin := router.PathPrefix("/api/admin").Subrouter()
		admin.Use(mw.JWTMiddleware, mw.RequireRole(domain.RoleAdmin))
		admin.HandleFunc("/challenges/{slug}/cache", h.InvalidateChallenge).Methods(http.MethodDelete)
	}
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r)
	if err != nil {
		response.WriteError(w, response.ErrorMessage{Message: err.Error(), StatusCode: http.StatusBadRequest})
		return
	}

	challenges, err := h.service.ListChallenges(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list challenges", "error", err)
		response.WriteDomainError(w, err)
		return
	}

	summaries := make([]ChallengeSummary, 0, len(challenges))
	for _, c := range challenges {
		summaries = append(summaries, toSummary(c))
	}
	response.WriteSuccess(w, map[string]interface{}{"challenges": summaries})
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.service.GetChallengeBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, toDetail(challenge))
}

func (h *ChallengeHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, map[string][]string{"languages": h.service.SupportedLanguages()})
}

func (h *ChallengeHandler) InvalidateChallenge(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if err := h.cache.Invalidate(r.Context(), slug); err != nil {
		h.logger.Error("Failed to invalidate challenge cache", "slug", slug, "error", err)
		response.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ParseFilter reads difficulty, language, tag and q. List parameters may be
// repeated or comma separated.
func ParseFilter(r *http.Request) (domain.ChallengeFilter, error) {
	q := r.URL.Query()
	filter := domain.ChallengeFilter{
		Languages: splitValues(q["language"]),
		Tags:      splitValues(q["tag"]),
		Query:     strings.TrimSpace(q.Get("q")),
	}
	for _, raw := range splitValues(q["difficulty"]) {
		d, err := domain.ParseDifficulty(raw)
		if err != nil {
			return domain.ChallengeFilter{}, err
		}
		filter.Difficulties = append(filter.Difficulties, d)
	}
	return filter, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

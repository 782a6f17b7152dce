package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/core/service"
)

const (
	groceryConfidence      = 0.8
	personalizedConfidence = 0.85
)

type RecommendationHandler struct {
	recommender *service.RecommendationService
	log         *logrus.Entry
	now         func() time.Time
}

type grocerySuggestionsRequest struct {
	CartItems []string `json:"cartItems"`
}

type personalizedRequest struct {
	CartItems      []string `json:"cartItems"`
	UserID         string   `json:"userId"`
	MaxSuggestions *int     `json:"maxSuggestions" validate:"omitnil,gt=0,lte=20"`
}

func NewRecommendationHandler(recommender *service.RecommendationService, log *logrus.Entry) *RecommendationHandler {
	return &RecommendationHandler{recommender: recommender, log: log, now: time.Now}
}

func (h *RecommendationHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/recommendations/health", HealthCheck("ai-service")).Methods(http.MethodGet)
	r.HandleFunc("/api/recommendations/grocery-suggestions", h.GrocerySuggestions).Methods(http.MethodPost)
	r.HandleFunc("/api/recommendations/personalized", h.Personalized).Methods(http.MethodPost)
	r.HandleFunc("/api/grocery-suggestions", h.LegacyGrocerySuggestions).Methods(http.MethodPost)
}

func (h *RecommendationHandler) GrocerySuggestions(w http.ResponseWriter, r *http.Request) {
	var req grocerySuggestionsRequest
	if err := decodeBody(r, &req, "Invalid request data"); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.Recommendation{
		Suggestions: h.recommender.GrocerySuggestions(req.CartItems),
		Confidence:  groceryConfidence,
		GeneratedAt: h.now().UTC(),
	})
}

func (h *RecommendationHandler) Personalized(w http.ResponseWriter, r *http.Request) {
	var req personalizedRequest
	if err := decodeBody(r, &req, "Invalid request data"); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	max := service.DefaultPersonalizedResults
	if req.MaxSuggestions != nil {
		max = *req.MaxSuggestions
	}

	writeJSON(w, http.StatusOK, domain.Recommendation{
		Suggestions: h.recommender.PersonalizedRecommendations(req.CartItems, req.UserID, max),
		UserID:      req.UserID,
		Confidence:  personalizedConfidence,
		GeneratedAt: h.now().UTC(),
	})
}

// LegacyGrocerySuggestions serves older storefront builds that expect the bare list.
func (h *RecommendationHandler) LegacyGrocerySuggestions(w http.ResponseWriter, r *http.Request) {
	var req grocerySuggestionsRequest
	if err := decodeBody(r, &req, "Invalid request data"); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.Suggestions{
		Suggestions: h.recommender.GrocerySuggestions(req.CartItems),
	})
}

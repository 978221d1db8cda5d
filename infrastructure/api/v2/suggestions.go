// Package v2 implements the /v2 HTTP routes: suggestions, catalog
// items, saved outfits, and the admin embedding refresh.
package v2

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stylo-app/stylo"
	"github.com/stylo-app/stylo/application/service"
	"github.com/stylo-app/stylo/infrastructure/api/middleware"
)

// SuggestionsRouter handles the outfit suggestion endpoint.
type SuggestionsRouter struct {
	client *stylo.Client
	logger *slog.Logger
}

// NewSuggestionsRouter creates a new SuggestionsRouter.
func NewSuggestionsRouter(client *stylo.Client) *SuggestionsRouter {
	return &SuggestionsRouter{
		client: client,
		logger: client.Logger().Slog(),
	}
}

// Routes returns the chi router for suggestion endpoints.
func (r *SuggestionsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Suggest)

	return router
}

// SuggestionRequest is the body of POST /v2/suggestions.
type SuggestionRequest struct {
	Text  string `json:"text"`
	Limit int    `json:"limit,omitempty"`
}

// Suggest handles POST /v2/suggestions.
func (r *SuggestionsRouter) Suggest(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body SuggestionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", service.ErrInvalidInput, err), r.logger)
		return
	}

	resp, err := r.client.Suggestions.Suggest(ctx, middleware.OwnerID(ctx), body.Text, body.Limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

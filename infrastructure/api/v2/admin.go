package v2

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stylo-app/stylo"
	"github.com/stylo-app/stylo/infrastructure/api/middleware"
)

// AdminRouter handles administrative endpoints.
type AdminRouter struct {
	client *stylo.Client
	logger *slog.Logger
}

// NewAdminRouter creates a new AdminRouter.
func NewAdminRouter(client *stylo.Client) *AdminRouter {
	return &AdminRouter{
		client: client,
		logger: client.Logger().Slog(),
	}
}

// Routes returns the chi router for admin endpoints.
func (r *AdminRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/embeddings/refresh", r.RefreshEmbeddings)

	return router
}

// RefreshResponse reports how many items a refresh embedded.
type RefreshResponse struct {
	Refreshed int `json:"refreshed"`
}

// RefreshEmbeddings handles POST /v2/admin/embeddings/refresh. It
// embeds every item of the calling owner that lacks a stored vector;
// running it twice in a row refreshes zero the second time.
func (r *AdminRouter) RefreshEmbeddings(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	refreshed, err := r.client.Embeddings.RefreshMissing(ctx, middleware.OwnerID(ctx))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, RefreshResponse{Refreshed: refreshed})
}

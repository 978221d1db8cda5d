package v2

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stylo-app/stylo"
	"github.com/stylo-app/stylo/application/service"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/infrastructure/api/middleware"
)

// OutfitsRouter handles the saved outfit endpoints.
type OutfitsRouter struct {
	client *stylo.Client
	logger *slog.Logger
}

// NewOutfitsRouter creates a new OutfitsRouter.
func NewOutfitsRouter(client *stylo.Client) *OutfitsRouter {
	return &OutfitsRouter{
		client: client,
		logger: client.Logger().Slog(),
	}
}

// Routes returns the chi router for saved outfit endpoints.
func (r *OutfitsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Save)
	router.Get("/{id}", r.Get)
	router.Delete("/{id}", r.Delete)
	router.Patch("/{id}/pin", r.Pin)

	return router
}

// OutfitResponse is the wire shape of one saved outfit.
type OutfitResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Items     map[string]string `json:"items"`
	Pinned    bool              `json:"pinned"`
	CreatedAt time.Time         `json:"created_at"`
}

// SaveOutfitRequest is the body of POST /v2/outfits.
type SaveOutfitRequest struct {
	Name  string            `json:"name"`
	Items map[string]string `json:"items"`
}

// PinRequest is the body of PATCH /v2/outfits/{id}/pin.
type PinRequest struct {
	Pinned bool `json:"pinned"`
}

func outfitResponse(outfit wardrobe.SavedOutfit) OutfitResponse {
	items := make(map[string]string, len(outfit.Items()))
	for slot, itemID := range outfit.Items() {
		items[slot.String()] = itemID
	}
	return OutfitResponse{
		ID:        outfit.ID(),
		Name:      outfit.Name(),
		Items:     items,
		Pinned:    outfit.Pinned(),
		CreatedAt: outfit.CreatedAt(),
	}
}

// List handles GET /v2/outfits. ?pinned=true restricts to pinned looks.
func (r *OutfitsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pinnedOnly := req.URL.Query().Get("pinned") == "true"

	outfits, err := r.client.Outfits.List(ctx, middleware.OwnerID(ctx), pinnedOnly)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	responses := make([]OutfitResponse, len(outfits))
	for i, outfit := range outfits {
		responses[i] = outfitResponse(outfit)
	}
	middleware.WriteJSON(w, http.StatusOK, responses)
}

// Save handles POST /v2/outfits.
func (r *OutfitsRouter) Save(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body SaveOutfitRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", service.ErrInvalidInput, err), r.logger)
		return
	}

	outfit, err := r.client.Outfits.Save(ctx, middleware.OwnerID(ctx), service.OutfitParams{
		Name:  body.Name,
		Items: body.Items,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, outfitResponse(outfit))
}

// Get handles GET /v2/outfits/{id}.
func (r *OutfitsRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	outfit, err := r.client.Outfits.Get(ctx, middleware.OwnerID(ctx), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, outfitResponse(outfit))
}

// Delete handles DELETE /v2/outfits/{id}.
func (r *OutfitsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if err := r.client.Outfits.Delete(ctx, middleware.OwnerID(ctx), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Pin handles PATCH /v2/outfits/{id}/pin.
func (r *OutfitsRouter) Pin(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body PinRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", service.ErrInvalidInput, err), r.logger)
		return
	}

	outfit, err := r.client.Outfits.SetPinned(ctx, middleware.OwnerID(ctx), chi.URLParam(req, "id"), body.Pinned)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, outfitResponse(outfit))
}

package v2

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stylo-app/stylo"
	"github.com/stylo-app/stylo/application/service"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/infrastructure/api/middleware"
)

const defaultItemPageSize = 50

// ItemsRouter handles the catalog item endpoints.
type ItemsRouter struct {
	client *stylo.Client
	logger *slog.Logger
}

// NewItemsRouter creates a new ItemsRouter.
func NewItemsRouter(client *stylo.Client) *ItemsRouter {
	return &ItemsRouter{
		client: client,
		logger: client.Logger().Slog(),
	}
}

// Routes returns the chi router for item endpoints.
func (r *ItemsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Patch("/{id}", r.Update)
	router.Delete("/{id}", r.Delete)

	return router
}

// ItemResponse is the wire shape of one catalog item.
type ItemResponse struct {
	ID           string    `json:"id"`
	Slot         string    `json:"slot"`
	Type         string    `json:"type"`
	Color        string    `json:"color,omitempty"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ItemRequest carries user-editable item fields. Absent fields are left
// unchanged on update.
type ItemRequest struct {
	Slot        *string `json:"slot,omitempty"`
	Type        *string `json:"type,omitempty"`
	Color       *string `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

func (b ItemRequest) params() service.ItemParams {
	return service.ItemParams{
		Slot:        b.Slot,
		Type:        b.Type,
		Color:       b.Color,
		Description: b.Description,
		ImageRef:    b.ImageURL,
	}
}

func itemResponse(item wardrobe.Item) ItemResponse {
	return ItemResponse{
		ID:           item.ID(),
		Slot:         item.Slot().String(),
		Type:         item.Type(),
		Color:        item.Color(),
		Description:  item.Description(),
		ImageURL:     item.ImageRef(),
		HasEmbedding: item.HasEmbedding(),
		CreatedAt:    item.CreatedAt(),
		UpdatedAt:    item.UpdatedAt(),
	}
}

// List handles GET /v2/items. Filters: q, slot, type, color; pagination
// via limit/offset with the unpaged total in X-Total-Count.
func (r *ItemsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	query := req.URL.Query()

	filter := service.ItemFilter{
		Slot:   query.Get("slot"),
		Type:   query.Get("type"),
		Color:  query.Get("color"),
		Query:  query.Get("q"),
		Limit:  intParam(query.Get("limit"), defaultItemPageSize),
		Offset: intParam(query.Get("offset"), 0),
	}

	items, total, err := r.client.Wardrobe.ListItems(ctx, middleware.OwnerID(ctx), filter)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	responses := make([]ItemResponse, len(items))
	for i, item := range items {
		responses[i] = itemResponse(item)
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	middleware.WriteJSON(w, http.StatusOK, responses)
}

// Create handles POST /v2/items.
func (r *ItemsRouter) Create(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body ItemRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", service.ErrInvalidInput, err), r.logger)
		return
	}

	item, err := r.client.Wardrobe.AddItem(ctx, middleware.OwnerID(ctx), body.params())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, itemResponse(item))
}

// Get handles GET /v2/items/{id}.
func (r *ItemsRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	item, err := r.client.Wardrobe.GetItem(ctx, middleware.OwnerID(ctx), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, itemResponse(item))
}

// Update handles PATCH /v2/items/{id}.
func (r *ItemsRouter) Update(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body ItemRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", service.ErrInvalidInput, err), r.logger)
		return
	}

	item, err := r.client.Wardrobe.UpdateItem(ctx, middleware.OwnerID(ctx), chi.URLParam(req, "id"), body.params())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, itemResponse(item))
}

// Delete handles DELETE /v2/items/{id}.
func (r *ItemsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if err := r.client.Wardrobe.DeleteItem(ctx, middleware.OwnerID(ctx), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

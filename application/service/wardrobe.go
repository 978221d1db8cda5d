// Package service provides application layer services that orchestrate
// domain operations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/stylo-app/stylo/domain/store"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/infrastructure/cache"
	"github.com/stylo-app/stylo/internal/log"
)

// ItemParams carries the user-editable fields of a catalog item. Nil
// pointers mean "leave unchanged" on update.
type ItemParams struct {
	Slot        *string
	Type        *string
	Color       *string
	Description *string
	ImageRef    *string
}

// ItemFilter narrows catalog listings.
type ItemFilter struct {
	Slot   string
	Type   string
	Color  string
	Query  string
	Limit  int
	Offset int
}

// Wardrobe manages a user's catalog items. Every mutation commits first,
// then enqueues an embedding refresh and invalidates the owner's cached
// suggestions, so readers never observe a cache entry older than the
// catalog.
type Wardrobe struct {
	items  wardrobe.ItemStore
	queue  *EmbedQueue
	cache  cache.Cache
	logger *log.Logger
}

// NewWardrobe creates a Wardrobe service.
func NewWardrobe(items wardrobe.ItemStore, queue *EmbedQueue, c cache.Cache, logger *log.Logger) *Wardrobe {
	return &Wardrobe{
		items:  items,
		queue:  queue,
		cache:  c,
		logger: logger,
	}
}

// AddItem creates a catalog item for the owner.
func (s *Wardrobe) AddItem(ctx context.Context, ownerID string, params ItemParams) (wardrobe.Item, error) {
	if ownerID == "" {
		return wardrobe.Item{}, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}

	itemType := deref(params.Type)
	if strings.TrimSpace(itemType) == "" {
		return wardrobe.Item{}, fmt.Errorf("%w: item type is required", ErrInvalidInput)
	}

	slot := wardrobe.NormalizeSlot(deref(params.Slot))
	if slot == wardrobe.SlotUnknown {
		return wardrobe.Item{}, fmt.Errorf("%w: unknown slot %q", ErrInvalidInput, deref(params.Slot))
	}

	item := wardrobe.NewItem("", ownerID, slot, itemType).
		WithColor(deref(params.Color)).
		WithDescription(deref(params.Description)).
		WithImageRef(deref(params.ImageRef))

	saved, err := s.items.Save(ctx, item)
	if err != nil {
		return wardrobe.Item{}, fmt.Errorf("save item: %w", err)
	}

	s.afterMutation(ctx, ownerID, saved.ID(), true)
	return saved, nil
}

// UpdateItem applies a partial update to an owned item. Changing any
// text attribute invalidates the stored embedding and schedules a
// refresh.
func (s *Wardrobe) UpdateItem(ctx context.Context, ownerID, itemID string, params ItemParams) (wardrobe.Item, error) {
	item, err := s.items.Get(ctx, ownerID, itemID)
	if err != nil {
		return wardrobe.Item{}, err
	}

	embeddingStale := false

	if params.Slot != nil {
		slot := wardrobe.NormalizeSlot(*params.Slot)
		if slot == wardrobe.SlotUnknown {
			return wardrobe.Item{}, fmt.Errorf("%w: unknown slot %q", ErrInvalidInput, *params.Slot)
		}
		if slot != item.Slot() {
			item = item.WithSlot(slot)
			embeddingStale = true
		}
	}
	if params.Type != nil && *params.Type != item.Type() {
		if strings.TrimSpace(*params.Type) == "" {
			return wardrobe.Item{}, fmt.Errorf("%w: item type is required", ErrInvalidInput)
		}
		item = item.WithType(*params.Type)
		embeddingStale = true
	}
	if params.Color != nil && *params.Color != item.Color() {
		item = item.WithColor(*params.Color)
		embeddingStale = true
	}
	if params.Description != nil && *params.Description != item.Description() {
		item = item.WithDescription(*params.Description)
		embeddingStale = true
	}
	if params.ImageRef != nil && *params.ImageRef != item.ImageRef() {
		item = item.WithImageRef(*params.ImageRef)
		embeddingStale = true
	}

	if embeddingStale {
		item = item.WithoutEmbedding()
	}

	saved, err := s.items.Save(ctx, item)
	if err != nil {
		return wardrobe.Item{}, fmt.Errorf("save item: %w", err)
	}

	s.afterMutation(ctx, ownerID, saved.ID(), embeddingStale)
	return saved, nil
}

// GetItem fetches one owned item.
func (s *Wardrobe) GetItem(ctx context.Context, ownerID, itemID string) (wardrobe.Item, error) {
	return s.items.Get(ctx, ownerID, itemID)
}

// DeleteItem removes an owned item.
func (s *Wardrobe) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	if err := s.items.Delete(ctx, ownerID, itemID); err != nil {
		return err
	}
	s.afterMutation(ctx, ownerID, "", false)
	return nil
}

// ListItems returns a page of the owner's catalog plus the unpaged total.
func (s *Wardrobe) ListItems(ctx context.Context, ownerID string, filter ItemFilter) ([]wardrobe.Item, int64, error) {
	conditions := s.filterOptions(ownerID, filter)

	total, err := s.items.Count(ctx, conditions...)
	if err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	options := append(conditions, store.WithOrderDesc("created_at"))
	if filter.Limit > 0 {
		options = append(options, store.WithPagination(filter.Limit, filter.Offset)...)
	}

	items, err := s.items.Find(ctx, options...)
	if err != nil {
		return nil, 0, fmt.Errorf("find items: %w", err)
	}
	return items, total, nil
}

func (s *Wardrobe) filterOptions(ownerID string, filter ItemFilter) []store.Option {
	options := []store.Option{wardrobe.WithOwner(ownerID)}
	if filter.Slot != "" {
		options = append(options, wardrobe.WithSlotFilter(wardrobe.NormalizeSlot(filter.Slot)))
	}
	if filter.Type != "" {
		options = append(options, wardrobe.WithType(filter.Type))
	}
	if filter.Color != "" {
		options = append(options, wardrobe.WithColorFilter(filter.Color))
	}
	if filter.Query != "" {
		options = append(options, wardrobe.WithTextSearch(filter.Query))
	}
	return options
}

// afterMutation runs the post-commit bookkeeping: embedding refresh and
// suggestion cache invalidation. Cache failures degrade to a warning.
func (s *Wardrobe) afterMutation(ctx context.Context, ownerID, itemID string, refresh bool) {
	if refresh && itemID != "" && s.queue != nil {
		s.queue.Enqueue(itemID)
	}
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, cache.SuggestionPrefix(ownerID)); err != nil {
		s.logger.WarnContext(ctx, "suggestion cache invalidation failed",
			"owner_id", ownerID, "error", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/stylo-app/stylo/domain/store"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/internal/log"
)

// OutfitParams carries the fields of a saved outfit.
type OutfitParams struct {
	Name  string
	Items map[string]string
}

// Outfits manages the saved looks a user keeps for later. Items are
// referenced by id; every reference is checked against the owner's
// catalog on save so a saved outfit never points at someone else's item.
type Outfits struct {
	outfits wardrobe.OutfitStore
	items   wardrobe.ItemStore
	logger  *log.Logger
}

// NewOutfits creates an Outfits service.
func NewOutfits(outfits wardrobe.OutfitStore, items wardrobe.ItemStore, logger *log.Logger) *Outfits {
	return &Outfits{
		outfits: outfits,
		items:   items,
		logger:  logger,
	}
}

// Save validates and persists a saved outfit for the owner.
func (s *Outfits) Save(ctx context.Context, ownerID string, params OutfitParams) (wardrobe.SavedOutfit, error) {
	if strings.TrimSpace(params.Name) == "" {
		return wardrobe.SavedOutfit{}, fmt.Errorf("%w: outfit name is required", ErrInvalidInput)
	}
	if len(params.Items) == 0 {
		return wardrobe.SavedOutfit{}, fmt.Errorf("%w: outfit needs at least one item", ErrInvalidInput)
	}

	resolved := make(map[wardrobe.Slot]string, len(params.Items))
	for rawSlot, itemID := range params.Items {
		slot := wardrobe.NormalizeSlot(rawSlot)
		if slot == wardrobe.SlotUnknown {
			return wardrobe.SavedOutfit{}, fmt.Errorf("%w: unknown slot %q", ErrInvalidInput, rawSlot)
		}
		if _, err := s.items.Get(ctx, ownerID, itemID); err != nil {
			return wardrobe.SavedOutfit{}, fmt.Errorf("item %s for slot %s: %w", itemID, slot, err)
		}
		resolved[slot] = itemID
	}

	outfit := wardrobe.NewSavedOutfit("", ownerID, params.Name, resolved)
	saved, err := s.outfits.Save(ctx, outfit)
	if err != nil {
		return wardrobe.SavedOutfit{}, fmt.Errorf("save outfit: %w", err)
	}
	return saved, nil
}

// Get fetches one saved outfit.
func (s *Outfits) Get(ctx context.Context, ownerID, outfitID string) (wardrobe.SavedOutfit, error) {
	return s.outfits.Get(ctx, ownerID, outfitID)
}

// List returns the owner's saved outfits, newest first.
func (s *Outfits) List(ctx context.Context, ownerID string, pinnedOnly bool) ([]wardrobe.SavedOutfit, error) {
	options := []store.Option{
		wardrobe.WithOwner(ownerID),
		store.WithOrderDesc("created_at"),
	}
	if pinnedOnly {
		options = append(options, wardrobe.WithPinnedOnly())
	}
	return s.outfits.Find(ctx, options...)
}

// Delete removes a saved outfit.
func (s *Outfits) Delete(ctx context.Context, ownerID, outfitID string) error {
	return s.outfits.Delete(ctx, ownerID, outfitID)
}

// SetPinned marks or unmarks a saved outfit as pinned.
func (s *Outfits) SetPinned(ctx context.Context, ownerID, outfitID string, pinned bool) (wardrobe.SavedOutfit, error) {
	outfit, err := s.outfits.Get(ctx, ownerID, outfitID)
	if err != nil {
		return wardrobe.SavedOutfit{}, err
	}

	saved, err := s.outfits.Save(ctx, outfit.WithPinned(pinned))
	if err != nil {
		return wardrobe.SavedOutfit{}, fmt.Errorf("save outfit: %w", err)
	}
	return saved, nil
}

package persistence

import (
	"time"

	"github.com/stylo-app/stylo/domain/wardrobe"
)

// ItemMapper maps between domain Item and persistence ItemModel.
type ItemMapper struct{}

// ToDomain converts an ItemModel to a domain Item. The slot is
// normalized so rows written before an alias was folded (for example
// "shoes") still surface under the canonical slot.
func (m ItemMapper) ToDomain(e ItemModel) wardrobe.Item {
	item := wardrobe.NewItem(e.ID, e.OwnerID, wardrobe.NormalizeSlot(e.Slot), e.ItemType).
		WithColor(e.Color).
		WithDescription(e.Description).
		WithImageRef(e.ImageRef)

	if e.Embedding != nil {
		var at time.Time
		if e.EmbeddedAt != nil {
			at = *e.EmbeddedAt
		}
		item = item.WithEmbedding([]float64(*e.Embedding), at)
	}

	return item.WithTimestamps(e.CreatedAt, e.UpdatedAt)
}

// ToModel converts a domain Item to an ItemModel.
func (m ItemMapper) ToModel(item wardrobe.Item) ItemModel {
	model := ItemModel{
		ID:          item.ID(),
		OwnerID:     item.OwnerID(),
		Slot:        item.Slot().String(),
		ItemType:    item.Type(),
		Color:       item.Color(),
		Description: item.Description(),
		ImageRef:    item.ImageRef(),
		CreatedAt:   item.CreatedAt(),
		UpdatedAt:   item.UpdatedAt(),
	}

	if item.HasEmbedding() {
		vec := Float64Slice(item.Embedding())
		model.Embedding = &vec
		at := item.EmbeddedAt()
		model.EmbeddedAt = &at
	}

	return model
}

// OutfitMapper maps between domain SavedOutfit and persistence SavedOutfitModel.
type OutfitMapper struct{}

// ToDomain converts a SavedOutfitModel to a domain SavedOutfit. Slot
// keys are normalized like item slots; unrecognized keys round-trip
// unchanged.
func (m OutfitMapper) ToDomain(e SavedOutfitModel) wardrobe.SavedOutfit {
	items := make(map[wardrobe.Slot]string, len(e.Items))
	for slot, itemID := range e.Items {
		key := wardrobe.NormalizeSlot(slot)
		if key == wardrobe.SlotUnknown {
			key = wardrobe.Slot(slot)
		}
		items[key] = itemID
	}
	return wardrobe.NewSavedOutfit(e.ID, e.OwnerID, e.Name, items).
		WithPinned(e.Pinned).
		WithTimestamps(e.CreatedAt, e.UpdatedAt)
}

// ToModel converts a domain SavedOutfit to a SavedOutfitModel.
func (m OutfitMapper) ToModel(outfit wardrobe.SavedOutfit) SavedOutfitModel {
	items := make(StringMap, len(outfit.Items()))
	for slot, itemID := range outfit.Items() {
		items[slot.String()] = itemID
	}
	return SavedOutfitModel{
		ID:        outfit.ID(),
		OwnerID:   outfit.OwnerID(),
		Name:      outfit.Name(),
		Items:     items,
		Pinned:    outfit.Pinned(),
		CreatedAt: outfit.CreatedAt(),
		UpdatedAt: outfit.UpdatedAt(),
	}
}

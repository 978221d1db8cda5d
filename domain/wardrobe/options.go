package wardrobe

import "github.com/stylo-app/stylo/domain/store"

// WithOwner filters by the owning user's id. Every store call made on
// behalf of a request carries this option.
func WithOwner(ownerID string) store.Option {
	return store.WithCondition("owner_id", ownerID)
}

// WithSlotFilter filters items by outfit slot. Legacy alias spellings
// (for example "shoes" for footwear) are matched so older rows are not
// skipped.
func WithSlotFilter(slot Slot) store.Option {
	if aliases := slot.StoredAliases(); len(aliases) > 1 {
		return store.WithConditionIn("slot", aliases)
	}
	return store.WithCondition("slot", slot.String())
}

// WithType filters items by exact item type.
func WithType(itemType string) store.Option {
	return store.WithCondition("item_type", itemType)
}

// WithColorFilter filters items by exact color.
func WithColorFilter(color string) store.Option {
	return store.WithCondition("color", color)
}

// WithEmbeddingPresent selects items that already carry an embedding.
func WithEmbeddingPresent() store.Option {
	return store.WithWhere("embedding IS NOT NULL")
}

// WithEmbeddingMissing selects items whose embedding has not been
// computed yet.
func WithEmbeddingMissing() store.Option {
	return store.WithWhere("embedding IS NULL")
}

// WithTextSearch matches q case-insensitively against the item type,
// color, and description.
func WithTextSearch(q string) store.Option {
	pattern := "%" + q + "%"
	return store.WithWhere(
		"(LOWER(item_type) LIKE LOWER(?) OR LOWER(color) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?))",
		pattern, pattern, pattern,
	)
}

// WithPinnedOnly selects saved outfits the user pinned.
func WithPinnedOnly() store.Option {
	return store.WithCondition("pinned", true)
}

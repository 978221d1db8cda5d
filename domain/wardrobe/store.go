package wardrobe

import (
	"context"

	"github.com/stylo-app/stylo/domain/store"
)

// ItemStore persists wardrobe items.
type ItemStore interface {
	// Save inserts or updates an item.
	Save(ctx context.Context, item Item) (Item, error)

	// Get retrieves one item by owner and id.
	Get(ctx context.Context, ownerID, id string) (Item, error)

	// Find retrieves items matching the given options.
	Find(ctx context.Context, options ...store.Option) ([]Item, error)

	// Count returns the number of items matching the given options.
	Count(ctx context.Context, options ...store.Option) (int64, error)

	// Delete removes one item by owner and id.
	Delete(ctx context.Context, ownerID, id string) error

	// SaveEmbeddings stores embedding vectors for the given item ids in a
	// single transaction. Missing ids are skipped silently.
	SaveEmbeddings(ctx context.Context, vectors map[string][]float64) error
}

// OutfitStore persists saved outfits.
type OutfitStore interface {
	// Save inserts or updates a saved outfit.
	Save(ctx context.Context, outfit SavedOutfit) (SavedOutfit, error)

	// Get retrieves one saved outfit by owner and id.
	Get(ctx context.Context, ownerID, id string) (SavedOutfit, error)

	// Find retrieves saved outfits matching the given options.
	Find(ctx context.Context, options ...store.Option) ([]SavedOutfit, error)

	// Count returns the number of saved outfits matching the given options.
	Count(ctx context.Context, options ...store.Option) (int64, error)

	// Delete removes one saved outfit by owner and id.
	Delete(ctx context.Context, ownerID, id string) error
}

package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/stylo-app/stylo/domain/store"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/internal/database"
)

var _ wardrobe.ItemStore = ItemStore{}

// ItemStore implements wardrobe.ItemStore using GORM.
type ItemStore struct {
	database.Repository[wardrobe.Item, ItemModel]
	db database.Database
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db database.Database) ItemStore {
	return ItemStore{
		Repository: database.NewRepository[wardrobe.Item, ItemModel](db, ItemMapper{}, "item"),
		db:         db,
	}
}

// Save creates or updates an item.
func (s ItemStore) Save(ctx context.Context, item wardrobe.Item) (wardrobe.Item, error) {
	model := s.Mapper().ToModel(item)
	model.UpdatedAt = time.Now()

	result := s.DB(ctx).Save(&model)
	if result.Error != nil {
		return wardrobe.Item{}, fmt.Errorf("save item: %w", result.Error)
	}
	return s.Mapper().ToDomain(model), nil
}

// Get retrieves one item scoped to its owner.
func (s ItemStore) Get(ctx context.Context, ownerID, id string) (wardrobe.Item, error) {
	return s.FindOne(ctx, wardrobe.WithOwner(ownerID), store.WithID(id))
}

// Delete removes one item scoped to its owner.
func (s ItemStore) Delete(ctx context.Context, ownerID, id string) error {
	result := s.DB(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&ItemModel{})
	if result.Error != nil {
		return fmt.Errorf("delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: item", database.ErrNotFound)
	}
	return nil
}

// SaveEmbeddings writes embedding vectors for the given item ids in one
// transaction. Ids with no matching row are skipped; items deleted while
// their embedding was being computed must not resurrect.
func (s ItemStore) SaveEmbeddings(ctx context.Context, vectors map[string][]float64) error {
	if len(vectors) == 0 {
		return nil
	}

	now := time.Now().UTC()
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for id, vec := range vectors {
			embedding := Float64Slice(vec)
			result := tx.Model(&ItemModel{}).
				Where("id = ?", id).
				Updates(map[string]any{
					"embedding":   &embedding,
					"embedded_at": now,
					"updated_at":  now,
				})
			if result.Error != nil {
				return fmt.Errorf("save embedding for %s: %w", id, result.Error)
			}
		}
		return nil
	})
}

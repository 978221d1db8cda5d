package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/stylo-app/stylo/domain/store"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/internal/database"
)

var _ wardrobe.OutfitStore = OutfitStore{}

// OutfitStore implements wardrobe.OutfitStore using GORM.
type OutfitStore struct {
	database.Repository[wardrobe.SavedOutfit, SavedOutfitModel]
}

// NewOutfitStore creates a new OutfitStore.
func NewOutfitStore(db database.Database) OutfitStore {
	return OutfitStore{
		Repository: database.NewRepository[wardrobe.SavedOutfit, SavedOutfitModel](db, OutfitMapper{}, "saved outfit"),
	}
}

// Save creates or updates a saved outfit.
func (s OutfitStore) Save(ctx context.Context, outfit wardrobe.SavedOutfit) (wardrobe.SavedOutfit, error) {
	model := s.Mapper().ToModel(outfit)
	model.UpdatedAt = time.Now()

	result := s.DB(ctx).Save(&model)
	if result.Error != nil {
		return wardrobe.SavedOutfit{}, fmt.Errorf("save outfit: %w", result.Error)
	}
	return s.Mapper().ToDomain(model), nil
}

// Get retrieves one saved outfit scoped to its owner.
func (s OutfitStore) Get(ctx context.Context, ownerID, id string) (wardrobe.SavedOutfit, error) {
	return s.FindOne(ctx, wardrobe.WithOwner(ownerID), store.WithID(id))
}

// Delete removes one saved outfit scoped to its owner.
func (s OutfitStore) Delete(ctx context.Context, ownerID, id string) error {
	result := s.DB(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&SavedOutfitModel{})
	if result.Error != nil {
		return fmt.Errorf("delete outfit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: saved outfit", database.ErrNotFound)
	}
	return nil
}

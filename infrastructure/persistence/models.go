// Package persistence provides database storage implementations.
package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Float64Slice stores an embedding vector as a JSON array in a text
// column. Works identically on SQLite and PostgreSQL.
type Float64Slice []float64

// Value serializes the vector for storage.
func (f Float64Slice) Value() (driver.Value, error) {
	data, err := json.Marshal([]float64(f))
	if err != nil {
		return nil, fmt.Errorf("marshal embedding: %w", err)
	}
	return string(data), nil
}

// Scan deserializes the vector from storage.
func (f *Float64Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan embedding: unexpected type %T", value)
	}
	var out []float64
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal embedding: %w", err)
	}
	*f = out
	return nil
}

// StringMap stores a string-to-string mapping as a JSON object in a text
// column. Used for the slot to item id layout of saved outfits.
type StringMap map[string]string

// Value serializes the map for storage.
func (m StringMap) Value() (driver.Value, error) {
	data, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, fmt.Errorf("marshal map: %w", err)
	}
	return string(data), nil
}

// Scan deserializes the map from storage.
func (m *StringMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan map: unexpected type %T", value)
	}
	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal map: %w", err)
	}
	*m = out
	return nil
}

// ItemModel represents a wardrobe item in the database.
type ItemModel struct {
	ID          string        `gorm:"column:id;primaryKey;size:64"`
	OwnerID     string        `gorm:"column:owner_id;index;size:64"`
	Slot        string        `gorm:"column:slot;index;size:32"`
	ItemType    string        `gorm:"column:item_type;size:255"`
	Color       string        `gorm:"column:color;size:64"`
	Description string        `gorm:"column:description;type:text"`
	ImageRef    string        `gorm:"column:image_ref;size:512"`
	Embedding   *Float64Slice `gorm:"column:embedding;type:text"`
	EmbeddedAt  *time.Time    `gorm:"column:embedded_at"`
	CreatedAt   time.Time     `gorm:"column:created_at"`
	UpdatedAt   time.Time     `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (ItemModel) TableName() string {
	return "wardrobe_items"
}

// SavedOutfitModel represents a saved outfit in the database.
type SavedOutfitModel struct {
	ID        string    `gorm:"column:id;primaryKey;size:64"`
	OwnerID   string    `gorm:"column:owner_id;index;size:64"`
	Name      string    `gorm:"column:name;size:255"`
	Items     StringMap `gorm:"column:items;type:text"`
	Pinned    bool      `gorm:"column:pinned;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (SavedOutfitModel) TableName() string {
	return "saved_outfits"
}

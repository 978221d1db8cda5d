// Package wardrobe contains the core domain types for a user's wardrobe:
// items, their outfit slots, and saved outfits.
package wardrobe

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is a single piece of clothing owned by one user. Items are immutable
// value objects; the With* methods return modified copies.
type Item struct {
	id          string
	ownerID     string
	slot        Slot
	itemType    string
	color       string
	description string
	imageRef    string
	embedding   []float64
	embeddedAt  time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewItem creates a new wardrobe item. An empty id is replaced with a
// freshly generated UUID.
func NewItem(id, ownerID string, slot Slot, itemType string) Item {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	return Item{
		id:        id,
		ownerID:   ownerID,
		slot:      slot,
		itemType:  itemType,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the item's unique identifier.
func (i Item) ID() string { return i.id }

// OwnerID returns the id of the user who owns this item.
func (i Item) OwnerID() string { return i.ownerID }

// Slot returns the outfit slot this item fills.
func (i Item) Slot() Slot { return i.slot }

// Type returns the item type, e.g. "linen shirt".
func (i Item) Type() string { return i.itemType }

// Color returns the item's dominant color, if known.
func (i Item) Color() string { return i.color }

// Description returns the free-text description.
func (i Item) Description() string { return i.description }

// ImageRef returns an opaque reference to the item's image.
func (i Item) ImageRef() string { return i.imageRef }

// Embedding returns a copy of the item's embedding vector, or nil when the
// item has not been embedded yet.
func (i Item) Embedding() []float64 {
	if i.embedding == nil {
		return nil
	}
	out := make([]float64, len(i.embedding))
	copy(out, i.embedding)
	return out
}

// HasEmbedding reports whether the item carries an embedding vector.
func (i Item) HasEmbedding() bool { return len(i.embedding) > 0 }

// EmbeddedAt returns when the embedding was last computed.
func (i Item) EmbeddedAt() time.Time { return i.embeddedAt }

// CreatedAt returns the creation timestamp.
func (i Item) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns the last modification timestamp.
func (i Item) UpdatedAt() time.Time { return i.updatedAt }

// WithSlot returns a copy with the slot replaced.
func (i Item) WithSlot(slot Slot) Item {
	i.slot = slot
	return i.touch()
}

// WithType returns a copy with the item type replaced.
func (i Item) WithType(itemType string) Item {
	i.itemType = itemType
	return i.touch()
}

// WithColor returns a copy with the color replaced.
func (i Item) WithColor(color string) Item {
	i.color = color
	return i.touch()
}

// WithDescription returns a copy with the description replaced.
func (i Item) WithDescription(description string) Item {
	i.description = description
	return i.touch()
}

// WithImageRef returns a copy with the image reference replaced.
func (i Item) WithImageRef(ref string) Item {
	i.imageRef = ref
	return i.touch()
}

// WithEmbedding returns a copy carrying the given embedding vector.
func (i Item) WithEmbedding(vec []float64, at time.Time) Item {
	i.embedding = make([]float64, len(vec))
	copy(i.embedding, vec)
	i.embeddedAt = at
	return i
}

// WithoutEmbedding returns a copy with the embedding cleared. Used when a
// mutation changes the searchable text and the vector must be recomputed.
func (i Item) WithoutEmbedding() Item {
	i.embedding = nil
	i.embeddedAt = time.Time{}
	return i
}

// WithTimestamps returns a copy with explicit timestamps. Intended for
// rehydration from storage.
func (i Item) WithTimestamps(createdAt, updatedAt time.Time) Item {
	i.createdAt = createdAt
	i.updatedAt = updatedAt
	return i
}

func (i Item) touch() Item {
	i.updatedAt = time.Now().UTC()
	return i
}

// SearchableText is the canonical text that gets embedded for retrieval:
// type, color, description and slot joined by single spaces, with empty
// fields skipped.
func (i Item) SearchableText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{i.itemType, i.color, i.description, i.slot.String()} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// NameText is the lowercased type plus description, used for keyword
// matching during outfit assembly.
func (i Item) NameText() string {
	return strings.ToLower(strings.TrimSpace(i.itemType + " " + i.description))
}

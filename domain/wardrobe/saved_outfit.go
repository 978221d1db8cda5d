package wardrobe

import (
	"time"

	"github.com/google/uuid"
)

// SavedOutfit is an outfit a user chose to keep: a name plus one item id
// per slot. Saved outfits reference items by id and tolerate items being
// deleted later.
type SavedOutfit struct {
	id        string
	ownerID   string
	name      string
	items     map[Slot]string
	pinned    bool
	createdAt time.Time
	updatedAt time.Time
}

// NewSavedOutfit creates a saved outfit from a slot to item id mapping.
// An empty id is replaced with a generated UUID.
func NewSavedOutfit(id, ownerID, name string, items map[Slot]string) SavedOutfit {
	if id == "" {
		id = uuid.New().String()
	}
	copied := make(map[Slot]string, len(items))
	for slot, itemID := range items {
		copied[slot] = itemID
	}
	now := time.Now().UTC()
	return SavedOutfit{
		id:        id,
		ownerID:   ownerID,
		name:      name,
		items:     copied,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the saved outfit's identifier.
func (o SavedOutfit) ID() string { return o.id }

// OwnerID returns the owning user's id.
func (o SavedOutfit) OwnerID() string { return o.ownerID }

// Name returns the user-supplied name.
func (o SavedOutfit) Name() string { return o.name }

// Pinned reports whether the user pinned this outfit.
func (o SavedOutfit) Pinned() bool { return o.pinned }

// CreatedAt returns the creation timestamp.
func (o SavedOutfit) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the last modification timestamp.
func (o SavedOutfit) UpdatedAt() time.Time { return o.updatedAt }

// Items returns a copy of the slot to item id mapping.
func (o SavedOutfit) Items() map[Slot]string {
	out := make(map[Slot]string, len(o.items))
	for slot, itemID := range o.items {
		out[slot] = itemID
	}
	return out
}

// ItemID returns the item id stored for the given slot, if any.
func (o SavedOutfit) ItemID(slot Slot) (string, bool) {
	id, ok := o.items[slot]
	return id, ok
}

// WithName returns a copy with the name replaced.
func (o SavedOutfit) WithName(name string) SavedOutfit {
	o.name = name
	o.updatedAt = time.Now().UTC()
	return o
}

// WithPinned returns a copy with the pinned flag set.
func (o SavedOutfit) WithPinned(pinned bool) SavedOutfit {
	o.pinned = pinned
	o.updatedAt = time.Now().UTC()
	return o
}

// WithTimestamps returns a copy with explicit timestamps. Intended for
// rehydration from storage.
func (o SavedOutfit) WithTimestamps(createdAt, updatedAt time.Time) SavedOutfit {
	o.createdAt = createdAt
	o.updatedAt = updatedAt
	return o
}

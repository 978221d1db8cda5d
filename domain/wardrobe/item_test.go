package wardrobe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem_GeneratesID(t *testing.T) {
	item := NewItem("", "user-1", SlotTop, "linen shirt")
	assert.NotEmpty(t, item.ID())
	assert.Equal(t, "user-1", item.OwnerID())
	assert.Equal(t, SlotTop, item.Slot())
	assert.Equal(t, "linen shirt", item.Type())
	assert.False(t, item.CreatedAt().IsZero())
}

func TestNewItem_KeepsExplicitID(t *testing.T) {
	item := NewItem("item-42", "user-1", SlotBottom, "chinos")
	assert.Equal(t, "item-42", item.ID())
}

func TestItem_SearchableText(t *testing.T) {
	item := NewItem("", "user-1", SlotTop, "linen shirt").
		WithColor("white").
		WithDescription("lightweight summer shirt")
	assert.Equal(t, "linen shirt white lightweight summer shirt top", item.SearchableText())
}

func TestItem_SearchableText_SkipsEmptyFields(t *testing.T) {
	item := NewItem("", "user-1", SlotFootwear, "loafers")
	assert.Equal(t, "loafers footwear", item.SearchableText())
}

func TestItem_NameText(t *testing.T) {
	item := NewItem("", "user-1", SlotTop, "Oxford Shirt").
		WithDescription("Crisp White Cotton")
	assert.Equal(t, "oxford shirt crisp white cotton", item.NameText())
}

func TestItem_WithEmbedding(t *testing.T) {
	vec := []float64{0.1, 0.2, 0.3}
	at := time.Now().UTC()
	item := NewItem("", "user-1", SlotTop, "shirt").WithEmbedding(vec, at)

	require.True(t, item.HasEmbedding())
	assert.Equal(t, vec, item.Embedding())
	assert.Equal(t, at, item.EmbeddedAt())

	// The item holds its own copy.
	vec[0] = 99
	assert.Equal(t, 0.1, item.Embedding()[0])
}

func TestItem_WithoutEmbedding(t *testing.T) {
	item := NewItem("", "user-1", SlotTop, "shirt").
		WithEmbedding([]float64{0.5}, time.Now()).
		WithoutEmbedding()
	assert.False(t, item.HasEmbedding())
	assert.Nil(t, item.Embedding())
	assert.True(t, item.EmbeddedAt().IsZero())
}

func TestItem_WithMethodsDoNotMutateOriginal(t *testing.T) {
	original := NewItem("", "user-1", SlotTop, "shirt").WithColor("white")
	modified := original.WithColor("navy")
	assert.Equal(t, "white", original.Color())
	assert.Equal(t, "navy", modified.Color())
}

func TestSavedOutfit_Items(t *testing.T) {
	outfit := NewSavedOutfit("", "user-1", "friday casual", map[Slot]string{
		SlotTop:      "item-1",
		SlotBottom:   "item-2",
		SlotFootwear: "item-3",
	})

	require.NotEmpty(t, outfit.ID())
	assert.Equal(t, "friday casual", outfit.Name())
	assert.False(t, outfit.Pinned())

	id, ok := outfit.ItemID(SlotTop)
	require.True(t, ok)
	assert.Equal(t, "item-1", id)

	_, ok = outfit.ItemID(SlotLayer)
	assert.False(t, ok)

	// Items returns a copy.
	items := outfit.Items()
	items[SlotTop] = "tampered"
	id, _ = outfit.ItemID(SlotTop)
	assert.Equal(t, "item-1", id)
}

func TestSavedOutfit_WithPinned(t *testing.T) {
	outfit := NewSavedOutfit("", "user-1", "work", nil)
	pinned := outfit.WithPinned(true)
	assert.False(t, outfit.Pinned())
	assert.True(t, pinned.Pinned())
}

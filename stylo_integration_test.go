package stylo_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stylo-app/stylo"
	"github.com/stylo-app/stylo/application/service"
	"github.com/stylo-app/stylo/infrastructure/provider"
	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/log"
)

const testOwner = "owner-1"

// hashEmbedder is a deterministic stand-in for the sentence model.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	texts := req.Texts()
	vecs := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, 8)
		for j, r := range text {
			vec[j%8] += float64(r % 13)
		}
		vecs[i] = vec
	}
	return provider.NewEmbeddingResponse(vecs, provider.Usage{}), nil
}

func (hashEmbedder) Capacity() int  { return 16 }
func (hashEmbedder) Dimension() int { return 8 }
func (hashEmbedder) Close() error   { return nil }

func newTestClient(t *testing.T) *stylo.Client {
	t.Helper()

	client, err := stylo.New(
		stylo.WithSQLite(filepath.Join(t.TempDir(), "stylo.db")),
		stylo.WithEmbeddingProvider(hashEmbedder{}),
		stylo.WithLogger(log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func strPtr(s string) *string { return &s }

func addItem(t *testing.T, client *stylo.Client, slot, itemType, color, description string) string {
	t.Helper()
	item, err := client.Wardrobe.AddItem(context.Background(), testOwner, service.ItemParams{
		Slot:        strPtr(slot),
		Type:        strPtr(itemType),
		Color:       strPtr(color),
		Description: strPtr(description),
	})
	require.NoError(t, err)
	return item.ID()
}

func seedWardrobe(t *testing.T, client *stylo.Client) []string {
	t.Helper()
	return []string{
		addItem(t, client, "top", "shirt", "white", "crisp white oxford shirt"),
		addItem(t, client, "top", "t-shirt", "black", "plain black heavyweight tee"),
		addItem(t, client, "bottom", "trousers", "charcoal", "tailored wool trousers"),
		addItem(t, client, "bottom", "jeans", "indigo", "raw selvedge straight jeans"),
		addItem(t, client, "footwear", "derbies", "black", "polished leather derbies"),
		addItem(t, client, "footwear", "sneakers", "white", "minimal leather sneakers"),
		addItem(t, client, "layer", "blazer", "navy", "unstructured navy blazer"),
	}
}

func TestClientLifecycle(t *testing.T) {
	client := newTestClient(t)

	require.Eventually(t, client.Ready, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, client.Ping(context.Background()))

	require.NoError(t, client.Close())

	_, err := client.Suggestions.Suggest(context.Background(), testOwner, "dinner outfit", 0)
	assert.ErrorIs(t, err, stylo.ErrClientClosed)
}

func TestSuggestionFlow(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	seedWardrobe(t, client)

	// The background worker picks mutations up from the queue; wait
	// until every item carries a vector.
	require.Eventually(t, func() bool {
		items, _, err := client.Wardrobe.ListItems(ctx, testOwner, service.ItemFilter{})
		if err != nil {
			return false
		}
		for _, item := range items {
			if !item.HasEmbedding() {
				return false
			}
		}
		return len(items) > 0
	}, 10*time.Second, 50*time.Millisecond)

	resp, err := client.Suggestions.Suggest(ctx, testOwner, "business meeting with a client", 0)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.Intent)
	require.NotEmpty(t, resp.Outfits)
	for _, outfit := range resp.Outfits {
		assert.NotNil(t, outfit.Top, "every outfit covers the top slot")
		assert.NotNil(t, outfit.Bottom, "every outfit covers the bottom slot")
		assert.NotNil(t, outfit.Footwear, "every outfit covers the footwear slot")
	}

	// Same query again is answered from cache with the same outfits.
	cached, err := client.Suggestions.Suggest(ctx, testOwner, "Business  meeting with a client ", 0)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, resp.Intent, cached.Intent)
	assert.Equal(t, resp.Outfits, cached.Outfits)

	// A catalog mutation invalidates the owner's cached suggestions.
	addItem(t, client, "accessories", "watch", "silver", "steel mesh strap watch")
	fresh, err := client.Suggestions.Suggest(ctx, testOwner, "business meeting with a client", 0)
	require.NoError(t, err)
	assert.False(t, fresh.Cached)
}

func TestSuggestionValidation(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Suggestions.Suggest(ctx, testOwner, "   ", 0)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = client.Suggestions.Suggest(ctx, testOwner, "dinner", 5)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSuggestionEmptyWardrobe(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Suggestions.Suggest(context.Background(), testOwner, "what should I wear tonight", 0)
	require.NoError(t, err)
	assert.Equal(t, "none", resp.Intent)
	assert.Empty(t, resp.Outfits)
}

func TestOwnerIsolation(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	itemID := addItem(t, client, "top", "shirt", "white", "white shirt")

	_, err := client.Wardrobe.GetItem(ctx, "owner-2", itemID)
	assert.Error(t, err, "another owner must not see the item")

	items, total, err := client.Wardrobe.ListItems(ctx, "owner-2", service.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestSavedOutfits(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	topID := addItem(t, client, "top", "shirt", "white", "white shirt")
	bottomID := addItem(t, client, "bottom", "jeans", "indigo", "indigo jeans")
	shoesID := addItem(t, client, "footwear", "sneakers", "white", "white sneakers")

	saved, err := client.Outfits.Save(ctx, testOwner, service.OutfitParams{
		Name:  "weekend look",
		Items: map[string]string{"top": topID, "bottom": bottomID, "footwear": shoesID},
	})
	require.NoError(t, err)
	assert.Equal(t, "weekend look", saved.Name())
	assert.False(t, saved.Pinned())

	// Referencing an item that is not in the owner's catalog fails.
	_, err = client.Outfits.Save(ctx, testOwner, service.OutfitParams{
		Name:  "bad look",
		Items: map[string]string{"top": "not-an-item"},
	})
	assert.Error(t, err)

	pinned, err := client.Outfits.SetPinned(ctx, testOwner, saved.ID(), true)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned())

	onlyPinned, err := client.Outfits.List(ctx, testOwner, true)
	require.NoError(t, err)
	require.Len(t, onlyPinned, 1)
	assert.Equal(t, saved.ID(), onlyPinned[0].ID())

	require.NoError(t, client.Outfits.Delete(ctx, testOwner, saved.ID()))
	_, err = client.Outfits.Get(ctx, testOwner, saved.ID())
	assert.Error(t, err)
}

func TestRefreshMissingEmbeddings(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	seedWardrobe(t, client)

	// Wait for the background worker to drain the mutation queue, then
	// a refresh pass should find nothing left to do.
	require.Eventually(t, func() bool {
		items, _, err := client.Wardrobe.ListItems(ctx, testOwner, service.ItemFilter{})
		if err != nil {
			return false
		}
		for _, item := range items {
			if !item.HasEmbedding() {
				return false
			}
		}
		return len(items) > 0
	}, 10*time.Second, 50*time.Millisecond)

	refreshed, err := client.Embeddings.RefreshMissing(ctx, testOwner)
	require.NoError(t, err)
	assert.Zero(t, refreshed)
}

func TestListItemFilters(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	seedWardrobe(t, client)

	tops, total, err := client.Wardrobe.ListItems(ctx, testOwner, service.ItemFilter{Slot: "top"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, tops, 2)

	white, _, err := client.Wardrobe.ListItems(ctx, testOwner, service.ItemFilter{Color: "white"})
	require.NoError(t, err)
	for _, item := range white {
		assert.Equal(t, "white", item.Color())
	}

	paged, total, err := client.Wardrobe.ListItems(ctx, testOwner, service.ItemFilter{Limit: 3, Offset: 0})
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	assert.Len(t, paged, 3)
}

func TestUpdateItemReembeds(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	itemID := addItem(t, client, "top", "shirt", "white", "white shirt")

	require.Eventually(t, func() bool {
		item, err := client.Wardrobe.GetItem(ctx, testOwner, itemID)
		return err == nil && item.HasEmbedding()
	}, 10*time.Second, 50*time.Millisecond)

	// A text-affecting update drops the stale vector until re-embedded.
	updated, err := client.Wardrobe.UpdateItem(ctx, testOwner, itemID, service.ItemParams{
		Description: strPtr("pale blue linen shirt"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pale blue linen shirt", updated.Description())

	require.Eventually(t, func() bool {
		item, err := client.Wardrobe.GetItem(ctx, testOwner, itemID)
		return err == nil && item.HasEmbedding()
	}, 10*time.Second, 50*time.Millisecond)
}

func TestDeleteItem(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	itemID := addItem(t, client, "top", "shirt", "white", "white shirt")
	require.NoError(t, client.Wardrobe.DeleteItem(ctx, testOwner, itemID))

	_, err := client.Wardrobe.GetItem(ctx, testOwner, itemID)
	assert.Error(t, err)

	err = client.Wardrobe.DeleteItem(ctx, testOwner, itemID)
	assert.Error(t, err, "deleting twice reports not found")
}

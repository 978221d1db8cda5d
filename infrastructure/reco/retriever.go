package reco

import (
	"context"
	"sort"

	"github.com/stylo-app/stylo/domain/suggestion"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/internal/log"
)

// Enqueuer accepts item ids whose embeddings should be recomputed in the
// background. Enqueue must never block.
type Enqueuer interface {
	Enqueue(itemID string)
}

// Retrieval is the output of the retriever: the candidate items plus the
// classified intent and query vector, which later stages reuse.
type Retrieval struct {
	Items    []wardrobe.Item
	Intent   suggestion.Intent
	QueryVec []float64
	Degraded bool
}

// Retriever filters a user's catalog down to a query-relevant candidate
// set using cosine similarity against the query and intent embeddings.
// It never writes, except for enqueuing missing embeddings.
type Retriever struct {
	items       wardrobe.ItemStore
	embedder    suggestion.Embedder
	classifier  *IntentClassifier
	enqueuer    Enqueuer
	intentBoost bool
	bypass      bool
	logger      *log.Logger
}

// NewRetriever creates a Retriever. The enqueuer may be nil, in which
// case items with missing embeddings are scored on the fly but not
// persisted.
func NewRetriever(
	items wardrobe.ItemStore,
	embedder suggestion.Embedder,
	classifier *IntentClassifier,
	enqueuer Enqueuer,
	intentBoost bool,
	logger *log.Logger,
) *Retriever {
	return &Retriever{
		items:       items,
		embedder:    embedder,
		classifier:  classifier,
		enqueuer:    enqueuer,
		intentBoost: intentBoost,
		logger:      logger,
	}
}

// WithBypass turns off semantic filtering. Retrieve then returns the
// full owned catalog with the classified intent; wired to RAG_ENABLED.
func (r *Retriever) WithBypass(bypass bool) *Retriever {
	r.bypass = bypass
	return r
}

type scoredItem struct {
	item  wardrobe.Item
	score float64
}

// Retrieve returns a candidate set likely to contain at least one good
// outfit while staying much smaller than large catalogs. Unexpected
// failures degrade to the full owned catalog; a second failure returns
// an empty set.
func (r *Retriever) Retrieve(ctx context.Context, ownerID, query string) (Retrieval, error) {
	intent := r.classifier.Classify(ctx, query)

	total, err := r.items.Count(ctx, wardrobe.WithOwner(ownerID))
	if err != nil {
		return r.degrade(ctx, ownerID, intent, err)
	}
	if total == 0 {
		return Retrieval{Items: []wardrobe.Item{}, Intent: intent}, nil
	}

	if r.bypass {
		all, err := r.items.Find(ctx, wardrobe.WithOwner(ownerID))
		if err != nil {
			return r.degrade(ctx, ownerID, intent, err)
		}
		queryVec, err := suggestion.EmbedOne(ctx, r.embedder, query)
		if err != nil {
			queryVec = nil
		}
		return Retrieval{Items: all, Intent: intent, QueryVec: queryVec}, nil
	}

	th := thresholdsFor(int(total))

	queryVec, err := suggestion.EmbedOne(ctx, r.embedder, query)
	if err != nil {
		return r.degrade(ctx, ownerID, intent, err)
	}

	// Small catalogs skip filtering entirely.
	if int(total) < th.minTotal {
		all, err := r.items.Find(ctx, wardrobe.WithOwner(ownerID))
		if err != nil {
			return r.degrade(ctx, ownerID, intent, err)
		}
		return Retrieval{Items: all, Intent: intent, QueryVec: queryVec}, nil
	}

	items, err := r.items.Find(ctx, wardrobe.WithOwner(ownerID), wardrobe.WithEmbeddingPresent())
	if err != nil {
		return r.degrade(ctx, ownerID, intent, err)
	}
	if len(items) == 0 {
		items, err = r.items.Find(ctx, wardrobe.WithOwner(ownerID))
		if err != nil {
			return r.degrade(ctx, ownerID, intent, err)
		}
	}

	intentVec, err := suggestion.EmbedOne(ctx, r.embedder, intent.Label().String())
	if err != nil {
		r.logger.WarnContext(ctx, "intent embedding failed, scoring on query only", "error", err)
		intentVec = nil
	}

	scored := r.scoreItems(ctx, items, queryVec, intentVec)

	// Group by slot, unknown slots bucketed separately, top perSlot each.
	bySlot := make(map[wardrobe.Slot][]scoredItem)
	for _, s := range scored {
		slot := wardrobe.NormalizeSlot(s.item.Slot().String())
		bySlot[slot] = append(bySlot[slot], s)
	}

	retained := make([]wardrobe.Item, 0, len(items))
	slotCounts := make(map[wardrobe.Slot]int)
	for slot, pool := range bySlot {
		sortScored(pool)
		if len(pool) > th.perSlot {
			pool = pool[:th.perSlot]
		}
		slotCounts[slot] = len(pool)
		for _, s := range pool {
			retained = append(retained, s.item)
		}
	}

	// Starving a required slot would doom assembly; fall back to the
	// whole catalog instead.
	insufficient := len(retained) < th.minTotal
	for _, slot := range wardrobe.RequiredSlots {
		if slotCounts[slot] < th.minPerSlot {
			insufficient = true
		}
	}
	if insufficient {
		all, err := r.items.Find(ctx, wardrobe.WithOwner(ownerID))
		if err != nil {
			return r.degrade(ctx, ownerID, intent, err)
		}
		r.logger.DebugContext(ctx, "retrieval below minimums, returning full catalog",
			"retained", len(retained), "total", total)
		return Retrieval{Items: all, Intent: intent, QueryVec: queryVec}, nil
	}

	r.logger.DebugContext(ctx, "retrieval complete",
		"retained", len(retained), "total", total, "intent", intent.Label().String())
	return Retrieval{Items: retained, Intent: intent, QueryVec: queryVec}, nil
}

// scoreItems scores every item against the query and intent vectors.
// Items without a stored vector are embedded on the fly and enqueued for
// persistence; items that still cannot be embedded score 0.
func (r *Retriever) scoreItems(ctx context.Context, items []wardrobe.Item, queryVec, intentVec []float64) []scoredItem {
	wantDim := r.embedder.Dimension()

	vectors := make([][]float64, len(items))
	var missingIdx []int
	var missingTexts []string

	for i, item := range items {
		vec := item.Embedding()
		if len(vec) > 0 && (wantDim == 0 || len(vec) == wantDim) {
			vectors[i] = vec
			continue
		}
		// Absent or stale vector: recompute now, persist in background.
		missingIdx = append(missingIdx, i)
		missingTexts = append(missingTexts, item.SearchableText())
		if r.enqueuer != nil {
			r.enqueuer.Enqueue(item.ID())
		}
	}

	if len(missingTexts) > 0 {
		fresh, err := r.embedder.Embed(ctx, missingTexts)
		if err != nil {
			r.logger.WarnContext(ctx, "on-the-fly embedding failed, items score 0",
				"count", len(missingTexts), "error", err)
		} else {
			for j, idx := range missingIdx {
				if j < len(fresh) {
					vectors[idx] = fresh[j]
				}
			}
		}
	}

	scored := make([]scoredItem, len(items))
	for i, item := range items {
		var score float64
		if vectors[i] != nil {
			score = suggestion.Cosine(queryVec, vectors[i])
			if r.intentBoost && intentVec != nil {
				score = 0.7*score + 0.3*suggestion.Cosine(intentVec, vectors[i])
			}
		}
		scored[i] = scoredItem{item: item, score: score}
	}
	return scored
}

// degrade returns the full owned catalog after a retrieval failure, or
// an empty set when even that fails.
func (r *Retriever) degrade(ctx context.Context, ownerID string, intent suggestion.Intent, cause error) (Retrieval, error) {
	r.logger.WarnContext(ctx, "retrieval degraded to full catalog", "error", cause)
	all, err := r.items.Find(ctx, wardrobe.WithOwner(ownerID))
	if err != nil {
		r.logger.ErrorContext(ctx, "full catalog load failed, returning empty", "error", err)
		return Retrieval{Items: []wardrobe.Item{}, Intent: intent, Degraded: true}, nil
	}
	return Retrieval{Items: all, Intent: intent, Degraded: true}, nil
}

// sortScored orders by descending score with ties broken by ascending id
// so retrieval is deterministic.
func sortScored(pool []scoredItem) {
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].item.ID() < pool[j].item.ID()
	})
}

package reco

import (
	"context"
	"sort"
	"strings"

	"github.com/stylo-app/stylo/domain/suggestion"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/internal/log"
)

const (
	poolKeep       = 8
	poolKeepDressy = 5
	assemblyWalk   = 10
	maxOutfits     = 3
)

// Selector assembles ranked outfits from candidate items using semantic
// similarity, intent rules, and color harmony. It is deterministic for a
// fixed embedder and never fails: scoring errors contribute neutral
// scores instead.
type Selector struct {
	embedder suggestion.Embedder
	logger   *log.Logger
}

// NewSelector creates a Selector.
func NewSelector(embedder suggestion.Embedder, logger *log.Logger) *Selector {
	return &Selector{embedder: embedder, logger: logger}
}

// Assemble returns up to min(k, 3) outfits drawn from the candidates.
// Every outfit fills top, bottom, and footwear; layer and accessories
// are filled when the pools have acceptable items. An empty result means
// a required slot had no candidates.
func (s *Selector) Assemble(ctx context.Context, query string, items []wardrobe.Item, label suggestion.Label, k int) []suggestion.Outfit {
	if k <= 0 || len(items) == 0 {
		return nil
	}

	queryVec := s.embedVec(ctx, query)
	labelVec := s.embedVec(ctx, label.String())

	pools := s.rankPools(ctx, items, queryVec, labelVec, label)
	pools = applyHardFilters(pools, label)
	pools = applySituationalFilters(pools, label, query)

	for _, slot := range wardrobe.RequiredSlots {
		if len(pools[slot]) == 0 {
			return nil
		}
	}

	candidates := s.walkCandidates(pools, label, k)
	if len(candidates) == 0 {
		return nil
	}

	return s.rankOutfits(ctx, candidates, queryVec, label, k)
}

// rankPools groups candidates by slot and ranks each pool by query and
// intent similarity plus the intent's soft keyword bias.
func (s *Selector) rankPools(ctx context.Context, items []wardrobe.Item, queryVec, labelVec []float64, label suggestion.Label) map[wardrobe.Slot][]scoredItem {
	bySlot := make(map[wardrobe.Slot][]wardrobe.Item)
	for _, item := range items {
		slot := wardrobe.NormalizeSlot(item.Slot().String())
		if slot == wardrobe.SlotUnknown {
			continue
		}
		bySlot[slot] = append(bySlot[slot], item)
	}

	pools := make(map[wardrobe.Slot][]scoredItem, len(bySlot))
	for slot, slotItems := range bySlot {
		texts := make([]string, len(slotItems))
		for i, item := range slotItems {
			texts[i] = item.NameText()
		}

		vecs, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			s.logger.WarnContext(ctx, "pool embedding failed, scoring on rules only",
				"slot", slot.String(), "error", err)
			vecs = make([][]float64, len(slotItems))
		}

		pool := make([]scoredItem, len(slotItems))
		for i, item := range slotItems {
			var raw float64
			if i < len(vecs) && vecs[i] != nil {
				raw = 0.6*suggestion.Cosine(queryVec, vecs[i]) + 0.4*suggestion.Cosine(labelVec, vecs[i])
			}
			pool[i] = scoredItem{
				item:  item,
				score: applyIntentBias(label, slot, item.NameText(), raw),
			}
		}

		sortScored(pool)
		if len(pool) > poolKeep {
			pool = pool[:poolKeep]
		}
		pools[slot] = pool
	}
	return pools
}

// applyHardFilters enforces the strict dress code for business and
// formal: hard-avoid items are removed while the pool stays non-empty,
// hard-prefer items float to the front, and blazers lead the layer pool.
func applyHardFilters(pools map[wardrobe.Slot][]scoredItem, label suggestion.Label) map[wardrobe.Slot][]scoredItem {
	if !label.Dressy() {
		return pools
	}

	for slot, pool := range pools {
		filtered := reject(pool, func(si scoredItem) bool {
			return containsAny(si.item.NameText(), rules.Hard.Avoid)
		})

		preferred := keep(filtered, func(si scoredItem) bool {
			return containsAny(si.item.NameText(), rules.Hard.Prefer)
		})

		switch {
		case len(preferred) > 0:
			pool = append(preferred, reject(filtered, func(si scoredItem) bool {
				return containsAny(si.item.NameText(), rules.Hard.Prefer)
			})...)
		case len(filtered) > 0:
			pool = filtered
		default:
			// Nothing survives the filter; keep the original pool
			// rather than starving the slot.
		}

		if slot == wardrobe.SlotLayer {
			pool = float(pool, "blazer")
		}

		if len(pool) > poolKeepDressy {
			pool = pool[:poolKeepDressy]
		}
		pools[slot] = pool
	}
	return pools
}

// applySituationalFilters handles query-dependent adjustments: evening
// parties, beach footwear, and cold-weather hikes.
func applySituationalFilters(pools map[wardrobe.Slot][]scoredItem, label suggestion.Label, query string) map[wardrobe.Slot][]scoredItem {
	ql := strings.ToLower(query)

	switch label {
	case suggestion.LabelParty:
		if strings.Contains(ql, "night") || strings.Contains(ql, "evening") {
			pools[wardrobe.SlotBottom] = demote(pools[wardrobe.SlotBottom], "short")
			pools[wardrobe.SlotLayer] = demote(pools[wardrobe.SlotLayer], "hoodie")
		}

	case suggestion.LabelBeach:
		pool := pools[wardrobe.SlotFootwear]
		if len(pool) > 0 {
			pool = float(pool, "sandal", "slide")
			nonSneakers := reject(pool, func(si scoredItem) bool {
				return containsAny(si.item.NameText(), []string{"sneaker", "nike", "adidas"})
			})
			if len(nonSneakers) > 0 {
				pool = nonSneakers
			}
			if len(pool) > poolKeepDressy {
				pool = pool[:poolKeepDressy]
			}
			pools[wardrobe.SlotFootwear] = pool
		}

	case suggestion.LabelHiking:
		if containsAny(ql, []string{"cool", "cold", "chilly"}) {
			pools[wardrobe.SlotBottom] = demote(pools[wardrobe.SlotBottom], "short")
		}
		pool := pools[wardrobe.SlotFootwear]
		if len(pool) > 0 {
			pool = float(pool, "boot", "hiking")
			if len(pool) > poolKeepDressy {
				pool = pool[:poolKeepDressy]
			}
			pools[wardrobe.SlotFootwear] = pool
		}
	}

	return pools
}

// walkCandidates builds candidate outfits by a bounded greedy walk over
// the ranked pools, deduplicating by the sorted item-id multiset.
func (s *Selector) walkCandidates(pools map[wardrobe.Slot][]scoredItem, label suggestion.Label, k int) []suggestion.Outfit {
	var candidates []suggestion.Outfit
	seen := make(map[string]bool)

	for i := 0; i < assemblyWalk; i++ {
		picks := make(map[wardrobe.Slot]wardrobe.Item)
		for _, slot := range wardrobe.RequiredSlots {
			pool := pools[slot]
			if len(pool) == 0 {
				picks = nil
				break
			}
			idx := i
			if idx > len(pool)-1 {
				idx = len(pool) - 1
			}
			picks[slot] = pool[idx].item
		}
		if picks == nil {
			break
		}

		for _, slot := range wardrobe.OptionalSlots {
			pool := pools[slot]
			if len(pool) == 0 {
				continue
			}
			if slot == wardrobe.SlotLayer {
				picks[slot] = pickPreferredLayer(pool, label)
			} else {
				picks[slot] = pool[0].item
			}
		}

		outfit := suggestion.NewOutfit(picks, suggestion.SourceRules)
		if !outfit.Complete() {
			continue
		}
		if key := outfit.Key(); !seen[key] {
			seen[key] = true
			candidates = append(candidates, outfit)
		}
		if len(candidates) >= k {
			break
		}
	}
	return candidates
}

// pickPreferredLayer picks the first layer matching the intent's prefer
// list, falling back to the pool's top item.
func pickPreferredLayer(pool []scoredItem, label suggestion.Label) wardrobe.Item {
	if r, ok := slotRule(label, wardrobe.SlotLayer); ok && len(r.Prefer) > 0 {
		for _, si := range pool {
			if containsAny(si.item.NameText(), r.Prefer) {
				return si.item
			}
		}
	}
	return pool[0].item
}

// rankOutfits scores candidates by color harmony, mean semantic match to
// the query, and intent bias, then returns the top min(k, 3) on a 0 to
// 100 scale.
func (s *Selector) rankOutfits(ctx context.Context, candidates []suggestion.Outfit, queryVec []float64, label suggestion.Label, k int) []suggestion.Outfit {
	type rankedOutfit struct {
		outfit suggestion.Outfit
		total  float64
	}

	ranked := make([]rankedOutfit, 0, len(candidates))
	for _, outfit := range candidates {
		items := outfit.Items()
		colorScore := paletteScore(inferPalette(items))

		texts := make([]string, 0, len(items))
		for _, item := range items {
			texts = append(texts, item.NameText())
		}
		sort.Strings(texts)

		sem := 0.5
		if vecs, err := s.embedder.Embed(ctx, texts); err == nil && len(vecs) > 0 {
			var sum float64
			for _, v := range vecs {
				if sim := suggestion.Cosine(queryVec, v); sim > 0 {
					sum += sim
				}
			}
			sem = sum / float64(len(vecs))
		} else if err != nil {
			s.logger.WarnContext(ctx, "outfit scoring embedding failed, using neutral score", "error", err)
		}

		total := 0.4*colorScore + 0.6*sem + biasFor(label)
		ranked = append(ranked, rankedOutfit{outfit: outfit, total: total})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].total != ranked[j].total {
			return ranked[i].total > ranked[j].total
		}
		return ranked[i].outfit.Key() < ranked[j].outfit.Key()
	})

	limit := k
	if limit > maxOutfits {
		limit = maxOutfits
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}

	rationale := "Coordinated " + label.String() + " look matched to your request"
	out := make([]suggestion.Outfit, limit)
	for i := 0; i < limit; i++ {
		score := ranked[i].total * 100
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		out[i] = ranked[i].outfit.WithScore(score).WithRationale(rationale)
	}
	return out
}

// embedVec embeds one text, returning nil on failure so similarity
// contributions degrade to zero instead of erroring.
func (s *Selector) embedVec(ctx context.Context, text string) []float64 {
	vec, err := suggestion.EmbedOne(ctx, s.embedder, text)
	if err != nil {
		s.logger.WarnContext(ctx, "embedding failed, similarity contributes zero", "error", err)
		return nil
	}
	return vec
}

// keep returns the elements matching the predicate, preserving order.
func keep(pool []scoredItem, pred func(scoredItem) bool) []scoredItem {
	var out []scoredItem
	for _, si := range pool {
		if pred(si) {
			out = append(out, si)
		}
	}
	return out
}

// reject returns the elements not matching the predicate.
func reject(pool []scoredItem, pred func(scoredItem) bool) []scoredItem {
	var out []scoredItem
	for _, si := range pool {
		if !pred(si) {
			out = append(out, si)
		}
	}
	return out
}

// float moves items whose name matches any token to the front,
// preserving relative order in both groups.
func float(pool []scoredItem, tokens ...string) []scoredItem {
	matched := keep(pool, func(si scoredItem) bool {
		return containsAny(si.item.NameText(), tokens)
	})
	if len(matched) == 0 {
		return pool
	}
	rest := reject(pool, func(si scoredItem) bool {
		return containsAny(si.item.NameText(), tokens)
	})
	return append(matched, rest...)
}

// demote removes items matching the token when at least one alternative
// remains, trimming the pool back to the dressy size.
func demote(pool []scoredItem, token string) []scoredItem {
	if len(pool) == 0 {
		return pool
	}
	remaining := reject(pool, func(si scoredItem) bool {
		return strings.Contains(si.item.NameText(), token)
	})
	if len(remaining) == 0 {
		return pool
	}
	if len(remaining) > poolKeepDressy {
		remaining = remaining[:poolKeepDressy]
	}
	return remaining
}

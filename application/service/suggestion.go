package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/stylo-app/stylo/domain/suggestion"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/infrastructure/cache"
	"github.com/stylo-app/stylo/infrastructure/reco"
	"github.com/stylo-app/stylo/internal/log"
)

const (
	maxSuggestionLimit     = 3
	defaultSuggestionLimit = 3
	fallbackOutfitScore    = 50
)

// SuggestedItem is the wire shape of one item inside an outfit.
type SuggestedItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// SuggestedOutfit is the wire shape of one proposed outfit. The layer
// slot is exposed under the "outerwear" key.
type SuggestedOutfit struct {
	Top         *SuggestedItem `json:"top"`
	Bottom      *SuggestedItem `json:"bottom"`
	Footwear    *SuggestedItem `json:"footwear"`
	Outerwear   *SuggestedItem `json:"outerwear"`
	Accessories *SuggestedItem `json:"accessories"`
	Score       float64        `json:"score"`
	Rationale   string         `json:"rationale"`
	Source      string         `json:"source,omitempty"`
}

// SuggestionResponse is the full answer to a suggestion request.
type SuggestionResponse struct {
	Intent   string            `json:"intent"`
	Kind     string            `json:"kind,omitempty"`
	ItemType string            `json:"item_type,omitempty"`
	Outfits  []SuggestedOutfit `json:"outfits"`
	Degraded bool              `json:"degraded,omitempty"`
	Cached   bool              `json:"cached,omitempty"`
}

// Suggestions orchestrates one suggestion request: cache lookup,
// retrieval, the optional generative delegate, the rule engine, and a
// last-resort simple builder. It is the only component that reads or
// writes the suggestion cache.
type Suggestions struct {
	retriever *reco.Retriever
	selector  *reco.Selector
	delegate  *reco.Delegate
	cache     cache.Cache
	ttl       time.Duration
	closed    *atomic.Bool
	logger    *log.Logger
}

// NewSuggestions creates the orchestrator. delegate may be nil when no
// generative model is configured; cache may be nil to disable caching.
func NewSuggestions(
	retriever *reco.Retriever,
	selector *reco.Selector,
	delegate *reco.Delegate,
	c cache.Cache,
	ttl time.Duration,
	closed *atomic.Bool,
	logger *log.Logger,
) *Suggestions {
	return &Suggestions{
		retriever: retriever,
		selector:  selector,
		delegate:  delegate,
		cache:     c,
		ttl:       ttl,
		closed:    closed,
		logger:    logger,
	}
}

// Suggest answers a free-text outfit request for the owner. limit 0
// means the default of 3; values outside [1,3] are rejected.
func (s *Suggestions) Suggest(ctx context.Context, ownerID, query string, limit int) (SuggestionResponse, error) {
	if s.closed != nil && s.closed.Load() {
		return SuggestionResponse{}, ErrClientClosed
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return SuggestionResponse{}, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if limit == 0 {
		limit = defaultSuggestionLimit
	}
	if limit < 1 || limit > maxSuggestionLimit {
		return SuggestionResponse{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, maxSuggestionLimit)
	}

	// Cache lookup runs before any database access.
	key := cache.SuggestionKey(ownerID, q)
	if resp, ok := s.cachedResponse(ctx, key); ok {
		return resp, nil
	}

	kind, itemType := reco.ClassifyKind(q)

	retrieval, err := s.retriever.Retrieve(ctx, ownerID, q)
	if err != nil {
		s.logger.ErrorContext(ctx, "retrieval failed, answering with empty outfits", "error", err)
		return SuggestionResponse{Intent: "none", Kind: string(kind), ItemType: itemType, Outfits: []SuggestedOutfit{}}, nil
	}

	if len(retrieval.Items) == 0 {
		resp := SuggestionResponse{
			Intent:   "none",
			Kind:     string(kind),
			ItemType: itemType,
			Outfits:  []SuggestedOutfit{},
			Degraded: retrieval.Degraded,
		}
		if !retrieval.Degraded {
			s.storeResponse(ctx, key, resp)
		}
		return resp, nil
	}

	outfits := s.assemble(ctx, q, retrieval, limit)

	resp := SuggestionResponse{
		Intent:   retrieval.Intent.Label().String(),
		Kind:     string(kind),
		ItemType: itemType,
		Outfits:  shapeOutfits(outfits),
		Degraded: retrieval.Degraded,
	}
	if !retrieval.Degraded {
		s.storeResponse(ctx, key, resp)
	}
	return resp, nil
}

// assemble tries the generative delegate first, then the rule engine,
// then the last-resort simple builder.
func (s *Suggestions) assemble(ctx context.Context, query string, retrieval reco.Retrieval, limit int) []suggestion.Outfit {
	if s.delegate != nil {
		outfits, err := s.delegate.Suggest(ctx, query, retrieval.Intent, retrieval.Items, limit)
		if err == nil && len(outfits) > 0 {
			return outfits
		}
		if err != nil {
			s.logger.WarnContext(ctx, "model delegate unavailable, using rule engine", "error", err)
		}
	}

	outfits := s.selector.Assemble(ctx, query, retrieval.Items, retrieval.Intent.Label(), limit)
	if len(outfits) > 0 {
		return outfits
	}

	if fallback, ok := simpleFallback(retrieval.Items); ok {
		return []suggestion.Outfit{fallback}
	}
	return nil
}

// cachedResponse looks up a memoized response. Cache failures degrade
// to a miss.
func (s *Suggestions) cachedResponse(ctx context.Context, key string) (SuggestionResponse, bool) {
	if s.cache == nil {
		return SuggestionResponse{}, false
	}
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "suggestion cache read failed", "error", err)
		return SuggestionResponse{}, false
	}
	if !ok {
		return SuggestionResponse{}, false
	}

	var resp SuggestionResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		s.logger.WarnContext(ctx, "discarding malformed cache entry", "error", err)
		return SuggestionResponse{}, false
	}
	resp.Cached = true
	return resp, true
}

// storeResponse memoizes a successful response. Failures only warn.
func (s *Suggestions) storeResponse(ctx context.Context, key string, resp SuggestionResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.WarnContext(ctx, "suggestion response marshal failed", "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "suggestion cache write failed", "error", err)
	}
}

func shapeOutfits(outfits []suggestion.Outfit) []SuggestedOutfit {
	shaped := make([]SuggestedOutfit, len(outfits))
	for i, outfit := range outfits {
		shaped[i] = SuggestedOutfit{
			Top:         shapeItem(outfit, wardrobe.SlotTop),
			Bottom:      shapeItem(outfit, wardrobe.SlotBottom),
			Footwear:    shapeItem(outfit, wardrobe.SlotFootwear),
			Outerwear:   shapeItem(outfit, wardrobe.SlotLayer),
			Accessories: shapeItem(outfit, wardrobe.SlotAccessories),
			Score:       outfit.Score(),
			Rationale:   outfit.Rationale(),
			Source:      string(outfit.Source()),
		}
	}
	return shaped
}

func shapeItem(outfit suggestion.Outfit, slot wardrobe.Slot) *SuggestedItem {
	item, ok := outfit.Item(slot)
	if !ok {
		return nil
	}
	return &SuggestedItem{
		ID:       item.ID(),
		Name:     item.Type(),
		Category: item.Slot().String(),
		Color:    item.Color(),
		ImageURL: item.ImageRef(),
	}
}

// Type hints for the last-resort builder, matched as lowercase
// substrings of an item's name text.
var fallbackHints = map[wardrobe.Slot][]string{
	wardrobe.SlotTop:      {"shirt", "t-shirt", "polo", "blouse", "sweater"},
	wardrobe.SlotBottom:   {"jeans", "pants", "chinos", "skirt", "shorts"},
	wardrobe.SlotFootwear: {"sneaker", "boot", "loafer", "shoe", "sandal"},
	wardrobe.SlotLayer:    {"jacket", "blazer", "hoodie", "sweater", "cardigan"},
}

// simpleFallback builds one plausible outfit by picking a hinted item
// per slot. It only emits when every required slot can be filled.
func simpleFallback(items []wardrobe.Item) (suggestion.Outfit, bool) {
	bySlot := make(map[wardrobe.Slot][]wardrobe.Item)
	for _, item := range items {
		slot := wardrobe.NormalizeSlot(item.Slot().String())
		if slot == wardrobe.SlotUnknown {
			continue
		}
		bySlot[slot] = append(bySlot[slot], item)
	}

	picks := make(map[wardrobe.Slot]wardrobe.Item)
	for slot, pool := range bySlot {
		if item, ok := pickHinted(pool, fallbackHints[slot]); ok {
			picks[slot] = item
		}
	}

	outfit := suggestion.NewOutfit(picks, suggestion.SourceRules)
	if !outfit.Complete() {
		return suggestion.Outfit{}, false
	}
	return outfit.
		WithScore(fallbackOutfitScore).
		WithRationale("Basic combination from your wardrobe"), true
}

func pickHinted(pool []wardrobe.Item, hints []string) (wardrobe.Item, bool) {
	if len(pool) == 0 {
		return wardrobe.Item{}, false
	}
	for _, item := range pool {
		if containsAnyHint(item.NameText(), hints) {
			return item, true
		}
	}
	return pool[0], true
}

func containsAnyHint(text string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(text, h) {
			return true
		}
	}
	return false
}

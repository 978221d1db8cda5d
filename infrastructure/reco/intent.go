package reco

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/stylo-app/stylo/domain/suggestion"
	"github.com/stylo-app/stylo/internal/log"
)

// IntentClassifier assigns a styling intent to a query by comparing it
// against embedded seed descriptions, one small bank per label. Seed
// vectors are computed once and cached for the life of the classifier.
type IntentClassifier struct {
	embedder suggestion.Embedder
	logger   *log.Logger

	mu       sync.Mutex
	seedVecs map[suggestion.Label][][]float64
}

// NewIntentClassifier creates a classifier backed by the given embedder.
func NewIntentClassifier(embedder suggestion.Embedder, logger *log.Logger) *IntentClassifier {
	return &IntentClassifier{
		embedder: embedder,
		logger:   logger,
	}
}

// Classify maps the query to the label whose seeds have the highest mean
// cosine similarity. Never fails: classification errors default to casual.
func (c *IntentClassifier) Classify(ctx context.Context, text string) suggestion.Intent {
	seedVecs, err := c.seedVectors(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "intent classification unavailable, defaulting to casual", "error", err)
		return suggestion.DefaultIntent()
	}

	queryVec, err := suggestion.EmbedOne(ctx, c.embedder, text)
	if err != nil {
		c.logger.WarnContext(ctx, "query embedding failed, defaulting to casual", "error", err)
		return suggestion.DefaultIntent()
	}

	ranked := make([]suggestion.LabelScore, 0, len(suggestion.Labels))
	for _, label := range suggestion.Labels {
		vecs := seedVecs[label]
		var sum float64
		for _, v := range vecs {
			sum += suggestion.Cosine(queryVec, v)
		}
		mean := 0.0
		if len(vecs) > 0 {
			mean = sum / float64(len(vecs))
		}
		ranked = append(ranked, suggestion.LabelScore{Label: label, Score: mean})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) == 0 {
		return suggestion.DefaultIntent()
	}
	return suggestion.NewIntent(ranked[0].Label, ranked)
}

// seedVectors embeds every seed description once, keyed by label.
func (c *IntentClassifier) seedVectors(ctx context.Context) (map[suggestion.Label][][]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seedVecs != nil {
		return c.seedVecs, nil
	}

	texts := make([]string, 0, len(suggestion.Labels)*2)
	index := make([]suggestion.Label, 0, len(suggestion.Labels)*2)
	for _, label := range suggestion.Labels {
		for _, s := range seeds[label.String()] {
			texts = append(texts, s)
			index = append(index, label)
		}
	}

	vecs, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[suggestion.Label][][]float64, len(suggestion.Labels))
	for i, label := range index {
		if i < len(vecs) {
			byLabel[label] = append(byLabel[label], vecs[i])
		}
	}

	c.seedVecs = byLabel
	return byLabel, nil
}

// Keyword tables for the coarse query-kind classifier. Substring matching
// on the lowercased query, mirroring the item name matching elsewhere.
var (
	itemKeywords = map[string][]string{
		"shoes": {"shoe", "shoes", "sneaker", "sneakers", "trainers", "boots", "loafers", "slides"},
	}

	activityKeywords = map[string][]string{
		"walk":  {"walk", "walking"},
		"run":   {"run", "running", "jog", "jogging"},
		"hike":  {"hike", "hiking", "trail"},
		"sport": {"basketball", "soccer", "tennis", "sport", "sports"},
	}

	outfitHints = []string{
		"outfit", "wear", "dress", "what should i wear", "suggest", "occasion",
		"party", "wedding", "date", "dinner", "restaurant", "business", "interview", "office",
	}
)

// ClassifyKind decides what shape of answer a query wants: a full
// outfit, an item search, a blend of both, or activity-suited shoes.
// The second return value is the requested item type when applicable.
func ClassifyKind(text string) (suggestion.QueryKind, string) {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRight(t, "?!.")
	t = strings.TrimSpace(t)

	// Activity mentions without outfit hints mean "shoes for this activity".
	for _, keys := range activityKeywords {
		if containsAny(t, keys) {
			if !containsAny(t, outfitHints) {
				return suggestion.KindActivityShoes, "shoes"
			}
			return suggestion.KindOutfit, ""
		}
	}

	var requestedItem string
	for itemType, keys := range itemKeywords {
		if containsAny(t, keys) {
			requestedItem = itemType
			break
		}
	}

	hasOutfitHint := containsAny(t, outfitHints)

	switch {
	case requestedItem != "" && hasOutfitHint:
		return suggestion.KindBlended, requestedItem
	case requestedItem != "":
		return suggestion.KindItemSearch, requestedItem
	default:
		return suggestion.KindOutfit, ""
	}
}

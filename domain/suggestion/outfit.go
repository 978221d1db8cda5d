package suggestion

import (
	"sort"
	"strings"

	"github.com/stylo-app/stylo/domain/wardrobe"
)

// Source records which engine produced an outfit.
type Source string

// Outfit sources.
const (
	SourceRules Source = "rules"
	SourceModel Source = "model"
)

// Outfit is an assembled look: one item per filled slot, a score on a
// 0 to 100 scale, and an optional rationale.
type Outfit struct {
	items     map[wardrobe.Slot]wardrobe.Item
	score     float64
	rationale string
	source    Source
}

// NewOutfit creates an outfit from a slot to item mapping.
func NewOutfit(items map[wardrobe.Slot]wardrobe.Item, source Source) Outfit {
	copied := make(map[wardrobe.Slot]wardrobe.Item, len(items))
	for slot, item := range items {
		copied[slot] = item
	}
	return Outfit{items: copied, source: source}
}

// Items returns a copy of the slot to item mapping.
func (o Outfit) Items() map[wardrobe.Slot]wardrobe.Item {
	out := make(map[wardrobe.Slot]wardrobe.Item, len(o.items))
	for slot, item := range o.items {
		out[slot] = item
	}
	return out
}

// Item returns the item filling the given slot, if any.
func (o Outfit) Item(slot wardrobe.Slot) (wardrobe.Item, bool) {
	item, ok := o.items[slot]
	return item, ok
}

// Score returns the outfit's score on a 0 to 100 scale.
func (o Outfit) Score() float64 { return o.score }

// Rationale returns the optional explanation for the outfit.
func (o Outfit) Rationale() string { return o.rationale }

// Source returns which engine produced the outfit.
func (o Outfit) Source() Source { return o.source }

// WithScore returns a copy with the score set.
func (o Outfit) WithScore(score float64) Outfit {
	o.score = score
	return o
}

// WithRationale returns a copy with the rationale set.
func (o Outfit) WithRationale(rationale string) Outfit {
	o.rationale = rationale
	return o
}

// Complete reports whether every required slot is filled.
func (o Outfit) Complete() bool {
	for _, slot := range wardrobe.RequiredSlots {
		if _, ok := o.items[slot]; !ok {
			return false
		}
	}
	return true
}

// ItemIDs returns the ids of all items in the outfit, sorted.
func (o Outfit) ItemIDs() []string {
	ids := make([]string, 0, len(o.items))
	for _, item := range o.items {
		ids = append(ids, item.ID())
	}
	sort.Strings(ids)
	return ids
}

// Key is a stable identity for deduplication: the sorted item ids joined.
func (o Outfit) Key() string {
	return strings.Join(o.ItemIDs(), "|")
}

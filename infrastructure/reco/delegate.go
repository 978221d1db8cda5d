package reco

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/stylo-app/stylo/domain/suggestion"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/internal/log"
)

const (
	delegateItemsPerSlot = 5
	delegateItemsTotal   = 20
	delegateOutfitScore  = 100

	// Emergency caps used when the default projection still renders a
	// prompt over the token budget.
	emergencyItemsPerSlot = 2
	emergencyItemsTotal   = 10
)

// Generator produces model text for a prompt. Satisfied by the Gemini
// provider.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Delegate asks a generative model to style outfits from the user's
// wardrobe. Any failure is returned to the caller, which falls back to
// the rule-based selector.
type Delegate struct {
	generator   Generator
	tokenBudget int
	logger      *log.Logger
}

// NewDelegate creates a Delegate. tokenBudget caps the approximate
// prompt size in tokens.
func NewDelegate(generator Generator, tokenBudget int, logger *log.Logger) *Delegate {
	return &Delegate{
		generator:   generator,
		tokenBudget: tokenBudget,
		logger:      logger,
	}
}

// Suggest asks the model for up to limit outfits built strictly from the
// given items. Returned outfits always contain the required slots and
// only ids present in items.
func (d *Delegate) Suggest(ctx context.Context, query string, intent suggestion.Intent, items []wardrobe.Item, limit int) ([]suggestion.Outfit, error) {
	if limit <= 0 {
		limit = 1
	}

	projected := projectWardrobe(items, delegateItemsPerSlot, delegateItemsTotal)
	if len(projected) == 0 {
		return nil, fmt.Errorf("no items to style")
	}

	prompt := buildPrompt(query, intent, projected, limit)
	if d.overBudget(prompt) {
		reduced := projectWardrobe(items, emergencyItemsPerSlot, emergencyItemsTotal)
		d.logger.WarnContext(ctx, "prompt over token budget, truncating wardrobe projection",
			"items", len(projected), "reduced", len(reduced), "budget", d.tokenBudget)
		projected = reduced
		prompt = buildPrompt(query, intent, projected, limit)
		if d.overBudget(prompt) {
			return nil, fmt.Errorf("prompt exceeds token budget after truncation: ~%d tokens > %d", len(prompt)/4, d.tokenBudget)
		}
	}

	text, err := d.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate outfits: %w", err)
	}

	outfits, err := parseOutfits(text, projected, limit)
	if err != nil {
		return nil, err
	}
	if len(outfits) == 0 {
		return nil, fmt.Errorf("model returned no valid outfits")
	}

	d.logger.DebugContext(ctx, "model delegate produced outfits", "count", len(outfits))
	return outfits, nil
}

func (d *Delegate) overBudget(prompt string) bool {
	return d.tokenBudget > 0 && len(prompt)/4 > d.tokenBudget
}

// projectWardrobe keeps at most perSlot items per slot and total items
// overall so the prompt stays small on large catalogs. Items arrive
// pre-ranked from retrieval, so truncation keeps the most relevant ones.
func projectWardrobe(items []wardrobe.Item, perSlot, total int) []wardrobe.Item {
	counts := make(map[wardrobe.Slot]int)
	projected := make([]wardrobe.Item, 0, total)
	for _, item := range items {
		if len(projected) >= total {
			break
		}
		slot := wardrobe.NormalizeSlot(item.Slot().String())
		if slot == wardrobe.SlotUnknown || counts[slot] >= perSlot {
			continue
		}
		counts[slot]++
		projected = append(projected, item)
	}
	return projected
}

// buildPrompt renders the stylist prompt with the wardrobe inlined as
// one line per item.
func buildPrompt(query string, intent suggestion.Intent, items []wardrobe.Item, limit int) string {
	var lines []string
	for _, item := range items {
		parts := []string{
			"ID: " + item.ID(),
			"Name: " + displayName(item),
			"Category: " + item.Slot().String(),
		}
		if c := item.Color(); c != "" {
			parts = append(parts, "Color: "+c)
		}
		if desc := item.Description(); desc != "" {
			if len(desc) > 100 {
				desc = desc[:100]
			}
			parts = append(parts, "Description: "+desc)
		}
		lines = append(lines, " - "+strings.Join(parts, " | "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a fashion stylist assistant. Based on the user's request and their wardrobe, suggest %d complete outfits.\n\n", limit)
	fmt.Fprintf(&b, "USER REQUEST: %q\n\n", query)
	fmt.Fprintf(&b, "DETECTED OCCASION: %s\n\n", intent.Label())
	b.WriteString("USER'S WARDROBE:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString("1. For each outfit, select items from the wardrobe that match the occasion and work well together\n")
	b.WriteString("2. Each outfit must include: top, bottom, and footwear (required)\n")
	b.WriteString("3. Optionally include: outerwear/layer and accessories if appropriate\n")
	b.WriteString("4. Ensure colors coordinate well\n")
	b.WriteString("5. Match the occasion/style described in the user's request\n")
	b.WriteString("6. Return ONLY valid item IDs from the wardrobe - do not invent items\n")
	b.WriteString("7. Add a one-sentence rationale explaining each outfit\n\n")
	b.WriteString("Return your response in this exact JSON format:\n")
	b.WriteString(`{
  "outfits": [
    {
      "top": {"id": "item-id"},
      "bottom": {"id": "item-id"},
      "footwear": {"id": "item-id"},
      "layer": {"id": "item-id"},
      "accessories": {"id": "item-id"},
      "rationale": "why this outfit works"
    }
  ]
}`)
	b.WriteString("\n\nImportant: Only use item IDs that exist in the wardrobe above. Ensure all required categories (top, bottom, footwear) are present in each outfit.")
	return b.String()
}

func displayName(item wardrobe.Item) string {
	if t := item.Type(); t != "" {
		return t
	}
	return "Unknown"
}

// itemRef tolerates both string and numeric ids in model output.
type itemRef struct {
	ID string
}

func (r *itemRef) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if len(wrapper.ID) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(wrapper.ID, &s); err == nil {
		r.ID = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(wrapper.ID, &n); err == nil {
		r.ID = n.String()
		return nil
	}
	return fmt.Errorf("item id is neither string nor number: %s", wrapper.ID)
}

type modelOutfit struct {
	Top         *itemRef `json:"top"`
	Bottom      *itemRef `json:"bottom"`
	Footwear    *itemRef `json:"footwear"`
	Layer       *itemRef `json:"layer"`
	Outerwear   *itemRef `json:"outerwear"`
	Accessories *itemRef `json:"accessories"`
	Rationale   string   `json:"rationale"`
}

// slotRefs maps each filled slot to its reference, folding the two
// accepted names for the layer slot.
func (o modelOutfit) slotRefs() map[wardrobe.Slot]*itemRef {
	refs := map[wardrobe.Slot]*itemRef{
		wardrobe.SlotTop:         o.Top,
		wardrobe.SlotBottom:      o.Bottom,
		wardrobe.SlotFootwear:    o.Footwear,
		wardrobe.SlotLayer:       o.Layer,
		wardrobe.SlotAccessories: o.Accessories,
	}
	if refs[wardrobe.SlotLayer] == nil {
		refs[wardrobe.SlotLayer] = o.Outerwear
	}
	return refs
}

type modelResponse struct {
	Outfits []modelOutfit `json:"outfits"`
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls the JSON object out of model text that may wrap it
// in prose or a fenced code block.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if json.Valid([]byte(text)) {
		return text, nil
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}
	// Balanced-braces fallback: first top-level object in the text.
	start := strings.Index(text, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object in model output")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in model output")
}

// parseOutfits extracts, validates, and converts the model response.
// Outfits referencing unknown ids in a required slot are dropped.
func parseOutfits(text string, items []wardrobe.Item, limit int) ([]suggestion.Outfit, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	byID := make(map[string]wardrobe.Item, len(items))
	for _, item := range items {
		byID[item.ID()] = item
	}

	var outfits []suggestion.Outfit
	for _, entry := range resp.Outfits {
		if len(outfits) >= limit {
			break
		}
		picks := make(map[wardrobe.Slot]wardrobe.Item)
		for slot, ref := range entry.slotRefs() {
			if ref == nil || ref.ID == "" {
				continue
			}
			if item, ok := byID[ref.ID]; ok {
				picks[slot] = item
			}
		}

		outfit := suggestion.NewOutfit(picks, suggestion.SourceModel)
		if !outfit.Complete() {
			continue
		}
		rationale := strings.TrimSpace(entry.Rationale)
		if rationale == "" {
			rationale = "Styled by the model for your request"
		}
		outfits = append(outfits, outfit.WithScore(delegateOutfitScore).WithRationale(rationale))
	}
	return outfits, nil
}

// Package reco implements the outfit recommendation pipeline: intent
// classification, semantic retrieval, rule-based outfit assembly, color
// harmony scoring, and the generative delegate.
package reco

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stylo-app/stylo/domain/suggestion"
	"github.com/stylo-app/stylo/domain/wardrobe"
)

//go:embed rules.yaml
var rulesYAML []byte

//go:embed seeds.yaml
var seedsYAML []byte

// SlotRule holds the soft keyword preferences for one (intent, slot) pair.
type SlotRule struct {
	Prefer []string `yaml:"prefer"`
	Avoid  []string `yaml:"avoid"`
}

// HardRule is the strict dress-code filter for business and formal.
type HardRule struct {
	Avoid  []string `yaml:"avoid"`
	Prefer []string `yaml:"prefer"`
}

// Ruleset is the full selection rule table loaded from rules.yaml.
type Ruleset struct {
	Bias              map[string]float64             `yaml:"bias"`
	DefaultBias       float64                        `yaml:"default_bias"`
	PreferBonus       float64                        `yaml:"prefer_bonus"`
	PreferBonusDressy float64                        `yaml:"prefer_bonus_dressy"`
	AvoidPenalty      float64                        `yaml:"avoid_penalty"`
	AvoidPenaltyDress float64                        `yaml:"avoid_penalty_dressy"`
	Intents           map[string]map[string]SlotRule `yaml:"intents"`
	Hard              HardRule                       `yaml:"hard"`
}

var (
	rules Ruleset
	seeds map[string][]string
)

func init() {
	if err := yaml.Unmarshal(rulesYAML, &rules); err != nil {
		panic(fmt.Sprintf("reco: parse rules.yaml: %v", err))
	}
	if err := yaml.Unmarshal(seedsYAML, &seeds); err != nil {
		panic(fmt.Sprintf("reco: parse seeds.yaml: %v", err))
	}
	for _, label := range suggestion.Labels {
		if _, ok := seeds[label.String()]; !ok {
			panic(fmt.Sprintf("reco: seeds.yaml missing label %q", label))
		}
	}
}

// biasFor returns the outfit-level bias for an intent label. Slightly
// favoring some occasions helps break ties between similar outfits.
func biasFor(label suggestion.Label) float64 {
	if b, ok := rules.Bias[label.String()]; ok {
		return b
	}
	return rules.DefaultBias
}

// slotRule returns the soft rule for an (intent, slot) pair, if any.
func slotRule(label suggestion.Label, slot wardrobe.Slot) (SlotRule, bool) {
	intentRules, ok := rules.Intents[label.String()]
	if !ok {
		return SlotRule{}, false
	}
	r, ok := intentRules[slot.String()]
	return r, ok
}

// applyIntentBias adjusts a per-slot item score by the intent's prefer
// and avoid lists. Dressy intents get stronger adjustments so dress-code
// violations sink reliably.
func applyIntentBias(label suggestion.Label, slot wardrobe.Slot, nameText string, base float64) float64 {
	r, ok := slotRule(label, slot)
	if !ok {
		return base
	}

	bonus := 0.0
	if containsAny(nameText, r.Prefer) {
		if label.Dressy() {
			bonus += rules.PreferBonusDressy
		} else {
			bonus += rules.PreferBonus
		}
	}
	if containsAny(nameText, r.Avoid) {
		if label.Dressy() {
			bonus -= rules.AvoidPenaltyDress
		} else {
			bonus -= rules.AvoidPenalty
		}
	}
	return base + bonus
}

func containsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if tok != "" && strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

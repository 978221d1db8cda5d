package suggestion

import "strings"

// Label is a styling intent inferred from the user's query.
type Label string

// Known intent labels.
const (
	LabelBusiness Label = "business"
	LabelFormal   Label = "formal"
	LabelParty    Label = "party"
	LabelCasual   Label = "casual"
	LabelWorkout  Label = "workout"
	LabelBeach    Label = "beach"
	LabelHiking   Label = "hiking"
)

// Labels lists every known intent label.
var Labels = []Label{LabelBusiness, LabelFormal, LabelParty, LabelCasual, LabelWorkout, LabelBeach, LabelHiking}

// ParseLabel parses a raw label string, falling back to casual for
// anything unrecognised.
func ParseLabel(raw string) Label {
	l := Label(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Labels {
		if l == known {
			return l
		}
	}
	return LabelCasual
}

// Dressy reports whether the label calls for the strict dress-code
// filtering applied to business and formal looks.
func (l Label) Dressy() bool {
	return l == LabelBusiness || l == LabelFormal
}

// String returns the label as a string.
func (l Label) String() string {
	return string(l)
}

// LabelScore pairs an intent label with its similarity score.
type LabelScore struct {
	Label Label
	Score float64
}

// Intent is the result of classifying a query: the winning label plus
// the full ranked score list for diagnostics.
type Intent struct {
	label  Label
	scores []LabelScore
}

// NewIntent creates an Intent. Scores should already be sorted by score
// descending.
func NewIntent(label Label, scores []LabelScore) Intent {
	copied := make([]LabelScore, len(scores))
	copy(copied, scores)
	return Intent{label: label, scores: copied}
}

// DefaultIntent is the fallback when classification is unavailable.
func DefaultIntent() Intent {
	return Intent{label: LabelCasual}
}

// Label returns the winning intent label.
func (i Intent) Label() Label { return i.label }

// Scores returns the ranked label scores.
func (i Intent) Scores() []LabelScore {
	out := make([]LabelScore, len(i.scores))
	copy(out, i.scores)
	return out
}

// QueryKind describes what shape of answer a query wants.
type QueryKind string

// Query kinds.
const (
	KindOutfit        QueryKind = "outfit"
	KindItemSearch    QueryKind = "item_search"
	KindBlended       QueryKind = "blended_outfit_item"
	KindActivityShoes QueryKind = "activity_shoes"
)

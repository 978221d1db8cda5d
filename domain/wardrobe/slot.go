package wardrobe

import "strings"

// Slot is the role an item plays inside an outfit.
type Slot string

// Slot values.
const (
	SlotTop         Slot = "top"
	SlotBottom      Slot = "bottom"
	SlotFootwear    Slot = "footwear"
	SlotLayer       Slot = "layer"
	SlotOnePiece    Slot = "one-piece"
	SlotAccessories Slot = "accessories"
	SlotUnknown     Slot = ""
)

// RequiredSlots are the slots every emitted outfit must fill.
var RequiredSlots = []Slot{SlotTop, SlotBottom, SlotFootwear}

// OptionalSlots may be filled when an acceptable candidate exists.
var OptionalSlots = []Slot{SlotLayer, SlotAccessories}

// AllSlots lists every known slot value.
var AllSlots = []Slot{SlotTop, SlotBottom, SlotFootwear, SlotLayer, SlotOnePiece, SlotAccessories}

// NormalizeSlot parses a raw slot string. Matching is case-insensitive and
// the legacy "shoes" value maps to footwear; older rows still carry it.
// Unrecognised values return SlotUnknown.
func NormalizeSlot(raw string) Slot {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "top":
		return SlotTop
	case "bottom":
		return SlotBottom
	case "footwear", "shoes":
		return SlotFootwear
	case "layer", "outerwear":
		return SlotLayer
	case "one-piece", "onepiece":
		return SlotOnePiece
	case "accessories", "accessory":
		return SlotAccessories
	default:
		return SlotUnknown
	}
}

// StoredAliases returns every spelling of s that may appear in stored
// rows, the canonical value first. Store filters must match all of them.
func (s Slot) StoredAliases() []string {
	switch s {
	case SlotFootwear:
		return []string{"footwear", "shoes"}
	case SlotLayer:
		return []string{"layer", "outerwear"}
	case SlotOnePiece:
		return []string{"one-piece", "onepiece"}
	case SlotAccessories:
		return []string{"accessories", "accessory"}
	default:
		return []string{string(s)}
	}
}

// Valid reports whether s is a known slot value.
func (s Slot) Valid() bool {
	for _, known := range AllSlots {
		if s == known {
			return true
		}
	}
	return false
}

// Required reports whether s is one of the required outfit slots.
func (s Slot) Required() bool {
	return s == SlotTop || s == SlotBottom || s == SlotFootwear
}

// String returns the slot as a string.
func (s Slot) String() string {
	return string(s)
}

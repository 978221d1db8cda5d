package reco

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/stylo-app/stylo/domain/wardrobe"
)

// Neutral scores used when color information is missing or too sparse
// to judge harmony.
const (
	colorScoreNoPalette = 0.5
	colorScoreSparse    = 0.6
)

// namedColors maps common CSS color names to hex values. Item colors are
// free text, so unknown names simply drop out of the palette.
var namedColors = map[string]string{
	"black":     "#000000",
	"white":     "#ffffff",
	"red":       "#ff0000",
	"green":     "#008000",
	"blue":      "#0000ff",
	"navy":      "#000080",
	"gray":      "#808080",
	"grey":      "#808080",
	"silver":    "#c0c0c0",
	"beige":     "#f5f5dc",
	"brown":     "#a52a2a",
	"tan":       "#d2b48c",
	"khaki":     "#f0e68c",
	"olive":     "#808000",
	"maroon":    "#800000",
	"pink":      "#ffc0cb",
	"hotpink":   "#ff69b4",
	"purple":    "#800080",
	"violet":    "#ee82ee",
	"lavender":  "#e6e6fa",
	"indigo":    "#4b0082",
	"orange":    "#ffa500",
	"coral":     "#ff7f50",
	"salmon":    "#fa8072",
	"yellow":    "#ffff00",
	"gold":      "#ffd700",
	"ivory":     "#fffff0",
	"cream":     "#fffdd0",
	"teal":      "#008080",
	"turquoise": "#40e0d0",
	"cyan":      "#00ffff",
	"aqua":      "#00ffff",
	"lime":      "#00ff00",
	"magenta":   "#ff00ff",
	"crimson":   "#dc143c",
	"chocolate": "#d2691e",
	"charcoal":  "#36454f",
	"burgundy":  "#800020",
	"denim":     "#1560bd",
	"mint":      "#98ff98",
	"mustard":   "#ffdb58",
	"rust":      "#b7410e",
	"plum":      "#dda0dd",
	"skyblue":   "#87ceeb",
	"royalblue": "#4169e1",
	"darkgreen": "#006400",
	"darkblue":  "#00008b",
	"lightgray": "#d3d3d3",
	"lightblue": "#add8e6",
	"offwhite":  "#faf9f6",
}

// inferPalette collects the lowercased color of each selected item,
// keyed by slot.
func inferPalette(items map[wardrobe.Slot]wardrobe.Item) map[wardrobe.Slot]string {
	palette := make(map[wardrobe.Slot]string)
	for slot, item := range items {
		if c := item.Color(); c != "" {
			palette[slot] = strings.ToLower(c)
		}
	}
	return palette
}

// parseColor resolves a color string to a colorful.Color. Accepts known
// names and #RRGGBB hex values.
func parseColor(name string) (colorful.Color, bool) {
	name = strings.TrimSpace(strings.ToLower(name))
	if hexVal, ok := namedColors[strings.ReplaceAll(name, " ", "")]; ok {
		name = hexVal
	}
	if !strings.HasPrefix(name, "#") || len(name) != 7 {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(name)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// paletteScore rates how harmonious the palette is using pairwise
// CIEDE2000 distances in Lab space. Lower average distance means higher
// harmony. The result is compressed toward the middle of [0.4, 1.0] so
// color never dominates the semantic score.
func paletteScore(palette map[wardrobe.Slot]string) float64 {
	if len(palette) == 0 {
		return colorScoreNoPalette
	}

	colors := make([]colorful.Color, 0, len(palette))
	for _, name := range palette {
		if c, ok := parseColor(name); ok {
			colors = append(colors, c)
		}
	}
	if len(colors) < 2 {
		return colorScoreSparse
	}

	var sum float64
	var count int
	for i := 0; i < len(colors); i++ {
		for j := i + 1; j < len(colors); j++ {
			// go-colorful scales CIEDE2000 down by 100 relative to the
			// conventional delta E range; scale back up.
			sum += colors[i].DistanceCIEDE2000(colors[j]) * 100.0
			count++
		}
	}
	if count == 0 {
		return colorScoreSparse
	}

	// Map average distance roughly [0..100] onto [1..0].
	avg := sum / float64(count)
	norm := 1.0 - avg/100.0
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	return 0.4 + 0.6*norm
}

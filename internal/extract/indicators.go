package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// NonMetalKeywords flag mass that is not precious metal: set stones, resin
// fills, and plated or costume vocabulary. A hit means a stated weight
// overstates melt value.
var NonMetalKeywords = []string{
	"diamond", "sapphire", "ruby", "emerald", "opal", "pearl", "turquoise",
	"onyx", "jade", "amethyst", "topaz", "garnet", "citrine", "aquamarine",
	"tanzanite", "moissanite", "cubic zirconia", " cz ", "gemstone", "stone",
	"crystal", "glass", "enamel", "resin", "wood", "leather",
	"gold filled", "gold plated", "gold tone", "gold toned", "gf ", "gep",
	"hge", "silver plated", "silver plate", "silver tone", "silverplate",
	"vermeil", "costume",
}

// watchExemptKeywords keep loose bands and scrap cases from triggering the
// movement penalty. Any mention of a band exempts: a separately weighable
// band is metal mass even when sold with the watch named in the title.
var watchExemptKeywords = []string{
	"band", "bracelet only", "strap only", "case only", "scrap",
	"for parts", "no movement",
}

// NonMetalIndicator reports whether the listing text signals significant
// non-metal mass, and the first keyword that triggered. A watch counts as
// non-metal because the movement dominates the weight, unless the listing
// mentions a band or a scrap case.
func NonMetalIndicator(title, description string) (bool, string) {
	text := NormalizeText(title + " " + description)
	padded := " " + text + " "

	for _, kw := range NonMetalKeywords {
		if containsKeyword(padded, kw) {
			return true, trimKeyword(kw)
		}
	}

	if containsKeyword(padded, "watch") {
		for _, exempt := range watchExemptKeywords {
			if containsKeyword(padded, exempt) {
				return false, ""
			}
		}
		return true, "watch"
	}

	return false, ""
}

// Plain substring containment over space-padded text. Entries with their
// own padding (" cz ") only match as standalone tokens.
func containsKeyword(padded, kw string) bool {
	return kw != "" && strings.Contains(padded, kw)
}

func trimKeyword(kw string) string {
	return strings.TrimSpace(kw)
}

var (
	lotCountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`lot\s*of\s*(\d+)`),
		regexp.MustCompile(`(\d+)\s*(?:pc|pcs|piece|pieces)\s*lot`),
		regexp.MustCompile(`set\s*of\s*(\d+)`),
		regexp.MustCompile(`(\d+)\s*(?:pc|pcs)\b`),
	}
	bareLotPattern = regexp.MustCompile(`\b(?:lot|bulk|wholesale|mixed\s*lot)\b`)
)

// LotInfo reports whether the title describes a multi-item lot and how many
// pieces it claims. A lot with no stated count reports count 1.
func LotInfo(title string) (bool, int) {
	text := NormalizeText(title)

	for _, p := range lotCountPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return true, n
			}
		}
	}

	if bareLotPattern.MatchString(text) {
		return true, 1
	}
	return false, 0
}

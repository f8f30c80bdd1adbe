package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// FlatwareType maps keyword aliases to a piece name and its solid-sterling
// base weight in grams.
type FlatwareType struct {
	Keywords  []string
	BaseGrams float64
	PieceName string
}

// FlatwareTypes is ordered most-specific first so "serving fork" never
// falls through to the bare "fork" default.
var FlatwareTypes = []FlatwareType{
	{[]string{"dinner fork"}, 45, "dinner_fork"},
	{[]string{"salad fork", "dessert fork", "luncheon fork"}, 35, "salad_fork"},
	{[]string{"serving fork", "meat fork", "cold meat fork", "carving fork"}, 55, "serving_fork"},
	{[]string{"pickle fork", "olive fork", "cocktail fork", "seafood fork", "oyster fork"}, 10, "pickle_fork"},
	{[]string{"fork"}, 45, "fork"},

	{[]string{"tablespoon", "table spoon", "serving spoon", "berry spoon"}, 55, "serving_spoon"},
	{[]string{"dinner spoon"}, 45, "dinner_spoon"},
	{[]string{"soup spoon", "gumbo spoon", "bouillon spoon"}, 35, "soup_spoon"},
	{[]string{"teaspoon", "tea spoon", "demitasse spoon", "coffee spoon"}, 20, "teaspoon"},
	{[]string{"iced tea spoon", "ice tea spoon"}, 18, "iced_tea_spoon"},
	{[]string{"sugar spoon", "sugar shell"}, 25, "sugar_spoon"},
	{[]string{"spoon"}, 35, "spoon"},

	{[]string{"butter spreader", "butter knife", "butter server"}, 25, "butter_spreader"},
	{[]string{"ladle"}, 80, "ladle"},
	{[]string{"tongs", "sugar tongs", "ice tongs"}, 30, "tongs"},
	{[]string{"server", "pie server", "cake server"}, 60, "server"},
}

var sterlingMarkers = []string{"sterling", ".925", "925"}

// Size hints scale the base weight. Full-size pieces run 7.5 inches,
// luncheon pieces about 6.5, cocktail and dessert pieces smaller still.
var (
	largeSizeHints  = []string{`7 1/2`, `7.5"`, `7 1/2"`, "7.5 inch", "large", "dinner"}
	mediumSizeHints = []string{`6 1/2`, `6.5"`, `6 1/2"`, "luncheon", "medium"}
	smallSizeHints  = []string{`5 1/2`, `5.5"`, `5 1/2"`, "small", "cocktail", "dessert"}
)

var flatwareQtyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*(?:sterling|silver)`),
	regexp.MustCompile(`lot\s*of\s*(\d+)`),
	regexp.MustCompile(`set\s*of\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*(?:pc|pcs|pieces?)`),
	regexp.MustCompile(`(\d+)\s*(?:fork|spoon|ladle|tong|server)s?\b`),
	regexp.MustCompile(`^(\d+)\s+`),
}

// Flatware detects a sterling flatware listing and estimates total silver
// weight as base grams times size modifier times quantity. Non-sterling
// titles never match, whatever the piece vocabulary.
func Flatware(title string) (bool, string, int, float64) {
	text := NormalizeText(title)
	if !hasSterlingMarker(text) {
		return false, "", 0, 0
	}

	var matched *FlatwareType
	for i := range FlatwareTypes {
		if containsAny(text, FlatwareTypes[i].Keywords) {
			matched = &FlatwareTypes[i]
			break
		}
	}
	if matched == nil {
		return false, "", 0, 0
	}

	modifier := 1.0
	switch {
	case containsAny(text, largeSizeHints):
		modifier = 1.0
	case containsAny(text, mediumSizeHints):
		modifier = 0.85
	case containsAny(text, smallSizeHints):
		modifier = 0.7
	}

	quantity := extractQuantity(text, flatwareQtyPatterns)

	return true, matched.PieceName, quantity, matched.BaseGrams * modifier * float64(quantity)
}

// MaxSilverPerKnifeGrams bounds the silver in one hollow knife handle. The
// blade is stainless steel and contributes nothing.
const MaxSilverPerKnifeGrams = 15.0

var knifeKeywords = []string{
	"dinner knife", "dinner knives",
	"butter knife", "butter knives",
	"steak knife", "steak knives",
	"luncheon knife", "luncheon knives",
	"place knife", "place knives",
	"knives",
}

var knifeQtyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*(?:sterling|silver)`),
	regexp.MustCompile(`lot\s*of\s*(\d+)`),
	regexp.MustCompile(`set\s*of\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*(?:pc|pcs|pieces?)`),
	regexp.MustCompile(`(\d+)\s*knives?\b`),
	regexp.MustCompile(`^(\d+)\s+`),
}

// FlatwareKnives detects sterling flatware knives and caps the plausible
// silver content, since only the handles carry any.
func FlatwareKnives(title string) (bool, int, float64) {
	text := NormalizeText(title)
	if !hasSterlingMarker(text) {
		return false, 0, 0
	}
	if !containsAny(text, knifeKeywords) {
		return false, 0, 0
	}

	quantity := extractQuantity(text, knifeQtyPatterns)
	return true, quantity, float64(quantity) * MaxSilverPerKnifeGrams
}

func hasSterlingMarker(text string) bool {
	return containsAny(text, sterlingMarkers)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// extractQuantity tries each pattern in order, accepting the first count in
// the sane range [1, 100]. No match means a single piece.
func extractQuantity(text string, patterns []*regexp.Regexp) int {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n <= 100 {
				return n
			}
		}
	}
	return 1
}

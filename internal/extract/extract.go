// Package extract derives structured attributes (weight, purity, lot size,
// flatware estimates) from free-text listing titles and descriptions.
//
// Every function is a pure best-effort parser: malformed input yields
// "not found", never an error. Pattern tables are ordered priority lists
// evaluated first-match-wins, exported as data so tests can exercise every
// entry independently.
package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/calebwyatt/dealscout/internal/models"
)

// Unit conversions to grams.
const (
	GramsPerTroyOz  = 31.1  // precious metals trade in troy ounces
	GramsPerPlainOz = 28.35 // avoirdupois
	GramsPerDWT     = 1.555 // pennyweight, common in jewelry marks
)

// NormalizeText undoes the webhook transport encoding before matching:
// '+' as space, percent-escapes decoded, case folded. Undecodable escapes
// leave the text as-is rather than failing.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if strings.Contains(s, "%") {
		if decoded, err := url.PathUnescape(s); err == nil {
			s = decoded
		}
	}
	return strings.ToLower(s)
}

var (
	fracTroyOzPattern  = regexp.MustCompile(`(\d+)/(\d+)\s*(?:ozt|oz\.?t|troy\s*oz|troy\s*ounce)s?\b`)
	fracPlainOzPattern = regexp.MustCompile(`(\d+)/(\d+)\s*(?:oz|ounce)s?\b`)
	gramPattern        = regexp.MustCompile(`(\d*\.?\d+)\s*(?:grams?|gms?|gr|g)\b`)
	dwtPattern         = regexp.MustCompile(`(\d*\.?\d+)\s*dwt\b`)
	troyOzPattern      = regexp.MustCompile(`(\d*\.?\d+)\s*(?:ozt|oz\.?t|troy\s*oz|troy\s*ounce)s?\b`)
	plainOzPattern     = regexp.MustCompile(`(\d*\.?\d+)\s*(?:oz|ounce)s?\b`)
)

// preciousContextKeywords decide whether a bare "oz" means troy or
// avoirdupois. Bullion and karat vocabulary anywhere in the text tips the
// ambiguous unit to troy.
var preciousContextKeywords = []string{
	".999", ".925", ".900", ".800", "silver", "sterling", "gold", "platinum",
	"bullion", "coin", "bar", "round", "eagle", "maple", "libertad",
	"krugerrand", "philharmonic", "britannia", "panda",
	"10k", "14k", "18k", "22k", "24k", "10kt", "14kt", "18kt",
}

func hasPreciousContext(text string) bool {
	for _, kw := range preciousContextKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Weight extracts a weight in grams from the title, falling back to the
// description. Patterns are tried in a fixed priority order: fractional
// troy ounces, fractional plain ounces, grams, pennyweight, troy ounces,
// plain ounces. Plain-ounce matches convert as troy when precious-metal
// vocabulary is present anywhere in the combined text.
func Weight(title, description string) (float64, models.WeightSource) {
	context := NormalizeText(title + " " + description)

	sources := []struct {
		text string
		tag  models.WeightSource
	}{
		{NormalizeText(title), models.WeightFromTitle},
		{NormalizeText(description), models.WeightFromDescription},
	}

	for _, src := range sources {
		if src.text == "" {
			continue
		}
		if grams, ok := weightFromText(src.text, context); ok {
			return grams, src.tag
		}
	}
	return 0, models.WeightNone
}

func weightFromText(text, context string) (float64, bool) {
	if m := fracTroyOzPattern.FindStringSubmatch(text); m != nil {
		if frac, ok := parseFraction(m[1], m[2]); ok {
			return frac * GramsPerTroyOz, true
		}
	}

	if m := fracPlainOzPattern.FindStringSubmatch(text); m != nil {
		if frac, ok := parseFraction(m[1], m[2]); ok {
			if hasPreciousContext(context) {
				return frac * GramsPerTroyOz, true
			}
			return frac * GramsPerPlainOz, true
		}
	}

	if m := gramPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}

	if m := dwtPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v * GramsPerDWT, true
		}
	}

	if m := troyOzPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v * GramsPerTroyOz, true
		}
	}

	if m := plainOzPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			if hasPreciousContext(context) {
				return v * GramsPerTroyOz, true
			}
			return v * GramsPerPlainOz, true
		}
	}

	return 0, false
}

func parseFraction(num, den string) (float64, bool) {
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// KaratPattern maps one regex to a karat value.
type KaratPattern struct {
	Pattern *regexp.Regexp
	Karat   int
}

// KaratPatterns is the ordered priority list for gold purity marks:
// explicit karat marks first, then millesimal fineness codes matched as
// whole-word tokens so unrelated numbers do not false-positive.
var KaratPatterns = []KaratPattern{
	{regexp.MustCompile(`\b24\s*k(?:t|arat)?\b`), 24},
	{regexp.MustCompile(`\b22\s*k(?:t|arat)?\b`), 22},
	{regexp.MustCompile(`\b18\s*k(?:t|arat)?\b`), 18},
	{regexp.MustCompile(`\b14\s*k(?:t|arat)?\b`), 14},
	{regexp.MustCompile(`\b10\s*k(?:t|arat)?\b`), 10},
	{regexp.MustCompile(`\b9\s*k(?:t|arat)?\b`), 9},
	{regexp.MustCompile(`\b999\b`), 24},
	{regexp.MustCompile(`\b916\b`), 22},
	{regexp.MustCompile(`\b750\b`), 18},
	{regexp.MustCompile(`\b585\b`), 14},
	{regexp.MustCompile(`\b417\b`), 10},
	{regexp.MustCompile(`\b375\b`), 9},
}

// Karat extracts a gold karat mark from the title. Returns (0, false) when
// no pattern matches.
func Karat(title string) (int, bool) {
	text := NormalizeText(title)
	for _, kp := range KaratPatterns {
		if kp.Pattern.MatchString(text) {
			return kp.Karat, true
		}
	}
	return 0, false
}

// SilverPattern maps one regex to a decimal fineness.
type SilverPattern struct {
	Pattern *regexp.Regexp
	Purity  float64
}

// SilverPurityPatterns is the ordered priority list for silver fineness
// markers. Numeric codes require a non-digit on the left so "1999" does not
// read as .999. "Silver maple" resolves to the .9999 bullion tier.
var SilverPurityPatterns = []SilverPattern{
	{regexp.MustCompile(`(?:^|[^0-9.])\.?999\b`), 0.999},
	{regexp.MustCompile(`(?:^|[^0-9.])\.?925\b`), 0.925},
	{regexp.MustCompile(`sterling`), 0.925},
	{regexp.MustCompile(`(?:^|[^0-9.])\.?900\b`), 0.900},
	{regexp.MustCompile(`(?:^|[^0-9.])\.?800\b`), 0.800},
	{regexp.MustCompile(`coin\s*silver`), 0.900},
	{regexp.MustCompile(`pure\s*silver`), 0.999},
	{regexp.MustCompile(`fine\s*silver`), 0.999},
	{regexp.MustCompile(`silver\s*proof`), 0.999},
	{regexp.MustCompile(`silver\s*bullion`), 0.999},
	{regexp.MustCompile(`silver\s*eagle`), 0.999},
	{regexp.MustCompile(`silver\s*maple`), 0.9999},
}

// SilverPurity extracts a decimal silver fineness from the title. Returns
// (0, false) when no marker is present.
func SilverPurity(title string) (float64, bool) {
	text := NormalizeText(title)
	for _, sp := range SilverPurityPatterns {
		if sp.Pattern.MatchString(text) {
			return sp.Purity, true
		}
	}
	return 0, false
}

// All runs the full extraction set over a title/description pair and
// assembles the result. It never fails; absent attributes stay absent.
func All(title, description string) models.Extraction {
	var ex models.Extraction

	if grams, src := Weight(title, description); src != models.WeightNone {
		ex.WeightGrams = grams
		ex.HasWeight = true
		ex.WeightSource = src
	} else {
		ex.WeightSource = models.WeightNone
	}

	if k, ok := Karat(title); ok {
		ex.Karat = k
		ex.HasKarat = true
	}
	if p, ok := SilverPurity(title); ok {
		ex.SilverPurity = p
		ex.HasSilverPurity = true
	}

	ex.IsLot, ex.LotCount = LotInfo(title)
	ex.HasNonMetal, ex.NonMetalKeyword = NonMetalIndicator(title, description)

	if ok, piece, qty, grams := Flatware(title); ok {
		ex.Flatware = &models.FlatwareEstimate{
			PieceType:      piece,
			Quantity:       qty,
			EstimatedGrams: grams,
		}
	}
	if ok, qty, grams := FlatwareKnives(title); ok {
		ex.Knives = &models.KnifeEstimate{
			Quantity:       qty,
			MaxSilverGrams: grams,
		}
	}

	return ex
}

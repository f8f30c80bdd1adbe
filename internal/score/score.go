// Package score turns extraction output, seller signals, and title-quality
// heuristics into a 0-100 opportunity score with a per-signal breakdown.
// The score gates which listings are worth an expensive downstream look; it
// is a prioritizer, not a verdict.
package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/calebwyatt/dealscout/internal/models"
)

// DefaultThreshold is the score at or above which a listing counts as an
// opportunity.
const DefaultThreshold = 70

// Signal contributions. The base sits mid-scale so negative signals have
// room to pull a listing down without immediately clamping.
const (
	baseScore            = 50
	casualSellerBonus    = 20
	professionalPenalty  = -30
	misspellingBonus     = 15
	poorListingBonus     = 10
	opportunityBonus     = 15
	cleanExtractionBonus = 20
	nonMetalPenalty      = -25
)

// KnownBrands are valuable names worth checking for seller misspellings. A
// seller who lists a "Gorahm" fork usually has no idea what they have.
var KnownBrands = []string{
	"rolex", "omega", "cartier", "breitling", "seiko", "tudor",
	"gorham", "towle", "wallace", "tiffany", "christofle", "jensen",
	"pandora", "trifari", "taxco",
}

// PoorListingKeywords signal a low-effort listing. Low effort means low
// visibility and low competition, which raises the odds the price is stale.
var PoorListingKeywords = []string{
	"as-is", "as is", "no returns", "parts only", "for parts",
	"untested", "not tested", "no refunds", "sold as shown",
}

// OpportunityKeywords are seller admissions that they cannot price the
// item.
var OpportunityKeywords = []string{
	"no idea what", "don't know much", "dont know much", "not sure what",
	"found in estate", "estate find", "inherited", "storage unit",
	"barn find", "grandmas", "grandma's", "cleaning out",
}

// Scorer holds the opportunity threshold. The zero value uses the default.
type Scorer struct {
	Threshold int
}

// NewScorer creates a scorer with the given opportunity threshold.
func NewScorer(threshold int) *Scorer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scorer{Threshold: threshold}
}

// Score computes the deal score for one listing. The total clamps to
// [0,100] but the breakdown keeps every pre-clamp contribution, so the
// breakdown sum may fall outside the clamp range.
func (s *Scorer) Score(listing *models.CanonicalListing, ex models.Extraction, seller models.SellerClass) models.DealScore {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	breakdown := map[string]int{"base": baseScore}
	var signals []string
	total := baseScore

	switch seller {
	case models.SellerCasual:
		breakdown["seller"] = casualSellerBonus
		total += casualSellerBonus
		signals = append(signals, "casual seller")
	case models.SellerProfessional:
		breakdown["seller"] = professionalPenalty
		total += professionalPenalty
		signals = append(signals, "professional seller")
	}

	text := strings.ToLower(listing.Title + " " + listing.Description)

	if brand, typo, ok := findBrandMisspelling(listing.Title); ok {
		breakdown["brand_misspelling"] = misspellingBonus
		total += misspellingBonus
		signals = append(signals, fmt.Sprintf("likely misspelling of %q: %q", brand, typo))
	}

	if kw, ok := firstKeyword(text, PoorListingKeywords); ok {
		breakdown["poor_listing"] = poorListingBonus
		total += poorListingBonus
		signals = append(signals, fmt.Sprintf("poor-listing keyword: %q", kw))
	}

	if kw, ok := firstKeyword(text, OpportunityKeywords); ok {
		breakdown["opportunity"] = opportunityBonus
		total += opportunityBonus
		signals = append(signals, fmt.Sprintf("opportunity keyword: %q", kw))
	}

	if (ex.HasKarat || ex.HasSilverPurity) && ex.HasWeight {
		breakdown["extraction_confidence"] = cleanExtractionBonus
		total += cleanExtractionBonus
		signals = append(signals, "clean purity and weight")
	}

	if ex.HasNonMetal {
		breakdown["non_metal"] = nonMetalPenalty
		total += nonMetalPenalty
		signals = append(signals, fmt.Sprintf("non-metal indicator: %q", ex.NonMetalKeyword))
	}

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return models.DealScore{
		Total:         total,
		Breakdown:     breakdown,
		Signals:       signals,
		IsOpportunity: total >= threshold,
	}
}

// findBrandMisspelling looks for title tokens one edit away from a known
// brand. Exact brand mentions do not count; those sellers know what they
// are selling.
func findBrandMisspelling(title string) (brand, typo string, ok bool) {
	for _, token := range tokenize(title) {
		if len(token) < 4 {
			continue
		}
		for _, b := range KnownBrands {
			if token == b {
				continue
			}
			// Transposition typos cost 2 edits, so longer brands get
			// the looser bound.
			maxDist := 1
			if len(b) >= 6 {
				maxDist = 2
			}
			if levenshtein.ComputeDistance(token, b) <= maxDist {
				return b, token, true
			}
		}
	}
	return "", "", false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
}

func firstKeyword(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// Format renders a score breakdown for logs and alert messages.
func Format(score models.DealScore) string {
	keys := make([]string, 0, len(score.Breakdown))
	for k := range score.Breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "score %d/100", score.Total)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %-22s %+d", k, score.Breakdown[k])
	}
	for _, sig := range score.Signals {
		fmt.Fprintf(&b, "\n  - %s", sig)
	}
	return b.String()
}

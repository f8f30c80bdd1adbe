package score

import (
	"strings"
	"testing"

	"github.com/calebwyatt/dealscout/internal/models"
)

func testListing(title, description string) *models.CanonicalListing {
	return &models.CanonicalListing{
		ItemID:      "1",
		Title:       title,
		Description: description,
		Price:       100,
		Source:      models.SourceWebhook,
	}
}

func TestScoreBaseline(t *testing.T) {
	s := NewScorer(0)
	got := s.Score(testListing("14k gold ring", ""), models.Extraction{}, models.SellerUnknown)

	if got.Total != 50 {
		t.Errorf("Total = %d, want base 50 with no signals", got.Total)
	}
	if got.Breakdown["base"] != 50 {
		t.Errorf("breakdown base = %d, want 50", got.Breakdown["base"])
	}
	if got.IsOpportunity {
		t.Error("baseline score should not clear the default threshold")
	}
}

func TestScoreSellerSignals(t *testing.T) {
	s := NewScorer(0)
	listing := testListing("14k gold ring", "")

	casual := s.Score(listing, models.Extraction{}, models.SellerCasual)
	if casual.Total != 70 || casual.Breakdown["seller"] != 20 {
		t.Errorf("casual = %d (%+d), want 70 (+20)", casual.Total, casual.Breakdown["seller"])
	}
	if !casual.IsOpportunity {
		t.Error("70 should meet the default threshold")
	}

	pro := s.Score(listing, models.Extraction{}, models.SellerProfessional)
	if pro.Total != 20 || pro.Breakdown["seller"] != -30 {
		t.Errorf("professional = %d (%+d), want 20 (-30)", pro.Total, pro.Breakdown["seller"])
	}
}

func TestScoreClampsToZero(t *testing.T) {
	s := NewScorer(0)
	listing := testListing("gold tone diamond ring", "")
	ex := models.Extraction{HasNonMetal: true, NonMetalKeyword: "diamond"}

	got := s.Score(listing, ex, models.SellerProfessional)
	if got.Total != 0 {
		t.Errorf("Total = %d, want clamp to 0 (50-30-25 = -5)", got.Total)
	}

	// Pre-clamp contributions survive in the breakdown.
	sum := 0
	for _, v := range got.Breakdown {
		sum += v
	}
	if sum != -5 {
		t.Errorf("breakdown sum = %d, want -5 preserved past the clamp", sum)
	}
}

func TestScoreClampsToHundred(t *testing.T) {
	s := NewScorer(0)
	listing := testListing(
		"Gorahm Sterling Fork 45g as-is",
		"found in estate, no idea what this is",
	)
	ex := models.Extraction{
		HasWeight:       true,
		WeightGrams:     45,
		HasSilverPurity: true,
		SilverPurity:    0.925,
	}

	got := s.Score(listing, ex, models.SellerCasual)
	if got.Total != 100 {
		t.Errorf("Total = %d, want clamp to 100", got.Total)
	}

	sum := 0
	for _, v := range got.Breakdown {
		sum += v
	}
	if sum != 130 {
		t.Errorf("breakdown sum = %d, want 130 (50+20+15+10+15+20)", sum)
	}
	if !got.IsOpportunity {
		t.Error("clamped 100 should be an opportunity")
	}
}

func TestScoreRange(t *testing.T) {
	s := NewScorer(0)
	titles := []string{
		"", "14k gold ring", "Gorahm sterling as-is parts only",
		"diamond watch no returns", "Rolx Submariner found in estate",
	}
	extractions := []models.Extraction{
		{},
		{HasWeight: true, HasKarat: true},
		{HasNonMetal: true, NonMetalKeyword: "watch"},
	}
	sellers := []models.SellerClass{models.SellerCasual, models.SellerProfessional, models.SellerUnknown}

	for _, title := range titles {
		for _, ex := range extractions {
			for _, seller := range sellers {
				got := s.Score(testListing(title, ""), ex, seller)
				if got.Total < 0 || got.Total > 100 {
					t.Errorf("Score(%q, %+v, %q) = %d, outside [0,100]", title, ex, seller, got.Total)
				}
			}
		}
	}
}

func TestBrandMisspelling(t *testing.T) {
	tests := []struct {
		title     string
		wantBrand string
		wantHit   bool
	}{
		{"Gorahm Sterling Fork", "gorham", true},
		{"Rolx watch vintage", "rolex", true},
		{"Breitlin chronograph", "breitling", true},
		{"Gorham Sterling Fork", "", false},
		{"plain gold ring", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			brand, typo, ok := findBrandMisspelling(tt.title)
			if ok != tt.wantHit {
				t.Fatalf("findBrandMisspelling(%q) hit = %v, want %v (typo %q)", tt.title, ok, tt.wantHit, typo)
			}
			if ok && brand != tt.wantBrand {
				t.Errorf("brand = %q, want %q", brand, tt.wantBrand)
			}
		})
	}
}

func TestMisspellingAndPoorListingAreSeparateLines(t *testing.T) {
	s := NewScorer(0)
	listing := testListing("Gorahm Sterling Fork as-is no returns", "")

	got := s.Score(listing, models.Extraction{}, models.SellerUnknown)
	if got.Breakdown["brand_misspelling"] != 15 {
		t.Errorf("brand_misspelling = %d, want 15", got.Breakdown["brand_misspelling"])
	}
	if got.Breakdown["poor_listing"] != 10 {
		t.Errorf("poor_listing = %d, want 10", got.Breakdown["poor_listing"])
	}
}

func TestCustomThreshold(t *testing.T) {
	s := NewScorer(90)
	got := s.Score(testListing("ring", ""), models.Extraction{}, models.SellerCasual)
	if got.IsOpportunity {
		t.Errorf("score %d should not clear threshold 90", got.Total)
	}
}

func TestFormat(t *testing.T) {
	s := NewScorer(0)
	got := s.Score(testListing("ring as-is", ""), models.Extraction{}, models.SellerCasual)

	out := Format(got)
	if !strings.HasPrefix(out, "score ") {
		t.Errorf("Format output %q missing score header", out)
	}
	if !strings.Contains(out, "poor_listing") || !strings.Contains(out, "seller") {
		t.Errorf("Format output %q missing breakdown lines", out)
	}
}

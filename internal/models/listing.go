// Package models defines the core domain entities: listings, extraction
// results, race outcomes, and deal scores.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Source identifies which ingestion path delivered a listing.
type Source string

const (
	SourceWebhook   Source = "webhook"
	SourceDirectAPI Source = "direct-api"
)

// Category is the coarse product category a listing belongs to.
type Category string

const (
	CategoryGold    Category = "gold"
	CategorySilver  Category = "silver"
	CategoryWatch   Category = "watch"
	CategoryLego    Category = "lego"
	CategoryTCG     Category = "tcg"
	CategoryOther   Category = "other"
	CategoryUnknown Category = "unknown"
)

// ErrInvalidListing is returned by the normalizer when a raw payload carries
// no usable item identifier. Every other malformed field degrades to a
// zero/absent value instead of failing the record.
var ErrInvalidListing = errors.New("listing has no usable item identifier")

// CanonicalListing is the normalized representation of a marketplace listing.
// Both ingestion sources produce the same shape; the same physical listing
// carries the same ItemID regardless of which source delivered it.
// Constructed once per inbound payload and never mutated afterwards.
type CanonicalListing struct {
	ItemID      string   `json:"item_id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Category    Category `json:"category"`
	Images      []string `json:"images,omitempty"`
	Description string   `json:"description,omitempty"`
	GalleryURL  string   `json:"gallery_url,omitempty"`
	ViewURL     string   `json:"view_url,omitempty"`

	SellerID       string `json:"seller_id,omitempty"`
	SellerFeedback int    `json:"seller_feedback,omitempty"`

	// PostedAt is zero when the source supplied no parseable timestamp.
	// PostedAtRaw preserves the source string for latency bookkeeping.
	PostedAt    time.Time `json:"posted_at,omitzero"`
	PostedAtRaw string    `json:"posted_at_raw,omitempty"`

	Condition string `json:"condition,omitempty"`
	Source    Source `json:"source"`
}

// Validate reports whether the listing satisfies the required-field
// constraints, plus the list of violated constraints. It never fails hard:
// an invalid listing is a data-quality report, not an error.
func (l *CanonicalListing) Validate() (bool, []string) {
	var issues []string
	if l.ItemID == "" {
		issues = append(issues, "missing item_id")
	}
	if l.Title == "" {
		issues = append(issues, "missing title")
	}
	if l.Price < 0 {
		issues = append(issues, fmt.Sprintf("negative price: %.2f", l.Price))
	}
	if l.Source != SourceWebhook && l.Source != SourceDirectAPI {
		issues = append(issues, fmt.Sprintf("unknown source: %q", l.Source))
	}
	return len(issues) == 0, issues
}

// WeightSource tags where an extracted weight came from.
type WeightSource string

const (
	WeightFromTitle       WeightSource = "title"
	WeightFromDescription WeightSource = "description"
	WeightNone            WeightSource = "none"
)

// Extraction holds the structured attributes derived from a listing's free
// text. Every field is independently optional; absence means "unknown",
// never zero. The extractor must not fabricate values when no pattern
// matches.
type Extraction struct {
	WeightGrams  float64      `json:"weight_grams,omitempty"`
	HasWeight    bool         `json:"has_weight"`
	WeightSource WeightSource `json:"weight_source"`

	Karat    int  `json:"karat,omitempty"`
	HasKarat bool `json:"has_karat"`

	SilverPurity    float64 `json:"silver_purity,omitempty"`
	HasSilverPurity bool    `json:"has_silver_purity"`

	IsLot    bool `json:"is_lot"`
	LotCount int  `json:"lot_count,omitempty"`

	HasNonMetal     bool   `json:"has_non_metal"`
	NonMetalKeyword string `json:"non_metal_keyword,omitempty"`

	Flatware *FlatwareEstimate `json:"flatware,omitempty"`
	Knives   *KnifeEstimate    `json:"knives,omitempty"`
}

// FlatwareEstimate is the weight estimate for sterling flatware listings
// identified by piece-type keywords.
type FlatwareEstimate struct {
	PieceType      string  `json:"piece_type"`
	Quantity       int     `json:"quantity"`
	EstimatedGrams float64 `json:"estimated_grams"`
}

// KnifeEstimate caps the silver content of sterling flatware knives: the
// blades are stainless steel, so only the hollow handles count.
type KnifeEstimate struct {
	Quantity       int     `json:"quantity"`
	MaxSilverGrams float64 `json:"max_silver_grams"`
}

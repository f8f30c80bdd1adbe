package normalize

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/calebwyatt/dealscout/internal/marketplace"
	"github.com/calebwyatt/dealscout/internal/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$123.45", 123.45},
		{"$1,234.56", 1234.56},
		{"99", 99},
		{"USD 45.00", 45},
		{"", 0},
		{"call for price", 0},
	}

	for _, tt := range tests {
		if got := ParsePrice(tt.in); got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePostedTime(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "webhook clock format",
			in:     "01/07/2026 10:30:45 AM",
			want:   time.Date(2026, 1, 7, 10, 30, 45, 0, time.Local),
			wantOK: true,
		},
		{
			name:   "iso with zone",
			in:     "2026-01-07T15:04:05Z",
			want:   time.Date(2026, 1, 7, 15, 4, 5, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "iso with offset",
			in:     "2026-01-07T15:04:05-05:00",
			want:   time.Date(2026, 1, 7, 15, 4, 5, 0, time.FixedZone("", -5*3600)),
			wantOK: true,
		},
		{
			name:   "naive iso reads as local",
			in:     "2026-01-07T15:04:05",
			want:   time.Date(2026, 1, 7, 15, 4, 5, 0, time.Local),
			wantOK: true,
		},
		{
			name:   "empty",
			in:     "",
			wantOK: false,
		},
		{
			name:   "garbage",
			in:     "last tuesday",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePostedTime(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParsePostedTime(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParsePostedTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		title string
		want  models.Category
	}{
		{"Pokemon Gold Edition Booster Box", models.CategoryTCG},
		{"Lego Star Wars Millennium Falcon", models.CategoryLego},
		{"14k gold Rolex wristwatch", models.CategoryWatch},
		{"14k gold rope chain 12.5g", models.CategoryGold},
		{"Gorham flatware set", models.CategorySilver},
		{"Sterling spoon", models.CategorySilver},
		{"Vintage brass paperweight", models.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := DetectCategory(tt.title, ""); got != tt.want {
				t.Errorf("DetectCategory(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func webhookForm() url.Values {
	return url.Values{
		"ItemId":        {"335791234567"},
		"Title":         {"14K+Gold+Ring+.8g"},
		"TotalPrice":    {"$123.45"},
		"Alias":         {"gold"},
		"Description":   {"estate find"},
		"GalleryURL":    {"https://img.example.com/thumb.jpg"},
		"ViewUrl":       {"https://www.example.com/itm/335791234567"},
		"SellerUserID":  {"estate_deals_99"},
		"FeedbackScore": {"1542"},
		"PostedTime":    {"01/07/2026 10:30:45 AM"},
		"Condition":     {"Pre-owned"},
	}
}

func TestFromWebhook(t *testing.T) {
	listing, err := FromWebhook(webhookForm())
	if err != nil {
		t.Fatalf("FromWebhook returned error: %v", err)
	}

	if listing.ItemID != "335791234567" {
		t.Errorf("ItemID = %q", listing.ItemID)
	}
	if listing.Title != "14K Gold Ring .8g" {
		t.Errorf("Title = %q, want decoded title", listing.Title)
	}
	if listing.Price != 123.45 {
		t.Errorf("Price = %v, want 123.45", listing.Price)
	}
	if listing.Category != models.CategoryGold {
		t.Errorf("Category = %q, want gold", listing.Category)
	}
	if len(listing.Images) != 1 || listing.Images[0] != "https://img.example.com/thumb.jpg" {
		t.Errorf("Images = %v, want gallery fallback", listing.Images)
	}
	if listing.SellerFeedback != 1542 {
		t.Errorf("SellerFeedback = %d, want 1542", listing.SellerFeedback)
	}
	if listing.Source != models.SourceWebhook {
		t.Errorf("Source = %q, want webhook", listing.Source)
	}
	want := time.Date(2026, 1, 7, 10, 30, 45, 0, time.Local)
	if !listing.PostedAt.Equal(want) {
		t.Errorf("PostedAt = %v, want %v", listing.PostedAt, want)
	}
	if listing.PostedAtRaw != "01/07/2026 10:30:45 AM" {
		t.Errorf("PostedAtRaw = %q", listing.PostedAtRaw)
	}
}

func TestFromWebhookMissingItemID(t *testing.T) {
	form := webhookForm()
	form.Del("ItemId")

	_, err := FromWebhook(form)
	if !errors.Is(err, models.ErrInvalidListing) {
		t.Errorf("err = %v, want ErrInvalidListing", err)
	}
}

func TestFromWebhookDegradedFields(t *testing.T) {
	form := url.Values{
		"ItemId":        {"42"},
		"Title":         {"mystery box"},
		"TotalPrice":    {"make offer"},
		"FeedbackScore": {"n/a"},
		"PostedTime":    {"yesterday-ish"},
	}

	listing, err := FromWebhook(form)
	if err != nil {
		t.Fatalf("FromWebhook returned error: %v", err)
	}
	if listing.Price != 0 {
		t.Errorf("Price = %v, want 0 for unparseable price", listing.Price)
	}
	if listing.SellerFeedback != 0 {
		t.Errorf("SellerFeedback = %d, want 0", listing.SellerFeedback)
	}
	if !listing.PostedAt.IsZero() {
		t.Errorf("PostedAt = %v, want zero for unparseable time", listing.PostedAt)
	}
	if listing.PostedAtRaw != "yesterday-ish" {
		t.Errorf("PostedAtRaw = %q, want raw string preserved", listing.PostedAtRaw)
	}
	if listing.Category != models.CategoryUnknown {
		t.Errorf("Category = %q, want unknown", listing.Category)
	}
}

func TestFromWebhookAliasOutsideKnownSet(t *testing.T) {
	form := webhookForm()
	form.Set("Alias", "beanie-babies")

	listing, err := FromWebhook(form)
	if err != nil {
		t.Fatalf("FromWebhook returned error: %v", err)
	}
	if listing.Category != models.CategoryOther {
		t.Errorf("Category = %q, want other for unrecognized alias", listing.Category)
	}
}

func TestFromWebhookIdempotent(t *testing.T) {
	form := webhookForm()
	first, err := FromWebhook(form)
	if err != nil {
		t.Fatal(err)
	}
	second, err := FromWebhook(form)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestFromAPI(t *testing.T) {
	raw := marketplace.Listing{
		ItemID:         "987654",
		Title:          "Sterling Silver Dinner Fork Lot of 6, 7.5 inch",
		Price:          89.99,
		ThumbnailURL:   "https://img.example.com/987654.jpg",
		ViewURL:        "https://www.example.com/itm/987654",
		SellerID:       "silverpicker",
		SellerFeedback: 310,
		StartTime:      "2026-01-07T15:04:05Z",
		Condition:      "Used",
	}

	listing, err := FromAPI(raw)
	if err != nil {
		t.Fatalf("FromAPI returned error: %v", err)
	}
	if listing.Source != models.SourceDirectAPI {
		t.Errorf("Source = %q, want direct-api", listing.Source)
	}
	if listing.Category != models.CategorySilver {
		t.Errorf("Category = %q, want silver", listing.Category)
	}
	if len(listing.Images) != 1 || listing.Images[0] != raw.ThumbnailURL {
		t.Errorf("Images = %v, want thumbnail fallback", listing.Images)
	}
	if !listing.PostedAt.Equal(time.Date(2026, 1, 7, 15, 4, 5, 0, time.UTC)) {
		t.Errorf("PostedAt = %v", listing.PostedAt)
	}

	if _, err := FromAPI(marketplace.Listing{Title: "no id"}); !errors.Is(err, models.ErrInvalidListing) {
		t.Errorf("err = %v, want ErrInvalidListing", err)
	}
}

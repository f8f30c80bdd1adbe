// Package normalize converts raw payloads from both ingestion sources into
// the canonical listing shape. Normalization is idempotent and clock-free:
// the same payload always yields the same canonical listing.
package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/calebwyatt/dealscout/internal/marketplace"
	"github.com/calebwyatt/dealscout/internal/models"
)

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// ParsePrice strips currency symbols and thousands separators from a price
// string. Unparseable input degrades to 0.0 rather than failing the record.
func ParsePrice(s string) float64 {
	cleaned := nonPriceChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// Posted-time layouts tried in order. The webhook sends US clock format
// without a zone; those parse in local time. ISO strings with an explicit
// offset keep it.
var postedTimeLayouts = []struct {
	layout string
	local  bool
}{
	{"01/02/2006 3:04:05 PM", true},
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
}

// ParsePostedTime parses a source timestamp string. The zero time with
// ok=false means the string was empty or matched no known layout.
func ParsePostedTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, pl := range postedTimeLayouts {
		if pl.local {
			if t, err := time.ParseInLocation(pl.layout, s, time.Local); err == nil {
				return t, true
			}
		} else {
			if t, err := time.Parse(pl.layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// The webhook transport encodes titles with '+' for spaces and percent
// escapes. Undecodable escapes keep the raw text.
func decodeTitle(title string) string {
	title = strings.ReplaceAll(title, "+", " ")
	if strings.Contains(title, "%") {
		if decoded, err := url.PathUnescape(title); err == nil {
			return decoded
		}
	}
	return title
}

// FromWebhook normalizes a webhook form payload. Scalar fields read the
// first value; repeated "images" fields accumulate. Only a missing item id
// rejects the payload; every other malformed field degrades to its zero
// value.
func FromWebhook(form url.Values) (*models.CanonicalListing, error) {
	itemID := firstOf(form, "ItemId", "itemId", "item_id")
	if itemID == "" {
		return nil, fmt.Errorf("webhook payload: %w", models.ErrInvalidListing)
	}

	title := decodeTitle(form.Get("Title"))
	description := form.Get("Description")

	images := form["images"]
	if len(images) == 0 {
		if gallery := firstOf(form, "GalleryURL", "galleryURL", "PictureURL"); gallery != "" {
			images = []string{gallery}
		}
	}

	feedback := 0
	if fs := form.Get("FeedbackScore"); fs != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(fs)); err == nil {
			feedback = n
		}
	}

	listing := &models.CanonicalListing{
		ItemID:         itemID,
		Title:          title,
		Price:          ParsePrice(firstOf(form, "TotalPrice", "price")),
		Category:       categoryFromAlias(form.Get("Alias"), title, description),
		Images:         images,
		Description:    description,
		GalleryURL:     firstOf(form, "GalleryURL", "galleryURL"),
		ViewURL:        firstOf(form, "ViewUrl", "viewUrl"),
		SellerID:       firstOf(form, "SellerUserID", "sellerUserID"),
		SellerFeedback: feedback,
		PostedAtRaw:    form.Get("PostedTime"),
		Condition:      form.Get("Condition"),
		Source:         models.SourceWebhook,
	}

	if t, ok := ParsePostedTime(listing.PostedAtRaw); ok {
		listing.PostedAt = t
	}

	return listing, nil
}

// FromAPI normalizes a direct-API search hit. The API supplies no category
// alias, so the category always comes from keyword detection.
func FromAPI(raw marketplace.Listing) (*models.CanonicalListing, error) {
	if raw.ItemID == "" {
		return nil, fmt.Errorf("api payload: %w", models.ErrInvalidListing)
	}

	thumbnail := raw.ThumbnailURL
	if thumbnail == "" {
		thumbnail = raw.GalleryURL
	}

	images := raw.Images
	if len(images) == 0 && thumbnail != "" {
		images = []string{thumbnail}
	}

	listing := &models.CanonicalListing{
		ItemID:         raw.ItemID,
		Title:          raw.Title,
		Price:          raw.Price,
		Category:       DetectCategory(raw.Title, raw.Description),
		Images:         images,
		Description:    raw.Description,
		GalleryURL:     thumbnail,
		ViewURL:        raw.ViewURL,
		SellerID:       raw.SellerID,
		SellerFeedback: raw.SellerFeedback,
		PostedAtRaw:    raw.StartTime,
		Condition:      raw.Condition,
		Source:         models.SourceDirectAPI,
	}

	if t, ok := ParsePostedTime(listing.PostedAtRaw); ok {
		listing.PostedAt = t
	}

	return listing, nil
}

func firstOf(form url.Values, keys ...string) string {
	for _, k := range keys {
		if v := form.Get(k); v != "" {
			return v
		}
	}
	return ""
}

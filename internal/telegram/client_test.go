package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/calebwyatt/dealscout/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello World"},
		{"Hello_World", "Hello\\_World"},
		{"Test*bold*", "Test\\*bold\\*"},
		{"Price: $100.50", "Price: $100\\.50"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"~strikethrough~", "\\~strikethrough\\~"},
		{"`code`", "\\`code\\`"},
		{">blockquote", "\\>blockquote"},
		{"#header", "\\#header"},
		{"+plus-minus", "\\+plus\\-minus"},
		{"=equal|pipe", "\\=equal\\|pipe"},
		{"{brace}", "\\{brace\\}"},
		{"end!", "end\\!"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatAlert(t *testing.T) {
	alert := models.DealAlert{
		ID: "abc-123",
		Listing: models.CanonicalListing{
			ItemID:   "111",
			Title:    "14K Gold Ring 5.2g",
			Price:    123.45,
			Category: models.CategoryGold,
			SellerID: "estate_finds_99",
			ViewURL:  "https://example.com/itm/111",
		},
		Score: models.DealScore{
			Total: 85,
			Breakdown: map[string]int{
				"base":   50,
				"seller": 20,
			},
			Signals:       []string{"casual seller", "weight present: 5.2g"},
			IsOpportunity: true,
		},
		Race: &models.RaceResult{
			ItemID:      "111",
			Winner:      "direct-api",
			Loser:       "webhook",
			AdvantageMS: 500,
		},
	}

	msg := formatAlert(alert)

	for _, want := range []string{
		"*Deal Alert: 85/100*",
		"[14K Gold Ring 5\\.2g](https://example.com/itm/111)",
		"$123\\.45",
		"gold",
		"estate\\_finds\\_99",
		"casual seller",
		"base: \\+50",
		"seller: \\+20",
		"direct\\-api beat webhook by 500ms",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("formatAlert() missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatAlertWithoutURLOrRace(t *testing.T) {
	alert := models.DealAlert{
		Listing: models.CanonicalListing{
			Title:    "Sterling Lot",
			Price:    40,
			Category: models.CategorySilver,
		},
		Score: models.DealScore{Total: 70, Breakdown: map[string]int{"base": 50}},
	}

	msg := formatAlert(alert)
	if strings.Contains(msg, "](") {
		t.Errorf("formatAlert() should not emit a link without ViewURL:\n%s", msg)
	}
	if strings.Contains(msg, "beat") {
		t.Errorf("formatAlert() should not emit race line without race:\n%s", msg)
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// NewClient with non-numeric chatID should return an error
	// Note: This test exercises the chat ID parsing error path
	// The bot token validation happens first (network call), so we use a clearly
	// invalid format to test the error handling flow
	_, err := NewClient("", "not-a-number", 3, time.Second)
	if err == nil {
		t.Error("Expected error for invalid chat ID, got nil")
	}
}

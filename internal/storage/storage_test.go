package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/calebwyatt/dealscout/internal/models"
	"github.com/calebwyatt/dealscout/internal/race"
)

func newTestStorage(t *testing.T, maxRaceRows int) *Storage {
	t.Helper()
	s, err := New(maxRaceRows, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBlockedSellersRoundTrip(t *testing.T) {
	s := newTestStorage(t, 0)

	loaded, err := s.LoadBlockedSellers()
	if err != nil {
		t.Fatalf("load from empty db: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("empty db returned %v", loaded)
	}

	if err := s.SaveBlockedSellers([]string{"spammer_a", "spammer_b"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Replace-all: a smaller snapshot shrinks the table.
	if err := s.SaveBlockedSellers([]string{"spammer_b"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err = s.LoadBlockedSellers()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != "spammer_b" {
		t.Errorf("loaded = %v, want [spammer_b]", loaded)
	}
}

func TestCooldownsRoundTrip(t *testing.T) {
	s := newTestStorage(t, 0)

	t0 := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)
	in := map[string]time.Time{
		"14k gold ring_123.45": t0,
		"sterling fork_89.99":  t0.Add(time.Minute),
	}
	if err := s.SaveCooldowns(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.LoadCooldowns()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(out))
	}
	for key, want := range in {
		if !out[key].Equal(want) {
			t.Errorf("entry %q = %v, want %v", key, out[key], want)
		}
	}
}

func TestRaceLogAppendAndTrim(t *testing.T) {
	s := newTestStorage(t, 5)

	base := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		entry := race.Received{
			ItemID:     fmt.Sprintf("ITEM%d", i),
			Source:     models.SourceWebhook,
			ReceivedAt: base.Add(time.Duration(i) * time.Second),
			LatencyMS:  int64(i * 100),
			HasLatency: true,
			Title:      "14k gold ring",
		}
		if i == 6 {
			entry.Race = &models.RaceResult{
				ItemID:      entry.ItemID,
				Winner:      models.SourceDirectAPI,
				Loser:       models.SourceWebhook,
				AdvantageMS: 500,
			}
		}
		if err := s.AppendRaceLog(entry); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := s.RecentRaceLog(10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("retained %d rows, want 5", len(entries))
	}
	if entries[0].ItemID != "ITEM6" {
		t.Errorf("newest entry = %q, want ITEM6", entries[0].ItemID)
	}
	if entries[0].Race == nil || entries[0].Race.Winner != models.SourceDirectAPI {
		t.Errorf("race result did not round-trip: %+v", entries[0].Race)
	}
	if entries[1].Race != nil {
		t.Errorf("non-race entry carried a race result")
	}
}

func TestDealAlertsRoundTrip(t *testing.T) {
	s := newTestStorage(t, 0)

	t0 := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		alert := &models.DealAlert{
			ID: fmt.Sprintf("alert-%d", i),
			Listing: models.CanonicalListing{
				ItemID:   fmt.Sprintf("ITEM%d", i),
				Title:    "Sterling Fork Lot",
				Price:    89.99,
				Category: models.CategorySilver,
				SellerID: "estate_seller",
				Source:   models.SourceWebhook,
				ViewURL:  "https://www.example.com/itm/1",
			},
			Score: models.DealScore{
				Total:         85,
				Breakdown:     map[string]int{"base": 50, "seller": 20, "poor_listing": 10},
				Signals:       []string{"casual seller"},
				IsOpportunity: true,
			},
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AddDealAlert(alert); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	alerts, err := s.RecentDealAlerts(2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if alerts[0].ID != "alert-2" {
		t.Errorf("newest alert = %q, want alert-2", alerts[0].ID)
	}
	if alerts[0].Score.Breakdown["seller"] != 20 {
		t.Errorf("breakdown did not round-trip: %v", alerts[0].Score.Breakdown)
	}
	if alerts[0].Listing.Category != models.CategorySilver {
		t.Errorf("category = %q, want silver", alerts[0].Listing.Category)
	}

	if err := s.ClearDealAlerts(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	alerts, err = s.RecentDealAlerts(10)
	if err != nil {
		t.Fatalf("query after clear: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts remain after clear: %d", len(alerts))
	}
}

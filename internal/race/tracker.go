// Package race correlates the same listing arriving from both ingestion
// sources. It measures per-source delivery latency against the listing's
// posted time and, when both sources deliver the same item inside the live
// window, records which one got there first.
package race

import (
	"strings"
	"sync"
	"time"

	"github.com/calebwyatt/dealscout/internal/models"
)

// DefaultLiveWindow is how long a single-source arrival stays eligible to
// be raced against the other source.
const DefaultLiveWindow = 5 * time.Minute

const maxRetainedRaces = 100

// Received describes one logged arrival. Race is non-nil only when this
// arrival completed a race against a pending entry from the other source.
type Received struct {
	ItemID     string             `json:"item_id"`
	Source     models.Source      `json:"source"`
	ReceivedAt time.Time          `json:"received_at"`
	PostedRaw  string             `json:"posted_raw,omitempty"`
	LatencyMS  int64              `json:"latency_ms"`
	HasLatency bool               `json:"has_latency"`
	Title      string             `json:"title,omitempty"`
	Race       *models.RaceResult `json:"race,omitempty"`
}

// AppendFunc receives every logged arrival for durable append-only storage.
// Append failures are the caller's concern; the tracker never blocks on
// them.
type AppendFunc func(Received)

type pendingEntry struct {
	source     models.Source
	receivedAt time.Time
	latencyMS  int64
	hasLatency bool
}

// Tracker is the in-memory race/latency state. The pending map and the
// stats counters are guarded by separate locks so a slow stats read never
// stalls arrival logging.
type Tracker struct {
	window    time.Duration
	appendLog AppendFunc
	now       func() time.Time

	pendingMu sync.Mutex
	pending   map[string]pendingEntry

	statsMu sync.Mutex
	stats   map[models.Source]*models.SourceStats
	races   []models.RaceResult
}

// NewTracker creates a tracker with the given live window. A nil appendLog
// disables the durable arrival log.
func NewTracker(window time.Duration, appendLog AppendFunc) *Tracker {
	if window <= 0 {
		window = DefaultLiveWindow
	}
	return &Tracker{
		window:    window,
		appendLog: appendLog,
		now:       time.Now,
		pending:   make(map[string]pendingEntry),
		stats: map[models.Source]*models.SourceStats{
			models.SourceWebhook:   {},
			models.SourceDirectAPI: {},
		},
	}
}

// ParsePostedRaw parses a source posted-time string defensively. Strings
// with an explicit offset or UTC marker parse verbatim; anything else has
// '+'-as-space transport encoding undone and reads as local naive time.
// Unparseable input reports ok=false, never an error.
func ParsePostedRaw(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if strings.Contains(raw, "T") {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, true
		}
	}

	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, "+", " "))
	for _, layout := range []string{
		"1/2/2006 3:04:05 PM",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, cleaned, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LogReceived records one arrival and returns what the tracker learned
// about it. When the other source already delivered the same item inside
// the live window, the returned entry carries the completed race result.
func (t *Tracker) LogReceived(itemID string, source models.Source, postedRaw, title string) Received {
	receivedAt := t.now()

	entry := Received{
		ItemID:     itemID,
		Source:     source,
		ReceivedAt: receivedAt,
		PostedRaw:  postedRaw,
		Title:      title,
	}

	if postedAt, ok := ParsePostedRaw(postedRaw); ok {
		entry.LatencyMS = receivedAt.Sub(postedAt).Milliseconds()
		entry.HasLatency = true
	}

	var race *models.RaceResult

	t.pendingMu.Lock()
	for id, p := range t.pending {
		if receivedAt.Sub(p.receivedAt) >= t.window {
			delete(t.pending, id)
		}
	}

	if prev, ok := t.pending[itemID]; ok && prev.source != source {
		race = &models.RaceResult{
			ItemID:        itemID,
			Title:         title,
			Winner:        prev.source,
			Loser:         source,
			AdvantageMS:   receivedAt.Sub(prev.receivedAt).Milliseconds(),
			FirstReceived: prev.receivedAt.Format(time.RFC3339Nano),
			LastReceived:  receivedAt.Format(time.RFC3339Nano),
		}
	}

	// Last write wins; a re-arrival restarts the item's window.
	t.pending[itemID] = pendingEntry{
		source:     source,
		receivedAt: receivedAt,
		latencyMS:  entry.LatencyMS,
		hasLatency: entry.HasLatency,
	}
	t.pendingMu.Unlock()

	entry.Race = race

	t.statsMu.Lock()
	if s, ok := t.stats[source]; ok {
		s.Count++
		if entry.HasLatency {
			s.TotalLatencyMS += entry.LatencyMS
		}
	}
	if race != nil {
		if s, ok := t.stats[race.Winner]; ok {
			s.Wins++
		}
		t.races = append(t.races, *race)
		if len(t.races) > maxRetainedRaces {
			t.races = t.races[len(t.races)-maxRetainedRaces:]
		}
	}
	t.statsMu.Unlock()

	if t.appendLog != nil {
		t.appendLog(entry)
	}

	return entry
}

// Stats reports the aggregate comparison between the two sources. The
// overall winner is the source with strictly more race wins, or "tie".
func (t *Tracker) Stats() models.ComparisonStats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()

	out := models.ComparisonStats{
		Webhook:    t.sourceStatsLocked(models.SourceWebhook),
		DirectAPI:  t.sourceStatsLocked(models.SourceDirectAPI),
		TotalRaces: len(t.races),
	}

	recent := t.races
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	out.RecentRaces = append([]models.RaceResult(nil), recent...)

	switch {
	case out.Webhook.Wins > out.DirectAPI.Wins:
		out.OverallWinner = string(models.SourceWebhook)
	case out.DirectAPI.Wins > out.Webhook.Wins:
		out.OverallWinner = string(models.SourceDirectAPI)
	default:
		out.OverallWinner = "tie"
	}

	return out
}

// Races returns a copy of the retained race results, oldest first.
func (t *Tracker) Races() []models.RaceResult {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return append([]models.RaceResult(nil), t.races...)
}

func (t *Tracker) sourceStatsLocked(source models.Source) models.SourceStats {
	s := t.stats[source]
	out := *s
	if s.Count > 0 {
		out.AvgLatencyMS = float64(s.TotalLatencyMS) / float64(s.Count)
	}
	return out
}

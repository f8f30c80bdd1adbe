package models

import "time"

// SellerClass is the stateless professional-seller classification. It is a
// scoring signal, not a hard filter: professional sellers know prices and
// rarely leave margin, casual and estate sellers often do.
type SellerClass string

const (
	SellerProfessional SellerClass = "professional"
	SellerCasual       SellerClass = "casual"
	SellerUnknown      SellerClass = "unknown"
)

// DealScore is the heuristic 0-100 opportunity score with a per-signal
// breakdown. Breakdown entries keep their pre-clamp contributions, so the
// sum of the breakdown may fall outside [0,100] even though Total never
// does. That is intentional: the clamp wins, the breakdown explains.
type DealScore struct {
	Total         int            `json:"total"`
	Breakdown     map[string]int `json:"breakdown"`
	Signals       []string       `json:"signals,omitempty"`
	IsOpportunity bool           `json:"is_opportunity"`
}

// RaceResult records the same listing arriving from both ingestion sources
// within the live window. Winner is whichever source delivered first;
// AdvantageMS is how far behind the loser was (always >= 0).
type RaceResult struct {
	ItemID        string `json:"item_id"`
	Title         string `json:"title,omitempty"`
	Winner        Source `json:"winner"`
	Loser         Source `json:"loser"`
	AdvantageMS   int64  `json:"advantage_ms"`
	FirstReceived string `json:"first_received"`
	LastReceived  string `json:"last_received"`
}

// SourceStats aggregates delivery performance for one ingestion source.
type SourceStats struct {
	Count          int     `json:"count"`
	TotalLatencyMS int64   `json:"total_latency_ms"`
	AvgLatencyMS   float64 `json:"avg_latency_ms"`
	Wins           int     `json:"wins"`
}

// ComparisonStats is the full race/latency report across both sources.
// OverallWinner is the source with strictly more race wins, or "tie".
type ComparisonStats struct {
	Webhook       SourceStats  `json:"webhook"`
	DirectAPI     SourceStats  `json:"direct_api"`
	TotalRaces    int          `json:"total_races"`
	RecentRaces   []RaceResult `json:"recent_races"`
	OverallWinner string       `json:"overall_winner"`
}

// DealAlert is an opportunity that cleared the score threshold and the
// cooldown gate; it is what gets persisted and delivered to the operator.
type DealAlert struct {
	ID        string           `json:"id"`
	Listing   CanonicalListing `json:"listing"`
	Score     DealScore        `json:"score"`
	Race      *RaceResult      `json:"race,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

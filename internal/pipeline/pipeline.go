// Package pipeline runs every incoming listing through the full processing
// chain: validation, seller filtering, race tracking, attribute extraction,
// alert deduplication and deal scoring. Both ingestion sources feed the same
// pipeline, so an item arriving twice is scored once and raced once.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebwyatt/dealscout/internal/dedup"
	"github.com/calebwyatt/dealscout/internal/extract"
	"github.com/calebwyatt/dealscout/internal/logger"
	"github.com/calebwyatt/dealscout/internal/models"
	"github.com/calebwyatt/dealscout/internal/race"
	"github.com/calebwyatt/dealscout/internal/score"
	"github.com/calebwyatt/dealscout/internal/spam"
)

// Notifier delivers a finished alert to the operator.
type Notifier interface {
	SendAlert(alert models.DealAlert) error
}

// AlertStore persists alerts that cleared every gate.
type AlertStore interface {
	AddDealAlert(alert *models.DealAlert) error
}

// Status says where in the chain a listing ended up.
type Status string

const (
	StatusAlerted        Status = "alerted"
	StatusBelowThreshold Status = "below_threshold"
	StatusDuplicate      Status = "duplicate"
	StatusSellerBlocked  Status = "seller_blocked"
	StatusInvalid        Status = "invalid"
)

// Result reports the outcome of processing one listing.
type Result struct {
	Status  Status
	Reasons []string
	Score   *models.DealScore
	Race    *models.RaceResult
	Alert   *models.DealAlert
}

// Config carries the pipeline thresholds.
type Config struct {
	ScoreThreshold int
	AlertCooldown  time.Duration
	SpamWindow     time.Duration
	SpamThreshold  int
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold: score.DefaultThreshold,
		AlertCooldown:  dedup.DefaultCooldown,
		SpamWindow:     10 * time.Second,
		SpamThreshold:  2,
	}
}

// Pipeline is safe for concurrent use: the webhook server and the API
// poller call Process from separate goroutines.
type Pipeline struct {
	cfg      Config
	filter   *spam.Filter
	blocked  *spam.BlockedSet
	tracker  *race.Tracker
	ledger   *dedup.Ledger
	scorer   *score.Scorer
	store    AlertStore
	notifier Notifier

	now func() time.Time

	spamLog  logger.Component
	dedupLog logger.Component
	scoreLog logger.Component
}

// New creates a pipeline. The blocked set, race tracker and dedup ledger are
// passed in because the caller owns their persistence; store and notifier may
// be nil.
func New(cfg Config, blocked *spam.BlockedSet, tracker *race.Tracker, ledger *dedup.Ledger, store AlertStore, notifier Notifier) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		filter:   spam.NewFilter(cfg.SpamWindow, cfg.SpamThreshold, blocked),
		blocked:  blocked,
		tracker:  tracker,
		ledger:   ledger,
		scorer:   score.NewScorer(cfg.ScoreThreshold),
		store:    store,
		notifier: notifier,
		now:      time.Now,
		spamLog:  logger.For("SPAM"),
		dedupLog: logger.For("DEDUP"),
		scoreLog: logger.For("SCORE"),
	}
}

// Process runs one normalized listing through the chain and returns where it
// ended up. Every arrival is race-tracked, even ones that are later dropped,
// so the source comparison stats see the true delivery order.
func (p *Pipeline) Process(l *models.CanonicalListing) Result {
	now := p.now()

	if ok, issues := l.Validate(); !ok {
		logger.Warn("Dropping invalid listing from %s: %v", l.Source, issues)
		return Result{Status: StatusInvalid, Reasons: issues}
	}

	rcv := p.tracker.LogReceived(l.ItemID, l.Source, l.PostedAtRaw, l.Title)
	raceResult := rcv.Race

	if p.blocked.IsBlocked(l.SellerID) {
		p.spamLog.Debug("Skipping blocked seller %q (item %s)", l.SellerID, l.ItemID)
		return Result{Status: StatusSellerBlocked, Reasons: []string{"seller on blocklist"}, Race: raceResult}
	}

	isSpam, newlyBlocked := p.filter.RecordAndCheck(l.SellerID, now)
	if newlyBlocked {
		p.spamLog.Warn("Seller %q exceeded %d listings in %s, blocking", l.SellerID, p.cfg.SpamThreshold, p.cfg.SpamWindow)
	}
	if isSpam {
		return Result{Status: StatusSellerBlocked, Reasons: []string{"seller tripped spam filter"}, Race: raceResult}
	}

	key := dedup.KeyForListing(l)
	if !p.ledger.ShouldAlert(key, now) {
		p.dedupLog.Debug("Suppressing duplicate %q (item %s)", key, l.ItemID)
		return Result{Status: StatusDuplicate, Race: raceResult}
	}

	ex := extract.All(l.Title, l.Description)
	seller := spam.ClassifySeller(l.SellerID, l.Category, l.SellerFeedback)
	ds := p.scorer.Score(l, ex, seller)

	if !ds.IsOpportunity {
		p.scoreLog.Debug("Item %s scored %d, below threshold %d", l.ItemID, ds.Total, p.cfg.ScoreThreshold)
		return Result{Status: StatusBelowThreshold, Score: &ds, Race: raceResult}
	}

	p.ledger.MarkAlerted(key, now)

	alert := &models.DealAlert{
		ID:        uuid.NewString(),
		Listing:   *l,
		Score:     ds,
		Race:      raceResult,
		CreatedAt: now,
	}

	if p.store != nil {
		if err := p.store.AddDealAlert(alert); err != nil {
			logger.Error("Failed to persist alert for item %s: %v", l.ItemID, err)
		}
	}
	if p.notifier != nil {
		if err := p.notifier.SendAlert(*alert); err != nil {
			logger.Error("Failed to deliver alert for item %s: %v", l.ItemID, err)
		}
	}

	p.scoreLog.Info("Alert: %q scored %d (%s)", l.Title, ds.Total, l.Source)
	return Result{Status: StatusAlerted, Score: &ds, Race: raceResult, Alert: alert}
}

// Stats exposes the race tracker's source comparison for the status endpoint.
func (p *Pipeline) Stats() models.ComparisonStats {
	return p.tracker.Stats()
}

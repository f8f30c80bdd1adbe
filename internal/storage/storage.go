// Package storage provides SQLite-backed persistence for the seller
// block-list, alert cooldowns, the race log, and delivered deal alerts.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calebwyatt/dealscout/internal/models"
	"github.com/calebwyatt/dealscout/internal/race"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db          *sql.DB
	maxRaceRows int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/dealscout/data.db.
func New(maxRaceRows int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "dealscout", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db, maxRaceRows: maxRaceRows}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blocked_sellers (
			seller_id  TEXT PRIMARY KEY,
			blocked_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_cooldown (
			dedup_key  TEXT PRIMARY KEY,
			alerted_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS race_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id     TEXT NOT NULL,
			source      TEXT NOT NULL,
			received_at INTEGER NOT NULL,
			posted_raw  TEXT,
			latency_ms  INTEGER,
			has_latency INTEGER NOT NULL DEFAULT 0,
			title       TEXT,
			race_json   TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS deal_alerts (
			id         TEXT PRIMARY KEY,
			item_id    TEXT NOT NULL,
			title      TEXT NOT NULL,
			price      REAL NOT NULL,
			category   TEXT,
			seller_id  TEXT,
			source     TEXT NOT NULL,
			total      INTEGER NOT NULL,
			breakdown  TEXT NOT NULL DEFAULT '{}',
			signals    TEXT NOT NULL DEFAULT '[]',
			view_url   TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_race_log_item ON race_log(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_deal_alerts_created ON deal_alerts(created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveBlockedSellers replaces the persisted block-list with the given
// snapshot. The whole set is small, so replace-all keeps the store and the
// in-memory set trivially consistent.
func (s *Storage) SaveBlockedSellers(sellers []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM blocked_sellers`); err != nil {
		return fmt.Errorf("failed to clear blocked sellers: %w", err)
	}
	now := time.Now().UnixNano()
	for _, id := range sellers {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO blocked_sellers (seller_id, blocked_at) VALUES (?,?)`,
			id, now,
		); err != nil {
			return fmt.Errorf("failed to insert blocked seller: %w", err)
		}
	}
	return tx.Commit()
}

// LoadBlockedSellers returns the persisted block-list.
func (s *Storage) LoadBlockedSellers() ([]string, error) {
	rows, err := s.db.Query(`SELECT seller_id FROM blocked_sellers`)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked sellers: %w", err)
	}
	defer rows.Close()

	var sellers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan blocked seller: %w", err)
		}
		sellers = append(sellers, id)
	}
	return sellers, rows.Err()
}

// SaveCooldowns replaces the persisted alert-cooldown snapshot.
func (s *Storage) SaveCooldowns(entries map[string]time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM alert_cooldown`); err != nil {
		return fmt.Errorf("failed to clear cooldowns: %w", err)
	}
	for key, at := range entries {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO alert_cooldown (dedup_key, alerted_at) VALUES (?,?)`,
			key, at.UnixNano(),
		); err != nil {
			return fmt.Errorf("failed to insert cooldown: %w", err)
		}
	}
	return tx.Commit()
}

// LoadCooldowns returns the persisted alert-cooldown snapshot.
func (s *Storage) LoadCooldowns() (map[string]time.Time, error) {
	rows, err := s.db.Query(`SELECT dedup_key, alerted_at FROM alert_cooldown`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cooldowns: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]time.Time)
	for rows.Next() {
		var key string
		var alertedAtNano int64
		if err := rows.Scan(&key, &alertedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan cooldown: %w", err)
		}
		entries[key] = time.Unix(0, alertedAtNano)
	}
	return entries, rows.Err()
}

// AppendRaceLog stores one logged arrival and trims the table to the
// newest maxRaceRows rows.
func (s *Storage) AppendRaceLog(entry race.Received) error {
	var raceJSON sql.NullString
	if entry.Race != nil {
		data, err := json.Marshal(entry.Race)
		if err != nil {
			return fmt.Errorf("failed to marshal race result: %w", err)
		}
		raceJSON = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`
		INSERT INTO race_log
			(item_id, source, received_at, posted_raw, latency_ms, has_latency, title, race_json)
		VALUES (?,?,?,?,?,?,?,?)`,
		entry.ItemID, string(entry.Source), entry.ReceivedAt.UnixNano(),
		entry.PostedRaw, entry.LatencyMS, boolToInt(entry.HasLatency),
		entry.Title, raceJSON,
	); err != nil {
		return fmt.Errorf("failed to insert race log entry: %w", err)
	}

	if s.maxRaceRows > 0 {
		if _, err := tx.Exec(`
			DELETE FROM race_log WHERE id NOT IN (
				SELECT id FROM race_log ORDER BY id DESC LIMIT ?
			)`, s.maxRaceRows); err != nil {
			return fmt.Errorf("failed to trim race log: %w", err)
		}
	}

	return tx.Commit()
}

// RecentRaceLog returns the newest k arrivals, newest first.
func (s *Storage) RecentRaceLog(k int) ([]race.Received, error) {
	rows, err := s.db.Query(`
		SELECT item_id, source, received_at, posted_raw, latency_ms, has_latency, title, race_json
		FROM race_log ORDER BY id DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query race log: %w", err)
	}
	defer rows.Close()

	var entries []race.Received
	for rows.Next() {
		var entry race.Received
		var source string
		var receivedAtNano int64
		var hasLatency int
		var raceJSON sql.NullString

		if err := rows.Scan(
			&entry.ItemID, &source, &receivedAtNano, &entry.PostedRaw,
			&entry.LatencyMS, &hasLatency, &entry.Title, &raceJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan race log entry: %w", err)
		}

		entry.Source = models.Source(source)
		entry.ReceivedAt = time.Unix(0, receivedAtNano)
		entry.HasLatency = hasLatency != 0
		if raceJSON.Valid {
			var result models.RaceResult
			if err := json.Unmarshal([]byte(raceJSON.String), &result); err != nil {
				return nil, fmt.Errorf("failed to unmarshal race result: %w", err)
			}
			entry.Race = &result
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AddDealAlert persists a delivered opportunity alert.
func (s *Storage) AddDealAlert(alert *models.DealAlert) error {
	breakdownJSON, err := json.Marshal(alert.Score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}
	signalsJSON, err := json.Marshal(alert.Score.Signals)
	if err != nil {
		return fmt.Errorf("failed to marshal signals: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO deal_alerts
			(id, item_id, title, price, category, seller_id, source,
			 total, breakdown, signals, view_url, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		alert.ID, alert.Listing.ItemID, alert.Listing.Title, alert.Listing.Price,
		string(alert.Listing.Category), alert.Listing.SellerID, string(alert.Listing.Source),
		alert.Score.Total, string(breakdownJSON), string(signalsJSON),
		alert.Listing.ViewURL, alert.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert deal alert: %w", err)
	}
	return nil
}

// RecentDealAlerts returns the newest k alerts, newest first.
func (s *Storage) RecentDealAlerts(k int) ([]models.DealAlert, error) {
	rows, err := s.db.Query(`
		SELECT id, item_id, title, price, category, seller_id, source,
		       total, breakdown, signals, view_url, created_at
		FROM deal_alerts ORDER BY created_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query deal alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.DealAlert
	for rows.Next() {
		var a models.DealAlert
		var category, source, breakdownJSON, signalsJSON string
		var createdAtNano int64

		if err := rows.Scan(
			&a.ID, &a.Listing.ItemID, &a.Listing.Title, &a.Listing.Price,
			&category, &a.Listing.SellerID, &source,
			&a.Score.Total, &breakdownJSON, &signalsJSON,
			&a.Listing.ViewURL, &createdAtNano,
		); err != nil {
			return nil, fmt.Errorf("failed to scan deal alert: %w", err)
		}

		a.Listing.Category = models.Category(category)
		a.Listing.Source = models.Source(source)
		a.CreatedAt = time.Unix(0, createdAtNano)
		if err := json.Unmarshal([]byte(breakdownJSON), &a.Score.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}
		if err := json.Unmarshal([]byte(signalsJSON), &a.Score.Signals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signals: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// ClearDealAlerts removes all persisted alerts.
func (s *Storage) ClearDealAlerts() error {
	if _, err := s.db.Exec(`DELETE FROM deal_alerts`); err != nil {
		return fmt.Errorf("failed to clear deal alerts: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

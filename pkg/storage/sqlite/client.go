// Package sqlite provides the SQLite implementation of the record store.
//
// SQLite is a lightweight, file-based database suitable for local development
// and small-scale deployments. Payloads are stored as JSON strings in TEXT
// fields. All three tables (memories, pattern log, feedback log) are
// append-only.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage"
)

// Client implements RecordStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// memoryTable is the name of the table storing memory records.
	memoryTable string

	// patternTable is the name of the table storing pattern records.
	patternTable string

	// feedbackTable is the name of the table storing feedback log entries.
	feedbackTable string
}

// Config contains configuration for creating a SQLite RecordStore.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// MemoryTable is the memory record table name (default: "intel_memories").
	MemoryTable string

	// PatternTable is the pattern record table name (default: "pattern_log").
	PatternTable string

	// FeedbackTable is the feedback log table name (default: "feedback_log").
	FeedbackTable string
}

// NewClient creates a new SQLite RecordStore client.
//
// Parameters:
//   - cfg: Configuration containing database path and table names
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	applyTableDefaults(cfg)

	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:            db,
		memoryTable:   cfg.MemoryTable,
		patternTable:  cfg.PatternTable,
		feedbackTable: cfg.FeedbackTable,
	}

	// Initialize table structure
	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	memoryQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			entity_name TEXT NOT NULL,
			memory_type TEXT NOT NULL,
			summary TEXT NOT NULL,
			correlation_score REAL DEFAULT 0.5,
			confidence REAL DEFAULT 0.7,
			pattern_fingerprint TEXT,
			source_module TEXT,
			context_reference TEXT,
			raw_data TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, c.memoryTable)

	if _, err := c.db.ExecContext(ctx, memoryQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	patternQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			entity_name TEXT NOT NULL,
			pattern_fingerprint TEXT NOT NULL,
			pattern_summary TEXT,
			confidence_score REAL DEFAULT 0.7,
			recommended_response TEXT,
			first_detected DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, c.patternTable)

	if _, err := c.db.ExecContext(ctx, patternQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	feedbackQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			entity_id TEXT,
			source_module TEXT,
			operator_action TEXT NOT NULL,
			feedback_score INTEGER,
			action_result TEXT,
			notes TEXT,
			threat_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, c.feedbackTable)

	if _, err := c.db.ExecContext(ctx, feedbackQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	// Create indexes
	indexQueries := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_entity_type ON %s(entity_name, memory_type)`, c.memoryTable, c.memoryTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_entity_fp ON %s(entity_name, pattern_fingerprint)`, c.patternTable, c.patternTable),
	}
	for _, q := range indexQueries {
		if _, err := c.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}

	return nil
}

// InsertMemory appends a memory record.
func (c *Client) InsertMemory(ctx context.Context, record *storage.MemoryRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, entity_name, memory_type, summary, correlation_score, confidence,
		 pattern_fingerprint, source_module, context_reference, raw_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.memoryTable)

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := c.db.ExecContext(ctx, query,
		record.ID,
		record.EntityName,
		record.MemoryType,
		record.Summary,
		record.CorrelationScore,
		record.Confidence,
		record.PatternFingerprint,
		record.SourceModule,
		record.ContextReference,
		string(record.RawData),
		createdAt,
	)

	if err != nil {
		return fmt.Errorf("InsertMemory: %w", err)
	}

	return nil
}

// GetMemories retrieves memory records for an entity, newest first.
func (c *Client) GetMemories(ctx context.Context, opts *storage.MemoryQueryOptions) ([]*storage.MemoryRecord, error) {
	whereClause, args := buildMemoryWhereClause(opts.EntityName, opts.MemoryType)

	query := fmt.Sprintf(`
		SELECT id, entity_name, memory_type, summary, correlation_score, confidence,
		       pattern_fingerprint, source_module, context_reference, raw_data, created_at
		FROM %s
		%s
		ORDER BY created_at DESC, id DESC
	`, c.memoryTable, whereClause)

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetMemories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.MemoryRecord
	for rows.Next() {
		record, err := scanMemoryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("GetMemories: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetMemories: %w", err)
	}

	return records, nil
}

// InsertPattern appends a pattern record.
func (c *Client) InsertPattern(ctx context.Context, record *storage.PatternRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, entity_name, pattern_fingerprint, pattern_summary, confidence_score,
		 recommended_response, first_detected)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.patternTable)

	firstDetected := record.FirstDetected
	if firstDetected.IsZero() {
		firstDetected = time.Now()
	}

	_, err := c.db.ExecContext(ctx, query,
		record.ID,
		record.EntityName,
		record.Fingerprint,
		record.Summary,
		record.Confidence,
		string(record.RecommendedResponse),
		firstDetected,
	)

	if err != nil {
		return fmt.Errorf("InsertPattern: %w", err)
	}

	return nil
}

// GetPatterns retrieves pattern records for an entity, most recent first.
func (c *Client) GetPatterns(ctx context.Context, entityName string, limit int) ([]*storage.PatternRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, entity_name, pattern_fingerprint, pattern_summary, confidence_score,
		       recommended_response, first_detected
		FROM %s
		WHERE entity_name = ?
		ORDER BY first_detected DESC, id DESC
	`, c.patternTable)

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := c.db.QueryContext(ctx, query, entityName)
	if err != nil {
		return nil, fmt.Errorf("GetPatterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.PatternRecord
	for rows.Next() {
		var record storage.PatternRecord
		var response sql.NullString

		err := rows.Scan(
			&record.ID,
			&record.EntityName,
			&record.Fingerprint,
			&record.Summary,
			&record.Confidence,
			&response,
			&record.FirstDetected,
		)
		if err != nil {
			return nil, fmt.Errorf("GetPatterns: %w", err)
		}

		if response.Valid {
			record.RecommendedResponse = []byte(response.String)
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPatterns: %w", err)
	}

	return records, nil
}

// InsertFeedback appends a raw feedback log entry.
func (c *Client) InsertFeedback(ctx context.Context, entry *storage.FeedbackEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, entity_id, source_module, operator_action, feedback_score,
		 action_result, notes, threat_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.feedbackTable)

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := c.db.ExecContext(ctx, query,
		entry.ID,
		entry.EntityID,
		entry.SourceModule,
		entry.OperatorAction,
		entry.Score,
		entry.ActionResult,
		entry.Notes,
		entry.ThreatID,
		createdAt,
	)

	if err != nil {
		return fmt.Errorf("InsertFeedback: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// scanMemoryRecord scans a memory record from the given rows.
func scanMemoryRecord(rows *sql.Rows) (*storage.MemoryRecord, error) {
	var record storage.MemoryRecord
	var rawData sql.NullString

	err := rows.Scan(
		&record.ID,
		&record.EntityName,
		&record.MemoryType,
		&record.Summary,
		&record.CorrelationScore,
		&record.Confidence,
		&record.PatternFingerprint,
		&record.SourceModule,
		&record.ContextReference,
		&rawData,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rawData.Valid {
		record.RawData = []byte(rawData.String)
	}

	return &record, nil
}

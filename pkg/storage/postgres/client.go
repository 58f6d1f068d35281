// Package postgres provides the PostgreSQL implementation of the record store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage"
)

// Client is a PostgreSQL record store client.
type Client struct {
	db            *sql.DB
	memoryTable   string
	patternTable  string
	feedbackTable string
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host          string
	Port          int
	User          string
	Password      string
	DBName        string
	MemoryTable   string
	PatternTable  string
	FeedbackTable string
	SSLMode       string
}

// NewClient creates a new PostgreSQL client.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	applyTableDefaults(cfg)

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	client := &Client{
		db:            db,
		memoryTable:   cfg.MemoryTable,
		patternTable:  cfg.PatternTable,
		feedbackTable: cfg.FeedbackTable,
	}

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database tables.
func (c *Client) initTables(ctx context.Context) error {
	memoryQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			entity_name VARCHAR(255) NOT NULL,
			memory_type VARCHAR(32) NOT NULL,
			summary TEXT NOT NULL,
			correlation_score FLOAT DEFAULT 0.5,
			confidence FLOAT DEFAULT 0.7,
			pattern_fingerprint VARCHAR(255),
			source_module VARCHAR(128),
			context_reference VARCHAR(255),
			raw_data JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, c.memoryTable)

	if _, err := c.db.ExecContext(ctx, memoryQuery); err != nil {
		return fmt.Errorf("initTables: create memory table: %w", err)
	}

	patternQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			entity_name VARCHAR(255) NOT NULL,
			pattern_fingerprint VARCHAR(255) NOT NULL,
			pattern_summary TEXT,
			confidence_score FLOAT DEFAULT 0.7,
			recommended_response JSONB,
			first_detected TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, c.patternTable)

	if _, err := c.db.ExecContext(ctx, patternQuery); err != nil {
		return fmt.Errorf("initTables: create pattern table: %w", err)
	}

	feedbackQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			entity_id VARCHAR(255),
			source_module VARCHAR(128),
			operator_action TEXT NOT NULL,
			feedback_score INT,
			action_result TEXT,
			notes TEXT,
			threat_id VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, c.feedbackTable)

	if _, err := c.db.ExecContext(ctx, feedbackQuery); err != nil {
		return fmt.Errorf("initTables: create feedback table: %w", err)
	}

	indexQueries := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_entity_type ON %s(entity_name, memory_type)`, c.memoryTable, c.memoryTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_entity_fp ON %s(entity_name, pattern_fingerprint)`, c.patternTable, c.patternTable),
	}
	for _, q := range indexQueries {
		if _, err := c.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("initTables: create index: %w", err)
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, c.memoryTable)

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	rawData := record.RawData
	if len(rawData) == 0 {
		rawData = []byte("{}")
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
		rawData,
		createdAt,
	)

	if err != nil {
		return fmt.Errorf("InsertMemory: %w", err)
	}

	return nil
}

// GetMemories retrieves memory records for an entity, newest first.
func (c *Client) GetMemories(ctx context.Context, opts *storage.MemoryQueryOptions) ([]*storage.MemoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, entity_name, memory_type, summary, correlation_score, confidence,
		       pattern_fingerprint, source_module, context_reference, raw_data, created_at
		FROM %s
		WHERE entity_name = $1
	`, c.memoryTable)

	args := []interface{}{opts.EntityName}
	if opts.MemoryType != "" {
		query += " AND memory_type = $2"
		args = append(args, opts.MemoryType)
	}

	query += " ORDER BY created_at DESC, id DESC"
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
			return nil, fmt.Errorf("GetMemories: %w", err)
		}

		if rawData.Valid {
			record.RawData = []byte(rawData.String)
		}

		records = append(records, &record)
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.patternTable)

	firstDetected := record.FirstDetected
	if firstDetected.IsZero() {
		firstDetected = time.Now()
	}

	response := record.RecommendedResponse
	if len(response) == 0 {
		response = []byte("{}")
	}

	_, err := c.db.ExecContext(ctx, query,
		record.ID,
		record.EntityName,
		record.Fingerprint,
		record.Summary,
		record.Confidence,
		response,
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
		WHERE entity_name = $1
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
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

// applyTableDefaults fills in default table names on the config.
func applyTableDefaults(cfg *Config) {
	if cfg.MemoryTable == "" {
		cfg.MemoryTable = "intel_memories"
	}
	if cfg.PatternTable == "" {
		cfg.PatternTable = "pattern_log"
	}
	if cfg.FeedbackTable == "" {
		cfg.FeedbackTable = "feedback_log"
	}
}

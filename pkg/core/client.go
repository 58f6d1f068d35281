package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/charmbracelet/log"

	"github.com/simonL79/aria-ops-ai-sub007/pkg/audit"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/entity"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/intelligence"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage/mysql"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage/postgres"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage/sqlite"
)

// SourceModuleFeedback tags feedback log entries routed through
// LearnFromFeedback.
const SourceModuleFeedback = "intelligence_system"

// Client is the main client of the intelligence memory engine.
//
// It provides the four operations of the memory loop: Store, Recall,
// LearnFromFeedback and GenerateRecommendations. The client composes a
// record store, a correlation engine, a recommender, an audit sink and an
// entity resolver.
//
// Client is safe for concurrent use by multiple goroutines.
//
// Example:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, err := core.NewClient(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
type Client struct {
	config      *Config
	storage     storage.RecordStore
	engine      *intelligence.Engine
	recommender *intelligence.Recommender
	auditSink   audit.Sink
	resolver    entity.Resolver
	node        *snowflake.Node
	logger      *log.Logger
	mu          sync.RWMutex
}

// NewClient creates a new memory engine client with the given configuration.
//
// The function:
//  1. Validates the configuration
//  2. Initializes the record store backend (creating tables if needed)
//  3. Initializes the correlation engine and recommender
//  4. Applies defaults for omitted collaborators
//
// Parameters:
//   - config: The client configuration
//
// Returns:
//   - *Client: The client instance
//   - error: Error if validation or initialization fails
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, NewMemoryError("NewClient", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := initStorage(&config.Store)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	engine := intelligence.NewEngine(config.Engine)

	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	sink := config.AuditSink
	if sink == nil {
		sink = audit.NewLogSink(logger)
	}

	resolver := config.Resolver
	if resolver == nil {
		resolver = entity.UnknownResolver{}
	}

	return &Client{
		config:      config,
		storage:     store,
		engine:      engine,
		recommender: intelligence.NewRecommender(engine),
		auditSink:   sink,
		resolver:    resolver,
		node:        node,
		logger:      logger,
	}, nil
}

// initStorage creates the record store backend from the store configuration.
func initStorage(cfg *StoreConfig) (storage.RecordStore, error) {
	switch cfg.Provider {
	case "sqlite":
		return sqlite.NewClient(&sqlite.Config{
			DBPath:        getStringConfig(cfg.Config, "db_path", "./aria.db"),
			MemoryTable:   getStringConfig(cfg.Config, "memory_table", ""),
			PatternTable:  getStringConfig(cfg.Config, "pattern_table", ""),
			FeedbackTable: getStringConfig(cfg.Config, "feedback_table", ""),
		})
	case "postgres":
		return postgres.NewClient(&postgres.Config{
			Host:          getStringConfig(cfg.Config, "host", "localhost"),
			Port:          getIntConfig(cfg.Config, "port", 5432),
			User:          getStringConfig(cfg.Config, "user", "postgres"),
			Password:      getStringConfig(cfg.Config, "password", ""),
			DBName:        getStringConfig(cfg.Config, "db_name", "aria"),
			MemoryTable:   getStringConfig(cfg.Config, "memory_table", ""),
			PatternTable:  getStringConfig(cfg.Config, "pattern_table", ""),
			FeedbackTable: getStringConfig(cfg.Config, "feedback_table", ""),
			SSLMode:       getStringConfig(cfg.Config, "ssl_mode", "disable"),
		})
	case "mysql":
		return mysql.NewClient(&mysql.Config{
			Host:          getStringConfig(cfg.Config, "host", "127.0.0.1"),
			Port:          getIntConfig(cfg.Config, "port", 3306),
			User:          getStringConfig(cfg.Config, "user", "root"),
			Password:      getStringConfig(cfg.Config, "password", ""),
			DBName:        getStringConfig(cfg.Config, "db_name", "aria"),
			MemoryTable:   getStringConfig(cfg.Config, "memory_table", ""),
			PatternTable:  getStringConfig(cfg.Config, "pattern_table", ""),
			FeedbackTable: getStringConfig(cfg.Config, "feedback_table", ""),
		})
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// getStringConfig gets a string value from a config map with a default.
func getStringConfig(config map[string]interface{}, key, defaultValue string) string {
	if value, ok := config[key].(string); ok && value != "" {
		return value
	}
	return defaultValue
}

// getIntConfig gets an integer value from a config map with a default.
// JSON numbers decode as float64, so both forms are accepted.
func getIntConfig(config map[string]interface{}, key string, defaultValue int) int {
	switch value := config[key].(type) {
	case int:
		return value
	case float64:
		return int(value)
	}
	return defaultValue
}

// Store persists a memory and its pattern-log echo.
//
// The memory is validated, scores outside [0, 1] are clamped, a unique ID
// and creation timestamp are assigned, and the fingerprint is derived from
// the payload when absent. The memory record is the primary write; the
// pattern record is written best-effort, and its failure degrades the
// operation (logged) without failing it.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - memory: The memory to persist. ID and Timestamp are assigned here.
//
// Returns:
//   - int64: The assigned memory ID
//   - error: Error if validation or the primary write fails
//
// Example:
//
//	id, err := client.Store(ctx, &core.Memory{
//	    EntityName: "Acme Corp",
//	    MemoryType: core.MemoryTypeThreat,
//	    Summary:    "Coordinated review bombing detected",
//	    Confidence: 0.8,
//	    Payload:    intelligence.ThreatPayload{Platform: "trustpilot", Severity: "high", ThreatType: "review_bomb"},
//	})
func (c *Client) Store(ctx context.Context, memory *Memory) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if memory == nil || memory.EntityName == "" {
		return 0, NewMemoryError("Store", fmt.Errorf("%w: entity name is required", ErrInvalidInput))
	}
	if !intelligence.ValidMemoryType(memory.MemoryType) {
		return 0, NewMemoryError("Store", fmt.Errorf("%w: unknown memory type %q", ErrInvalidInput, memory.MemoryType))
	}
	if memory.Payload != nil && memory.Payload.MemoryType() != memory.MemoryType {
		return 0, NewMemoryError("Store", fmt.Errorf("%w: payload type %q does not match memory type %q",
			ErrInvalidInput, memory.Payload.MemoryType(), memory.MemoryType))
	}

	memory.CorrelationScore = clamp01(memory.CorrelationScore)
	memory.Confidence = clamp01(memory.Confidence)
	memory.ID = c.node.Generate().Int64()
	memory.Timestamp = time.Now()

	if memory.PatternFingerprint == "" {
		if fp, ok := memory.Payload.(intelligence.FeedbackPayload); ok {
			memory.PatternFingerprint = intelligence.FeedbackFingerprint(&intelligence.Feedback{
				Action:     fp.Action,
				ThreatType: fp.ThreatType,
				Platform:   fp.Platform,
			})
		}
	}

	rawData, err := intelligence.EncodePayload(memory.Payload)
	if err != nil {
		return 0, NewMemoryError("Store", err)
	}

	if err := c.storage.InsertMemory(ctx, toMemoryRecord(memory, rawData)); err != nil {
		return 0, NewMemoryError("Store", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}

	// The pattern log is a secondary index; its failure must not roll back
	// the durable memory.
	if err := c.insertPatternEcho(ctx, memory); err != nil {
		c.logger.Warn("pattern log write failed",
			"entity", memory.EntityName,
			"fingerprint", memory.PatternFingerprint,
			"error", err,
		)
	}

	c.logger.Debug("memory stored",
		"id", memory.ID,
		"entity", memory.EntityName,
		"type", memory.MemoryType,
	)

	return memory.ID, nil
}

// insertPatternEcho writes the pattern-log echo of a memory.
func (c *Client) insertPatternEcho(ctx context.Context, memory *Memory) error {
	response, err := json.Marshal(map[string]string{
		"source_module":     memory.SourceModule,
		"context_reference": memory.ContextReference,
	})
	if err != nil {
		return err
	}

	return c.storage.InsertPattern(ctx, &storage.PatternRecord{
		ID:                  c.node.Generate().Int64(),
		EntityName:          memory.EntityName,
		Fingerprint:         memory.PatternFingerprint,
		Summary:             memory.Summary,
		Confidence:          memory.Confidence,
		RecommendedResponse: response,
		FirstDetected:       memory.Timestamp,
	})
}

// Recall retrieves an entity's memories, newest first, optionally filtered
// by memory type and re-ranked against a query context.
//
// When a query context is given, the returned memories carry request-scoped
// adjusted correlation scores sorted descending; the stored baselines are
// never rewritten, so repeated recalls with the same context return the
// same scores.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entityName: The entity whose memories to recall
//   - opts: Optional recall options (type filter, query context, limit)
//
// Returns:
//   - []*Memory: The recalled memories. Empty is valid, not an error.
//   - error: Error if the entity name is empty or the query fails
//
// Example:
//
//	memories, err := client.Recall(ctx, "Acme Corp",
//	    core.WithMemoryType(core.MemoryTypeThreat),
//	    core.WithQueryContext("phishing twitter"),
//	)
func (c *Client) Recall(ctx context.Context, entityName string, opts ...RecallOption) ([]*Memory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entityName == "" {
		return nil, NewMemoryError("Recall", fmt.Errorf("%w: entity name is required", ErrInvalidInput))
	}

	options := applyRecallOptions(opts)

	limit := options.Limit
	if limit <= 0 {
		limit = c.engine.Config().RecallLimit
	}

	records, err := c.storage.GetMemories(ctx, &storage.MemoryQueryOptions{
		EntityName: entityName,
		MemoryType: string(options.MemoryType),
		Limit:      limit,
	})
	if err != nil {
		return nil, NewMemoryError("Recall", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}

	if options.QueryContext != "" {
		records = c.engine.CorrelateLexical(records, options.QueryContext)
	}

	return fromMemoryRecords(records), nil
}

// LearnFromFeedback folds an operator effectiveness signal back into the
// memory base.
//
// The operation performs three writes:
//  1. A feedback-type memory (primary; its failure aborts the operation)
//  2. A reinforcement or flag check to the audit sink, when the
//     effectiveness verdict is not neutral
//  3. A raw feedback log entry for audit visibility
//
// Failures of steps 2 and 3 degrade the operation: the error returned wraps
// ErrPartialWrite and the feedback memory remains durable.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entityName: The entity the feedback concerns
//   - feedback: The operator feedback. Action is required; effectiveness is
//     clamped into [0, 1]; zero confidence resolves to the default (0.8).
//
// Returns:
//   - error: Error if validation or the primary write fails, or a wrapped
//     ErrPartialWrite if only a secondary write failed
func (c *Client) LearnFromFeedback(ctx context.Context, entityName string, feedback *OperatorFeedback) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entityName == "" {
		return NewMemoryError("LearnFromFeedback", fmt.Errorf("%w: entity name is required", ErrInvalidInput))
	}
	if feedback == nil || feedback.Action == "" {
		return NewMemoryError("LearnFromFeedback", fmt.Errorf("%w: feedback action is required", ErrInvalidInput))
	}

	effectiveness := clamp01(feedback.Effectiveness)
	confidence := clamp01(feedback.Confidence)
	if confidence == 0 {
		confidence = c.engine.Config().DefaultFeedbackConfidence
	}

	fingerprint := intelligence.FeedbackFingerprint(feedback)

	contextReference := feedback.ThreatID
	if contextReference == "" {
		contextReference = "general_feedback"
	}

	memory := &Memory{
		EntityName:         entityName,
		MemoryType:         MemoryTypeFeedback,
		Summary:            fmt.Sprintf("Operator feedback: %s - %s", feedback.Action, feedback.Outcome),
		CorrelationScore:   effectiveness,
		Confidence:         confidence,
		PatternFingerprint: fingerprint,
		SourceModule:       SourceModuleFeedback,
		ContextReference:   contextReference,
		Payload: intelligence.FeedbackPayload{
			Action:        feedback.Action,
			Effectiveness: effectiveness,
			Outcome:       feedback.Outcome,
			Notes:         feedback.Notes,
			ThreatID:      feedback.ThreatID,
			ThreatType:    feedback.ThreatType,
			Platform:      feedback.Platform,
		},
	}

	if err := c.storeLocked(ctx, memory); err != nil {
		return NewMemoryError("LearnFromFeedback", err)
	}

	var degraded error

	verdict := c.engine.Config().EvaluateFeedback(effectiveness)
	if verdict != intelligence.VerdictNeutral {
		check := verdictCheck(verdict, fingerprint, effectiveness)
		if err := c.auditSink.Record(ctx, check); err != nil {
			degraded = fmt.Errorf("audit check: %w", err)
			c.logger.Warn("audit check delivery failed",
				"entity", entityName,
				"check", check.CheckName,
				"error", err,
			)
		}
	}

	entityID, err := c.resolver.Resolve(ctx, entityName)
	if err != nil {
		entityID = entity.UnknownID
		c.logger.Warn("entity resolution failed",
			"entity", entityName,
			"error", err,
		)
	}

	entry := &storage.FeedbackEntry{
		ID:             c.node.Generate().Int64(),
		EntityID:       entityID,
		SourceModule:   SourceModuleFeedback,
		OperatorAction: feedback.Action,
		Score:          int(math.Round(effectiveness * 10)),
		ActionResult:   feedback.Outcome,
		Notes:          feedback.Notes,
		ThreatID:       feedback.ThreatID,
		CreatedAt:      memory.Timestamp,
	}
	if err := c.storage.InsertFeedback(ctx, entry); err != nil {
		degraded = fmt.Errorf("feedback log: %w", err)
		c.logger.Warn("feedback log write failed",
			"entity", entityName,
			"error", err,
		)
	}

	if degraded != nil {
		return NewMemoryError("LearnFromFeedback", fmt.Errorf("%w: %v", ErrPartialWrite, degraded))
	}

	c.logger.Debug("feedback learned",
		"entity", entityName,
		"fingerprint", fingerprint,
		"verdict", verdict,
	)

	return nil
}

// storeLocked persists a memory and its pattern echo without taking the
// client lock; callers must hold it.
func (c *Client) storeLocked(ctx context.Context, memory *Memory) error {
	memory.ID = c.node.Generate().Int64()
	memory.Timestamp = time.Now()

	rawData, err := intelligence.EncodePayload(memory.Payload)
	if err != nil {
		return err
	}

	if err := c.storage.InsertMemory(ctx, toMemoryRecord(memory, rawData)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}

	if err := c.insertPatternEcho(ctx, memory); err != nil {
		c.logger.Warn("pattern log write failed",
			"entity", memory.EntityName,
			"fingerprint", memory.PatternFingerprint,
			"error", err,
		)
	}

	return nil
}

// verdictCheck builds the audit check for a non-neutral feedback verdict.
func verdictCheck(verdict intelligence.Verdict, fingerprint string, effectiveness float64) *audit.Check {
	if verdict == intelligence.VerdictReinforce {
		return &audit.Check{
			CheckName: "pattern_reinforcement",
			Result:    fmt.Sprintf("Successful pattern reinforced: %s", fingerprint),
			Passed:    true,
			Severity:  audit.SeverityLow,
			Notes:     fmt.Sprintf("Effectiveness: %.2f", effectiveness),
		}
	}
	return &audit.Check{
		CheckName: "pattern_ineffective",
		Result:    fmt.Sprintf("Ineffective pattern flagged: %s", fingerprint),
		Passed:    false,
		Severity:  audit.SeverityMedium,
		Notes:     fmt.Sprintf("Low effectiveness: %.2f", effectiveness),
	}
}

// GenerateRecommendations produces ranked, explainable recommendations for
// an entity, optionally conditioned on a current candidate threat.
//
// Recommendations are ephemeral: they are derived fresh from the entity's
// recalled memories and pattern history on every call and never persisted.
// A pattern history query failure degrades to memory-only recommendations.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entityName: The entity to recommend for
//   - threat: Optional current candidate threat. Nil skips
//     threat-correlation recommendations.
//
// Returns:
//   - []*Recommendation: Ranked recommendations, confidence descending.
//     Empty is valid.
//   - error: Error if the entity name is empty or the memory query fails
func (c *Client) GenerateRecommendations(ctx context.Context, entityName string, threat *Threat) ([]*Recommendation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entityName == "" {
		return nil, NewMemoryError("GenerateRecommendations", fmt.Errorf("%w: entity name is required", ErrInvalidInput))
	}

	cfg := c.engine.Config()

	records, err := c.storage.GetMemories(ctx, &storage.MemoryQueryOptions{
		EntityName: entityName,
		Limit:      cfg.RecallLimit,
	})
	if err != nil {
		return nil, NewMemoryError("GenerateRecommendations", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}

	patterns, err := c.storage.GetPatterns(ctx, entityName, cfg.PatternHistoryLimit)
	if err != nil {
		patterns = nil
		c.logger.Warn("pattern history query failed, degrading to memory-only recommendations",
			"entity", entityName,
			"error", err,
		)
	}

	return c.recommender.Build(records, patterns, threat, time.Now()), nil
}

// PatternHistory retrieves an entity's pattern log, most recently detected
// first, bounded by the configured pattern history limit.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entityName: The entity whose pattern history to retrieve
//
// Returns:
//   - []*PatternRecord: The pattern records. Empty is valid.
//   - error: Error if the entity name is empty or the query fails
func (c *Client) PatternHistory(ctx context.Context, entityName string) ([]*PatternRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entityName == "" {
		return nil, NewMemoryError("PatternHistory", fmt.Errorf("%w: entity name is required", ErrInvalidInput))
	}

	patterns, err := c.storage.GetPatterns(ctx, entityName, c.engine.Config().PatternHistoryLimit)
	if err != nil {
		return nil, NewMemoryError("PatternHistory", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}

	return patterns, nil
}

// Close closes the client and releases storage resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.Close(); err != nil {
			return NewMemoryError("Close", err)
		}
		c.storage = nil
	}
	return nil
}

// clamp01 clamps v into the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

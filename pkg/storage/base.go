// Package storage provides interfaces and types for durable record storage backends.
//
// It defines the RecordStore interface that all storage implementations must satisfy,
// along with the flat record types persisted by the intelligence memory engine.
package storage

import (
	"context"
	"time"
)

// MemoryRecord is the durable form of an intelligence memory.
//
// This type is defined in the storage package to avoid circular dependencies
// with the core package. It mirrors the core.Memory structure, with the
// type-specific payload flattened to raw JSON.
//
// Records are append-only: the engine never updates or deletes a memory
// record once written.
type MemoryRecord struct {
	// ID is the unique identifier of the memory.
	ID int64

	// EntityName is the subject the memory is about. Not unique; an entity
	// accumulates many memories.
	EntityName string

	// MemoryType is one of "threat", "response", "pattern" or "feedback".
	MemoryType string

	// Summary is the human-readable description of the memory.
	Summary string

	// CorrelationScore is the stored baseline relevance score (0.0-1.0).
	// Runtime recall produces a request-scoped adjusted value; the stored
	// value is never rewritten.
	CorrelationScore float64

	// Confidence is the source trust in the memory content (0.0-1.0),
	// fixed at creation.
	Confidence float64

	// PatternFingerprint groups related memories across entities and time.
	PatternFingerprint string

	// SourceModule is a free-text provenance tag naming the producer.
	SourceModule string

	// ContextReference points back to the originating record (e.g. a threat
	// id) or a sentinel for general memories.
	ContextReference string

	// RawData is the JSON-encoded type-specific payload.
	RawData []byte

	// CreatedAt is when the memory was written. Immutable.
	CreatedAt time.Time
}

// PatternRecord is a denormalized, queryable echo of a memory's fingerprint.
//
// One pattern record is written alongside every memory record. The table is
// an append-only audit trail answering "have we seen this fingerprint before
// and with what outcome".
type PatternRecord struct {
	// ID is the unique identifier of the pattern record.
	ID int64

	// EntityName is the entity the originating memory belongs to.
	EntityName string

	// Fingerprint is the deterministic pattern key of the originating memory.
	Fingerprint string

	// Summary echoes the originating memory's summary.
	Summary string

	// Confidence echoes the originating memory's confidence.
	Confidence float64

	// RecommendedResponse is a JSON blob carrying the source module and
	// context reference of the originating memory.
	RecommendedResponse []byte

	// FirstDetected is when the pattern record was written.
	FirstDetected time.Time
}

// FeedbackEntry is a raw operator feedback log row, persisted for
// audit/compliance visibility independently of the memory system.
type FeedbackEntry struct {
	// ID is the unique identifier of the entry.
	ID int64

	// EntityID is the resolved internal entity identifier, or the sentinel
	// "unknown" when resolution is unavailable.
	EntityID string

	// SourceModule names the subsystem that routed the feedback.
	SourceModule string

	// OperatorAction is the action the operator gave feedback on.
	OperatorAction string

	// Score is the effectiveness on a 0-10 integer scale.
	Score int

	// ActionResult is the operator-reported outcome.
	ActionResult string

	// Notes contains optional free-text operator notes.
	Notes string

	// ThreatID references the related threat, if any.
	ThreatID string

	// CreatedAt is when the entry was written.
	CreatedAt time.Time
}

// RecordStore defines the interface for durable record storage backends.
//
// All storage implementations (SQLite, PostgreSQL, MySQL) must implement
// this interface. Every write is insert-only; a failed write is reported to
// the caller and never retried internally.
type RecordStore interface {
	// InsertMemory appends a memory record.
	InsertMemory(ctx context.Context, record *MemoryRecord) error

	// GetMemories retrieves memory records for an entity, newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - opts: Query options (EntityName, MemoryType filter, Limit)
	//
	// Returns records ordered by creation time descending. An empty result
	// is valid, not an error.
	GetMemories(ctx context.Context, opts *MemoryQueryOptions) ([]*MemoryRecord, error)

	// InsertPattern appends a pattern record.
	InsertPattern(ctx context.Context, record *PatternRecord) error

	// GetPatterns retrieves pattern records for an entity, most recently
	// detected first, bounded by limit (unbounded if limit <= 0).
	GetPatterns(ctx context.Context, entityName string, limit int) ([]*PatternRecord, error)

	// InsertFeedback appends a raw feedback log entry.
	InsertFeedback(ctx context.Context, entry *FeedbackEntry) error

	// Close closes the store and releases resources.
	Close() error
}

// MemoryQueryOptions contains options for GetMemories.
type MemoryQueryOptions struct {
	// EntityName filters records to a specific entity. Required.
	EntityName string

	// MemoryType filters records to a single memory type. Empty matches all.
	MemoryType string

	// Limit sets the maximum number of records to return.
	// Unbounded if <= 0.
	Limit int
}

// Package core provides the main client of the intelligence memory and
// pattern-correlation engine.
package core

import (
	"time"

	"github.com/simonL79/aria-ops-ai-sub007/pkg/intelligence"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage"
)

// MemoryType classifies an intelligence memory.
type MemoryType = intelligence.MemoryType

// Memory type constants re-exported for callers of this package.
const (
	MemoryTypeThreat   = intelligence.MemoryTypeThreat
	MemoryTypeResponse = intelligence.MemoryTypeResponse
	MemoryTypePattern  = intelligence.MemoryTypePattern
	MemoryTypeFeedback = intelligence.MemoryTypeFeedback
)

// Memory is an immutable, typed, timestamped observation about an entity.
//
// A memory contains:
//   - Summary: human-readable description
//   - CorrelationScore: heuristic relevance baseline, adjusted per query
//   - Confidence: source trust, fixed at creation
//   - Payload: type-specific structured data
//
// Memories are never updated in place; corrections are written as new
// memories.
//
// Example:
//
//	memory := &core.Memory{
//	    Summary:          "Phishing campaign using brand impersonation",
//	    CorrelationScore: 0.6,
//	    Confidence:       0.8,
//	    SourceModule:     "threat_scanner",
//	    ContextReference: "threat_4711",
//	    Payload: intelligence.ThreatPayload{
//	        Platform:   "twitter",
//	        Severity:   "high",
//	        ThreatType: "phishing",
//	    },
//	}
type Memory struct {
	// ID is the unique identifier, assigned at creation.
	ID int64 `json:"id"`

	// EntityName is the subject the memory is about.
	EntityName string `json:"entityName"`

	// MemoryType is one of threat, response, pattern or feedback.
	MemoryType MemoryType `json:"memoryType"`

	// Summary is the human-readable description.
	Summary string `json:"summary"`

	// CorrelationScore is the relevance score (0.0-1.0). The stored value
	// is a baseline; recall with a query context returns a request-scoped
	// adjusted value.
	CorrelationScore float64 `json:"correlationScore"`

	// PatternFingerprint groups related memories. Always derivable for
	// feedback memories; optional otherwise.
	PatternFingerprint string `json:"patternFingerprint,omitempty"`

	// Confidence is the source trust in the content (0.0-1.0), set at
	// creation and never recomputed.
	Confidence float64 `json:"confidence"`

	// SourceModule is a free-text provenance tag naming the producer.
	SourceModule string `json:"sourceModule,omitempty"`

	// ContextReference points back to the originating record, or a sentinel
	// for general memories.
	ContextReference string `json:"contextReference,omitempty"`

	// Payload is the type-specific structured data.
	Payload intelligence.Payload `json:"rawData,omitempty"`

	// Timestamp is the creation time. Immutable.
	Timestamp time.Time `json:"timestamp"`
}

// OperatorFeedback is an operator-supplied effectiveness signal, consumed by
// LearnFromFeedback.
type OperatorFeedback = intelligence.Feedback

// Threat holds the structured attributes of a current candidate threat,
// used to condition recommendation generation.
type Threat = intelligence.ThreatAttributes

// Recommendation is an ephemeral, ranked, explainable suggestion produced
// by GenerateRecommendations.
type Recommendation = intelligence.Recommendation

// PatternRecord is the queryable echo of a memory's fingerprint, written
// alongside every memory.
type PatternRecord = storage.PatternRecord

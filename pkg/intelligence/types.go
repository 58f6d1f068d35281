// Package intelligence provides the pattern-correlation and learning heuristics
// of the memory engine: lexical and structural correlation scoring, pattern
// fingerprinting, feedback verdicts, learning-gap analysis and recommendation
// generation.
package intelligence

import "time"

// MemoryType classifies an intelligence memory.
type MemoryType string

const (
	// MemoryTypeThreat marks a memory describing an observed threat.
	MemoryTypeThreat MemoryType = "threat"

	// MemoryTypeResponse marks a memory describing a deployed response.
	MemoryTypeResponse MemoryType = "response"

	// MemoryTypePattern marks a memory describing a recognized pattern.
	MemoryTypePattern MemoryType = "pattern"

	// MemoryTypeFeedback marks a memory derived from operator feedback.
	MemoryTypeFeedback MemoryType = "feedback"
)

// ValidMemoryType reports whether t is one of the four known memory types.
func ValidMemoryType(t MemoryType) bool {
	switch t {
	case MemoryTypeThreat, MemoryTypeResponse, MemoryTypePattern, MemoryTypeFeedback:
		return true
	}
	return false
}

// ThreatAttributes are the structured attributes of a candidate threat event,
// compared against stored threat memories by structural correlation.
type ThreatAttributes struct {
	// Platform is the platform the threat was observed on.
	Platform string `json:"platform,omitempty"`

	// Severity is the coarse severity label of the threat.
	Severity string `json:"severity,omitempty"`

	// ThreatType is the threat classification.
	ThreatType string `json:"threatType,omitempty"`
}

// Config contains the heuristic constants of the correlation and learning
// algorithms.
//
// The values are untuned heuristics inherited from operational use, not
// derived from data. They are exposed as configuration so hosts can adjust
// them; DefaultConfig pins the observed production behavior.
type Config struct {
	// LexicalBoostWeight caps how much a single query context can move a
	// stored correlation score. Default: 0.3.
	LexicalBoostWeight float64

	// PlatformWeight is the structural similarity contribution of a
	// platform match. Default: 0.3.
	PlatformWeight float64

	// SeverityWeight is the structural similarity contribution of a
	// severity match. Severity vocabularies are coarse, so this is the
	// weakest signal. Default: 0.2.
	SeverityWeight float64

	// ThreatTypeWeight is the structural similarity contribution of a
	// threat-type match, the strongest similarity signal. Default: 0.4.
	ThreatTypeWeight float64

	// SurvivorThreshold is the minimum summed structural similarity for a
	// memory to count as a confirmed match. A single weak match never
	// qualifies alone. Default: 0.5.
	SurvivorThreshold float64

	// StructuralBoost is the flat score boost applied to confirmed
	// structural matches, capped at 1.0. Default: 0.2.
	StructuralBoost float64

	// ReinforceThreshold is the minimum effectiveness for feedback to
	// reinforce a pattern. Default: 0.7.
	ReinforceThreshold float64

	// FlagThreshold is the maximum effectiveness for feedback to flag a
	// pattern as ineffective. Default: 0.3.
	FlagThreshold float64

	// DefaultFeedbackConfidence is used when operator feedback omits a
	// confidence value. Default: 0.8.
	DefaultFeedbackConfidence float64

	// RecallLimit bounds recall result sets so correlation scoring stays
	// bounded-cost. Default: 20.
	RecallLimit int

	// PatternHistoryLimit bounds pattern history queries. Default: 10.
	PatternHistoryLimit int

	// PatternConfidenceFloor is the minimum confidence for a response
	// memory to seed a pattern-based recommendation. Default: 0.7.
	PatternConfidenceFloor float64

	// HighConfidenceFloor marks a memory as high confidence for action-item
	// extraction. Default: 0.8.
	HighConfidenceFloor float64

	// ThreatCorrelationConfidence is the fixed confidence of
	// threat-correlation recommendations. Default: 0.85.
	ThreatCorrelationConfidence float64

	// GapConfidence is the fixed confidence of learning-improvement
	// recommendations. Default: 0.6.
	GapConfidence float64

	// GapCorrelationScore is the fixed correlation score of
	// learning-improvement recommendations; this category reflects process
	// health rather than content similarity. Default: 0.5.
	GapCorrelationScore float64

	// MinMemoryCount is the memory count below which a data-collection gap
	// is reported. Default: 5.
	MinMemoryCount int

	// LowConfidenceThreshold marks a memory as low confidence for gap
	// analysis. Default: 0.6.
	LowConfidenceThreshold float64

	// LowConfidenceShare is the share of low-confidence memories above
	// which a scoring gap is reported. Default: 0.5.
	LowConfidenceShare float64

	// RecencyWindow is the window with no new memories after which an
	// activity gap is reported. Default: 7 days.
	RecencyWindow time.Duration
}

// DefaultConfig returns the configuration pinning the observed heuristic
// behavior.
func DefaultConfig() *Config {
	return &Config{
		LexicalBoostWeight:          0.3,
		PlatformWeight:              0.3,
		SeverityWeight:              0.2,
		ThreatTypeWeight:            0.4,
		SurvivorThreshold:           0.5,
		StructuralBoost:             0.2,
		ReinforceThreshold:          0.7,
		FlagThreshold:               0.3,
		DefaultFeedbackConfidence:   0.8,
		RecallLimit:                 20,
		PatternHistoryLimit:         10,
		PatternConfidenceFloor:      0.7,
		HighConfidenceFloor:         0.8,
		ThreatCorrelationConfidence: 0.85,
		GapConfidence:               0.6,
		GapCorrelationScore:         0.5,
		MinMemoryCount:              5,
		LowConfidenceThreshold:      0.6,
		LowConfidenceShare:          0.5,
		RecencyWindow:               7 * 24 * time.Hour,
	}
}

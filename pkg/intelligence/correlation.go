package intelligence

import (
	"math"
	"sort"
	"strings"

	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage"
)

// Engine scores stored memories against a query context or a candidate
// threat event.
//
// The engine is stateless; it operates on read-only snapshots of memory
// records fetched per call and owns no durable state. Adjusted scores are
// request-scoped: the stored baseline score is never rewritten.
type Engine struct {
	// cfg holds the heuristic constants.
	cfg *Config
}

// NewEngine creates a correlation engine. A nil config uses DefaultConfig.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.cfg
}

// CorrelateLexical re-ranks memories against a free-text query context.
//
// For each memory, the query tokens that bidirectionally substring-match a
// summary token form the intersection. The boost is
// |intersection| / |query tokens| weighted by the lexical boost weight, and
// the adjusted score is capped at 1.0. Bidirectional containment
// intentionally over-matches on partial words, favoring recall over
// precision.
//
// The input slice is not modified; the result holds adjusted copies sorted
// by adjusted score descending (ties keep recall order). A query with no
// tokens leaves every score unchanged.
func (e *Engine) CorrelateLexical(records []*storage.MemoryRecord, queryContext string) []*storage.MemoryRecord {
	if len(records) == 0 {
		return nil
	}

	queryTokens := tokenize(queryContext)

	adjusted := make([]*storage.MemoryRecord, 0, len(records))
	for _, record := range records {
		copied := *record

		if len(queryTokens) > 0 {
			memoryTokens := tokenize(record.Summary)
			intersection := 0
			for _, qt := range queryTokens {
				if matchesAny(qt, memoryTokens) {
					intersection++
				}
			}

			boost := float64(intersection) / float64(len(queryTokens))
			copied.CorrelationScore = math.Min(1.0, record.CorrelationScore+boost*e.cfg.LexicalBoostWeight)
		}

		adjusted = append(adjusted, &copied)
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		return adjusted[i].CorrelationScore > adjusted[j].CorrelationScore
	})

	return adjusted
}

// CorrelateStructural filters threat memories down to confirmed structural
// matches for a candidate threat event.
//
// Only threat-type memories are eligible. Attribute matches contribute their
// configured weights (threat type strongest, then platform, severity
// weakest); memories whose summed similarity meets the survivor threshold
// get a flat structural boost, capped at 1.0. A single weak match never
// survives alone since every individual weight is below the threshold.
//
// Recall order (newest first) is preserved among survivors. The input slice
// is not modified.
func (e *Engine) CorrelateStructural(records []*storage.MemoryRecord, threat *ThreatAttributes) []*storage.MemoryRecord {
	if len(records) == 0 || threat == nil {
		return nil
	}

	var survivors []*storage.MemoryRecord
	for _, record := range records {
		if MemoryType(record.MemoryType) != MemoryTypeThreat {
			continue
		}

		payload, err := DecodePayload(MemoryTypeThreat, record.RawData)
		if err != nil {
			// Undecodable payloads contribute no similarity.
			continue
		}
		attrs := payload.(ThreatPayload)

		similarity := 0.0
		if attrs.Platform != "" && attrs.Platform == threat.Platform {
			similarity += e.cfg.PlatformWeight
		}
		if attrs.Severity != "" && attrs.Severity == threat.Severity {
			similarity += e.cfg.SeverityWeight
		}
		if attrs.ThreatType != "" && attrs.ThreatType == threat.ThreatType {
			similarity += e.cfg.ThreatTypeWeight
		}

		if similarity < e.cfg.SurvivorThreshold {
			continue
		}

		copied := *record
		copied.CorrelationScore = math.Min(1.0, record.CorrelationScore+e.cfg.StructuralBoost)
		survivors = append(survivors, &copied)
	}

	return survivors
}

// tokenize lowercases text and splits it on whitespace.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// matchesAny reports whether token bidirectionally substring-matches any of
// the candidates.
func matchesAny(token string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(c, token) || strings.Contains(token, c) {
			return true
		}
	}
	return false
}

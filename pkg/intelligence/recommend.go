package intelligence

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage"
)

// Recommendation types emitted by the recommender.
const (
	RecommendationPatternBased      = "pattern_based"
	RecommendationThreatCorrelation = "threat_correlation"
	RecommendationLearning          = "learning_improvement"
)

// Recommendation is an ephemeral, ranked, explainable suggestion for future
// action. It is never persisted by the engine; the caller decides whether to
// store or display it.
type Recommendation struct {
	// ID is a per-call unique identifier.
	ID string `json:"id"`

	// Type is one of the Recommendation* constants.
	Type string `json:"type"`

	// Title is a short human-readable headline.
	Title string `json:"title"`

	// Description explains why the recommendation was emitted.
	Description string `json:"description"`

	// Confidence is the heuristic trust in the recommendation (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// ActionItems are concrete suggested next steps.
	ActionItems []string `json:"actionItems"`

	// CorrelationScore is the relevance score backing the recommendation.
	CorrelationScore float64 `json:"correlationScore"`

	// SourceMemories lists the memory IDs the recommendation derives from.
	SourceMemories []int64 `json:"sourceMemories"`
}

// Recommender combines correlated memories, pattern history and learning-gap
// analysis into a ranked recommendation list.
type Recommender struct {
	cfg    *Config
	engine *Engine
}

// NewRecommender creates a recommender sharing the engine's configuration.
func NewRecommender(engine *Engine) *Recommender {
	return &Recommender{
		cfg:    engine.Config(),
		engine: engine,
	}
}

// Build produces the ranked recommendations for an entity's recalled
// memories and pattern history, optionally conditioned on a current
// candidate threat.
//
// Up to three recommendations are emitted, in order: pattern-based (the
// highest-scoring proven response memory), threat-correlation (confirmed
// structural matches for the candidate threat) and learning-improvement
// (detected process gaps). The result is sorted by confidence descending;
// ties keep emission order.
func (r *Recommender) Build(
	records []*storage.MemoryRecord,
	patterns []*storage.PatternRecord,
	threat *ThreatAttributes,
	now time.Time,
) []*Recommendation {
	var recommendations []*Recommendation

	if rec := r.patternBased(records); rec != nil {
		recommendations = append(recommendations, rec)
	}

	if threat != nil {
		if rec := r.threatCorrelation(records, threat); rec != nil {
			recommendations = append(recommendations, rec)
		}
	}

	if rec := r.learningImprovement(records, now); rec != nil {
		recommendations = append(recommendations, rec)
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Confidence > recommendations[j].Confidence
	})

	return recommendations
}

// patternBased selects the proven response memory with the highest
// correlation score among those meeting the confidence floor.
func (r *Recommender) patternBased(records []*storage.MemoryRecord) *Recommendation {
	var top *storage.MemoryRecord
	for _, record := range records {
		if MemoryType(record.MemoryType) != MemoryTypeResponse {
			continue
		}
		if record.Confidence < r.cfg.PatternConfidenceFloor {
			continue
		}
		if top == nil || record.CorrelationScore >= top.CorrelationScore {
			top = record
		}
	}
	if top == nil {
		return nil
	}

	return &Recommendation{
		ID:               uuid.NewString(),
		Type:             RecommendationPatternBased,
		Title:            "Successful Pattern Identified",
		Description:      fmt.Sprintf("Previous success with similar threats: %s", top.Summary),
		Confidence:       top.Confidence,
		ActionItems:      r.extractActionItems(top),
		CorrelationScore: top.CorrelationScore,
		SourceMemories:   []int64{top.ID},
	}
}

// threatCorrelation emits a recommendation when structural correlation
// confirms similar historical threats.
func (r *Recommender) threatCorrelation(records []*storage.MemoryRecord, threat *ThreatAttributes) *Recommendation {
	survivors := r.engine.CorrelateStructural(records, threat)
	if len(survivors) == 0 {
		return nil
	}

	sourceIDs := make([]int64, 0, len(survivors))
	for _, s := range survivors {
		sourceIDs = append(sourceIDs, s.ID)
	}

	return &Recommendation{
		ID:          uuid.NewString(),
		Type:        RecommendationThreatCorrelation,
		Title:       "Similar Threat Detected",
		Description: fmt.Sprintf("Found %d similar previous threats", len(survivors)),
		Confidence:  r.cfg.ThreatCorrelationConfidence,
		ActionItems: []string{
			"Review historical responses",
			"Apply proven strategies",
		},
		CorrelationScore: survivors[0].CorrelationScore,
		SourceMemories:   sourceIDs,
	}
}

// learningImprovement emits a recommendation when gap analysis finds
// process-health problems.
func (r *Recommender) learningImprovement(records []*storage.MemoryRecord, now time.Time) *Recommendation {
	gaps := r.cfg.IdentifyLearningGaps(records, now)
	if len(gaps) == 0 {
		return nil
	}

	return &Recommendation{
		ID:               uuid.NewString(),
		Type:             RecommendationLearning,
		Title:            "Learning Opportunities",
		Description:      "Identified areas for system improvement",
		Confidence:       r.cfg.GapConfidence,
		ActionItems:      gaps,
		CorrelationScore: r.cfg.GapCorrelationScore,
		SourceMemories:   []int64{},
	}
}

// extractActionItems derives concrete steps from a proven response memory's
// provenance.
func (r *Recommender) extractActionItems(record *storage.MemoryRecord) []string {
	var actions []string

	if record.SourceModule == "counter_narrative" {
		actions = append(actions, "Deploy similar counter-narrative strategy")
	}
	if record.SourceModule == "response_template" {
		actions = append(actions, "Use proven response template")
	}
	if record.Confidence >= r.cfg.HighConfidenceFloor {
		actions = append(actions, "High confidence - prioritize this approach")
	}

	if len(actions) == 0 {
		return []string{"Review and adapt previous approach"}
	}
	return actions
}

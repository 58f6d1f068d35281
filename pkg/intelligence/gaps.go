package intelligence

import (
	"time"

	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage"
)

// Learning gap action items surfaced by IdentifyLearningGaps.
const (
	GapCollectMoreData   = "Collect more threat intelligence data"
	GapImproveConfidence = "Improve confidence scoring mechanisms"
	GapIncreaseRecency   = "Increase recent threat analysis activity"
)

// IdentifyLearningGaps inspects an entity's memories for process-health
// problems: too few memories overall, too many low-confidence memories, or
// no recent analysis activity.
//
// The returned strings double as the action items of a learning-improvement
// recommendation. An empty result means no gap was detected.
func (c *Config) IdentifyLearningGaps(records []*storage.MemoryRecord, now time.Time) []string {
	var gaps []string

	if len(records) < c.MinMemoryCount {
		gaps = append(gaps, GapCollectMoreData)
	}

	lowConfidence := 0
	for _, record := range records {
		if record.Confidence < c.LowConfidenceThreshold {
			lowConfidence++
		}
	}
	if float64(lowConfidence) > float64(len(records))*c.LowConfidenceShare {
		gaps = append(gaps, GapImproveConfidence)
	}

	cutoff := now.Add(-c.RecencyWindow)
	recent := 0
	for _, record := range records {
		if record.CreatedAt.After(cutoff) {
			recent++
		}
	}
	if recent == 0 {
		gaps = append(gaps, GapIncreaseRecency)
	}

	return gaps
}

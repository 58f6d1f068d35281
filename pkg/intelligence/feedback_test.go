package intelligence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simonL79/aria-ops-ai-sub007/pkg/intelligence"
)

func TestEvaluateFeedback(t *testing.T) {
	cfg := intelligence.DefaultConfig()

	tests := []struct {
		name          string
		effectiveness float64
		want          intelligence.Verdict
	}{
		{"clearly effective", 0.85, intelligence.VerdictReinforce},
		{"clearly ineffective", 0.1, intelligence.VerdictFlag},
		{"ambiguous middle", 0.5, intelligence.VerdictNeutral},
		{"reinforce boundary is inclusive", 0.7, intelligence.VerdictReinforce},
		{"just below reinforce boundary", 0.6999, intelligence.VerdictNeutral},
		{"flag boundary is inclusive", 0.3, intelligence.VerdictFlag},
		{"just above flag boundary", 0.3001, intelligence.VerdictNeutral},
		{"perfect", 1.0, intelligence.VerdictReinforce},
		{"zero", 0.0, intelligence.VerdictFlag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.EvaluateFeedback(tt.effectiveness))
		})
	}
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "reinforce", intelligence.VerdictReinforce.String())
	assert.Equal(t, "flag", intelligence.VerdictFlag.String())
	assert.Equal(t, "neutral", intelligence.VerdictNeutral.String())
}

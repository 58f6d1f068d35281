package intelligence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simonL79/aria-ops-ai-sub007/pkg/intelligence"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		threatType string
		platform   string
		want       string
	}{
		{
			name:       "all components",
			action:     "counter narrative",
			threatType: "phishing",
			platform:   "twitter",
			want:       "counter_narrative_phishing_twitter",
		},
		{
			name:       "uppercase is normalized",
			action:     "Counter Narrative",
			threatType: "Phishing",
			platform:   "Twitter",
			want:       "counter_narrative_phishing_twitter",
		},
		{
			name:       "whitespace runs collapse to single underscores",
			action:     "counter\t narrative",
			threatType: "phishing",
			platform:   "twitter",
			want:       "counter_narrative_phishing_twitter",
		},
		{
			name:       "empty components are dropped",
			action:     "escalate",
			threatType: "",
			platform:   "twitter",
			want:       "escalate_twitter",
		},
		{
			name:       "action only",
			action:     "escalate",
			threatType: "",
			platform:   "",
			want:       "escalate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := intelligence.Fingerprint(tt.action, tt.threatType, tt.platform)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	first := intelligence.Fingerprint("counter narrative", "phishing", "twitter")
	second := intelligence.Fingerprint("counter narrative", "phishing", "twitter")
	assert.Equal(t, first, second)
}

func TestFeedbackFingerprintDefaults(t *testing.T) {
	// Missing threat type and platform resolve to documented defaults, so
	// the fingerprint is never empty when an action is present.
	fb := &intelligence.Feedback{Action: "monitoring escalation"}
	got := intelligence.FeedbackFingerprint(fb)
	assert.Equal(t, "monitoring_escalation_general_unknown", got)
	assert.NotEmpty(t, got)
}

func TestFeedbackFingerprintExplicitAttributes(t *testing.T) {
	fb := &intelligence.Feedback{
		Action:     "legal takedown",
		ThreatType: "impersonation",
		Platform:   "telegram",
	}
	got := intelligence.FeedbackFingerprint(fb)
	assert.Equal(t, "legal_takedown_impersonation_telegram", got)
}

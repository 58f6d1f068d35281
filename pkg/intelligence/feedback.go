package intelligence

// Feedback is an operator-supplied effectiveness signal about a past action.
//
// It is consumed once: converted into a feedback-type memory plus a
// reinforcement or flag signal, and logged raw for audit visibility. It is
// not a long-lived entity beyond that.
type Feedback struct {
	// Action is the action the operator gave feedback on. Required.
	Action string

	// Effectiveness is how well the action worked (0.0-1.0). Required.
	Effectiveness float64

	// Confidence is the operator's trust in their own assessment (0.0-1.0).
	// Zero means unspecified and resolves to the configured default (0.8).
	Confidence float64

	// Outcome is the operator-reported result.
	Outcome string

	// Notes are optional free-text notes.
	Notes string

	// ThreatID references the related threat; empty for general feedback.
	ThreatID string

	// ThreatType is the related threat classification; empty resolves to
	// "general" in fingerprint derivation.
	ThreatType string

	// Platform is the related platform; empty resolves to "unknown" in
	// fingerprint derivation.
	Platform string
}

// Verdict is the outcome of evaluating a feedback effectiveness score.
type Verdict int

const (
	// VerdictNeutral means the feedback is ambiguous: it is recorded as a
	// memory but propagated as neither a reinforcement nor a flag, to avoid
	// amplifying uncertain evidence.
	VerdictNeutral Verdict = iota

	// VerdictReinforce means the fingerprint should be surfaced as a proven
	// approach in future pattern lookups.
	VerdictReinforce

	// VerdictFlag means the fingerprint should be down-weighted or warned
	// against in future recommendations.
	VerdictFlag
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictReinforce:
		return "reinforce"
	case VerdictFlag:
		return "flag"
	default:
		return "neutral"
	}
}

// EvaluateFeedback maps an effectiveness score to a verdict.
//
// Effectiveness at or above the reinforce threshold (default 0.7)
// reinforces; at or below the flag threshold (default 0.3) flags; the open
// interval between them is neutral. The boundaries are inclusive: exactly
// 0.7 reinforces and exactly 0.3 flags.
func (c *Config) EvaluateFeedback(effectiveness float64) Verdict {
	switch {
	case effectiveness >= c.ReinforceThreshold:
		return VerdictReinforce
	case effectiveness <= c.FlagThreshold:
		return VerdictFlag
	default:
		return VerdictNeutral
	}
}

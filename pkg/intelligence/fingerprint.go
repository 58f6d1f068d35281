package intelligence

import (
	"regexp"
	"strings"
)

// Defaults applied when feedback omits optional characterizing attributes.
const (
	// DefaultThreatType is substituted when feedback carries no threat type.
	DefaultThreatType = "general"

	// DefaultPlatform is substituted when feedback carries no platform.
	DefaultPlatform = "unknown"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Fingerprint derives a deterministic pattern key from an action's
// characterizing attributes.
//
// The derivation is a pure function: the components are joined with
// underscores, lowercased, and whitespace runs are collapsed to single
// underscores. Two inputs with equal (action, threatType, platform) tuples
// always yield the same fingerprint, which is what lets the pattern log
// meaningfully aggregate history across memories.
//
// Empty components are dropped from the join.
func Fingerprint(action, threatType, platform string) string {
	components := make([]string, 0, 3)
	for _, c := range []string{action, threatType, platform} {
		if c != "" {
			components = append(components, c)
		}
	}

	joined := strings.ToLower(strings.Join(components, "_"))
	return whitespaceRun.ReplaceAllString(joined, "_")
}

// FeedbackFingerprint derives the pattern fingerprint for an operator
// feedback event, resolving missing optional attributes to their documented
// defaults (threat type "general", platform "unknown").
func FeedbackFingerprint(fb *Feedback) string {
	threatType := fb.ThreatType
	if threatType == "" {
		threatType = DefaultThreatType
	}
	platform := fb.Platform
	if platform == "" {
		platform = DefaultPlatform
	}
	return Fingerprint(fb.Action, threatType, platform)
}

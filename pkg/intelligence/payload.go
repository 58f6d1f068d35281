package intelligence

import (
	"encoding/json"
	"fmt"
)

// Payload is the type-specific structured data carried by a memory.
//
// Each memory type has exactly one payload variant, so structural
// correlation can use exhaustive, type-checked field access instead of
// dynamic lookups.
type Payload interface {
	// MemoryType returns the memory type this payload belongs to.
	MemoryType() MemoryType
}

// ThreatPayload carries the characterizing attributes of a threat memory.
type ThreatPayload struct {
	// Platform is the platform the threat was observed on.
	Platform string `json:"platform,omitempty"`

	// Severity is the coarse severity label.
	Severity string `json:"severity,omitempty"`

	// ThreatType is the threat classification.
	ThreatType string `json:"threatType,omitempty"`

	// ThreatID references the originating threat record.
	ThreatID string `json:"threatId,omitempty"`

	// Content is the observed threat content, if captured.
	Content string `json:"content,omitempty"`
}

// MemoryType implements Payload.
func (ThreatPayload) MemoryType() MemoryType { return MemoryTypeThreat }

// ResponsePayload carries the attributes of a deployed response memory.
type ResponsePayload struct {
	// Strategy names the response strategy that was deployed.
	Strategy string `json:"strategy,omitempty"`

	// Template references a response template, if one was used.
	Template string `json:"template,omitempty"`

	// Platform is the platform the response targeted.
	Platform string `json:"platform,omitempty"`

	// Outcome is the observed result of the response.
	Outcome string `json:"outcome,omitempty"`
}

// MemoryType implements Payload.
func (ResponsePayload) MemoryType() MemoryType { return MemoryTypeResponse }

// PatternPayload carries the attributes of a recognized-pattern memory.
type PatternPayload struct {
	// Fingerprint is the pattern key the memory describes.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Observations counts how often the pattern has been seen.
	Observations int `json:"observations,omitempty"`

	// Description is free text describing the pattern.
	Description string `json:"description,omitempty"`
}

// MemoryType implements Payload.
func (PatternPayload) MemoryType() MemoryType { return MemoryTypePattern }

// FeedbackPayload carries the original operator feedback event that produced
// a feedback memory.
type FeedbackPayload struct {
	// Action is the operator action the feedback refers to.
	Action string `json:"action"`

	// Effectiveness is the operator-assessed effectiveness (0.0-1.0).
	Effectiveness float64 `json:"effectiveness"`

	// Outcome is the operator-reported outcome.
	Outcome string `json:"outcome,omitempty"`

	// Notes are optional free-text notes.
	Notes string `json:"notes,omitempty"`

	// ThreatID references the related threat, if any.
	ThreatID string `json:"threatId,omitempty"`

	// ThreatType is the related threat classification, if known.
	ThreatType string `json:"threatType,omitempty"`

	// Platform is the related platform, if known.
	Platform string `json:"platform,omitempty"`
}

// MemoryType implements Payload.
func (FeedbackPayload) MemoryType() MemoryType { return MemoryTypeFeedback }

// EncodePayload marshals a payload to its stored JSON form.
//
// A nil payload encodes to an empty JSON object so append-only stores never
// carry SQL NULLs in the raw data column.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("EncodePayload: %w", err)
	}
	return data, nil
}

// DecodePayload unmarshals stored raw data into the payload variant for the
// given memory type.
//
// Empty raw data yields a zero-valued payload of the right variant rather
// than an error; old records may predate payload capture.
func DecodePayload(memoryType MemoryType, raw []byte) (Payload, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	switch memoryType {
	case MemoryTypeThreat:
		var p ThreatPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("DecodePayload: %w", err)
		}
		return p, nil
	case MemoryTypeResponse:
		var p ResponsePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("DecodePayload: %w", err)
		}
		return p, nil
	case MemoryTypePattern:
		var p PatternPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("DecodePayload: %w", err)
		}
		return p, nil
	case MemoryTypeFeedback:
		var p FeedbackPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("DecodePayload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("DecodePayload: unknown memory type %q", memoryType)
	}
}

package core

import (
	"github.com/simonL79/aria-ops-ai-sub007/pkg/intelligence"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage"
)

// Baselines substituted when a stored record predates score capture.
const (
	defaultCorrelationScore = 0.5
	defaultConfidence       = 0.7
	defaultSourceModule     = "unknown"
)

// toMemoryRecord converts a core.Memory to its durable storage form.
//
// The payload must already be encoded by the caller; this function is used
// internally to convert between package types and avoid circular
// dependencies.
func toMemoryRecord(m *Memory, rawData []byte) *storage.MemoryRecord {
	return &storage.MemoryRecord{
		ID:                 m.ID,
		EntityName:         m.EntityName,
		MemoryType:         string(m.MemoryType),
		Summary:            m.Summary,
		CorrelationScore:   m.CorrelationScore,
		Confidence:         m.Confidence,
		PatternFingerprint: m.PatternFingerprint,
		SourceModule:       m.SourceModule,
		ContextReference:   m.ContextReference,
		RawData:            rawData,
		CreatedAt:          m.Timestamp,
	}
}

// fromMemoryRecord converts a storage record back to a core.Memory.
//
// Records written before score capture carry zero values; those resolve to
// the recall baselines (correlation 0.5, confidence 0.7, source module
// "unknown"). An undecodable payload degrades to a nil payload rather than
// failing the recall.
func fromMemoryRecord(r *storage.MemoryRecord) *Memory {
	memory := &Memory{
		ID:                 r.ID,
		EntityName:         r.EntityName,
		MemoryType:         MemoryType(r.MemoryType),
		Summary:            r.Summary,
		CorrelationScore:   r.CorrelationScore,
		PatternFingerprint: r.PatternFingerprint,
		Confidence:         r.Confidence,
		SourceModule:       r.SourceModule,
		ContextReference:   r.ContextReference,
		Timestamp:          r.CreatedAt,
	}

	if memory.CorrelationScore == 0 {
		memory.CorrelationScore = defaultCorrelationScore
	}
	if memory.Confidence == 0 {
		memory.Confidence = defaultConfidence
	}
	if memory.SourceModule == "" {
		memory.SourceModule = defaultSourceModule
	}

	if payload, err := intelligence.DecodePayload(memory.MemoryType, r.RawData); err == nil {
		memory.Payload = payload
	}

	return memory
}

// fromMemoryRecords converts a slice of storage records to core memories.
func fromMemoryRecords(records []*storage.MemoryRecord) []*Memory {
	memories := make([]*Memory, 0, len(records))
	for _, record := range records {
		memories = append(memories, fromMemoryRecord(record))
	}
	return memories
}

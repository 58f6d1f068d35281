package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonL79/aria-ops-ai-sub007/pkg/audit"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/entity"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/intelligence"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/storage"
)

// fakeStore is an in-memory RecordStore with switchable failure modes.
type fakeStore struct {
	mu       sync.Mutex
	memories []*storage.MemoryRecord
	patterns []*storage.PatternRecord
	feedback []*storage.FeedbackEntry

	failMemory   bool
	failPattern  bool
	failFeedback bool
	failPatterns bool
}

var errStoreDown = errors.New("store down")

func (s *fakeStore) InsertMemory(_ context.Context, record *storage.MemoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMemory {
		return errStoreDown
	}
	s.memories = append(s.memories, record)
	return nil
}

func (s *fakeStore) GetMemories(_ context.Context, opts *storage.MemoryQueryOptions) ([]*storage.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*storage.MemoryRecord
	for _, m := range s.memories {
		if m.EntityName != opts.EntityName {
			continue
		}
		if opts.MemoryType != "" && m.MemoryType != opts.MemoryType {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *fakeStore) InsertPattern(_ context.Context, record *storage.PatternRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPattern {
		return errStoreDown
	}
	s.patterns = append(s.patterns, record)
	return nil
}

func (s *fakeStore) GetPatterns(_ context.Context, entityName string, limit int) ([]*storage.PatternRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPatterns {
		return nil, errStoreDown
	}
	var out []*storage.PatternRecord
	for _, p := range s.patterns {
		if p.EntityName == entityName {
			out = append(out, p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) InsertFeedback(_ context.Context, entry *storage.FeedbackEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFeedback {
		return errStoreDown
	}
	s.feedback = append(s.feedback, entry)
	return nil
}

func (s *fakeStore) Close() error { return nil }

// captureSink records delivered audit checks.
type captureSink struct {
	mu     sync.Mutex
	checks []*audit.Check
	fail   bool
}

func (s *captureSink) Record(_ context.Context, check *audit.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.checks = append(s.checks, check)
	return nil
}

func newTestClient(t *testing.T, store *fakeStore, sink audit.Sink, resolver entity.Resolver) *Client {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	if sink == nil {
		sink = &captureSink{}
	}
	if resolver == nil {
		resolver = entity.UnknownResolver{}
	}

	engine := intelligence.NewEngine(nil)
	return &Client{
		config:      &Config{},
		storage:     store,
		engine:      engine,
		recommender: intelligence.NewRecommender(engine),
		auditSink:   sink,
		resolver:    resolver,
		node:        node,
		logger:      log.Default(),
	}
}

func TestStoreAssignsIDAndTimestamp(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	id, err := client.Store(ctx, &Memory{
		EntityName: "Acme Corp",
		MemoryType: MemoryTypeThreat,
		Summary:    "phishing campaign",
		Confidence: 0.8,
		Payload:    intelligence.ThreatPayload{Platform: "twitter"},
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	require.Len(t, store.memories, 1)
	assert.Equal(t, id, store.memories[0].ID)
	assert.False(t, store.memories[0].CreatedAt.IsZero())
	assert.NotEmpty(t, store.memories[0].RawData)
}

func TestStoreWritesPatternEcho(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	_, err := client.Store(ctx, &Memory{
		EntityName:         "Acme Corp",
		MemoryType:         MemoryTypeResponse,
		Summary:            "counter narrative deployed",
		Confidence:         0.9,
		PatternFingerprint: "counter_narrative_phishing_twitter",
		SourceModule:       "counter_narrative",
	})
	require.NoError(t, err)

	require.Len(t, store.patterns, 1)
	echo := store.patterns[0]
	assert.Equal(t, "Acme Corp", echo.EntityName)
	assert.Equal(t, "counter_narrative_phishing_twitter", echo.Fingerprint)
	assert.Equal(t, "counter narrative deployed", echo.Summary)
	assert.InDelta(t, 0.9, echo.Confidence, 1e-9)
	assert.Contains(t, string(echo.RecommendedResponse), "counter_narrative")
}

func TestStoreClampsScores(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	_, err := client.Store(ctx, &Memory{
		EntityName:       "Acme Corp",
		MemoryType:       MemoryTypeThreat,
		Summary:          "out of range scores",
		CorrelationScore: 1.5,
		Confidence:       -0.2,
	})
	require.NoError(t, err)

	require.Len(t, store.memories, 1)
	assert.InDelta(t, 1.0, store.memories[0].CorrelationScore, 1e-9)
	assert.InDelta(t, 0.0, store.memories[0].Confidence, 1e-9)
}

func TestStoreValidation(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		memory *Memory
	}{
		{"missing entity name", &Memory{MemoryType: MemoryTypeThreat, Summary: "x"}},
		{"unknown memory type", &Memory{EntityName: "Acme", MemoryType: "bogus", Summary: "x"}},
		{
			"payload type mismatch",
			&Memory{
				EntityName: "Acme",
				MemoryType: MemoryTypeThreat,
				Summary:    "x",
				Payload:    intelligence.ResponsePayload{Strategy: "s"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Store(ctx, tt.memory)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, store.memories)
}

func TestStorePatternEchoFailureDoesNotFailStore(t *testing.T) {
	store := &fakeStore{failPattern: true}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	id, err := client.Store(ctx, &Memory{
		EntityName: "Acme Corp",
		MemoryType: MemoryTypeThreat,
		Summary:    "phishing campaign",
	})
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Len(t, store.memories, 1)
	assert.Empty(t, store.patterns)
}

func TestStorePrimaryWriteFailure(t *testing.T) {
	store := &fakeStore{failMemory: true}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	_, err := client.Store(ctx, &Memory{
		EntityName: "Acme Corp",
		MemoryType: MemoryTypeThreat,
		Summary:    "phishing campaign",
	})
	assert.ErrorIs(t, err, ErrStorageOperation)
}

func TestRecallAppliesDefaults(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	// Record predating score capture: zero scores and no source module.
	store.memories = append(store.memories, &storage.MemoryRecord{
		ID:         1,
		EntityName: "Acme Corp",
		MemoryType: string(MemoryTypeThreat),
		Summary:    "legacy record",
		CreatedAt:  time.Now(),
	})

	memories, err := client.Recall(ctx, "Acme Corp")
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.InDelta(t, 0.5, memories[0].CorrelationScore, 1e-9)
	assert.InDelta(t, 0.7, memories[0].Confidence, 1e-9)
	assert.Equal(t, "unknown", memories[0].SourceModule)
}

func TestRecallQueryContextIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	_, err := client.Store(ctx, &Memory{
		EntityName:       "Acme Corp",
		MemoryType:       MemoryTypeThreat,
		Summary:          "phishing campaign on twitter",
		CorrelationScore: 0.4,
		Confidence:       0.8,
	})
	require.NoError(t, err)

	first, err := client.Recall(ctx, "Acme Corp", WithQueryContext("phishing"))
	require.NoError(t, err)
	second, err := client.Recall(ctx, "Acme Corp", WithQueryContext("phishing"))
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].CorrelationScore, second[0].CorrelationScore)

	// The stored baseline never moves.
	assert.InDelta(t, 0.4, store.memories[0].CorrelationScore, 1e-9)
}

func TestRecallTypeFilterAndLimit(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.Store(ctx, &Memory{
			EntityName: "Acme Corp",
			MemoryType: MemoryTypeThreat,
			Summary:    "threat",
			Confidence: 0.8,
		})
		require.NoError(t, err)
	}
	_, err := client.Store(ctx, &Memory{
		EntityName: "Acme Corp",
		MemoryType: MemoryTypeResponse,
		Summary:    "response",
		Confidence: 0.8,
	})
	require.NoError(t, err)

	threats, err := client.Recall(ctx, "Acme Corp", WithMemoryType(MemoryTypeThreat))
	require.NoError(t, err)
	assert.Len(t, threats, 3)

	limited, err := client.Recall(ctx, "Acme Corp", WithRecallLimit(2))
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecallRequiresEntityName(t *testing.T) {
	client := newTestClient(t, &fakeStore{}, nil, nil)
	_, err := client.Recall(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLearnFromFeedbackPositive(t *testing.T) {
	store := &fakeStore{}
	sink := &captureSink{}
	resolver := entity.NewStaticResolver(map[string]string{"Acme Corp": "ent_42"})
	client := newTestClient(t, store, sink, resolver)
	ctx := context.Background()

	err := client.LearnFromFeedback(ctx, "Acme Corp", &OperatorFeedback{
		Action:        "counter narrative",
		Effectiveness: 0.9,
		Outcome:       "threat neutralized",
		ThreatID:      "threat_4711",
		ThreatType:    "phishing",
		Platform:      "twitter",
	})
	require.NoError(t, err)

	// Feedback memory with derived fingerprint.
	require.Len(t, store.memories, 1)
	memory := store.memories[0]
	assert.Equal(t, string(MemoryTypeFeedback), memory.MemoryType)
	assert.Equal(t, "counter_narrative_phishing_twitter", memory.PatternFingerprint)
	assert.Equal(t, "intelligence_system", memory.SourceModule)
	assert.Equal(t, "threat_4711", memory.ContextReference)
	assert.InDelta(t, 0.9, memory.CorrelationScore, 1e-9)
	assert.InDelta(t, 0.8, memory.Confidence, 1e-9)

	// Reinforcement check delivered to the sink.
	require.Len(t, sink.checks, 1)
	check := sink.checks[0]
	assert.Equal(t, "pattern_reinforcement", check.CheckName)
	assert.True(t, check.Passed)
	assert.Equal(t, audit.SeverityLow, check.Severity)
	assert.Contains(t, check.Result, "counter_narrative_phishing_twitter")

	// Raw feedback log entry with resolved entity and 0-10 score.
	require.Len(t, store.feedback, 1)
	entry := store.feedback[0]
	assert.Equal(t, "ent_42", entry.EntityID)
	assert.Equal(t, 9, entry.Score)
	assert.Equal(t, "counter narrative", entry.OperatorAction)
}

func TestLearnFromFeedbackNegative(t *testing.T) {
	store := &fakeStore{}
	sink := &captureSink{}
	client := newTestClient(t, store, sink, nil)
	ctx := context.Background()

	err := client.LearnFromFeedback(ctx, "Acme Corp", &OperatorFeedback{
		Action:        "legal takedown",
		Effectiveness: 0.2,
		Outcome:       "ignored",
	})
	require.NoError(t, err)

	require.Len(t, sink.checks, 1)
	check := sink.checks[0]
	assert.Equal(t, "pattern_ineffective", check.CheckName)
	assert.False(t, check.Passed)
	assert.Equal(t, audit.SeverityMedium, check.Severity)
}

func TestLearnFromFeedbackNeutralEmitsNoCheck(t *testing.T) {
	store := &fakeStore{}
	sink := &captureSink{}
	client := newTestClient(t, store, sink, nil)
	ctx := context.Background()

	err := client.LearnFromFeedback(ctx, "Acme Corp", &OperatorFeedback{
		Action:        "monitoring escalation",
		Effectiveness: 0.5,
	})
	require.NoError(t, err)

	assert.Empty(t, sink.checks)
	assert.Len(t, store.memories, 1)
	assert.Len(t, store.feedback, 1)
}

func TestLearnFromFeedbackGeneralDefaults(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	err := client.LearnFromFeedback(ctx, "Acme Corp", &OperatorFeedback{
		Action:        "monitoring escalation",
		Effectiveness: 0.5,
	})
	require.NoError(t, err)

	require.Len(t, store.memories, 1)
	memory := store.memories[0]
	assert.Equal(t, "monitoring_escalation_general_unknown", memory.PatternFingerprint)
	assert.Equal(t, "general_feedback", memory.ContextReference)

	require.Len(t, store.feedback, 1)
	assert.Equal(t, entity.UnknownID, store.feedback[0].EntityID)
}

func TestLearnFromFeedbackPrimaryWriteFailureAborts(t *testing.T) {
	store := &fakeStore{failMemory: true}
	sink := &captureSink{}
	client := newTestClient(t, store, sink, nil)
	ctx := context.Background()

	err := client.LearnFromFeedback(ctx, "Acme Corp", &OperatorFeedback{
		Action:        "counter narrative",
		Effectiveness: 0.9,
	})
	assert.ErrorIs(t, err, ErrStorageOperation)

	// No secondary writes after a primary failure.
	assert.Empty(t, sink.checks)
	assert.Empty(t, store.feedback)
}

func TestLearnFromFeedbackSecondaryFailureIsPartialWrite(t *testing.T) {
	store := &fakeStore{failFeedback: true}
	sink := &captureSink{}
	client := newTestClient(t, store, sink, nil)
	ctx := context.Background()

	err := client.LearnFromFeedback(ctx, "Acme Corp", &OperatorFeedback{
		Action:        "counter narrative",
		Effectiveness: 0.9,
	})
	assert.ErrorIs(t, err, ErrPartialWrite)

	// The feedback memory is durable despite the degraded log write.
	assert.Len(t, store.memories, 1)
	assert.Len(t, sink.checks, 1)
}

func TestLearnFromFeedbackSinkFailureIsPartialWrite(t *testing.T) {
	store := &fakeStore{}
	sink := &captureSink{fail: true}
	client := newTestClient(t, store, sink, nil)
	ctx := context.Background()

	err := client.LearnFromFeedback(ctx, "Acme Corp", &OperatorFeedback{
		Action:        "counter narrative",
		Effectiveness: 0.9,
	})
	assert.ErrorIs(t, err, ErrPartialWrite)
	assert.Len(t, store.memories, 1)
	assert.Len(t, store.feedback, 1)
}

func TestLearnFromFeedbackValidation(t *testing.T) {
	client := newTestClient(t, &fakeStore{}, nil, nil)
	ctx := context.Background()

	err := client.LearnFromFeedback(ctx, "", &OperatorFeedback{Action: "x", Effectiveness: 0.5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = client.LearnFromFeedback(ctx, "Acme Corp", &OperatorFeedback{Effectiveness: 0.5})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateRecommendations(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	_, err := client.Store(ctx, &Memory{
		EntityName:       "Acme Corp",
		MemoryType:       MemoryTypeThreat,
		Summary:          "review bombing on trustpilot",
		CorrelationScore: 0.6,
		Confidence:       0.8,
		Payload: intelligence.ThreatPayload{
			Platform:   "trustpilot",
			Severity:   "high",
			ThreatType: "review_bomb",
		},
	})
	require.NoError(t, err)

	_, err = client.Store(ctx, &Memory{
		EntityName:       "Acme Corp",
		MemoryType:       MemoryTypeResponse,
		Summary:          "counter narrative restored rating",
		CorrelationScore: 0.75,
		Confidence:       0.9,
		SourceModule:     "counter_narrative",
	})
	require.NoError(t, err)

	recs, err := client.GenerateRecommendations(ctx, "Acme Corp", &Threat{
		Platform:   "trustpilot",
		Severity:   "high",
		ThreatType: "review_bomb",
	})
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	// Sorted by confidence descending.
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Confidence, recs[i].Confidence)
	}

	types := make(map[string]bool)
	for _, rec := range recs {
		types[rec.Type] = true
	}
	assert.True(t, types[intelligence.RecommendationPatternBased])
	assert.True(t, types[intelligence.RecommendationThreatCorrelation])
}

func TestGenerateRecommendationsDegradesOnPatternQueryFailure(t *testing.T) {
	store := &fakeStore{failPatterns: true}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	recs, err := client.GenerateRecommendations(ctx, "Acme Corp", nil)
	require.NoError(t, err)
	// Empty history still yields the learning-improvement recommendation.
	require.Len(t, recs, 1)
	assert.Equal(t, intelligence.RecommendationLearning, recs[0].Type)
}

func TestPatternHistory(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := client.Store(ctx, &Memory{
			EntityName:         "Acme Corp",
			MemoryType:         MemoryTypeThreat,
			Summary:            "threat",
			PatternFingerprint: "fp",
			Confidence:         0.8,
		})
		require.NoError(t, err)
	}

	patterns, err := client.PatternHistory(ctx, "Acme Corp")
	require.NoError(t, err)
	// Bounded by the default pattern history limit.
	assert.Len(t, patterns, 10)
}

func TestAsyncClientRoundTrip(t *testing.T) {
	store := &fakeStore{}
	client := newTestClient(t, store, nil, nil)
	async := NewAsyncClient(client)
	ctx := context.Background()

	storeResult := <-async.StoreAsync(ctx, &Memory{
		EntityName: "Acme Corp",
		MemoryType: MemoryTypeThreat,
		Summary:    "phishing campaign",
		Confidence: 0.8,
	})
	require.NoError(t, storeResult.Error)
	assert.NotZero(t, storeResult.MemoryID)

	recallResult := <-async.RecallAsync(ctx, "Acme Corp")
	require.NoError(t, recallResult.Error)
	assert.Len(t, recallResult.Memories, 1)

	feedbackResult := <-async.LearnFromFeedbackAsync(ctx, "Acme Corp", &OperatorFeedback{
		Action:        "counter narrative",
		Effectiveness: 0.9,
	})
	require.NoError(t, feedbackResult.Error)

	recsResult := <-async.GenerateRecommendationsAsync(ctx, "Acme Corp", nil)
	require.NoError(t, recsResult.Error)

	async.Wait()
}

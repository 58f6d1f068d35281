package core

import (
	"context"
	"sync"
)

// AsyncClient wraps Client with asynchronous variants of the memory loop
// operations.
//
// Each async method starts a goroutine and returns a buffered channel that
// receives exactly one result. Concurrent writes against the same entity are
// serialized by the underlying client; relative order between concurrent
// calls is unspecified.
//
// Example:
//
//	asyncClient := core.NewAsyncClient(client)
//	resultChan := asyncClient.StoreAsync(ctx, memory)
//	result := <-resultChan
//	if result.Error != nil {
//	    log.Fatal(result.Error)
//	}
type AsyncClient struct {
	*Client
	wg sync.WaitGroup
}

// NewAsyncClient creates an async wrapper around an existing client.
func NewAsyncClient(client *Client) *AsyncClient {
	return &AsyncClient{Client: client}
}

// StoreResult is the result of an asynchronous Store operation.
type StoreResult struct {
	// MemoryID is the assigned memory ID.
	MemoryID int64

	// Error is the operation error, if any.
	Error error
}

// RecallResult is the result of an asynchronous Recall operation.
type RecallResult struct {
	// Memories are the recalled memories.
	Memories []*Memory

	// Error is the operation error, if any.
	Error error
}

// FeedbackResult is the result of an asynchronous LearnFromFeedback
// operation.
type FeedbackResult struct {
	// Error is the operation error, if any.
	Error error
}

// RecommendationsResult is the result of an asynchronous
// GenerateRecommendations operation.
type RecommendationsResult struct {
	// Recommendations are the generated recommendations.
	Recommendations []*Recommendation

	// Error is the operation error, if any.
	Error error
}

// StoreAsync persists a memory asynchronously.
//
// Returns a channel that receives the result when the operation completes.
func (ac *AsyncClient) StoreAsync(ctx context.Context, memory *Memory) <-chan StoreResult {
	resultChan := make(chan StoreResult, 1)

	ac.wg.Add(1)
	go func() {
		defer ac.wg.Done()
		id, err := ac.Store(ctx, memory)
		resultChan <- StoreResult{MemoryID: id, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// RecallAsync retrieves memories asynchronously.
//
// Returns a channel that receives the result when the operation completes.
func (ac *AsyncClient) RecallAsync(ctx context.Context, entityName string, opts ...RecallOption) <-chan RecallResult {
	resultChan := make(chan RecallResult, 1)

	ac.wg.Add(1)
	go func() {
		defer ac.wg.Done()
		memories, err := ac.Recall(ctx, entityName, opts...)
		resultChan <- RecallResult{Memories: memories, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// LearnFromFeedbackAsync processes operator feedback asynchronously.
//
// Returns a channel that receives the result when the operation completes.
func (ac *AsyncClient) LearnFromFeedbackAsync(ctx context.Context, entityName string, feedback *OperatorFeedback) <-chan FeedbackResult {
	resultChan := make(chan FeedbackResult, 1)

	ac.wg.Add(1)
	go func() {
		defer ac.wg.Done()
		err := ac.LearnFromFeedback(ctx, entityName, feedback)
		resultChan <- FeedbackResult{Error: err}
		close(resultChan)
	}()

	return resultChan
}

// GenerateRecommendationsAsync generates recommendations asynchronously.
//
// Returns a channel that receives the result when the operation completes.
func (ac *AsyncClient) GenerateRecommendationsAsync(ctx context.Context, entityName string, threat *Threat) <-chan RecommendationsResult {
	resultChan := make(chan RecommendationsResult, 1)

	ac.wg.Add(1)
	go func() {
		defer ac.wg.Done()
		recommendations, err := ac.GenerateRecommendations(ctx, entityName, threat)
		resultChan <- RecommendationsResult{Recommendations: recommendations, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// Wait blocks until all in-flight asynchronous operations complete.
func (ac *AsyncClient) Wait() {
	ac.wg.Wait()
}

// Close waits for in-flight operations and closes the underlying client.
func (ac *AsyncClient) Close() error {
	ac.Wait()
	return ac.Client.Close()
}

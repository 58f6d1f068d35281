package core

// RecallOption is a function type for configuring Recall operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type RecallOption func(*RecallOptions)

// RecallOptions contains configuration options for Recall operations.
type RecallOptions struct {
	// MemoryType filters recall to a single memory type. Empty matches all.
	MemoryType MemoryType

	// QueryContext is free text to correlate recalled memories against.
	// When set, recall returns adjusted correlation scores sorted
	// descending; when empty, stored order (newest first) is kept.
	QueryContext string

	// Limit caps the number of recalled memories. Zero uses the configured
	// recall limit (default 20).
	Limit int
}

// WithMemoryType filters recall to a single memory type.
//
// Example:
//
//	memories, _ := client.Recall(ctx, "Acme", core.WithMemoryType(core.MemoryTypeThreat))
func WithMemoryType(memoryType MemoryType) RecallOption {
	return func(opts *RecallOptions) {
		opts.MemoryType = memoryType
	}
}

// WithQueryContext enables lexical correlation scoring against the given
// free-text context.
//
// Example:
//
//	memories, _ := client.Recall(ctx, "Acme", core.WithQueryContext("phishing campaign"))
func WithQueryContext(queryContext string) RecallOption {
	return func(opts *RecallOptions) {
		opts.QueryContext = queryContext
	}
}

// WithRecallLimit caps the number of recalled memories.
//
// Example:
//
//	memories, _ := client.Recall(ctx, "Acme", core.WithRecallLimit(5))
func WithRecallLimit(limit int) RecallOption {
	return func(opts *RecallOptions) {
		opts.Limit = limit
	}
}

// applyRecallOptions applies option functions to a default options struct.
func applyRecallOptions(opts []RecallOption) *RecallOptions {
	options := &RecallOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

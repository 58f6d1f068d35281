package sqlite

import (
	"strings"
)

// applyTableDefaults fills in default table names on the config.
func applyTableDefaults(cfg *Config) {
	if cfg.MemoryTable == "" {
		cfg.MemoryTable = "intel_memories"
	}
	if cfg.PatternTable == "" {
		cfg.PatternTable = "pattern_log"
	}
	if cfg.FeedbackTable == "" {
		cfg.FeedbackTable = "feedback_log"
	}
}

// buildMemoryWhereClause builds a WHERE clause for memory queries.
func buildMemoryWhereClause(entityName, memoryType string) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if entityName != "" {
		conditions = append(conditions, "entity_name = ?")
		args = append(args, entityName)
	}

	if memoryType != "" {
		conditions = append(conditions, "memory_type = ?")
		args = append(args, memoryType)
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

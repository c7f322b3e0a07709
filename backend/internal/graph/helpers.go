package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return int(i)
	}
	if i, ok := val.(int); ok {
		return i
	}
	return 0
}

package graph

import (
	"fmt"
	"sort"

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

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func getMapFromRecord(record *neo4j.Record, key string) map[string]interface{} {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return map[string]interface{}{}
	}
	if m, ok := val.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// structural node properties that never become person attributes
var reservedProps = map[string]bool{
	"id":    true,
	"name":  true,
	"chart": true,
	"seq":   true,
}

// propsToAttrs turns node properties into a string attribute map. Lists and
// numbers are rendered with fmt so year_of_birth stored as an integer still
// round-trips as text.
func propsToAttrs(props map[string]interface{}) map[string]string {
	attrs := make(map[string]string, len(props))
	for k, v := range props {
		if reservedProps[k] || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			attrs[k] = val
		default:
			attrs[k] = fmt.Sprint(val)
		}
	}
	return attrs
}

// attrsToProps is the inverse used when seeding a chart
func attrsToProps(attrs map[string]string) map[string]interface{} {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if !reservedProps[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	props := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		props[k] = attrs[k]
	}
	return props
}

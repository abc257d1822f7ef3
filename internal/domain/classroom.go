package domain

import "strings"

// PartitionKeyPrefix prefixes the durable record holding a classroom's remote identifier.
const PartitionKeyPrefix = "blob_"

// ConfigKey is the durable record holding the SupportConfig. It is global, not per classroom.
const ConfigKey = "aptimaster_config"

// NormalizeClassroomID trims and upper-cases a human-entered classroom id.
func NormalizeClassroomID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// PartitionKey returns the durable record key for a classroom.
func PartitionKey(classroomID string) string {
	return PartitionKeyPrefix + NormalizeClassroomID(classroomID)
}

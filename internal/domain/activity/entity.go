package activity

import "time"

// Entry is one append-only audit event. Stored schema-less in MongoDB,
// no relational integrity against the SQL side.
type Entry struct {
	Actor        string         `json:"actor" bson:"actor"`
	Action       string         `json:"action" bson:"action"`
	ResourceType string         `json:"resource_type" bson:"resource_type"`
	ResourceID   string         `json:"resource_id" bson:"resource_id"`
	Details      map[string]any `json:"details,omitempty" bson:"details,omitempty"`
	IP           string         `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	Timestamp    time.Time      `json:"timestamp" bson:"timestamp"`
}

// models/audit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AuditTypeAuth = "AUTH"

	AuditStatusSuccess = "success"
	AuditStatusError   = "error"

	AuditTriggeredBySystem = "system"
)

// AuditEvent records one authentication-related occurrence for operability
// and compliance review.
type AuditEvent struct {
	ID          primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	Type        string                 `json:"type" bson:"type"`
	Status      string                 `json:"status" bson:"status"`
	UserID      string                 `json:"userId,omitempty" bson:"userId,omitempty"`
	TriggeredBy string                 `json:"triggeredBy" bson:"triggeredBy"`
	IP          string                 `json:"ip,omitempty" bson:"ip,omitempty"`
	UserAgent   string                 `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	OccurredAt  time.Time              `json:"occurredAt" bson:"occurredAt"`
}

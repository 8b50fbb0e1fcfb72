package repositories

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/intai-app/intai_backend/config"
	"github.com/intai-app/intai_backend/models"
)

// AuditSink receives authentication audit events. Recording is best-effort:
// a sink failure must never fail the request that produced the event.
type AuditSink interface {
	Record(ctx context.Context, event models.AuditEvent) error
}

// MongoAuditSink persists audit events to the audit_events collection.
type MongoAuditSink struct {
	collection *mongo.Collection
	logger     *log.Logger
}

// NewAuditSink creates a Mongo-backed audit sink.
func NewAuditSink(db *mongo.Client) *MongoAuditSink {
	return &MongoAuditSink{
		collection: config.GetCollection(db, "audit_events"),
		logger:     log.New(os.Stdout, "[AUDIT] ", log.LstdFlags),
	}
}

func (s *MongoAuditSink) Record(ctx context.Context, event models.AuditEvent) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.collection.InsertOne(insertCtx, event)
	if err != nil {
		s.logger.Printf("Failed to record audit event %s/%s: %v", event.Type, event.Status, err)
	}
	return err
}

// NoOpAuditSink discards all events. Used in tests and local development.
type NoOpAuditSink struct{}

func (NoOpAuditSink) Record(ctx context.Context, event models.AuditEvent) error {
	return nil
}

package activitylog

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rejlers/edrs-backend/internal/domain/activity"
)

// MongoRecorder writes audit entries to a capped-style activity collection.
type MongoRecorder struct {
	col *mongo.Collection
}

func NewMongoRecorder(ctx context.Context, uri, database string) (*MongoRecorder, error) {
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx2, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx2, nil); err != nil {
		return nil, err
	}

	col := client.Database(database).Collection("activity_logs")

	// indexes untuk query recent + per-actor
	_, err = col.Indexes().CreateMany(ctx2, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "actor", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}

	return &MongoRecorder{col: col}, nil
}

// Record never propagates failure to the caller. Audit writes are
// best effort, a down Mongo must not block uploads or analyses.
func (m *MongoRecorder) Record(ctx context.Context, e activity.Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	ctx2, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := m.col.InsertOne(ctx2, e); err != nil {
		log.Printf("activitylog: record failed action=%s resource=%s err=%v", e.Action, e.ResourceID, err)
	}
}

// Ping is used by the health endpoint
func (m *MongoRecorder) Ping(ctx context.Context) error {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.col.Database().Client().Ping(ctx2, nil)
}

// Recent returns the newest entries, newest first
func (m *MongoRecorder) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := m.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []activity.Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package activitylog

import (
	"context"

	"github.com/rejlers/edrs-backend/internal/domain/activity"
)

// NoopRecorder stands in when Mongo is not configured.
type NoopRecorder struct{}

func (NoopRecorder) Record(ctx context.Context, e activity.Entry) {}

func (NoopRecorder) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	return nil, nil
}

package activity

import "context"

// Recorder port. Record must never fail the calling request; implementations
// log and swallow their own errors.
type Recorder interface {
	Record(ctx context.Context, e Entry)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

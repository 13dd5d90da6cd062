package ports

import "context"

// ObjectStorage is the narrow interface the services use to park file
// bytes. Implementations return a public URL and keep the storage key
// server-internal.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	Delete(ctx context.Context, bucket, key string) error
}

// Mailer sends notification mail. Failures on one recipient must never
// abort the caller's batch; implementations log and move on.
type Mailer interface {
	Send(ctx context.Context, toAddress, toName, subject, htmlBody string) error
}

// CounterKind selects which video counter to touch.
type CounterKind string

const (
	CounterViews CounterKind = "views"
	CounterLikes CounterKind = "likes"
)

// CounterStore keeps hot view/like counters. Increment bumps one counter
// and returns both current values so callers can flush them through to
// the repository. Seed initializes missing counters from persisted
// values without clobbering counts already accumulated.
type CounterStore interface {
	Increment(ctx context.Context, kind CounterKind, videoID int64) (views, likes int64, err error)
	Seed(ctx context.Context, videoID int64, views, likes int64) error
}

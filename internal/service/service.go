// Package service holds the user and occurrence domain services. Transports
// call these operations; stores and the credential hasher are injected.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conectapg/occurrence-service/internal/domain"
	"github.com/conectapg/occurrence-service/internal/events"
)

//go:generate mockgen -destination=mocks/password_hasher_mock.go -package=mocks . PasswordHasher

// PasswordHasher turns a plaintext secret into an irreversible hash.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Recorder receives domain counters. A nil Recorder is ignored.
type Recorder interface {
	UserCreated(role domain.Role)
	OccurrenceCreated(t domain.OccurrenceType)
	OccurrenceStatusChanged(to domain.OccurrenceStatus)
}

// Clock returns the current time.
type Clock func() time.Time

// SystemClock stamps UTC times at the precision Postgres stores.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Optional marks a field that may be left out of a partial update.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// None is the absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr is Some(*p) for non-nil p and None otherwise.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event dropped",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func orSystemClock(clock Clock) Clock {
	if clock == nil {
		return SystemClock
	}
	return clock
}

// nopRecorder is used when no Recorder is supplied.
type nopRecorder struct{}

func (nopRecorder) UserCreated(domain.Role) {}
func (nopRecorder) OccurrenceCreated(domain.OccurrenceType) {}
func (nopRecorder) OccurrenceStatusChanged(domain.OccurrenceStatus) {}

func orNopRecorder(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

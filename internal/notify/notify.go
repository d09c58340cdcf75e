// Package notify fans occurrence events out to operators and subscribers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conectapg/occurrence-service/internal/events"
)

// Publisher is the subset of the redis client used for pub/sub fan-out.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Service handles notifications for domain events.
type Service struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	publisher  Publisher
	channel    string
}

// NewService creates the service. A nil publisher disables the redis fan-out.
func NewService(dispatcher events.Dispatcher, logger *zap.Logger, publisher Publisher, channel string) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		dispatcher: dispatcher,
		logger:     logger,
		publisher:  publisher,
		channel:    channel,
	}
}

// RegisterHandlers subscribes to every event type.
func (s *Service) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		s.dispatcher.Subscribe(eventType, s.handle)
	}
}

func (s *Service) handle(ctx context.Context, event events.Event) error {
	s.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("occurrence_id", event.OccurrenceID),
		zap.String("user_id", event.UserID),
		zap.Any("payload", event.Payload))
	return s.publish(ctx, event)
}

func (s *Service) publish(ctx context.Context, event events.Event) error {
	if s.publisher == nil || s.channel == "" {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	if err := s.publisher.Publish(ctx, s.channel, body).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	s.logger.Debug("event published", zap.String("channel", s.channel), zap.String("event_id", event.ID))
	return nil
}

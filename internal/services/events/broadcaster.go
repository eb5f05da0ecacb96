package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/outbreak-engine/pkg/engine"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeNotification     EventType = "notification"
	EventTypeGameStateUpdated EventType = "game.state_updated"
	EventTypeGameCompleted    EventType = "game.completed"
	EventTypeSessionClosed    EventType = "session.closed"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel returns the Pub/Sub channel of a session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("outbreak-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishNotification publishes an engine notification
func (b *Broadcaster) PublishNotification(ctx context.Context, sessionID uuid.UUID, n engine.Notification) error {
	event := Event{
		Type:      EventTypeNotification,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"day":            n.Day,
			"message":        n.Message,
			"severity":       n.Severity,
			"effect_summary": n.EffectSummary,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishStateUpdated publishes the headline figures of a game after a step
func (b *Broadcaster) PublishStateUpdated(ctx context.Context, sessionID uuid.UUID, g engine.Game) error {
	event := Event{
		Type:      EventTypeGameStateUpdated,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"day":               g.State.Day,
			"status":            g.Status,
			"cases":             g.State.Cases,
			"deaths":            g.State.Deaths,
			"budget":            g.State.Budget,
			"r0":                g.State.R0,
			"source_identified": g.State.SourceIdentified,
			"event_pending":     g.EventPending(),
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishCompleted publishes the terminal result of a game
func (b *Broadcaster) PublishCompleted(ctx context.Context, sessionID uuid.UUID, won bool, score int) error {
	event := Event{
		Type:      EventTypeGameCompleted,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"won":   won,
			"score": score,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishSessionClosed tells listeners the session is gone
func (b *Broadcaster) PublishSessionClosed(ctx context.Context, sessionID uuid.UUID, reason string) error {
	event := Event{
		Type:      EventTypeSessionClosed,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"reason": reason,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// Notifier adapts the broadcaster to an engine.Notifier for one session.
// Publishing errors are logged by the broadcaster and otherwise dropped.
func (b *Broadcaster) Notifier(sessionID uuid.UUID, timeout time.Duration) engine.Notifier {
	return engine.NotifierFunc(func(n engine.Notification) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = b.PublishNotification(ctx, sessionID, n)
	})
}

// publishToSession publishes an event to the session-specific channel
func (b *Broadcaster) publishToSession(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}

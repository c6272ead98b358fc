// Package events publishes book lifecycle events to RabbitMQ.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/aoideee/bookshelf-api/internal/data"
)

const (
	exchangeName = "bookshelf.events"
	exchangeType = "topic"

	// Event types, also used as routing keys.
	EventTypeBookCreated = "book.created"
	EventTypeBookUpdated = "book.updated"
	EventTypeBookDeleted = "book.deleted"

	eventVersion = "1.0.0"

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
	confirmTimeout = 5 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event is the envelope written to the exchange.
type Event struct {
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	EventVersion  string         `json:"event_version"`
	Timestamp     string         `json:"timestamp"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Payload       map[string]any `json:"payload"`
}

type correlationKey struct{}

// WithCorrelationID returns a copy of ctx carrying id. Events published with
// the returned context record it as their correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func newEvent(ctx context.Context, eventType string, payload map[string]any) Event {
	return Event{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		CorrelationID: CorrelationID(ctx),
		Payload:       payload,
	}
}

// BookCreated builds the event announcing a new book.
func BookCreated(ctx context.Context, book data.Book) Event {
	return newEvent(ctx, EventTypeBookCreated, bookPayload(book))
}

// BookUpdated builds the event announcing a replaced book.
func BookUpdated(ctx context.Context, book data.Book) Event {
	return newEvent(ctx, EventTypeBookUpdated, bookPayload(book))
}

// BookDeleted builds the event announcing a removed book.
func BookDeleted(ctx context.Context, id string) Event {
	return newEvent(ctx, EventTypeBookDeleted, map[string]any{"id": id})
}

func bookPayload(b data.Book) map[string]any {
	return map[string]any{
		"id":        b.ID,
		"name":      b.Name,
		"publisher": b.Publisher,
		"pageCount": b.PageCount,
		"readPage":  b.ReadPage,
		"finished":  b.Finished,
		"reading":   b.Reading,
	}
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }

// IsHealthy reports false: a Nop is never connected to a broker.
func (Nop) IsHealthy() bool { return false }

// Close does nothing.
func (Nop) Close() error { return nil }

// Publisher handles event publishing to RabbitMQ
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger
}

// NewPublisher dials url, declares the topic exchange and enables publisher
// confirms.
func NewPublisher(url string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchangeName,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := channel.Confirm(false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	log.Info("Connected to RabbitMQ", zap.String("exchange", exchangeName))

	return &Publisher{
		conn:    conn,
		channel: channel,
		log:     log,
	}, nil
}

// Publish sends event using its type as the routing key, retrying with
// exponential backoff until the broker confirms it. It blocks for the whole
// exchange; wrap it in an Async to keep callers off the network path.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff = min(backoff*2, maxBackoff)
			}
		}

		confirm, err := p.channel.PublishWithDeferredConfirmWithContext(
			ctx,
			exchangeName,
			event.EventType,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
				MessageId:    event.EventID,
				Body:         body,
				Headers: amqp.Table{
					"event_type":    event.EventType,
					"event_version": event.EventVersion,
				},
			},
		)
		if err != nil {
			lastErr = err
			p.log.Warn("Failed to publish event, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		// The deferred confirmation is matched to this publish by delivery tag.
		acked, err := waitConfirm(ctx, confirm)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			lastErr = err
		case acked:
			p.log.Debug("Event published",
				zap.String("event_id", event.EventID),
				zap.String("event_type", event.EventType),
			)
			return nil
		default:
			lastErr = errors.New("event not acknowledged")
		}

		p.log.Warn("Event publish not confirmed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	return fmt.Errorf("failed to publish event after %d attempts: %w", maxRetries, lastErr)
}

func waitConfirm(ctx context.Context, confirm *amqp.DeferredConfirmation) (bool, error) {
	if confirm == nil {
		// Channel not in confirm mode; nothing to wait for.
		return true, nil
	}
	ctx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return false, fmt.Errorf("confirmation: %w", err)
	}
	return acked, nil
}

// IsHealthy checks if the publisher connection is healthy
func (p *Publisher) IsHealthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

// Close closes the publisher connection
func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Error("Failed to close channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return err
		}
	}
	p.log.Info("Publisher closed")
	return nil
}

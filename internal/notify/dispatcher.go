package notify

import (
	"context"
	"time"

	"imovia/pkg/config"
	"imovia/pkg/kafka"
	"imovia/pkg/logger"
)

// Dispatcher publishes lifecycle events after the state change has
// committed. Delivery is best effort: a publish failure is logged and never
// surfaces to the request that triggered it.
type Dispatcher interface {
	Dispatch(event Event)
	Close() error
}

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaDispatcher struct {
	producer producer
	timeout  time.Duration
	source   string
	logger   *logger.Logger
}

func NewKafkaDispatcher(cfg *config.Config, p *kafka.Producer) Dispatcher {
	return &kafkaDispatcher{
		producer: p,
		timeout:  cfg.NotifyTimeout,
		source:   cfg.ServiceName,
		logger:   cfg.Log,
	}
}

// Dispatch publishes the event on a detached goroutine so the caller's
// request is never held up or failed by the broker. Events for the same
// request share a partition key, so consumers observe transitions in order.
func (d *kafkaDispatcher) Dispatch(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		msg := kafka.NewMessage().
			WithKey(event.RequestID).
			WithValue(event).
			WithEventType(event.Type).
			WithSource(d.source).
			Build()

		if err := d.producer.Publish(ctx, msg); err != nil {
			d.logger.Error("Failed to publish lifecycle event",
				"event_type", event.Type,
				"request_id", event.RequestID,
				"error", err,
			)
			return
		}

		d.logger.Debug("Published lifecycle event",
			"event_type", event.Type,
			"request_id", event.RequestID,
		)
	}()
}

func (d *kafkaDispatcher) Close() error {
	return d.producer.Close()
}

// NopDispatcher drops every event. Used when no broker is configured.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(Event) {}

func (NopDispatcher) Close() error { return nil }

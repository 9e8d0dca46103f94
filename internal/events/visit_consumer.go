package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vetdesk/service-reservation/internal/platform/kafka"
)

// VisitCompleter marks a reservation done after the front desk checks the
// patient out. Implemented by the reservation application service.
type VisitCompleter interface {
	MarkVisitCompleted(ctx context.Context, reservationID uuid.UUID) error
}

// VisitEventConsumer listens to front-desk visit events and completes the
// matching reservations.
type VisitEventConsumer struct {
	consumer  *kafka.Consumer
	completer VisitCompleter
	logger    *zap.Logger
}

// NewVisitEventConsumer creates a consumer on the visit.events topic.
func NewVisitEventConsumer(
	brokers []string,
	groupID string,
	completer VisitCompleter,
	logger *zap.Logger,
) *VisitEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicVisitEvents, logger)
	return &VisitEventConsumer{
		consumer:  consumer,
		completer: completer,
		logger:    logger,
	}
}

// Start begins consuming visit events. Blocks until the context is cancelled.
func (c *VisitEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *VisitEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *VisitEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from visit topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case VisitCompleted:
		return c.handleVisitCompleted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled visit event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *VisitEventConsumer) handleVisitCompleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt VisitCompletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse VisitCompletedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing visit completed event",
		zap.String("reservation_id", evt.ReservationID.String()),
	)

	if err := c.completer.MarkVisitCompleted(ctx, evt.ReservationID); err != nil {
		c.logger.Error("failed to complete reservation after visit",
			zap.String("reservation_id", evt.ReservationID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("reservation completed after visit",
		zap.String("reservation_id", evt.ReservationID.String()),
	)
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// InboxTopic is the single topic every inbound event is serialized through.
const InboxTopic = "orchestrator.inbox"

// EventHandler is satisfied by *orchestrator.Orchestrator.
type EventHandler interface {
	Handle(ctx context.Context, ev events.Inbound) error
}

// IConsumerService is the orchestrator inbox. Publish may be called from any
// goroutine; Consume hands events to the handler one at a time in arrival
// order.
type IConsumerService interface {
	Publish(ctx context.Context, ev events.Inbound) error
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	handler   EventHandler
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	handler EventHandler,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		handler:   handler,
		logger:    log,
	}
}

func (cs *consumerService) Publish(ctx context.Context, ev events.Inbound) error {
	payload, err := events.Encode(ev)
	if err != nil {
		return err
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("kind", string(ev.Kind()))
	msg.SetContext(ctx)

	if err := cs.pubSub.Publish(cs.topicName, msg); err != nil {
		return fmt.Errorf("publish %s to inbox: %w", ev.Kind(), err)
	}
	return nil
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
		cs.logger.Info("ConsumerService", "Inbox closed", nil)
	}()

	return nil
}

// processMessage always acks: inbound events are not retried.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	ev, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to decode inbox message", map[string]interface{}{
			"message_id": msg.UUID,
			"kind":       msg.Metadata.Get("kind"),
			"error":      err.Error(),
		})
		return
	}

	if err := cs.handler.Handle(ctx, ev); err != nil {
		level := cs.logger.Warn
		if errors.Is(err, events.ErrUnknownEvent) {
			level = cs.logger.Error
		}
		level("ConsumerService", "Event handling failed", map[string]interface{}{
			"message_id": msg.UUID,
			"kind":       string(ev.Kind()),
			"error":      err.Error(),
		})
	}
}

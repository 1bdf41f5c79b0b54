package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// InboundHandler receives decoded sensor events. Returning an error naks the
// message for redelivery.
type InboundHandler func(ctx context.Context, ev events.Inbound) error

// Subscriber bridges sensor events published on events.inbound.<kind> into
// the orchestrator.
type Subscriber struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	logger  logger.ILogger
	consume jetstream.ConsumeContext
}

func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	if err := ensureStream(context.Background(), js); err != nil {
		log.Warn("NATS", "Failed to ensure stream", map[string]interface{}{
			"stream": StreamName,
			"error":  err.Error(),
		})
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// DecodeInbound turns a subject and JSON body into an inbound event.
func DecodeInbound(subject string, data []byte) (events.Inbound, error) {
	kind, ok := strings.CutPrefix(subject, InboundPrefix)
	if !ok || kind == "" {
		return nil, fmt.Errorf("%w: subject %q", events.ErrUnknownEvent, subject)
	}
	return events.DecodeJSON(events.Kind(kind), data)
}

// SubscribeInbound starts a durable consumer over every inbound subject.
func (s *Subscriber) SubscribeInbound(ctx context.Context, durableName string, handler InboundHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: InboundPrefix + ">",
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		ev, err := DecodeInbound(msg.Subject(), msg.Data())
		if err != nil {
			s.logger.Error("NATS", "Dropping undecodable inbound event", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			// Redelivery cannot fix a bad payload.
			_ = msg.Term()
			return
		}

		if err := handler(ctx, ev); err != nil {
			s.logger.Warn("NATS", "Inbound handler failed", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			if errors.Is(err, events.ErrUnknownEvent) {
				_ = msg.Term()
				return
			}
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.consume = cc

	s.logger.Info("NATS", "Subscribed to inbound events", map[string]interface{}{
		"subject": InboundPrefix + ">",
		"durable": durableName,
	})
	return nil
}

func (s *Subscriber) Close() {
	if s.consume != nil {
		s.consume.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}

package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"inventory-order-service/app/domain"
	"inventory-order-service/config"

	"github.com/nats-io/nats.go/jetstream"
)

// EnsureStream declares the durable file-backed stock stream. The declare is
// idempotent so both services can run it at startup in any order.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg *config.Config) (jetstream.Stream, error) {
	stream, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     strings.ToUpper(cfg.Nats.StreamName),
		Subjects: []string{fmt.Sprintf("%s.*", strings.ToLower(cfg.Nats.StreamName))},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
			return nil, err
		}
		stream, err = js.Stream(ctx, strings.ToUpper(cfg.Nats.StreamName))
		if err != nil {
			return nil, err
		}
	}
	return stream, nil
}

// Subject maps a queue name onto the stock stream's subject space.
func Subject(streamName, queue string) string {
	return fmt.Sprintf("%s.%s", strings.ToLower(streamName), queue)
}

type stockChangePublisher struct {
	js         jetstream.JetStream
	streamName string
}

// NewStockChangePublisher wraps a long-lived JetStream context. The
// connection is owned by the caller and released only at process shutdown.
func NewStockChangePublisher(js jetstream.JetStream, cfg *config.Config) domain.BrokerPublisher {
	return &stockChangePublisher{
		js:         js,
		streamName: cfg.Nats.StreamName,
	}
}

// PublishStockChange sends the message to its variant's queue and returns
// only after the broker has accepted it. The message ID doubles as the
// broker-side dedup key.
func (p *stockChangePublisher) PublishStockChange(ctx context.Context, msg domain.StockChange) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "[stockChangePublisher] PublishStockChange", "json.Marshal", err)
		return fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	subject := Subject(p.streamName, msg.Queue())
	if _, err = p.js.Publish(ctx, subject, data, jetstream.WithMsgID(msg.ID())); err != nil {
		slog.ErrorContext(ctx, "[stockChangePublisher] PublishStockChange", "Publish", err)
		return fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	slog.InfoContext(ctx, "[stockChangePublisher] PublishStockChange",
		"queue", msg.Queue(), "messageID", msg.ID(), "orderID", msg.Order())
	return nil
}

func (p *stockChangePublisher) PublishDeadLetter(ctx context.Context, dl domain.DeadLetter) error {
	data, err := json.Marshal(dl)
	if err != nil {
		slog.ErrorContext(ctx, "[stockChangePublisher] PublishDeadLetter", "json.Marshal", err)
		return err
	}

	subject := Subject(p.streamName, domain.DeadLetterQueue)
	if _, err = p.js.Publish(ctx, subject, data); err != nil {
		slog.ErrorContext(ctx, "[stockChangePublisher] PublishDeadLetter", "Publish", err)
		return err
	}

	slog.WarnContext(ctx, "[stockChangePublisher] PublishDeadLetter",
		"queue", dl.Queue, "reason", dl.Reason)
	return nil
}

package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"inventory-order-service/app/domain"
	"inventory-order-service/app/repository/broker"
	"inventory-order-service/config"

	"github.com/nats-io/nats.go/jetstream"
)

// action is the consumer's verdict on a delivered message.
type action int

const (
	ackMessage action = iota
	retryMessage
)

// StockChangeConsumer drains the creation and delta queues and reconciles
// each message against the product store. Messages within one queue arrive
// in publish order; no ordering holds across the two queues.
type StockChangeConsumer struct {
	applier   domain.StockApplier
	processed domain.ProcessedMessageRepository
	publisher domain.BrokerPublisher
	cfg       *config.Config

	consumeContexts []jetstream.ConsumeContext
}

func NewStockChangeConsumer(applier domain.StockApplier, processed domain.ProcessedMessageRepository, publisher domain.BrokerPublisher, cfg *config.Config) *StockChangeConsumer {
	return &StockChangeConsumer{
		applier:   applier,
		processed: processed,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Start binds a durable explicit-ack consumer to each queue and begins
// dispatching. Redelivery is bounded by MaxDeliver; what survives that many
// attempts goes to the dead-letter queue.
func (c *StockChangeConsumer) Start(ctx context.Context, stream jetstream.Stream) error {
	for _, queue := range []string{domain.CreationQueue, domain.DeltaQueue} {
		queue := queue
		cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
			Durable:       queue,
			FilterSubject: broker.Subject(c.cfg.Nats.StreamName, queue),
			AckPolicy:     jetstream.AckExplicitPolicy,
			MaxDeliver:    c.cfg.Consumer.MaxDeliver,
			AckWait:       time.Duration(c.cfg.Consumer.AckWaitSeconds) * time.Second,
		})
		if err != nil {
			slog.ErrorContext(ctx, "[StockChangeConsumer] Start", "createConsumer:"+queue, err)
			return err
		}

		consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
			c.dispatch(ctx, queue, msg)
		})
		if err != nil {
			slog.ErrorContext(ctx, "[StockChangeConsumer] Start", "consume:"+queue, err)
			return err
		}
		c.consumeContexts = append(c.consumeContexts, consumeCtx)

		slog.InfoContext(ctx, "[StockChangeConsumer] Start", "queue", queue)
	}

	go c.purgeLoop(ctx)
	return nil
}

// Stop halts dispatching. Unacknowledged in-flight messages are redelivered
// by the broker after the ack wait elapses.
func (c *StockChangeConsumer) Stop() {
	for _, consumeCtx := range c.consumeContexts {
		consumeCtx.Stop()
	}
	c.consumeContexts = nil
}

func (c *StockChangeConsumer) dispatch(ctx context.Context, queue string, msg jetstream.Msg) {
	delivered := 1
	if meta, err := msg.Metadata(); err == nil {
		delivered = int(meta.NumDelivered)
	}

	switch c.handle(ctx, queue, msg.Data(), delivered) {
	case retryMessage:
		if err := msg.Nak(); err != nil {
			slog.ErrorContext(ctx, "[StockChangeConsumer] dispatch", "nak", err)
		}
	default:
		if err := msg.Ack(); err != nil {
			slog.ErrorContext(ctx, "[StockChangeConsumer] dispatch", "ack", err)
		}
	}
}

// handle moves a delivery through classification, dedup and application and
// decides its fate. Application failures on individual items (missing
// product, insufficient stock) never fail the message: the remaining items
// still apply and the message is acknowledged. Only transient store errors
// earn a retry.
func (c *StockChangeConsumer) handle(ctx context.Context, queue string, data []byte, delivered int) action {
	msg, err := domain.DecodeStockChange(data)
	if err != nil {
		// Unclassifiable payloads are recorded and discarded, never retried.
		slog.ErrorContext(ctx, "[StockChangeConsumer] handle", "classify", err)
		c.deadLetter(ctx, queue, data, err.Error())
		return ackMessage
	}

	seen, err := c.processed.AlreadyProcessed(ctx, msg.ID())
	if err != nil {
		slog.ErrorContext(ctx, "[StockChangeConsumer] handle", "alreadyProcessed", err)
		return c.retryOrDeadLetter(ctx, queue, data, delivered, "dedup lookup failed")
	}
	if seen {
		slog.InfoContext(ctx, "[StockChangeConsumer] handle",
			"duplicate", msg.ID(), "orderID", msg.Order())
		return ackMessage
	}

	switch m := msg.(type) {
	case domain.CreationMessage:
		for _, item := range m.Items {
			if err := c.applier.ApplyAbsolute(ctx, item.ProductID, item.Quantity); err != nil {
				if isApplicationFailure(err) {
					slog.ErrorContext(ctx, "[StockChangeConsumer] handle",
						"severity", "critical", "orderID", m.OrderID, "productID", item.ProductID, "error", err)
					continue
				}
				return c.retryOrDeadLetter(ctx, queue, data, delivered, "apply absolute failed")
			}
		}
	case domain.DeltaMessage:
		for _, item := range m.Items {
			if err := c.applier.ApplyDelta(ctx, item.ProductID, item.DeltaQuantity); err != nil {
				if isApplicationFailure(err) {
					slog.ErrorContext(ctx, "[StockChangeConsumer] handle",
						"severity", "critical", "orderID", m.OrderID, "productID", item.ProductID, "error", err)
					continue
				}
				return c.retryOrDeadLetter(ctx, queue, data, delivered, "apply delta failed")
			}
		}
	}

	if err := c.processed.MarkProcessed(ctx, msg.ID(), msg.Order()); err != nil {
		slog.ErrorContext(ctx, "[StockChangeConsumer] handle", "markProcessed", err)
		return c.retryOrDeadLetter(ctx, queue, data, delivered, "mark processed failed")
	}

	slog.InfoContext(ctx, "[StockChangeConsumer] handle",
		"applied", msg.ID(), "queue", queue, "orderID", msg.Order())
	return ackMessage
}

func (c *StockChangeConsumer) retryOrDeadLetter(ctx context.Context, queue string, data []byte, delivered int, reason string) action {
	if delivered >= c.cfg.Consumer.MaxDeliver {
		c.deadLetter(ctx, queue, data, reason+": retries exhausted")
		return ackMessage
	}
	return retryMessage
}

func (c *StockChangeConsumer) deadLetter(ctx context.Context, queue string, data []byte, reason string) {
	dl := domain.DeadLetter{
		Reason:     reason,
		Queue:      queue,
		Payload:    data,
		RecordedAt: time.Now().UTC(),
	}
	if err := c.publisher.PublishDeadLetter(ctx, dl); err != nil {
		slog.ErrorContext(ctx, "[StockChangeConsumer] deadLetter", "publish", err)
	}
}

// purgeLoop trims the processed-message set down to the configured
// retention, keeping dedup storage bounded.
func (c *StockChangeConsumer) purgeLoop(ctx context.Context) {
	retention := time.Duration(c.cfg.Consumer.DedupRetentionHours) * time.Hour
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := c.processed.PurgeOlderThan(ctx, retention)
			if err != nil {
				slog.ErrorContext(ctx, "[StockChangeConsumer] purgeLoop", "purge", err)
				continue
			}
			if purged > 0 {
				slog.InfoContext(ctx, "[StockChangeConsumer] purgeLoop", "purged", purged)
			}
		}
	}
}

func isApplicationFailure(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInsufficientStock)
}

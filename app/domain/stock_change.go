package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Queue names the inventory side consumes from. The creation queue carries
// absolute quantities to subtract, the delta queue carries signed adjustments.
const (
	CreationQueue   = "baixa-estoque-queue"
	DeltaQueue      = "atualizacao-estoque-queue"
	DeadLetterQueue = "estoque-dlq"
)

type MessageType string

const (
	MessageTypeCreation MessageType = "creation"
	MessageTypeDelta    MessageType = "delta"
)

// StockChange is the tagged union of the two stock change message variants.
// Consumers classify a message by its explicit type discriminator only.
type StockChange interface {
	Queue() string
	ID() string
	Order() int64

	stockChange()
}

type CreationItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

type DeltaItem struct {
	ProductID     int64 `json:"productId"`
	DeltaQuantity int64 `json:"deltaQuantity"`
}

type CreationMessage struct {
	Type      MessageType    `json:"type"`
	MessageID string         `json:"messageId"`
	OrderID   int64          `json:"orderId"`
	Items     []CreationItem `json:"items"`
}

func (m CreationMessage) Queue() string { return CreationQueue }
func (m CreationMessage) ID() string    { return m.MessageID }
func (m CreationMessage) Order() int64  { return m.OrderID }
func (m CreationMessage) stockChange()  {}

type DeltaMessage struct {
	Type      MessageType `json:"type"`
	MessageID string      `json:"messageId"`
	OrderID   int64       `json:"orderId"`
	Items     []DeltaItem `json:"items"`
}

func (m DeltaMessage) Queue() string { return DeltaQueue }
func (m DeltaMessage) ID() string    { return m.MessageID }
func (m DeltaMessage) Order() int64  { return m.OrderID }
func (m DeltaMessage) stockChange()  {}

// NewCreationMessage builds the creation variant from an order's item set.
// Returns an error for an empty item set: empty change sets are never published.
func NewCreationMessage(messageID string, orderID int64, items []OrderItem) (CreationMessage, error) {
	if len(items) == 0 {
		return CreationMessage{}, fmt.Errorf("%w: creation message without items", ErrInvalidRequest)
	}
	msgItems := make([]CreationItem, 0, len(items))
	for _, item := range items {
		msgItems = append(msgItems, CreationItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return CreationMessage{
		Type:      MessageTypeCreation,
		MessageID: messageID,
		OrderID:   orderID,
		Items:     msgItems,
	}, nil
}

// NewDeltaMessage builds the delta variant from a non-empty delta set.
func NewDeltaMessage(messageID string, orderID int64, deltas []ItemDelta) (DeltaMessage, error) {
	if len(deltas) == 0 {
		return DeltaMessage{}, fmt.Errorf("%w: delta message without items", ErrInvalidRequest)
	}
	msgItems := make([]DeltaItem, 0, len(deltas))
	for _, delta := range deltas {
		msgItems = append(msgItems, DeltaItem{ProductID: delta.ProductID, DeltaQuantity: delta.DeltaQuantity})
	}
	return DeltaMessage{
		Type:      MessageTypeDelta,
		MessageID: messageID,
		OrderID:   orderID,
		Items:     msgItems,
	}, nil
}

// DecodeStockChange classifies and decodes a serialized message. The type
// discriminator is the only classification input; a missing or unknown
// discriminator yields ErrUnknownMessage.
func DecodeStockChange(data []byte) (StockChange, error) {
	var envelope struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}

	switch envelope.Type {
	case MessageTypeCreation:
		var msg CreationMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
		}
		return msg, nil
	case MessageTypeDelta:
		var msg DeltaMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, envelope.Type)
	}
}

// DeadLetter records a message that could not be applied, for manual or
// automated retry.
type DeadLetter struct {
	Reason     string          `json:"reason"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type BrokerPublisher interface {
	PublishStockChange(ctx context.Context, msg StockChange) error
	PublishDeadLetter(ctx context.Context, dl DeadLetter) error
}

// ProcessedMessageRepository tracks applied message IDs with bounded
// retention so broker redelivery does not double-apply stock changes.
type ProcessedMessageRepository interface {
	AlreadyProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string, orderID int64) error
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

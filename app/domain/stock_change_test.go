package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStockChangeCreation(t *testing.T) {
	data := []byte(`{"type":"creation","messageId":"m-1","orderId":42,"items":[{"productId":7,"quantity":3}]}`)

	msg, err := DecodeStockChange(data)
	require.NoError(t, err)

	creation, ok := msg.(CreationMessage)
	require.True(t, ok)
	assert.Equal(t, "m-1", creation.ID())
	assert.Equal(t, int64(42), creation.Order())
	assert.Equal(t, CreationQueue, creation.Queue())
	require.Len(t, creation.Items, 1)
	assert.Equal(t, CreationItem{ProductID: 7, Quantity: 3}, creation.Items[0])
}

func TestDecodeStockChangeDelta(t *testing.T) {
	data := []byte(`{"type":"delta","messageId":"m-2","orderId":42,"items":[{"productId":7,"deltaQuantity":-3}]}`)

	msg, err := DecodeStockChange(data)
	require.NoError(t, err)

	delta, ok := msg.(DeltaMessage)
	require.True(t, ok)
	assert.Equal(t, DeltaQueue, delta.Queue())
	require.Len(t, delta.Items, 1)
	assert.Equal(t, DeltaItem{ProductID: 7, DeltaQuantity: -3}, delta.Items[0])
}

func TestDecodeStockChangeUnknownType(t *testing.T) {
	_, err := DecodeStockChange([]byte(`{"type":"refund","orderId":1}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestDecodeStockChangeMissingType(t *testing.T) {
	// The discriminator is the only classification input; a shape that looks
	// like a delta payload must still be rejected without it.
	_, err := DecodeStockChange([]byte(`{"orderId":1,"items":[{"productId":7,"deltaQuantity":2}]}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestDecodeStockChangeInvalidJSON(t *testing.T) {
	_, err := DecodeStockChange([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestNewCreationMessageRejectsEmptyItems(t *testing.T) {
	_, err := NewCreationMessage("m-1", 1, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestNewDeltaMessageRejectsEmptyItems(t *testing.T) {
	_, err := NewDeltaMessage("m-1", 1, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestStockChangeRoundTripKeepsVariant(t *testing.T) {
	msg, err := NewDeltaMessage("m-3", 9, []ItemDelta{{ProductID: 1, DeltaQuantity: 2}})
	require.NoError(t, err)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	decoded, err := DecodeStockChange(data)
	require.NoError(t, err)
	assert.IsType(t, DeltaMessage{}, decoded)
}

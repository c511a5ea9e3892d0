package usecase

import (
	"context"
	"errors"
	"testing"

	"inventory-order-service/app/domain"
	"inventory-order-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	orders map[int64]domain.Order
	nextID int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]domain.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.nextID++
	order.ID = r.nextID
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id int64) (domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) GetList(_ context.Context, userID int64) ([]domain.Order, error) {
	var orders []domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) ReplaceItems(_ context.Context, orderID int64, items []domain.OrderItem, totalValue float64) error {
	order, ok := r.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	order.Items = items
	order.TotalValue = totalValue
	r.orders[orderID] = order
	return nil
}

func (r *fakeOrderRepo) GetStats(_ context.Context) (domain.OrderStats, error) {
	var stats domain.OrderStats
	for _, order := range r.orders {
		stats.TotalOrders++
		stats.TotalValue += order.TotalValue
	}
	return stats, nil
}

type fakeProductReader struct {
	products map[int64]domain.ProductInfo
	err      error
	calls    []int64
}

func (r *fakeProductReader) GetProduct(_ context.Context, productID int64) (domain.ProductInfo, error) {
	r.calls = append(r.calls, productID)
	if r.err != nil {
		return domain.ProductInfo{}, r.err
	}
	product, ok := r.products[productID]
	if !ok {
		return domain.ProductInfo{}, domain.ErrNotFound
	}
	return product, nil
}

type fakePublisher struct {
	published   []domain.StockChange
	deadLetters []domain.DeadLetter
	failPublish bool
}

func (p *fakePublisher) PublishStockChange(_ context.Context, msg domain.StockChange) error {
	if p.failPublish {
		return domain.ErrPublishFailed
	}
	p.published = append(p.published, msg)
	return nil
}

func (p *fakePublisher) PublishDeadLetter(_ context.Context, dl domain.DeadLetter) error {
	p.deadLetters = append(p.deadLetters, dl)
	return nil
}

func newOrderFixture() (*fakeOrderRepo, *fakeProductReader, *fakePublisher, domain.OrderService) {
	repo := newFakeOrderRepo()
	reader := &fakeProductReader{products: map[int64]domain.ProductInfo{
		1: {ID: 1, Name: "keyboard", Price: 2.5, QuantityInStock: 10},
		2: {ID: 2, Name: "mouse", Price: 4, QuantityInStock: 1},
	}}
	publisher := &fakePublisher{}
	svc := NewOrderUsecase(repo, reader, publisher, &config.Config{})
	return repo, reader, publisher, svc
}

func TestOrderCreatePublishesCreationMessage(t *testing.T) {
	repo, _, publisher, svc := newOrderFixture()

	result, err := svc.Create(context.Background(), 77, domain.OrderCreateRequest{
		Items: []domain.OrderItemRequest{
			{ProductID: 1, Quantity: 3},
			{ProductID: 1, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Published)

	// duplicate lines for the same product are summed
	require.Len(t, result.Order.Items, 1)
	assert.Equal(t, domain.OrderItem{ProductID: 1, Quantity: 5, UnitPrice: 2.5}, result.Order.Items[0])
	assert.InDelta(t, 12.5, result.Order.TotalValue, 1e-9)
	assert.Equal(t, int64(77), result.Order.UserID)
	assert.Len(t, repo.orders, 1)

	require.Len(t, publisher.published, 1)
	msg, ok := publisher.published[0].(domain.CreationMessage)
	require.True(t, ok)
	assert.Equal(t, result.Order.ID, msg.OrderID)
	assert.NotEmpty(t, msg.MessageID)
	require.Len(t, msg.Items, 1)
	assert.Equal(t, domain.CreationItem{ProductID: 1, Quantity: 5}, msg.Items[0])
}

func TestOrderCreateRejectsInsufficientStock(t *testing.T) {
	repo, _, publisher, svc := newOrderFixture()

	_, err := svc.Create(context.Background(), 77, domain.OrderCreateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 2, Quantity: 2}},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// rejected before any persistence or publish
	assert.Empty(t, repo.orders)
	assert.Empty(t, publisher.published)
}

func TestOrderCreateRejectsWhenProductCannotBeValidated(t *testing.T) {
	repo, reader, publisher, svc := newOrderFixture()
	reader.err = errors.New("inventory unreachable")

	_, err := svc.Create(context.Background(), 77, domain.OrderCreateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, repo.orders)
	assert.Empty(t, publisher.published)
}

func TestOrderCreateDegradedSuccessOnPublishFailure(t *testing.T) {
	repo, _, publisher, svc := newOrderFixture()
	publisher.failPublish = true

	result, err := svc.Create(context.Background(), 77, domain.OrderCreateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 3}},
	})

	// the order stays persisted; only the outcome degrades
	require.NoError(t, err)
	assert.False(t, result.Published)
	assert.Len(t, repo.orders, 1)
}

func TestOrderUpdatePublishesDeltas(t *testing.T) {
	_, reader, publisher, svc := newOrderFixture()

	created, err := svc.Create(context.Background(), 77, domain.OrderCreateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)
	reader.calls = nil

	result, err := svc.Update(context.Background(), created.Order.ID, domain.OrderUpdateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.True(t, result.Published)

	// the growing product was re-validated
	assert.Equal(t, []int64{1}, reader.calls)

	require.Len(t, publisher.published, 2)
	msg, ok := publisher.published[1].(domain.DeltaMessage)
	require.True(t, ok)
	require.Len(t, msg.Items, 1)
	assert.Equal(t, domain.DeltaItem{ProductID: 1, DeltaQuantity: 2}, msg.Items[0])
}

func TestOrderUpdateShrinkingQuantitySkipsValidation(t *testing.T) {
	repo, reader, publisher, svc := newOrderFixture()

	created, err := svc.Create(context.Background(), 77, domain.OrderCreateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 5}},
	})
	require.NoError(t, err)

	// a reader failure must not matter for a negative delta
	reader.err = errors.New("inventory unreachable")
	reader.calls = nil

	_, err = svc.Update(context.Background(), created.Order.ID, domain.OrderUpdateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Empty(t, reader.calls)

	msg, ok := publisher.published[1].(domain.DeltaMessage)
	require.True(t, ok)
	assert.Equal(t, domain.DeltaItem{ProductID: 1, DeltaQuantity: -3}, msg.Items[0])

	// the credited item keeps its captured unit price
	stored := repo.orders[created.Order.ID]
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2.5, stored.Items[0].UnitPrice)
}

func TestOrderUpdateUnchangedItemsPublishNothing(t *testing.T) {
	_, _, publisher, svc := newOrderFixture()

	created, err := svc.Create(context.Background(), 77, domain.OrderCreateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)

	result, err := svc.Update(context.Background(), created.Order.ID, domain.OrderUpdateRequest{
		Items: []domain.OrderItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 1, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Published)

	// only the creation message, never an empty delta set
	assert.Len(t, publisher.published, 1)
}

func TestOrderUpdateRejectsInsufficientStockForGrowth(t *testing.T) {
	repo, _, publisher, svc := newOrderFixture()

	created, err := svc.Create(context.Background(), 77, domain.OrderCreateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.Order.ID, domain.OrderUpdateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// the stored order keeps its original item set
	stored := repo.orders[created.Order.ID]
	assert.Equal(t, int64(3), stored.Items[0].Quantity)
	assert.Len(t, publisher.published, 1)
}

func TestOrderUpdateDegradedSuccessOnPublishFailure(t *testing.T) {
	repo, _, publisher, svc := newOrderFixture()

	created, err := svc.Create(context.Background(), 77, domain.OrderCreateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)

	publisher.failPublish = true
	result, err := svc.Update(context.Background(), created.Order.ID, domain.OrderUpdateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.False(t, result.Published)

	// the replacement item set is already committed
	stored := repo.orders[created.Order.ID]
	assert.Equal(t, int64(5), stored.Items[0].Quantity)
}

func TestOrderUpdateUnknownOrder(t *testing.T) {
	_, _, _, svc := newOrderFixture()

	_, err := svc.Update(context.Background(), 404, domain.OrderUpdateRequest{
		Items: []domain.OrderItemRequest{{ProductID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

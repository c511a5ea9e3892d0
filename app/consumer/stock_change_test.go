package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"inventory-order-service/app/domain"
	"inventory-order-service/app/usecase"
	"inventory-order-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProductRepo struct {
	products map[int64]*domain.Product
}

func newMemProductRepo(products ...domain.Product) *memProductRepo {
	repo := &memProductRepo{products: make(map[int64]*domain.Product)}
	for i := range products {
		p := products[i]
		repo.products[p.ID] = &p
	}
	return repo
}

func (r *memProductRepo) Create(_ context.Context, product *domain.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *memProductRepo) GetByID(_ context.Context, id int64) (domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return *p, nil
}

func (r *memProductRepo) GetList(_ context.Context) ([]domain.Product, error) { return nil, nil }

func (r *memProductRepo) Update(_ context.Context, _ domain.Product) error { return nil }

func (r *memProductRepo) GetStats(_ context.Context) (domain.ProductStats, error) {
	return domain.ProductStats{}, nil
}

func (r *memProductRepo) SubtractStock(_ context.Context, id, qty int64) error {
	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.QuantityInStock < qty {
		return domain.ErrInsufficientStock
	}
	p.QuantityInStock -= qty
	return nil
}

func (r *memProductRepo) AdjustStock(_ context.Context, id, delta int64) (int64, error) {
	p, ok := r.products[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	p.QuantityInStock -= delta
	return p.QuantityInStock, nil
}

func (r *memProductRepo) stock(id int64) int64 {
	return r.products[id].QuantityInStock
}

type memProcessedRepo struct {
	ids       map[string]bool
	lookupErr error
	markErr   error
	markCalls int
}

func newMemProcessedRepo() *memProcessedRepo {
	return &memProcessedRepo{ids: make(map[string]bool)}
}

func (r *memProcessedRepo) AlreadyProcessed(_ context.Context, messageID string) (bool, error) {
	if r.lookupErr != nil {
		return false, r.lookupErr
	}
	return r.ids[messageID], nil
}

func (r *memProcessedRepo) MarkProcessed(_ context.Context, messageID string, _ int64) error {
	if r.markErr != nil {
		return r.markErr
	}
	r.markCalls++
	r.ids[messageID] = true
	return nil
}

func (r *memProcessedRepo) PurgeOlderThan(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

type memPublisher struct {
	deadLetters []domain.DeadLetter
}

func (p *memPublisher) PublishStockChange(_ context.Context, _ domain.StockChange) error {
	return nil
}

func (p *memPublisher) PublishDeadLetter(_ context.Context, dl domain.DeadLetter) error {
	p.deadLetters = append(p.deadLetters, dl)
	return nil
}

func newConsumerFixture(products ...domain.Product) (*memProductRepo, *memProcessedRepo, *memPublisher, *StockChangeConsumer) {
	repo := newMemProductRepo(products...)
	processed := newMemProcessedRepo()
	publisher := &memPublisher{}
	cfg := &config.Config{
		Nats:     config.NatsConfig{StreamName: "stock"},
		Consumer: config.ConsumerConfig{MaxDeliver: 3, AckWaitSeconds: 30, DedupRetentionHours: 72},
	}
	c := NewStockChangeConsumer(usecase.NewStockApplyUsecase(repo), processed, publisher, cfg)
	return repo, processed, publisher, c
}

func encode(t *testing.T, msg domain.StockChange) []byte {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return data
}

func TestHandleCreationMessageSubtractsStock(t *testing.T) {
	repo, processed, _, c := newConsumerFixture(domain.Product{ID: 1, QuantityInStock: 10})

	msg, err := domain.NewCreationMessage("m-1", 42, []domain.OrderItem{{ProductID: 1, Quantity: 3}})
	require.NoError(t, err)

	act := c.handle(context.Background(), domain.CreationQueue, encode(t, msg), 1)

	assert.Equal(t, ackMessage, act)
	assert.Equal(t, int64(7), repo.stock(1))
	assert.True(t, processed.ids["m-1"])
}

func TestHandleDeltaMessageIncreaseCommitsMore(t *testing.T) {
	repo, _, _, c := newConsumerFixture(domain.Product{ID: 1, QuantityInStock: 7})

	msg, err := domain.NewDeltaMessage("m-2", 42, []domain.ItemDelta{{ProductID: 1, DeltaQuantity: 2}})
	require.NoError(t, err)

	act := c.handle(context.Background(), domain.DeltaQueue, encode(t, msg), 1)

	assert.Equal(t, ackMessage, act)
	assert.Equal(t, int64(5), repo.stock(1))
}

func TestHandleDeltaMessageNegativeCreditsBack(t *testing.T) {
	repo, _, _, c := newConsumerFixture(domain.Product{ID: 1, QuantityInStock: 5})

	msg, err := domain.NewDeltaMessage("m-3", 42, []domain.ItemDelta{{ProductID: 1, DeltaQuantity: -3}})
	require.NoError(t, err)

	act := c.handle(context.Background(), domain.DeltaQueue, encode(t, msg), 1)

	assert.Equal(t, ackMessage, act)
	assert.Equal(t, int64(8), repo.stock(1))
}

func TestHandleMissingProductIsolatesItems(t *testing.T) {
	repo, processed, _, c := newConsumerFixture(domain.Product{ID: 2, QuantityInStock: 10})

	msg, err := domain.NewCreationMessage("m-4", 42, []domain.OrderItem{
		{ProductID: 99, Quantity: 1},
		{ProductID: 2, Quantity: 4},
	})
	require.NoError(t, err)

	act := c.handle(context.Background(), domain.CreationQueue, encode(t, msg), 1)

	// the missing product is an application failure, not a message failure
	assert.Equal(t, ackMessage, act)
	assert.Equal(t, int64(6), repo.stock(2))
	assert.True(t, processed.ids["m-4"])
}

func TestHandleInsufficientStockLeavesProductUntouched(t *testing.T) {
	repo, _, _, c := newConsumerFixture(domain.Product{ID: 1, QuantityInStock: 2})

	msg, err := domain.NewCreationMessage("m-5", 42, []domain.OrderItem{{ProductID: 1, Quantity: 5}})
	require.NoError(t, err)

	act := c.handle(context.Background(), domain.CreationQueue, encode(t, msg), 1)

	assert.Equal(t, ackMessage, act)
	assert.Equal(t, int64(2), repo.stock(1))
}

func TestHandleUnrecognizedMessageIsDiscarded(t *testing.T) {
	repo, processed, publisher, c := newConsumerFixture(domain.Product{ID: 1, QuantityInStock: 10})

	act := c.handle(context.Background(), domain.CreationQueue,
		[]byte(`{"orderId":1,"items":[{"productId":1,"quantity":5}]}`), 1)

	// acknowledged once, recorded, no store mutation
	assert.Equal(t, ackMessage, act)
	assert.Equal(t, int64(10), repo.stock(1))
	assert.Empty(t, processed.ids)
	require.Len(t, publisher.deadLetters, 1)
	assert.Equal(t, domain.CreationQueue, publisher.deadLetters[0].Queue)
}

func TestHandleRedeliveredDuplicateIsNotReapplied(t *testing.T) {
	repo, processed, _, c := newConsumerFixture(domain.Product{ID: 1, QuantityInStock: 10})

	msg, err := domain.NewCreationMessage("m-6", 42, []domain.OrderItem{{ProductID: 1, Quantity: 3}})
	require.NoError(t, err)
	data := encode(t, msg)

	assert.Equal(t, ackMessage, c.handle(context.Background(), domain.CreationQueue, data, 1))
	assert.Equal(t, ackMessage, c.handle(context.Background(), domain.CreationQueue, data, 2))

	assert.Equal(t, int64(7), repo.stock(1))
	assert.Equal(t, 1, processed.markCalls)
}

func TestHandleTransientFailureRetries(t *testing.T) {
	_, processed, publisher, c := newConsumerFixture(domain.Product{ID: 1, QuantityInStock: 10})
	processed.lookupErr = errors.New("db down")

	msg, err := domain.NewCreationMessage("m-7", 42, []domain.OrderItem{{ProductID: 1, Quantity: 3}})
	require.NoError(t, err)

	act := c.handle(context.Background(), domain.CreationQueue, encode(t, msg), 1)

	assert.Equal(t, retryMessage, act)
	assert.Empty(t, publisher.deadLetters)
}

func TestHandleExhaustedRetriesDeadLetter(t *testing.T) {
	_, processed, publisher, c := newConsumerFixture(domain.Product{ID: 1, QuantityInStock: 10})
	processed.lookupErr = errors.New("db down")

	msg, err := domain.NewCreationMessage("m-8", 42, []domain.OrderItem{{ProductID: 1, Quantity: 3}})
	require.NoError(t, err)

	act := c.handle(context.Background(), domain.CreationQueue, encode(t, msg), 3)

	assert.Equal(t, ackMessage, act)
	require.Len(t, publisher.deadLetters, 1)
}

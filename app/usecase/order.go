package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inventory-order-service/app/domain"
	"inventory-order-service/config"

	"github.com/gofrs/uuid/v5"
)

type orderUsecase struct {
	orderRepo     domain.OrderRepository
	productReader domain.ProductReader
	publisher     domain.BrokerPublisher
	cfg           *config.Config
}

func NewOrderUsecase(orderRepo domain.OrderRepository, productReader domain.ProductReader, publisher domain.BrokerPublisher, cfg *config.Config) domain.OrderService {
	return &orderUsecase{orderRepo, productReader, publisher, cfg}
}

// Create validates every requested quantity against the inventory read API,
// persists the order, then publishes the creation message. The availability
// check and the consumer-side decrement are not one transaction: another
// order can consume the same stock between them.
func (u *orderUsecase) Create(ctx context.Context, userID int64, req domain.OrderCreateRequest) (domain.OrderResult, error) {
	items := domain.SumByProduct(toOrderItems(req.Items))

	var totalValue float64
	for i, item := range items {
		product, err := u.productReader.GetProduct(ctx, item.ProductID)
		if err != nil {
			slog.ErrorContext(ctx, "[orderUsecase] Create", "getProduct", err)
			return domain.OrderResult{}, fmt.Errorf("%w: failed to validate product %d", domain.ErrValidation, item.ProductID)
		}
		if product.QuantityInStock < item.Quantity {
			return domain.OrderResult{}, fmt.Errorf("%w: product %d, requested %d, available %d",
				domain.ErrInsufficientStock, item.ProductID, item.Quantity, product.QuantityInStock)
		}

		items[i].UnitPrice = product.Price
		totalValue += product.Price * float64(item.Quantity)
	}

	order := &domain.Order{
		UserID:     userID,
		OrderDate:  time.Now().UTC(),
		TotalValue: totalValue,
		Items:      items,
	}
	if err := u.orderRepo.Create(ctx, order); err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] Create", "createOrder", err)
		return domain.OrderResult{}, err
	}

	msg, err := domain.NewCreationMessage(newMessageID(ctx), order.ID, order.Items)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] Create", "buildMessage", err)
		return domain.OrderResult{Order: *order}, nil
	}

	// The order is already persisted; a publish failure must not roll it
	// back, it only degrades the outcome.
	if err := u.publisher.PublishStockChange(ctx, msg); err != nil {
		slog.WarnContext(ctx, "[orderUsecase] Create", "publishStockChange", err)
		return domain.OrderResult{Order: *order}, nil
	}

	slog.InfoContext(ctx, "[orderUsecase] Create", "orderID", order.ID, "items", len(order.Items))
	return domain.OrderResult{Order: *order, Published: true}, nil
}

// Update replaces the order's item set wholesale, publishes the resulting
// deltas, and re-validates stock only for products whose committed quantity
// grows. Unchanged and shrinking quantities need no validation.
func (u *orderUsecase) Update(ctx context.Context, id int64, req domain.OrderUpdateRequest) (domain.OrderResult, error) {
	existing, err := u.orderRepo.GetByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] Update", "getOrder", err)
		return domain.OrderResult{}, err
	}

	newItems := domain.SumByProduct(toOrderItems(req.Items))
	deltas := domain.ComputeDeltas(existing.Items, newItems)

	prices := make(map[int64]float64, len(existing.Items))
	for _, item := range existing.Items {
		prices[item.ProductID] = item.UnitPrice
	}

	for _, delta := range deltas {
		if delta.DeltaQuantity <= 0 {
			continue
		}
		product, err := u.productReader.GetProduct(ctx, delta.ProductID)
		if err != nil {
			slog.ErrorContext(ctx, "[orderUsecase] Update", "getProduct", err)
			return domain.OrderResult{}, fmt.Errorf("%w: failed to validate product %d", domain.ErrValidation, delta.ProductID)
		}
		if product.QuantityInStock < delta.DeltaQuantity {
			return domain.OrderResult{}, fmt.Errorf("%w: product %d, requested %d more, available %d",
				domain.ErrInsufficientStock, delta.ProductID, delta.DeltaQuantity, product.QuantityInStock)
		}
		prices[delta.ProductID] = product.Price
	}

	var totalValue float64
	for i, item := range newItems {
		newItems[i].UnitPrice = prices[item.ProductID]
		totalValue += newItems[i].UnitPrice * float64(item.Quantity)
	}

	if err := u.orderRepo.ReplaceItems(ctx, id, newItems, totalValue); err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] Update", "replaceItems", err)
		return domain.OrderResult{}, err
	}

	updated := existing
	updated.Items = newItems
	updated.TotalValue = totalValue

	// Nothing changed quantity-wise, so no message is owed to the
	// inventory side.
	if len(deltas) == 0 {
		slog.InfoContext(ctx, "[orderUsecase] Update", "orderID", id, "deltas", 0)
		return domain.OrderResult{Order: updated, Published: true}, nil
	}

	msg, err := domain.NewDeltaMessage(newMessageID(ctx), id, deltas)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] Update", "buildMessage", err)
		return domain.OrderResult{Order: updated}, nil
	}

	if err := u.publisher.PublishStockChange(ctx, msg); err != nil {
		slog.WarnContext(ctx, "[orderUsecase] Update", "publishStockChange", err)
		return domain.OrderResult{Order: updated}, nil
	}

	slog.InfoContext(ctx, "[orderUsecase] Update", "orderID", id, "deltas", len(deltas))
	return domain.OrderResult{Order: updated, Published: true}, nil
}

func (u *orderUsecase) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] GetByID", "getOrder", err)
		return domain.Order{}, err
	}
	return order, nil
}

func (u *orderUsecase) GetList(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := u.orderRepo.GetList(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] GetList", "getOrders", err)
		return nil, err
	}
	return orders, nil
}

func (u *orderUsecase) GetStats(ctx context.Context) (domain.OrderStats, error) {
	stats, err := u.orderRepo.GetStats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] GetStats", "getStats", err)
		return domain.OrderStats{}, err
	}
	return stats, nil
}

func toOrderItems(reqItems []domain.OrderItemRequest) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(reqItems))
	for _, item := range reqItems {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return items
}

func newMessageID(ctx context.Context) string {
	uuidV4, err := uuid.NewV4()
	if err != nil {
		slog.WarnContext(ctx, "[orderUsecase] newMessageID", "error", err)
	}
	return uuidV4.String()
}

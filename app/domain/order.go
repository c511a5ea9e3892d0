package domain

import (
	"context"
	"time"
)

type Order struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id"`
	OrderDate  time.Time   `json:"order_date"`
	TotalValue float64     `json:"total_value"`
	Items      []OrderItem `json:"items"`
}

type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

type OrderCreateRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderUpdateRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderResult carries the degraded-success signal: Published is false when
// the order was persisted but its stock change message could not be queued.
type OrderResult struct {
	Order     Order `json:"order"`
	Published bool  `json:"published"`
}

type OrderStats struct {
	TotalOrders int64   `json:"total_orders"`
	TotalValue  float64 `json:"total_value"`
}

type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id int64) (Order, error)
	GetList(ctx context.Context, userID int64) ([]Order, error)
	ReplaceItems(ctx context.Context, orderID int64, items []OrderItem, totalValue float64) error
	GetStats(ctx context.Context) (OrderStats, error)
}

type OrderService interface {
	Create(ctx context.Context, userID int64, req OrderCreateRequest) (OrderResult, error)
	Update(ctx context.Context, id int64, req OrderUpdateRequest) (OrderResult, error)
	GetByID(ctx context.Context, id int64) (Order, error)
	GetList(ctx context.Context, userID int64) ([]Order, error)
	GetStats(ctx context.Context) (OrderStats, error)
}

package domain

import (
	"context"
	"time"
)

type Product struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Price           float64   `json:"price"`
	QuantityInStock int64     `json:"quantity_in_stock"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name            string  `json:"name" validate:"required"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	QuantityInStock int64   `json:"quantity_in_stock" validate:"gte=0"`
}

type ProductUpdateRequest struct {
	Name            string  `json:"name" validate:"required"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	QuantityInStock int64   `json:"quantity_in_stock" validate:"gte=0"`
}

type WriteDownRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

type ProductStats struct {
	TotalProducts      int64 `json:"total_products"`
	TotalStockQuantity int64 `json:"total_stock_quantity"`
}

type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id int64) (Product, error)
	GetList(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, product Product) error
	GetStats(ctx context.Context) (ProductStats, error)

	// SubtractStock decrements stock only when quantity_in_stock covers qty.
	// Returns ErrNotFound or ErrInsufficientStock otherwise.
	SubtractStock(ctx context.Context, id, qty int64) error

	// AdjustStock subtracts delta unconditionally and returns the resulting
	// stock quantity, which may be negative.
	AdjustStock(ctx context.Context, id, delta int64) (int64, error)
}

type ProductService interface {
	Create(ctx context.Context, req ProductCreateRequest) (*Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	GetList(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, id int64, req ProductUpdateRequest) (Product, error)
	WriteDown(ctx context.Context, id int64, req WriteDownRequest) error
	GetStats(ctx context.Context) (ProductStats, error)
}

// StockApplier reconciles a stock change item against the product store.
type StockApplier interface {
	ApplyAbsolute(ctx context.Context, productID, quantity int64) error
	ApplyDelta(ctx context.Context, productID, deltaQuantity int64) error
}

// ProductInfo is the order side's view of a product, read through the
// inventory service's synchronous API.
type ProductInfo struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	QuantityInStock int64   `json:"quantity_in_stock"`
}

type ProductReader interface {
	GetProduct(ctx context.Context, productID int64) (ProductInfo, error)
}

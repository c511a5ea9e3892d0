package usecase

import (
	"context"
	"log/slog"

	"inventory-order-service/app/domain"
	"inventory-order-service/config"
)

type productUsecase struct {
	productRepo domain.ProductRepository
	cfg         *config.Config
}

func NewProductUsecase(productRepo domain.ProductRepository, cfg *config.Config) domain.ProductService {
	return &productUsecase{productRepo, cfg}
}

func (u *productUsecase) Create(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	product := &domain.Product{
		Name:            req.Name,
		Price:           req.Price,
		QuantityInStock: req.QuantityInStock,
	}

	if err := u.productRepo.Create(ctx, product); err != nil {
		slog.ErrorContext(ctx, "[productUsecase] Create", "createProduct", err)
		return nil, err
	}

	slog.InfoContext(ctx, "[productUsecase] Create", "productID", product.ID)
	return product, nil
}

func (u *productUsecase) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	product, err := u.productRepo.GetByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "[productUsecase] GetByID", "getProduct", err)
		return domain.Product{}, err
	}
	return product, nil
}

func (u *productUsecase) GetList(ctx context.Context) ([]domain.Product, error) {
	products, err := u.productRepo.GetList(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[productUsecase] GetList", "getProducts", err)
		return nil, err
	}
	return products, nil
}

func (u *productUsecase) Update(ctx context.Context, id int64, req domain.ProductUpdateRequest) (domain.Product, error) {
	product := domain.Product{
		ID:              id,
		Name:            req.Name,
		Price:           req.Price,
		QuantityInStock: req.QuantityInStock,
	}

	if err := u.productRepo.Update(ctx, product); err != nil {
		slog.ErrorContext(ctx, "[productUsecase] Update", "updateProduct", err)
		return domain.Product{}, err
	}

	return u.productRepo.GetByID(ctx, id)
}

// WriteDown is the manual stock write-down: same conditional decrement the
// consumer uses for creation messages, surfaced as an API operation.
func (u *productUsecase) WriteDown(ctx context.Context, id int64, req domain.WriteDownRequest) error {
	if err := u.productRepo.SubtractStock(ctx, id, req.Quantity); err != nil {
		slog.ErrorContext(ctx, "[productUsecase] WriteDown", "subtractStock", err)
		return err
	}

	slog.InfoContext(ctx, "[productUsecase] WriteDown", "productID", id, "quantity", req.Quantity)
	return nil
}

func (u *productUsecase) GetStats(ctx context.Context) (domain.ProductStats, error) {
	stats, err := u.productRepo.GetStats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[productUsecase] GetStats", "getStats", err)
		return domain.ProductStats{}, err
	}
	return stats, nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"inventory-order-service/app/domain"
)

type stockApplyUsecase struct {
	productRepo domain.ProductRepository
}

func NewStockApplyUsecase(productRepo domain.ProductRepository) domain.StockApplier {
	return &stockApplyUsecase{productRepo}
}

// ApplyAbsolute subtracts an absolute quantity from the product's stock, but
// only when the stock covers it. A missing product or insufficient stock is
// recorded as a critical application failure and leaves the stock unchanged.
func (u *stockApplyUsecase) ApplyAbsolute(ctx context.Context, productID, quantity int64) error {
	err := u.productRepo.SubtractStock(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInsufficientStock) {
			slog.ErrorContext(ctx, "[stockApplyUsecase] ApplyAbsolute",
				"severity", "critical", "productID", productID, "quantity", quantity, "error", err)
			return err
		}
		slog.ErrorContext(ctx, "[stockApplyUsecase] ApplyAbsolute", "subtractStock", err)
		return err
	}

	slog.InfoContext(ctx, "[stockApplyUsecase] ApplyAbsolute", "productID", productID, "quantity", quantity)
	return nil
}

// ApplyDelta subtracts the signed delta unconditionally: a negative delta
// credits stock back. There is no floor at zero on this path; a negative
// result is kept and logged as an oversell anomaly so the divergence stays
// visible to operators.
func (u *stockApplyUsecase) ApplyDelta(ctx context.Context, productID, deltaQuantity int64) error {
	remaining, err := u.productRepo.AdjustStock(ctx, productID, deltaQuantity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.ErrorContext(ctx, "[stockApplyUsecase] ApplyDelta",
				"severity", "critical", "productID", productID, "delta", deltaQuantity, "error", err)
			return err
		}
		slog.ErrorContext(ctx, "[stockApplyUsecase] ApplyDelta", "adjustStock", err)
		return err
	}

	if remaining < 0 {
		slog.WarnContext(ctx, "[stockApplyUsecase] ApplyDelta",
			"oversellAnomaly", remaining, "productID", productID, "delta", deltaQuantity)
	}

	slog.InfoContext(ctx, "[stockApplyUsecase] ApplyDelta",
		"productID", productID, "delta", deltaQuantity, "remaining", remaining)
	return nil
}

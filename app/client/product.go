package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"inventory-order-service/app/domain"
	"inventory-order-service/config"
)

type productClient struct {
	baseURL            string
	internalAuthHeader string
	httpClient         *http.Client
}

// NewProductClient reads products through the inventory service's internal
// API. A failed read means "cannot validate": the caller must reject the
// order or edit.
func NewProductClient(cfg *config.Config) domain.ProductReader {
	return &productClient{
		baseURL:            cfg.InventoryApiUrl,
		internalAuthHeader: cfg.InternalAuthHeader,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *productClient) GetProduct(ctx context.Context, productID int64) (domain.ProductInfo, error) {
	url := fmt.Sprintf("%s/internal/inventory-service/products/%d", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.ErrorContext(ctx, "[productClient] GetProduct", "newRequest", err)
		return domain.ProductInfo{}, err
	}
	req.Header.Set("X-Internal-Auth", c.internalAuthHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "[productClient] GetProduct", "do", err)
		return domain.ProductInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ProductInfo{}, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "[productClient] GetProduct", "status", resp.StatusCode)
		return domain.ProductInfo{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Success bool               `json:"success"`
		Data    domain.ProductInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.ErrorContext(ctx, "[productClient] GetProduct", "decode", err)
		return domain.ProductInfo{}, err
	}

	return body.Data, nil
}

package handler

import (
	"log/slog"

	"inventory-order-service/app/domain"
	"inventory-order-service/app/handler/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	productUsecase domain.ProductService
	validator      *validator.Validate
}

func NewProductHandler(productUsecase domain.ProductService, validator *validator.Validate) *ProductHandler {
	return &ProductHandler{
		productUsecase: productUsecase,
		validator:      validator,
	}
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req domain.ProductCreateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Create", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Create", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	product, err := h.productUsecase.Create(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Create", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusCreated).JSON(response.Success(product))
}

func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetByID", "parseID", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	product, err := h.productUsecase.GetByID(c.Context(), id)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetByID", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(product))
}

func (h *ProductHandler) GetList(c *fiber.Ctx) error {
	products, err := h.productUsecase.GetList(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetList", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(products))
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Update", "parseID", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	var req domain.ProductUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Update", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Update", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	product, err := h.productUsecase.Update(c.Context(), id, req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Update", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(product))
}

func (h *ProductHandler) WriteDown(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] WriteDown", "parseID", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	var req domain.WriteDownRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] WriteDown", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] WriteDown", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	if err := h.productUsecase.WriteDown(c.Context(), id, req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] WriteDown", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(nil))
}

func (h *ProductHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.productUsecase.GetStats(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetStats", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(stats))
}

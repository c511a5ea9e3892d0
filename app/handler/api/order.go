package handler

import (
	"log/slog"
	"strconv"

	"inventory-order-service/app/domain"
	"inventory-order-service/app/handler/api/response"
	"inventory-order-service/pkg/ctxutil"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orderUsecase domain.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderUsecase domain.OrderService, validator *validator.Validate) *OrderHandler {
	return &OrderHandler{
		orderUsecase: orderUsecase,
		validator:    validator,
	}
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var req domain.OrderCreateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Create", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Create", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	userID, err := ctxutil.GetUserIDCtx(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Create", "getUserIDCtx", err)
		return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
	}

	result, err := h.orderUsecase.Create(c.Context(), userID, req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Create", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	if !result.Published {
		return c.Status(fiber.StatusMultiStatus).JSON(
			response.Degraded(result.Order, "order saved but stock change message was not queued"))
	}

	return c.Status(fiber.StatusCreated).JSON(response.Success(result.Order))
}

func (h *OrderHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Update", "parseID", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	var req domain.OrderUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Update", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Update", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	result, err := h.orderUsecase.Update(c.Context(), id, req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] Update", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	if !result.Published {
		return c.Status(fiber.StatusMultiStatus).JSON(
			response.Degraded(result.Order, "order updated but stock change message was not queued"))
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result.Order))
}

func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetByID", "parseID", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	order, err := h.orderUsecase.GetByID(c.Context(), id)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetByID", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(order))
}

func (h *OrderHandler) GetList(c *fiber.Ctx) error {
	userID, err := ctxutil.GetUserIDCtx(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetList", "getUserIDCtx", err)
		return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
	}

	orders, err := h.orderUsecase.GetList(c.Context(), userID)
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetList", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(orders))
}

func (h *OrderHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.orderUsecase.GetStats(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[orderHandler] GetStats", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(stats))
}

func parseID(c *fiber.Ctx, param string) (int64, error) {
	idStr := c.Params(param)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrBadRequest
	}
	return id, nil
}

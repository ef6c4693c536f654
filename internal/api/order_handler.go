package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pos-service/internal/model"
	"pos-service/internal/service"
)

// OrderHandler leaves field validation to the order service so every
// violation in a request is reported at once.
type OrderHandler struct {
	orders service.OrderService
}

func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// parseOrderFilter reads the optional served query parameter.
func parseOrderFilter(c *fiber.Ctx) (model.OrderFilter, error) {
	var filter model.OrderFilter
	if raw := c.Query("served"); raw != "" {
		served, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, err
		}
		filter.Served = &served
	}
	return filter, nil
}

func orderViews(orders []model.Order) []model.OrderView {
	views := make([]model.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, orders[i].View())
	}
	return views
}

// List returns every order, newest first, optionally filtered by the
// served flag.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	filter, err := parseOrderFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid served parameter"})
	}

	orders, err := h.orders.Filter(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(orderViews(orders))
}

func (h *OrderHandler) ListByTable(c *fiber.Ctx) error {
	tableID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid table ID format"})
	}

	filter, err := parseOrderFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid served parameter"})
	}

	orders, err := h.orders.ListByTable(c.Context(), tableID, filter)
	if err != nil {
		if errors.Is(err, service.ErrTableNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Table not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(orderViews(orders))
}

type CreateOrderRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	tableID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid table ID format"})
	}

	var request CreateOrderRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	order, err := h.orders.Create(c.Context(), service.CreateOrderDTO{
		Name:     request.Name,
		Price:    request.Price,
		Quantity: request.Quantity,
		TableID:  tableID,
	})
	if err != nil {
		if errors.Is(err, service.ErrTableNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Table not found"})
		}
		if handled, rerr := validationFailed(c, err); handled {
			return rerr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(order.View())
}

type UpdateOrderRequest struct {
	Name     *string  `json:"name,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
	Served   *bool    `json:"served,omitempty"`
}

func (h *OrderHandler) Update(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID format"})
	}

	var request UpdateOrderRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	order, err := h.orders.Update(c.Context(), orderID, service.UpdateOrderDTO{
		Name:     request.Name,
		Price:    request.Price,
		Quantity: request.Quantity,
		Served:   request.Served,
	})
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		if handled, rerr := validationFailed(c, err); handled {
			return rerr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(order.View())
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID format"})
	}

	if err := h.orders.Delete(c.Context(), orderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Order deleted"})
}

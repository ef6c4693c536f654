package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/internal/service"
)

type TableHandler struct {
	tables   repository.TableRepository
	users    service.UserService
	validate *validator.Validate
}

func NewTableHandler(tables repository.TableRepository, users service.UserService) *TableHandler {
	return &TableHandler{
		tables:   tables,
		users:    users,
		validate: validator.New(),
	}
}

type CreateTableRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Seats int    `json:"seats" validate:"omitempty,gte=1"`
}

func (h *TableHandler) Create(c *fiber.Ctx) error {
	var request CreateTableRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	seats := request.Seats
	if seats == 0 {
		seats = 4
	}

	table, err := h.tables.Create(c.Context(), &model.Table{Name: request.Name, Seats: seats})
	if err != nil {
		if repository.IsUniqueViolation(err, "") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Table name already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(table)
}

func (h *TableHandler) List(c *fiber.Ctx) error {
	tables, err := h.tables.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(tables)
}

// Serve assigns the current user as the server of the table.
func (h *TableHandler) Serve(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	tableID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid table ID format"})
	}

	if err := h.users.Serve(c.Context(), user, tableID); err != nil {
		if errors.Is(err, service.ErrTableNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Table not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Now serving table"})
}

// Clear removes the current user from serving the table. Clearing a
// table the user does not serve is a 404, not a no-op.
func (h *TableHandler) Clear(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	tableID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid table ID format"})
	}

	if err := h.users.Clear(c.Context(), user, tableID); err != nil {
		if errors.Is(err, service.ErrNotServing) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not serving this table"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Stopped serving table"})
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"pos-service/internal/model"
	"pos-service/internal/repository"
)

type CreateOrderDTO struct {
	Name     string
	Price    float64
	Quantity int
	TableID  uuid.UUID
}

// UpdateOrderDTO carries the fields of an order edit; nil fields keep
// their current value.
type UpdateOrderDTO struct {
	Name     *string
	Price    *float64
	Quantity *int
	Served   *bool
}

type OrderService interface {
	Create(ctx context.Context, dto CreateOrderDTO) (*model.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Filter(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	ListByTable(ctx context.Context, tableID uuid.UUID, filter model.OrderFilter) ([]model.Order, error)
	Update(ctx context.Context, id uuid.UUID, dto UpdateOrderDTO) (*model.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderService struct {
	orders repository.OrderRepository
	tables repository.TableRepository
}

func NewOrderService(orders repository.OrderRepository, tables repository.TableRepository) OrderService {
	return &orderService{orders: orders, tables: tables}
}

func (s *orderService) Create(ctx context.Context, dto CreateOrderDTO) (*model.Order, error) {
	order := &model.Order{
		Name:     dto.Name,
		Price:    dto.Price,
		Quantity: dto.Quantity,
		TableID:  dto.TableID,
	}

	if err := order.Validate().OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.tables.FindByID(ctx, order.TableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) Filter(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	return s.orders.Filter(ctx, filter)
}

func (s *orderService) ListByTable(ctx context.Context, tableID uuid.UUID, filter model.OrderFilter) ([]model.Order, error) {
	if _, err := s.tables.FindByID(ctx, tableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return s.orders.ListByTable(ctx, tableID, filter)
}

func (s *orderService) Update(ctx context.Context, id uuid.UUID, dto UpdateOrderDTO) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if dto.Name != nil {
		order.Name = *dto.Name
	}
	if dto.Price != nil {
		order.Price = *dto.Price
	}
	if dto.Quantity != nil {
		order.Quantity = *dto.Quantity
	}
	if dto.Served != nil {
		order.Served = *dto.Served
	}

	if err := order.Validate().OrNil(); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.orders.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	return err
}

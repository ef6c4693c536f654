package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pos-service/internal/model"
)

const orderColumns = `id, name, price, quantity, served, table_id, created_at, updated_at`

// Listings are always newest-first; id breaks ties when created_at
// values collide so the order stays stable.
const orderSort = ` ORDER BY created_at DESC, id DESC`

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Filter(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	ListByTable(ctx context.Context, tableID uuid.UUID, filter model.OrderFilter) ([]model.Order, error)
	Update(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresOrderRepository struct {
	db *sqlx.DB
}

func NewPostgresOrderRepository(db *sqlx.DB) OrderRepository {
	return &postgresOrderRepository{db: db}
}

func (r *postgresOrderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (name, price, quantity, served, table_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query, order.Name, order.Price, order.Quantity, order.Served, order.TableID)
	return row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (r *postgresOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *postgresOrderRepository) Filter(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`

	args := []interface{}{}
	if filter.Served != nil {
		query += fmt.Sprintf(" WHERE served = $%d", len(args)+1)
		args = append(args, *filter.Served)
	}
	query += orderSort

	orders := []model.Order{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresOrderRepository) ListByTable(ctx context.Context, tableID uuid.UUID, filter model.OrderFilter) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE table_id = $1`
	args := []interface{}{tableID}

	if filter.Served != nil {
		query += fmt.Sprintf(" AND served = $%d", len(args)+1)
		args = append(args, *filter.Served)
	}
	query += orderSort

	orders := []model.Order{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresOrderRepository) Update(ctx context.Context, order *model.Order) error {
	query := `
		UPDATE orders SET name = $1, price = $2, quantity = $3, served = $4, updated_at = now()
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query, order.Name, order.Price, order.Quantity, order.Served, order.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *postgresOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

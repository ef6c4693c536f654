package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CustomerRepository manages the server-table assignment rows.
type CustomerRepository interface {
	Create(ctx context.Context, serverID, tableID uuid.UUID) error
	Exists(ctx context.Context, serverID, tableID uuid.UUID) (bool, error)
	// Delete removes the assignment and returns sql.ErrNoRows when the
	// pair was not assigned, so callers can tell the two cases apart.
	Delete(ctx context.Context, serverID, tableID uuid.UUID) error
}

type postgresCustomerRepository struct {
	db *sqlx.DB
}

func NewPostgresCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &postgresCustomerRepository{db: db}
}

func (r *postgresCustomerRepository) Create(ctx context.Context, serverID, tableID uuid.UUID) error {
	query := `INSERT INTO customers (server_id, table_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, serverID, tableID)
	return err
}

func (r *postgresCustomerRepository) Exists(ctx context.Context, serverID, tableID uuid.UUID) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM customers WHERE server_id = $1 AND table_id = $2`
	if err := r.db.GetContext(ctx, &count, query, serverID, tableID); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postgresCustomerRepository) Delete(ctx context.Context, serverID, tableID uuid.UUID) error {
	query := `DELETE FROM customers WHERE server_id = $1 AND table_id = $2`
	res, err := r.db.ExecContext(ctx, query, serverID, tableID)
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

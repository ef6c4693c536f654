package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pos-service/internal/model"
)

type TableRepository interface {
	Create(ctx context.Context, table *model.Table) (*model.Table, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error)
	List(ctx context.Context) ([]model.Table, error)
	ListByServer(ctx context.Context, serverID uuid.UUID) ([]model.Table, error)
}

type postgresTableRepository struct {
	db *sqlx.DB
}

func NewPostgresTableRepository(db *sqlx.DB) TableRepository {
	return &postgresTableRepository{db: db}
}

func (r *postgresTableRepository) Create(ctx context.Context, table *model.Table) (*model.Table, error) {
	query := `INSERT INTO tables (name, seats) VALUES ($1, $2) RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, table.Name, table.Seats)
	if err := row.Scan(&table.ID, &table.CreatedAt); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *postgresTableRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	var table model.Table
	query := `SELECT id, name, seats, created_at FROM tables WHERE id = $1`
	if err := r.db.GetContext(ctx, &table, query, id); err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *postgresTableRepository) List(ctx context.Context) ([]model.Table, error) {
	tables := []model.Table{}
	query := `SELECT id, name, seats, created_at FROM tables ORDER BY name`
	if err := r.db.SelectContext(ctx, &tables, query); err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *postgresTableRepository) ListByServer(ctx context.Context, serverID uuid.UUID) ([]model.Table, error) {
	tables := []model.Table{}
	query := `
		SELECT t.id, t.name, t.seats, t.created_at
		FROM tables t
		JOIN customers c ON c.table_id = t.id
		WHERE c.server_id = $1
		ORDER BY t.name
	`
	if err := r.db.SelectContext(ctx, &tables, query, serverID); err != nil {
		return nil, err
	}
	return tables, nil
}

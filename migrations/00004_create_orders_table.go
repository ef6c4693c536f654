package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateOrdersTable, downCreateOrdersTable)
}

func upCreateOrdersTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE orders (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  name TEXT NOT NULL,
	  price NUMERIC(7,2) NOT NULL DEFAULT 0,
	  quantity INTEGER NOT NULL DEFAULT 0,
	  served BOOLEAN NOT NULL DEFAULT false,
	  table_id UUID NOT NULL REFERENCES tables(id),
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

	CREATE INDEX orders_table_created_idx ON orders (table_id, created_at);
	`

	_, err := tx.ExecContext(ctx, query)

	return err
}

func downCreateOrdersTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS orders;`)
	return err
}

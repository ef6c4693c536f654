package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateTablesTable, downCreateTablesTable)
}

func upCreateTablesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS tables (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			seats INTEGER NOT NULL DEFAULT 4,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
		);
	`)
	return err
}

func downCreateTablesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS tables;`)
	return err
}

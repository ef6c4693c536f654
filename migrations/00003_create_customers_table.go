package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateCustomersTable, downCreateCustomersTable)
}

// customers assigns a server (user) to a table they serve. Rows go away
// with either side.
func upCreateCustomersTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS customers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			server_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			table_id UUID NOT NULL REFERENCES tables(id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			CONSTRAINT customers_server_table_key UNIQUE (server_id, table_id)
		);
	`)
	return err
}

func downCreateCustomersTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS customers;`)
	return err
}

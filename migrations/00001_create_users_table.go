package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUsersTable, downCreateUsersTable)
}

func upCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE users (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  name TEXT NOT NULL,
	  email TEXT NOT NULL,
	  password_digest TEXT NOT NULL,
	  remember_digest TEXT,
	  activation_digest TEXT,
	  activated BOOLEAN NOT NULL DEFAULT false,
	  activated_at TIMESTAMP WITH TIME ZONE,
	  password_reset_digest TEXT,
	  password_reset_sent_at TIMESTAMP WITH TIME ZONE,
	  authentication_token TEXT NOT NULL,
	  picture_key TEXT,
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
	  CONSTRAINT users_authentication_token_key UNIQUE (authentication_token)
	);

	CREATE UNIQUE INDEX users_email_lower_idx ON users (lower(email));
	`

	_, err := tx.ExecContext(ctx, query)

	return err
}

func downCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS users;`)
	return err
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type Table struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Seats     int       `db:"seats" json:"seats"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Customer is the join row assigning a server (user) to a table they
// serve. Rows are removed when either side is deleted.
type Customer struct {
	ID        uuid.UUID `db:"id"`
	ServerID  uuid.UUID `db:"server_id"`
	TableID   uuid.UUID `db:"table_id"`
	CreatedAt time.Time `db:"created_at"`
}

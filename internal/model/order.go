package model

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Price     float64   `db:"price"`
	Quantity  int       `db:"quantity"`
	Served    bool      `db:"served"`
	TableID   uuid.UUID `db:"table_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// OrderView is the external representation of an order. TableID and the
// timestamps are internal bookkeeping and stay out of API responses.
type OrderView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	Served   bool      `json:"served"`
}

func (o *Order) View() OrderView {
	return OrderView{
		ID:       o.ID,
		Name:     o.Name,
		Price:    o.Price,
		Quantity: o.Quantity,
		Served:   o.Served,
	}
}

// OrderFilter narrows an order listing. A nil Served returns every
// order; a set Served keeps only orders whose flag matches.
type OrderFilter struct {
	Served *bool
}

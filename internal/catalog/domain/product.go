package domain

import "time"

type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Stock        int       `json:"stock"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	ImageURL     string    `json:"image_url"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StockOperation selects how UpdateStock changes the stored count.
type StockOperation string

const (
	StockAdd    StockOperation = "add"
	StockRemove StockOperation = "remove"
	StockSet    StockOperation = "set"
)

func (op StockOperation) Valid() bool {
	switch op {
	case StockAdd, StockRemove, StockSet:
		return true
	}
	return false
}

// StockReport is the result of a stock availability check. Available is a
// point-in-time read, not a reservation.
type StockReport struct {
	ProductID    int64 `json:"product_id"`
	CurrentStock int   `json:"current_stock"`
	Requested    int   `json:"requested_quantity"`
	Available    bool  `json:"available"`
}

// ProductFilter narrows ListProducts results. Zero values mean "no constraint";
// all set filters apply conjunctively.
type ProductFilter struct {
	CategoryID  int64
	MaxPrice    float64
	InStockOnly bool
	Search      string
}

package checkout

import (
	"context"
	"time"
)

// Payment methods accepted at the kiosk.
const (
	PayCredit = "credit"
	PayDebit  = "debit"
	PayPix    = "pix"
	PayCash   = "cash"
)

type Item struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Qty       int   `json:"qty" validate:"gt=0"`
}

// Line is an item priced against the catalog at checkout time.
type Line struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
}

type Order struct {
	ID            string    `json:"id"`
	CustomerName  string    `json:"customerName,omitempty"`
	Items         []Line    `json:"items"`
	Total         float64   `json:"total"`
	PaymentMethod string    `json:"paymentMethod"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Store interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, bool, error)
	List(ctx context.Context) ([]Order, error)
}

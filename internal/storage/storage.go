package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Storage defines the interface for archiving closed orders
type Storage interface {
	// Order operations
	SaveOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, limit int) ([]*Order, error)
	ListOrdersBySession(ctx context.Context, sessionID string) ([]*Order, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	SaveOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
}

// Order is an archived order together with the conversation that produced it
type Order struct {
	ID        string
	SessionID string
	Total     decimal.Decimal
	Completed bool
	Lines     []OrderLine
	Turns     []Turn // Not loaded by list operations
	CreatedAt time.Time
}

// OrderLine is one archived order line
type OrderLine struct {
	Seq      int
	Item     string
	Quantity int
	Price    decimal.Decimal
}

// Turn is one archived transcript entry
type Turn struct {
	Seq     int
	Role    string
	Content string
}

// Status contains archive statistics
type Status struct {
	OrdersCount   int
	LinesCount    int
	Revenue       decimal.Decimal
	LastOrderAt   time.Time
	SchemaVersion string
	BuildMode     string
}

package closures

import (
	"context"
	"time"
)

type Kind string

const (
	KindProduction Kind = "production"
	KindLogistics  Kind = "logistics"
	KindBoth       Kind = "both"
)

// Closure records that a batch finished production and delivery for one start date.
type Closure struct {
	ID             int64
	BatchID        string
	StartDate      string
	Kind           Kind
	TotalQuantity  int64
	DeliveryTarget string
	CreatedAt      time.Time
}

// Store holds at most one closure per (batch, start date).
type Store interface {
	Exists(ctx context.Context, batchID, startDate string) (bool, error)
	// Insert returns false when the pair is already closed.
	Insert(ctx context.Context, c Closure) (bool, error)
	// List orders by batch, start date, creation time.
	List(ctx context.Context) ([]Closure, error)
	Clear(ctx context.Context) (int, error)
}

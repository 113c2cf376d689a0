// Package repository declares the persistence contracts shared by the MongoDB
// store and the in-memory store used in tests.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmerp/internal/domain/models"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleVersion is returned when a versioned replace lost a race.
	ErrStaleVersion = errors.New("record was modified concurrently")
)

// maxAttempts bounds optimistic retries of a transaction.
const maxAttempts = 5

// Filter matches documents whose fields equal the given values. A nil value
// matches a missing or null field; a Range value matches an inclusive time window.
type Filter map[string]any

// Range is an inclusive time window; either bound may be omitted.
type Range struct {
	From *time.Time
	To   *time.Time
}

// Collection is a typed document collection.
type Collection[T any] interface {
	Insert(ctx context.Context, doc *T) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*T, error)
	FindOne(ctx context.Context, filter Filter) (*T, error)
	Find(ctx context.Context, filter Filter, page models.Page) ([]T, int64, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// Replace overwrites the stored document with doc. Versioned documents are
	// only written when the stored version equals doc's; the version is then bumped.
	Replace(ctx context.Context, doc *T) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Reports runs the read-side rollups behind the dashboards.
type Reports interface {
	AssignmentStatusCounts(ctx context.Context) (map[models.CropStatus]int64, error)
	AssignmentRows(ctx context.Context, page models.Page) ([]models.AssignmentRow, int64, error)
	YieldByCrop(ctx context.Context) ([]models.CropYield, error)
	AgroStockValue(ctx context.Context) (decimal.Decimal, error)
	LowStock(ctx context.Context) ([]models.LowStockRow, error)
	InventoryValuation(ctx context.Context, owner models.Owner) ([]models.ValuationRow, error)
	AccountTotals(ctx context.Context, accounts []primitive.ObjectID) (map[primitive.ObjectID]Totals, error)
}

// Totals are the summed sides of an account's ledger entries.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Transactor runs a function atomically. Calls nested in a running transaction
// join it instead of starting a new one.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	InTransaction(ctx context.Context) bool
}

// Store groups every collection of the ERP.
type Store interface {
	Transactor

	Items() Collection[models.Item]
	Suppliers() Collection[models.Supplier]
	Inventories() Collection[models.Inventory]
	AgroInventories() Collection[models.AgroInventory]
	Movements() Collection[models.StockMovement]
	Crops() Collection[models.Crop]
	Varieties() Collection[models.CropVariety]
	Farmers() Collection[models.Farmer]
	Lands() Collection[models.Land]
	CropSows() Collection[models.CropSow]
	Cattle() Collection[models.Cattle]
	ExitEvents() Collection[models.ExitEvent]
	FeedUsages() Collection[models.FeedUsage]
	Accounts() Collection[models.Account]
	LedgerEntries() Collection[models.LedgerEntry]
	Reports() Reports
}

// Atomically runs fn in a transaction and retries it while optimistic version
// checks fail. Inside a running transaction fn is run once and any stale-version
// error is left for the outermost caller to retry.
func Atomically(ctx context.Context, tx Transactor, fn func(ctx context.Context) error) error {
	if tx.InTransaction(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = tx.WithTransaction(ctx, fn)
		if !errors.Is(err, ErrStaleVersion) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

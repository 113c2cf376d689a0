// Package memory is an in-process implementation of repository.Store. Documents
// are kept as BSON encoded with the same registry as the MongoDB store, so
// field names, decimals and indexes behave the same way in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

type txKey struct{}

// Store is a transactional in-memory document store. Transactions are
// serialized and roll back to a snapshot when their function fails.
type Store struct {
	mu   sync.Mutex
	reg  *bsoncodec.Registry
	data map[string]map[primitive.ObjectID]bson.Raw
	now  func() time.Time

	items           *collection[models.Item]
	suppliers       *collection[models.Supplier]
	inventories     *collection[models.Inventory]
	agroInventories *collection[models.AgroInventory]
	movements       *collection[models.StockMovement]
	crops           *collection[models.Crop]
	varieties       *collection[models.CropVariety]
	farmers         *collection[models.Farmer]
	lands           *collection[models.Land]
	cropSows        *collection[models.CropSow]
	cattle          *collection[models.Cattle]
	exitEvents      *collection[models.ExitEvent]
	feedUsages      *collection[models.FeedUsage]
	accounts        *collection[models.Account]
	ledgerEntries   *collection[models.LedgerEntry]
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{
		reg:  repository.NewRegistry(),
		data: make(map[string]map[primitive.ObjectID]bson.Raw),
		now:  func() time.Time { return time.Now().UTC() },
	}
	s.items = newCollection[models.Item](s, repository.CollItems)
	s.suppliers = newCollection[models.Supplier](s, repository.CollSuppliers)
	s.inventories = newCollection[models.Inventory](s, repository.CollInventories)
	s.agroInventories = newCollection[models.AgroInventory](s, repository.CollAgroInventories)
	s.movements = newCollection[models.StockMovement](s, repository.CollMovements)
	s.crops = newCollection[models.Crop](s, repository.CollCrops)
	s.varieties = newCollection[models.CropVariety](s, repository.CollVarieties)
	s.farmers = newCollection[models.Farmer](s, repository.CollFarmers)
	s.lands = newCollection[models.Land](s, repository.CollLands)
	s.cropSows = newCollection[models.CropSow](s, repository.CollCropSows)
	s.cattle = newCollection[models.Cattle](s, repository.CollCattle)
	s.exitEvents = newCollection[models.ExitEvent](s, repository.CollExitEvents)
	s.feedUsages = newCollection[models.FeedUsage](s, repository.CollFeedUsages)
	s.accounts = newCollection[models.Account](s, repository.CollAccounts)
	s.ledgerEntries = newCollection[models.LedgerEntry](s, repository.CollLedgerEntries)
	return s
}

func (s *Store) Items() repository.Collection[models.Item]                    { return s.items }
func (s *Store) Suppliers() repository.Collection[models.Supplier]            { return s.suppliers }
func (s *Store) Inventories() repository.Collection[models.Inventory]         { return s.inventories }
func (s *Store) AgroInventories() repository.Collection[models.AgroInventory] { return s.agroInventories }
func (s *Store) Movements() repository.Collection[models.StockMovement]       { return s.movements }
func (s *Store) Crops() repository.Collection[models.Crop]                    { return s.crops }
func (s *Store) Varieties() repository.Collection[models.CropVariety]         { return s.varieties }
func (s *Store) Farmers() repository.Collection[models.Farmer]                { return s.farmers }
func (s *Store) Lands() repository.Collection[models.Land]                    { return s.lands }
func (s *Store) CropSows() repository.Collection[models.CropSow]              { return s.cropSows }
func (s *Store) Cattle() repository.Collection[models.Cattle]                 { return s.cattle }
func (s *Store) ExitEvents() repository.Collection[models.ExitEvent]          { return s.exitEvents }
func (s *Store) FeedUsages() repository.Collection[models.FeedUsage]          { return s.feedUsages }
func (s *Store) Accounts() repository.Collection[models.Account]              { return s.accounts }
func (s *Store) LedgerEntries() repository.Collection[models.LedgerEntry]     { return s.ledgerEntries }
func (s *Store) Reports() repository.Reports                                  { return &reports{s: s} }

// SetClock replaces the clock used to stamp documents.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// InTransaction reports whether ctx belongs to a running transaction.
func (s *Store) InTransaction(ctx context.Context) bool {
	in, _ := ctx.Value(txKey{}).(bool)
	return in
}

// WithTransaction runs fn while holding the store lock. Every change fn makes is
// discarded when it returns an error.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.InTransaction(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// lock takes the store lock unless ctx already holds it through a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if s.InTransaction(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) snapshot() map[string]map[primitive.ObjectID]bson.Raw {
	out := make(map[string]map[primitive.ObjectID]bson.Raw, len(s.data))
	for name, docs := range s.data {
		cp := make(map[primitive.ObjectID]bson.Raw, len(docs))
		for id, raw := range docs {
			cp[id] = raw
		}
		out[name] = cp
	}
	return out
}

func (s *Store) docs(name string) map[primitive.ObjectID]bson.Raw {
	docs, ok := s.data[name]
	if !ok {
		docs = make(map[primitive.ObjectID]bson.Raw)
		s.data[name] = docs
	}
	return docs
}

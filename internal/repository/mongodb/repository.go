package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

// Store implements repository.Store on MongoDB. Multi-document transactions
// need a replica set or a sharded cluster.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger

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

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri string, dbName string, log *zap.Logger) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri).SetRegistry(repository.NewRegistry())
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db, log: log}
	s.items = newCollection[models.Item](db, repository.CollItems)
	s.suppliers = newCollection[models.Supplier](db, repository.CollSuppliers)
	s.inventories = newCollection[models.Inventory](db, repository.CollInventories)
	s.agroInventories = newCollection[models.AgroInventory](db, repository.CollAgroInventories)
	s.movements = newCollection[models.StockMovement](db, repository.CollMovements)
	s.crops = newCollection[models.Crop](db, repository.CollCrops)
	s.varieties = newCollection[models.CropVariety](db, repository.CollVarieties)
	s.farmers = newCollection[models.Farmer](db, repository.CollFarmers)
	s.lands = newCollection[models.Land](db, repository.CollLands)
	s.cropSows = newCollection[models.CropSow](db, repository.CollCropSows)
	s.cattle = newCollection[models.Cattle](db, repository.CollCattle)
	s.exitEvents = newCollection[models.ExitEvent](db, repository.CollExitEvents)
	s.feedUsages = newCollection[models.FeedUsage](db, repository.CollFeedUsages)
	s.accounts = newCollection[models.Account](db, repository.CollAccounts)
	s.ledgerEntries = newCollection[models.LedgerEntry](db, repository.CollLedgerEntries)
	return s, nil
}

// EnsureIndexes creates the indexes the store relies on. Existing indexes are left alone.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, idx := range repository.Indexes {
		keys := bson.D{}
		for _, f := range idx.Fields {
			keys = append(keys, bson.E{Key: f, Value: 1})
		}
		opts := options.Index().SetName(idx.Name)
		if idx.Unique {
			opts.SetUnique(true)
		}
		if len(idx.Where) > 0 {
			opts.SetPartialFilterExpression(toBSON(idx.Where))
		}

		model := mongo.IndexModel{Keys: keys, Options: opts}
		if _, err := s.db.Collection(idx.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index %s on %s: %w", idx.Name, idx.Collection, err)
		}
		s.log.Debug("Index ensured", zap.String("collection", idx.Collection), zap.String("index", idx.Name))
	}
	return nil
}

// WithTransaction runs fn inside a session transaction. A call made with a
// context that already carries a session joins the running transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.InTransaction(ctx) {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// InTransaction reports whether ctx carries a session.
func (s *Store) InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// Ping checks the connection; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
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
func (s *Store) Reports() repository.Reports                                  { return &reports{db: s.db} }

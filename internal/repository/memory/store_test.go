package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

func TestInsertAndFindRoundTripsDecimals(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	inv := &models.Inventory{
		Item:        primitive.NewObjectID(),
		Owner:       models.OwnerAgriculture,
		Quantity:    decimal.RequireFromString("150"),
		AverageCost: decimal.RequireFromString("12.3456"),
		TotalCost:   decimal.RequireFromString("1851.84"),
	}
	if err := s.Inventories().Insert(ctx, inv); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inv.ID.IsZero() || inv.CreatedAt.IsZero() {
		t.Fatalf("Insert did not stamp the document: %+v", inv.Base)
	}

	got, err := s.Inventories().FindOne(ctx, repository.Filter{"item": inv.Item, "owner": models.OwnerAgriculture})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if !got.AverageCost.Equal(inv.AverageCost) || !got.TotalCost.Equal(inv.TotalCost) {
		t.Errorf("decimals changed: got %s/%s", got.AverageCost, got.TotalCost)
	}
}

func TestUniqueIndexRejectsDuplicates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &models.Supplier{Name: "Agro Sahel"}
	first.Normalize()
	if err := s.Suppliers().Insert(ctx, first); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	dup := &models.Supplier{Name: "agro  SAHEL"}
	dup.Normalize()
	if err := s.Suppliers().Insert(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPartialUniqueIndexOnlyCoversActiveAssignments(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	land := primitive.NewObjectID()

	harvested := &models.CropSow{Land: land, CropStatus: models.StatusHarvested, Active: false}
	if err := s.CropSows().Insert(ctx, harvested); err != nil {
		t.Fatalf("Insert harvested: %v", err)
	}
	active := &models.CropSow{Land: land, CropStatus: models.StatusSown, Active: true}
	if err := s.CropSows().Insert(ctx, active); err != nil {
		t.Fatalf("Insert active: %v", err)
	}
	second := &models.CropSow{Land: land, CropStatus: models.StatusGrowing, Active: true}
	if err := s.CropSows().Insert(ctx, second); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a second active assignment, got %v", err)
	}
}

func TestReplaceChecksVersion(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	inv := &models.Inventory{Item: primitive.NewObjectID(), Owner: models.OwnerManager}
	if err := s.Inventories().Insert(ctx, inv); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	a, _ := s.Inventories().FindByID(ctx, inv.ID)
	b, _ := s.Inventories().FindByID(ctx, inv.ID)

	a.Quantity = decimal.NewFromInt(5)
	if err := s.Inventories().Replace(ctx, a); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if a.Version != 1 {
		t.Errorf("version = %d, want 1", a.Version)
	}

	b.Quantity = decimal.NewFromInt(7)
	if err := s.Inventories().Replace(ctx, b); !errors.Is(err, repository.ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}

	got, _ := s.Inventories().FindByID(ctx, inv.ID)
	if !got.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("quantity = %s, want 5", got.Quantity)
	}
}

func TestTimestampsSurviveRoundTrip(t *testing.T) {
	s := NewStore()
	s.SetClock(func() time.Time { return time.Date(2026, time.March, 6, 4, 24, 32, 700393701, time.UTC) })
	ctx := context.Background()

	farmer := &models.Farmer{Name: "Aissatou Barry", Phone: "622000001"}
	if err := s.Farmers().Insert(ctx, farmer); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := s.Farmers().FindByID(ctx, farmer.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !got.CreatedAt.Equal(farmer.CreatedAt) || !got.UpdatedAt.Equal(farmer.UpdatedAt) {
		t.Errorf("timestamps changed on read: inserted %v/%v, read %v/%v",
			farmer.CreatedAt, farmer.UpdatedAt, got.CreatedAt, got.UpdatedAt)
	}

	got.Address = "Kindia"
	if err := s.Farmers().Replace(ctx, got); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	again, _ := s.Farmers().FindByID(ctx, farmer.ID)
	if !again.UpdatedAt.Equal(got.UpdatedAt) {
		t.Errorf("UpdatedAt = %v after read, %v after replace", again.UpdatedAt, got.UpdatedAt)
	}
	if again.UpdatedAt.Nanosecond() != 700000000 {
		t.Errorf("UpdatedAt not truncated to milliseconds: %v", again.UpdatedAt)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Farmers().Insert(ctx, &models.Farmer{Name: "Awa", Phone: "770000000"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	n, err := s.Farmers().Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d after rollback, want 0", n)
	}
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		if !s.InTransaction(ctx) {
			t.Fatal("expected to be in a transaction")
		}
		return s.WithTransaction(ctx, func(ctx context.Context) error {
			return s.Lands().Insert(ctx, &models.Land{Name: "North field", NameKey: "north field"})
		})
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
	if n, _ := s.Lands().Count(ctx, nil); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestFindFiltersAndPaginates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	cattle := primitive.NewObjectID()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		u := &models.FeedUsage{Cattle: cattle, Product: primitive.NewObjectID(), Date: base.AddDate(0, 0, i)}
		if err := s.FeedUsages().Insert(ctx, u); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	other := &models.FeedUsage{Cattle: primitive.NewObjectID(), Date: base}
	if err := s.FeedUsages().Insert(ctx, other); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	from, to := base.AddDate(0, 0, 1), base.AddDate(0, 0, 3)
	filter := repository.Filter{"cattleId": cattle, "date": repository.Range{From: &from, To: &to}}

	got, total, err := s.FeedUsages().Find(ctx, filter, models.Page{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].Date.Equal(base.AddDate(0, 0, 3)) {
		t.Errorf("first result date = %s, want newest first", got[0].Date)
	}
}

func TestNilFilterMatchesMissingField(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	root := &models.Account{Name: "Agriculture Inventory", Type: models.AccountAsset}
	root.Normalize()
	if err := s.Accounts().Insert(ctx, root); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	child := &models.Account{Name: "Maize", Type: models.AccountAsset, Parent: &root.ID}
	child.Normalize()
	if err := s.Accounts().Insert(ctx, child); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	var noParent *primitive.ObjectID
	got, err := s.Accounts().FindOne(ctx, repository.Filter{"nameKey": "maize", "parent": noParent})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no root account named maize, got %+v, %v", got, err)
	}
	if _, err := s.Accounts().FindOne(ctx, repository.Filter{"nameKey": "maize", "parent": root.ID}); err != nil {
		t.Fatalf("FindOne child: %v", err)
	}
}

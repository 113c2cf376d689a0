package inventory

import (
	"context"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/testutil"
)

func TestAddStockBlendsAverageCost(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()
	seed := testutil.Item(t, store, "Maize seed", models.CategorySeed, nil)

	if _, err := svc.AddStock(ctx, AddRequest{Item: seed.ID, Owner: models.OwnerAgriculture, Quantity: testutil.Dec("100"), ValuePerUnit: testutil.Dec("10")}); err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	inv, err := svc.AddStock(ctx, AddRequest{Item: seed.ID, Owner: models.OwnerAgriculture, Quantity: testutil.Dec("50"), ValuePerUnit: testutil.Dec("16")})
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}

	if !inv.Quantity.Equal(testutil.Dec("150")) || !inv.TotalCost.Equal(testutil.Dec("1800")) || !inv.AverageCost.Equal(testutil.Dec("12")) {
		t.Errorf("got qty=%s total=%s avg=%s, want 150/1800/12", inv.Quantity, inv.TotalCost, inv.AverageCost)
	}

	mvs, total, err := svc.Movements(ctx, MovementFilter{Item: &seed.ID}, models.Page{All: true})
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	if total != 2 || mvs[0].Direction != models.DirectionIn || !mvs[0].QuantityAfter.Equal(testutil.Dec("150")) {
		t.Errorf("unexpected movements: total=%d first=%+v", total, mvs[0])
	}
}

func TestRemoveStockRejectsMoreThanAvailable(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()
	feed := testutil.Item(t, store, "Cattle feed", models.CategoryFeed, nil)
	stock := testutil.Stock(t, store, feed.ID, models.OwnerCattle, "20", "5")

	_, err := svc.RemoveStock(ctx, RemoveRequest{Item: feed.ID, Owner: models.OwnerCattle, Quantity: testutil.Dec("30"), Reason: models.RemovalUsage})
	if models.KindOf(err) != models.KindValidation {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if err.Error() != "Insufficient stock. Available: 20" {
		t.Errorf("message = %q", err.Error())
	}

	got, _ := store.Inventories().FindByID(ctx, stock.ID)
	if !got.Quantity.Equal(testutil.Dec("20")) || !got.TotalCost.Equal(testutil.Dec("100")) {
		t.Errorf("stock changed after rejected removal: %s/%s", got.Quantity, got.TotalCost)
	}
	if n, _ := store.Movements().Count(ctx, nil); n != 0 {
		t.Errorf("movements = %d, want 0", n)
	}
}

func TestRemoveStockWithoutRecordReportsZeroAvailable(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, nil)
	item := testutil.Item(t, store, "Urea", models.CategoryFertilizer, nil)

	_, err := svc.RemoveStock(context.Background(), RemoveRequest{Item: item.ID, Owner: models.OwnerManager, Quantity: testutil.Dec("1"), Reason: models.RemovalWastage})
	if err == nil || err.Error() != "Insufficient stock. Available: 0" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemoveStockKeepsAverageAndSnapsEmptyTotal(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()
	item := testutil.Item(t, store, "Maize seed", models.CategorySeed, nil)
	testutil.Stock(t, store, item.ID, models.OwnerManager, "3", "3.3333")

	inv, err := svc.RemoveStock(ctx, RemoveRequest{Item: item.ID, Owner: models.OwnerManager, Quantity: testutil.Dec("1"), Reason: models.RemovalUsage})
	if err != nil {
		t.Fatalf("RemoveStock: %v", err)
	}
	if !inv.AverageCost.Equal(testutil.Dec("3.3333")) {
		t.Errorf("average changed to %s", inv.AverageCost)
	}

	inv, err = svc.RemoveStock(ctx, RemoveRequest{Item: item.ID, Owner: models.OwnerManager, Quantity: testutil.Dec("2"), Reason: models.RemovalUsage})
	if err != nil {
		t.Fatalf("RemoveStock: %v", err)
	}
	if !inv.Quantity.IsZero() || !inv.TotalCost.IsZero() {
		t.Errorf("emptied stock kept value: %s/%s", inv.Quantity, inv.TotalCost)
	}
}

func TestRemoveStockSaleNeedsAmount(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()
	item := testutil.Item(t, store, "Maize seed", models.CategorySeed, nil)
	testutil.Stock(t, store, item.ID, models.OwnerManager, "10", "2")

	_, err := svc.RemoveStock(ctx, RemoveRequest{Item: item.ID, Owner: models.OwnerManager, Quantity: testutil.Dec("1"), Reason: models.RemovalSale})
	if models.KindOf(err) != models.KindValidation {
		t.Fatalf("expected a validation error, got %v", err)
	}

	amount := testutil.Dec("9")
	if _, err := svc.RemoveStock(ctx, RemoveRequest{Item: item.ID, Owner: models.OwnerManager, Quantity: testutil.Dec("1"), Reason: models.RemovalSale, SaleAmount: &amount}); err != nil {
		t.Fatalf("RemoveStock: %v", err)
	}
	mv, err := store.Movements().FindOne(ctx, repository.Filter{"reason": string(models.RemovalSale)})
	if err != nil {
		t.Fatalf("FindOne movement: %v", err)
	}
	if mv.SaleAmount == nil || !mv.SaleAmount.Equal(amount) {
		t.Errorf("sale amount not recorded: %+v", mv.SaleAmount)
	}
}

func TestAddStockValidatesInput(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, nil)
	item := testutil.Item(t, store, "Maize seed", models.CategorySeed, nil)

	tests := []struct {
		name string
		req  AddRequest
		kind models.ErrorKind
	}{
		{"zero quantity", AddRequest{Item: item.ID, Owner: models.OwnerManager, ValuePerUnit: testutil.Dec("1")}, models.KindValidation},
		{"negative value", AddRequest{Item: item.ID, Owner: models.OwnerManager, Quantity: testutil.Dec("1"), ValuePerUnit: testutil.Dec("-1")}, models.KindValidation},
		{"bad owner", AddRequest{Item: item.ID, Owner: "shop", Quantity: testutil.Dec("1")}, models.KindValidation},
		{"unknown item", AddRequest{Item: primitive.NewObjectID(), Owner: models.OwnerManager, Quantity: testutil.Dec("1")}, models.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddStock(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := models.KindOf(err); got != tt.kind {
				t.Errorf("kind = %v, want %v (%v)", got, tt.kind, err)
			}
		})
	}
}

func TestExportValuationWritesRows(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, nil)
	item := testutil.Item(t, store, "Cattle feed", models.CategoryFeed, nil)
	testutil.Stock(t, store, item.ID, models.OwnerCattle, "40", "2.5")

	f, filename, err := svc.ExportValuation(context.Background(), models.OwnerCattle)
	if err != nil {
		t.Fatalf("ExportValuation: %v", err)
	}
	defer f.Close()

	if !strings.HasPrefix(filename, "inventory_valuation_cattle_") {
		t.Errorf("filename = %q", filename)
	}
	rows, err := f.GetRows(valuationSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) < 2 || rows[1][0] != "Cattle feed" || rows[1][6] != "100" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

package dashboard

import (
	"context"
	"testing"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/testutil"
)

func TestAgricultureDashboard(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	maize := testutil.Crop(t, store, "Maize")
	variety := testutil.Variety(t, store, maize.ID, "Obatanpa")
	farmer := testutil.Farmer(t, store, "Mamadou Diallo", "622000001")
	landA := testutil.Land(t, store, "Parcel A")
	landB := testutil.Land(t, store, "Parcel B")

	yield := testutil.Dec("400")
	sows := []*models.CropSow{
		{Crop: maize.ID, Variety: variety.ID, Farmer: farmer.ID, Land: landA.ID, CropStatus: models.StatusGrowing, Active: true, Quantity: testutil.Dec("20"), IncurredCosts: testutil.Dec("200")},
		{Crop: maize.ID, Variety: variety.ID, Farmer: farmer.ID, Land: landB.ID, CropStatus: models.StatusHarvested, Quantity: testutil.Dec("10"), IncurredCosts: testutil.Dec("100"), ActualYieldQuantity: &yield},
	}
	for _, sow := range sows {
		if err := store.CropSows().Insert(ctx, sow); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	agro := &models.AgroInventory{Crop: maize.ID, Variety: variety.ID, Quantity: testutil.Dec("400"), AverageCost: testutil.Dec("0.25"), TotalCost: testutil.Dec("100")}
	if err := store.AgroInventories().Insert(ctx, agro); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	seed := testutil.Item(t, store, "Maize seed", models.CategorySeed, nil)
	testutil.Stock(t, store, seed.ID, models.OwnerAgriculture, "5", "10")
	feed := testutil.Item(t, store, "Cattle feed", models.CategoryFeed, nil)
	testutil.Stock(t, store, feed.ID, models.OwnerCattle, "0", "0")

	summary, rows, total, err := svc.Agriculture(ctx, models.Page{Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("Agriculture: %v", err)
	}
	if summary.Farmers != 1 || summary.Lands != 2 || summary.Crops != 1 || summary.ActiveAssignments != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if summary.ByStatus[models.StatusGrowing] != 1 || summary.ByStatus[models.StatusHarvested] != 1 || summary.ByStatus[models.StatusSown] != 0 {
		t.Errorf("unexpected status counts: %v", summary.ByStatus)
	}
	if !summary.AgroStockValue.Equal(testutil.Dec("100")) {
		t.Errorf("agro stock value = %s, want 100", summary.AgroStockValue)
	}
	// Empty stock is not low stock.
	if summary.LowStockItems != 1 {
		t.Errorf("low stock items = %d, want 1", summary.LowStockItems)
	}

	if total != 2 || len(rows) != 1 {
		t.Fatalf("rows: total=%d len=%d, want 2 and 1", total, len(rows))
	}
	if rows[0].CropName != "Maize" || rows[0].VarietyName != "Obatanpa" || rows[0].FarmerName != "Mamadou Diallo" || rows[0].LandName != "Parcel B" {
		t.Errorf("unexpected joined row: %+v", rows[0])
	}
}

func TestYieldByCrop(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, nil, nil)
	ctx := context.Background()
	maize := testutil.Crop(t, store, "Maize")

	for i, qty := range []string{"400", "250"} {
		yield := testutil.Dec(qty)
		sow := &models.CropSow{Crop: maize.ID, Land: testutil.Land(t, store, []string{"A", "B"}[i]).ID, CropStatus: models.StatusHarvested, IncurredCosts: testutil.Dec("100"), ActualYieldQuantity: &yield}
		if err := store.CropSows().Insert(ctx, sow); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	rows, err := svc.Yield(ctx)
	if err != nil {
		t.Fatalf("Yield: %v", err)
	}
	if len(rows) != 1 || rows[0].Harvests != 2 || !rows[0].YieldQuantity.Equal(testutil.Dec("650")) || !rows[0].IncurredCosts.Equal(testutil.Dec("200")) {
		t.Errorf("unexpected yield rows: %+v", rows)
	}
}

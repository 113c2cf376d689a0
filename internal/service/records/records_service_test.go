package records

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/testutil"
)

func TestFarmerCRUD(t *testing.T) {
	store := testutil.NewStore(t)
	regs := NewRegisters(store, nil)
	ctx := context.Background()

	farmer, err := regs.Farmers.Create(ctx, &models.Farmer{Name: " Aissatou Barry ", Phone: "622 00 00 01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if farmer.Name != "Aissatou Barry" || farmer.Phone != "622000001" {
		t.Errorf("farmer not normalized: %+v", farmer)
	}

	_, err = regs.Farmers.Create(ctx, &models.Farmer{Name: "Someone Else", Phone: "622000001"})
	if models.KindOf(err) != models.KindConflict {
		t.Fatalf("expected a conflict on duplicate phone, got %v", err)
	}

	updated, err := regs.Farmers.Update(ctx, farmer.ID, &models.Farmer{Name: "Aissatou Barry", Phone: "622000002", Address: "Kindia"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != farmer.ID || !updated.CreatedAt.Equal(farmer.CreatedAt) || updated.Address != "Kindia" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	list, total, err := regs.Farmers.List(ctx, nil, models.Page{Page: 1, Limit: 10})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("List: total=%d len=%d err=%v", total, len(list), err)
	}

	if err := regs.Farmers.Delete(ctx, farmer.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := regs.Farmers.Get(ctx, farmer.ID); models.KindOf(err) != models.KindNotFound {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if _, err := regs.Farmers.Update(ctx, primitive.NewObjectID(), &models.Farmer{Name: "X", Phone: "1"}); models.KindOf(err) != models.KindNotFound {
		t.Errorf("expected not found on unknown id, got %v", err)
	}
}

func TestVarietyNeedsCropAndIsUniquePerCrop(t *testing.T) {
	store := testutil.NewStore(t)
	regs := NewRegisters(store, nil)
	ctx := context.Background()
	maize := testutil.Crop(t, store, "Maize")
	rice := testutil.Crop(t, store, "Rice")

	if _, err := regs.Varieties.Create(ctx, &models.CropVariety{Crop: primitive.NewObjectID(), Name: "Obatanpa"}); models.KindOf(err) != models.KindNotFound {
		t.Fatalf("expected not found for unknown crop, got %v", err)
	}
	if _, err := regs.Varieties.Create(ctx, &models.CropVariety{Crop: maize.ID, Name: "Local"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := regs.Varieties.Create(ctx, &models.CropVariety{Crop: maize.ID, Name: "LOCAL"}); models.KindOf(err) != models.KindConflict {
		t.Errorf("expected a conflict for the same crop, got %v", err)
	}
	if _, err := regs.Varieties.Create(ctx, &models.CropVariety{Crop: rice.ID, Name: "Local"}); err != nil {
		t.Errorf("same name under another crop should be allowed: %v", err)
	}
}

func TestItemValidation(t *testing.T) {
	store := testutil.NewStore(t)
	regs := NewRegisters(store, nil)
	ctx := context.Background()
	revenue := testutil.Account(t, store, "Sales", models.AccountIncome)

	tests := []struct {
		name string
		item models.Item
		kind models.ErrorKind
	}{
		{"missing required attribute", models.Item{Name: "Seed A", Category: models.CategorySeed, Unit: "kg"}, models.KindValidation},
		{"foreign attribute", models.Item{Name: "Seed B", Category: models.CategorySeed, Unit: "kg", Attributes: map[string]string{"cropType": "maize", "dosage": "1"}}, models.KindValidation},
		{"unknown category", models.Item{Name: "Thing", Category: "toys", Unit: "pcs"}, models.KindValidation},
		{"unknown supplier", models.Item{Name: "Tractor", Category: models.CategoryEquipment, Unit: "pcs", Supplier: ptr(primitive.NewObjectID())}, models.KindNotFound},
		{"non-asset account", models.Item{Name: "Plough", Category: models.CategoryEquipment, Unit: "pcs", InventoryAccount: &revenue.ID}, models.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			_, err := regs.Items.Create(ctx, &item)
			if got := models.KindOf(err); got != tt.kind {
				t.Errorf("kind = %v, want %v (%v)", got, tt.kind, err)
			}
		})
	}

	item, err := regs.Items.Create(ctx, &models.Item{Name: "Urea 46", Category: models.CategoryFertilizer, Unit: "kg", Attributes: map[string]string{"npkRatio": "46-0-0"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	testutil.Stock(t, store, item.ID, models.OwnerAgriculture, "5", "1")
	if err := regs.Items.Delete(ctx, item.ID); models.KindOf(err) != models.KindValidation {
		t.Errorf("expected deleting a stocked item to fail, got %v", err)
	}
}

func TestExitEventMarksCattleExited(t *testing.T) {
	store := testutil.NewStore(t)
	regs := NewRegisters(store, nil)
	ctx := context.Background()
	cow := testutil.Cattle(t, store, "GN-001")

	event, err := regs.ExitEvents.Create(ctx, &models.ExitEvent{Cattle: cow.ID, ExitType: models.ExitSale, Amount: testutil.Dec("4500000")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if event.Date.IsZero() {
		t.Error("exit date was not defaulted")
	}
	got, _ := regs.Cattle.Get(ctx, cow.ID)
	if got.Status != models.CattleExited {
		t.Fatalf("status = %s, want exited", got.Status)
	}

	// Editing the animal does not bring it back.
	if _, err := regs.Cattle.Update(ctx, cow.ID, &models.Cattle{TagNumber: "GN-001", Breed: "Zebu"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = regs.Cattle.Get(ctx, cow.ID)
	if got.Status != models.CattleExited || got.Breed != "Zebu" {
		t.Errorf("cattle after update: %+v", got)
	}

	if _, err := regs.ExitEvents.Create(ctx, &models.ExitEvent{Cattle: cow.ID, ExitType: models.ExitDeath}); models.KindOf(err) != models.KindValidation {
		t.Errorf("expected a second exit to fail, got %v", err)
	}

	if err := regs.ExitEvents.Delete(ctx, event.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = regs.Cattle.Get(ctx, cow.ID)
	if got.Status != models.CattleActive {
		t.Errorf("status = %s after removing the exit, want active", got.Status)
	}
}

func TestExitEventRejectsUnknownType(t *testing.T) {
	store := testutil.NewStore(t)
	regs := NewRegisters(store, nil)
	ctx := context.Background()
	cow := testutil.Cattle(t, store, "GN-001")

	if _, err := regs.ExitEvents.Create(ctx, &models.ExitEvent{Cattle: cow.ID, ExitType: "stolen"}); models.KindOf(err) != models.KindValidation {
		t.Fatalf("expected a validation error, got %v", err)
	}
	got, _ := regs.Cattle.Get(ctx, cow.ID)
	if got.Status != models.CattleActive {
		t.Errorf("status = %s, want active", got.Status)
	}
	if n, _ := store.ExitEvents().Count(ctx, nil); n != 0 {
		t.Errorf("exit events = %d, want 0", n)
	}
}

func TestLandDeleteBlockedByActiveAssignment(t *testing.T) {
	store := testutil.NewStore(t)
	regs := NewRegisters(store, nil)
	ctx := context.Background()
	land := testutil.Land(t, store, "Parcel A")

	sow := &models.CropSow{Land: land.ID, Active: true, CropStatus: models.StatusSown}
	if err := store.CropSows().Insert(ctx, sow); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := regs.Lands.Delete(ctx, land.ID); models.KindOf(err) != models.KindValidation {
		t.Fatalf("expected deleting occupied land to fail, got %v", err)
	}

	sow.Active = false
	sow.CropStatus = models.StatusHarvested
	if err := store.CropSows().Replace(ctx, sow); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := regs.Lands.Delete(ctx, land.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

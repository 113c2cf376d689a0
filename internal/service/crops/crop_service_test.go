package crops

import (
	"context"
	"testing"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/service/ledger"
	"github.com/mamadbah2/farmerp/internal/testutil"
)

func TestCreateProvisionsAccounts(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, ledger.NewService(store, nil), nil)
	ctx := context.Background()

	maize, err := svc.Create(ctx, &models.Crop{Name: "Maize"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rice, err := svc.Create(ctx, &models.Crop{Name: "Rice"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	parents, _, err := store.Accounts().Find(ctx, repository.Filter{"parent": nil}, models.Page{All: true})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(parents) != 2 {
		t.Fatalf("parent accounts = %d, want 2 (created once, reused)", len(parents))
	}

	for _, crop := range []*models.Crop{maize, rice} {
		if crop.InventoryAccount == nil || crop.RevenueAccount == nil {
			t.Fatalf("%s has no accounts", crop.Name)
		}
		inv, _ := store.Accounts().FindByID(ctx, *crop.InventoryAccount)
		rev, _ := store.Accounts().FindByID(ctx, *crop.RevenueAccount)
		if inv.Name != crop.Name || inv.Type != models.AccountAsset || inv.Parent == nil {
			t.Errorf("inventory account of %s: %+v", crop.Name, inv)
		}
		if rev.Name != crop.Name || rev.Type != models.AccountIncome || rev.Parent == nil {
			t.Errorf("revenue account of %s: %+v", crop.Name, rev)
		}
	}
	if n, _ := store.Accounts().Count(ctx, nil); n != 6 {
		t.Errorf("accounts = %d, want 6", n)
	}
}

func TestCreateRejectsDuplicateBeforeProvisioning(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, ledger.NewService(store, nil), nil)
	ctx := context.Background()
	testutil.Crop(t, store, "Maize")

	_, err := svc.Create(ctx, &models.Crop{Name: "  MAIZE "})
	if models.KindOf(err) != models.KindConflict {
		t.Fatalf("expected a conflict, got %v", err)
	}
	if n, _ := store.Accounts().Count(ctx, nil); n != 0 {
		t.Errorf("accounts = %d after rejected crop, want 0", n)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store, ledger.NewService(store, nil), nil)
	ctx := context.Background()

	maize, err := svc.Create(ctx, &models.Crop{Name: "Maize"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	testutil.Crop(t, store, "Rice")

	if _, err := svc.Update(ctx, maize.ID, &models.Crop{Name: "rice"}); models.KindOf(err) != models.KindConflict {
		t.Errorf("expected renaming onto another crop to conflict, got %v", err)
	}
	updated, err := svc.Update(ctx, maize.ID, &models.Crop{Name: "Maize", Category: "cereal"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Category != "cereal" || updated.InventoryAccount == nil {
		t.Errorf("unexpected crop after update: %+v", updated)
	}

	variety := testutil.Variety(t, store, maize.ID, "Obatanpa")
	if err := svc.Delete(ctx, maize.ID); models.KindOf(err) != models.KindValidation {
		t.Fatalf("expected deleting a referenced crop to fail, got %v", err)
	}
	if err := store.Varieties().Delete(ctx, variety.ID); err != nil {
		t.Fatalf("Delete variety: %v", err)
	}
	if err := svc.Delete(ctx, maize.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

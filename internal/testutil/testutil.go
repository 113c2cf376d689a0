// Package testutil seeds an in-memory store for service and handler tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository/memory"
)

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewStore returns an empty in-memory store.
func NewStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.NewStore()
}

func insert[T any](t *testing.T, doc *T, fn func(context.Context, *T) error) *T {
	t.Helper()
	if n, ok := any(doc).(models.Normalizer); ok {
		n.Normalize()
	}
	if err := fn(context.Background(), doc); err != nil {
		t.Fatalf("Failed to seed %T: %v", doc, err)
	}
	return doc
}

// Item seeds an item of the given category with its required attributes.
func Item(t *testing.T, s *memory.Store, name string, category models.ItemCategory, account *primitive.ObjectID) *models.Item {
	t.Helper()
	attrs := map[string]string{}
	for _, k := range models.ItemSchemas[category].Required {
		attrs[k] = "test"
	}
	item := &models.Item{
		Name:              name,
		Category:          category,
		Unit:              "kg",
		LowStockThreshold: Dec("10"),
		InventoryAccount:  account,
		Attributes:        attrs,
	}
	return insert(t, item, s.Items().Insert)
}

// Stock seeds a stock record.
func Stock(t *testing.T, s *memory.Store, item primitive.ObjectID, owner models.Owner, qty, avg string) *models.Inventory {
	t.Helper()
	inv := &models.Inventory{
		Item:        item,
		Owner:       owner,
		Quantity:    Dec(qty),
		AverageCost: Dec(avg),
		TotalCost:   Dec(qty).Mul(Dec(avg)),
	}
	return insert(t, inv, s.Inventories().Insert)
}

// Account seeds a chart-of-accounts entry.
func Account(t *testing.T, s *memory.Store, name string, typ models.AccountType) *models.Account {
	t.Helper()
	return insert(t, &models.Account{Name: name, Type: typ}, s.Accounts().Insert)
}

// Crop seeds a crop without provisioning its accounts.
func Crop(t *testing.T, s *memory.Store, name string) *models.Crop {
	t.Helper()
	return insert(t, &models.Crop{Name: name}, s.Crops().Insert)
}

// Variety seeds a variety of crop.
func Variety(t *testing.T, s *memory.Store, crop primitive.ObjectID, name string) *models.CropVariety {
	t.Helper()
	return insert(t, &models.CropVariety{Crop: crop, Name: name}, s.Varieties().Insert)
}

// Farmer seeds a farmer.
func Farmer(t *testing.T, s *memory.Store, name, phone string) *models.Farmer {
	t.Helper()
	return insert(t, &models.Farmer{Name: name, Phone: phone}, s.Farmers().Insert)
}

// Land seeds a land parcel.
func Land(t *testing.T, s *memory.Store, name string) *models.Land {
	t.Helper()
	return insert(t, &models.Land{Name: name, Area: Dec("2.5"), AreaUnit: "ha"}, s.Lands().Insert)
}

// Cattle seeds an active animal.
func Cattle(t *testing.T, s *memory.Store, tag string) *models.Cattle {
	t.Helper()
	return insert(t, &models.Cattle{TagNumber: tag, Breed: "N'Dama"}, s.Cattle().Insert)
}

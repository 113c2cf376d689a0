package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NameKey is the case-insensitive form used for uniqueness checks.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Crop is a cultivated crop. Its ledger accounts are provisioned on creation.
type Crop struct {
	Base             `bson:",inline"`
	Name             string              `bson:"name" json:"name" binding:"required"`
	NameKey          string              `bson:"nameKey" json:"-"`
	Category         string              `bson:"category,omitempty" json:"category,omitempty"`
	Description      string              `bson:"description,omitempty" json:"description,omitempty"`
	InventoryAccount *primitive.ObjectID `bson:"inventoryAccount,omitempty" json:"inventoryAccount,omitempty"`
	RevenueAccount   *primitive.ObjectID `bson:"revenueAccount,omitempty" json:"revenueAccount,omitempty"`
}

func (c *Crop) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.NameKey = NameKey(c.Name)
}

// CropVariety is a named variety of a crop.
type CropVariety struct {
	Base         `bson:",inline"`
	Crop         primitive.ObjectID `bson:"crop" json:"crop" binding:"required"`
	Name         string             `bson:"name" json:"name" binding:"required"`
	NameKey      string             `bson:"nameKey" json:"-"`
	MaturityDays int                `bson:"maturityDays,omitempty" json:"maturityDays,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
}

func (v *CropVariety) Normalize() {
	v.Name = strings.TrimSpace(v.Name)
	v.NameKey = NameKey(v.Name)
}

func (v *CropVariety) Validate() error {
	if v.MaturityDays < 0 {
		return Validationf("maturityDays must not be negative")
	}
	return nil
}

// CropStatus is the lifecycle state of a crop assignment.
type CropStatus string

const (
	StatusSown      CropStatus = "Sown"
	StatusGrowing   CropStatus = "Growing"
	StatusHarvested CropStatus = "Harvested"
)

var statusRank = map[CropStatus]int{
	StatusSown:      0,
	StatusGrowing:   1,
	StatusHarvested: 2,
}

// Valid reports whether s is a known status.
func (s CropStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanBecome reports whether the lifecycle allows moving from s to next.
// Moves only go forward and Harvested is terminal.
func (s CropStatus) CanBecome(next CropStatus) bool {
	if !s.Valid() || !next.Valid() || s == StatusHarvested {
		return false
	}
	return statusRank[next] >= statusRank[s]
}

// CropSow binds a farmer, a land parcel and a seed lot to a growing crop and
// accumulates its cost until harvest.
type CropSow struct {
	Base                `bson:",inline"`
	Revision            `bson:",inline"`
	Crop                primitive.ObjectID  `bson:"crop" json:"crop"`
	Variety             primitive.ObjectID  `bson:"variety" json:"variety"`
	Farmer              primitive.ObjectID  `bson:"farmer" json:"farmer"`
	Land                primitive.ObjectID  `bson:"land" json:"land"`
	Seed                primitive.ObjectID  `bson:"seed" json:"seed"`
	Quantity            decimal.Decimal     `bson:"quantity" json:"quantity"`
	SeedSowingDate      time.Time           `bson:"seedSowingDate" json:"seedSowingDate"`
	ExpectedHarvestDate time.Time           `bson:"expectedHarvestDate" json:"expectedHarvestDate"`
	CropStatus          CropStatus          `bson:"cropStatus" json:"cropStatus"`
	Active              bool                `bson:"active" json:"active"`
	IncurredCosts       decimal.Decimal     `bson:"incurredCosts" json:"incurredCosts"`
	ActualYieldQuantity *decimal.Decimal    `bson:"actualYieldQuantity,omitempty" json:"actualYieldQuantity,omitempty"`
	ActualYieldUnit     string              `bson:"actualYieldUnit,omitempty" json:"actualYieldUnit,omitempty"`
	FairValuePerUnit    *decimal.Decimal    `bson:"fairValuePerUnit,omitempty" json:"fairValuePerUnit,omitempty"`
	HarvestedAt         *time.Time          `bson:"harvestedAt,omitempty" json:"harvestedAt,omitempty"`
	AgroInventory       *primitive.ObjectID `bson:"agroInventory,omitempty" json:"agroInventory,omitempty"`
	Notes               string              `bson:"notes,omitempty" json:"notes,omitempty"`
}

// SeedUnitCost is the per-unit seed cost captured at sowing.
func (c *CropSow) SeedUnitCost() decimal.Decimal {
	if c.Quantity.IsZero() {
		return decimal.Zero
	}
	return c.IncurredCosts.Div(c.Quantity)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmerp/internal/domain/costing"
)

// Owner is the department holding a stock record.
type Owner string

const (
	OwnerManager     Owner = "manager"
	OwnerAgriculture Owner = "agriculture"
	OwnerCattle      Owner = "cattle"
)

// Valid reports whether o is a known owner.
func (o Owner) Valid() bool {
	switch o {
	case OwnerManager, OwnerAgriculture, OwnerCattle:
		return true
	}
	return false
}

// RemovalReason explains why stock left a record.
type RemovalReason string

const (
	RemovalUsage    RemovalReason = "usage"
	RemovalSale     RemovalReason = "sale"
	RemovalWastage  RemovalReason = "wastage"
	RemovalTransfer RemovalReason = "transfer"
)

// Valid reports whether r is a known reason.
func (r RemovalReason) Valid() bool {
	switch r {
	case RemovalUsage, RemovalSale, RemovalWastage, RemovalTransfer:
		return true
	}
	return false
}

// Inventory is the stock an owner holds of one item.
type Inventory struct {
	Base        `bson:",inline"`
	Revision    `bson:",inline"`
	Item        primitive.ObjectID `bson:"item" json:"item"`
	Owner       Owner              `bson:"owner" json:"owner"`
	Quantity    decimal.Decimal    `bson:"quantity" json:"quantity"`
	AverageCost decimal.Decimal    `bson:"averageCost" json:"averageCost"`
	TotalCost   decimal.Decimal    `bson:"totalCost" json:"totalCost"`
}

// Position returns the costing view of the record.
func (i *Inventory) Position() costing.Position {
	return costing.Position{Quantity: i.Quantity, AverageCost: i.AverageCost, TotalCost: i.TotalCost}
}

// Apply stores a costing result back on the record.
func (i *Inventory) Apply(p costing.Position) {
	i.Quantity, i.AverageCost, i.TotalCost = p.Quantity, p.AverageCost, p.TotalCost
}

// CostSource tells where a unit of agro stock came from.
type CostSource string

const (
	SourcePurchase   CostSource = "purchase"
	SourceHarvest    CostSource = "harvest"
	SourceAdjustment CostSource = "adjustment"
)

// CostComponent is one entry of an agro stock production cost breakdown.
type CostComponent struct {
	Source    CostSource          `bson:"source" json:"source"`
	Reference *primitive.ObjectID `bson:"reference,omitempty" json:"reference,omitempty"`
	Quantity  decimal.Decimal     `bson:"quantity" json:"quantity"`
	UnitCost  decimal.Decimal     `bson:"unitCost" json:"unitCost"`
	TotalCost decimal.Decimal     `bson:"totalCost" json:"totalCost"`
	Date      time.Time           `bson:"date" json:"date"`
}

// AgroInventory is post-harvest stock of one crop variety.
type AgroInventory struct {
	Base                    `bson:",inline"`
	Revision                `bson:",inline"`
	Crop                    primitive.ObjectID `bson:"crop" json:"crop"`
	Variety                 primitive.ObjectID `bson:"variety" json:"variety"`
	Unit                    string             `bson:"unit,omitempty" json:"unit,omitempty"`
	Quantity                decimal.Decimal    `bson:"quantity" json:"quantity"`
	AverageCost             decimal.Decimal    `bson:"averageCost" json:"averageCost"`
	TotalCost               decimal.Decimal    `bson:"totalCost" json:"totalCost"`
	ProductionCostBreakdown []CostComponent    `bson:"productionCostBreakdown" json:"productionCostBreakdown"`
	Notes                   string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Position returns the costing view of the record.
func (a *AgroInventory) Position() costing.Position {
	return costing.Position{Quantity: a.Quantity, AverageCost: a.AverageCost, TotalCost: a.TotalCost}
}

// Apply stores a costing result back on the record.
func (a *AgroInventory) Apply(p costing.Position) {
	a.Quantity, a.AverageCost, a.TotalCost = p.Quantity, p.AverageCost, p.TotalCost
}

// Stock ledgers recorded on movements.
const (
	LedgerInventory = "inventory"
	LedgerAgro      = "agro"
)

// Direction of a stock movement.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// StockMovement is the append-only audit record of one stock change.
type StockMovement struct {
	Base          `bson:",inline"`
	Ledger        string              `bson:"ledger" json:"ledger"`
	Stock         primitive.ObjectID  `bson:"stock" json:"stock"`
	Item          *primitive.ObjectID `bson:"item,omitempty" json:"item,omitempty"`
	Owner         Owner               `bson:"owner,omitempty" json:"owner,omitempty"`
	Crop          *primitive.ObjectID `bson:"crop,omitempty" json:"crop,omitempty"`
	Variety       *primitive.ObjectID `bson:"variety,omitempty" json:"variety,omitempty"`
	Direction     Direction           `bson:"direction" json:"direction"`
	Reason        string              `bson:"reason" json:"reason"`
	Quantity      decimal.Decimal     `bson:"quantity" json:"quantity"`
	UnitCost      decimal.Decimal     `bson:"unitCost" json:"unitCost"`
	TotalCost     decimal.Decimal     `bson:"totalCost" json:"totalCost"`
	QuantityAfter decimal.Decimal     `bson:"quantityAfter" json:"quantityAfter"`
	SaleAmount    *decimal.Decimal    `bson:"saleAmount,omitempty" json:"saleAmount,omitempty"`
	Supplier      *primitive.ObjectID `bson:"supplier,omitempty" json:"supplier,omitempty"`
	Reference     *Reference          `bson:"reference,omitempty" json:"reference,omitempty"`
	Notes         string              `bson:"notes,omitempty" json:"notes,omitempty"`
}

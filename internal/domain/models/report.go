package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentRow is a crop assignment joined with the names of what it references.
type AssignmentRow struct {
	ID                  primitive.ObjectID `bson:"_id" json:"_id"`
	CropName            string             `bson:"cropName" json:"cropName"`
	VarietyName         string             `bson:"varietyName" json:"varietyName"`
	FarmerName          string             `bson:"farmerName" json:"farmerName"`
	LandName            string             `bson:"landName" json:"landName"`
	Quantity            decimal.Decimal    `bson:"quantity" json:"quantity"`
	CropStatus          CropStatus         `bson:"cropStatus" json:"cropStatus"`
	IncurredCosts       decimal.Decimal    `bson:"incurredCosts" json:"incurredCosts"`
	SeedSowingDate      time.Time          `bson:"seedSowingDate" json:"seedSowingDate"`
	ExpectedHarvestDate time.Time          `bson:"expectedHarvestDate" json:"expectedHarvestDate"`
}

// CropYield is the harvested output and cost rolled up per crop.
type CropYield struct {
	Crop          primitive.ObjectID `bson:"_id" json:"crop"`
	CropName      string             `bson:"cropName" json:"cropName"`
	Harvests      int64              `bson:"harvests" json:"harvests"`
	YieldQuantity decimal.Decimal    `bson:"yieldQuantity" json:"yieldQuantity"`
	IncurredCosts decimal.Decimal    `bson:"incurredCosts" json:"incurredCosts"`
}

// LowStockRow is an inventory record at or below its item's threshold.
type LowStockRow struct {
	Inventory primitive.ObjectID `bson:"_id" json:"inventory"`
	Item      primitive.ObjectID `bson:"item" json:"item"`
	ItemName  string             `bson:"itemName" json:"itemName"`
	Unit      string             `bson:"unit" json:"unit"`
	Owner     Owner              `bson:"owner" json:"owner"`
	Quantity  decimal.Decimal    `bson:"quantity" json:"quantity"`
	Threshold decimal.Decimal    `bson:"threshold" json:"threshold"`
}

// ValuationRow is the stock value of one inventory record.
type ValuationRow struct {
	Inventory   primitive.ObjectID `bson:"_id" json:"inventory"`
	ItemName    string             `bson:"itemName" json:"itemName"`
	Category    ItemCategory       `bson:"category" json:"category"`
	Unit        string             `bson:"unit" json:"unit"`
	Owner       Owner              `bson:"owner" json:"owner"`
	Quantity    decimal.Decimal    `bson:"quantity" json:"quantity"`
	AverageCost decimal.Decimal    `bson:"averageCost" json:"averageCost"`
	TotalCost   decimal.Decimal    `bson:"totalCost" json:"totalCost"`
}

// AgricultureSummary is the headline block of the agriculture dashboard.
type AgricultureSummary struct {
	Farmers           int64                `json:"farmers"`
	Lands             int64                `json:"lands"`
	Crops             int64                `json:"crops"`
	ActiveAssignments int64                `json:"activeAssignments"`
	ByStatus          map[CropStatus]int64 `json:"byStatus"`
	AgroStockValue    decimal.Decimal      `json:"agroStockValue"`
	LowStockItems     int                  `json:"lowStockItems"`
}

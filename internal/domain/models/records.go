package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Farmer works one or more land parcels.
type Farmer struct {
	Base       `bson:",inline"`
	Name       string `bson:"name" json:"name" binding:"required"`
	Phone      string `bson:"phone" json:"phone" binding:"required"`
	Email      string `bson:"email,omitempty" json:"email,omitempty"`
	Address    string `bson:"address,omitempty" json:"address,omitempty"`
	NationalID string `bson:"nationalId,omitempty" json:"nationalId,omitempty"`
}

func (f *Farmer) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.Join(strings.Fields(f.Phone), "")
}

// Land is a cultivable parcel.
type Land struct {
	Base     `bson:",inline"`
	Name     string              `bson:"name" json:"name" binding:"required"`
	NameKey  string              `bson:"nameKey" json:"-"`
	Location string              `bson:"location,omitempty" json:"location,omitempty"`
	Area     decimal.Decimal     `bson:"area" json:"area"`
	AreaUnit string              `bson:"areaUnit,omitempty" json:"areaUnit,omitempty"`
	SoilType string              `bson:"soilType,omitempty" json:"soilType,omitempty"`
	Farmer   *primitive.ObjectID `bson:"farmer,omitempty" json:"farmer,omitempty"`
	Notes    string              `bson:"notes,omitempty" json:"notes,omitempty"`
}

func (l *Land) Normalize() {
	l.Name = strings.TrimSpace(l.Name)
	l.NameKey = NameKey(l.Name)
}

func (l *Land) Validate() error {
	if l.Area.IsNegative() {
		return Validationf("area must not be negative")
	}
	return nil
}

// Supplier provides items.
type Supplier struct {
	Base          `bson:",inline"`
	Name          string `bson:"name" json:"name" binding:"required"`
	NameKey       string `bson:"nameKey" json:"-"`
	ContactPerson string `bson:"contactPerson,omitempty" json:"contactPerson,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	Address       string `bson:"address,omitempty" json:"address,omitempty"`
}

func (s *Supplier) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.NameKey = NameKey(s.Name)
}

// ItemCategory tags an item and selects its attribute schema.
type ItemCategory string

const (
	CategorySeed       ItemCategory = "seed"
	CategoryFeed       ItemCategory = "feed"
	CategoryFertilizer ItemCategory = "fertilizer"
	CategoryPesticide  ItemCategory = "pesticide"
	CategoryMedicine   ItemCategory = "medicine"
	CategoryEquipment  ItemCategory = "equipment"
	CategoryOther      ItemCategory = "other"
)

// AttributeSchema lists the attribute keys an item category accepts.
type AttributeSchema struct {
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}

func (s AttributeSchema) allows(key string) bool {
	for _, k := range s.Required {
		if k == key {
			return true
		}
	}
	for _, k := range s.Optional {
		if k == key {
			return true
		}
	}
	return false
}

// ItemSchemas is the attribute schema table per item category.
var ItemSchemas = map[ItemCategory]AttributeSchema{
	CategorySeed:       {Required: []string{"cropType"}, Optional: []string{"variety", "germinationRate"}},
	CategoryFeed:       {Required: []string{"feedType"}, Optional: []string{"animalType", "proteinContent"}},
	CategoryFertilizer: {Required: []string{"npkRatio"}, Optional: []string{"form"}},
	CategoryPesticide:  {Required: []string{"activeIngredient"}, Optional: []string{"reEntryInterval"}},
	CategoryMedicine:   {Required: []string{"dosage"}, Optional: []string{"withdrawalPeriod", "manufacturer"}},
	CategoryEquipment:  {Optional: []string{"model", "serialNumber", "manufacturer"}},
	CategoryOther:      {},
}

// Item is an entry of the item master.
type Item struct {
	Base              `bson:",inline"`
	Name              string              `bson:"name" json:"name" binding:"required"`
	NameKey           string              `bson:"nameKey" json:"-"`
	Category          ItemCategory        `bson:"category" json:"category" binding:"required"`
	Unit              string              `bson:"unit" json:"unit" binding:"required"`
	LowStockThreshold decimal.Decimal     `bson:"lowStockThreshold" json:"lowStockThreshold"`
	Supplier          *primitive.ObjectID `bson:"supplier,omitempty" json:"supplier,omitempty"`
	InventoryAccount  *primitive.ObjectID `bson:"inventoryAccount,omitempty" json:"inventoryAccount,omitempty"`
	Attributes        map[string]string   `bson:"attributes,omitempty" json:"attributes,omitempty"`
	Description       string              `bson:"description,omitempty" json:"description,omitempty"`
}

func (i *Item) Normalize() {
	i.Name = strings.TrimSpace(i.Name)
	i.NameKey = NameKey(i.Name)
}

// Validate checks the threshold and the attributes against the category schema.
func (i *Item) Validate() error {
	schema, ok := ItemSchemas[i.Category]
	if !ok {
		return Validationf("invalid item category %q", i.Category)
	}
	if i.LowStockThreshold.IsNegative() {
		return Validationf("lowStockThreshold must not be negative")
	}

	keys := make([]string, 0, len(i.Attributes))
	for k := range i.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !schema.allows(k) {
			return Validationf("attribute %q is not valid for %s items", k, i.Category)
		}
	}
	for _, k := range schema.Required {
		if strings.TrimSpace(i.Attributes[k]) == "" {
			return Validationf("attribute %q is required for %s items", k, i.Category)
		}
	}
	return nil
}

// CattleStatus tracks whether an animal is still on the farm.
type CattleStatus string

const (
	CattleActive CattleStatus = "active"
	CattleExited CattleStatus = "exited"
)

// Cattle is an entry of the cattle register.
type Cattle struct {
	Base          `bson:",inline"`
	TagNumber     string          `bson:"tagNumber" json:"tagNumber" binding:"required"`
	Name          string          `bson:"name,omitempty" json:"name,omitempty"`
	Breed         string          `bson:"breed,omitempty" json:"breed,omitempty"`
	Gender        string          `bson:"gender,omitempty" json:"gender,omitempty"`
	DateOfBirth   *time.Time      `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Weight        decimal.Decimal `bson:"weight" json:"weight"`
	PurchasePrice decimal.Decimal `bson:"purchasePrice" json:"purchasePrice"`
	Status        CattleStatus    `bson:"status" json:"status"`
}

func (c *Cattle) Normalize() {
	c.TagNumber = strings.ToUpper(strings.TrimSpace(c.TagNumber))
	if c.Status == "" {
		c.Status = CattleActive
	}
}

func (c *Cattle) Validate() error {
	if c.Status != CattleActive && c.Status != CattleExited {
		return Validationf("invalid cattle status %q", c.Status)
	}
	if c.Weight.IsNegative() || c.PurchasePrice.IsNegative() {
		return Validationf("weight and purchasePrice must not be negative")
	}
	return nil
}

// ExitType is why an animal left the farm.
type ExitType string

const (
	ExitSale      ExitType = "sale"
	ExitDeath     ExitType = "death"
	ExitTransfer  ExitType = "transfer"
	ExitSlaughter ExitType = "slaughter"
)

// ExitEvent records an animal leaving the register.
type ExitEvent struct {
	Base     `bson:",inline"`
	Cattle   primitive.ObjectID `bson:"cattle" json:"cattle" binding:"required"`
	ExitType ExitType           `bson:"exitType" json:"exitType" binding:"required"`
	Date     time.Time          `bson:"date" json:"date"`
	Reason   string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Amount   decimal.Decimal    `bson:"amount" json:"amount"`
	Notes    string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

func (e *ExitEvent) Validate() error {
	switch e.ExitType {
	case ExitSale, ExitDeath, ExitTransfer, ExitSlaughter:
	default:
		return Validationf("invalid exitType %q", e.ExitType)
	}
	if e.Amount.IsNegative() {
		return Validationf("amount must not be negative")
	}
	return nil
}

// FeedUsage is an immutable record of feed given to one animal.
type FeedUsage struct {
	Base         `bson:",inline"`
	Cattle       primitive.ObjectID `bson:"cattleId" json:"cattleId"`
	Product      primitive.ObjectID `bson:"productId" json:"productId"`
	QuantityUsed decimal.Decimal    `bson:"quantityUsed" json:"quantityUsed"`
	Cost         decimal.Decimal    `bson:"cost" json:"cost"`
	Operator     string             `bson:"operator" json:"operator"`
	Date         time.Time          `bson:"date" json:"date"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	JournalID    string             `bson:"journalId,omitempty" json:"journalId,omitempty"`
}

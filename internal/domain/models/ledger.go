package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountType is the accounting class of a chart-of-accounts entry.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

// Valid reports whether t is a known type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountIncome, AccountExpense:
		return true
	}
	return false
}

// DebitNormal reports whether debits increase the balance of accounts of type t.
func (t AccountType) DebitNormal() bool {
	return t == AccountAsset || t == AccountExpense
}

// Well-known accounts provisioned on demand.
const (
	AccountCOGS                 = "Cost of Goods Sold"
	AccountAgricultureInventory = "Agriculture Inventory"
	AccountSalesRevenue         = "Sales Revenue"
)

// Account is a chart-of-accounts entry. Balance is derived from ledger entries on read.
type Account struct {
	Base        `bson:",inline"`
	Name        string              `bson:"name" json:"name" binding:"required"`
	NameKey     string              `bson:"nameKey" json:"-"`
	Code        string              `bson:"code,omitempty" json:"code,omitempty"`
	Type        AccountType         `bson:"type" json:"type" binding:"required"`
	Parent      *primitive.ObjectID `bson:"parent" json:"parent,omitempty"`
	System      bool                `bson:"system" json:"system"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Balance     decimal.Decimal     `bson:"-" json:"balance"`
}

func (a *Account) Normalize() {
	a.Name = strings.TrimSpace(a.Name)
	a.NameKey = NameKey(a.Name)
}

func (a *Account) Validate() error {
	if a.Name == "" {
		return Validationf("account name is required")
	}
	if !a.Type.Valid() {
		return Validationf("invalid account type %q", a.Type)
	}
	return nil
}

// LedgerEntry is one line of a balanced journal. Entries are never updated.
type LedgerEntry struct {
	Base      `bson:",inline"`
	JournalID string             `bson:"journalId" json:"journalId"`
	Account   primitive.ObjectID `bson:"account" json:"account"`
	Debit     decimal.Decimal    `bson:"debit" json:"debit"`
	Credit    decimal.Decimal    `bson:"credit" json:"credit"`
	Memo      string             `bson:"memo,omitempty" json:"memo,omitempty"`
	Reference *Reference         `bson:"reference,omitempty" json:"reference,omitempty"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	// The admin UI reads quantities and costs as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Document is implemented by every persisted record through its embedded Base.
type Document interface {
	Meta() *Base
}

// Versioned is implemented by records guarded by optimistic concurrency.
type Versioned interface {
	Rev() *Revision
}

// Normalizer derives lookup keys (lower-cased names and similar) before a record is saved.
type Normalizer interface {
	Normalize()
}

// Validator checks the invariants a record can verify on its own.
type Validator interface {
	Validate() error
}

// Base carries the identity and audit timestamps shared by all collections.
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Meta exposes the base fields to generic repository code.
func (b *Base) Meta() *Base { return b }

// Stamp assigns an id when missing and refreshes the audit timestamps.
func (b *Base) Stamp(now time.Time) {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now.Truncate(time.Millisecond)
	}
	b.Touch(now)
}

// Touch refreshes UpdatedAt. Times are kept at BSON's millisecond precision so
// the value held in memory matches what a later read returns.
func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = now.Truncate(time.Millisecond)
}

// Revision is the optimistic-concurrency counter. Repositories bump it on every
// successful replace and reject writes carrying a stale value.
type Revision struct {
	Version int64 `bson:"version" json:"version"`
}

// Rev exposes the revision to generic repository code.
func (r *Revision) Rev() *Revision { return r }

// Reference points at the record that caused a stock movement or journal.
type Reference struct {
	Kind string             `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

// Reference kinds.
const (
	RefCropSow   = "crop_sow"
	RefFeedUsage = "feed_usage"
	RefPurchase  = "purchase"
	RefSale      = "sale"
)

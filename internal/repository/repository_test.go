package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type fakeTx struct {
	in    bool
	calls int
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

func (f *fakeTx) InTransaction(context.Context) bool { return f.in }

func TestAtomicallyRetriesStaleVersion(t *testing.T) {
	tx := &fakeTx{}
	attempts := 0

	err := Atomically(context.Background(), tx, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return ErrStaleVersion
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Atomically: %v", err)
	}
	if attempts != 3 || tx.calls != 3 {
		t.Errorf("attempts = %d, transactions = %d, want 3 and 3", attempts, tx.calls)
	}
}

func TestAtomicallyGivesUp(t *testing.T) {
	tx := &fakeTx{}
	err := Atomically(context.Background(), tx, func(context.Context) error { return ErrStaleVersion })
	if !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
	if tx.calls != maxAttempts {
		t.Errorf("transactions = %d, want %d", tx.calls, maxAttempts)
	}
}

func TestAtomicallyJoinsRunningTransaction(t *testing.T) {
	tx := &fakeTx{in: true}
	err := Atomically(context.Background(), tx, func(context.Context) error { return ErrStaleVersion })
	if !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
	if tx.calls != 0 {
		t.Errorf("nested call started %d transactions", tx.calls)
	}
}

func TestRegistryStoresDecimalsAsDecimal128(t *testing.T) {
	reg := NewRegistry()
	in := struct {
		Cost decimal.Decimal `bson:"cost"`
	}{Cost: decimal.RequireFromString("1234.5678")}

	data, err := bson.MarshalWithRegistry(reg, in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if typ := bson.Raw(data).Lookup("cost").Type; typ != bsontype.Decimal128 {
		t.Fatalf("cost stored as %v, want decimal128", typ)
	}

	var out struct {
		Cost decimal.Decimal `bson:"cost"`
	}
	if err := bson.UnmarshalWithRegistry(reg, data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !out.Cost.Equal(in.Cost) {
		t.Errorf("cost = %s, want %s", out.Cost, in.Cost)
	}
}

func TestRegistryDecodesNumericTypes(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name string
		doc  bson.M
		want string
	}{
		{"int32", bson.M{"v": int32(7)}, "7"},
		{"int64", bson.M{"v": int64(9)}, "9"},
		{"double", bson.M{"v": 2.5}, "2.5"},
		{"null", bson.M{"v": nil}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(tt.doc)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var out struct {
				V decimal.Decimal `bson:"v"`
			}
			if err := bson.UnmarshalWithRegistry(reg, data, &out); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !out.V.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("got %s, want %s", out.V, tt.want)
			}
		})
	}
}

package memory

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/mamadbah2/farmerp/internal/repository"
)

func validFilter(filter repository.Filter) error {
	for key := range filter {
		if strings.HasPrefix(key, "$") {
			return fmt.Errorf("memory: operator %q is not supported", key)
		}
	}
	return nil
}

// matches reports whether raw satisfies every condition of filter. Keys may be
// dotted paths into embedded documents.
func matches(raw bson.Raw, filter repository.Filter, reg *bsoncodec.Registry) bool {
	for key, want := range filter {
		got, err := raw.LookupErr(strings.Split(key, ".")...)
		missing := err != nil || got.Type == bsontype.Null || got.Type == bsontype.Undefined

		switch w := want.(type) {
		case nil:
			if !missing {
				return false
			}
		case repository.Range:
			if missing || got.Type != bsontype.DateTime {
				return false
			}
			at := got.Time()
			if w.From != nil && at.Before(*w.From) {
				return false
			}
			if w.To != nil && at.After(*w.To) {
				return false
			}
		default:
			norm, err := normalize(want, reg)
			if err != nil {
				return false
			}
			if norm.Type == bsontype.Null {
				if !missing {
					return false
				}
				continue
			}
			if missing || !norm.Equal(got) {
				return false
			}
		}
	}
	return true
}

// normalize encodes a Go value the way it would be stored. Typed nil pointers
// come back as a BSON null.
func normalize(v any, reg *bsoncodec.Registry) (bson.RawValue, error) {
	data, err := bson.MarshalWithRegistry(reg, bson.M{"v": v})
	if err != nil {
		return bson.RawValue{}, err
	}
	return bson.Raw(data).LookupErr("v")
}

func sameFields(a, b bson.Raw, fields []string) bool {
	for _, f := range fields {
		path := strings.Split(f, ".")
		av, aerr := a.LookupErr(path...)
		bv, berr := b.LookupErr(path...)
		if aerr != nil || berr != nil {
			if (aerr != nil) != (berr != nil) {
				return false
			}
			continue
		}
		if !av.Equal(bv) {
			return false
		}
	}
	return true
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

var now = func() time.Time { return time.Now().UTC() }

type collection[T any] struct {
	coll *mongo.Collection
}

func newCollection[T any](db *mongo.Database, name string) *collection[T] {
	return &collection[T]{coll: db.Collection(name)}
}

func (c *collection[T]) Insert(ctx context.Context, doc *T) error {
	meta, err := metaOf(doc)
	if err != nil {
		return err
	}
	if v, ok := any(doc).(models.Versioned); ok {
		v.Rev().Version = 0
	}
	meta.Stamp(now())

	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return c.wrap("insert", err)
	}
	return nil
}

func (c *collection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.FindOne(ctx, repository.Filter{"_id": id})
}

func (c *collection[T]) FindOne(ctx context.Context, filter repository.Filter) (*T, error) {
	doc := new(T)
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})
	if err := c.coll.FindOne(ctx, toBSON(filter), opts).Decode(doc); err != nil {
		return nil, c.wrap("find", err)
	}
	return doc, nil
}

func (c *collection[T]) Find(ctx context.Context, filter repository.Filter, page models.Page) ([]T, int64, error) {
	query := toBSON(filter)

	total, err := c.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, c.wrap("count", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if !page.All {
		opts.SetSkip(int64(page.Skip())).SetLimit(int64(page.Normalized().Limit))
	}

	cursor, err := c.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, c.wrap("find", err)
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, c.wrap("decode", err)
	}
	return out, total, nil
}

func (c *collection[T]) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, toBSON(filter))
	if err != nil {
		return 0, c.wrap("count", err)
	}
	return n, nil
}

func (c *collection[T]) Replace(ctx context.Context, doc *T) error {
	meta, err := metaOf(doc)
	if err != nil {
		return err
	}
	meta.Touch(now())

	filter := bson.D{{Key: "_id", Value: meta.ID}}
	v, versioned := any(doc).(models.Versioned)
	if versioned {
		filter = append(filter, bson.E{Key: "version", Value: v.Rev().Version})
		v.Rev().Version++
	}

	res, err := c.coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		if versioned {
			v.Rev().Version--
		}
		return c.wrap("replace", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	if versioned {
		v.Rev().Version--
		n, err := c.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: meta.ID}})
		if err != nil {
			return c.wrap("count", err)
		}
		if n > 0 {
			return repository.ErrStaleVersion
		}
	}
	return repository.ErrNotFound
}

func (c *collection[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return c.wrap("delete", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (c *collection[T]) wrap(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, c.coll.Name())
	}
	return fmt.Errorf("failed to %s %s: %w", op, c.coll.Name(), err)
}

func metaOf(doc any) (*models.Base, error) {
	d, ok := doc.(models.Document)
	if !ok {
		return nil, fmt.Errorf("mongodb: %T does not embed models.Base", doc)
	}
	return d.Meta(), nil
}

// toBSON translates a repository filter into a query document.
func toBSON(filter repository.Filter) bson.D {
	out := bson.D{}
	for key, val := range filter {
		if r, ok := val.(repository.Range); ok {
			cond := bson.D{}
			if r.From != nil {
				cond = append(cond, bson.E{Key: "$gte", Value: *r.From})
			}
			if r.To != nil {
				cond = append(cond, bson.E{Key: "$lte", Value: *r.To})
			}
			if len(cond) == 0 {
				continue
			}
			out = append(out, bson.E{Key: key, Value: cond})
			continue
		}
		out = append(out, bson.E{Key: key, Value: val})
	}
	return out
}

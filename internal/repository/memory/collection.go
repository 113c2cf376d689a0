package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

type collection[T any] struct {
	s       *Store
	name    string
	uniques []repository.Index
}

func newCollection[T any](s *Store, name string) *collection[T] {
	c := &collection[T]{s: s, name: name}
	for _, idx := range repository.Indexes {
		if idx.Collection == name && idx.Unique {
			c.uniques = append(c.uniques, idx)
		}
	}
	return c
}

func (c *collection[T]) Insert(ctx context.Context, doc *T) error {
	meta, err := c.meta(doc)
	if err != nil {
		return err
	}
	if v, ok := any(doc).(models.Versioned); ok {
		v.Rev().Version = 0
	}
	meta.Stamp(c.s.now())

	defer c.s.lock(ctx)()
	if _, exists := c.s.docs(c.name)[meta.ID]; exists {
		return fmt.Errorf("%w: _id", repository.ErrDuplicate)
	}
	return c.put(meta.ID, doc)
}

func (c *collection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	defer c.s.lock(ctx)()

	raw, ok := c.s.docs(c.name)[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c.decode(raw)
}

func (c *collection[T]) FindOne(ctx context.Context, filter repository.Filter) (*T, error) {
	defer c.s.lock(ctx)()

	matches, err := c.match(filter)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, repository.ErrNotFound
	}
	return c.decode(matches[0])
}

func (c *collection[T]) Find(ctx context.Context, filter repository.Filter, page models.Page) ([]T, int64, error) {
	defer c.s.lock(ctx)()

	matches, err := c.match(filter)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(matches))

	if !page.All {
		skip, limit := page.Skip(), page.Normalized().Limit
		if skip > len(matches) {
			skip = len(matches)
		}
		end := skip + limit
		if end > len(matches) {
			end = len(matches)
		}
		matches = matches[skip:end]
	}

	out := make([]T, 0, len(matches))
	for _, raw := range matches {
		doc, err := c.decode(raw)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *doc)
	}
	return out, total, nil
}

func (c *collection[T]) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	defer c.s.lock(ctx)()

	matches, err := c.match(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matches)), nil
}

func (c *collection[T]) Replace(ctx context.Context, doc *T) error {
	meta, err := c.meta(doc)
	if err != nil {
		return err
	}

	defer c.s.lock(ctx)()

	stored, ok := c.s.docs(c.name)[meta.ID]
	if !ok {
		return repository.ErrNotFound
	}
	meta.Touch(c.s.now())

	v, versioned := any(doc).(models.Versioned)
	if !versioned {
		return c.put(meta.ID, doc, meta.ID)
	}

	current, _ := stored.Lookup("version").Int64OK()
	if current != v.Rev().Version {
		return repository.ErrStaleVersion
	}
	v.Rev().Version++
	if err := c.put(meta.ID, doc, meta.ID); err != nil {
		v.Rev().Version--
		return err
	}
	return nil
}

func (c *collection[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer c.s.lock(ctx)()

	docs := c.s.docs(c.name)
	if _, ok := docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(docs, id)
	return nil
}

func (c *collection[T]) meta(doc *T) (*models.Base, error) {
	d, ok := any(doc).(models.Document)
	if !ok {
		return nil, fmt.Errorf("memory: %T does not embed models.Base", doc)
	}
	return d.Meta(), nil
}

// put encodes doc, checks the unique indexes and stores it. self is the id
// excluded from uniqueness checks when replacing.
func (c *collection[T]) put(id primitive.ObjectID, doc *T, self ...primitive.ObjectID) error {
	raw, err := bson.MarshalWithRegistry(c.s.reg, doc)
	if err != nil {
		return fmt.Errorf("memory: encode %s: %w", c.name, err)
	}

	docs := c.s.docs(c.name)
	for _, idx := range c.uniques {
		if !matches(raw, idx.Where, c.s.reg) {
			continue
		}
		for otherID, other := range docs {
			if len(self) > 0 && otherID == self[0] {
				continue
			}
			if !matches(other, idx.Where, c.s.reg) {
				continue
			}
			if sameFields(raw, other, idx.Fields) {
				return fmt.Errorf("%w: %s", repository.ErrDuplicate, idx.Name)
			}
		}
	}

	docs[id] = raw
	return nil
}

// match returns the documents matching filter, newest first.
func (c *collection[T]) match(filter repository.Filter) ([]bson.Raw, error) {
	if err := validFilter(filter); err != nil {
		return nil, err
	}

	docs := c.s.docs(c.name)
	ids := make([]primitive.ObjectID, 0, len(docs))
	for id, raw := range docs {
		if matches(raw, filter, c.s.reg) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) > 0
	})

	out := make([]bson.Raw, len(ids))
	for i, id := range ids {
		out[i] = docs[id]
	}
	return out, nil
}

func (c *collection[T]) decode(raw bson.Raw) (*T, error) {
	doc := new(T)
	if err := bson.UnmarshalWithRegistry(c.s.reg, raw, doc); err != nil {
		return nil, fmt.Errorf("memory: decode %s: %w", c.name, err)
	}
	return doc, nil
}

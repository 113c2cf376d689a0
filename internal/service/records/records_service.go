// Package records implements the plain CRUD registers of the ERP: farmers,
// land, crop varieties, suppliers, items, cattle and exit events.
package records

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/service"
)

// Hooks attach register-specific rules to the generic operations. Every hook
// runs inside the write's transaction.
type Hooks[T any] struct {
	// Check verifies references on create and update.
	Check func(ctx context.Context, doc *T) error
	// BeforeCreate runs after Check on create only.
	BeforeCreate func(ctx context.Context, doc *T) error
	// BeforeUpdate sees the stored document next to the replacement.
	BeforeUpdate func(ctx context.Context, current, next *T) error
	// AfterCreate runs once the document is inserted.
	AfterCreate func(ctx context.Context, doc *T) error
	// BeforeDelete may refuse the deletion.
	BeforeDelete func(ctx context.Context, doc *T) error
}

// Service is a CRUD service over one collection.
type Service[T any] struct {
	what      string
	store     repository.Store
	coll      repository.Collection[T]
	duplicate func(doc *T) string
	hooks     Hooks[T]
	logger    *zap.Logger
}

// Name is the register name used in messages ("farmer", "land").
func (s *Service[T]) Name() string { return s.what }

// Create validates and inserts doc.
func (s *Service[T]) Create(ctx context.Context, doc *T) (*T, error) {
	if err := service.Prepare(doc); err != nil {
		return nil, err
	}
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		if err := s.run(ctx, s.hooks.Check, doc); err != nil {
			return err
		}
		if err := s.run(ctx, s.hooks.BeforeCreate, doc); err != nil {
			return err
		}
		if err := s.coll.Insert(ctx, doc); err != nil {
			return service.Duplicate(err, s.duplicate(doc))
		}
		return s.run(ctx, s.hooks.AfterCreate, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.what+" created", zap.String("id", meta(doc).ID.Hex()))
	return doc, nil
}

// Get loads one document.
func (s *Service[T]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	doc, err := s.coll.FindByID(ctx, id)
	if err != nil {
		return nil, service.Missing(err, s.what)
	}
	return doc, nil
}

// List returns documents, newest first.
func (s *Service[T]) List(ctx context.Context, filter repository.Filter, page models.Page) ([]T, int64, error) {
	docs, total, err := s.coll.Find(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.what, err)
	}
	return docs, total, nil
}

// Update replaces the document id with in, keeping its creation time.
func (s *Service[T]) Update(ctx context.Context, id primitive.ObjectID, in *T) (*T, error) {
	if err := service.Prepare(in); err != nil {
		return nil, err
	}
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		m := meta(in)
		m.ID = id
		m.CreatedAt = meta(current).CreatedAt
		if v, ok := any(in).(models.Versioned); ok {
			v.Rev().Version = any(current).(models.Versioned).Rev().Version
		}

		if s.hooks.BeforeUpdate != nil {
			if err := s.hooks.BeforeUpdate(ctx, current, in); err != nil {
				return err
			}
		}
		if err := s.run(ctx, s.hooks.Check, in); err != nil {
			return err
		}
		err = s.coll.Replace(ctx, in)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return service.Missing(err, s.what)
		case errors.Is(err, repository.ErrDuplicate):
			return service.Duplicate(err, s.duplicate(in))
		case err != nil && !errors.Is(err, repository.ErrStaleVersion):
			return fmt.Errorf("update %s: %w", s.what, err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.what+" updated", zap.String("id", id.Hex()))
	return in, nil
}

// Delete removes the document id unless a hook refuses.
func (s *Service[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		doc, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.run(ctx, s.hooks.BeforeDelete, doc); err != nil {
			return err
		}
		if err := s.coll.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete %s: %w", s.what, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(s.what+" deleted", zap.String("id", id.Hex()))
	return nil
}

func (s *Service[T]) run(ctx context.Context, hook func(context.Context, *T) error, doc *T) error {
	if hook == nil {
		return nil
	}
	return hook(ctx, doc)
}

func meta(doc any) *models.Base {
	return doc.(models.Document).Meta()
}

// inUse refuses a deletion while count finds references.
func inUse(ctx context.Context, what string, count func(context.Context, repository.Filter) (int64, error), filter repository.Filter) error {
	n, err := count(ctx, filter)
	if err != nil {
		return fmt.Errorf("count %s: %w", what, err)
	}
	if n > 0 {
		return models.Validationf("still referenced by %d %s", n, what)
	}
	return nil
}

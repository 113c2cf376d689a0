// Package service holds helpers shared by the domain services.
package service

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/farmerp/internal/domain/costing"
	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

// Missing converts a repository lookup failure into a not-found error naming what.
func Missing(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NotFoundf("%s not found", what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// Duplicate converts a unique index violation into a conflict with msg.
func Duplicate(err error, msg string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return models.Conflictf("%s", msg)
	}
	return err
}

// Costing converts costing rule violations into validation errors.
func Costing(err error) error {
	var insufficient *costing.InsufficientStockError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &insufficient):
		return models.Validationf("%s", insufficient.Error())
	case errors.Is(err, costing.ErrInvalidQuantity), errors.Is(err, costing.ErrInvalidCost):
		return models.Validationf("%s", err.Error())
	}
	return err
}

// Prepare normalizes and validates a record before it is written.
func Prepare(doc any) error {
	if n, ok := doc.(models.Normalizer); ok {
		n.Normalize()
	}
	if v, ok := doc.(models.Validator); ok {
		return v.Validate()
	}
	return nil
}

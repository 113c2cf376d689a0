// Package crops manages crops and provisions their ledger accounts.
package crops

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/service"
	"github.com/mamadbah2/farmerp/internal/service/ledger"
)

// Service implements crop operations.
type Service struct {
	store  repository.Store
	ledger *ledger.Service
	logger *zap.Logger
}

// NewService wires a new crop service instance.
func NewService(store repository.Store, ledgerSvc *ledger.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, ledger: ledgerSvc, logger: logger}
}

// Create adds a crop together with an inventory account under Agriculture
// Inventory and a revenue account under Sales Revenue. The parents are created
// on first use.
func (s *Service) Create(ctx context.Context, crop *models.Crop) (*models.Crop, error) {
	if err := service.Prepare(crop); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, crop.NameKey, primitive.NilObjectID); err != nil {
		return nil, err
	}

	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		inventoryParent, err := s.ledger.EnsureAccount(ctx, models.AccountAgricultureInventory, models.AccountAsset, nil)
		if err != nil {
			return err
		}
		revenueParent, err := s.ledger.EnsureAccount(ctx, models.AccountSalesRevenue, models.AccountIncome, nil)
		if err != nil {
			return err
		}
		inventoryAcc, err := s.ledger.EnsureAccount(ctx, crop.Name, models.AccountAsset, &inventoryParent.ID)
		if err != nil {
			return err
		}
		revenueAcc, err := s.ledger.EnsureAccount(ctx, crop.Name, models.AccountIncome, &revenueParent.ID)
		if err != nil {
			return err
		}
		crop.InventoryAccount = &inventoryAcc.ID
		crop.RevenueAccount = &revenueAcc.ID

		if err := s.store.Crops().Insert(ctx, crop); err != nil {
			return service.Duplicate(err, fmt.Sprintf("crop %q already exists", crop.Name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("crop created", zap.String("id", crop.ID.Hex()), zap.String("name", crop.Name))
	return crop, nil
}

// Get loads one crop.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Crop, error) {
	crop, err := s.store.Crops().FindByID(ctx, id)
	if err != nil {
		return nil, service.Missing(err, "crop")
	}
	return crop, nil
}

// List returns crops, newest first.
func (s *Service) List(ctx context.Context, page models.Page) ([]models.Crop, int64, error) {
	crops, total, err := s.store.Crops().Find(ctx, nil, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list crops: %w", err)
	}
	return crops, total, nil
}

// Update changes the descriptive fields of a crop. Its accounts stay attached.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in *models.Crop) (*models.Crop, error) {
	crop, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	crop.Name = in.Name
	crop.Category = in.Category
	crop.Description = in.Description
	if err := service.Prepare(crop); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, crop.NameKey, crop.ID); err != nil {
		return nil, err
	}

	if err := s.store.Crops().Replace(ctx, crop); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.Missing(err, "crop")
		}
		return nil, service.Duplicate(err, fmt.Sprintf("crop %q already exists", crop.Name))
	}
	return crop, nil
}

// Delete removes a crop that no assignment, variety or agro stock refers to.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		refs := []struct {
			what  string
			count func(context.Context, repository.Filter) (int64, error)
		}{
			{"crop assignments", s.store.CropSows().Count},
			{"varieties", s.store.Varieties().Count},
			{"agro inventory", s.store.AgroInventories().Count},
		}
		for _, ref := range refs {
			n, err := ref.count(ctx, repository.Filter{"crop": id})
			if err != nil {
				return fmt.Errorf("count %s: %w", ref.what, err)
			}
			if n > 0 {
				return models.Validationf("crop is still referenced by %d %s", n, ref.what)
			}
		}
		if err := s.store.Crops().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete crop: %w", err)
		}
		s.logger.Info("crop deleted", zap.String("id", id.Hex()))
		return nil
	})
}

func (s *Service) checkName(ctx context.Context, key string, self primitive.ObjectID) error {
	existing, err := s.store.Crops().FindOne(ctx, repository.Filter{"nameKey": key})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check crop name: %w", err)
	case existing.ID != self:
		return models.Conflictf("crop %q already exists", existing.Name)
	}
	return nil
}

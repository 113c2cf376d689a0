// Package cropsow runs the crop assignment lifecycle: sowing draws seed from
// agriculture stock, updates keep stock in step with the assignment, and the
// harvest moves the accumulated cost into agro inventory.
package cropsow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/service"
	"github.com/mamadbah2/farmerp/internal/service/agro"
	"github.com/mamadbah2/farmerp/internal/service/inventory"
	"github.com/mamadbah2/farmerp/internal/service/ledger"
)

const reasonReturn = "return"

var errLandTaken = models.Conflictf("Land is already assigned to an active crop")

// CreateRequest is the payload of a new assignment.
type CreateRequest struct {
	Crop                primitive.ObjectID `json:"crop" binding:"required"`
	Variety             primitive.ObjectID `json:"variety" binding:"required"`
	Farmer              primitive.ObjectID `json:"farmer" binding:"required"`
	Land                primitive.ObjectID `json:"land" binding:"required"`
	Seed                primitive.ObjectID `json:"seed" binding:"required"`
	Quantity            decimal.Decimal    `json:"quantity"`
	SeedSowingDate      time.Time          `json:"seedSowingDate" binding:"required"`
	ExpectedHarvestDate time.Time          `json:"expectedHarvestDate" binding:"required"`
	CropStatus          models.CropStatus  `json:"cropStatus,omitempty"`
	Notes               string             `json:"notes,omitempty"`
}

// UpdateRequest changes an assignment. Omitted fields are kept.
type UpdateRequest struct {
	Crop                *primitive.ObjectID `json:"crop,omitempty"`
	Variety             *primitive.ObjectID `json:"variety,omitempty"`
	Farmer              *primitive.ObjectID `json:"farmer,omitempty"`
	Land                *primitive.ObjectID `json:"land,omitempty"`
	Seed                *primitive.ObjectID `json:"seed,omitempty"`
	Quantity            *decimal.Decimal    `json:"quantity,omitempty"`
	SeedSowingDate      *time.Time          `json:"seedSowingDate,omitempty"`
	ExpectedHarvestDate *time.Time          `json:"expectedHarvestDate,omitempty"`
	CropStatus          *models.CropStatus  `json:"cropStatus,omitempty"`
	ActualYieldQuantity *decimal.Decimal    `json:"actualYieldQuantity,omitempty"`
	ActualYieldUnit     *string             `json:"actualYieldUnit,omitempty"`
	FairValuePerUnit    *decimal.Decimal    `json:"fairValuePerUnit,omitempty"`
	Notes               *string             `json:"notes,omitempty"`
}

// Service implements the crop assignment lifecycle.
type Service struct {
	store     repository.Store
	inventory *inventory.Service
	agro      *agro.Service
	ledger    *ledger.Service
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new crop assignment service instance.
func NewService(store repository.Store, inv *inventory.Service, agroSvc *agro.Service, ledgerSvc *ledger.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		inventory: inv,
		agro:      agroSvc,
		ledger:    ledgerSvc,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create sows a crop on a free land parcel and draws the seed from agriculture stock.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.CropSow, error) {
	status := req.CropStatus
	if status == "" {
		status = models.StatusSown
	}
	if status != models.StatusSown && status != models.StatusGrowing {
		return nil, models.Validationf("a new assignment must be %s or %s", models.StatusSown, models.StatusGrowing)
	}
	if !req.Quantity.IsPositive() {
		return nil, models.Validationf("quantity must be greater than zero")
	}
	if err := checkDates(req.SeedSowingDate, req.ExpectedHarvestDate); err != nil {
		return nil, err
	}

	var sow *models.CropSow
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		sow = &models.CropSow{
			Crop:                req.Crop,
			Variety:             req.Variety,
			Farmer:              req.Farmer,
			Land:                req.Land,
			Seed:                req.Seed,
			Quantity:            req.Quantity,
			SeedSowingDate:      req.SeedSowingDate,
			ExpectedHarvestDate: req.ExpectedHarvestDate,
			CropStatus:          status,
			Active:              true,
			Notes:               req.Notes,
		}
		sow.ID = primitive.NewObjectID()

		if err := s.checkReferences(ctx, sow); err != nil {
			return err
		}
		if err := s.checkLandFree(ctx, sow.Land, sow.ID); err != nil {
			return err
		}

		_, cost, err := s.inventory.Withdraw(ctx, s.seedWithdrawal(sow, sow.Seed, sow.Quantity))
		if err != nil {
			return err
		}
		sow.IncurredCosts = cost

		if err := s.store.CropSows().Insert(ctx, sow); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errLandTaken
			}
			return fmt.Errorf("insert crop assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("crop sown",
		zap.String("id", sow.ID.Hex()),
		zap.String("land", sow.Land.Hex()),
		zap.String("quantity", sow.Quantity.String()),
		zap.String("incurred_costs", sow.IncurredCosts.String()))
	return sow, nil
}

// Update applies changes to an open assignment, keeping seed stock in step and
// running the harvest when the status moves to Harvested.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, req UpdateRequest) (*models.CropSow, error) {
	var sow *models.CropSow
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		var err error
		sow, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		if sow.CropStatus == models.StatusHarvested {
			return models.Validationf("a harvested assignment cannot be modified")
		}

		next := sow.CropStatus
		if req.CropStatus != nil {
			if !sow.CropStatus.CanBecome(*req.CropStatus) {
				return models.Validationf("cannot move crop status from %s to %s", sow.CropStatus, *req.CropStatus)
			}
			next = *req.CropStatus
		}
		if req.ActualYieldQuantity != nil {
			sow.ActualYieldQuantity = req.ActualYieldQuantity
		}
		if req.ActualYieldUnit != nil {
			sow.ActualYieldUnit = *req.ActualYieldUnit
		}
		if req.FairValuePerUnit != nil {
			sow.FairValuePerUnit = req.FairValuePerUnit
		}
		if next == models.StatusHarvested {
			if err := checkHarvest(sow); err != nil {
				return err
			}
		}

		if err := s.applyChanges(ctx, sow, req); err != nil {
			return err
		}

		if next == models.StatusHarvested {
			if err := s.harvest(ctx, sow); err != nil {
				return err
			}
		}
		sow.CropStatus = next

		if err := s.store.CropSows().Replace(ctx, sow); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errLandTaken
			}
			if errors.Is(err, repository.ErrStaleVersion) {
				return err
			}
			return fmt.Errorf("save crop assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("crop assignment updated", zap.String("id", id.Hex()), zap.String("status", string(sow.CropStatus)))
	return sow, nil
}

// Delete removes an open assignment and returns its seed to stock.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		sow, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if sow.CropStatus == models.StatusHarvested {
			return models.Validationf("a harvested assignment cannot be deleted")
		}

		if _, err := s.inventory.Receive(ctx, s.seedReturn(sow, sow.Seed, sow.Quantity, sow.SeedUnitCost())); err != nil {
			return err
		}
		if err := s.store.CropSows().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete crop assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("crop assignment deleted", zap.String("id", id.Hex()))
	return nil
}

// Get loads one assignment.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.CropSow, error) {
	sow, err := s.store.CropSows().FindByID(ctx, id)
	if err != nil {
		return nil, service.Missing(err, "crop assignment")
	}
	return sow, nil
}

// List returns assignments, newest first.
func (s *Service) List(ctx context.Context, page models.Page) ([]models.CropSow, int64, error) {
	sows, total, err := s.store.CropSows().Find(ctx, nil, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list crop assignments: %w", err)
	}
	return sows, total, nil
}

// applyChanges moves references, dates, seed and quantity of an open assignment.
func (s *Service) applyChanges(ctx context.Context, sow *models.CropSow, req UpdateRequest) error {
	if req.Crop != nil {
		sow.Crop = *req.Crop
	}
	if req.Variety != nil {
		sow.Variety = *req.Variety
	}
	if req.Farmer != nil {
		sow.Farmer = *req.Farmer
	}
	if req.Notes != nil {
		sow.Notes = *req.Notes
	}
	if req.SeedSowingDate != nil {
		sow.SeedSowingDate = *req.SeedSowingDate
	}
	if req.ExpectedHarvestDate != nil {
		sow.ExpectedHarvestDate = *req.ExpectedHarvestDate
	}
	if err := checkDates(sow.SeedSowingDate, sow.ExpectedHarvestDate); err != nil {
		return err
	}

	landChanged := req.Land != nil && *req.Land != sow.Land
	if landChanged {
		sow.Land = *req.Land
	}
	if err := s.checkReferences(ctx, sow); err != nil {
		return err
	}
	if landChanged {
		if err := s.checkLandFree(ctx, sow.Land, sow.ID); err != nil {
			return err
		}
	}

	quantity := sow.Quantity
	if req.Quantity != nil {
		if !req.Quantity.IsPositive() {
			return models.Validationf("quantity must be greater than zero")
		}
		quantity = *req.Quantity
	}

	switch {
	case req.Seed != nil && *req.Seed != sow.Seed:
		return s.swapSeed(ctx, sow, *req.Seed, quantity)
	case !quantity.Equal(sow.Quantity):
		return s.resize(ctx, sow, quantity)
	}
	return nil
}

// swapSeed returns the old seed at the cost it was drawn at and draws the new one.
func (s *Service) swapSeed(ctx context.Context, sow *models.CropSow, seed primitive.ObjectID, quantity decimal.Decimal) error {
	if _, err := s.store.Items().FindByID(ctx, seed); err != nil {
		return service.Missing(err, "seed item")
	}
	if _, err := s.inventory.Receive(ctx, s.seedReturn(sow, sow.Seed, sow.Quantity, sow.SeedUnitCost())); err != nil {
		return err
	}
	_, cost, err := s.inventory.Withdraw(ctx, s.seedWithdrawal(sow, seed, quantity))
	if err != nil {
		return err
	}
	sow.Seed, sow.Quantity, sow.IncurredCosts = seed, quantity, cost
	return nil
}

// resize draws or returns the difference in seed quantity.
func (s *Service) resize(ctx context.Context, sow *models.CropSow, quantity decimal.Decimal) error {
	delta := quantity.Sub(sow.Quantity)
	if delta.IsPositive() {
		_, cost, err := s.inventory.Withdraw(ctx, s.seedWithdrawal(sow, sow.Seed, delta))
		if err != nil {
			return err
		}
		sow.IncurredCosts = sow.IncurredCosts.Add(cost)
	} else {
		back := delta.Neg()
		unitCost := sow.SeedUnitCost()
		if _, err := s.inventory.Receive(ctx, s.seedReturn(sow, sow.Seed, back, unitCost)); err != nil {
			return err
		}
		sow.IncurredCosts = sow.IncurredCosts.Sub(back.Mul(unitCost))
		if sow.IncurredCosts.IsNegative() {
			sow.IncurredCosts = decimal.Zero
		}
	}
	sow.Quantity = quantity
	return nil
}

// harvest moves the assignment's cost into agro inventory and closes it.
func (s *Service) harvest(ctx context.Context, sow *models.CropSow) error {
	unitCost := sow.IncurredCosts.Div(*sow.ActualYieldQuantity)
	ref := &models.Reference{Kind: models.RefCropSow, ID: sow.ID}

	stock, err := s.agro.Receive(ctx, agro.Receipt{
		Crop:      sow.Crop,
		Variety:   sow.Variety,
		Quantity:  *sow.ActualYieldQuantity,
		UnitCost:  unitCost,
		TotalCost: sow.IncurredCosts,
		Unit:      sow.ActualYieldUnit,
		Source:    models.SourceHarvest,
		Reference: ref,
	})
	if err != nil {
		return err
	}

	if err := s.postHarvest(ctx, sow, ref); err != nil {
		return err
	}

	harvestedAt := s.now()
	sow.Active = false
	sow.HarvestedAt = &harvestedAt
	sow.AgroInventory = &stock.ID
	return nil
}

// postHarvest moves the seed cost from the seed item's inventory account to
// the crop's inventory account when both exist.
func (s *Service) postHarvest(ctx context.Context, sow *models.CropSow, ref *models.Reference) error {
	if !sow.IncurredCosts.IsPositive() {
		return nil
	}
	crop, err := s.store.Crops().FindByID(ctx, sow.Crop)
	if err != nil {
		return service.Missing(err, "crop")
	}
	seed, err := s.store.Items().FindByID(ctx, sow.Seed)
	if err != nil {
		return service.Missing(err, "seed item")
	}
	if crop.InventoryAccount == nil || seed.InventoryAccount == nil {
		s.logger.Debug("harvest journal skipped, account missing", zap.String("crop_sow", sow.ID.Hex()))
		return nil
	}

	_, err = s.ledger.Post(ctx, ledger.Journal{
		Memo:      fmt.Sprintf("Harvest of %s", crop.Name),
		Reference: ref,
		Lines: []ledger.Line{
			{Account: *crop.InventoryAccount, Debit: sow.IncurredCosts},
			{Account: *seed.InventoryAccount, Credit: sow.IncurredCosts},
		},
	})
	return err
}

func (s *Service) checkReferences(ctx context.Context, sow *models.CropSow) error {
	if _, err := s.store.Crops().FindByID(ctx, sow.Crop); err != nil {
		return service.Missing(err, "crop")
	}
	variety, err := s.store.Varieties().FindByID(ctx, sow.Variety)
	if err != nil {
		return service.Missing(err, "crop variety")
	}
	if variety.Crop != sow.Crop {
		return models.Validationf("variety %q does not belong to the crop", variety.Name)
	}
	if _, err := s.store.Farmers().FindByID(ctx, sow.Farmer); err != nil {
		return service.Missing(err, "farmer")
	}
	if _, err := s.store.Lands().FindByID(ctx, sow.Land); err != nil {
		return service.Missing(err, "land")
	}
	if _, err := s.store.Items().FindByID(ctx, sow.Seed); err != nil {
		return service.Missing(err, "seed item")
	}
	return nil
}

func (s *Service) checkLandFree(ctx context.Context, land, self primitive.ObjectID) error {
	other, err := s.store.CropSows().FindOne(ctx, repository.Filter{"land": land, "active": true})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check land occupancy: %w", err)
	case other.ID != self:
		return errLandTaken
	}
	return nil
}

func (s *Service) seedWithdrawal(sow *models.CropSow, seed primitive.ObjectID, qty decimal.Decimal) inventory.Withdrawal {
	return inventory.Withdrawal{
		Item:      seed,
		Owner:     models.OwnerAgriculture,
		Quantity:  qty,
		Reason:    models.RemovalUsage,
		Reference: &models.Reference{Kind: models.RefCropSow, ID: sow.ID},
	}
}

func (s *Service) seedReturn(sow *models.CropSow, seed primitive.ObjectID, qty, unitCost decimal.Decimal) inventory.Receipt {
	return inventory.Receipt{
		Item:      seed,
		Owner:     models.OwnerAgriculture,
		Quantity:  qty,
		UnitCost:  unitCost,
		Reason:    reasonReturn,
		Reference: &models.Reference{Kind: models.RefCropSow, ID: sow.ID},
	}
}

func checkDates(sowing, expected time.Time) error {
	if sowing.IsZero() || expected.IsZero() {
		return models.Validationf("seedSowingDate and expectedHarvestDate are required")
	}
	if !expected.After(sowing) {
		return models.Validationf("expectedHarvestDate must be after seedSowingDate")
	}
	return nil
}

func checkHarvest(sow *models.CropSow) error {
	switch {
	case sow.ActualYieldQuantity == nil || !sow.ActualYieldQuantity.IsPositive():
		return models.Validationf("actualYieldQuantity is required to harvest")
	case sow.ActualYieldUnit == "":
		return models.Validationf("actualYieldUnit is required to harvest")
	case sow.FairValuePerUnit == nil || sow.FairValuePerUnit.IsNegative():
		return models.Validationf("fairValuePerUnit is required to harvest")
	}
	return nil
}

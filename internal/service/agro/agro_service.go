// Package agro manages harvested crop stock per crop variety.
package agro

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/costing"
	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/service"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// AddRequest is the payload of a purchased agro stock receipt.
type AddRequest struct {
	Crop         primitive.ObjectID `json:"crop" binding:"required"`
	Variety      primitive.ObjectID `json:"variety" binding:"required"`
	Quantity     decimal.Decimal    `json:"quantity"`
	ValuePerUnit decimal.Decimal    `json:"valuePerUnit"`
	Unit         string             `json:"unit,omitempty"`
	Notes        string             `json:"notes,omitempty"`
}

// RemoveRequest is the payload of an agro stock removal.
type RemoveRequest struct {
	Crop       primitive.ObjectID   `json:"crop" binding:"required"`
	Variety    primitive.ObjectID   `json:"variety" binding:"required"`
	Quantity   decimal.Decimal      `json:"quantity"`
	Reason     models.RemovalReason `json:"reason" binding:"required"`
	SaleAmount *decimal.Decimal     `json:"saleAmount,omitempty"`
	Notes      string               `json:"notes,omitempty"`
}

// AdjustRequest corrects a stock record. Omitted fields are kept.
type AdjustRequest struct {
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	AverageCost *decimal.Decimal `json:"averageCost,omitempty"`
	Unit        *string          `json:"unit,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// Receipt merges output into a crop variety's stock.
type Receipt struct {
	Crop      primitive.ObjectID
	Variety   primitive.ObjectID
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	// TotalCost, when set, is booked instead of Quantity x UnitCost.
	TotalCost decimal.Decimal
	Unit      string
	Source    models.CostSource
	Reference *models.Reference
	Notes     string
}

// Service implements agro stock operations.
type Service struct {
	store  repository.Store
	logger *zap.Logger
}

// NewService wires a new agro inventory service instance.
func NewService(store repository.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Add records purchased output.
func (s *Service) Add(ctx context.Context, req AddRequest) (*models.AgroInventory, error) {
	var stock *models.AgroInventory
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		var err error
		stock, err = s.Receive(ctx, Receipt{
			Crop:     req.Crop,
			Variety:  req.Variety,
			Quantity: req.Quantity,
			UnitCost: req.ValuePerUnit,
			Unit:     req.Unit,
			Source:   models.SourcePurchase,
			Notes:    req.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("agro stock added",
		zap.String("crop", req.Crop.Hex()),
		zap.String("variety", req.Variety.Hex()),
		zap.String("quantity", req.Quantity.String()))
	return stock, nil
}

// Receive merges a receipt into the crop variety's stock at weighted-average
// cost and records it in the production cost breakdown. It joins the caller's
// transaction.
func (s *Service) Receive(ctx context.Context, r Receipt) (*models.AgroInventory, error) {
	if err := s.checkVariety(ctx, r.Crop, r.Variety); err != nil {
		return nil, err
	}

	stock, err := s.find(ctx, r.Crop, r.Variety)
	if err != nil {
		return nil, err
	}
	var pos costing.Position
	total := r.TotalCost
	if total.IsZero() {
		total = r.Quantity.Mul(r.UnitCost)
		pos, err = stock.Position().Add(r.Quantity, r.UnitCost)
	} else {
		pos, err = stock.Position().AddTotal(r.Quantity, total)
	}
	if err != nil {
		return nil, service.Costing(err)
	}
	stock.Apply(pos)
	if r.Unit != "" {
		stock.Unit = r.Unit
	}

	component := models.CostComponent{
		Source:    r.Source,
		Quantity:  r.Quantity,
		UnitCost:  r.UnitCost,
		TotalCost: total,
		Date:      timeNow(),
	}
	if r.Reference != nil {
		component.Reference = &r.Reference.ID
	}
	stock.ProductionCostBreakdown = append(stock.ProductionCostBreakdown, component)

	if err := s.save(ctx, stock); err != nil {
		return nil, err
	}
	if err := s.record(ctx, stock, models.DirectionIn, string(r.Source), r.Quantity, r.UnitCost, component.TotalCost, nil, r.Reference, r.Notes); err != nil {
		return nil, err
	}
	return stock, nil
}

// Remove consumes agro stock at the current average cost.
func (s *Service) Remove(ctx context.Context, req RemoveRequest) (*models.AgroInventory, error) {
	if !req.Reason.Valid() {
		return nil, models.Validationf("invalid removal reason %q", req.Reason)
	}
	if req.Reason == models.RemovalSale && (req.SaleAmount == nil || !req.SaleAmount.IsPositive()) {
		return nil, models.Validationf("saleAmount is required for sales")
	}

	var stock *models.AgroInventory
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		var err error
		stock, err = s.find(ctx, req.Crop, req.Variety)
		if err != nil {
			return err
		}
		pos, cost, err := stock.Position().Remove(req.Quantity)
		if err != nil {
			return service.Costing(err)
		}
		unitCost := stock.AverageCost
		stock.Apply(pos)

		if err := s.save(ctx, stock); err != nil {
			return err
		}
		return s.record(ctx, stock, models.DirectionOut, string(req.Reason), req.Quantity, unitCost, cost, req.SaleAmount, nil, req.Notes)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("agro stock removed",
		zap.String("crop", req.Crop.Hex()),
		zap.String("variety", req.Variety.Hex()),
		zap.String("reason", string(req.Reason)),
		zap.String("quantity", req.Quantity.String()))
	return stock, nil
}

// Adjust corrects quantity, average cost, unit or notes. Total cost is
// recomputed as quantity × average cost.
func (s *Service) Adjust(ctx context.Context, id primitive.ObjectID, req AdjustRequest) (*models.AgroInventory, error) {
	if req.Quantity != nil && req.Quantity.IsNegative() {
		return nil, models.Validationf("quantity must not be negative")
	}
	if req.AverageCost != nil && req.AverageCost.IsNegative() {
		return nil, models.Validationf("averageCost must not be negative")
	}

	var stock *models.AgroInventory
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		var err error
		stock, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		before := stock.Quantity

		if req.Quantity != nil {
			stock.Quantity = *req.Quantity
		}
		if req.AverageCost != nil {
			stock.AverageCost = *req.AverageCost
		}
		if req.Unit != nil {
			stock.Unit = *req.Unit
		}
		if req.Notes != nil {
			stock.Notes = *req.Notes
		}
		stock.TotalCost = stock.Quantity.Mul(stock.AverageCost)

		delta := stock.Quantity.Sub(before)
		if !delta.IsZero() {
			stock.ProductionCostBreakdown = append(stock.ProductionCostBreakdown, models.CostComponent{
				Source:    models.SourceAdjustment,
				Quantity:  delta,
				UnitCost:  stock.AverageCost,
				TotalCost: delta.Mul(stock.AverageCost),
				Date:      timeNow(),
			})
		}

		if err := s.save(ctx, stock); err != nil {
			return err
		}
		if delta.IsZero() {
			return nil
		}
		direction := models.DirectionIn
		if delta.IsNegative() {
			direction = models.DirectionOut
		}
		qty := delta.Abs()
		return s.record(ctx, stock, direction, string(models.SourceAdjustment), qty, stock.AverageCost, qty.Mul(stock.AverageCost), nil, nil, "")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("agro stock adjusted", zap.String("id", id.Hex()), zap.String("quantity", stock.Quantity.String()))
	return stock, nil
}

// Delete removes an emptied stock record.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		stock, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if !stock.Quantity.IsZero() {
			return models.Validationf("cannot delete agro inventory holding %s %s", stock.Quantity, stock.Unit)
		}
		if err := s.store.AgroInventories().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete agro inventory: %w", err)
		}
		return nil
	})
}

// Get loads one stock record.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.AgroInventory, error) {
	stock, err := s.store.AgroInventories().FindByID(ctx, id)
	if err != nil {
		return nil, service.Missing(err, "agro inventory")
	}
	return stock, nil
}

// List returns agro stock records.
func (s *Service) List(ctx context.Context, page models.Page) ([]models.AgroInventory, int64, error) {
	stocks, total, err := s.store.AgroInventories().Find(ctx, nil, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list agro inventory: %w", err)
	}
	return stocks, total, nil
}

func (s *Service) checkVariety(ctx context.Context, crop, variety primitive.ObjectID) error {
	if _, err := s.store.Crops().FindByID(ctx, crop); err != nil {
		return service.Missing(err, "crop")
	}
	v, err := s.store.Varieties().FindByID(ctx, variety)
	if err != nil {
		return service.Missing(err, "crop variety")
	}
	if v.Crop != crop {
		return models.Validationf("variety %q does not belong to the crop", v.Name)
	}
	return nil
}

func (s *Service) find(ctx context.Context, crop, variety primitive.ObjectID) (*models.AgroInventory, error) {
	stock, err := s.store.AgroInventories().FindOne(ctx, repository.Filter{"crop": crop, "variety": variety})
	if errors.Is(err, repository.ErrNotFound) {
		return &models.AgroInventory{Crop: crop, Variety: variety, ProductionCostBreakdown: []models.CostComponent{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load agro inventory: %w", err)
	}
	return stock, nil
}

func (s *Service) save(ctx context.Context, stock *models.AgroInventory) error {
	var err error
	if stock.ID.IsZero() {
		err = s.store.AgroInventories().Insert(ctx, stock)
	} else {
		err = s.store.AgroInventories().Replace(ctx, stock)
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return repository.ErrStaleVersion
	}
	if err != nil && !errors.Is(err, repository.ErrStaleVersion) {
		return fmt.Errorf("save agro inventory: %w", err)
	}
	return err
}

func (s *Service) record(ctx context.Context, stock *models.AgroInventory, dir models.Direction, reason string, qty, unitCost, total decimal.Decimal, sale *decimal.Decimal, ref *models.Reference, notes string) error {
	mv := &models.StockMovement{
		Ledger:        models.LedgerAgro,
		Stock:         stock.ID,
		Crop:          &stock.Crop,
		Variety:       &stock.Variety,
		Direction:     dir,
		Reason:        reason,
		Quantity:      qty,
		UnitCost:      unitCost,
		TotalCost:     total,
		QuantityAfter: stock.Quantity,
		SaleAmount:    sale,
		Reference:     ref,
		Notes:         notes,
	}
	if err := s.store.Movements().Insert(ctx, mv); err != nil {
		return fmt.Errorf("record agro movement: %w", err)
	}
	return nil
}

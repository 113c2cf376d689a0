// Package inventory keeps per-owner item stock at moving weighted-average cost.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/service"
)

// AddRequest is the payload of a stock receipt.
type AddRequest struct {
	Item         primitive.ObjectID  `json:"item" binding:"required"`
	Owner        models.Owner        `json:"owner" binding:"required"`
	Quantity     decimal.Decimal     `json:"quantity"`
	ValuePerUnit decimal.Decimal     `json:"valuePerUnit"`
	Supplier     *primitive.ObjectID `json:"supplier,omitempty"`
	Notes        string              `json:"notes,omitempty"`
}

// RemoveRequest is the payload of a stock removal. SaleAmount is required for sales.
type RemoveRequest struct {
	Item       primitive.ObjectID   `json:"item" binding:"required"`
	Owner      models.Owner         `json:"owner" binding:"required"`
	Quantity   decimal.Decimal      `json:"quantity"`
	Reason     models.RemovalReason `json:"reason" binding:"required"`
	SaleAmount *decimal.Decimal     `json:"saleAmount,omitempty"`
	Notes      string               `json:"notes,omitempty"`
}

// Receipt adds stock on behalf of another operation.
type Receipt struct {
	Item      primitive.ObjectID
	Owner     models.Owner
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Reason    string
	Supplier  *primitive.ObjectID
	Reference *models.Reference
	Notes     string
}

// Withdrawal takes stock out on behalf of another operation.
type Withdrawal struct {
	Item       primitive.ObjectID
	Owner      models.Owner
	Quantity   decimal.Decimal
	Reason     models.RemovalReason
	SaleAmount *decimal.Decimal
	Reference  *models.Reference
	Notes      string
}

// MovementFilter narrows the movement history.
type MovementFilter struct {
	Item  *primitive.ObjectID
	Owner models.Owner
}

// Service implements stock receipts, removals and reads.
type Service struct {
	store  repository.Store
	logger *zap.Logger
}

// NewService wires a new inventory service instance.
func NewService(store repository.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// AddStock merges a receipt into the owner's stock of an item.
func (s *Service) AddStock(ctx context.Context, req AddRequest) (*models.Inventory, error) {
	if !req.Owner.Valid() {
		return nil, models.Validationf("invalid owner %q", req.Owner)
	}
	if req.Supplier != nil {
		if _, err := s.store.Suppliers().FindByID(ctx, *req.Supplier); err != nil {
			return nil, service.Missing(err, "supplier")
		}
	}

	var inv *models.Inventory
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		var err error
		inv, err = s.Receive(ctx, Receipt{
			Item:     req.Item,
			Owner:    req.Owner,
			Quantity: req.Quantity,
			UnitCost: req.ValuePerUnit,
			Reason:   models.RefPurchase,
			Supplier: req.Supplier,
			Notes:    req.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock added",
		zap.String("item", req.Item.Hex()),
		zap.String("owner", string(req.Owner)),
		zap.String("quantity", req.Quantity.String()),
		zap.String("average_cost", inv.AverageCost.String()))
	return inv, nil
}

// RemoveStock consumes stock at the current average cost.
func (s *Service) RemoveStock(ctx context.Context, req RemoveRequest) (*models.Inventory, error) {
	if !req.Owner.Valid() {
		return nil, models.Validationf("invalid owner %q", req.Owner)
	}
	if !req.Reason.Valid() {
		return nil, models.Validationf("invalid removal reason %q", req.Reason)
	}
	if req.Reason == models.RemovalSale && (req.SaleAmount == nil || !req.SaleAmount.IsPositive()) {
		return nil, models.Validationf("saleAmount is required for sales")
	}

	var inv *models.Inventory
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		var err error
		inv, _, err = s.Withdraw(ctx, Withdrawal{
			Item:       req.Item,
			Owner:      req.Owner,
			Quantity:   req.Quantity,
			Reason:     req.Reason,
			SaleAmount: req.SaleAmount,
			Notes:      req.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock removed",
		zap.String("item", req.Item.Hex()),
		zap.String("owner", string(req.Owner)),
		zap.String("reason", string(req.Reason)),
		zap.String("quantity", req.Quantity.String()))
	return inv, nil
}

// Receive adds stock and records the movement. It joins the caller's transaction.
func (s *Service) Receive(ctx context.Context, r Receipt) (*models.Inventory, error) {
	if _, err := s.store.Items().FindByID(ctx, r.Item); err != nil {
		return nil, service.Missing(err, "item")
	}

	inv, err := s.find(ctx, r.Item, r.Owner)
	if err != nil {
		return nil, err
	}
	pos, err := inv.Position().Add(r.Quantity, r.UnitCost)
	if err != nil {
		return nil, service.Costing(err)
	}
	inv.Apply(pos)

	if err := s.save(ctx, inv); err != nil {
		return nil, err
	}

	mv := &models.StockMovement{
		Ledger:        models.LedgerInventory,
		Stock:         inv.ID,
		Item:          &inv.Item,
		Owner:         inv.Owner,
		Direction:     models.DirectionIn,
		Reason:        r.Reason,
		Quantity:      r.Quantity,
		UnitCost:      r.UnitCost,
		TotalCost:     r.Quantity.Mul(r.UnitCost),
		QuantityAfter: inv.Quantity,
		Supplier:      r.Supplier,
		Reference:     r.Reference,
		Notes:         r.Notes,
	}
	if err := s.store.Movements().Insert(ctx, mv); err != nil {
		return nil, fmt.Errorf("record stock movement: %w", err)
	}
	return inv, nil
}

// Withdraw removes stock, records the movement and returns the value taken out.
// A missing stock record counts as empty. It joins the caller's transaction.
func (s *Service) Withdraw(ctx context.Context, w Withdrawal) (*models.Inventory, decimal.Decimal, error) {
	if _, err := s.store.Items().FindByID(ctx, w.Item); err != nil {
		return nil, decimal.Zero, service.Missing(err, "item")
	}

	inv, err := s.find(ctx, w.Item, w.Owner)
	if err != nil {
		return nil, decimal.Zero, err
	}
	pos, cost, err := inv.Position().Remove(w.Quantity)
	if err != nil {
		return nil, decimal.Zero, service.Costing(err)
	}
	unitCost := inv.AverageCost
	inv.Apply(pos)

	if err := s.save(ctx, inv); err != nil {
		return nil, decimal.Zero, err
	}

	mv := &models.StockMovement{
		Ledger:        models.LedgerInventory,
		Stock:         inv.ID,
		Item:          &inv.Item,
		Owner:         inv.Owner,
		Direction:     models.DirectionOut,
		Reason:        string(w.Reason),
		Quantity:      w.Quantity,
		UnitCost:      unitCost,
		TotalCost:     cost,
		QuantityAfter: inv.Quantity,
		SaleAmount:    w.SaleAmount,
		Reference:     w.Reference,
		Notes:         w.Notes,
	}
	if err := s.store.Movements().Insert(ctx, mv); err != nil {
		return nil, decimal.Zero, fmt.Errorf("record stock movement: %w", err)
	}
	return inv, cost, nil
}

// Get loads one stock record.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Inventory, error) {
	inv, err := s.store.Inventories().FindByID(ctx, id)
	if err != nil {
		return nil, service.Missing(err, "inventory")
	}
	return inv, nil
}

// Find loads the stock an owner holds of an item.
func (s *Service) Find(ctx context.Context, item primitive.ObjectID, owner models.Owner) (*models.Inventory, error) {
	inv, err := s.store.Inventories().FindOne(ctx, repository.Filter{"item": item, "owner": owner})
	if err != nil {
		return nil, service.Missing(err, "inventory")
	}
	return inv, nil
}

// List returns stock records, optionally for one owner.
func (s *Service) List(ctx context.Context, owner models.Owner, page models.Page) ([]models.Inventory, int64, error) {
	filter := repository.Filter{}
	if owner != "" {
		if !owner.Valid() {
			return nil, 0, models.Validationf("invalid owner %q", owner)
		}
		filter["owner"] = owner
	}
	items, total, err := s.store.Inventories().Find(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list inventory: %w", err)
	}
	return items, total, nil
}

// Movements returns the audit trail of item stock, newest first.
func (s *Service) Movements(ctx context.Context, f MovementFilter, page models.Page) ([]models.StockMovement, int64, error) {
	filter := repository.Filter{"ledger": models.LedgerInventory}
	if f.Item != nil {
		filter["item"] = *f.Item
	}
	if f.Owner != "" {
		filter["owner"] = f.Owner
	}
	mvs, total, err := s.store.Movements().Find(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock movements: %w", err)
	}
	return mvs, total, nil
}

// LowStock lists stock at or below its item threshold but not empty.
func (s *Service) LowStock(ctx context.Context) ([]models.LowStockRow, error) {
	rows, err := s.store.Reports().LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("low stock report: %w", err)
	}
	return rows, nil
}

// find returns the stock record for item and owner or a fresh empty one.
func (s *Service) find(ctx context.Context, item primitive.ObjectID, owner models.Owner) (*models.Inventory, error) {
	inv, err := s.store.Inventories().FindOne(ctx, repository.Filter{"item": item, "owner": owner})
	if errors.Is(err, repository.ErrNotFound) {
		return &models.Inventory{Item: item, Owner: owner}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return inv, nil
}

func (s *Service) save(ctx context.Context, inv *models.Inventory) error {
	var err error
	if inv.ID.IsZero() {
		err = s.store.Inventories().Insert(ctx, inv)
	} else {
		err = s.store.Inventories().Replace(ctx, inv)
	}
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent receipt created the record first; retry against it.
		return repository.ErrStaleVersion
	}
	if err != nil && !errors.Is(err, repository.ErrStaleVersion) {
		return fmt.Errorf("save inventory: %w", err)
	}
	return err
}

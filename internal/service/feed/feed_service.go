// Package feed logs feed given to cattle. Each usage draws cattle-owned stock
// and moves its cost to Cost of Goods Sold in one transaction.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/service"
	"github.com/mamadbah2/farmerp/internal/service/inventory"
	"github.com/mamadbah2/farmerp/internal/service/ledger"
)

// LogRequest is the payload of a feed usage.
type LogRequest struct {
	CattleID     primitive.ObjectID `json:"cattleId" binding:"required"`
	ProductID    primitive.ObjectID `json:"productId" binding:"required"`
	QuantityUsed decimal.Decimal    `json:"quantityUsed"`
	Operator     string             `json:"operator" binding:"required"`
	Date         *time.Time         `json:"date,omitempty"`
	Notes        string             `json:"notes,omitempty"`
}

// ListFilter narrows the usage history.
type ListFilter struct {
	Cattle *primitive.ObjectID
	From   *time.Time
	To     *time.Time
}

// Service records feed usage.
type Service struct {
	store     repository.Store
	inventory *inventory.Service
	ledger    *ledger.Service
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new feed usage service instance.
func NewService(store repository.Store, inv *inventory.Service, ledgerSvc *ledger.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		inventory: inv,
		ledger:    ledgerSvc,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Log deducts the feed from cattle stock at its average cost, posts
// Dr Cost of Goods Sold / Cr the item's inventory account and stores the usage.
// Nothing is written unless every step succeeds.
func (s *Service) Log(ctx context.Context, req LogRequest) (*models.FeedUsage, error) {
	if !req.QuantityUsed.IsPositive() {
		return nil, models.Validationf("quantityUsed must be greater than zero")
	}
	operator := strings.TrimSpace(req.Operator)
	if operator == "" {
		return nil, models.Validationf("operator is required")
	}

	var usage *models.FeedUsage
	err := repository.Atomically(ctx, s.store, func(ctx context.Context) error {
		cattle, err := s.store.Cattle().FindByID(ctx, req.CattleID)
		if err != nil {
			return service.Missing(err, "cattle")
		}
		if cattle.Status != models.CattleActive {
			return models.Validationf("cattle %s has exited the register", cattle.TagNumber)
		}

		usage = &models.FeedUsage{
			Cattle:       req.CattleID,
			Product:      req.ProductID,
			QuantityUsed: req.QuantityUsed,
			Operator:     operator,
			Date:         s.now(),
			Notes:        req.Notes,
		}
		usage.ID = primitive.NewObjectID()
		if req.Date != nil {
			usage.Date = req.Date.UTC()
		}
		ref := &models.Reference{Kind: models.RefFeedUsage, ID: usage.ID}

		_, cost, err := s.inventory.Withdraw(ctx, inventory.Withdrawal{
			Item:      req.ProductID,
			Owner:     models.OwnerCattle,
			Quantity:  req.QuantityUsed,
			Reason:    models.RemovalUsage,
			Reference: ref,
		})
		if err != nil {
			return err
		}
		usage.Cost = cost

		item, err := s.store.Items().FindByID(ctx, req.ProductID)
		if err != nil {
			return service.Missing(err, "item")
		}
		if item.InventoryAccount == nil {
			return models.Validationf("item %q has no inventory account", item.Name)
		}

		if cost.IsPositive() {
			cogs, err := s.ledger.EnsureAccount(ctx, models.AccountCOGS, models.AccountExpense, nil)
			if err != nil {
				return err
			}
			usage.JournalID, err = s.ledger.Post(ctx, ledger.Journal{
				Memo:      fmt.Sprintf("Feed %s to %s", item.Name, cattle.TagNumber),
				Reference: ref,
				Lines: []ledger.Line{
					{Account: cogs.ID, Debit: cost},
					{Account: *item.InventoryAccount, Credit: cost},
				},
			})
			if err != nil {
				return err
			}
		}

		if err := s.store.FeedUsages().Insert(ctx, usage); err != nil {
			return fmt.Errorf("insert feed usage: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("feed usage logged",
		zap.String("cattle", req.CattleID.Hex()),
		zap.String("product", req.ProductID.Hex()),
		zap.String("quantity", req.QuantityUsed.String()),
		zap.String("cost", usage.Cost.String()),
		zap.String("journal_id", usage.JournalID))
	return usage, nil
}

// List returns usages, newest first.
func (s *Service) List(ctx context.Context, f ListFilter, page models.Page) ([]models.FeedUsage, int64, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, models.Validationf("toDate must not be before fromDate")
	}

	filter := repository.Filter{}
	if f.Cattle != nil {
		filter["cattleId"] = *f.Cattle
	}
	if f.From != nil || f.To != nil {
		filter["date"] = repository.Range{From: f.From, To: f.To}
	}
	usages, total, err := s.store.FeedUsages().Find(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list feed usage: %w", err)
	}
	return usages, total, nil
}

// Package dashboard serves the read-side rollups of the agriculture screens.
package dashboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/cache"
	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

// Service computes dashboard figures.
type Service struct {
	store  repository.Store
	cache  *cache.Cache
	logger *zap.Logger
}

// NewService wires a new dashboard service instance. cache may be nil.
func NewService(store repository.Store, c *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: c, logger: logger}
}

// Agriculture returns the headline summary and a page of assignments joined
// with their crop, variety, farmer and land names.
func (s *Service) Agriculture(ctx context.Context, page models.Page) (models.AgricultureSummary, []models.AssignmentRow, int64, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return summary, nil, 0, err
	}
	rows, total, err := s.store.Reports().AssignmentRows(ctx, page)
	if err != nil {
		return summary, nil, 0, fmt.Errorf("assignment rows: %w", err)
	}
	return summary, rows, total, nil
}

// Summary counts the registers and values agro stock.
func (s *Service) Summary(ctx context.Context) (models.AgricultureSummary, error) {
	return cache.Remember(ctx, s.cache, "dashboard:summary", s.summary)
}

func (s *Service) summary(ctx context.Context) (models.AgricultureSummary, error) {
	var (
		out models.AgricultureSummary
		err error
	)
	counts := []struct {
		what  string
		dst   *int64
		count func(context.Context, repository.Filter) (int64, error)
		where repository.Filter
	}{
		{"farmers", &out.Farmers, s.store.Farmers().Count, nil},
		{"lands", &out.Lands, s.store.Lands().Count, nil},
		{"crops", &out.Crops, s.store.Crops().Count, nil},
		{"active assignments", &out.ActiveAssignments, s.store.CropSows().Count, repository.Filter{"active": true}},
	}
	for _, c := range counts {
		if *c.dst, err = c.count(ctx, c.where); err != nil {
			return out, fmt.Errorf("count %s: %w", c.what, err)
		}
	}

	reports := s.store.Reports()
	if out.ByStatus, err = reports.AssignmentStatusCounts(ctx); err != nil {
		return out, fmt.Errorf("assignment status counts: %w", err)
	}
	for _, status := range []models.CropStatus{models.StatusSown, models.StatusGrowing, models.StatusHarvested} {
		if _, ok := out.ByStatus[status]; !ok {
			out.ByStatus[status] = 0
		}
	}
	if out.AgroStockValue, err = reports.AgroStockValue(ctx); err != nil {
		return out, fmt.Errorf("agro stock value: %w", err)
	}
	low, err := reports.LowStock(ctx)
	if err != nil {
		return out, fmt.Errorf("low stock: %w", err)
	}
	out.LowStockItems = len(low)
	return out, nil
}

// Yield rolls up harvested output and cost per crop.
func (s *Service) Yield(ctx context.Context) ([]models.CropYield, error) {
	return cache.Remember(ctx, s.cache, "dashboard:yield", func(ctx context.Context) ([]models.CropYield, error) {
		rows, err := s.store.Reports().YieldByCrop(ctx)
		if err != nil {
			return nil, fmt.Errorf("yield by crop: %w", err)
		}
		return rows, nil
	})
}

// LowStock lists non-empty stock at or below its threshold. It is never cached.
func (s *Service) LowStock(ctx context.Context) ([]models.LowStockRow, error) {
	rows, err := s.store.Reports().LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return rows, nil
}

package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

var all = models.Page{All: true}

type reports struct {
	s *Store
}

func (r *reports) AssignmentStatusCounts(ctx context.Context) (map[models.CropStatus]int64, error) {
	sows, _, err := r.s.cropSows.Find(ctx, nil, all)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.CropStatus]int64)
	for _, sow := range sows {
		counts[sow.CropStatus]++
	}
	return counts, nil
}

func (r *reports) AssignmentRows(ctx context.Context, page models.Page) ([]models.AssignmentRow, int64, error) {
	sows, total, err := r.s.cropSows.Find(ctx, nil, page)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]models.AssignmentRow, 0, len(sows))
	for _, sow := range sows {
		row := models.AssignmentRow{
			ID:                  sow.ID,
			Quantity:            sow.Quantity,
			CropStatus:          sow.CropStatus,
			IncurredCosts:       sow.IncurredCosts,
			SeedSowingDate:      sow.SeedSowingDate,
			ExpectedHarvestDate: sow.ExpectedHarvestDate,
		}
		if crop, err := r.s.crops.FindByID(ctx, sow.Crop); err == nil {
			row.CropName = crop.Name
		}
		if variety, err := r.s.varieties.FindByID(ctx, sow.Variety); err == nil {
			row.VarietyName = variety.Name
		}
		if farmer, err := r.s.farmers.FindByID(ctx, sow.Farmer); err == nil {
			row.FarmerName = farmer.Name
		}
		if land, err := r.s.lands.FindByID(ctx, sow.Land); err == nil {
			row.LandName = land.Name
		}
		rows = append(rows, row)
	}
	return rows, total, nil
}

func (r *reports) YieldByCrop(ctx context.Context) ([]models.CropYield, error) {
	sows, _, err := r.s.cropSows.Find(ctx, repository.Filter{"cropStatus": models.StatusHarvested}, all)
	if err != nil {
		return nil, err
	}

	byCrop := make(map[primitive.ObjectID]*models.CropYield)
	for _, sow := range sows {
		y, ok := byCrop[sow.Crop]
		if !ok {
			y = &models.CropYield{Crop: sow.Crop}
			if crop, err := r.s.crops.FindByID(ctx, sow.Crop); err == nil {
				y.CropName = crop.Name
			}
			byCrop[sow.Crop] = y
		}
		y.Harvests++
		if sow.ActualYieldQuantity != nil {
			y.YieldQuantity = y.YieldQuantity.Add(*sow.ActualYieldQuantity)
		}
		y.IncurredCosts = y.IncurredCosts.Add(sow.IncurredCosts)
	}

	out := make([]models.CropYield, 0, len(byCrop))
	for _, y := range byCrop {
		out = append(out, *y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CropName < out[j].CropName })
	return out, nil
}

func (r *reports) AgroStockValue(ctx context.Context) (decimal.Decimal, error) {
	stocks, _, err := r.s.agroInventories.Find(ctx, nil, all)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, st := range stocks {
		total = total.Add(st.TotalCost)
	}
	return total, nil
}

func (r *reports) LowStock(ctx context.Context) ([]models.LowStockRow, error) {
	stocks, _, err := r.s.inventories.Find(ctx, nil, all)
	if err != nil {
		return nil, err
	}

	out := []models.LowStockRow{}
	for _, st := range stocks {
		item, err := r.s.items.FindByID(ctx, st.Item)
		if err != nil {
			continue
		}
		if !st.Quantity.IsPositive() || st.Quantity.GreaterThan(item.LowStockThreshold) {
			continue
		}
		out = append(out, models.LowStockRow{
			Inventory: st.ID,
			Item:      item.ID,
			ItemName:  item.Name,
			Unit:      item.Unit,
			Owner:     st.Owner,
			Quantity:  st.Quantity,
			Threshold: item.LowStockThreshold,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, nil
}

func (r *reports) InventoryValuation(ctx context.Context, owner models.Owner) ([]models.ValuationRow, error) {
	filter := repository.Filter{}
	if owner != "" {
		filter["owner"] = owner
	}
	stocks, _, err := r.s.inventories.Find(ctx, filter, all)
	if err != nil {
		return nil, err
	}

	out := make([]models.ValuationRow, 0, len(stocks))
	for _, st := range stocks {
		row := models.ValuationRow{
			Inventory:   st.ID,
			Owner:       st.Owner,
			Quantity:    st.Quantity,
			AverageCost: st.AverageCost,
			TotalCost:   st.TotalCost,
		}
		if item, err := r.s.items.FindByID(ctx, st.Item); err == nil {
			row.ItemName, row.Category, row.Unit = item.Name, item.Category, item.Unit
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		return out[i].Owner < out[j].Owner
	})
	return out, nil
}

func (r *reports) AccountTotals(ctx context.Context, accounts []primitive.ObjectID) (map[primitive.ObjectID]repository.Totals, error) {
	out := make(map[primitive.ObjectID]repository.Totals, len(accounts))
	for _, id := range accounts {
		entries, _, err := r.s.ledgerEntries.Find(ctx, repository.Filter{"account": id}, all)
		if err != nil {
			return nil, err
		}
		var t repository.Totals
		for _, e := range entries {
			t.Debit = t.Debit.Add(e.Debit)
			t.Credit = t.Credit.Add(e.Credit)
		}
		out[id] = t
	}
	return out, nil
}

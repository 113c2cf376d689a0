package mongodb

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

type reports struct {
	db *mongo.Database
}

func (r *reports) aggregate(ctx context.Context, coll string, pipeline mongo.Pipeline, out any) error {
	cursor, err := r.db.Collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", coll, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s aggregation: %w", coll, err)
	}
	return nil
}

// lookupName joins coll on localField and exposes the joined document's name as field.
func lookupName(coll, localField, field string) []bson.D {
	tmp := field + "Doc"
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: coll},
			{Key: "localField", Value: localField},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: tmp},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: field, Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + tmp + ".name", 0}}}, "",
			}}}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: tmp, Value: 0}}}},
	}
}

func (r *reports) AssignmentStatusCounts(ctx context.Context) (map[models.CropStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$cropStatus"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	var rows []struct {
		Status models.CropStatus `bson:"_id"`
		Count  int64             `bson:"count"`
	}
	if err := r.aggregate(ctx, repository.CollCropSows, pipeline, &rows); err != nil {
		return nil, err
	}

	counts := make(map[models.CropStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *reports) AssignmentRows(ctx context.Context, page models.Page) ([]models.AssignmentRow, int64, error) {
	total, err := r.db.Collection(repository.CollCropSows).CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	pipeline := mongo.Pipeline{{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}}}
	if !page.All {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: page.Skip()}},
			bson.D{{Key: "$limit", Value: page.Normalized().Limit}},
		)
	}
	pipeline = append(pipeline, lookupName(repository.CollCrops, "crop", "cropName")...)
	pipeline = append(pipeline, lookupName(repository.CollVarieties, "variety", "varietyName")...)
	pipeline = append(pipeline, lookupName(repository.CollFarmers, "farmer", "farmerName")...)
	pipeline = append(pipeline, lookupName(repository.CollLands, "land", "landName")...)

	rows := make([]models.AssignmentRow, 0)
	if err := r.aggregate(ctx, repository.CollCropSows, pipeline, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *reports) YieldByCrop(ctx context.Context) ([]models.CropYield, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "cropStatus", Value: models.StatusHarvested}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$crop"},
			{Key: "harvests", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "yieldQuantity", Value: bson.D{{Key: "$sum", Value: "$actualYieldQuantity"}}},
			{Key: "incurredCosts", Value: bson.D{{Key: "$sum", Value: "$incurredCosts"}}},
		}}},
	}
	pipeline = append(pipeline, lookupName(repository.CollCrops, "_id", "cropName")...)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "cropName", Value: 1}}}})

	rows := make([]models.CropYield, 0)
	if err := r.aggregate(ctx, repository.CollCropSows, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reports) AgroStockValue(ctx context.Context) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$totalCost"}}},
		}}},
	}

	var rows []struct {
		Total decimal.Decimal `bson:"total"`
	}
	if err := r.aggregate(ctx, repository.CollAgroInventories, pipeline, &rows); err != nil {
		return decimal.Zero, err
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return rows[0].Total, nil
}

// joinItem embeds the item of an inventory record as itemDoc.
func joinItem(preserve bool) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: repository.CollItems},
			{Key: "localField", Value: "item"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "itemDoc"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$itemDoc"},
			{Key: "preserveNullAndEmptyArrays", Value: preserve},
		}}},
	}
}

func (r *reports) LowStock(ctx context.Context) ([]models.LowStockRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "quantity", Value: bson.D{{Key: "$gt", Value: 0}}}}}},
	}
	pipeline = append(pipeline, joinItem(false)...)
	pipeline = append(pipeline,
		bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{
			{Key: "$lte", Value: bson.A{"$quantity", "$itemDoc.lowStockThreshold"}},
		}}}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "item", Value: 1},
			{Key: "owner", Value: 1},
			{Key: "quantity", Value: 1},
			{Key: "itemName", Value: "$itemDoc.name"},
			{Key: "unit", Value: "$itemDoc.unit"},
			{Key: "threshold", Value: "$itemDoc.lowStockThreshold"},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "itemName", Value: 1}}}},
	)

	rows := make([]models.LowStockRow, 0)
	if err := r.aggregate(ctx, repository.CollInventories, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reports) InventoryValuation(ctx context.Context, owner models.Owner) ([]models.ValuationRow, error) {
	pipeline := mongo.Pipeline{}
	if owner != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "owner", Value: owner}}}})
	}
	pipeline = append(pipeline, joinItem(true)...)
	pipeline = append(pipeline,
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "owner", Value: 1},
			{Key: "quantity", Value: 1},
			{Key: "averageCost", Value: 1},
			{Key: "totalCost", Value: 1},
			{Key: "itemName", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$itemDoc.name", ""}}}},
			{Key: "category", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$itemDoc.category", ""}}}},
			{Key: "unit", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$itemDoc.unit", ""}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "itemName", Value: 1}, {Key: "owner", Value: 1}}}},
	)

	rows := make([]models.ValuationRow, 0)
	if err := r.aggregate(ctx, repository.CollInventories, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reports) AccountTotals(ctx context.Context, accounts []primitive.ObjectID) (map[primitive.ObjectID]repository.Totals, error) {
	out := make(map[primitive.ObjectID]repository.Totals, len(accounts))
	if len(accounts) == 0 {
		return out, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "account", Value: bson.D{{Key: "$in", Value: accounts}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$account"},
			{Key: "debit", Value: bson.D{{Key: "$sum", Value: "$debit"}}},
			{Key: "credit", Value: bson.D{{Key: "$sum", Value: "$credit"}}},
		}}},
	}

	var rows []struct {
		Account primitive.ObjectID `bson:"_id"`
		Debit   decimal.Decimal    `bson:"debit"`
		Credit  decimal.Decimal    `bson:"credit"`
	}
	if err := r.aggregate(ctx, repository.CollLedgerEntries, pipeline, &rows); err != nil {
		return nil, err
	}

	for _, id := range accounts {
		out[id] = repository.Totals{}
	}
	for _, row := range rows {
		out[row.Account] = repository.Totals{Debit: row.Debit, Credit: row.Credit}
	}
	return out, nil
}

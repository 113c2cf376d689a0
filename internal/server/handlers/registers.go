package handlers

import (
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/service/records"
)

// RecordHandlers serves every register.
type RecordHandlers struct {
	Farmers    *RecordHandler[models.Farmer]
	Lands      *RecordHandler[models.Land]
	Varieties  *RecordHandler[models.CropVariety]
	Suppliers  *RecordHandler[models.Supplier]
	Items      *RecordHandler[models.Item]
	Cattle     *RecordHandler[models.Cattle]
	ExitEvents *RecordHandler[models.ExitEvent]
}

// NewRecordHandlers wires a handler per register with its list filters.
func NewRecordHandlers(regs *records.Registers, logger *zap.Logger) RecordHandlers {
	logger = nopIfNil(logger)
	return RecordHandlers{
		Farmers: NewRecordHandler[models.Farmer](regs.Farmers, "Farmer", logger),
		Lands: NewRecordHandler[models.Land](regs.Lands, "Land", logger,
			QueryFilter{Param: "farmer", Field: "farmer", ObjectID: true}),
		Varieties: NewRecordHandler[models.CropVariety](regs.Varieties, "Crop variety", logger,
			QueryFilter{Param: "crop", Field: "crop", ObjectID: true}),
		Suppliers: NewRecordHandler[models.Supplier](regs.Suppliers, "Supplier", logger),
		Items: NewRecordHandler[models.Item](regs.Items, "Item", logger,
			QueryFilter{Param: "category", Field: "category"},
			QueryFilter{Param: "supplier", Field: "supplier", ObjectID: true}),
		Cattle: NewRecordHandler[models.Cattle](regs.Cattle, "Cattle", logger,
			QueryFilter{Param: "status", Field: "status"}),
		ExitEvents: NewRecordHandler[models.ExitEvent](regs.ExitEvents, "Exit event", logger,
			QueryFilter{Param: "cattle", Field: "cattle", ObjectID: true},
			QueryFilter{Param: "exitType", Field: "exitType"}),
	}
}

package records

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
	"github.com/mamadbah2/farmerp/internal/service"
)

// Registers groups the CRUD services.
type Registers struct {
	Farmers    *Service[models.Farmer]
	Lands      *Service[models.Land]
	Varieties  *Service[models.CropVariety]
	Suppliers  *Service[models.Supplier]
	Items      *Service[models.Item]
	Cattle     *Service[models.Cattle]
	ExitEvents *Service[models.ExitEvent]
}

// NewRegisters wires every register over store.
func NewRegisters(store repository.Store, logger *zap.Logger) *Registers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registers{
		Farmers:    newFarmers(store, logger),
		Lands:      newLands(store, logger),
		Varieties:  newVarieties(store, logger),
		Suppliers:  newSuppliers(store, logger),
		Items:      newItems(store, logger),
		Cattle:     newCattle(store, logger),
		ExitEvents: newExitEvents(store, logger),
	}
}

func newFarmers(store repository.Store, logger *zap.Logger) *Service[models.Farmer] {
	return &Service[models.Farmer]{
		what:   "farmer",
		store:  store,
		coll:   store.Farmers(),
		logger: logger,
		duplicate: func(f *models.Farmer) string {
			return fmt.Sprintf("a farmer with phone %s already exists", f.Phone)
		},
		hooks: Hooks[models.Farmer]{
			BeforeDelete: func(ctx context.Context, f *models.Farmer) error {
				return inUse(ctx, "active crop assignments", store.CropSows().Count, repository.Filter{"farmer": f.ID, "active": true})
			},
		},
	}
}

func newLands(store repository.Store, logger *zap.Logger) *Service[models.Land] {
	return &Service[models.Land]{
		what:   "land",
		store:  store,
		coll:   store.Lands(),
		logger: logger,
		duplicate: func(l *models.Land) string {
			return fmt.Sprintf("land %q already exists", l.Name)
		},
		hooks: Hooks[models.Land]{
			Check: func(ctx context.Context, l *models.Land) error {
				if l.Farmer == nil {
					return nil
				}
				if _, err := store.Farmers().FindByID(ctx, *l.Farmer); err != nil {
					return service.Missing(err, "farmer")
				}
				return nil
			},
			BeforeDelete: func(ctx context.Context, l *models.Land) error {
				return inUse(ctx, "active crop assignments", store.CropSows().Count, repository.Filter{"land": l.ID, "active": true})
			},
		},
	}
}

func newVarieties(store repository.Store, logger *zap.Logger) *Service[models.CropVariety] {
	return &Service[models.CropVariety]{
		what:   "crop variety",
		store:  store,
		coll:   store.Varieties(),
		logger: logger,
		duplicate: func(v *models.CropVariety) string {
			return fmt.Sprintf("variety %q already exists for this crop", v.Name)
		},
		hooks: Hooks[models.CropVariety]{
			Check: func(ctx context.Context, v *models.CropVariety) error {
				if _, err := store.Crops().FindByID(ctx, v.Crop); err != nil {
					return service.Missing(err, "crop")
				}
				return nil
			},
			BeforeDelete: func(ctx context.Context, v *models.CropVariety) error {
				if err := inUse(ctx, "crop assignments", store.CropSows().Count, repository.Filter{"variety": v.ID}); err != nil {
					return err
				}
				return inUse(ctx, "agro inventory records", store.AgroInventories().Count, repository.Filter{"variety": v.ID})
			},
		},
	}
}

func newSuppliers(store repository.Store, logger *zap.Logger) *Service[models.Supplier] {
	return &Service[models.Supplier]{
		what:   "supplier",
		store:  store,
		coll:   store.Suppliers(),
		logger: logger,
		duplicate: func(s *models.Supplier) string {
			return fmt.Sprintf("supplier %q already exists", s.Name)
		},
		hooks: Hooks[models.Supplier]{
			BeforeDelete: func(ctx context.Context, s *models.Supplier) error {
				return inUse(ctx, "items", store.Items().Count, repository.Filter{"supplier": s.ID})
			},
		},
	}
}

func newItems(store repository.Store, logger *zap.Logger) *Service[models.Item] {
	return &Service[models.Item]{
		what:   "item",
		store:  store,
		coll:   store.Items(),
		logger: logger,
		duplicate: func(i *models.Item) string {
			return fmt.Sprintf("item %q already exists", i.Name)
		},
		hooks: Hooks[models.Item]{
			Check: func(ctx context.Context, i *models.Item) error {
				if i.Supplier != nil {
					if _, err := store.Suppliers().FindByID(ctx, *i.Supplier); err != nil {
						return service.Missing(err, "supplier")
					}
				}
				if i.InventoryAccount != nil {
					acc, err := store.Accounts().FindByID(ctx, *i.InventoryAccount)
					if err != nil {
						return service.Missing(err, "inventory account")
					}
					if acc.Type != models.AccountAsset {
						return models.Validationf("inventory account must be an asset account")
					}
				}
				return nil
			},
			BeforeDelete: func(ctx context.Context, i *models.Item) error {
				if err := inUse(ctx, "inventory records", store.Inventories().Count, repository.Filter{"item": i.ID}); err != nil {
					return err
				}
				return inUse(ctx, "crop assignments", store.CropSows().Count, repository.Filter{"seed": i.ID})
			},
		},
	}
}

func newCattle(store repository.Store, logger *zap.Logger) *Service[models.Cattle] {
	return &Service[models.Cattle]{
		what:   "cattle",
		store:  store,
		coll:   store.Cattle(),
		logger: logger,
		duplicate: func(c *models.Cattle) string {
			return fmt.Sprintf("tag number %s is already registered", c.TagNumber)
		},
		hooks: Hooks[models.Cattle]{
			BeforeCreate: func(_ context.Context, c *models.Cattle) error {
				if c.Status != models.CattleActive {
					return models.Validationf("new cattle must be %s", models.CattleActive)
				}
				return nil
			},
			// Status follows exit events only.
			BeforeUpdate: func(_ context.Context, current, next *models.Cattle) error {
				next.Status = current.Status
				return nil
			},
			BeforeDelete: func(ctx context.Context, c *models.Cattle) error {
				if err := inUse(ctx, "feed usages", store.FeedUsages().Count, repository.Filter{"cattleId": c.ID}); err != nil {
					return err
				}
				return inUse(ctx, "exit events", store.ExitEvents().Count, repository.Filter{"cattle": c.ID})
			},
		},
	}
}

func newExitEvents(store repository.Store, logger *zap.Logger) *Service[models.ExitEvent] {
	setStatus := func(ctx context.Context, e *models.ExitEvent, status models.CattleStatus) error {
		cattle, err := store.Cattle().FindByID(ctx, e.Cattle)
		if err != nil {
			return service.Missing(err, "cattle")
		}
		cattle.Status = status
		if err := store.Cattle().Replace(ctx, cattle); err != nil {
			return fmt.Errorf("update cattle status: %w", err)
		}
		return nil
	}

	return &Service[models.ExitEvent]{
		what:   "exit event",
		store:  store,
		coll:   store.ExitEvents(),
		logger: logger,
		duplicate: func(*models.ExitEvent) string {
			return "this animal already has an exit event"
		},
		hooks: Hooks[models.ExitEvent]{
			Check: func(ctx context.Context, e *models.ExitEvent) error {
				if _, err := store.Cattle().FindByID(ctx, e.Cattle); err != nil {
					return service.Missing(err, "cattle")
				}
				if e.Date.IsZero() {
					e.Date = time.Now().UTC()
				}
				return nil
			},
			BeforeCreate: func(ctx context.Context, e *models.ExitEvent) error {
				cattle, err := store.Cattle().FindByID(ctx, e.Cattle)
				if err != nil {
					return service.Missing(err, "cattle")
				}
				if cattle.Status != models.CattleActive {
					return models.Validationf("cattle %s has already exited", cattle.TagNumber)
				}
				return nil
			},
			AfterCreate: func(ctx context.Context, e *models.ExitEvent) error {
				return setStatus(ctx, e, models.CattleExited)
			},
			BeforeUpdate: func(_ context.Context, current, next *models.ExitEvent) error {
				if current.Cattle != next.Cattle {
					return models.Validationf("the animal of an exit event cannot be changed")
				}
				return nil
			},
			// Removing the exit puts the animal back on the register.
			BeforeDelete: func(ctx context.Context, e *models.ExitEvent) error {
				return setStatus(ctx, e, models.CattleActive)
			},
		},
	}
}

// Package reporting builds the scheduled stock digests sent out of band.
package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/repository"
	sheetsrepo "github.com/mamadbah2/farmerp/internal/repository/sheets"
	"github.com/mamadbah2/farmerp/pkg/clients/whatsapp"
)

const dateLayout = "2006-01-02"

// Service turns stock reports into WhatsApp alerts and spreadsheet snapshots.
// Either output may be nil when its integration is not configured.
type Service struct {
	store          repository.Store
	messenger      whatsapp.Messenger
	sheets         sheetsrepo.Repository
	recipient      string
	valuationRange string
	now            func() time.Time
	logger         *zap.Logger
}

// Options selects the outputs of the service.
type Options struct {
	Messenger      whatsapp.Messenger
	Recipient      string
	Sheets         sheetsrepo.Repository
	ValuationRange string
}

// NewService wires a new reporting service instance.
func NewService(store repository.Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:          store,
		messenger:      opts.Messenger,
		sheets:         opts.Sheets,
		recipient:      opts.Recipient,
		valuationRange: opts.ValuationRange,
		now:            time.Now,
		logger:         logger,
	}
}

// LowStockDigest renders the low-stock report as a message. It returns the
// number of rows so callers can skip sending an empty digest.
func (s *Service) LowStockDigest(ctx context.Context) (string, int, error) {
	rows, err := s.store.Reports().LowStock(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("load low stock: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Stock check %s: all items above threshold.", s.now().Format(dateLayout)), 0, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Low stock %s (%d):", s.now().Format(dateLayout), len(rows))
	for _, row := range rows {
		fmt.Fprintf(&b, "\n- %s [%s]: %s %s (threshold %s)", row.ItemName, row.Owner, row.Quantity.String(), row.Unit, row.Threshold.String())
	}
	return b.String(), len(rows), nil
}

// SendLowStockAlert sends the digest to the alert recipient when something is low.
func (s *Service) SendLowStockAlert(ctx context.Context) error {
	if s.messenger == nil || s.recipient == "" {
		return fmt.Errorf("low stock alert: whatsapp is not configured")
	}

	body, count, err := s.LowStockDigest(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		s.logger.Info("no low stock, alert skipped")
		return nil
	}

	ids, err := s.messenger.SendText(ctx, s.recipient, body)
	if err != nil {
		return fmt.Errorf("send low stock alert: %w", err)
	}
	s.logger.Info("low stock alert sent", zap.Int("items", count), zap.Int("messages", len(ids)))
	return nil
}

// WriteValuationSnapshot appends the current valuation of every stock record,
// stamped with today's date, to the valuation range.
func (s *Service) WriteValuationSnapshot(ctx context.Context) (int, error) {
	if s.sheets == nil || s.valuationRange == "" {
		return 0, fmt.Errorf("valuation snapshot: sheets is not configured")
	}

	rows, err := s.store.Reports().InventoryValuation(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("load valuation: %w", err)
	}
	if len(rows) == 0 {
		s.logger.Info("no stock to snapshot")
		return 0, nil
	}

	day := s.now().Format(dateLayout)
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, []interface{}{
			day,
			row.ItemName,
			string(row.Category),
			row.Unit,
			string(row.Owner),
			row.Quantity.String(),
			row.AverageCost.Round(4).String(),
			row.TotalCost.Round(2).String(),
		})
	}

	if err := s.sheets.AppendRows(ctx, s.valuationRange, values); err != nil {
		return 0, fmt.Errorf("write valuation snapshot: %w", err)
	}
	s.logger.Info("valuation snapshot written", zap.Int("rows", len(values)))
	return len(values), nil
}

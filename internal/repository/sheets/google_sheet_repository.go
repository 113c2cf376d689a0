// Package sheets writes report snapshots to a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/farmerp/internal/config"
)

// appendBatch caps the rows sent per Values.Append call.
const appendBatch = 500

// Repository appends rows to a spreadsheet range.
type Repository interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

type appender func(ctx context.Context, sheetRange string, rows [][]interface{}) error

// GoogleSheetRepository appends to one spreadsheet through the Sheets API.
type GoogleSheetRepository struct {
	append appender
	logger *zap.Logger
}

// NewGoogleSheetRepository authenticates with the service account file from cfg.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	spreadsheetID := cfg.SpreadsheetID
	return newRepository(func(ctx context.Context, sheetRange string, rows [][]interface{}) error {
		_, err := svc.Spreadsheets.Values.
			Append(spreadsheetID, sheetRange, &sheetsapi.ValueRange{MajorDimension: "ROWS", Values: rows}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	}, logger), nil
}

func newRepository(fn appender, logger *zap.Logger) *GoogleSheetRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleSheetRepository{append: fn, logger: logger}
}

// AppendRows writes rows below the existing data of sheetRange, in batches.
// Batches already written stay written when a later one fails.
func (r *GoogleSheetRepository) AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return errors.New("sheets: range is required")
	}

	for start := 0; start < len(rows); start += appendBatch {
		end := min(start+appendBatch, len(rows))
		if err := r.append(ctx, sheetRange, rows[start:end]); err != nil {
			return fmt.Errorf("sheets: append rows %d-%d to %s: %w", start+1, end, sheetRange, err)
		}
	}

	if len(rows) > 0 {
		r.logger.Debug("sheet rows appended", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	}
	return nil
}

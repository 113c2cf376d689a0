package sheets

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func rowsOf(n int) [][]interface{} {
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{i}
	}
	return rows
}

func TestAppendRowsBatches(t *testing.T) {
	var sizes []int
	repo := newRepository(func(_ context.Context, sheetRange string, rows [][]interface{}) error {
		if sheetRange != "Valuation!A:H" {
			t.Errorf("range = %s", sheetRange)
		}
		sizes = append(sizes, len(rows))
		return nil
	}, nil)

	if err := repo.AppendRows(context.Background(), "Valuation!A:H", rowsOf(appendBatch+20)); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if len(sizes) != 2 || sizes[0] != appendBatch || sizes[1] != 20 {
		t.Errorf("unexpected batches: %v", sizes)
	}
}

func TestAppendRowsNoRowsNoCall(t *testing.T) {
	called := false
	repo := newRepository(func(context.Context, string, [][]interface{}) error {
		called = true
		return nil
	}, nil)

	if err := repo.AppendRows(context.Background(), "Valuation!A:H", nil); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if called {
		t.Error("expected no API call for empty rows")
	}
}

func TestAppendRowsErrors(t *testing.T) {
	repo := newRepository(func(context.Context, string, [][]interface{}) error {
		return errors.New("quota exceeded")
	}, nil)

	if err := repo.AppendRows(context.Background(), "", rowsOf(1)); err == nil {
		t.Error("expected empty range to fail")
	}
	err := repo.AppendRows(context.Background(), "Valuation!A:H", rowsOf(3))
	if err == nil || !strings.Contains(err.Error(), "rows 1-3") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("unexpected error: %v", err)
	}
}

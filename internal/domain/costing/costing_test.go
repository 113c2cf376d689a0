package costing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestAddBlendsWeightedAverage(t *testing.T) {
	var p Position

	p, err := p.Add(d("100"), d("10"))
	if err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	p, err = p.Add(d("50"), d("16"))
	if err != nil {
		t.Fatalf("second Add failed: %v", err)
	}

	if !p.Quantity.Equal(d("150")) {
		t.Errorf("expected quantity 150, got %s", p.Quantity)
	}
	if !p.TotalCost.Equal(d("1800")) {
		t.Errorf("expected total cost 1800, got %s", p.TotalCost)
	}
	if !p.AverageCost.Equal(d("12")) {
		t.Errorf("expected average cost 12, got %s", p.AverageCost)
	}
}

func TestAddToEmptyUsesValuePerUnit(t *testing.T) {
	p, err := Position{}.Add(d("3"), d("7.5"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !p.AverageCost.Equal(d("7.5")) || !p.TotalCost.Equal(d("22.5")) {
		t.Fatalf("unexpected position %+v", p)
	}
}

func TestAddTotalKeepsExactTotal(t *testing.T) {
	p, err := Position{}.AddTotal(d("7"), d("200"))
	if err != nil {
		t.Fatalf("AddTotal failed: %v", err)
	}
	if !p.TotalCost.Equal(d("200")) {
		t.Errorf("expected total cost 200, got %s", p.TotalCost)
	}
	if !p.AverageCost.Equal(d("200").Div(d("7"))) {
		t.Errorf("unexpected average cost %s", p.AverageCost)
	}

	p, err = p.AddTotal(d("3"), d("100"))
	if err != nil {
		t.Fatalf("second AddTotal failed: %v", err)
	}
	if !p.Quantity.Equal(d("10")) || !p.TotalCost.Equal(d("300")) || !p.AverageCost.Equal(d("30")) {
		t.Errorf("unexpected position %+v", p)
	}

	if _, err := p.AddTotal(d("0"), d("1")); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := p.AddTotal(d("1"), d("-1")); !errors.Is(err, ErrInvalidCost) {
		t.Errorf("expected ErrInvalidCost, got %v", err)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		value    string
		want     error
	}{
		{"zero quantity", "0", "1", ErrInvalidQuantity},
		{"negative quantity", "-1", "1", ErrInvalidQuantity},
		{"negative value", "1", "-0.01", ErrInvalidCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := Position{Quantity: d("5"), AverageCost: d("2"), TotalCost: d("10")}
			got, err := start.Add(d(tt.quantity), d(tt.value))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if got != start {
				t.Fatalf("position changed on error: %+v", got)
			}
		})
	}
}

func TestRemoveKeepsAverage(t *testing.T) {
	p := Position{Quantity: d("150"), AverageCost: d("12"), TotalCost: d("1800")}

	next, cost, err := p.Remove(d("30"))
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !cost.Equal(d("360")) {
		t.Errorf("expected cost 360, got %s", cost)
	}
	if !next.Quantity.Equal(d("120")) || !next.TotalCost.Equal(d("1440")) {
		t.Errorf("unexpected position %+v", next)
	}
	if !next.AverageCost.Equal(d("12")) {
		t.Errorf("average cost changed to %s", next.AverageCost)
	}
}

func TestRemoveInsufficientStock(t *testing.T) {
	p := Position{Quantity: d("20"), AverageCost: d("4"), TotalCost: d("80")}

	next, cost, err := p.Remove(d("30"))
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if err.Error() != "Insufficient stock. Available: 20" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !cost.IsZero() || next != p {
		t.Errorf("position must be unchanged, got %+v cost %s", next, cost)
	}
}

func TestRemoveAllSnapsTotalToZero(t *testing.T) {
	p, _ := Position{}.Add(d("3"), d("1"))
	p, _ = p.Add(d("7"), d("2"))

	next, _, err := p.Remove(d("10"))
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !next.Quantity.IsZero() || !next.TotalCost.IsZero() {
		t.Fatalf("expected empty position, got %+v", next)
	}
}

func TestSequencesStayConsistent(t *testing.T) {
	type step struct {
		add      bool
		quantity string
		value    string
	}
	steps := []step{
		{true, "100", "10"},
		{true, "33", "7.77"},
		{false, "41", ""},
		{true, "0.5", "103.1"},
		{false, "17.25", ""},
		{true, "12", "0"},
		{false, "87.25", ""},
		{true, "9", "3.333"},
	}

	tolerance := d("0.000001")
	var p Position
	for i, s := range steps {
		var err error
		if s.add {
			p, err = p.Add(d(s.quantity), d(s.value))
		} else {
			p, _, err = p.Remove(d(s.quantity))
		}
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if p.Quantity.IsNegative() {
			t.Fatalf("step %d drove quantity negative: %s", i, p.Quantity)
		}
		if !p.Consistent(tolerance) {
			t.Fatalf("step %d broke total = qty × avg: %+v", i, p)
		}
	}
}

func TestReturnRestoresCapturedCost(t *testing.T) {
	p := Position{Quantity: d("100"), AverageCost: d("10"), TotalCost: d("1000")}

	after, cost, err := p.Remove(d("20"))
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	restored, err := after.Return(d("20"), UnitCost(cost, d("20")))
	if err != nil {
		t.Fatalf("Return failed: %v", err)
	}
	if !restored.Quantity.Equal(d("100")) || !restored.TotalCost.Equal(d("1000")) || !restored.AverageCost.Equal(d("10")) {
		t.Fatalf("unexpected restored position %+v", restored)
	}
}

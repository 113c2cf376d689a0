// Package costing implements moving weighted-average cost accounting for stock positions.
//
// Receipts blend into the average; consumption leaves the average untouched and removes
// value at the current average. TotalCost stays equal to Quantity × AverageCost up to
// decimal division precision.
package costing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidQuantity is returned for zero or negative movement quantities.
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// ErrInvalidCost is returned for negative unit values.
var ErrInvalidCost = errors.New("value per unit must not be negative")

// InsufficientStockError reports a removal larger than what is on hand.
type InsufficientStockError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock. Available: %s", e.Available.String())
}

// Position is the quantity and value held for one stock key.
type Position struct {
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
	TotalCost   decimal.Decimal
}

// Add merges a receipt of quantity units valued at valuePerUnit.
func (p Position) Add(quantity, valuePerUnit decimal.Decimal) (Position, error) {
	if !quantity.IsPositive() {
		return p, ErrInvalidQuantity
	}
	if valuePerUnit.IsNegative() {
		return p, ErrInvalidCost
	}

	if !p.Quantity.IsPositive() {
		return Position{
			Quantity:    quantity,
			AverageCost: valuePerUnit,
			TotalCost:   quantity.Mul(valuePerUnit),
		}, nil
	}

	qty := p.Quantity.Add(quantity)
	total := p.TotalCost.Add(quantity.Mul(valuePerUnit))
	return Position{
		Quantity:    qty,
		AverageCost: total.Div(qty),
		TotalCost:   total,
	}, nil
}

// AddTotal merges a receipt of quantity units whose value is known as a total.
// The total is booked as given so no per-unit rounding leaks into TotalCost.
func (p Position) AddTotal(quantity, total decimal.Decimal) (Position, error) {
	if !quantity.IsPositive() {
		return p, ErrInvalidQuantity
	}
	if total.IsNegative() {
		return p, ErrInvalidCost
	}

	qty, sum := quantity, total
	if p.Quantity.IsPositive() {
		qty = p.Quantity.Add(quantity)
		sum = p.TotalCost.Add(total)
	}
	return Position{
		Quantity:    qty,
		AverageCost: sum.Div(qty),
		TotalCost:   sum,
	}, nil
}

// Remove consumes quantity units at the current average cost and returns the new
// position together with the value taken out. The position is returned unchanged
// on error.
func (p Position) Remove(quantity decimal.Decimal) (Position, decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return p, decimal.Zero, ErrInvalidQuantity
	}
	if quantity.GreaterThan(p.Quantity) {
		return p, decimal.Zero, &InsufficientStockError{Available: p.Quantity, Requested: quantity}
	}

	cost := quantity.Mul(p.AverageCost)
	next := Position{
		Quantity:    p.Quantity.Sub(quantity),
		AverageCost: p.AverageCost,
		TotalCost:   p.TotalCost.Sub(cost),
	}
	if next.Quantity.IsZero() || next.TotalCost.IsNegative() {
		next.TotalCost = decimal.Zero
	}
	return next, cost, nil
}

// Return puts previously consumed stock back at the unit cost it left with.
func (p Position) Return(quantity, unitCost decimal.Decimal) (Position, error) {
	return p.Add(quantity, unitCost)
}

// UnitCost divides a total over a quantity, yielding zero for an empty quantity.
func UnitCost(total, quantity decimal.Decimal) decimal.Decimal {
	if quantity.IsZero() {
		return decimal.Zero
	}
	return total.Div(quantity)
}

// Consistent reports whether TotalCost matches Quantity × AverageCost within tolerance.
func (p Position) Consistent(tolerance decimal.Decimal) bool {
	diff := p.TotalCost.Sub(p.Quantity.Mul(p.AverageCost)).Abs()
	return diff.LessThanOrEqual(tolerance)
}

package sizing

import (
	"github.com/shopspring/decimal"

	"solar-sizer/internal/catalog"
)

// Catalog is the read-only query capability the engine consumes: items of
// a category with the given column present and non-zero, ordered ascending
// by that column.
type Catalog interface {
	Find(cat catalog.Category, col string) ([]catalog.Item, error)
}

// ceilInt is an exact decimal ceiling to an integer count.
func ceilInt(x decimal.Decimal) int {
	return int(x.Ceil().IntPart())
}

// selectFirstFit picks the first (smallest) item whose mapped attribute
// meets the target. When every candidate is below target the largest one
// is returned anyway: an undersized recommendation is more useful
// downstream than none, and callers can inspect the shortfall.
func (e *Engine) selectFirstFit(cat catalog.Category, target decimal.Decimal, logicalKey string) (catalog.Item, error) {
	col := catalog.FieldFor(cat, logicalKey)
	items, err := e.catalog.Find(cat, col)
	if err != nil {
		return catalog.Item{}, err
	}
	if len(items) == 0 {
		return catalog.Item{}, &NoCandidateError{Category: cat, Column: col}
	}
	for _, item := range items {
		if v := item.Attr(col); v.Valid && v.Decimal.GreaterThanOrEqual(target) {
			return item, nil
		}
	}
	return items[len(items)-1], nil
}

// modularChoice is one costed candidate for a component bought in
// multiples.
type modularChoice struct {
	item      catalog.Item
	count     int
	unitValue decimal.Decimal
	installed decimal.Decimal
	oversize  decimal.Decimal
	cost      decimal.Decimal
}

// selectModular sizes a component purchased in units (panels, batteries):
// minimum unit count covering the demand, then the candidate minimizing
// the strategy objective among those within the over-sizing bound. With no
// candidate within bound it relaxes to minimal over-sizing.
func (e *Engine) selectModular(cat catalog.Category, demand decimal.Decimal, logicalKey string, maxOversize decimal.Decimal, strategy Strategy) (modularChoice, error) {
	col := catalog.FieldFor(cat, logicalKey)
	items, err := e.catalog.Find(cat, col)
	if err != nil {
		return modularChoice{}, err
	}
	if len(items) == 0 {
		return modularChoice{}, &NoCandidateError{Category: cat, Column: col}
	}

	var within, over []modularChoice
	for _, item := range items {
		value := item.Attr(col)
		if !value.Valid || !value.Decimal.IsPositive() {
			continue
		}
		price := item.UnitPrice
		if !price.IsPositive() {
			continue
		}

		count := ceilInt(demand.Div(value.Decimal))
		if count < 1 {
			count = 1
		}
		installed := value.Decimal.Mul(decimal.NewFromInt(int64(count)))
		oversize := decimal.Zero
		if demand.IsPositive() {
			oversize = installed.Sub(demand).Div(demand)
		}

		c := modularChoice{
			item:      item,
			count:     count,
			unitValue: value.Decimal,
			installed: installed,
			oversize:  oversize,
			cost:      price.Mul(decimal.NewFromInt(int64(count))),
		}
		if oversize.LessThanOrEqual(maxOversize) {
			within = append(within, c)
		} else {
			over = append(over, c)
		}
	}

	if len(within) == 0 && len(over) == 0 {
		return modularChoice{}, &NoCandidateError{Category: cat, Column: col}
	}

	if len(within) > 0 {
		return pickBest(within, func(a, b modularChoice) bool {
			return a.lessWithin(b, strategy)
		}), nil
	}
	return pickBest(over, func(a, b modularChoice) bool {
		return a.lessRelaxed(b, strategy)
	}), nil
}

func pickBest(cs []modularChoice, less func(a, b modularChoice) bool) modularChoice {
	best := cs[0]
	for _, c := range cs[1:] {
		if less(c, best) {
			best = c
		}
	}
	return best
}

// lessWithin orders within-bound candidates. Cost strategy: total cost,
// then unit count, then larger unit value (fewer interconnections). Count
// strategy swaps the first two keys.
func (a modularChoice) lessWithin(b modularChoice, strategy Strategy) bool {
	if strategy == StrategyCount {
		if cmp := a.count - b.count; cmp != 0 {
			return cmp < 0
		}
		if cmp := a.cost.Cmp(b.cost); cmp != 0 {
			return cmp < 0
		}
		return a.unitValue.GreaterThan(b.unitValue)
	}
	if cmp := a.cost.Cmp(b.cost); cmp != 0 {
		return cmp < 0
	}
	if cmp := a.count - b.count; cmp != 0 {
		return cmp < 0
	}
	return a.unitValue.GreaterThan(b.unitValue)
}

// lessRelaxed orders over-bound candidates: over-sizing always dominates.
func (a modularChoice) lessRelaxed(b modularChoice, strategy Strategy) bool {
	if cmp := a.oversize.Cmp(b.oversize); cmp != 0 {
		return cmp < 0
	}
	if strategy == StrategyCount {
		if cmp := a.count - b.count; cmp != 0 {
			return cmp < 0
		}
		return a.cost.LessThan(b.cost)
	}
	if cmp := a.cost.Cmp(b.cost); cmp != 0 {
		return cmp < 0
	}
	return a.count < b.count
}

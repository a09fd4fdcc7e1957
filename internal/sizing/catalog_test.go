package sizing

import (
	"sort"

	"github.com/shopspring/decimal"

	"solar-sizer/internal/catalog"
)

// fakeCatalog implements Catalog in memory with the same query semantics
// as the store: non-null, non-zero attribute, ascending order. It counts
// calls per category so tests can assert which selection steps ran.
type fakeCatalog struct {
	items []catalog.Item
	calls map[catalog.Category]int
}

func newFakeCatalog(items ...catalog.Item) *fakeCatalog {
	return &fakeCatalog{items: items, calls: make(map[catalog.Category]int)}
}

func (f *fakeCatalog) Find(cat catalog.Category, col string) ([]catalog.Item, error) {
	f.calls[cat]++
	var out []catalog.Item
	for _, item := range f.items {
		if item.Category != cat {
			continue
		}
		v := item.Attr(col)
		if !v.Valid || v.Decimal.IsZero() {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Attr(col).Decimal.LessThan(out[j].Attr(col).Decimal)
	})
	return out, nil
}

func (f *fakeCatalog) totalCalls() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

func panel(ref, powerW, price string) catalog.Item {
	return catalog.Item{
		Category:        catalog.CategoryPanel,
		Reference:       ref,
		UnitPrice:       d(price),
		Currency:        "MGA",
		PowerW:          nd(powerW),
		NominalVoltageV: nd("12"),
		VmpV:            nd("18.5"),
		VocV:            nd("22.9"),
	}
}

func battery(ref, capacityAh, voltage, price string) catalog.Item {
	return catalog.Item{
		Category:        catalog.CategoryBattery,
		Reference:       ref,
		UnitPrice:       d(price),
		Currency:        "MGA",
		CapacityAh:      nd(capacityAh),
		NominalVoltageV: nd(voltage),
	}
}

func inverter(ref, powerW, price string) catalog.Item {
	return catalog.Item{
		Category:  catalog.CategoryInverter,
		Reference: ref,
		UnitPrice: d(price),
		Currency:  "MGA",
		PowerW:    nd(powerW),
	}
}

func mpptController(ref, currentA, vocMax, mpptMin, mpptMax, price string) catalog.Item {
	return catalog.Item{
		Category:       catalog.CategoryController,
		Reference:      ref,
		UnitPrice:      d(price),
		Currency:       "MGA",
		ControllerType: catalog.ControllerMPPT,
		CurrentA:       nd(currentA),
		MaxInputVocV:   nd(vocMax),
		MPPTMinV:       nd(mpptMin),
		MPPTMaxV:       nd(mpptMax),
	}
}

func pwmController(ref, currentA, price string) catalog.Item {
	return catalog.Item{
		Category:       catalog.CategoryController,
		Reference:      ref,
		UnitPrice:      d(price),
		Currency:       "MGA",
		ControllerType: catalog.ControllerPWM,
		CurrentA:       nd(currentA),
	}
}

func cable(ref, ampacityA, price string) catalog.Item {
	return catalog.Item{
		Category:   catalog.CategoryCable,
		Reference:  ref,
		UnitPrice:  d(price),
		Currency:   "MGA",
		SectionMM2: nd("6"),
		AmpacityA:  nd(ampacityA),
	}
}

package sizing

import (
	"github.com/shopspring/decimal"

	"solar-sizer/internal/catalog"
)

var (
	two         = decimal.NewFromInt(2)
	slackFactor = decimal.RequireFromString("1.2")
	daysPerYear = decimal.NewFromInt(365)
)

// Engine sizes an off-grid PV installation from a catalog snapshot. It
// holds no state of its own: Size is a pure function of the input, the
// parameters and whatever the catalog returns at call time.
type Engine struct {
	catalog Catalog
}

func NewEngine(c Catalog) *Engine {
	return &Engine{catalog: c}
}

// Size runs the full sizing pipeline: PV modules, battery pack, inverter,
// charge controller, DC cable, then topology, compatibility and cost
// aggregation. It performs no writes; persisting the result is the
// caller's concern.
func (e *Engine) Size(in Input, p Parameters) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	strategy := in.strategy()

	// PV array: theoretical peak demand, then discrete module selection.
	pvDemand := in.DailyEnergyWh.Mul(p.SafetyCoefficient).
		Div(in.IrradiationKWhM2.Mul(p.GlobalEfficiency))
	pv, err := e.selectModular(catalog.CategoryPanel, pvDemand, "value", p.MaxOversize, strategy)
	if err != nil {
		return nil, err
	}

	// Battery pack: Ah demand over the autonomy period.
	ahDemand := in.DailyEnergyWh.Mul(decimal.NewFromInt(int64(in.AutonomyDays))).
		Div(in.BusVoltageV.Mul(p.DepthOfDischarge))
	batt, err := e.selectModular(catalog.CategoryBattery, ahDemand, "value", p.MaxOversize, strategy)
	if err != nil {
		return nil, err
	}

	// The rectangular pack overrides the raw modular count.
	battTopo := batteryTopology(batt.item, in.BusVoltageV, ahDemand)
	batteryCount := battTopo.Units()
	bankAh := decimal.Zero
	if positiveDec(batt.item.CapacityAh) {
		bankAh = batt.item.CapacityAh.Decimal.Mul(decimal.NewFromInt(int64(battTopo.Parallel)))
	}

	// Inverter: sized on peak load.
	inverterReq := in.PeakPowerW.Mul(p.InverterCoefficient)
	inverter, err := e.selectFirstFit(catalog.CategoryInverter, inverterReq, "value")
	if err != nil {
		return nil, err
	}

	// Charge controller: sized on array current with the safety margin.
	// When no entry carries a usable current rating, fall back to rated
	// power against the installed array.
	controllerReq := p.CurrentSafetyMargin.Mul(pv.installed).Div(in.BusVoltageV)
	controller, err := e.selectFirstFit(catalog.CategoryController, controllerReq, "value")
	if err != nil {
		if !IsNoCandidate(err) {
			return nil, err
		}
		controller, err = e.selectFirstFit(catalog.CategoryController, pv.installed, "power_w")
		if err != nil {
			return nil, err
		}
	}

	// DC cable: one model covering the worst-case current of the three
	// DC segments.
	worstCurrent := inverterReq.Div(in.BusVoltageV)
	if controllerReq.GreaterThan(worstCurrent) {
		worstCurrent = controllerReq
	}
	if positiveDec(pv.item.VmpV) && positiveDec(pv.item.PowerW) {
		stringCurrent := p.CurrentSafetyMargin.Mul(pv.item.PowerW.Decimal.Div(pv.item.VmpV.Decimal))
		if stringCurrent.GreaterThan(worstCurrent) {
			worstCurrent = stringCurrent
		}
	}
	cable, err := e.selectCable(worstCurrent)
	if err != nil {
		return nil, err
	}

	// PV topology. The series count depends on the controller type and
	// may round the module count up to complete strings, so installed
	// power is recomputed here.
	series, err := pvSeriesCount(pv.item, controller, in.BusVoltageV)
	if err != nil {
		return nil, err
	}
	pvTopo := pvTopology(series, pv.count)
	panelCount := pvTopo.Units()
	pvInstalled := pv.unitValue.Mul(decimal.NewFromInt(int64(panelCount)))
	pvOversize := decimal.Zero
	if pvDemand.IsPositive() {
		pvOversize = pvInstalled.Sub(pvDemand).Div(pvDemand)
	}

	validation, err := verifyCompatibility(pv.item, pvTopo.Series, controller, in.BusVoltageV)
	if err != nil {
		return nil, err
	}

	// Round trip from the roof with 20% slack.
	cableLength := decimal.Zero
	if in.CableRunM.IsPositive() {
		cableLength = in.CableRunM.Mul(two).Mul(slackFactor)
	}
	cableCost := cable.UnitPrice.Mul(cableLength)

	pvCost := pv.item.UnitPrice.Mul(decimal.NewFromInt(int64(panelCount)))
	battCost := batt.item.UnitPrice.Mul(decimal.NewFromInt(int64(batteryCount)))
	totalCost := pvCost.Add(battCost).
		Add(controller.UnitPrice).
		Add(inverter.UnitPrice).
		Add(cableCost).
		Round(2)

	return &Result{
		PVDemandW:    pvDemand,
		PVInstalledW: pvInstalled,
		PVOversize:   pvOversize,
		PVTopology:   pvTopo,

		BatteryDemandAh: ahDemand,
		BatteryBankAh:   bankAh,
		BatteryTopology: battTopo,

		InverterRequirementW:   inverterReq,
		ControllerRequirementA: controllerReq,

		CableCurrentA: worstCurrent,
		CableLengthM:  cableLength,

		AnnualEnergyWh: in.DailyEnergyWh.Mul(daysPerYear),
		TotalCost:      totalCost,
		Currency:       pv.item.Currency,

		Panel:      Choice{Item: pv.item, Count: panelCount, LineCost: pvCost},
		Battery:    Choice{Item: batt.item, Count: batteryCount, LineCost: battCost},
		Controller: Choice{Item: controller, Count: 1, LineCost: controller.UnitPrice},
		Inverter:   Choice{Item: inverter, Count: 1, LineCost: inverter.UnitPrice},
		Cable:      Choice{Item: cable, Count: 1, LineCost: cableCost},

		Validation: validation,
	}, nil
}

// selectCable picks the cheapest cable whose ampacity covers the current;
// with nothing sufficient it falls back to the highest ampacity available,
// cheapest first among equals.
func (e *Engine) selectCable(current decimal.Decimal) (catalog.Item, error) {
	col := catalog.FieldFor(catalog.CategoryCable, "ampacity")
	items, err := e.catalog.Find(catalog.CategoryCable, col)
	if err != nil {
		return catalog.Item{}, err
	}
	if len(items) == 0 {
		return catalog.Item{}, &NoCandidateError{Category: catalog.CategoryCable, Column: col}
	}

	var best *catalog.Item
	for i := range items {
		amp := items[i].Attr(col)
		if !amp.Valid || amp.Decimal.LessThan(current) {
			continue
		}
		if best == nil || items[i].UnitPrice.LessThan(best.UnitPrice) {
			best = &items[i]
		}
	}
	if best != nil {
		return *best, nil
	}

	maxAmp := items[len(items)-1].Attr(col).Decimal
	for i := range items {
		amp := items[i].Attr(col)
		if !amp.Valid || !amp.Decimal.Equal(maxAmp) {
			continue
		}
		if best == nil || items[i].UnitPrice.LessThan(best.UnitPrice) {
			best = &items[i]
		}
	}
	return *best, nil
}

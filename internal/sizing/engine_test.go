package sizing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-sizer/internal/catalog"
)

// referenceCatalog is a minimal consistent equipment set: one choice per
// category, MPPT regulation, wide voltage windows.
func referenceCatalog() *fakeCatalog {
	return newFakeCatalog(
		panel("PAN-100", "100", "220000"),
		battery("BAT-100", "100", "12", "680000"),
		inverter("OND-500", "500", "520000"),
		mpptController("REG-M70", "70", "100", "15", "75", "420000"),
		cable("CAB-10", "80", "12000"),
	)
}

func referenceInput() Input {
	return Input{
		DailyEnergyWh:    d("1500"),
		PeakPowerW:       d("400"),
		AutonomyDays:     2,
		IrradiationKWhM2: d("5"),
		BusVoltageV:      d("12"),
		Location:         "Antananarivo",
		CableRunM:        d("10"),
	}
}

func TestSize_ReferenceScenario(t *testing.T) {
	cat := referenceCatalog()
	e := NewEngine(cat)

	result, err := e.Size(referenceInput(), DefaultParameters())
	require.NoError(t, err)

	// Peak demand: 1500 * 1.30 / (5 * 0.75) = 520 W.
	assert.True(t, result.PVDemandW.Equal(d("520")), "pv demand %s", result.PVDemandW)
	// ceil(520/100) = 6 modules, 600 W installed, ~15.4% over-sizing.
	assert.Equal(t, 6, result.Panel.Count)
	assert.True(t, result.PVInstalledW.Equal(d("600")))
	assert.True(t, result.PVOversize.LessThanOrEqual(d("0.25")))
	assert.Equal(t, "1S6P", result.PVTopology.String())

	// Ah demand: 1500 * 2 / (12 * 0.50) = 500 Ah -> 5 batteries, one
	// string voltage-wise.
	assert.True(t, result.BatteryDemandAh.Equal(d("500")))
	assert.Equal(t, 5, result.Battery.Count)
	assert.Equal(t, "1S5P", result.BatteryTopology.String())
	assert.True(t, result.BatteryBankAh.Equal(d("500")))

	// Inverter: 400 * 1.25 = 500 W requirement met exactly.
	assert.True(t, result.InverterRequirementW.Equal(d("500")))
	assert.Equal(t, "OND-500", result.Inverter.Item.Reference)

	// Controller: 1.25 * 600 / 12 = 62.5 A -> 70 A model.
	assert.True(t, result.ControllerRequirementA.Equal(d("62.5")))
	assert.Equal(t, "REG-M70", result.Controller.Item.Reference)
	assert.Equal(t, ValidationPassed, result.Validation)

	// Cable: worst case is the controller-to-battery segment at 62.5 A;
	// 10 m run -> 24 m round trip with slack.
	assert.True(t, result.CableCurrentA.Equal(d("62.5")))
	assert.True(t, result.CableLengthM.Equal(d("24")))

	assert.True(t, result.AnnualEnergyWh.Equal(d("547500")))

	// 6*220000 + 5*680000 + 420000 + 520000 + 24*12000
	assert.True(t, result.TotalCost.Equal(d("5948000")), "total cost %s", result.TotalCost)
	assert.Equal(t, "MGA", result.Currency)
}

func TestSize_CostAggregationMatchesLineCosts(t *testing.T) {
	e := NewEngine(referenceCatalog())

	result, err := e.Size(referenceInput(), DefaultParameters())
	require.NoError(t, err)

	sum := result.Panel.LineCost.
		Add(result.Battery.LineCost).
		Add(result.Controller.LineCost).
		Add(result.Inverter.LineCost).
		Add(result.Cable.LineCost).
		Round(2)
	assert.True(t, result.TotalCost.Equal(sum))
}

func TestSize_Idempotent(t *testing.T) {
	e := NewEngine(referenceCatalog())
	in := referenceInput()
	p := DefaultParameters()

	first, err := e.Size(in, p)
	require.NoError(t, err)
	second, err := e.Size(in, p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSize_InvalidIrradiationFailsBeforeCatalogAccess(t *testing.T) {
	cat := referenceCatalog()
	e := NewEngine(cat)

	in := referenceInput()
	in.IrradiationKWhM2 = d("13")

	_, err := e.Size(in, DefaultParameters())
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
	assert.Equal(t, 0, cat.totalCalls(), "validation must run before any catalog query")
}

func TestSize_InvalidInputs(t *testing.T) {
	e := NewEngine(referenceCatalog())

	for name, mutate := range map[string]func(*Input){
		"zero energy":          func(in *Input) { in.DailyEnergyWh = decimal.Zero },
		"negative peak":        func(in *Input) { in.PeakPowerW = d("-1") },
		"zero autonomy":        func(in *Input) { in.AutonomyDays = 0 },
		"unsupported voltage":  func(in *Input) { in.BusVoltageV = d("36") },
		"negative cable run":   func(in *Input) { in.CableRunM = d("-5") },
		"unknown strategy":     func(in *Input) { in.Strategy = "fastest" },
		"zero irradiation":     func(in *Input) { in.IrradiationKWhM2 = decimal.Zero },
	} {
		t.Run(name, func(t *testing.T) {
			in := referenceInput()
			mutate(&in)
			_, err := e.Size(in, DefaultParameters())
			require.Error(t, err)
			assert.True(t, IsInvalidInput(err))
		})
	}
}

func TestSize_EmptyPanelCategoryFailsFirst(t *testing.T) {
	cat := newFakeCatalog(
		battery("BAT-100", "100", "12", "680000"),
		inverter("OND-500", "500", "520000"),
		mpptController("REG-M70", "70", "100", "15", "75", "420000"),
		cable("CAB-10", "80", "12000"),
	)
	e := NewEngine(cat)

	_, err := e.Size(referenceInput(), DefaultParameters())
	require.Error(t, err)
	assert.True(t, IsNoCandidate(err))

	assert.Equal(t, 1, cat.calls[catalog.CategoryPanel])
	assert.Equal(t, 0, cat.calls[catalog.CategoryBattery], "failure must precede battery selection")
	assert.Equal(t, 0, cat.calls[catalog.CategoryInverter])
	assert.Equal(t, 0, cat.calls[catalog.CategoryController])
	assert.Equal(t, 0, cat.calls[catalog.CategoryCable])
}

func TestSize_PWMVoltageMismatchAfterPartialPipeline(t *testing.T) {
	// 24V-nominal modules on a 12V bus behind a PWM controller: no whole
	// series count matches, so the run fails at topology resolution. The
	// inverter, controller and cable have been selected by then; the
	// pipeline is not transactional.
	p := panel("PAN-24V", "100", "220000")
	p.NominalVoltageV = nd("24")
	cat := newFakeCatalog(
		p,
		battery("BAT-100", "100", "12", "680000"),
		inverter("OND-500", "500", "520000"),
		pwmController("REG-P80", "80", "210000"),
		cable("CAB-10", "80", "12000"),
	)
	e := NewEngine(cat)

	_, err := e.Size(referenceInput(), DefaultParameters())
	require.Error(t, err)
	assert.True(t, IsIncompatible(err))

	assert.GreaterOrEqual(t, cat.calls[catalog.CategoryInverter], 1)
	assert.GreaterOrEqual(t, cat.calls[catalog.CategoryController], 1)
	assert.GreaterOrEqual(t, cat.calls[catalog.CategoryCable], 1)
}

func TestSize_ControllerFallbackToRatedPower(t *testing.T) {
	// No controller carries a usable current rating: selection falls back
	// to rated power against the installed array.
	ctrl := catalog.Item{
		Category:  catalog.CategoryController,
		Reference: "REG-PWR",
		UnitPrice: d("300000"),
		Currency:  "MGA",
		PowerW:    nd("800"),
	}
	cat := newFakeCatalog(
		panel("PAN-100", "100", "220000"),
		battery("BAT-100", "100", "12", "680000"),
		inverter("OND-500", "500", "520000"),
		ctrl,
		cable("CAB-10", "80", "12000"),
	)
	e := NewEngine(cat)

	result, err := e.Size(referenceInput(), DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, "REG-PWR", result.Controller.Item.Reference)
	assert.Equal(t, ValidationSkipped, result.Validation, "typeless controller cannot be checked")
	assert.Equal(t, 2, cat.calls[catalog.CategoryController], "current query then power fallback")
}

func TestSize_MPPTSeriesStringsAdjustModuleCount(t *testing.T) {
	// The MPPT floor forces two modules per string (single-module Vmp
	// 18.5V < 35V window floor). Five modules from raw selection round up
	// to three full strings of two.
	cat := newFakeCatalog(
		panel("PAN-100", "100", "220000"),
		battery("BAT-100", "100", "12", "680000"),
		inverter("OND-1000", "1000", "820000"),
		mpptController("REG-M70", "70", "150", "35", "120", "420000"),
		cable("CAB-10", "120", "12000"),
	)
	e := NewEngine(cat)

	in := referenceInput()
	in.BusVoltageV = d("24")
	in.DailyEnergyWh = d("1250") // demand 433.33 W -> 5 modules raw
	in.PeakPowerW = d("700")

	result, err := e.Size(in, DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, 2, result.PVTopology.Series)
	assert.Equal(t, 3, result.PVTopology.Parallel)
	assert.Equal(t, 6, result.Panel.Count)
	assert.True(t, result.PVInstalledW.Equal(d("600")), "installed power recomputed after string rounding")
	assert.Equal(t, ValidationPassed, result.Validation)
}

func TestSize_NoCableRunMeansNoCableCost(t *testing.T) {
	e := NewEngine(referenceCatalog())
	in := referenceInput()
	in.CableRunM = decimal.Zero

	result, err := e.Size(in, DefaultParameters())
	require.NoError(t, err)
	assert.True(t, result.CableLengthM.IsZero())
	assert.True(t, result.Cable.LineCost.IsZero())
}

func TestSize_UndersizedCatalogStillRecommends(t *testing.T) {
	// A catalog whose biggest inverter is below requirement still yields
	// a best-effort recommendation.
	cat := newFakeCatalog(
		panel("PAN-100", "100", "220000"),
		battery("BAT-100", "100", "12", "680000"),
		inverter("OND-300", "300", "320000"),
		mpptController("REG-M70", "70", "100", "15", "75", "420000"),
		cable("CAB-10", "80", "12000"),
	)
	e := NewEngine(cat)

	result, err := e.Size(referenceInput(), DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, "OND-300", result.Inverter.Item.Reference)
	assert.True(t, result.InverterRequirementW.GreaterThan(d("300")))
}

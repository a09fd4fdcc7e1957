package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldFor(t *testing.T) {
	assert.Equal(t, "power_w", FieldFor(CategoryPanel, "value"))
	assert.Equal(t, "capacity_ah", FieldFor(CategoryBattery, "value"))
	assert.Equal(t, "current_a", FieldFor(CategoryController, "value"))
	assert.Equal(t, "ampacity_a", FieldFor(CategoryCable, "ampacity"))
	assert.Equal(t, "mppt_min_v", FieldFor(CategoryController, "mppt_min"))

	// Unknown keys pass through: assumed to already be column names.
	assert.Equal(t, "power_w", FieldFor(CategoryController, "power_w"))
	assert.Equal(t, "whatever", FieldFor(CategoryPanel, "whatever"))
	assert.Equal(t, "value", FieldFor(CategoryOther, "value"))
}

func TestItemAttr(t *testing.T) {
	item := Item{
		UnitPrice: dec("220000"),
		PowerW:    ndec("100"),
		VmpV:      ndec("18.5"),
	}

	assert.True(t, item.Attr("power_w").Decimal.Equal(dec("100")))
	assert.True(t, item.Attr("vmp_v").Decimal.Equal(dec("18.5")))
	assert.True(t, item.Attr("unit_price").Decimal.Equal(dec("220000")))
	assert.False(t, item.Attr("capacity_ah").Valid)
	assert.False(t, item.Attr("no_such_column").Valid)
}

func TestItemValidate(t *testing.T) {
	valid := func() Item {
		return Item{
			Category:  CategoryPanel,
			Reference: "PAN-X",
			UnitPrice: dec("1000"),
			PowerW:    ndec("100"),
		}
	}

	t.Run("valid panel", func(t *testing.T) {
		item := valid()
		require.NoError(t, item.Validate())
	})

	t.Run("panel without power", func(t *testing.T) {
		item := valid()
		item.PowerW = decimal.NullDecimal{}
		require.Error(t, item.Validate())
	})

	t.Run("missing reference", func(t *testing.T) {
		item := valid()
		item.Reference = ""
		require.Error(t, item.Validate())
	})

	t.Run("unknown category", func(t *testing.T) {
		item := valid()
		item.Category = "gadget"
		require.Error(t, item.Validate())
	})

	t.Run("battery needs capacity and voltage", func(t *testing.T) {
		item := Item{Category: CategoryBattery, Reference: "BAT-X", UnitPrice: dec("1000")}
		require.Error(t, item.Validate())
		item.CapacityAh = ndec("100")
		require.Error(t, item.Validate())
		item.NominalVoltageV = ndec("12")
		require.NoError(t, item.Validate())
	})

	t.Run("controller type must be known", func(t *testing.T) {
		item := Item{
			Category:       CategoryController,
			Reference:      "REG-X",
			UnitPrice:      dec("1000"),
			CurrentA:       ndec("30"),
			ControllerType: "FUZZY",
		}
		require.Error(t, item.Validate())
		item.ControllerType = ControllerMPPT
		require.NoError(t, item.Validate())
	})

	t.Run("cable needs ampacity and section", func(t *testing.T) {
		item := Item{Category: CategoryCable, Reference: "CAB-X", UnitPrice: dec("1000"), AmpacityA: ndec("25")}
		require.Error(t, item.Validate())
		item.SectionMM2 = ndec("4")
		require.NoError(t, item.Validate())
	})
}

func TestParametersValidate(t *testing.T) {
	valid := Parameters{
		GlobalEfficiency:    0.75,
		SafetyCoefficient:   1.30,
		DepthOfDischarge:    0.50,
		InverterCoefficient: 1.25,
		MaxOversize:         0.25,
		CurrentSafetyMargin: 1.25,
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.GlobalEfficiency = 1.1
	require.Error(t, bad.Validate())

	bad = valid
	bad.SafetyCoefficient = 0.9
	require.Error(t, bad.Validate())

	bad = valid
	bad.MaxOversize = -0.1
	require.Error(t, bad.Validate())
}

func TestRecomputeCost(t *testing.T) {
	panel := Item{UnitPrice: dec("220000")}
	batt := Item{UnitPrice: dec("680000")}
	ctrl := Item{UnitPrice: dec("420000")}
	inv := Item{UnitPrice: dec("520000")}
	cbl := Item{UnitPrice: dec("12000")}

	record := SizingRecord{
		PanelCount:   6,
		BatteryCount: 5,
		CableLengthM: 24,
		Panel:        &panel,
		Battery:      &batt,
		Controller:   &ctrl,
		Inverter:     &inv,
		Cable:        &cbl,
	}

	// 6*220000 + 5*680000 + 420000 + 520000 + 24*12000
	assert.Equal(t, 5948000.0, record.RecomputeCost())

	record.Cable = nil
	assert.Equal(t, 5660000.0, record.RecomputeCost())
}

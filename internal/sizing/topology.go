package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"solar-sizer/internal/catalog"
)

// Upper bound on the PV series-count search for MPPT controllers.
const maxSeriesScan = 24

// batteryTopology derives the rectangular battery pack: enough units in
// series to reach the bus voltage, enough strings to cover the Ah demand.
// A missing or zero unit voltage degrades to a single unit per string.
func batteryTopology(battery catalog.Item, busVoltage, ahDemand decimal.Decimal) Topology {
	series := 1
	if v := battery.NominalVoltageV; v.Valid && v.Decimal.IsPositive() {
		series = ceilInt(busVoltage.Div(v.Decimal))
		if series < 1 {
			series = 1
		}
	}
	parallel := 1
	if c := battery.CapacityAh; c.Valid && c.Decimal.IsPositive() && ahDemand.IsPositive() {
		parallel = ceilInt(ahDemand.Div(c.Decimal))
		if parallel < 1 {
			parallel = 1
		}
	}
	return Topology{Series: series, Parallel: parallel}
}

// pvSeriesCount derives the modules-per-string count from the controller
// regulation type.
//
// PWM arrays must match the bus voltage exactly: series = bus / module
// nominal voltage, and a non-divisible combination is a hard error. MPPT
// arrays take the smallest series count whose open-circuit and
// operating-point voltages fit the controller windows; no fit within the
// scan bound is a hard error. Missing attributes on either side degrade
// to a single module per string, consistent with the compatibility
// checker's reduced-rigor policy.
func pvSeriesCount(panel, controller catalog.Item, busVoltage decimal.Decimal) (int, error) {
	switch controller.ControllerType {
	case catalog.ControllerPWM:
		vnom := panel.NominalVoltageV
		if !vnom.Valid || !vnom.Decimal.IsPositive() {
			return 1, nil
		}
		quotient := busVoltage.Div(vnom.Decimal)
		if quotient.IsInteger() && quotient.IsPositive() {
			return int(quotient.IntPart()), nil
		}
		return 0, &IncompatibleConfigurationError{
			Reason: fmt.Sprintf("PWM: no whole number of %sV modules matches a %sV bus", vnom.Decimal, busVoltage),
		}

	case catalog.ControllerMPPT:
		voc := panel.VocV
		vmp := panel.VmpV
		vocMax := controller.MaxInputVocV
		mpptMin := controller.MPPTMinV
		mpptMax := controller.MPPTMaxV
		if !positiveDec(voc) || !positiveDec(vmp) || !positiveDec(vocMax) || !positiveDec(mpptMin) || !positiveDec(mpptMax) {
			return 1, nil
		}
		for s := 1; s <= maxSeriesScan; s++ {
			n := decimal.NewFromInt(int64(s))
			arrayVoc := voc.Decimal.Mul(n)
			arrayVmp := vmp.Decimal.Mul(n)
			if arrayVoc.LessThanOrEqual(vocMax.Decimal) &&
				arrayVmp.GreaterThanOrEqual(mpptMin.Decimal) &&
				arrayVmp.LessThanOrEqual(mpptMax.Decimal) {
				return s, nil
			}
		}
		return 0, &IncompatibleConfigurationError{
			Reason: fmt.Sprintf("MPPT: no series count up to %d fits the controller voltage windows", maxSeriesScan),
		}
	}
	return 1, nil
}

// pvTopology spreads unitCount modules over strings of seriesCount,
// rounding the total up to complete strings.
func pvTopology(seriesCount, unitCount int) Topology {
	if seriesCount < 1 {
		seriesCount = 1
	}
	parallel := (unitCount + seriesCount - 1) / seriesCount
	if parallel < 1 {
		parallel = 1
	}
	return Topology{Series: seriesCount, Parallel: parallel}
}

func positiveDec(d decimal.NullDecimal) bool {
	return d.Valid && d.Decimal.IsPositive()
}

package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"solar-sizer/internal/catalog"
)

// Strategy selects the objective the modular selector minimizes first.
type Strategy string

const (
	// StrategyCost minimizes total cost, then unit count.
	StrategyCost Strategy = "cost"
	// StrategyCount minimizes unit count, then total cost.
	StrategyCount Strategy = "count"
)

// Supported nominal battery bus voltages.
var supportedBusVoltages = []int64{12, 24, 48}

// Input is one calculation request. All quantities are exact decimals so
// selection comparisons and ceilings stay deterministic.
type Input struct {
	DailyEnergyWh    decimal.Decimal
	PeakPowerW       decimal.Decimal
	AutonomyDays     int
	IrradiationKWhM2 decimal.Decimal
	BusVoltageV      decimal.Decimal
	Location         string
	CableRunM        decimal.Decimal
	Strategy         Strategy
}

// Validate checks ranges before any catalog access.
func (in *Input) Validate() error {
	if !in.DailyEnergyWh.IsPositive() {
		return &InvalidInputError{Field: "daily_energy_wh", Reason: "must be > 0"}
	}
	if !in.PeakPowerW.IsPositive() {
		return &InvalidInputError{Field: "peak_power_w", Reason: "must be > 0"}
	}
	if in.AutonomyDays < 1 {
		return &InvalidInputError{Field: "autonomy_days", Reason: "must be >= 1"}
	}
	if !in.IrradiationKWhM2.IsPositive() || in.IrradiationKWhM2.GreaterThan(decimal.NewFromInt(12)) {
		return &InvalidInputError{Field: "irradiation_kwh_m2", Reason: "must be in (0,12]"}
	}
	supported := false
	for _, v := range supportedBusVoltages {
		if in.BusVoltageV.Equal(decimal.NewFromInt(v)) {
			supported = true
			break
		}
	}
	if !supported {
		return &InvalidInputError{Field: "bus_voltage_v", Reason: "must be one of 12, 24, 48"}
	}
	if in.CableRunM.IsNegative() {
		return &InvalidInputError{Field: "cable_run_m", Reason: "must be >= 0"}
	}
	switch in.Strategy {
	case "", StrategyCost, StrategyCount:
	default:
		return &InvalidInputError{Field: "strategy", Reason: "must be cost or count"}
	}
	return nil
}

func (in *Input) strategy() Strategy {
	if in.Strategy == "" {
		return StrategyCost
	}
	return in.Strategy
}

// Parameters is the global coefficient set, passed in explicitly per run.
type Parameters struct {
	GlobalEfficiency    decimal.Decimal
	SafetyCoefficient   decimal.Decimal
	DepthOfDischarge    decimal.Decimal
	InverterCoefficient decimal.Decimal
	MaxOversize         decimal.Decimal
	CurrentSafetyMargin decimal.Decimal
}

// NewParameters builds a coefficient set from plain floats, as stored by
// the parameters provider.
func NewParameters(globalEff, safety, dod, inverterCoeff, maxOversize, currentMargin float64) Parameters {
	return Parameters{
		GlobalEfficiency:    decimal.NewFromFloat(globalEff),
		SafetyCoefficient:   decimal.NewFromFloat(safety),
		DepthOfDischarge:    decimal.NewFromFloat(dod),
		InverterCoefficient: decimal.NewFromFloat(inverterCoeff),
		MaxOversize:         decimal.NewFromFloat(maxOversize),
		CurrentSafetyMargin: decimal.NewFromFloat(currentMargin),
	}
}

// DefaultParameters mirrors the provider defaults.
func DefaultParameters() Parameters {
	return NewParameters(0.75, 1.30, 0.50, 1.25, 0.25, 1.25)
}

// Topology is a series/parallel wiring arrangement.
type Topology struct {
	Series   int `json:"series"`
	Parallel int `json:"parallel"`
}

func (t Topology) Units() int {
	return t.Series * t.Parallel
}

// String renders the usual nSmP notation, e.g. "2S3P".
func (t Topology) String() string {
	return fmt.Sprintf("%dS%dP", t.Series, t.Parallel)
}

// ValidationStatus tells whether the compatibility check actually ran.
type ValidationStatus string

const (
	// ValidationPassed: all constraints were checked and hold.
	ValidationPassed ValidationStatus = "passed"
	// ValidationSkipped: missing attributes, check degraded to a no-op.
	ValidationSkipped ValidationStatus = "skipped"
)

// Choice is one selected catalog component with its count and line cost.
type Choice struct {
	Item     catalog.Item    `json:"item"`
	Count    int             `json:"count"`
	LineCost decimal.Decimal `json:"line_cost"`
}

// Result is the full outcome of one sizing run.
type Result struct {
	PVDemandW    decimal.Decimal `json:"pv_demand_w"`
	PVInstalledW decimal.Decimal `json:"pv_installed_w"`
	PVOversize   decimal.Decimal `json:"pv_oversize"`
	PVTopology   Topology        `json:"pv_topology"`

	BatteryDemandAh decimal.Decimal `json:"battery_demand_ah"`
	BatteryBankAh   decimal.Decimal `json:"battery_bank_ah"`
	BatteryTopology Topology        `json:"battery_topology"`

	InverterRequirementW   decimal.Decimal `json:"inverter_requirement_w"`
	ControllerRequirementA decimal.Decimal `json:"controller_requirement_a"`

	CableCurrentA decimal.Decimal `json:"cable_current_a"`
	CableLengthM  decimal.Decimal `json:"cable_length_m"`

	AnnualEnergyWh decimal.Decimal `json:"annual_energy_wh"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Currency       string          `json:"currency"`

	Panel      Choice `json:"panel"`
	Battery    Choice `json:"battery"`
	Controller Choice `json:"controller"`
	Inverter   Choice `json:"inverter"`
	Cable      Choice `json:"cable"`

	Validation ValidationStatus `json:"validation"`
}

package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a catalog component. Category-specific attributes are nullable:
// an item is selectable for a given criterion only when that attribute is
// present and non-zero. Items failing per-category validation are rejected
// at write time, never silently erased.
type Item struct {
	gorm.Model
	Category  Category `gorm:"size:32;index;index:idx_items_cat_price" json:"category"`
	Reference string   `gorm:"size:64;uniqueIndex" json:"reference"`
	Brand     string   `gorm:"size:64" json:"brand"`
	ModelName string   `gorm:"size:100" json:"model"`
	Name      string   `gorm:"size:128" json:"name"`

	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);column:unit_price;index:idx_items_cat_price" json:"unit_price"`
	Currency  string          `gorm:"size:8;default:MGA" json:"currency"`

	// Generic electrical attributes
	PowerW          decimal.NullDecimal `gorm:"type:decimal(12,2);column:power_w" json:"power_w"`
	CapacityAh      decimal.NullDecimal `gorm:"type:decimal(12,2);column:capacity_ah" json:"capacity_ah"`
	NominalVoltageV decimal.NullDecimal `gorm:"type:decimal(12,3);column:nominal_voltage_v" json:"nominal_voltage_v"`

	// Panel
	VmpV decimal.NullDecimal `gorm:"type:decimal(12,3);column:vmp_v" json:"vmp_v"`
	VocV decimal.NullDecimal `gorm:"type:decimal(12,3);column:voc_v" json:"voc_v"`

	// Charge controller
	ControllerType string              `gorm:"size:8;column:controller_type" json:"controller_type,omitempty"`
	CurrentA       decimal.NullDecimal `gorm:"type:decimal(12,3);column:current_a" json:"current_a"`
	MaxInputVocV   decimal.NullDecimal `gorm:"type:decimal(12,3);column:max_input_voc_v" json:"max_input_voc_v"`
	MPPTMinV       decimal.NullDecimal `gorm:"type:decimal(12,3);column:mppt_min_v" json:"mppt_min_v"`
	MPPTMaxV       decimal.NullDecimal `gorm:"type:decimal(12,3);column:mppt_max_v" json:"mppt_max_v"`

	// Inverter
	SurgePowerW decimal.NullDecimal `gorm:"type:decimal(12,2);column:surge_power_w" json:"surge_power_w"`
	DCInputV    string              `gorm:"size:32;column:dc_input_v" json:"dc_input_v,omitempty"`
	ACOutputV   string              `gorm:"size:16;column:ac_output_v;default:230" json:"ac_output_v,omitempty"`

	// Cable
	SectionMM2 decimal.NullDecimal `gorm:"type:decimal(12,3);column:section_mm2" json:"section_mm2"`
	AmpacityA  decimal.NullDecimal `gorm:"type:decimal(12,3);column:ampacity_a" json:"ampacity_a"`

	Available    bool   `gorm:"default:true" json:"available"`
	DatasheetURL string `json:"datasheet_url,omitempty"`
}

// Attr returns the value of a numeric item column by name. Unknown columns
// and string-typed columns read as null.
func (i *Item) Attr(col string) decimal.NullDecimal {
	switch col {
	case "unit_price":
		return decimal.NullDecimal{Decimal: i.UnitPrice, Valid: true}
	case "power_w":
		return i.PowerW
	case "capacity_ah":
		return i.CapacityAh
	case "nominal_voltage_v":
		return i.NominalVoltageV
	case "vmp_v":
		return i.VmpV
	case "voc_v":
		return i.VocV
	case "current_a":
		return i.CurrentA
	case "max_input_voc_v":
		return i.MaxInputVocV
	case "mppt_min_v":
		return i.MPPTMinV
	case "mppt_max_v":
		return i.MPPTMaxV
	case "surge_power_w":
		return i.SurgePowerW
	case "section_mm2":
		return i.SectionMM2
	case "ampacity_a":
		return i.AmpacityA
	}
	return decimal.NullDecimal{}
}

// Label returns the display name of the item.
func (i *Item) Label() string {
	if i.Name != "" {
		return i.Name
	}
	if i.ModelName != "" {
		return i.ModelName
	}
	return i.Reference
}

// Validate enforces the per-category required attributes: the fields the
// selection criteria depend on must be present and non-zero.
func (i *Item) Validate() error {
	if !Known(i.Category) {
		return fmt.Errorf("unknown category %q", i.Category)
	}
	if i.Reference == "" {
		return fmt.Errorf("reference is required")
	}
	if i.UnitPrice.IsNegative() {
		return fmt.Errorf("unit price must not be negative")
	}
	switch i.Category {
	case CategoryPanel:
		if !positive(i.PowerW) {
			return fmt.Errorf("panel: power_w is required")
		}
	case CategoryBattery:
		if !positive(i.CapacityAh) {
			return fmt.Errorf("battery: capacity_ah is required")
		}
		if !positive(i.NominalVoltageV) {
			return fmt.Errorf("battery: nominal_voltage_v is required")
		}
	case CategoryController:
		if !positive(i.CurrentA) {
			return fmt.Errorf("controller: current_a is required")
		}
		if i.ControllerType != "" && i.ControllerType != ControllerMPPT && i.ControllerType != ControllerPWM {
			return fmt.Errorf("controller: type must be MPPT or PWM")
		}
	case CategoryInverter:
		if !positive(i.PowerW) {
			return fmt.Errorf("inverter: power_w is required")
		}
	case CategoryCable:
		if !positive(i.AmpacityA) {
			return fmt.Errorf("cable: ampacity_a is required")
		}
		if !positive(i.SectionMM2) {
			return fmt.Errorf("cable: section_mm2 is required")
		}
	}
	return nil
}

func positive(d decimal.NullDecimal) bool {
	return d.Valid && d.Decimal.IsPositive()
}

// Parameters is the global sizing coefficient set. A single effective row
// exists at a time; EffectiveParameters get-or-creates it with defaults.
type Parameters struct {
	gorm.Model
	GlobalEfficiency    float64 `gorm:"default:0.75" json:"global_efficiency"`
	SafetyCoefficient   float64 `gorm:"default:1.30" json:"safety_coefficient"`
	DepthOfDischarge    float64 `gorm:"default:0.50" json:"depth_of_discharge"`
	InverterCoefficient float64 `gorm:"default:1.25" json:"inverter_coefficient"`
	MaxOversize         float64 `gorm:"default:0.25" json:"max_oversize"`
	CurrentSafetyMargin float64 `gorm:"default:1.25" json:"current_safety_margin"`
}

// Validate checks the coefficient ranges.
func (p *Parameters) Validate() error {
	if p.GlobalEfficiency <= 0 || p.GlobalEfficiency > 1 {
		return fmt.Errorf("global_efficiency must be in (0,1]")
	}
	if p.SafetyCoefficient < 1 {
		return fmt.Errorf("safety_coefficient must be >= 1")
	}
	if p.DepthOfDischarge <= 0 || p.DepthOfDischarge > 1 {
		return fmt.Errorf("depth_of_discharge must be in (0,1]")
	}
	if p.InverterCoefficient < 1 {
		return fmt.Errorf("inverter_coefficient must be >= 1")
	}
	if p.MaxOversize < 0 || p.MaxOversize > 1 {
		return fmt.Errorf("max_oversize must be in [0,1]")
	}
	if p.CurrentSafetyMargin < 1 {
		return fmt.Errorf("current_safety_margin must be >= 1")
	}
	return nil
}

// InputRecord is the stored echo of a calculation request.
type InputRecord struct {
	gorm.Model
	DailyEnergyWh    float64 `json:"daily_energy_wh"`
	PeakPowerW       float64 `json:"peak_power_w"`
	AutonomyDays     int     `json:"autonomy_days"`
	IrradiationKWhM2 float64 `json:"irradiation_kwh_m2"`
	BusVoltageV      float64 `json:"bus_voltage_v"`
	Location         string  `gorm:"size:255;index" json:"location"`
	CableRunM        float64 `json:"cable_run_m"`
	Strategy         string  `gorm:"size:16" json:"strategy"`
}

// SizingRecord is the immutable snapshot of one completed calculation.
// The engine never writes it; the boundary persists the input/record pair
// in one transaction after a successful run.
type SizingRecord struct {
	gorm.Model
	CalculatedAt time.Time `gorm:"index" json:"calculated_at"`

	InputID      uint        `gorm:"index" json:"-"`
	Input        InputRecord `json:"input"`
	ParametersID uint        `json:"-"`
	Parameters   Parameters  `json:"parameters"`

	PVDemandW       float64 `json:"pv_demand_w"`
	PVInstalledW    float64 `json:"pv_installed_w"`
	PanelCount      int     `json:"panel_count"`
	PVTopology      string  `gorm:"size:16" json:"pv_topology"`
	BatteryDemandAh float64 `json:"battery_demand_ah"`
	BatteryBankAh   float64 `json:"battery_bank_ah"`
	BatteryCount    int     `json:"battery_count"`
	BatteryTopology string  `gorm:"size:16" json:"battery_topology"`
	AnnualEnergyWh  float64 `json:"annual_energy_wh"`
	CableLengthM    float64 `json:"cable_length_m"`
	TotalCost       float64 `json:"total_cost"`
	Currency        string  `gorm:"size:8" json:"currency"`

	PanelID      *uint `json:"-"`
	Panel        *Item `json:"panel,omitempty"`
	BatteryID    *uint `json:"-"`
	Battery      *Item `json:"battery,omitempty"`
	ControllerID *uint `json:"-"`
	Controller   *Item `json:"controller,omitempty"`
	InverterID   *uint `json:"-"`
	Inverter     *Item `json:"inverter,omitempty"`
	CableID      *uint `json:"-"`
	Cable        *Item `json:"cable,omitempty"`
}

// RecomputeCost re-derives the total from the linked items and counts,
// without writing anything. Callers persist explicitly if they want the
// refreshed figure.
func (r *SizingRecord) RecomputeCost() float64 {
	price := func(i *Item) decimal.Decimal {
		if i == nil {
			return decimal.Zero
		}
		return i.UnitPrice
	}
	total := price(r.Panel).Mul(decimal.NewFromInt(int64(r.PanelCount))).
		Add(price(r.Battery).Mul(decimal.NewFromInt(int64(r.BatteryCount)))).
		Add(price(r.Controller)).
		Add(price(r.Inverter)).
		Add(price(r.Cable).Mul(decimal.NewFromFloat(r.CableLengthM)))
	f, _ := total.Round(2).Float64()
	return f
}

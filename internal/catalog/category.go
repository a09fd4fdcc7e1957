package catalog

// Category identifies a component class in the catalog. The set is closed:
// selection logic dispatches on it and each category carries its own
// required attributes.
type Category string

const (
	CategoryPanel      Category = "panneau_solaire"
	CategoryBattery    Category = "batterie"
	CategoryController Category = "regulateur"
	CategoryInverter   Category = "onduleur"
	CategoryCable      Category = "cable"

	// Accessory categories. Not used by the sizing engine but valid
	// catalog entries.
	CategoryBreaker   Category = "disjoncteur"
	CategoryArrester  Category = "parafoudre"
	CategoryMount     Category = "support"
	CategoryJunction  Category = "boitier_jonction"
	CategoryConnector Category = "connecteur"
	CategoryOther     Category = "autre"
)

// Controller regulation strategies.
const (
	ControllerMPPT = "MPPT"
	ControllerPWM  = "PWM"
)

var categories = map[Category]bool{
	CategoryPanel:      true,
	CategoryBattery:    true,
	CategoryController: true,
	CategoryInverter:   true,
	CategoryCable:      true,
	CategoryBreaker:    true,
	CategoryArrester:   true,
	CategoryMount:      true,
	CategoryJunction:   true,
	CategoryConnector:  true,
	CategoryOther:      true,
}

// Known returns whether c is a valid catalog category.
func Known(c Category) bool {
	return categories[c]
}

// fieldMap translates the logical attribute names used by the sizing
// engine into the concrete item columns, per category.
var fieldMap = map[Category]map[string]string{
	CategoryPanel: {
		"value": "power_w",
		"price": "unit_price",
		"vmp":   "vmp_v",
		"voc":   "voc_v",
		"vnom":  "nominal_voltage_v",
	},
	CategoryBattery: {
		"value": "capacity_ah",
		"price": "unit_price",
		"vnom":  "nominal_voltage_v",
	},
	CategoryInverter: {
		"value": "power_w",
		"price": "unit_price",
	},
	CategoryController: {
		"value":    "current_a",
		"price":    "unit_price",
		"type":     "controller_type",
		"voc_max":  "max_input_voc_v",
		"mppt_min": "mppt_min_v",
		"mppt_max": "mppt_max_v",
	},
	CategoryCable: {
		"ampacity": "ampacity_a",
		"price":    "unit_price",
		"section":  "section_mm2",
	},
}

// FieldFor resolves a logical attribute name to the concrete item column
// for a category. Unknown keys are returned unchanged: an unmapped key is
// assumed to already be a column name.
func FieldFor(cat Category, key string) string {
	if m, ok := fieldMap[cat]; ok {
		if col, ok := m[key]; ok {
			return col
		}
	}
	return key
}

// numericColumns is the set of item columns a catalog query may filter
// and order by. Guards the column name interpolated into SQL by Find.
var numericColumns = map[string]bool{
	"unit_price":        true,
	"power_w":           true,
	"capacity_ah":       true,
	"nominal_voltage_v": true,
	"vmp_v":             true,
	"voc_v":             true,
	"current_a":         true,
	"max_input_voc_v":   true,
	"mppt_min_v":        true,
	"mppt_max_v":        true,
	"surge_power_w":     true,
	"section_mm2":       true,
	"ampacity_a":        true,
}

// IsNumericColumn reports whether col is an orderable item column.
func IsNumericColumn(col string) bool {
	return numericColumns[col]
}

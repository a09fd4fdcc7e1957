package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ndec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

// seedItems is a base equipment set (MGA prices). References are fixed so
// the seed can be re-run without duplicating rows.
func seedItems() []Item {
	return []Item{
		// Panels: 12V-class modules
		{Category: CategoryPanel, Reference: "PAN-050", Name: "Panneau 50W", UnitPrice: dec("130000"),
			PowerW: ndec("50"), NominalVoltageV: ndec("12"), VmpV: ndec("18"), VocV: ndec("22.5")},
		{Category: CategoryPanel, Reference: "PAN-100", Name: "Panneau 100W", UnitPrice: dec("220000"),
			PowerW: ndec("100"), NominalVoltageV: ndec("12"), VmpV: ndec("18.5"), VocV: ndec("22.9")},
		{Category: CategoryPanel, Reference: "PAN-200", Name: "Panneau 200W", UnitPrice: dec("350000"),
			PowerW: ndec("200"), NominalVoltageV: ndec("12"), VmpV: ndec("19.2"), VocV: ndec("23.4")},
		{Category: CategoryPanel, Reference: "PAN-300", Name: "Panneau 300W", UnitPrice: dec("520000"),
			PowerW: ndec("300"), NominalVoltageV: ndec("24"), VmpV: ndec("32.6"), VocV: ndec("39.8")},

		// Batteries
		{Category: CategoryBattery, Reference: "BAT-050", Name: "Batterie 50Ah 12V", UnitPrice: dec("380000"),
			CapacityAh: ndec("50"), NominalVoltageV: ndec("12")},
		{Category: CategoryBattery, Reference: "BAT-100", Name: "Batterie 100Ah 12V", UnitPrice: dec("680000"),
			CapacityAh: ndec("100"), NominalVoltageV: ndec("12")},
		{Category: CategoryBattery, Reference: "BAT-200", Name: "Batterie 200Ah 12V", UnitPrice: dec("1150000"),
			CapacityAh: ndec("200"), NominalVoltageV: ndec("12")},

		// Charge controllers
		{Category: CategoryController, Reference: "REG-M30", Name: "MPPT 30A", UnitPrice: dec("420000"),
			ControllerType: ControllerMPPT, CurrentA: ndec("30"), MaxInputVocV: ndec("100"),
			MPPTMinV: ndec("15"), MPPTMaxV: ndec("75")},
		{Category: CategoryController, Reference: "REG-M60", Name: "MPPT 60A", UnitPrice: dec("780000"),
			ControllerType: ControllerMPPT, CurrentA: ndec("60"), MaxInputVocV: ndec("150"),
			MPPTMinV: ndec("30"), MPPTMaxV: ndec("120")},
		{Category: CategoryController, Reference: "REG-P30", Name: "PWM 30A", UnitPrice: dec("210000"),
			ControllerType: ControllerPWM, CurrentA: ndec("30"), MaxInputVocV: ndec("50")},

		// Inverters
		{Category: CategoryInverter, Reference: "OND-0500", Name: "Onduleur 500W", UnitPrice: dec("520000"),
			PowerW: ndec("500"), SurgePowerW: ndec("1000"), DCInputV: "12", ACOutputV: "230"},
		{Category: CategoryInverter, Reference: "OND-1500", Name: "Onduleur 1500W", UnitPrice: dec("1250000"),
			PowerW: ndec("1500"), SurgePowerW: ndec("3000"), DCInputV: "12/24", ACOutputV: "230"},
		{Category: CategoryInverter, Reference: "OND-3000", Name: "Onduleur 3000W", UnitPrice: dec("2850000"),
			PowerW: ndec("3000"), SurgePowerW: ndec("6000"), DCInputV: "24/48", ACOutputV: "230"},

		// DC cables, price per metre
		{Category: CategoryCable, Reference: "CAB-04", Name: "Câble 4mm²", UnitPrice: dec("6500"),
			SectionMM2: ndec("4"), AmpacityA: ndec("25")},
		{Category: CategoryCable, Reference: "CAB-06", Name: "Câble 6mm²", UnitPrice: dec("8500"),
			SectionMM2: ndec("6"), AmpacityA: ndec("32")},
		{Category: CategoryCable, Reference: "CAB-10", Name: "Câble 10mm²", UnitPrice: dec("12000"),
			SectionMM2: ndec("10"), AmpacityA: ndec("45")},
	}
}

// Seed inserts the base equipment set, skipping references already present.
// Returns the number of rows created.
func (s *Store) Seed() (int, error) {
	created := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range seedItems() {
			if err := item.Validate(); err != nil {
				return fmt.Errorf("seed item %s: %w", item.Reference, err)
			}
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "reference"}},
				DoNothing: true,
			}).Create(&item)
			if result.Error != nil {
				return result.Error
			}
			created += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

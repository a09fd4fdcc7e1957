package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"solar-sizer/internal/catalog"
)

// verifyCompatibility checks the array voltages against the controller.
//
// PWM requires the array nominal voltage to equal the bus voltage; MPPT
// requires the array Voc under the controller maximum and the array Vmp
// inside the MPPT window. Any attribute missing on either side skips the
// check entirely and reports ValidationSkipped: the original system
// tolerates incomplete catalog data rather than rejecting the request.
// Violations with complete data are hard errors.
func verifyCompatibility(panel catalog.Item, seriesCount int, controller catalog.Item, busVoltage decimal.Decimal) (ValidationStatus, error) {
	n := decimal.NewFromInt(int64(seriesCount))

	switch controller.ControllerType {
	case catalog.ControllerPWM:
		vnom := panel.NominalVoltageV
		if !positiveDec(vnom) || !busVoltage.IsPositive() {
			return ValidationSkipped, nil
		}
		arrayV := vnom.Decimal.Mul(n)
		if !arrayV.Equal(busVoltage) {
			return "", &IncompatibleConfigurationError{
				Reason: fmt.Sprintf("PWM: array nominal voltage %sV does not match bus %sV", arrayV, busVoltage),
			}
		}
		return ValidationPassed, nil

	case catalog.ControllerMPPT:
		voc := panel.VocV
		vmp := panel.VmpV
		vocMax := controller.MaxInputVocV
		mpptMin := controller.MPPTMinV
		mpptMax := controller.MPPTMaxV

		checked := false
		if positiveDec(voc) && positiveDec(vocMax) {
			arrayVoc := voc.Decimal.Mul(n)
			if arrayVoc.GreaterThan(vocMax.Decimal) {
				return "", &IncompatibleConfigurationError{
					Reason: fmt.Sprintf("MPPT: array Voc %sV exceeds controller maximum %sV", arrayVoc, vocMax.Decimal),
				}
			}
			checked = true
		}
		if positiveDec(vmp) && positiveDec(mpptMin) && positiveDec(mpptMax) {
			arrayVmp := vmp.Decimal.Mul(n)
			if arrayVmp.LessThan(mpptMin.Decimal) || arrayVmp.GreaterThan(mpptMax.Decimal) {
				return "", &IncompatibleConfigurationError{
					Reason: fmt.Sprintf("MPPT: array Vmp %sV outside window [%sV, %sV]", arrayVmp, mpptMin.Decimal, mpptMax.Decimal),
				}
			}
			checked = true
		}
		if !checked {
			return ValidationSkipped, nil
		}
		return ValidationPassed, nil
	}

	// Unknown or missing controller type: nothing to check.
	return ValidationSkipped, nil
}

package service

import (
	"github.com/smallbiznis/rentbill/internal/reading/domain"
)

// checkMonotonic rejects an index lower than the same field of the
// preceding period's reading. A missing predecessor, a null predecessor
// field, a null candidate, or a declared meter reset leave the field
// unconstrained. Electric and water are checked independently.
func checkMonotonic(prev *domain.UtilityReading, electric, water *int64, meterReset bool) error {
	if prev == nil || meterReset {
		return nil
	}
	if regressed(prev.ElectricIndex, electric) {
		return domain.ErrInvalidMeterIndex
	}
	if regressed(prev.WaterIndex, water) {
		return domain.ErrInvalidMeterIndex
	}
	return nil
}

func regressed(previous, candidate *int64) bool {
	if previous == nil || candidate == nil {
		return false
	}
	return *candidate < *previous
}

func checkNonNegative(values ...*int64) error {
	for _, v := range values {
		if v != nil && *v < 0 {
			return domain.ErrInvalidIndexValue
		}
	}
	return nil
}

package services

import (
	"strings"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
)

// IsCoveredInGeneral reports whether the general coverage result already
// answers for procedureCode, so no per-code call is needed. A line matches
// when its service label equals the code (case-insensitive) or when it
// carries the blanket dental service type. A missing or empty result is
// never treated as coverage.
func IsCoveredInGeneral(general *entities.BenefitsResult, procedureCode string) bool {
	if general == nil || len(general.Benefits) == 0 {
		return false
	}

	code := strings.TrimSpace(procedureCode)
	for _, line := range general.Benefits {
		if code != "" && strings.EqualFold(strings.TrimSpace(line.Service), code) {
			return true
		}
		if line.HasServiceType(entities.ServiceTypeDental) {
			return true
		}
	}
	return false
}

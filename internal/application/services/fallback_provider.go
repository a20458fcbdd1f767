package services

import (
	"encoding/json"
	"strings"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
)

// FallbackProcedureLimit caps the synthetic report to a prefix of the catalog
const FallbackProcedureLimit = 20

var fallbackTiers = []entities.BenefitLine{
	{Service: "Dental - Preventive", Status: "active", PercentageCovered: "100", CopayAmount: "$0"},
	{Service: "Dental - Basic", Status: "active", PercentageCovered: "80", CopayAmount: "$25"},
	{Service: "Dental - Major", Status: "active", PercentageCovered: "50", CopayAmount: "$100"},
}

type fallbackBenefit struct {
	PercentageCovered string `json:"percentageCovered"`
}

// BuildFallbackReport returns the deterministic synthetic report served when
// the upstream cannot be used. It makes no network calls.
func BuildFallbackReport(catalog ProcedureCatalog) *entities.CombinedReport {
	lines := make([]entities.BenefitLine, len(fallbackTiers))
	copy(lines, fallbackTiers)

	var procedures []entities.ProcedureDescriptor
	if catalog != nil {
		procedures = catalog.Procedures()
	}
	if len(procedures) > FallbackProcedureLimit {
		procedures = procedures[:FallbackProcedureLimit]
	}

	report := &entities.CombinedReport{
		General:    entities.NewBenefitsResult(lines),
		Procedures: make([]entities.ProcedureBenefit, 0, len(procedures)),
		Synthetic:  true,
	}
	for _, p := range procedures {
		pct := "80"
		if strings.Contains(strings.ToLower(p.Category), "preventive") {
			pct = "100"
		}
		payload, _ := json.Marshal(fallbackBenefit{PercentageCovered: pct})
		report.Procedures = append(report.Procedures, entities.ProcedureBenefit{
			Code:        p.Code,
			Description: p.Description,
			Category:    p.Category,
			Benefit:     entities.PayloadBenefit(payload),
		})
	}
	return report
}

package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ricky2013dev/pm-bdm/internal/application/services"
	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
)

func TestIsCoveredInGeneral(t *testing.T) {
	tests := []struct {
		name    string
		general *entities.BenefitsResult
		code    string
		want    bool
	}{
		{"nil result", nil, "D0120", false},
		{"empty benefits", entities.NewBenefitsResult([]entities.BenefitLine{}), "D0120", false},
		{"no benefits field", entities.NewBenefitsResult(nil), "D0120", false},
		{"dental service type", entities.NewBenefitsResult([]entities.BenefitLine{{ServiceTypeCode: "35"}}), "D2740", true},
		{"dental in service type list", entities.NewBenefitsResult([]entities.BenefitLine{{ServiceTypeCodes: []string{"30", "35"}}}), "D2740", true},
		{"service label matches code", entities.NewBenefitsResult([]entities.BenefitLine{{Service: "D0120"}}), "D0120", true},
		{"service label matches case-insensitively", entities.NewBenefitsResult([]entities.BenefitLine{{Service: "d0120"}}), "D0120", true},
		{"unrelated lines", entities.NewBenefitsResult([]entities.BenefitLine{{Service: "D1110", ServiceTypeCode: "30"}}), "D0120", false},
		{"blank code never matches blank label", entities.NewBenefitsResult([]entities.BenefitLine{{Service: ""}}), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.IsCoveredInGeneral(tt.general, tt.code))
		})
	}
}

func TestIsCoveredInGeneral_UpstreamShapes(t *testing.T) {
	numeric, err := entities.ParseBenefitsResult([]byte(`{"benefitsInformation":[{"serviceTypeCodes":[35],"code":"1"}]}`))
	assert.NoError(t, err)
	assert.True(t, services.IsCoveredInGeneral(numeric, "D0120"))

	opaque, err := entities.ParseBenefitsResult([]byte(`{"benefits":["not an object", 42]}`))
	assert.NoError(t, err)
	assert.False(t, services.IsCoveredInGeneral(opaque, "D0120"))
}

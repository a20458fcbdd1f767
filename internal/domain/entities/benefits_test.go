package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBenefitsResult_PassesUnknownFieldsThrough(t *testing.T) {
	body := `{"planStatus":[{"status":"Active Coverage"}],"benefits":[{"serviceTypeCode":"35","percentageCovered":80,"limitations":{"frequency":"2/yr"}}]}`

	result, err := ParseBenefitsResult([]byte(body))
	require.NoError(t, err)

	require.Len(t, result.Benefits, 1)
	assert.Equal(t, "80", result.Benefits[0].PercentageCovered)
	assert.True(t, result.Benefits[0].HasServiceType(ServiceTypeDental))

	out, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))

	assert.JSONEq(t, `[{"serviceTypeCode":"35","percentageCovered":80,"limitations":{"frequency":"2/yr"}}]`, string(result.BenefitsPayload()))
}

func TestParseBenefitsResult_BenefitsInformation(t *testing.T) {
	result, err := ParseBenefitsResult([]byte(`{"benefitsInformation":[{"code":"1","serviceTypeCodes":["35"]}]}`))
	require.NoError(t, err)

	assert.True(t, result.HasBenefits())
	require.Len(t, result.Benefits, 1)
	assert.Equal(t, []string{"35"}, result.Benefits[0].ServiceTypeCodes)
}

func TestParseBenefitsResult_NoBenefits(t *testing.T) {
	result, err := ParseBenefitsResult([]byte(`{"benefits":null}`))
	require.NoError(t, err)
	assert.False(t, result.HasBenefits())
	assert.Nil(t, result.BenefitsPayload())
}

func TestParseBenefitsResult_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{`<html>`, `[1,2]`, `null`, `"ok"`, ``} {
		_, err := ParseBenefitsResult([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestBenefitsResult_LocalMarshal(t *testing.T) {
	out, err := json.Marshal(NewBenefitsResult([]BenefitLine{{Service: "Dental - Basic", PercentageCovered: "80"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"benefits":[{"service":"Dental - Basic","percentageCovered":"80"}]}`, string(out))

	out, err = json.Marshal(NewBenefitsResult(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"benefits":[]}`, string(out))
}

func TestBenefit_JSON(t *testing.T) {
	tests := []struct {
		name    string
		benefit Benefit
		json    string
	}{
		{"sentinel", CoveredBenefit(), `"COVERED_BY_GENERAL"`},
		{"none", PayloadBenefit(nil), `null`},
		{"null payload is none", PayloadBenefit(json.RawMessage(`null`)), `null`},
		{"payload", PayloadBenefit(json.RawMessage(`[{"a":1}]`)), `[{"a":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := json.Marshal(tt.benefit)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(out))

			var back Benefit
			require.NoError(t, json.Unmarshal(out, &back))
			assert.Equal(t, tt.benefit.Kind, back.Kind)
		})
	}
}

func TestProcedureBenefit_JSON(t *testing.T) {
	out, err := json.Marshal(ProcedureBenefit{Code: "D0120", Description: "Periodic oral evaluation", Category: "Diagnostic", Benefit: CoveredBenefit()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"D0120","description":"Periodic oral evaluation","category":"Diagnostic","benefit":"COVERED_BY_GENERAL"}`, string(out))
}

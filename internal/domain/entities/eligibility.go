package entities

import (
	"time"
)

// ServiceTypeDental is the upstream service-type code for general dental coverage
const ServiceTypeDental = "35"

// Subscriber identifies the insured member
type Subscriber struct {
	MemberID    string `json:"memberId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
}

// Provider identifies the rendering provider. Passed to the upstream verbatim.
type Provider struct {
	NPI              string `json:"npi"`
	OrganizationName string `json:"organizationName,omitempty"`
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
}

// Encounter narrows an eligibility inquiry to service types and, optionally, one procedure
type Encounter struct {
	ServiceTypeCodes []string `json:"serviceTypeCodes"`
	ProcedureCode    string   `json:"procedureCode,omitempty"`
}

// GeneralDentalEncounter returns the encounter for the service-type level check
func GeneralDentalEncounter() Encounter {
	return Encounter{ServiceTypeCodes: []string{ServiceTypeDental}}
}

// ProcedureEncounter returns the encounter for a per-code check
func ProcedureEncounter(code string) Encounter {
	return Encounter{ServiceTypeCodes: []string{ServiceTypeDental}, ProcedureCode: code}
}

// ProcedureDescriptor is one entry of the procedure catalog
type ProcedureDescriptor struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ProcedureBenefit is the coverage answer for one catalog entry
type ProcedureBenefit struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Benefit     Benefit `json:"benefit"`
}

// CombinedReport is the unified dental benefits answer for one request.
// Synthetic marks reports built from local data instead of the upstream.
type CombinedReport struct {
	General    *BenefitsResult    `json:"general"`
	Procedures []ProcedureBenefit `json:"procedures"`
	Synthetic  bool               `json:"synthetic"`
}

// EligibilityEvent is published when an aggregation degrades to synthetic data
type EligibilityEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Reason      string    `json:"reason"`
	Note        string    `json:"note"`
	ProviderNPI string    `json:"providerNpi,omitempty"`
	Procedures  int       `json:"procedures"`
	Timestamp   time.Time `json:"timestamp"`
}

// EligibilityEventDegraded is the event type for fallback reports
const EligibilityEventDegraded = "eligibility.degraded"

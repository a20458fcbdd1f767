package providers

import (
	"context"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
)

// EligibilityClient defines the interface for the upstream eligibility service
type EligibilityClient interface {
	// CheckEligibility runs one eligibility inquiry. An empty payerID selects
	// the configured default trading partner. Failures are TRANSPORT or
	// UPSTREAM application errors.
	CheckEligibility(ctx context.Context, subscriber entities.Subscriber, provider entities.Provider, encounter entities.Encounter, payerID string) (*entities.BenefitsResult, error)
}

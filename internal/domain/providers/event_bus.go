package providers

import (
	"context"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
)

// EventBus defines the interface for publishing eligibility events
type EventBus interface {
	// Publish publishes an event to all subscribers of channel
	Publish(ctx context.Context, channel string, event *entities.EligibilityEvent) error

	// Close releases the bus
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelEligibilityDegraded receives one event per fallback report
	EventChannelEligibilityDegraded = "eligibility:degraded"
)

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
	"github.com/ricky2013dev/pm-bdm/internal/domain/providers"
	"github.com/ricky2013dev/pm-bdm/internal/infrastructure/observability"
	apperrors "github.com/ricky2013dev/pm-bdm/pkg/errors"
)

const (
	// FallbackNote accompanies synthetic reports served after an upstream failure
	FallbackNote = "Eligibility service is unavailable. Showing estimated coverage from sample data; verify benefits with the payer before relying on them."

	// MockModeNote accompanies synthetic reports served while live checks are disabled
	MockModeNote = "Live eligibility checks are disabled. Showing sample coverage data."

	// FallbackReasonMockMode is reported when mock mode served the report
	FallbackReasonMockMode = "mock_mode"

	eventPublishTimeout = 2 * time.Second
)

// ProcedureCatalog is the read-only procedure list the engine iterates
type ProcedureCatalog interface {
	Procedures() []entities.ProcedureDescriptor
}

// EligibilityServiceConfig tunes the aggregation engine
type EligibilityServiceConfig struct {
	// MaxConcurrency bounds in-flight per-procedure calls; 1 runs them sequentially
	MaxConcurrency int
	// MockMode serves the synthetic report without calling the upstream
	MockMode bool
}

// AggregationOutcome is the result of AggregateDentalBenefits. Note and
// FallbackReason are set only when Report is synthetic.
type AggregationOutcome struct {
	Report         *entities.CombinedReport
	Note           string
	FallbackReason string
}

// EligibilityService aggregates dental benefits across the procedure catalog
type EligibilityService struct {
	client         providers.EligibilityClient
	catalog        ProcedureCatalog
	maxConcurrency int
	mockMode       bool
	eventBus       providers.EventBus
	metrics        *observability.Metrics
}

// NewEligibilityService creates a new eligibility service
func NewEligibilityService(client providers.EligibilityClient, catalog ProcedureCatalog, cfg EligibilityServiceConfig) *EligibilityService {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &EligibilityService{
		client:         client,
		catalog:        catalog,
		maxConcurrency: maxConcurrency,
		mockMode:       cfg.MockMode,
	}
}

// SetEventBus enables degraded-mode event publishing
func (s *EligibilityService) SetEventBus(bus providers.EventBus) {
	s.eventBus = bus
}

// SetMetrics enables engine metrics
func (s *EligibilityService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// AggregateDentalBenefits builds the combined dental benefits report for one
// subscriber and provider. It runs one general coverage check, then a per-code
// check for every catalog entry the general result does not already cover.
//
// Upstream failures never surface as errors: the whole aggregation is dropped
// and the synthetic fallback report is returned instead. Errors are returned
// only for missing input (VALIDATION) or when ctx itself is done.
func (s *EligibilityService) AggregateDentalBenefits(ctx context.Context, subscriber *entities.Subscriber, provider *entities.Provider) (*AggregationOutcome, error) {
	if subscriber == nil || provider == nil {
		return nil, apperrors.NewValidationError("subscriber and provider are required")
	}

	ctx, span := observability.StartSpan(ctx, "eligibility.AggregateDentalBenefits")
	defer span.End()

	if s.mockMode {
		return s.fallback(ctx, provider, FallbackReasonMockMode, MockModeNote), nil
	}

	procedures := s.catalog.Procedures()
	report, err := s.aggregate(ctx, *subscriber, *provider, procedures)
	if err == nil {
		return &AggregationOutcome{Report: report}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	observability.RecordError(span, err)
	reason := apperrors.ClassifyUpstreamFailure(err)
	logger := observability.LoggerFromContext(ctx)
	if reason == apperrors.FailureUnknown {
		// not an upstream failure, so it is logged as a fault of this service
		logger.Error().Err(err).Str("reason", reason).Msg("eligibility aggregation failed internally; serving fallback report")
		return s.fallback(ctx, provider, reason, FallbackNote), nil
	}

	event := logger.Warn().Err(err).Str("reason", reason)
	if appErr, ok := apperrors.As(err); ok && appErr.StatusCode != 0 {
		event = event.Int("upstream_status", appErr.StatusCode).Str("upstream_body", appErr.Body)
	}
	if reason == apperrors.FailureRejected {
		event.Msg("upstream rejected eligibility request; serving fallback report")
	} else {
		event.Msg("eligibility upstream unavailable; serving fallback report")
	}

	return s.fallback(ctx, provider, reason, FallbackNote), nil
}

func (s *EligibilityService) aggregate(ctx context.Context, subscriber entities.Subscriber, provider entities.Provider, procedures []entities.ProcedureDescriptor) (*entities.CombinedReport, error) {
	general, err := s.client.CheckEligibility(ctx, subscriber, provider, entities.GeneralDentalEncounter(), "")
	if err != nil {
		return nil, fmt.Errorf("general coverage check: %w", err)
	}

	results := make([]entities.ProcedureBenefit, len(procedures))
	covered := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, proc := range procedures {
		results[i] = entities.ProcedureBenefit{
			Code:        proc.Code,
			Description: proc.Description,
			Category:    proc.Category,
		}

		if IsCoveredInGeneral(general, proc.Code) {
			results[i].Benefit = entities.CoveredBenefit()
			covered++
			continue
		}

		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res, err := s.client.CheckEligibility(gctx, subscriber, provider, entities.ProcedureEncounter(proc.Code), "")
			if err != nil {
				return fmt.Errorf("procedure %s coverage check: %w", proc.Code, err)
			}
			results[i].Benefit = entities.PayloadBenefit(res.BenefitsPayload())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Wait always cancels gctx; only the caller's context says the loop was cut short
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observability.RecordShortCircuit(ctx, s.metrics, covered)
	return &entities.CombinedReport{
		General:    general,
		Procedures: results,
	}, nil
}

func (s *EligibilityService) fallback(ctx context.Context, provider *entities.Provider, reason, note string) *AggregationOutcome {
	report := BuildFallbackReport(s.catalog)
	observability.RecordFallback(ctx, s.metrics, reason)
	s.publishDegraded(ctx, provider, reason, note, len(report.Procedures))
	return &AggregationOutcome{
		Report:         report,
		Note:           note,
		FallbackReason: reason,
	}
}

func (s *EligibilityService) publishDegraded(ctx context.Context, provider *entities.Provider, reason, note string, procedures int) {
	if s.eventBus == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	event := &entities.EligibilityEvent{
		ID:          uuid.NewString(),
		Type:        entities.EligibilityEventDegraded,
		Reason:      reason,
		Note:        note,
		ProviderNPI: provider.NPI,
		Procedures:  procedures,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.eventBus.Publish(pubCtx, providers.EventChannelEligibilityDegraded, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to publish degraded eligibility event")
	}
}

// CheckEligibility runs a single raw eligibility inquiry. Unlike the
// aggregation, upstream failures are returned to the caller. An encounter
// without service types defaults to general dental coverage.
func (s *EligibilityService) CheckEligibility(ctx context.Context, subscriber *entities.Subscriber, provider *entities.Provider, encounter entities.Encounter, payerID string) (*entities.BenefitsResult, error) {
	if subscriber == nil || provider == nil {
		return nil, apperrors.NewValidationError("subscriber and provider are required")
	}
	if len(encounter.ServiceTypeCodes) == 0 {
		encounter.ServiceTypeCodes = []string{entities.ServiceTypeDental}
	}
	if s.mockMode {
		return BuildFallbackReport(nil).General, nil
	}
	return s.client.CheckEligibility(ctx, *subscriber, *provider, encounter, payerID)
}

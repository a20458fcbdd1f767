package stedi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
	"github.com/ricky2013dev/pm-bdm/internal/domain/providers"
	"github.com/ricky2013dev/pm-bdm/internal/infrastructure/observability"
	"github.com/ricky2013dev/pm-bdm/pkg/config"
	apperrors "github.com/ricky2013dev/pm-bdm/pkg/errors"
)

const (
	eligibilityPath = "/eligibility/v3"

	maxResponseBytes  = 4 << 20
	maxErrorBodyBytes = 2048
)

// Client calls the Stedi real-time eligibility endpoint. It holds no
// per-request state and is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	payerID    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
}

// Option customizes a Client
type Option func(*Client)

// WithMetrics records upstream call metrics
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// NewClient creates a new Stedi client from startup configuration
func NewClient(cfg *config.StediConfig, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		payerID:    cfg.PayerID,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ providers.EligibilityClient = (*Client)(nil)

type eligibilityRequest struct {
	TradingPartnerServiceID string              `json:"tradingPartnerServiceId"`
	Subscriber              entities.Subscriber `json:"subscriber"`
	Provider                entities.Provider   `json:"provider"`
	Encounter               entities.Encounter  `json:"encounter"`
}

// CheckEligibility runs one eligibility inquiry. subscriber is passed by value
// and only the outbound copy carries the normalized date of birth.
func (c *Client) CheckEligibility(ctx context.Context, subscriber entities.Subscriber, provider entities.Provider, encounter entities.Encounter, payerID string) (*entities.BenefitsResult, error) {
	scope := "general"
	if encounter.ProcedureCode != "" {
		scope = "procedure"
	}

	ctx, span := observability.StartSpan(ctx, "stedi.CheckEligibility")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("eligibility.scope", scope),
		attribute.String("eligibility.procedure_code", encounter.ProcedureCode),
	)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := c.do(ctx, subscriber, provider, encounter, payerID)
	outcome := "ok"
	if err != nil {
		outcome = apperrors.ClassifyUpstreamFailure(err)
		observability.RecordError(span, err)
	}
	observability.RecordUpstreamCall(ctx, c.metrics, scope, outcome, time.Since(start))
	return result, err
}

func (c *Client) do(ctx context.Context, subscriber entities.Subscriber, provider entities.Provider, encounter entities.Encounter, payerID string) (*entities.BenefitsResult, error) {
	logger := observability.LoggerFromContext(ctx)

	if payerID == "" {
		payerID = c.payerID
	}

	dob, ok := NormalizeDateOfBirth(subscriber.DateOfBirth)
	if !ok {
		logger.Warn().
			Str("procedure_code", encounter.ProcedureCode).
			Msg("subscriber date of birth is not YYYY-MM-DD; sending it unseparated")
	}
	subscriber.DateOfBirth = dob

	body, err := json.Marshal(eligibilityRequest{
		TradingPartnerServiceID: payerID,
		Subscriber:              subscriber,
		Provider:                provider,
		Encounter:               encounter,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode eligibility request", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewTransportError("eligibility rate limiter wait aborted", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+eligibilityPath, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewTransportError("failed to build eligibility request", err)
	}
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewTransportError("eligibility call failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewTransportError("failed to read eligibility response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug().
			Int("status", resp.StatusCode).
			Str("procedure_code", encounter.ProcedureCode).
			Msg("eligibility call returned non-success status")
		return nil, apperrors.NewUpstreamError("eligibility call returned non-success status", resp.StatusCode, truncate(respBody), nil)
	}

	result, err := entities.ParseBenefitsResult(respBody)
	if err != nil {
		return nil, apperrors.NewUpstreamError("eligibility response could not be decoded", resp.StatusCode, truncate(respBody), err)
	}
	return result, nil
}

// NormalizeDateOfBirth turns YYYY-MM-DD into YYYYMMDD. Other inputs have
// their separators removed and ok reports whether the result is 8 digits.
func NormalizeDateOfBirth(dob string) (string, bool) {
	trimmed := strings.TrimSpace(dob)
	if t, err := time.Parse("2006-01-02", trimmed); err == nil {
		return t.Format("20060102"), true
	}

	stripped := strings.Map(func(r rune) rune {
		if r == '-' || r == '/' || r == '.' {
			return -1
		}
		return r
	}, trimmed)

	if len(stripped) != 8 {
		return stripped, false
	}
	for _, r := range stripped {
		if !unicode.IsDigit(r) {
			return stripped, false
		}
	}
	return stripped, true
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		return fmt.Sprintf("%s...", body[:maxErrorBodyBytes])
	}
	return string(body)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ricky2013dev/pm-bdm/internal/application/services"
	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
	"github.com/ricky2013dev/pm-bdm/internal/infrastructure/observability"
	apperrors "github.com/ricky2013dev/pm-bdm/pkg/errors"
)

const maxRequestBodyBytes = 1 << 20

// EligibilityService is the engine behind the eligibility routes
type EligibilityService interface {
	AggregateDentalBenefits(ctx context.Context, subscriber *entities.Subscriber, provider *entities.Provider) (*services.AggregationOutcome, error)
	CheckEligibility(ctx context.Context, subscriber *entities.Subscriber, provider *entities.Provider, encounter entities.Encounter, payerID string) (*entities.BenefitsResult, error)
}

// EligibilityHandler handles eligibility requests
type EligibilityHandler struct {
	service EligibilityService
	catalog services.ProcedureCatalog

	// configErr is set at startup when the upstream credential is missing
	configErr error
}

// NewEligibilityHandler creates a new eligibility handler. A non-nil
// configErr makes the upstream-backed routes answer 500.
func NewEligibilityHandler(service EligibilityService, catalog services.ProcedureCatalog, configErr error) *EligibilityHandler {
	return &EligibilityHandler{
		service:   service,
		catalog:   catalog,
		configErr: configErr,
	}
}

// Response is the envelope of every eligibility route
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Note    string      `json:"note,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type dentalBenefitsRequest struct {
	Subscriber *entities.Subscriber `json:"subscriber"`
	Provider   *entities.Provider   `json:"provider"`
}

type eligibilityCheckRequest struct {
	Subscriber              *entities.Subscriber `json:"subscriber"`
	Provider                *entities.Provider   `json:"provider"`
	Encounter               *entities.Encounter  `json:"encounter"`
	TradingPartnerServiceID string               `json:"tradingPartnerServiceId"`
}

// DentalBenefits handles POST /eligibility/dental-benefits
func (h *EligibilityHandler) DentalBenefits(w http.ResponseWriter, r *http.Request) {
	var req dentalBenefitsRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subscriber == nil || req.Provider == nil {
		respondWithError(w, http.StatusBadRequest, "subscriber and provider are required")
		return
	}
	if h.configErr != nil {
		respondWithError(w, http.StatusInternalServerError, "eligibility service is not configured")
		return
	}

	outcome, err := h.service.AggregateDentalBenefits(r.Context(), req.Subscriber, req.Provider)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    outcome.Report,
		Note:    outcome.Note,
	})
}

// Check handles POST /eligibility/check. Upstream failures are returned as 502.
func (h *EligibilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req eligibilityCheckRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subscriber == nil || req.Provider == nil {
		respondWithError(w, http.StatusBadRequest, "subscriber and provider are required")
		return
	}
	if h.configErr != nil {
		respondWithError(w, http.StatusInternalServerError, "eligibility service is not configured")
		return
	}

	var encounter entities.Encounter
	if req.Encounter != nil {
		encounter = *req.Encounter
	}

	result, err := h.service.CheckEligibility(r.Context(), req.Subscriber, req.Provider, encounter, req.TradingPartnerServiceID)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// ListProcedures handles GET /eligibility/procedures
func (h *EligibilityHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	procedures := h.catalog.Procedures()
	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"procedures": procedures,
			"count":      len(procedures),
		},
	})
}

func (h *EligibilityHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())

	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperrors.IsUpstreamFailure(err):
		logger.Warn().Err(err).Str("reason", apperrors.ClassifyUpstreamFailure(err)).Msg("eligibility check failed upstream")
		respondWithError(w, http.StatusBadGateway, "eligibility upstream request failed")
	case apperrors.IsType(err, apperrors.ErrorTypeConfiguration):
		logger.Error().Err(err).Msg("eligibility service is not configured")
		respondWithError(w, http.StatusInternalServerError, "eligibility service is not configured")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Info().Err(err).Msg("eligibility request ended before completion")
		respondWithError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		logger.Error().Err(err).Msg("eligibility request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, Response{
		Success: false,
		Error:   message,
	})
}

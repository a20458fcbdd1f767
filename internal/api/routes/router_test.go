package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ricky2013dev/pm-bdm/internal/api/handlers"
	"github.com/ricky2013dev/pm-bdm/internal/api/routes"
	"github.com/ricky2013dev/pm-bdm/internal/application/services"
	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
)

type unusedClient struct{}

func (unusedClient) CheckEligibility(context.Context, entities.Subscriber, entities.Provider, entities.Encounter, string) (*entities.BenefitsResult, error) {
	panic("mock mode must not reach the upstream")
}

type staticCatalog []entities.ProcedureDescriptor

func (c staticCatalog) Procedures() []entities.ProcedureDescriptor {
	return c
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	catalog := staticCatalog{{Code: "D0120", Description: "Periodic oral evaluation", Category: "Diagnostic"}}
	svc := services.NewEligibilityService(unusedClient{}, catalog, services.EligibilityServiceConfig{MockMode: true})
	handler := handlers.NewEligibilityHandler(svc, catalog, nil)
	return routes.NewRouter(handler, []string{"*"}, nil).SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_DentalBenefitsMockMode(t *testing.T) {
	body := `{"subscriber":{"memberId":"0000000000","dateOfBirth":"1987-05-21"},"provider":{"npi":"1234567890"}}`
	req := httptest.NewRequest(http.MethodPost, "/eligibility/dental-benefits", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTestServer(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `"synthetic":true`)
	assert.Contains(t, rec.Body.String(), services.MockModeNote)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/eligibility/dental-benefits", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

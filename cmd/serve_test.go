package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/appraisal-cli/internal/estimate"
	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/pipeline"
	"github.com/sells-group/appraisal-cli/internal/profile"
)

func testMux(limiter *rate.Limiter) *http.ServeMux {
	return buildMux(profile.NewCatalog(), pipeline.NewEngine(estimate.DefaultPolicy(), false), limiter)
}

const valueRequest = `{
  "subject_property": {
    "id": "SUBJECT",
    "building_sf": 50000,
    "attributes": {
      "clear_height": 28, "year_built": 1992, "condition": "average",
      "location_quality": "average", "building_sf": 50000, "office_finish_pct": 12
    }
  },
  "comparable_sales": [
    {
      "id": "COMP_1", "building_sf": 46000,
      "attributes": {"clear_height": 30, "year_built": 2001, "condition": "good", "location_quality": "weak", "building_sf": 46000, "office_finish_pct": 10},
      "sale": {"price": 4556500, "date": "2025-03-14", "conditions_of_sale": {"arms_length": true}}
    },
    {
      "id": "COMP_2", "building_sf": 72000,
      "attributes": {"clear_height": 24, "year_built": 1985, "condition": "fair", "location_quality": "weak", "building_sf": 72000},
      "sale": {"price": 5493700, "date": "2024-11-02", "conditions_of_sale": {"arms_length": true}}
    },
    {
      "id": "COMP_3", "building_sf": 52000,
      "attributes": {"clear_height": 32, "year_built": 2015, "condition": "excellent", "location_quality": "strong", "building_sf": 52000, "office_finish_pct": 8},
      "sale": {"price": 5426700, "date": "2025-01-20", "conditions_of_sale": {"arms_length": true}}
    },
    {
      "id": "COMP_4", "building_sf": 61000,
      "attributes": {"clear_height": 26, "year_built": 1998, "condition": "good", "location_quality": "average", "building_sf": 61000, "office_finish_pct": 15},
      "sale": {"price": 5642600, "date": "2025-02-10", "conditions_of_sale": {"arms_length": true}}
    }
  ],
  "weight_profile": "industrial_default"
}`

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := testMux(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_Value(t *testing.T) {
	mux := testMux(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/value", strings.NewReader(valueRequest))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var analysis model.Analysis
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &analysis))
	assert.NotEmpty(t, analysis.ID)
	assert.Equal(t, "industrial_default", analysis.Profile)
	assert.InDelta(t, 4648416.62, analysis.IndicatedValue, 0.01)
	assert.Equal(t, model.ConfidenceHigh, analysis.Estimate.Confidence)
	assert.Equal(t, []string{"office_finish_pct"}, analysis.DroppedAttributes)
}

func TestBuildMux_Value_BadBody(t *testing.T) {
	mux := testMux(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/value", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuildMux_Value_UnknownProfile(t *testing.T) {
	mux := testMux(nil)

	body := `{"subject_property": {"building_sf": 1000}, "weight_profile": "retail_default"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/value", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown profile")
}

func TestBuildMux_Value_InsufficientComps(t *testing.T) {
	mux := testMux(nil)

	body := `{
	  "subject_property": {"building_sf": 1000, "attributes": {"year_built": 1990, "condition": 3, "location_quality": 3, "building_sf": 1000, "clear_height": 20, "office_finish_pct": 5}},
	  "comparable_sales": [
	    {"id": "C1", "building_sf": 900,
	     "attributes": {"year_built": 1991, "condition": 3, "location_quality": 3, "building_sf": 900, "clear_height": 22, "office_finish_pct": 4},
	     "sale": {"price": 90000, "date": "2025-01-01", "conditions_of_sale": {"arms_length": true}}}
	  ],
	  "weight_profile": "industrial_default"
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/value", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "need at least 3")
}

func TestBuildMux_Value_RateLimited(t *testing.T) {
	mux := testMux(rate.NewLimiter(0, 0))

	req := httptest.NewRequest(http.MethodPost, "/v1/value", strings.NewReader(valueRequest))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

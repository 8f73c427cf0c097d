package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ehr/clinic/internal/config"
	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/platform/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8000",
		Env:            "test",
		CORSOrigins:    []string{"http://localhost:3000"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		RequestTimeout: 5 * time.Second,
		BodyLimit:      "1M",
	}
}

func testServer(t *testing.T) (http.Handler, *clinic.Registry) {
	t.Helper()
	collector := metrics.NewCollector(prometheus.NewRegistry())
	reg := clinic.NewRegistry(clinic.WithObserver(NewMetricsObserver(collector)))
	e := newServer(testConfig(), reg, collector, noop.NewTracerProvider(), zerolog.Nop())
	return e, reg
}

func TestHealth(t *testing.T) {
	e, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["version"] != version {
		t.Errorf("unexpected body %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestRegisterPatient_CountsOperation(t *testing.T) {
	e, reg := testServer(t)

	body := `{"name":"Laura Gomez","id":"99887766","birth_date":"12/03/1990"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d: %s", i, want, rec.Code, rec.Body.String())
		}
	}
	if len(reg.Patients()) != 1 {
		t.Fatalf("expected 1 patient, got %d", len(reg.Patients()))
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{
		`clinic_registry_operations_total{operation="register_patient",outcome="ok"} 1`,
		`clinic_registry_operations_total{operation="register_patient",outcome="duplicate_entity"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}

func TestBodyLimit(t *testing.T) {
	e, _ := testServer(t)

	big := `{"name":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestBodyLimit_StreamedBody(t *testing.T) {
	e, reg := testServer(t)

	big := `{"name":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(reg.Patients()) != 0 {
		t.Errorf("expected no patients, got %d", len(reg.Patients()))
	}
}

func TestNewLogger_Level(t *testing.T) {
	var sb strings.Builder
	l := newLogger(&sb, false, zerolog.WarnLevel)
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	if strings.Contains(sb.String(), "hidden") || !strings.Contains(sb.String(), "shown") {
		t.Errorf("unexpected log output %q", sb.String())
	}
}

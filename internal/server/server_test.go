package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/portfolio-projection/internal/config"
	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/testutil"
	"go.uber.org/zap"
)

func newTestHandler() http.Handler {
	return NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test", nil)
}

func decodeForecast(t *testing.T, rr *httptest.ResponseRecorder) forecastResponse {
	t.Helper()
	var resp forecastResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp["error"]
}

func TestHandleForecastSuccess(t *testing.T) {
	handler := newTestHandler()

	rr := performUpload(t, handler, `
common:
  growthRate: 7
scenarios:
  - name: baseline
    active: true
  - name: higher growth
    active: true
    growthRate: 10
`, "config.yaml")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeForecast(t, rr)
	if len(resp.Scenarios) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(resp.Scenarios))
	}
	higher := testutil.FindScenario(resp.Scenarios, "higher growth")
	if higher == nil || higher.Input.GrowthRate != 10 {
		t.Fatalf("expected higher growth scenario with override, got %+v", higher)
	}
	baseline := testutil.FindScenario(resp.Scenarios, "baseline")
	if testutil.FinalRow(higher).Total <= testutil.FinalRow(baseline).Total {
		t.Fatal("expected higher growth to end above baseline")
	}
	if len(resp.Scenarios[0].Rows) != constants.DefaultYears+1 {
		t.Fatalf("expected %d rows, got %d", constants.DefaultYears+1, len(resp.Scenarios[0].Rows))
	}
	if resp.Scenarios[0].Summary.InitialTotal != 200878 {
		t.Fatalf("expected initial total 200878, got %d", resp.Scenarios[0].Summary.InitialTotal)
	}
	if !strings.HasPrefix(resp.CSV, "scenario,year,") {
		t.Fatalf("expected CSV data in response, got %q", resp.CSV)
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
}

func TestHandleForecastTOMLUpload(t *testing.T) {
	rr := performUpload(t, newTestHandler(), "[common]\nyears = 3\n", "config.toml")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeForecast(t, rr)
	if len(resp.Scenarios) != 1 || len(resp.Scenarios[0].Rows) != 4 {
		t.Fatalf("expected one baseline scenario with 4 rows, got %+v", resp.Scenarios)
	}
}

func TestHandleForecastEditorSuccess(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"config": map[string]interface{}{
			"common": map[string]interface{}{
				"baseYear": 2025,
				"balances": map[string]interface{}{
					"taxFreeA": 0, "taxFreeB": 0, "retirement": 0,
					"homeSavings": 0, "unregistered": 0, "alternative": 0,
				},
				"contributions": map[string]interface{}{
					"taxFreeA": 0, "taxFreeB": 0, "retirement": 10000,
					"unregistered": 0, "alternative": 0,
				},
				"monthlyExpense":  1000,
				"growthRate":      10,
				"inflationRate":   0,
				"years":           2,
				"downPayment":     0,
				"downPaymentYear": 2026,
			},
		},
	}

	rr := performEditorJSON(t, handler, payload, "/api/editor/forecast")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeForecast(t, rr)
	if len(resp.Scenarios) != 1 {
		t.Fatalf("expected implicit baseline scenario, got %d", len(resp.Scenarios))
	}
	rows := resp.Scenarios[0].Rows
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].Total != 10000 || rows[2].Total != 21000 {
		t.Fatalf("unexpected totals %d, %d", rows[1].Total, rows[2].Total)
	}
	if rows[2].InvestmentReturns != 1000 || rows[2].ROIPercent != 10 {
		t.Fatalf("unexpected returns %d or ROI %v", rows[2].InvestmentReturns, rows[2].ROIPercent)
	}
}

func TestHandleForecastEditorBareConfigUsesDefaults(t *testing.T) {
	rr := performEditorJSON(t, newTestHandler(), map[string]interface{}{
		"common": map[string]interface{}{"years": 5},
	}, "/api/editor/forecast")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeForecast(t, rr)
	if got := resp.Scenarios[0].Input; got.Years != 5 || got.GrowthRate != constants.DefaultGrowthRate {
		t.Fatalf("expected defaults with years override, got %+v", got)
	}
}

func TestHandleForecastEditorMemoizes(t *testing.T) {
	cache := forecast.NewCache(8)
	handler := NewHandler(zap.NewNop(), 0, "", cache)
	payload := map[string]interface{}{"config": map[string]interface{}{}}

	for i := 0; i < 3; i++ {
		rr := performEditorJSON(t, handler, payload, "/api/editor/forecast")
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i, rr.Code)
		}
	}

	hits, misses := cache.Stats()
	if hits != 2 || misses != 1 {
		t.Fatalf("expected 2 hits and 1 miss, got %d and %d", hits, misses)
	}
}

func TestHandleForecastEditorErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "Malformed JSON",
			body:       "{",
			wantStatus: http.StatusBadRequest,
			wantError:  "failed to decode configuration",
		},
		{
			name:       "Config is not an object",
			body:       `{"config": 5}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "expected object",
		},
		{
			name:       "No active scenarios",
			body:       `{"config": {"scenarios": [{"name": "off", "active": false}]}}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "no active scenarios",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/editor/forecast", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			newTestHandler().ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if msg := decodeError(t, rr); !strings.Contains(msg, tt.wantError) {
				t.Fatalf("expected error containing %q, got %q", tt.wantError, msg)
			}
		})
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := newTestHandler()
	payload := map[string]interface{}{
		"config": map[string]interface{}{
			"common":    map[string]interface{}{"growthRate": 9},
			"scenarios": []interface{}{map[string]interface{}{"name": "custom", "active": true}},
		},
	}

	for _, format := range []string{"yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			rr := performEditorJSON(t, handler, payload, "/api/editor/export?format="+format)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}

			var resp exportResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Format != format {
				t.Fatalf("expected format %s, got %s", format, resp.Format)
			}

			conf, err := config.LoadConfigurationFromReader(strings.NewReader(resp.Content), format)
			if err != nil {
				t.Fatalf("exported %s does not load: %v\n%s", format, err, resp.Content)
			}
			if conf.Common.GrowthRate != 9 {
				t.Fatalf("expected growth rate 9, got %v", conf.Common.GrowthRate)
			}
			if len(conf.Scenarios) != 1 || conf.Scenarios[0].Name != "custom" {
				t.Fatalf("expected custom scenario, got %+v", conf.Scenarios)
			}
		})
	}
}

func TestHandleConfigExportDefaultsToYAML(t *testing.T) {
	rr := performEditorJSON(t, newTestHandler(), map[string]interface{}{}, "/api/editor/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp exportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Format != "yaml" || !strings.Contains(resp.Content, "common:") {
		t.Fatalf("expected yaml export, got %+v", resp)
	}
}

func TestHandleConfigExportUnsupportedFormat(t *testing.T) {
	rr := performEditorJSON(t, newTestHandler(), map[string]interface{}{}, "/api/editor/export?format=xml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "unsupported format") {
		t.Fatalf("expected unsupported format error, got %q", msg)
	}
}

func TestHandleDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/defaults", nil)
	rr := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Config            config.Configuration `json:"config"`
		GrowthRatePresets []float64            `json:"growthRatePresets"`
		GrowthRateRange   [2]float64           `json:"growthRateRange"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Config.Common != config.Default().Common {
		t.Fatalf("unexpected defaults %+v", resp.Config.Common)
	}
	if len(resp.GrowthRatePresets) != 3 || resp.GrowthRateRange[1] != constants.MaxGrowthRate {
		t.Fatalf("unexpected slider metadata %+v", resp)
	}
}

func TestHandleVersion(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, " 1.2.3 ", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "1.2.3" {
		t.Fatalf("expected trimmed version, got %q", resp["version"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if id := rr.Header().Get(constants.RequestIDHeader); len(id) != 36 {
		t.Fatalf("expected generated uuid request id, got %q", id)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(constants.RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if id := rr.Header().Get(constants.RequestIDHeader); id != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", id)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/forecast"},
		{http.MethodGet, "/api/editor/forecast"},
		{http.MethodGet, "/api/editor/export"},
		{http.MethodPost, "/api/defaults"},
		{http.MethodPost, "/api/version"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			newTestHandler().ServeHTTP(rr, req)

			if rr.Code != http.StatusMethodNotAllowed {
				t.Fatalf("expected status 405, got %d", rr.Code)
			}
		})
	}
}

func TestHandleForecastUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 64, "", nil)

	rr := performUpload(t, handler, strings.Repeat("a", 128), "config.yaml")

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", msg)
	}
}

func TestHandleForecastMissingFile(t *testing.T) {
	handler := newTestHandler()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/forecast", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "missing configuration file" {
		t.Fatalf("expected missing file error, got %q", msg)
	}
}

func TestHandleForecastInvalidYAML(t *testing.T) {
	rr := performUpload(t, newTestHandler(), "common: [", "config.yaml")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "error reading config") {
		t.Fatalf("expected parse error message, got %q", msg)
	}
}

func TestHandleForecastNonFiniteUpload(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
	}{
		{name: "YAML NaN growth", content: "common:\n  growthRate: .nan\n", filename: "config.yaml"},
		{name: "YAML infinite balance", content: "common:\n  balances:\n    retirement: .inf\n", filename: "config.yaml"},
		{name: "TOML NaN expense", content: "[common]\nmonthlyExpense = nan\n", filename: "config.toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performUpload(t, newTestHandler(), tt.content, tt.filename)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if msg := decodeError(t, rr); !strings.Contains(msg, "non-finite") {
				t.Fatalf("expected non-finite error, got %q", msg)
			}
		})
	}
}

func TestHandleForecastEditorIgnoresEnvironment(t *testing.T) {
	t.Setenv("PROJECTION_COMMON_GROWTHRATE", "1")
	t.Setenv("PROJECTION_COMMON_YEARS", "40")

	rr := performEditorJSON(t, newTestHandler(), map[string]interface{}{
		"common": map[string]interface{}{"growthRate": 15},
	}, "/api/editor/forecast")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	got := decodeForecast(t, rr).Scenarios[0].Input
	if got.GrowthRate != 15 {
		t.Errorf("expected submitted growth rate 15, got %v", got.GrowthRate)
	}
	if got.Years != constants.DefaultYears {
		t.Errorf("expected default years %d, got %d", constants.DefaultYears, got.Years)
	}
}

func TestHandleForecastHorizonTooLong(t *testing.T) {
	t.Run("Editor", func(t *testing.T) {
		rr := performEditorJSON(t, newTestHandler(), map[string]interface{}{
			"common": map[string]interface{}{"years": 1000000000},
		}, "/api/editor/forecast")

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
		}
		if msg := decodeError(t, rr); !strings.Contains(msg, "horizon too long") {
			t.Fatalf("expected horizon error, got %q", msg)
		}
	})

	t.Run("Upload scenario override", func(t *testing.T) {
		rr := performUpload(t, newTestHandler(), `
scenarios:
  - name: baseline
    active: true
  - name: forever
    active: true
    years: 201
`, "config.yaml")

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
		}
		if msg := decodeError(t, rr); !strings.Contains(msg, `scenario "forever"`) {
			t.Fatalf("expected the offending scenario to be named, got %q", msg)
		}
	})
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()

	h.writeJSON(rr, req, http.StatusOK, map[string]float64{"total": math.NaN()})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	if msg := decodeError(t, rr); msg != "failed to encode response" {
		t.Fatalf("unexpected error body %q", msg)
	}
}

func TestStaticAssetsServed(t *testing.T) {
	handler := newTestHandler()

	for path, want := range map[string]string{
		"/":          "Portfolio Projection",
		"/style.css": "#chart",
		"/app.js":    "api/editor/forecast",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200 for %s, got %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), want) {
			t.Fatalf("expected %s to contain %q", path, want)
		}
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	address := listener.Addr().String()
	_ = listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, &Config{Address: address, ShutdownTimeout: time.Second}, newTestHandler(), nil)
	}()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + address + "/api/version")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never became reachable: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/forecast", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performEditorJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

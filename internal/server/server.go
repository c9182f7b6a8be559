package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/portfolio-projection/internal/config"
	"github.com/iwvelando/portfolio-projection/internal/forecast"
	"github.com/iwvelando/portfolio-projection/pkg/constants"
	"github.com/iwvelando/portfolio-projection/pkg/output"
	"github.com/iwvelando/portfolio-projection/pkg/validation"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	cache         *forecast.Cache
}

type ctxKey struct{}

// NewHandler constructs the HTTP handler that serves the web editor and the
// projection API. Projections are memoized in cache; a nil cache gets a
// default-sized one.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, cache *forecast.Cache) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	if cache == nil {
		cache = forecast.NewCache(constants.DefaultCacheEntries)
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion, cache: cache}

	mux := http.NewServeMux()

	// Default inputs for seeding the editor
	mux.HandleFunc("/api/defaults", h.handleDefaults)

	// Forecast API endpoint (file upload)
	mux.HandleFunc("/api/forecast", h.handleForecast)

	// Forecast API endpoint for editor-driven updates
	mux.HandleFunc("/api/editor/forecast", h.handleForecastEditor)

	// Config serialization endpoint for editor downloads
	mux.HandleFunc("/api/editor/export", h.handleConfigExport)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	return h.withRequestID(mux)
}

// Serve runs the HTTP server until ctx is canceled, then shuts it down
// gracefully within cfg.ShutdownTimeout.
func Serve(ctx context.Context, cfg *Config, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("server listening",
		zap.String("op", "server.Serve"),
		zap.String("address", cfg.Address),
	)

	select {
	case <-ctx.Done():
		timeout := cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		logger.Info("shutting down server",
			zap.String("op", "server.Serve"),
		)
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// withRequestID tags every request with an id, echoes it in the response and
// attaches a request-scoped logger to the context.
func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(constants.RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(constants.RequestIDHeader, id)

		logger := h.logger.With(zap.String("requestId", id))
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, logger)))

		logger.Debug("request served",
			zap.String("op", "server.withRequestID"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) loggerFor(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value(ctxKey{}).(*zap.Logger); ok {
		return logger
	}
	return h.logger
}

type forecastResponse struct {
	Scenarios []forecast.Forecast `json:"scenarios"`
	Warnings  []string            `json:"warnings,omitempty"`
	CSV       string              `json:"csv"`
	Duration  string              `json:"duration"`
}

type exportResponse struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

func (h *handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, r, http.StatusOK, struct {
		Config               *config.Configuration `json:"config"`
		GrowthRatePresets    []float64             `json:"growthRatePresets"`
		InflationRatePresets []float64             `json:"inflationRatePresets"`
		GrowthRateRange      [2]float64            `json:"growthRateRange"`
		InflationRateRange   [2]float64            `json:"inflationRateRange"`
		RateStep             float64               `json:"rateStep"`
	}{
		Config:               config.Default(),
		GrowthRatePresets:    constants.GrowthRatePresets,
		InflationRatePresets: constants.InflationRatePresets,
		GrowthRateRange:      [2]float64{constants.MinGrowthRate, constants.MaxGrowthRate},
		InflationRateRange:   [2]float64{constants.MinInflationRate, constants.MaxInflationRate},
		RateStep:             constants.RateSliderStep,
	})
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.loggerFor(r).Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(&buf, uploadConfigType(header.Filename))
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.runForecast(w, r, cfg, start, op)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleForecastEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecastEditor"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	cfg, err := decodeEditorConfig(r.Body)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.runForecast(w, r, cfg, start, op)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = constants.ExportFormatYAML
	}
	if err := validation.ValidateExportFormat(format); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	cfg, err := decodeEditorConfig(r.Body)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	data, err := config.Export(cfg, format)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}

	h.writeJSON(w, r, http.StatusOK, exportResponse{Format: format, Content: string(data)})
}

// decodeEditorConfig accepts either a bare configuration object or one
// wrapped as {"config": {...}}. Missing keys take their defaults.
func decodeEditorConfig(body io.Reader) (*config.Configuration, error) {
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if payload == nil {
		payload = make(map[string]json.RawMessage)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if wrapped, ok := payload["config"]; ok {
		trimmed := bytes.TrimSpace(wrapped)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, errors.New("invalid config payload: expected object")
		}
		raw = trimmed
	}

	return config.LoadConfigurationFromReader(bytes.NewReader(raw), "json")
}

func (h *handler) runForecast(w http.ResponseWriter, r *http.Request, cfg *config.Configuration, start time.Time, op string) {
	logger := h.loggerFor(r)

	warnings := cfg.ValidateConfiguration()
	results, err := forecast.NewRunner(logger, h.cache).Run(cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, forecast.ErrNoActiveScenarios) || errors.Is(err, forecast.ErrHorizonTooLong) {
			status = http.StatusBadRequest
		}
		h.respondErrorWithOp(w, r, status, fmt.Sprintf("failed to compute forecast: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	response := forecastResponse{
		Scenarios: results,
		Warnings:  warnings,
		CSV:       output.CsvString(results),
		Duration:  elapsed.String(),
	}

	hits, misses := h.cache.Stats()
	logger.Info("forecast computed",
		zap.String("op", op),
		zap.Int("scenarios", len(results)),
		zap.Uint64("cacheHits", hits),
		zap.Uint64("cacheMisses", misses),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, r, http.StatusOK, response)
}

func uploadConfigType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		return "toml"
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.loggerFor(r).Error("forecast request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeJSON encodes payload before touching the response so an encoding
// failure still produces a 500 with a body.
func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.loggerFor(r).Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(map[string]string{"error": "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.loggerFor(r).Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

// Package server exposes the tray analysis pipeline over HTTP: image
// analysis, bill correction, menu browsing, health, and metrics endpoints,
// plus a WebSocket variant of analysis with progress updates.
package server

import (
	"context"
	"fmt"
	"image"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/traybill/traybill/internal/billing"
	"github.com/traybill/traybill/internal/catalog"
	"github.com/traybill/traybill/internal/pipeline"
)

// RateLimitConfig bounds request rates per client and globally.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	BurstSize         int
	GlobalLimit       int
}

// Config holds HTTP server settings.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	RateLimit   RateLimitConfig
	Pipeline    pipeline.Config
}

// trayAnalyzer is the part of the pipeline the server needs, narrowed for
// testing with fakes.
type trayAnalyzer interface {
	Analyze(ctx context.Context, img image.Image) (*pipeline.Result, error)
	Close() error
}

// Server handles HTTP requests for tray analysis.
type Server struct {
	config      Config
	analyzer    trayAnalyzer
	catalog     *catalog.Catalog
	biller      *billing.Biller
	rateLimiter *RateLimiter
}

// New builds the pipeline from the configuration and wraps it in a server.
func New(cfg Config) (*Server, error) {
	p, err := pipeline.NewBuilderFromConfig(cfg.Pipeline).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis pipeline: %w", err)
	}
	return newWith(cfg, p, p.Catalog, p.Biller), nil
}

// newWith wires a server around an existing analyzer. Used by New and by
// tests that substitute fakes.
func newWith(cfg Config, analyzer trayAnalyzer, cat *catalog.Catalog, biller *billing.Biller) *Server {
	if cat == nil {
		cat = catalog.Default()
	}
	if biller == nil {
		biller = billing.NewBiller(cat)
	}
	s := &Server{
		config:   cfg,
		analyzer: analyzer,
		catalog:  cat,
		biller:   biller,
	}
	if cfg.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(cfg.RateLimit)
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/update-food-item", s.handleUpdateFoodItem)
	mux.HandleFunc("/api/food-info", s.handleFoodInfo)
	mux.HandleFunc("/ws/analyze", s.handleAnalyzeWS)

	var h http.Handler = mux
	h = s.rateLimitMiddleware(h)
	h = s.corsMiddleware(h)
	h = metricsMiddleware(h)
	return h
}

// Close releases pipeline resources.
func (s *Server) Close() error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.analyzer != nil {
		return s.analyzer.Close()
	}
	return nil
}

func (s *Server) maxUploadBytes() int64 {
	return s.config.MaxUploadMB * 1024 * 1024
}

package handler

import (
	"log/slog"

	"github.com/minhvt/mealstock/internal/jobstore"
	"github.com/minhvt/mealstock/internal/metrics"
	"github.com/minhvt/mealstock/internal/nutrition"
	"github.com/minhvt/mealstock/internal/pool"
	"github.com/minhvt/mealstock/internal/scan"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Processor *scan.Processor
	Store     *jobstore.Store
	Nutrition *nutrition.Service
	Metrics   *metrics.Metrics

	// PriceLookup is the external price-scraping integration, injected
	// by the host. Nil means the batch price endpoint is unavailable.
	PriceLookup pool.ProcessFunc[string]
}

// ScanHandler handles scan, job, and batch HTTP requests
type ScanHandler struct {
	logger      *slog.Logger
	processor   *scan.Processor
	store       *jobstore.Store
	nutrition   *nutrition.Service
	priceLookup pool.ProcessFunc[string]
}

// NewScanHandler creates a new ScanHandler instance
func NewScanHandler(deps *Dependencies) *ScanHandler {
	return &ScanHandler{
		logger:      deps.Logger,
		processor:   deps.Processor,
		store:       deps.Store,
		nutrition:   deps.Nutrition,
		priceLookup: deps.PriceLookup,
	}
}

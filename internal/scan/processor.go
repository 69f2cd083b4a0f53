package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/minhvt/mealstock/internal/jobstore"
	"github.com/minhvt/mealstock/internal/metrics"
	"github.com/minhvt/mealstock/internal/stock"
)

// Config holds processor configuration.
type Config struct {
	Logger      *slog.Logger
	Store       *jobstore.Store
	Products    ProductStore
	Stock       Stock
	Converter   UnitConverter
	Metrics     *metrics.Metrics
	MaxWorkers  int
	ItemTimeout time.Duration
}

// Processor executes scan jobs against the stock ledger and writes
// status, logs, and results back into the job store.
type Processor struct {
	logger      *slog.Logger
	store       *jobstore.Store
	products    ProductStore
	stock       Stock
	converter   UnitConverter
	metrics     *metrics.Metrics
	maxWorkers  int
	itemTimeout time.Duration
}

// NewProcessor creates a processor.
func NewProcessor(cfg *Config) *Processor {
	return &Processor{
		logger:      cfg.Logger,
		store:       cfg.Store,
		products:    cfg.Products,
		stock:       cfg.Stock,
		converter:   cfg.Converter,
		metrics:     cfg.Metrics,
		maxWorkers:  cfg.MaxWorkers,
		itemTimeout: cfg.ItemTimeout,
	}
}

// EnqueueScanJob registers a scan job and kicks the drain loop. The
// returned id is available immediately; callers poll GetJobStatus for
// progress. Fire and forget: the job runs on a background context, not
// the request context.
func (p *Processor) EnqueueScanJob(operation, barcode string) (int64, error) {
	if operation != OperationAdd && operation != OperationRemove {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperation, operation)
	}

	id := p.store.Enqueue(operation, barcode)
	p.metrics.JobsEnqueued.Inc()

	go p.drain(context.Background())

	return id, nil
}

// GetJobStatus returns the latest snapshot of a job. Polling always
// reports the last known status; a job stuck in RUNNING is never
// promoted to FAILED automatically.
func (p *Processor) GetJobStatus(id int64) (jobstore.Job, bool) {
	return p.store.Get(id)
}

// drain runs the single logical drain lane: dequeue and process until
// the ticket queue is empty. The store's drain guard makes a second
// concurrent lane structurally impossible; the recheck after release
// covers tickets enqueued while the guard was being dropped.
func (p *Processor) drain(ctx context.Context) {
	for {
		if !p.store.TryAcquireDrain() {
			return
		}
		for {
			id, ok := p.store.Dequeue()
			if !ok {
				break
			}
			p.processJob(ctx, id)
		}
		p.store.ReleaseDrain()

		if p.store.QueueLen() == 0 {
			return
		}
	}
}

// processJob runs one scan job through its state machine:
// PENDING → RUNNING → COMPLETED or FAILED.
func (p *Processor) processJob(ctx context.Context, id int64) {
	job, ok := p.store.Get(id)
	if !ok {
		return
	}

	p.store.UpdateStatus(id, jobstore.StatusRunning)
	p.store.AppendLog(id, fmt.Sprintf("Processing %s scan for barcode %s", job.Operation, job.Subject))

	p.logger.Info("Processing scan job",
		slog.Int64("job_id", id),
		slog.String("operation", job.Operation),
		slog.String("barcode", job.Subject),
	)

	result, err := p.executeScan(ctx, id, job.Operation, job.Subject)
	if err != nil {
		p.store.AppendLog(id, fmt.Sprintf("Error: %s", err.Error()))
		p.store.UpdateStatus(id, jobstore.StatusFailed)
		p.metrics.JobsProcessed.WithLabelValues(jobstore.StatusFailed).Inc()

		p.logger.Error("Scan job failed",
			slog.Int64("job_id", id),
			slog.String("error", err.Error()),
		)
		return
	}

	p.store.SetResult(id, result)
	p.store.UpdateStatus(id, jobstore.StatusCompleted)
	p.metrics.JobsProcessed.WithLabelValues(jobstore.StatusCompleted).Inc()
}

// executeScan resolves the barcode and applies the stock mutation.
// Input errors (unknown barcode on remove) complete the job with a
// no-op result rather than failing it.
func (p *Processor) executeScan(ctx context.Context, jobID int64, operation, barcode string) (map[string]any, error) {
	product, err := p.products.ProductByBarcode(ctx, barcode)
	if err != nil {
		if !errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		if operation == OperationRemove {
			p.store.AppendLog(jobID, fmt.Sprintf("No product known for barcode %s, nothing removed", barcode))
			p.store.LogActivity(fmt.Sprintf("Remove scan for unknown barcode %s ignored", barcode))
			return map[string]any{"found": false}, nil
		}
		product, err = p.createScannedProduct(ctx, jobID, barcode)
		if err != nil {
			return nil, err
		}
	}

	switch operation {
	case OperationAdd:
		if _, err := p.stock.Deposit(ctx, product.ID, 1, stock.DepositOptions{}); err != nil {
			return nil, err
		}
		p.metrics.StockDeposits.Inc()
		p.store.AppendLog(jobID, fmt.Sprintf("Added 1 %s of %s to stock", BaseUnit, product.Name))
		p.store.LogActivity(fmt.Sprintf("Added 1 %s of %s (barcode %s)", BaseUnit, product.Name, barcode))
		return map[string]any{"product_id": product.ID, "amount": 1.0}, nil

	case OperationRemove:
		res, err := p.stock.Deplete(ctx, product.ID, 1)
		if err != nil {
			return nil, err
		}
		p.metrics.StockDepletions.Inc()
		p.store.AppendLog(jobID, fmt.Sprintf("Removed %.2f %s of %s from stock", res.Deducted, BaseUnit, product.Name))
		if res.Clamped {
			p.metrics.StockClamped.Inc()
			p.store.AppendLog(jobID, fmt.Sprintf("Stock of %s was insufficient, deduction capped at %.2f", product.Name, res.Deducted))
		}
		p.store.LogActivity(fmt.Sprintf("Removed %.2f %s of %s (barcode %s)", res.Deducted, BaseUnit, product.Name, barcode))
		return map[string]any{"product_id": product.ID, "amount": res.Deducted, "clamped": res.Clamped}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidOperation, operation)
}

// createScannedProduct creates a minimal product for a barcode seen for
// the first time and surfaces it in the recent-item buffer with a
// booking id.
func (p *Processor) createScannedProduct(ctx context.Context, jobID int64, barcode string) (*Product, error) {
	name := fmt.Sprintf("New product (%s)", barcode)
	productID, err := p.products.CreateProduct(ctx, name, barcode)
	if err != nil {
		return nil, err
	}

	bookingID := uuid.New().String()
	p.store.PushRecentItem(jobstore.RecentItem{
		ProductID: productID,
		Name:      name,
		Barcode:   barcode,
		BookingID: bookingID,
	})
	p.store.AppendLog(jobID, fmt.Sprintf("Created new product %q for barcode %s", name, barcode))
	p.store.LogActivity(fmt.Sprintf("New product %q created by scan (booking %s)", name, bookingID))

	p.logger.Info("Product created by scan",
		slog.Int64("product_id", productID),
		slog.String("barcode", barcode),
		slog.String("booking_id", bookingID),
	)

	return &Product{ID: productID, Name: name, Barcode: barcode}, nil
}

package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvt/mealstock/internal/jobstore"
	"github.com/minhvt/mealstock/internal/metrics"
	"github.com/minhvt/mealstock/internal/stock"
)

type fakeProductStore struct {
	mu          sync.Mutex
	byBarcode   map[string]*Product
	nextID      int64
	ingredients map[int64][]IngredientDemand
	createErr   error
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		byBarcode:   make(map[string]*Product),
		ingredients: make(map[int64][]IngredientDemand),
	}
}

func (f *fakeProductStore) ProductByBarcode(_ context.Context, barcode string) (*Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byBarcode[barcode]; ok {
		out := *p
		return &out, nil
	}
	return nil, ErrProductNotFound
}

func (f *fakeProductStore) CreateProduct(_ context.Context, name, barcode string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.byBarcode[barcode] = &Product{ID: f.nextID, Name: name, Barcode: barcode}
	return f.nextID, nil
}

func (f *fakeProductStore) RecipeIngredients(_ context.Context, recipeID int64) ([]IngredientDemand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ingredients[recipeID], nil
}

type fakeStock struct {
	mu       sync.Mutex
	amounts  map[int64]float64
	deposits []int64
}

func newFakeStock() *fakeStock {
	return &fakeStock{amounts: make(map[int64]float64)}
}

func (f *fakeStock) Deposit(_ context.Context, productID int64, amount float64, _ stock.DepositOptions) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts[productID] += amount
	f.deposits = append(f.deposits, productID)
	return int64(len(f.deposits)), nil
}

func (f *fakeStock) Deplete(_ context.Context, productID int64, requested float64) (stock.DepleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	available := f.amounts[productID]
	deducted := requested
	if deducted > available {
		deducted = available
	}
	f.amounts[productID] = available - deducted
	return stock.DepleteResult{Requested: requested, Deducted: deducted, Clamped: deducted < requested}, nil
}

type identityConverter struct{}

func (identityConverter) Convert(_ context.Context, _ int64, amount float64, _, _ string) (float64, stock.FactorSource, error) {
	return amount, stock.FactorIdentity, nil
}

func newTestProcessor(products *fakeProductStore, ledger *fakeStock) (*Processor, *jobstore.Store) {
	store := jobstore.NewStore(slog.New(slog.DiscardHandler))
	p := NewProcessor(&Config{
		Logger:      slog.New(slog.DiscardHandler),
		Store:       store,
		Products:    products,
		Stock:       ledger,
		Converter:   identityConverter{},
		Metrics:     metrics.New(func() float64 { return 0 }),
		MaxWorkers:  2,
		ItemTimeout: time.Second,
	})
	return p, store
}

func waitForTerminal(t *testing.T, p *Processor, jobID int64) jobstore.Job {
	t.Helper()
	var job jobstore.Job
	require.Eventually(t, func() bool {
		j, ok := p.GetJobStatus(jobID)
		if !ok {
			return false
		}
		job = j
		return j.Status == jobstore.StatusCompleted || j.Status == jobstore.StatusFailed
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestEnqueueScanJobRejectsUnknownOperation(t *testing.T) {
	p, _ := newTestProcessor(newFakeProductStore(), newFakeStock())

	_, err := p.EnqueueScanJob("consume", "123")
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestAddScanKnownProduct(t *testing.T) {
	products := newFakeProductStore()
	products.byBarcode["4711"] = &Product{ID: 9, Name: "Oats", Barcode: "4711"}
	ledger := newFakeStock()
	p, _ := newTestProcessor(products, ledger)

	jobID, err := p.EnqueueScanJob(OperationAdd, "4711")
	require.NoError(t, err)

	job := waitForTerminal(t, p, jobID)
	assert.Equal(t, jobstore.StatusCompleted, job.Status)
	assert.NotEmpty(t, job.Logs)
	assert.Equal(t, 1.0, ledger.amounts[9])
}

func TestAddScanUnknownBarcodeCreatesProduct(t *testing.T) {
	products := newFakeProductStore()
	ledger := newFakeStock()
	p, store := newTestProcessor(products, ledger)

	jobID, err := p.EnqueueScanJob(OperationAdd, "999")
	require.NoError(t, err)

	job := waitForTerminal(t, p, jobID)
	assert.Equal(t, jobstore.StatusCompleted, job.Status)

	items := store.RecentItems()
	require.Len(t, items, 1)
	assert.Equal(t, "999", items[0].Barcode)
	assert.NotEmpty(t, items[0].BookingID)
	assert.NotEmpty(t, store.Activity())

	created, err := products.ProductByBarcode(context.Background(), "999")
	require.NoError(t, err)
	assert.Equal(t, 1.0, ledger.amounts[created.ID])
}

func TestRemoveScanUnknownBarcodeIsNoOp(t *testing.T) {
	p, _ := newTestProcessor(newFakeProductStore(), newFakeStock())

	jobID, err := p.EnqueueScanJob(OperationRemove, "404")
	require.NoError(t, err)

	job := waitForTerminal(t, p, jobID)
	assert.Equal(t, jobstore.StatusCompleted, job.Status, "input errors complete as no-ops")

	result, ok := job.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, result["found"])
}

func TestRemoveScanClampsOnInsufficientStock(t *testing.T) {
	products := newFakeProductStore()
	products.byBarcode["4711"] = &Product{ID: 9, Name: "Oats", Barcode: "4711"}
	ledger := newFakeStock()
	ledger.amounts[9] = 0.5
	p, _ := newTestProcessor(products, ledger)

	jobID, err := p.EnqueueScanJob(OperationRemove, "4711")
	require.NoError(t, err)

	job := waitForTerminal(t, p, jobID)
	assert.Equal(t, jobstore.StatusCompleted, job.Status)

	result, ok := job.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.5, result["amount"])
	assert.Equal(t, true, result["clamped"])
	assert.Equal(t, 0.0, ledger.amounts[9], "stock never goes negative")
}

func TestJobsProcessInEnqueueOrder(t *testing.T) {
	products := newFakeProductStore()
	ledger := newFakeStock()
	p, _ := newTestProcessor(products, ledger)

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := p.EnqueueScanJob(OperationAdd, fmt.Sprintf("bc-%d", i))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for _, id := range ids {
		job := waitForTerminal(t, p, id)
		assert.Equal(t, jobstore.StatusCompleted, job.Status)
	}

	// One product per distinct barcode, deposited in FIFO job order.
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	require.Len(t, ledger.deposits, 5)
	for i := 1; i < len(ledger.deposits); i++ {
		assert.Greater(t, ledger.deposits[i], ledger.deposits[i-1])
	}
}

func TestExecuteMealPlansResultShape(t *testing.T) {
	products := newFakeProductStore()
	products.ingredients[1] = []IngredientDemand{{ProductID: 10, Amount: 2, Unit: "serving"}}
	products.ingredients[3] = []IngredientDemand{{ProductID: 11, Amount: 1, Unit: "serving"}}
	// recipe 2 has no ingredients and must fail without affecting 1 and 3
	ledger := newFakeStock()
	ledger.amounts[10] = 5
	ledger.amounts[11] = 0.25
	p, _ := newTestProcessor(products, ledger)

	results := p.ExecuteMealPlans(context.Background(), []int64{1, 2, 3})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)

	first, ok := results[0].Value.(MealPlanItem)
	require.True(t, ok)
	assert.Equal(t, int64(1), first.RecipeID)
	assert.Equal(t, 2.0, first.Deducted)
	assert.Zero(t, first.Shortfalls)

	third, ok := results[2].Value.(MealPlanItem)
	require.True(t, ok)
	assert.Equal(t, 1, third.Shortfalls, "shortfall counted, not errored")
	assert.Equal(t, 0.25, third.Deducted)

	assert.Equal(t, 3.0, ledger.amounts[10])
	assert.Equal(t, 0.0, ledger.amounts[11])
}

func TestRunBatchDelegatesPoolContract(t *testing.T) {
	p, _ := newTestProcessor(newFakeProductStore(), newFakeStock())

	results := p.RunBatch(context.Background(), []string{"a", "b"}, func(_ context.Context, item string, _ int) (any, error) {
		if item == "b" {
			return nil, errors.New("lookup failed")
		}
		return map[string]any{"barcode": item}, nil
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
}

// Package scan processes barcode scan jobs outside the HTTP request
// path: it drains the job store's ticket queue one job at a time and
// dispatches batch operations through the bounded worker pool.
package scan

import (
	"context"
	"errors"

	"github.com/minhvt/mealstock/internal/stock"
)

// Scan operations accepted by the processor.
const (
	OperationAdd    = "add"
	OperationRemove = "remove"
)

// BaseUnit is the quantity unit stock amounts are ledgered in.
const BaseUnit = "serving"

var (
	// ErrInvalidOperation is returned for operations other than add/remove.
	ErrInvalidOperation = errors.New("invalid scan operation")
	// ErrProductNotFound is returned when no product matches a barcode.
	ErrProductNotFound = errors.New("product not found")
)

// Product is the slice of a product record the processor needs.
type Product struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	Barcode string `db:"barcode"`
}

// IngredientDemand is one recipe line as a stock demand.
type IngredientDemand struct {
	ProductID int64   `db:"product_id"`
	Amount    float64 `db:"amount"`
	Unit      string  `db:"unit"`
}

// ProductStore resolves and creates products and loads recipe demands.
type ProductStore interface {
	ProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	CreateProduct(ctx context.Context, name, barcode string) (int64, error)
	RecipeIngredients(ctx context.Context, recipeID int64) ([]IngredientDemand, error)
}

// Stock is the ledger surface the processor consumes.
type Stock interface {
	Deposit(ctx context.Context, productID int64, amount float64, opts stock.DepositOptions) (int64, error)
	Deplete(ctx context.Context, productID int64, requested float64) (stock.DepleteResult, error)
}

// UnitConverter resolves ingredient amounts into the base unit.
type UnitConverter interface {
	Convert(ctx context.Context, productID int64, amount float64, fromUnit, toUnit string) (float64, stock.FactorSource, error)
}

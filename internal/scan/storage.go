package scan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Storage is the sqlx-backed ProductStore.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a Storage instance.
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{db: db, logger: logger}
}

// ProductByBarcode resolves a product by its barcode.
func (s *Storage) ProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	var product Product
	err := s.db.GetContext(ctx, &product, `
		SELECT id, name, COALESCE(barcode, '') AS barcode
		FROM products
		WHERE barcode = $1
	`, barcode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by barcode: %w", err)
	}
	return &product, nil
}

// CreateProduct inserts a minimal product record for a barcode seen
// for the first time. Macro fields start at zero and num_servings at 1
// until the product is edited.
func (s *Storage) CreateProduct(ctx context.Context, name, barcode string) (int64, error) {
	var productID int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (name, barcode, num_servings, calories, carbs, protein, fat)
		VALUES ($1, $2, 1, 0, 0, 0, 0)
		RETURNING id
	`, name, barcode).Scan(&productID)
	if err != nil {
		return 0, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		slog.Int64("product_id", productID),
		slog.String("barcode", barcode),
	)

	return productID, nil
}

// RecipeIngredients loads a recipe's ingredient lines as stock demands.
func (s *Storage) RecipeIngredients(ctx context.Context, recipeID int64) ([]IngredientDemand, error) {
	var demands []IngredientDemand
	err := s.db.SelectContext(ctx, &demands, `
		SELECT product_id, amount, unit
		FROM recipe_ingredients
		WHERE recipe_id = $1
		ORDER BY id ASC
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	return demands, nil
}

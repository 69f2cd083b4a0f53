// Package nutrition recomputes recipe macro snapshots from ingredient
// lists and keeps derived meal products in sync with them.
package nutrition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Service owns macro recalculation and meal-product synchronization.
type Service struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewService creates a nutrition service backed by the given database.
func NewService(db *sqlx.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type recipeRow struct {
	ID           int64         `db:"id"`
	Name         string        `db:"name"`
	BaseServings float64       `db:"base_servings"`
	ProductID    sql.NullInt64 `db:"product_id"`
	Macros
}

type ingredientRow struct {
	ProductID   int64   `db:"product_id"`
	Amount      float64 `db:"amount"`
	Unit        string  `db:"unit"`
	NumServings float64 `db:"num_servings"`
	Calories    float64 `db:"calories"`
	Carbs       float64 `db:"carbs"`
	Protein     float64 `db:"protein"`
	Fat         float64 `db:"fat"`
}

// RecalculateRecipeMacros recomputes the recipe's per-serving macro
// snapshot from its ingredient list and writes it back. This is a full
// recomputation, not an incremental update. A missing recipe or a
// non-positive base_servings is an input error handled as a logged
// no-op: the snapshot stays unchanged and ok is false.
func (s *Service) RecalculateRecipeMacros(ctx context.Context, recipeID int64) (bool, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Macro recalculation skipped - recipe not found",
				slog.Int64("recipe_id", recipeID),
			)
			return false, nil
		}
		return false, err
	}

	if recipe.BaseServings <= 0 {
		s.logger.Warn("Macro recalculation skipped - non-positive base servings",
			slog.Int64("recipe_id", recipeID),
			slog.Float64("base_servings", recipe.BaseServings),
		)
		return false, nil
	}

	ingredients, err := s.getIngredients(ctx, recipeID)
	if err != nil {
		return false, err
	}

	snapshot, ok := aggregateMacros(recipe.BaseServings, ingredients)
	if !ok {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE recipes
		SET calories = $1, carbs = $2, protein = $3, fat = $4
		WHERE id = $5
	`, snapshot.Calories, snapshot.Carbs, snapshot.Protein, snapshot.Fat, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to write macro snapshot: %w", err)
	}

	s.logger.Info("Recipe macros recalculated",
		slog.Int64("recipe_id", recipeID),
		slog.Float64("calories", snapshot.Calories),
		slog.Float64("carbs", snapshot.Carbs),
		slog.Float64("protein", snapshot.Protein),
		slog.Float64("fat", snapshot.Fat),
	)

	return true, nil
}

// SyncMealProducts ensures one derived "[MEAL] <name>" product exists
// per serving of the recipe, nutrition copied from the current macro
// snapshot and num_servings fixed at 1 (each meal product is exactly
// one consumable serving). Products matching a derived name are updated
// in place; the recipe is linked to the first product id. Callers
// invoke this paired with RecalculateRecipeMacros after any write that
// could change macros, so the derived products never drift from the
// snapshot.
func (s *Service) SyncMealProducts(ctx context.Context, recipeID int64) error {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Meal product sync skipped - recipe not found",
				slog.Int64("recipe_id", recipeID),
			)
			return nil
		}
		return err
	}

	servings := int(recipe.BaseServings)
	if servings < 1 {
		servings = 1
	}

	var firstID int64
	for i := 1; i <= servings; i++ {
		name := MealProductName(recipe.Name, i)
		productID, err := s.upsertMealProduct(ctx, name, recipe.Macros)
		if err != nil {
			return err
		}
		if i == 1 {
			firstID = productID
		}
	}

	_, err = s.db.ExecContext(ctx, `UPDATE recipes SET product_id = $1 WHERE id = $2`, firstID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to link meal product: %w", err)
	}

	s.logger.Info("Meal products synced",
		slog.Int64("recipe_id", recipeID),
		slog.Int("servings", servings),
		slog.Int64("product_id", firstID),
	)

	return nil
}

// MealProductName derives the product name for one serving of a recipe.
func MealProductName(recipeName string, serving int) string {
	if serving <= 1 {
		return fmt.Sprintf("[MEAL] %s", recipeName)
	}
	return fmt.Sprintf("[MEAL] %s (%d)", recipeName, serving)
}

func (s *Service) getRecipe(ctx context.Context, recipeID int64) (*recipeRow, error) {
	var recipe recipeRow
	err := s.db.GetContext(ctx, &recipe, `
		SELECT id, name, base_servings, product_id, calories, carbs, protein, fat
		FROM recipes
		WHERE id = $1
	`, recipeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

func (s *Service) getIngredients(ctx context.Context, recipeID int64) ([]Ingredient, error) {
	var rows []ingredientRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT ri.product_id, ri.amount, ri.unit,
		       p.num_servings, p.calories, p.carbs, p.protein, p.fat
		FROM recipe_ingredients ri
		JOIN products p ON p.id = ri.product_id
		WHERE ri.recipe_id = $1
		ORDER BY ri.id ASC
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}

	ingredients := make([]Ingredient, len(rows))
	for i, r := range rows {
		ingredients[i] = Ingredient{
			ProductID:   r.ProductID,
			Amount:      r.Amount,
			Unit:        r.Unit,
			NumServings: r.NumServings,
			PerServing: Macros{
				Calories: r.Calories,
				Carbs:    r.Carbs,
				Protein:  r.Protein,
				Fat:      r.Fat,
			},
		}
	}
	return ingredients, nil
}

func (s *Service) upsertMealProduct(ctx context.Context, name string, m Macros) (int64, error) {
	var productID int64
	err := s.db.GetContext(ctx, &productID, `SELECT id FROM products WHERE name = $1`, name)
	if err == nil {
		_, err = s.db.ExecContext(ctx, `
			UPDATE products
			SET calories = $1, carbs = $2, protein = $3, fat = $4, num_servings = 1
			WHERE id = $5
		`, m.Calories, m.Carbs, m.Protein, m.Fat, productID)
		if err != nil {
			return 0, fmt.Errorf("failed to update meal product: %w", err)
		}
		return productID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up meal product: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO products (name, calories, carbs, protein, fat, num_servings)
		VALUES ($1, $2, $3, $4, $5, 1)
		RETURNING id
	`, name, m.Calories, m.Carbs, m.Protein, m.Fat).Scan(&productID)
	if err != nil {
		return 0, fmt.Errorf("failed to create meal product: %w", err)
	}
	return productID, nil
}

package scan

import (
	"context"
	"fmt"

	"github.com/minhvt/mealstock/internal/pool"
)

// MealPlanItem summarizes one recipe's stock consumption.
type MealPlanItem struct {
	RecipeID    int64   `json:"recipe_id"`
	Ingredients int     `json:"ingredients"`
	Shortfalls  int     `json:"shortfalls"`
	Deducted    float64 `json:"deducted"`
}

// ExecuteMealPlans consumes the ingredients of each recipe from stock
// through the worker pool: one result per recipe id, in input order,
// regardless of individual failures. Per ingredient, the amount is
// converted from its recipe unit into the base unit and depleted;
// shortfalls are counted, never errors.
func (p *Processor) ExecuteMealPlans(ctx context.Context, recipeIDs []int64) []pool.Result {
	results := pool.RunBatch(ctx, recipeIDs, p.consumeRecipe, p.maxWorkers, p.itemTimeout, p.logger)
	p.countBatchOutcomes(results)
	return results
}

// RunBatch exposes the bounded pool for collaborator-supplied work,
// e.g. batched external price lookups. The pool contract holds: result
// slice length equals input length, input order, every slot filled.
func (p *Processor) RunBatch(ctx context.Context, items []string, fn pool.ProcessFunc[string]) []pool.Result {
	results := pool.RunBatch(ctx, items, fn, p.maxWorkers, p.itemTimeout, p.logger)
	p.countBatchOutcomes(results)
	return results
}

func (p *Processor) consumeRecipe(ctx context.Context, recipeID int64, _ int) (any, error) {
	demands, err := p.products.RecipeIngredients(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if len(demands) == 0 {
		return nil, fmt.Errorf("recipe %d has no ingredients", recipeID)
	}

	item := MealPlanItem{RecipeID: recipeID, Ingredients: len(demands)}
	for _, d := range demands {
		amount, _, err := p.converter.Convert(ctx, d.ProductID, d.Amount, d.Unit, BaseUnit)
		if err != nil {
			return nil, err
		}
		res, err := p.stock.Deplete(ctx, d.ProductID, amount)
		if err != nil {
			return nil, err
		}
		p.metrics.StockDepletions.Inc()
		if res.Clamped {
			p.metrics.StockClamped.Inc()
			item.Shortfalls++
		}
		item.Deducted += res.Deducted
	}

	p.store.LogActivity(fmt.Sprintf("Meal plan executed for recipe %d (%d ingredients, %d short)",
		recipeID, item.Ingredients, item.Shortfalls))

	return item, nil
}

func (p *Processor) countBatchOutcomes(results []pool.Result) {
	for _, r := range results {
		if r.Success {
			p.metrics.BatchItems.WithLabelValues("success").Inc()
		} else {
			p.metrics.BatchItems.WithLabelValues("failure").Inc()
		}
	}
}

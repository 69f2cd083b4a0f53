package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/minhvt/mealstock/internal/api/dto"
	"github.com/minhvt/mealstock/internal/pool"
)

// BatchPriceLookup handles POST /api/v1/batch/price-lookup
// Fans barcodes out through the worker pool against the injected
// price integration.
func (h *ScanHandler) BatchPriceLookup(c *gin.Context) {
	if h.priceLookup == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "price lookup integration not configured",
		})
		return
	}

	var req dto.BatchPriceLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	results := h.processor.RunBatch(c.Request.Context(), req.Barcodes, h.priceLookup)
	c.JSON(http.StatusOK, toBatchResponse(results))
}

// ExecuteMealPlans handles POST /api/v1/meal-plans/execute
// Consumes each recipe's ingredients from stock, one batch item per
// recipe.
func (h *ScanHandler) ExecuteMealPlans(c *gin.Context) {
	var req dto.MealPlanExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	results := h.processor.ExecuteMealPlans(c.Request.Context(), req.RecipeIDs)
	c.JSON(http.StatusOK, toBatchResponse(results))
}

// RecalculateRecipe handles POST /api/v1/recipes/:recipe_id/recalculate
// Runs the macro recalculation and meal-product sync pair.
func (h *ScanHandler) RecalculateRecipe(c *gin.Context) {
	recipeID, err := strconv.ParseInt(c.Param("recipe_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "recipe_id must be an integer",
		})
		return
	}

	ctx := c.Request.Context()
	ok, err := h.nutrition.RecalculateRecipeMacros(ctx, recipeID)
	if err != nil {
		h.logger.Error("Failed to recalculate recipe macros",
			slog.Int64("recipe_id", recipeID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to recalculate recipe macros",
		})
		return
	}

	if ok {
		if err := h.nutrition.SyncMealProducts(ctx, recipeID); err != nil {
			h.logger.Error("Failed to sync meal products",
				slog.Int64("recipe_id", recipeID),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to sync meal products",
			})
			return
		}
	}

	c.JSON(http.StatusOK, dto.RecalculateResponse{
		RecipeID:     recipeID,
		Recalculated: ok,
	})
}

func toBatchResponse(results []pool.Result) dto.BatchResponse {
	resp := dto.BatchResponse{
		Results: make([]dto.BatchItemDTO, len(results)),
	}
	resp.Summary.Total = len(results)

	for i, r := range results {
		resp.Results[i] = dto.BatchItemDTO{
			Index:   r.Index,
			Success: r.Success,
			Result:  r.Value,
			Error:   r.ErrorMessage(),
		}
		if r.Success {
			resp.Summary.Succeeded++
		} else {
			resp.Summary.Failed++
		}
	}

	return resp
}

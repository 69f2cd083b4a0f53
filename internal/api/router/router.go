package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/minhvt/mealstock/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "mealstock-api",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		deps.Metrics.Registry(),
		promhttp.HandlerOpts{},
	)))

	scanHandler := handler.NewScanHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// POST /api/v1/scan - Enqueue a barcode scan job
		v1.POST("/scan", scanHandler.CreateScan)

		// GET /api/v1/scan/recent-items - Products created by recent scans
		v1.GET("/scan/recent-items", scanHandler.RecentItems)

		// GET /api/v1/scan/activity - Modification log
		v1.GET("/scan/activity", scanHandler.Activity)

		jobs := v1.Group("/jobs")
		{
			// GET /api/v1/jobs/:job_id - Poll job status
			jobs.GET("/:job_id", scanHandler.GetJob)

			// POST /api/v1/jobs/reset - Bulk-clear job state
			jobs.POST("/reset", scanHandler.ResetJobs)
		}

		// POST /api/v1/batch/price-lookup - Batched external price lookups
		v1.POST("/batch/price-lookup", scanHandler.BatchPriceLookup)

		// POST /api/v1/meal-plans/execute - Batched meal plan execution
		v1.POST("/meal-plans/execute", scanHandler.ExecuteMealPlans)

		// POST /api/v1/recipes/:recipe_id/recalculate - Macro recalc + meal sync
		v1.POST("/recipes/:recipe_id/recalculate", scanHandler.RecalculateRecipe)
	}

	return r
}

package dto

type ScanRequest struct {
	Operation string `json:"operation" binding:"required,oneof=add remove"`
	Barcode   string `json:"barcode" binding:"required"`
}

type ScanResponse struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

type BatchPriceLookupRequest struct {
	Barcodes []string `json:"barcodes" binding:"required,min=1"`
}

type MealPlanExecuteRequest struct {
	RecipeIDs []int64 `json:"recipe_ids" binding:"required,min=1"`
}

type BatchItemDTO struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

type BatchSummaryDTO struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type BatchResponse struct {
	Results []BatchItemDTO  `json:"results"`
	Summary BatchSummaryDTO `json:"summary"`
}

type RecalculateResponse struct {
	RecipeID     int64 `json:"recipe_id"`
	Recalculated bool  `json:"recalculated"`
}

package jobstore

// Job status constants
const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Job represents a single scan job tracked by the store.
// Jobs live only in process memory and are gone after a restart.
type Job struct {
	ID        int64    `json:"id"`
	Status    string   `json:"status"`
	Operation string   `json:"operation,omitempty"`
	Subject   string   `json:"subject,omitempty"`
	Logs      []string `json:"logs"`
	Result    any      `json:"result,omitempty"`
}

// RecentItem describes a product implicitly created by a scan,
// surfaced most-recent-first for the UI.
type RecentItem struct {
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	Barcode        string `json:"barcode,omitempty"`
	BestBeforeDate string `json:"best_before_date,omitempty"`
	LocationID     int64  `json:"location_id,omitempty"`
	LocationLabel  string `json:"location_label,omitempty"`
	BookingID      string `json:"booking_id,omitempty"`
}

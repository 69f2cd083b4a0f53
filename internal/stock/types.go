package stock

import "database/sql"

// depleteEpsilon is the tolerance below which a lot remainder is
// treated as empty and the lot row deleted, absorbing floating-point
// drift from repeated subtractions.
const depleteEpsilon = 1e-3

// Lot is a discrete batch of stock for a product.
type Lot struct {
	ID             int64          `db:"id"`
	ProductID      int64          `db:"product_id"`
	Amount         float64        `db:"amount"`
	BestBeforeDate sql.NullString `db:"best_before_date"`
	LocationID     sql.NullInt64  `db:"location_id"`
}

// DepositOptions carries the optional fields of a new lot.
type DepositOptions struct {
	BestBeforeDate string
	LocationID     int64
}

// DepleteResult reports what a depletion actually did. Insufficient
// stock is not an error: Deducted caps at the total available and
// Clamped marks the shortfall so strict callers can escalate.
type DepleteResult struct {
	Requested float64 `json:"requested"`
	Deducted  float64 `json:"deducted"`
	Clamped   bool    `json:"clamped"`
}

// FactorSource tags where a conversion factor came from.
type FactorSource string

const (
	// FactorProduct means a product-specific conversion row matched.
	FactorProduct FactorSource = "product"
	// FactorDefault means the global default row matched.
	FactorDefault FactorSource = "default"
	// FactorIdentity means no row matched (or units were equal) and the
	// amount passed through unchanged.
	FactorIdentity FactorSource = "identity"
)

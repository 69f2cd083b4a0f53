package stock

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jmoiron/sqlx"
)

// Ledger performs the atomic stock primitives: depositing a lot and
// depleting a requested amount across a product's lots in id order.
type Ledger struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewLedger creates a Ledger backed by the given database.
func NewLedger(db *sqlx.DB, logger *slog.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// Deposit creates a new lot for the product. Amount must be finite and
// non-negative; a zero amount is a valid no-op deposit. Deposits never
// touch macros.
func (l *Ledger) Deposit(ctx context.Context, productID int64, amount float64, opts DepositOptions) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, fmt.Errorf("invalid deposit amount %v for product %d", amount, productID)
	}

	query := `
		INSERT INTO stock_lots (product_id, amount, best_before_date, location_id)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, 0))
		RETURNING id
	`

	var lotID int64
	err := l.db.QueryRowContext(ctx, query, productID, amount, opts.BestBeforeDate, opts.LocationID).Scan(&lotID)
	if err != nil {
		return 0, fmt.Errorf("failed to deposit stock: %w", err)
	}

	l.logger.Info("Stock deposited",
		slog.Int64("product_id", productID),
		slog.Float64("amount", amount),
		slog.Int64("lot_id", lotID),
	)

	return lotID, nil
}

// TotalAmount sums the remaining stock across all lots of a product.
func (l *Ledger) TotalAmount(ctx context.Context, productID int64) (float64, error) {
	var total float64
	err := l.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(amount), 0) FROM stock_lots WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum stock: %w", err)
	}
	return total, nil
}

// Deplete subtracts requested from the product's lots, oldest lot
// first (id order), until the request is exhausted or lots run out.
// Insufficient stock silently caps the deduction at the available
// total; callers needing a strict check compare Deducted to Requested.
// The whole multi-lot sequence runs in one transaction so a crash can
// never leave stock deducted from some lots and not others.
func (l *Ledger) Deplete(ctx context.Context, productID int64, requested float64) (DepleteResult, error) {
	result := DepleteResult{Requested: requested}
	if requested <= 0 {
		return result, nil
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin depletion: %w", err)
	}
	defer tx.Rollback()

	var lots []Lot
	err = tx.SelectContext(ctx, &lots, `
		SELECT id, product_id, amount, best_before_date, location_id
		FROM stock_lots
		WHERE product_id = $1
		ORDER BY id ASC
		FOR UPDATE
	`, productID)
	if err != nil {
		return result, fmt.Errorf("failed to load lots: %w", err)
	}

	changes, deducted := planDepletion(lots, requested)
	for _, ch := range changes {
		if ch.remove {
			if _, err := tx.ExecContext(ctx, `DELETE FROM stock_lots WHERE id = $1`, ch.lotID); err != nil {
				return result, fmt.Errorf("failed to remove lot %d: %w", ch.lotID, err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `UPDATE stock_lots SET amount = $1 WHERE id = $2`, ch.remaining, ch.lotID); err != nil {
				return result, fmt.Errorf("failed to update lot %d: %w", ch.lotID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit depletion: %w", err)
	}

	result.Deducted = deducted
	result.Clamped = deducted < requested

	l.logger.Info("Stock depleted",
		slog.Int64("product_id", productID),
		slog.Float64("requested", requested),
		slog.Float64("deducted", deducted),
		slog.Bool("clamped", result.Clamped),
	)

	return result, nil
}

// lotChange is one planned mutation of a lot row.
type lotChange struct {
	lotID     int64
	remaining float64
	remove    bool
}

// planDepletion walks lots in the given order and subtracts requested
// from each in turn. A remainder at or below the epsilon deletes the
// lot instead of keeping it near zero. The returned deducted amount
// never exceeds the total available.
func planDepletion(lots []Lot, requested float64) ([]lotChange, float64) {
	var changes []lotChange
	remaining := requested

	for _, lot := range lots {
		if remaining <= 0 {
			break
		}
		take := math.Min(lot.Amount, remaining)
		left := lot.Amount - take
		remaining -= take

		if left <= depleteEpsilon {
			// Count the sub-epsilon residue as deducted so the ledger
			// total and the reported deduction stay consistent.
			remaining -= left
			changes = append(changes, lotChange{lotID: lot.ID, remove: true})
		} else {
			changes = append(changes, lotChange{lotID: lot.ID, remaining: left})
		}
	}

	deducted := requested - remaining
	if deducted > requested {
		deducted = requested
	}
	return changes, deducted
}

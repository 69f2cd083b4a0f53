package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Converter resolves amounts between quantity units using the
// quantity_unit_conversions table. Resolution order: product-specific
// factor, global default factor (NULL product), identity. The identity
// fallback is deliberately lenient so an unconfigured unit never blocks
// an operation; the returned FactorSource lets callers detect it.
type Converter struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewConverter creates a Converter backed by the given database.
func NewConverter(db *sqlx.DB, logger *slog.Logger) *Converter {
	return &Converter{db: db, logger: logger}
}

// Convert turns amount expressed in fromUnit into toUnit for the given
// product. Equal units return the amount unchanged without touching
// the database.
func (c *Converter) Convert(ctx context.Context, productID int64, amount float64, fromUnit, toUnit string) (float64, FactorSource, error) {
	if fromUnit == toUnit {
		return amount, FactorIdentity, nil
	}

	factor, source, err := c.lookupFactor(ctx, productID, fromUnit, toUnit)
	if err != nil {
		return 0, FactorIdentity, err
	}

	if source == FactorIdentity {
		c.logger.Warn("No conversion factor configured, using identity",
			slog.Int64("product_id", productID),
			slog.String("from_unit", fromUnit),
			slog.String("to_unit", toUnit),
		)
	}

	return amount * factor, source, nil
}

func (c *Converter) lookupFactor(ctx context.Context, productID int64, fromUnit, toUnit string) (float64, FactorSource, error) {
	var factor float64

	err := c.db.GetContext(ctx, &factor, `
		SELECT factor FROM quantity_unit_conversions
		WHERE product_id = $1 AND from_unit = $2 AND to_unit = $3
	`, productID, fromUnit, toUnit)
	if err == nil {
		return factor, FactorProduct, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, FactorIdentity, fmt.Errorf("failed to look up conversion: %w", err)
	}

	err = c.db.GetContext(ctx, &factor, `
		SELECT factor FROM quantity_unit_conversions
		WHERE product_id IS NULL AND from_unit = $1 AND to_unit = $2
	`, fromUnit, toUnit)
	if err == nil {
		return factor, FactorDefault, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, FactorIdentity, fmt.Errorf("failed to look up default conversion: %w", err)
	}

	return 1.0, FactorIdentity, nil
}

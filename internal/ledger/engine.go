package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTolerance is the slack on the required value of an allotment
// that absorbs rounding of line values.
var DefaultTolerance = decimal.NewFromInt(3)

// Engine commits and removes allotment lines while keeping the balances of
// import items consistent.
//
// Every operation runs in one transaction that locks the import item (and
// the allotment) before reading the balances. On PostgreSQL this is
// SELECT ... FOR UPDATE, on SQLite the single database connection serializes
// transactions. In addition, every balance write is guarded by the version
// that was read, a mismatch aborts the transaction with ErrConcurrencyConflict.
type Engine struct {
	db        *gorm.DB
	tolerance decimal.Decimal
}

// New returns an Engine using DefaultTolerance.
func New(db *gorm.DB) *Engine {
	return &Engine{
		db:        db,
		tolerance: DefaultTolerance,
	}
}

// WithTolerance returns a copy of the engine with a different value tolerance.
func (e *Engine) WithTolerance(tolerance decimal.Decimal) *Engine {
	return &Engine{
		db:        e.db,
		tolerance: tolerance,
	}
}

// Command is a request to allot quantity or value of an import item to an allotment.
// Only one of Quantity and Value is needed, the other one is derived.
type Command struct {
	ItemID      uuid.UUID
	AllotmentID uuid.UUID
	Quantity    decimal.Decimal
	Value       decimal.Decimal
}

// Result is the state after a successful commit, read back from the database.
type Result struct {
	Line      models.AllotmentLine
	Allotment models.Allotment // Including the allotted totals
	Item      models.ImportItem
}

// Allot decides on a command and, if accepted, replaces the line for the
// import item and allotment with the new quantity and value.
//
// Rejections leave the database unchanged. A concurrency conflict is retried
// once with fresh data.
func (e *Engine) Allot(ctx context.Context, cmd Command) (Result, error) {
	line, err := withRetry(ctx, "allot", func() (models.AllotmentLine, error) {
		return e.allot(ctx, cmd)
	})

	decisions.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		log.Debug().Str("item", cmd.ItemID.String()).Str("allotment", cmd.AllotmentID.String()).Err(err).Msg("allotment rejected")
		return Result{}, err
	}

	log.Info().
		Str("item", cmd.ItemID.String()).
		Str("allotment", cmd.AllotmentID.String()).
		Str("line", line.ID.String()).
		Str("quantity", line.Quantity.String()).
		Str("value", line.CIFValue.String()).
		Msg("allotment committed")

	return e.result(ctx, line)
}

func (e *Engine) allot(ctx context.Context, cmd Command) (models.AllotmentLine, error) {
	var line models.AllotmentLine

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, cmd.ItemID)
		if err != nil {
			return err
		}

		allotment, err := lockAllotment(tx, cmd.AllotmentID)
		if err != nil {
			return err
		}

		balance, err := snapshot(tx, item, allotment)
		if err != nil {
			return err
		}

		request, err := Derive(cmd.Quantity, cmd.Value, allotment.UnitPrice)
		if err != nil {
			return err
		}

		decision, err := Decide(balance, allotment, request, e.tolerance)
		if err != nil {
			return err
		}

		line, err = upsertLine(tx, item.ID, allotment.ID, balance.Line, decision)
		if err != nil {
			return err
		}

		// The balance is adjusted by the difference between the old and the new line
		quantity := item.BalanceQuantity.Sub(decision.Quantity)
		value := item.BalanceCIFValue.Sub(decision.Value)
		if balance.Line != nil {
			quantity = quantity.Add(balance.Line.Quantity)
			value = value.Add(balance.Line.CIFValue)
		}

		err = saveItemBalance(tx, item, quantity, value)
		if err != nil {
			return err
		}

		return bumpAllotment(tx, allotment)
	})

	return line, err
}

// result reads the committed line, its import item and allotment.
func (e *Engine) result(ctx context.Context, line models.AllotmentLine) (Result, error) {
	db := e.db.WithContext(ctx)

	var item models.ImportItem
	err := db.First(&item, "id = ?", line.ItemID).Error
	if err != nil {
		return Result{}, err
	}

	var allotment models.Allotment
	err = db.First(&allotment, "id = ?", line.AllotmentID).Error
	if err != nil {
		return Result{}, err
	}

	allotment, err = allotment.WithCalculations(db)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Line:      line,
		Allotment: allotment,
		Item:      item,
	}, nil
}

// Remove deletes an allotment line and adds its quantity and value back
// to the balance of the import item.
func (e *Engine) Remove(ctx context.Context, id uuid.UUID) (models.AllotmentLine, error) {
	return withRetry(ctx, "remove", func() (models.AllotmentLine, error) {
		return e.remove(ctx, id)
	})
}

func (e *Engine) remove(ctx context.Context, id uuid.UUID) (models.AllotmentLine, error) {
	var line models.AllotmentLine

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&line, "id = ?", id).Error
		if err != nil {
			return err
		}

		item, err := lockItem(tx, line.ItemID)
		if err != nil {
			return err
		}

		// Read the line again now that the import item is locked,
		// it might have been replaced or removed in the meantime
		err = tx.First(&line, "id = ?", id).Error
		if err != nil {
			return err
		}

		err = tx.Delete(&models.AllotmentLine{}, "id = ?", line.ID).Error
		if err != nil {
			return err
		}

		return saveItemBalance(tx, item, item.BalanceQuantity.Add(line.Quantity), item.BalanceCIFValue.Add(line.CIFValue))
	})

	if err == nil {
		log.Info().Str("line", line.ID.String()).Str("item", line.ItemID.String()).Str("allotment", line.AllotmentID.String()).Msg("allotment line removed")
	}

	return line, err
}

// RemoveAllotment removes all lines of an allotment, restoring the balances
// of their import items, and deletes the allotment.
func (e *Engine) RemoveAllotment(ctx context.Context, id uuid.UUID) error {
	_, err := withRetry(ctx, "remove allotment", func() (int, error) {
		return e.removeAllotment(ctx, id)
	})

	return err
}

func (e *Engine) removeAllotment(ctx context.Context, id uuid.UUID) (int, error) {
	var removed int

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []models.AllotmentLine
		err := tx.Where("allotment_id = ?", id).Order("item_id").Find(&lines).Error
		if err != nil {
			return err
		}

		// Import items are locked in a stable order before the allotment
		items := make(map[uuid.UUID]models.ImportItem, len(lines))
		for _, line := range lines {
			item, err := lockItem(tx, line.ItemID)
			if err != nil {
				return err
			}
			items[item.ID] = item
		}

		allotment, err := lockAllotment(tx, id)
		if err != nil {
			return err
		}

		// Lines for import items that were not locked above might have
		// been committed in the meantime
		err = tx.Where("allotment_id = ?", id).Find(&lines).Error
		if err != nil {
			return err
		}

		for _, line := range lines {
			item, ok := items[line.ItemID]
			if !ok {
				return ErrConcurrencyConflict
			}

			err = tx.Delete(&models.AllotmentLine{}, "id = ?", line.ID).Error
			if err != nil {
				return err
			}

			err = saveItemBalance(tx, item, item.BalanceQuantity.Add(line.Quantity), item.BalanceCIFValue.Add(line.CIFValue))
			if err != nil {
				return err
			}
		}

		removed = len(lines)
		return tx.Delete(&allotment).Error
	})

	if err == nil {
		log.Info().Str("allotment", id.String()).Int("lines", removed).Msg("allotment removed")
	}

	return removed, err
}

// withRetry runs fn and runs it a second time if it failed with ErrConcurrencyConflict.
func withRetry[T any](ctx context.Context, operation string, fn func() (T, error)) (T, error) {
	v, err := fn()
	if !errors.Is(err, ErrConcurrencyConflict) || ctx.Err() != nil {
		return v, err
	}

	log.Info().Str("operation", operation).Msg("concurrent modification detected, retrying")
	return fn()
}

// forUpdate adds a row lock to the query. SQLite has no row locks.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}

	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func lockItem(tx *gorm.DB, id uuid.UUID) (models.ImportItem, error) {
	var item models.ImportItem
	err := forUpdate(tx).First(&item, "id = ?", id).Error
	return item, err
}

func lockAllotment(tx *gorm.DB, id uuid.UUID) (models.Allotment, error) {
	var allotment models.Allotment
	err := forUpdate(tx).First(&allotment, "id = ?", id).Error
	return allotment, err
}

// upsertLine creates or replaces the line for the import item and allotment.
func upsertLine(tx *gorm.DB, itemID, allotmentID uuid.UUID, existing *models.AllotmentLine, d Decision) (models.AllotmentLine, error) {
	line := models.AllotmentLine{
		ItemID:      itemID,
		AllotmentID: allotmentID,
		Quantity:    d.Quantity,
		CIFValue:    d.Value,
	}

	if existing != nil {
		line.ID = existing.ID
		line.CreatedAt = existing.CreatedAt
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "allotment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "cif_value", "updated_at"}),
	}).Create(&line).Error
	if err != nil {
		return models.AllotmentLine{}, err
	}

	return line, nil
}

// saveItemBalance writes new balances for an import item if its version
// did not change since it was read.
func saveItemBalance(tx *gorm.DB, item models.ImportItem, quantity, value decimal.Decimal) error {
	if quantity.IsNegative() || value.IsNegative() || quantity.GreaterThan(item.Quantity) || value.GreaterThan(item.CIFValue) {
		return fmt.Errorf("%w: import item %s", models.ErrItemBalanceOutOfRange, item.ID)
	}

	result := tx.
		Model(&models.ImportItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]any{
			"balance_quantity":  quantity,
			"balance_cif_value": value,
			"version":           item.Version + 1,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}

	return nil
}

// bumpAllotment increments the version of an allotment so that concurrent
// commits for other import items of the same allotment conflict.
func bumpAllotment(tx *gorm.DB, allotment models.Allotment) error {
	result := tx.
		Model(&models.Allotment{}).
		Where("id = ? AND version = ?", allotment.ID, allotment.Version).
		Update("version", allotment.Version+1)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}

	return nil
}

// outcome is the metrics label for the result of an allotment request.
func outcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, ErrCeilingExceeded):
		return "ceiling_exceeded"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConcurrencyConflict):
		return "conflict"
	}

	return "error"
}

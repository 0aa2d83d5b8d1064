package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/michels-travel/internal/model"
)

// PriceAlertRepo stores saved fare thresholds.
type PriceAlertRepo struct {
	db *sql.DB
}

func NewPriceAlertRepo(db *sql.DB) *PriceAlertRepo { return &PriceAlertRepo{db: db} }

const alertColumns = `id, user_id, origin, destination, departure_date, return_date, cabin_class, adults,
target_price_cents, currency, last_price_cents, is_active, triggered_at, last_checked_at, created_at, updated_at`

// Create inserts an active alert and sets its ID.
func (r *PriceAlertRepo) Create(ctx context.Context, a *model.PriceAlert) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO price_alerts (user_id, origin, destination, departure_date,
return_date, cabin_class, adults, target_price_cents, currency, is_active) VALUES (?,?,?,?,?,?,?,?,?,1)`,
		a.UserID, a.Origin, a.Destination, a.DepartureDate, nullTime(a.ReturnDate), a.CabinClass, a.Adults,
		a.TargetPriceCents, a.Currency)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.IsActive = true
	return nil
}

// CountActiveByUser counts a user's active alerts.
func (r *PriceAlertRepo) CountActiveByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM price_alerts WHERE user_id=? AND is_active=1", userID).Scan(&n)
	return n, err
}

// ListByUser returns all alerts of a user, newest first.
func (r *PriceAlertRepo) ListByUser(ctx context.Context, userID uint64) ([]model.PriceAlert, error) {
	return r.list(ctx, "SELECT "+alertColumns+" FROM price_alerts WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
}

// ListActive returns up to limit active alerts, least recently checked first.
func (r *PriceAlertRepo) ListActive(ctx context.Context, limit int) ([]model.PriceAlert, error) {
	if limit <= 0 {
		limit = 500
	}
	return r.list(ctx, "SELECT "+alertColumns+` FROM price_alerts WHERE is_active=1
ORDER BY last_checked_at IS NOT NULL, last_checked_at ASC, id ASC LIMIT ?`, limit)
}

// GetForUser loads one alert owned by userID.
func (r *PriceAlertRepo) GetForUser(ctx context.Context, id, userID uint64) (model.PriceAlert, error) {
	a, err := scanAlert(r.db.QueryRowContext(ctx,
		"SELECT "+alertColumns+" FROM price_alerts WHERE id=? AND user_id=? LIMIT 1", id, userID))
	if err != nil {
		return model.PriceAlert{}, notFound(err)
	}
	return a, nil
}

// Update saves the user-editable fields of an alert.
func (r *PriceAlertRepo) Update(ctx context.Context, a model.PriceAlert) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE price_alerts SET target_price_cents=?, is_active=? WHERE id=? AND user_id=?",
		a.TargetPriceCents, a.IsActive, a.ID, a.UserID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes an alert owned by userID.
func (r *PriceAlertRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM price_alerts WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// RecordCheck stores the cheapest fare seen by a sweep. When triggered is
// true the alert's triggered_at is set to checkedAt.
func (r *PriceAlertRepo) RecordCheck(ctx context.Context, id uint64, priceCents int64, checkedAt time.Time, triggered bool) error {
	if triggered {
		_, err := r.db.ExecContext(ctx,
			"UPDATE price_alerts SET last_price_cents=?, last_checked_at=?, triggered_at=? WHERE id=?",
			priceCents, checkedAt, checkedAt, id)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE price_alerts SET last_price_cents=?, last_checked_at=? WHERE id=?", priceCents, checkedAt, id)
	return err
}

// Deactivate switches an alert off, e.g. once its departure date has passed.
func (r *PriceAlertRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE price_alerts SET is_active=0 WHERE id=?", id)
	return err
}

func (r *PriceAlertRepo) list(ctx context.Context, q string, args ...any) ([]model.PriceAlert, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PriceAlert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAlert(s rowScanner) (model.PriceAlert, error) {
	var (
		a                      model.PriceAlert
		returnDate             sql.NullTime
		lastPrice              sql.NullInt64
		triggeredAt, checkedAt sql.NullTime
	)
	err := s.Scan(&a.ID, &a.UserID, &a.Origin, &a.Destination, &a.DepartureDate, &returnDate, &a.CabinClass,
		&a.Adults, &a.TargetPriceCents, &a.Currency, &lastPrice, &a.IsActive, &triggeredAt, &checkedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.PriceAlert{}, err
	}
	a.ReturnDate = timePtr(returnDate)
	if lastPrice.Valid {
		v := lastPrice.Int64
		a.LastPriceCents = &v
	}
	a.TriggeredAt = timePtr(triggeredAt)
	a.LastCheckedAt = timePtr(checkedAt)
	return a, nil
}

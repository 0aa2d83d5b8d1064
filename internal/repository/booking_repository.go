package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/michels-travel/internal/model"
)

// BookingRepo stores bookings and their passengers. All timestamps are UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, reference, user_id, offer_id, provider, origin, destination, departure_at, arrival_at,
return_departure_at, airline_code, airline_name, flight_number, cabin_class, total_amount_cents, currency, status,
contact_email, contact_phone, payment_link_id, payment_url, payment_order_id, payment_id, refund_id, expires_at,
created_at, updated_at`

const passengerColumns = `id, booking_id, passenger_type, title, given_name, family_name, born_on, gender, email,
phone, loyalty_airline, loyalty_number, created_at`

// Create inserts the booking and its passengers in one transaction and fills
// in the generated IDs. A reference collision returns ErrDuplicate so the
// caller can retry with a fresh reference.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := r.createTx(ctx, tx, b); err != nil {
		return err
	}
	if err := r.createPassengersTx(ctx, tx, b.ID, b.Passengers); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *BookingRepo) createTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (reference, user_id, offer_id, provider, origin, destination, departure_at,
arrival_at, return_departure_at, airline_code, airline_name, flight_number, cabin_class, total_amount_cents,
currency, status, contact_email, contact_phone, expires_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, q,
		b.Reference, nullUint(b.UserID), b.OfferID, b.Provider, b.Origin, b.Destination, b.DepartureAt,
		b.ArrivalAt, nullTime(b.ReturnDepartureAt), b.AirlineCode, b.AirlineName, b.FlightNumber, b.CabinClass,
		b.TotalAmountCents, b.Currency, string(b.Status), b.ContactEmail, b.ContactPhone, b.ExpiresAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// createPassengersTx inserts all passengers with a single multi-row statement.
func (r *BookingRepo) createPassengersTx(ctx context.Context, tx *sql.Tx, bookingID uint64, ps []model.Passenger) error {
	if len(ps) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO passengers (booking_id, passenger_type, title, given_name, family_name, born_on,
gender, email, phone, loyalty_airline, loyalty_number) VALUES `)
	args := make([]any, 0, len(ps)*11)
	for i, p := range ps {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args, bookingID, p.Type, p.Title, p.GivenName, p.FamilyName, p.BornOn, p.Gender,
			p.Email, p.Phone, p.LoyaltyAirline, p.LoyaltyNumber)
	}
	res, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return err
	}
	first, err := res.LastInsertId()
	if err != nil {
		return err
	}
	// LastInsertId is the first row of a multi-row insert; IDs are consecutive
	// under innodb_autoinc_lock_mode 1 and 2 for a single statement.
	for i := range ps {
		ps[i].ID = uint64(first) + uint64(i)
		ps[i].BookingID = bookingID
	}
	return nil
}

// GetByReference loads a booking and its passengers.
func (r *BookingRepo) GetByReference(ctx context.Context, ref string) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE reference=? LIMIT 1", strings.ToUpper(ref)))
	if err != nil {
		return model.Booking{}, notFound(err)
	}
	b.Passengers, err = r.passengers(ctx, b.ID)
	if err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepo) passengers(ctx context.Context, bookingID uint64) ([]model.Passenger, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+passengerColumns+" FROM passengers WHERE booking_id=? ORDER BY id", bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Passenger
	for rows.Next() {
		var p model.Passenger
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Type, &p.Title, &p.GivenName, &p.FamilyName, &p.BornOn,
			&p.Gender, &p.Email, &p.Phone, &p.LoyaltyAirline, &p.LoyaltyNumber, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByUser returns a user's bookings, newest first, without passengers.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Booking, error) {
	limit, offset = clampPage(limit, offset)
	return r.list(ctx, "SELECT "+bookingColumns+` FROM bookings WHERE user_id=?
ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, userID, limit, offset)
}

// ListAll returns bookings for back-office views, optionally filtered by status.
func (r *BookingRepo) ListAll(ctx context.Context, status model.BookingStatus, limit, offset int) ([]model.Booking, error) {
	limit, offset = clampPage(limit, offset)
	if status == "" {
		return r.list(ctx, "SELECT "+bookingColumns+` FROM bookings
ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	}
	return r.list(ctx, "SELECT "+bookingColumns+` FROM bookings WHERE status=?
ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, string(status), limit, offset)
}

// ListAwaitingPayment returns pending, unexpired bookings that already have a
// Square order, oldest first.
func (r *BookingRepo) ListAwaitingPayment(ctx context.Context, now time.Time, limit int) ([]model.Booking, error) {
	limit, _ = clampPage(limit, 0)
	return r.list(ctx, "SELECT "+bookingColumns+` FROM bookings
WHERE status=? AND payment_order_id IS NOT NULL AND expires_at > ?
ORDER BY created_at ASC LIMIT ?`, string(model.BookingPendingPayment), now, limit)
}

// ListLapsedAwaitingPayment returns pending bookings with a Square order whose
// hold has run out. They are checked with Square before being expired.
func (r *BookingRepo) ListLapsedAwaitingPayment(ctx context.Context, now time.Time, limit int) ([]model.Booking, error) {
	limit, _ = clampPage(limit, 0)
	return r.list(ctx, "SELECT "+bookingColumns+` FROM bookings
WHERE status=? AND payment_order_id IS NOT NULL AND expires_at <= ?
ORDER BY expires_at ASC LIMIT ?`, string(model.BookingPendingPayment), now, limit)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Transition moves a booking from one of the from states to to. It returns
// ErrConflict when the booking is no longer in an allowed state, which
// guards against a concurrent worker and request racing on the same row.
func (r *BookingRepo) Transition(ctx context.Context, id uint64, to model.BookingStatus, from ...model.BookingStatus) error {
	if len(from) == 0 {
		return ErrConflict
	}
	args := []any{string(to), id}
	placeholders := make([]string, len(from))
	for i, s := range from {
		placeholders[i] = "?"
		args = append(args, string(s))
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=? AND status IN ("+strings.Join(placeholders, ",")+")", args...)
	if err != nil {
		return err
	}
	return conflictIfNone(res)
}

// SetPaymentLink records the Square payment link for a pending booking.
func (r *BookingRepo) SetPaymentLink(ctx context.Context, id uint64, linkID, url, orderID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET payment_link_id=?, payment_url=?, payment_order_id=? WHERE id=? AND status=?",
		linkID, url, orderID, id, string(model.BookingPendingPayment))
	if err != nil {
		return err
	}
	return conflictIfNone(res)
}

// MarkConfirmed records the captured payment and confirms a pending booking.
func (r *BookingRepo) MarkConfirmed(ctx context.Context, id uint64, paymentID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status=?, payment_id=? WHERE id=? AND status=?",
		string(model.BookingConfirmed), nullString(paymentID), id, string(model.BookingPendingPayment))
	if err != nil {
		return err
	}
	return conflictIfNone(res)
}

// MarkRefunded records the refund of a confirmed booking.
func (r *BookingRepo) MarkRefunded(ctx context.Context, id uint64, refundID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status=?, refund_id=? WHERE id=? AND status=?",
		string(model.BookingRefunded), nullString(refundID), id, string(model.BookingConfirmed))
	if err != nil {
		return err
	}
	return conflictIfNone(res)
}

// ExpirePendingBefore marks every PENDING_PAYMENT booking without a Square
// order whose hold ended before deadline as EXPIRED and returns them. Rows
// are locked so two workers never expire the same booking twice.
func (r *BookingRepo) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, "SELECT "+bookingColumns+` FROM bookings
WHERE status=? AND payment_order_id IS NULL AND expires_at <= ? ORDER BY id LIMIT 500 FOR UPDATE`,
		string(model.BookingPendingPayment), deadline)
	if err != nil {
		return nil, err
	}
	var expired []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(expired) == 0 {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return nil, nil
	}

	args := []any{string(model.BookingExpired)}
	placeholders := make([]string, len(expired))
	for i := range expired {
		placeholders[i] = "?"
		args = append(args, expired[i].ID)
		expired[i].Status = model.BookingExpired
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id IN ("+strings.Join(placeholders, ",")+")", args...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return expired, nil
}

func conflictIfNone(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b                                         model.Booking
		userID                                    sql.NullInt64
		returnAt                                  sql.NullTime
		status                                    string
		linkID, url, orderID, paymentID, refundID sql.NullString
	)
	err := s.Scan(&b.ID, &b.Reference, &userID, &b.OfferID, &b.Provider, &b.Origin, &b.Destination,
		&b.DepartureAt, &b.ArrivalAt, &returnAt, &b.AirlineCode, &b.AirlineName, &b.FlightNumber, &b.CabinClass,
		&b.TotalAmountCents, &b.Currency, &status, &b.ContactEmail, &b.ContactPhone, &linkID, &url, &orderID,
		&paymentID, &refundID, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	b.UserID = uintPtr(userID)
	b.ReturnDepartureAt = timePtr(returnAt)
	b.Status = model.BookingStatus(status)
	b.PaymentLinkID = linkID.String
	b.PaymentURL = url.String
	b.PaymentOrderID = orderID.String
	b.PaymentID = paymentID.String
	b.RefundID = refundID.String
	return b, nil
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/michels-travel/internal/model"
)

var dupErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

func q(s string) string { return regexp.QuoteMeta(s) }

func bookingCols() []string {
	cols := strings.Split(strings.ReplaceAll(bookingColumns, "\n", " "), ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols
}

func bookingRow(rows *sqlmock.Rows, id uint64, ref string, status model.BookingStatus, now time.Time) *sqlmock.Rows {
	return rows.AddRow(id, ref, int64(7), "off_1", "mock", "CDG", "JFK", now, now.Add(8*time.Hour),
		nil, "AF", "Air France", "AF006", "economy", int64(45000), "EUR", string(status),
		"a@b.c", "", nil, nil, "order_1", nil, nil, now.Add(30*time.Minute), now, now)
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(q("INSERT INTO users")).
		WithArgs("jane@example.com", sqlmock.AnyArg(), "Jane", model.RoleCustomer, nil, nil).
		WillReturnError(dupErr)

	_, err = NewUserRepo(db).Create(context.Background(), "  Jane@Example.com ", "abcdefg1", "Jane", model.RoleCustomer, 4)

	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	cols := strings.Split(userColumns, ",")
	mock.ExpectQuery(q("SELECT "+userColumns+" FROM users WHERE email=?")).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "jane@example.com", nil, "Jane", "CUSTOMER", "portal", "sub-1", true, now, now))
	mock.ExpectQuery(q("FROM users WHERE email=?")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(cols))

	u, err := repo.GetByEmail(context.Background(), "Jane@example.com")
	require.NoError(t, err)
	assert.False(t, u.HasPassword())
	assert.Equal(t, "portal", u.OAuthProvider)
	assert.Equal(t, "sub-1", u.OAuthSubject)

	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_RotateRejectsReusedToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at")).WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = NewTokenRepo(db).Rotate(context.Background(), 1, "old", "new", time.Now().Add(time.Hour))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_Rotate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	exp := time.Now().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at")).WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO refresh_tokens")).WithArgs(uint64(1), "new", exp).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, NewTokenRepo(db).Rotate(context.Background(), 1, "old", "new", exp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_ValidateRefreshRevoked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(q("SELECT user_id, expires_at, revoked_at FROM refresh_tokens")).WithArgs("h").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(1, time.Now().Add(time.Hour), time.Now()))

	_, err = NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepo_CreateWithPassengers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	born := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	b := &model.Booking{
		Reference: "K7Q2MX", OfferID: "off_1", Provider: "mock", Origin: "CDG", Destination: "JFK",
		Status: model.BookingPendingPayment, ContactEmail: "a@b.c", Currency: "EUR", TotalAmountCents: 45000,
		Passengers: []model.Passenger{
			{Type: model.PassengerAdult, GivenName: "Ann", FamilyName: "Lee", BornOn: born},
			{Type: model.PassengerInfant, GivenName: "Bo", FamilyName: "Lee", BornOn: born},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO bookings")).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(q("INSERT INTO passengers")).WillReturnResult(sqlmock.NewResult(100, 2))
	mock.ExpectCommit()

	require.NoError(t, NewBookingRepo(db).Create(context.Background(), b))
	assert.Equal(t, uint64(10), b.ID)
	assert.Equal(t, uint64(100), b.Passengers[0].ID)
	assert.Equal(t, uint64(101), b.Passengers[1].ID)
	assert.Equal(t, uint64(10), b.Passengers[1].BookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_CreateDuplicateReference(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO bookings")).WillReturnError(dupErr)
	mock.ExpectRollback()

	err = NewBookingRepo(db).Create(context.Background(), &model.Booking{Reference: "AAAAAA"})

	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_GetByReference(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now().UTC()

	mock.ExpectQuery(q("FROM bookings WHERE reference=?")).WithArgs("K7Q2MX").
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols()), 10, "K7Q2MX", model.BookingPendingPayment, now))
	mock.ExpectQuery(q("FROM passengers WHERE booking_id=?")).WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "passenger_type", "title", "given_name",
			"family_name", "born_on", "gender", "email", "phone", "loyalty_airline", "loyalty_number", "created_at"}).
			AddRow(1, 10, "adult", "", "Ann", "Lee", now, "", "", "", "", "", now))

	b, err := NewBookingRepo(db).GetByReference(context.Background(), "k7q2mx")

	require.NoError(t, err)
	assert.Equal(t, model.BookingPendingPayment, b.Status)
	assert.True(t, b.OwnedBy(7))
	assert.Equal(t, "order_1", b.PaymentOrderID)
	assert.Empty(t, b.PaymentURL)
	assert.Nil(t, b.ReturnDepartureAt)
	require.Len(t, b.Passengers, 1)
	assert.Equal(t, "Ann", b.Passengers[0].GivenName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_TransitionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(q("UPDATE bookings SET status=? WHERE id=? AND status IN (?,?)")).
		WithArgs("CANCELLED", uint64(10), "PENDING_PAYMENT", "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewBookingRepo(db).Transition(context.Background(), 10, model.BookingCancelled,
		model.BookingPendingPayment, model.BookingConfirmed)

	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_ExpirePendingBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(bookingCols())
	bookingRow(rows, 1, "AAAAAA", model.BookingPendingPayment, now)
	bookingRow(rows, 2, "BBBBBB", model.BookingPendingPayment, now)

	mock.ExpectBegin()
	mock.ExpectQuery(q("payment_order_id IS NULL AND expires_at <= ? ORDER BY id LIMIT 500 FOR UPDATE")).
		WithArgs("PENDING_PAYMENT", now).WillReturnRows(rows)
	mock.ExpectExec(q("UPDATE bookings SET status=? WHERE id IN (?,?)")).
		WithArgs("EXPIRED", uint64(1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	expired, err := NewBookingRepo(db).ExpirePendingBefore(context.Background(), now)

	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, model.BookingExpired, expired[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_ListLapsedAwaitingPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(bookingCols())
	bookingRow(rows, 3, "CCCCCC", model.BookingPendingPayment, now)
	mock.ExpectQuery(q("payment_order_id IS NOT NULL AND expires_at <= ?")).
		WithArgs("PENDING_PAYMENT", now, 100).WillReturnRows(rows)

	lapsed, err := NewBookingRepo(db).ListLapsedAwaitingPayment(context.Background(), now, 100)

	require.NoError(t, err)
	require.Len(t, lapsed, 1)
	assert.Equal(t, "order_1", lapsed[0].PaymentOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceAlertRepo_RecordCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now().UTC()

	mock.ExpectExec(q("UPDATE price_alerts SET last_price_cents=?, last_checked_at=?, triggered_at=?")).
		WithArgs(int64(9900), now, now, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPriceAlertRepo(db).RecordCheck(context.Background(), 3, 9900, now, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceAlertRepo_DeleteOtherUsersAlert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(q("DELETE FROM price_alerts WHERE id=? AND user_id=?")).WithArgs(uint64(3), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPriceAlertRepo(db).Delete(context.Background(), 3, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoyaltyRepo_CreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(q("INSERT INTO frequent_flyer_programs")).WillReturnError(dupErr)

	err = NewLoyaltyRepo(db).Create(context.Background(), &model.LoyaltyProgram{UserID: 1, AirlineCode: "AF", MemberNumber: "123"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestNavigationRepo_InsertTruncates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	long := strings.Repeat("p", 300)
	mock.ExpectExec(q("INSERT INTO navigation_events")).
		WithArgs(nil, "sess", "GET", strings.Repeat("p", 255), 200, "", "ua", "1.2.3.4", int64(12)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewNavigationRepo(db).Insert(context.Background(), model.NavigationEvent{
		SessionID: "sess", Method: "GET", Path: long, Status: 200, UserAgent: "ua", IP: "1.2.3.4", DurationMS: 12,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "ab", truncate("abé", 3))
	assert.Equal(t, "abc", truncate("abc", 5))
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(dupErr))
	assert.False(t, isDuplicate(errors.New("1062")))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}))
}

package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/michels-travel/internal/model"
)

// TravelerRepo stores saved passenger profiles. Every query is scoped to the
// owning user so another user's rows read as ErrNotFound.
type TravelerRepo struct {
	db *sql.DB
}

func NewTravelerRepo(db *sql.DB) *TravelerRepo { return &TravelerRepo{db: db} }

const travelerColumns = `id, user_id, title, given_name, family_name, born_on, gender, email, phone,
passport_number, passport_country, passport_expires_on, created_at, updated_at`

func (r *TravelerRepo) Create(ctx context.Context, t *model.Traveler) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO travelers (user_id, title, given_name, family_name, born_on,
gender, email, phone, passport_number, passport_country, passport_expires_on) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		t.UserID, t.Title, t.GivenName, t.FamilyName, t.BornOn, t.Gender, t.Email, t.Phone, t.PassportNumber,
		t.PassportCountry, nullTime(t.PassportExpiresOn))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *TravelerRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Traveler, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+travelerColumns+" FROM travelers WHERE user_id=? ORDER BY family_name, given_name, id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Traveler, 0)
	for rows.Next() {
		t, err := scanTraveler(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TravelerRepo) GetForUser(ctx context.Context, id, userID uint64) (model.Traveler, error) {
	t, err := scanTraveler(r.db.QueryRowContext(ctx,
		"SELECT "+travelerColumns+" FROM travelers WHERE id=? AND user_id=? LIMIT 1", id, userID))
	if err != nil {
		return model.Traveler{}, notFound(err)
	}
	return t, nil
}

// Update overwrites every editable column.
func (r *TravelerRepo) Update(ctx context.Context, t model.Traveler) error {
	res, err := r.db.ExecContext(ctx, `UPDATE travelers SET title=?, given_name=?, family_name=?, born_on=?,
gender=?, email=?, phone=?, passport_number=?, passport_country=?, passport_expires_on=?
WHERE id=? AND user_id=?`,
		t.Title, t.GivenName, t.FamilyName, t.BornOn, t.Gender, t.Email, t.Phone, t.PassportNumber,
		t.PassportCountry, nullTime(t.PassportExpiresOn), t.ID, t.UserID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *TravelerRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM travelers WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanTraveler(s rowScanner) (model.Traveler, error) {
	var (
		t       model.Traveler
		expires sql.NullTime
	)
	err := s.Scan(&t.ID, &t.UserID, &t.Title, &t.GivenName, &t.FamilyName, &t.BornOn, &t.Gender, &t.Email,
		&t.Phone, &t.PassportNumber, &t.PassportCountry, &expires, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Traveler{}, err
	}
	t.PassportExpiresOn = timePtr(expires)
	return t, nil
}

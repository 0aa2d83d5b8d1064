package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,full_name,role,oauth_provider,oauth_subject,is_active,created_at,updated_at"

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes the password and inserts a user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, fullName, role string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	return r.insert(ctx, NormalizeEmail(email), nullString(hash), fullName, role, sql.NullString{}, sql.NullString{})
}

// CreateOAuth inserts a password-less user linked to a portal identity.
func (r *UserRepo) CreateOAuth(ctx context.Context, email, fullName, provider, subject string) (uint64, error) {
	return r.insert(ctx, NormalizeEmail(email), sql.NullString{}, fullName, model.RoleCustomer,
		nullString(provider), nullString(subject))
}

func (r *UserRepo) insert(ctx context.Context, email string, hash sql.NullString, fullName, role string, provider, subject sql.NullString) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, role, oauth_provider, oauth_subject) VALUES (?,?,?,?,?,?)",
		email, hash, strings.TrimSpace(fullName), role, provider, subject)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByOAuth fetches the user linked to a portal identity.
func (r *UserRepo) GetByOAuth(ctx context.Context, provider, subject string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE oauth_provider=? AND oauth_subject=? LIMIT 1",
		provider, subject)
}

// LinkOAuth attaches a portal identity to an existing account.
func (r *UserRepo) LinkOAuth(ctx context.Context, id uint64, provider, subject string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET oauth_provider=?, oauth_subject=? WHERE id=?", provider, subject, id)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireAffected(res)
}

// UpdateFullName changes the display name of a user.
func (r *UserRepo) UpdateFullName(ctx context.Context, id uint64, fullName string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET full_name=? WHERE id=?", strings.TrimSpace(fullName), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *UserRepo) getOne(ctx context.Context, q string, args ...any) (model.User, error) {
	var (
		u                model.User
		hash, prov, subj sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&u.ID, &u.Email, &hash, &u.FullName, &u.Role,
		&prov, &subj, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	u.PasswordHash = hash.String
	u.OAuthProvider = prov.String
	u.OAuthSubject = subj.String
	return u, nil
}

// requireAffected maps a statement that matched no row to ErrNotFound. The
// DSN sets clientFoundRows, so unchanged rows still count as matched.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

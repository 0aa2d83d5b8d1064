package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/michels-travel/internal/model"
)

// LoyaltyRepo stores frequent-flyer memberships.
type LoyaltyRepo struct {
	db *sql.DB
}

func NewLoyaltyRepo(db *sql.DB) *LoyaltyRepo { return &LoyaltyRepo{db: db} }

// Create inserts a membership. The same airline and number twice for one
// user yields ErrDuplicate.
func (r *LoyaltyRepo) Create(ctx context.Context, p *model.LoyaltyProgram) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO frequent_flyer_programs (user_id, airline_code, program_name, member_number) VALUES (?,?,?,?)",
		p.UserID, p.AirlineCode, p.ProgramName, p.MemberNumber)
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
	p.ID = uint64(id)
	return nil
}

func (r *LoyaltyRepo) ListByUser(ctx context.Context, userID uint64) ([]model.LoyaltyProgram, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, airline_code, program_name, member_number, created_at
FROM frequent_flyer_programs WHERE user_id=? ORDER BY airline_code, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LoyaltyProgram, 0)
	for rows.Next() {
		var p model.LoyaltyProgram
		if err := rows.Scan(&p.ID, &p.UserID, &p.AirlineCode, &p.ProgramName, &p.MemberNumber, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *LoyaltyRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM frequent_flyer_programs WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

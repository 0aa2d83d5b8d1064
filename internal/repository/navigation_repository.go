package repository

import (
	"context"
	"database/sql"
	"unicode/utf8"

	"github.com/iliyamo/michels-travel/internal/model"
)

// NavigationRepo appends request and page-view events. Rows are never
// updated.
type NavigationRepo struct {
	db *sql.DB
}

func NewNavigationRepo(db *sql.DB) *NavigationRepo { return &NavigationRepo{db: db} }

func (r *NavigationRepo) Insert(ctx context.Context, e model.NavigationEvent) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO navigation_events (user_id, session_id, method, path, status,
referrer, user_agent, ip, duration_ms) VALUES (?,?,?,?,?,?,?,?,?)`,
		nullUint(e.UserID), truncate(e.SessionID, 64), e.Method, truncate(e.Path, 255), e.Status,
		truncate(e.Referrer, 512), truncate(e.UserAgent, 512), truncate(e.IP, 45), e.DurationMS)
	return err
}

// ListRecent returns the newest events first.
func (r *NavigationRepo) ListRecent(ctx context.Context, limit, offset int) ([]model.NavigationEvent, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, session_id, method, path, status, referrer,
user_agent, ip, duration_ms, created_at FROM navigation_events ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.NavigationEvent, 0)
	for rows.Next() {
		var (
			e      model.NavigationEvent
			userID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &userID, &e.SessionID, &e.Method, &e.Path, &e.Status, &e.Referrer,
			&e.UserAgent, &e.IP, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = uintPtr(userID)
		out = append(out, e)
	}
	return out, rows.Err()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

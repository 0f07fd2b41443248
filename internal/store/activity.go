package store

import (
	"context"
	"database/sql"
	"time"
)

// Activity is one notification shown to the user.
type Activity struct {
	ID      int64
	At      time.Time
	Level   string
	Message string
}

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Record(ctx context.Context, a Activity) (Activity, error) {
	if a.At.IsZero() {
		a.At = Now()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO activity(at, level, message) VALUES (?, ?, ?)`,
		a.At, a.Level, a.Message)
	if err != nil {
		return Activity{}, err
	}
	a.ID, err = res.LastInsertId()
	return a, err
}

// List returns up to limit entries, newest first. limit <= 0 returns everything.
func (r *ActivityRepo) List(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, at, level, message FROM activity ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.At, &a.Level, &a.Message); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Prune keeps the newest keep entries and deletes the rest.
func (r *ActivityRepo) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	DELETE FROM activity WHERE id NOT IN (
	 SELECT id FROM activity ORDER BY id DESC LIMIT ?
	)`, max(keep, 0))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

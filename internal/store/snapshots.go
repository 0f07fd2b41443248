package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Snapshot is the last page fetched for a list, kept so the console can paint
// it before the first response arrives.
type Snapshot struct {
	Resource  string
	Page      int
	Total     int
	Payload   json.RawMessage
	FetchedAt time.Time
}

type SnapshotRepo struct {
	db *sql.DB
}

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) Save(ctx context.Context, s Snapshot) error {
	if s.FetchedAt.IsZero() {
		s.FetchedAt = Now()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO snapshots(resource, page, total, payload, fetched_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(resource) DO UPDATE SET
	 page=excluded.page,
	 total=excluded.total,
	 payload=excluded.payload,
	 fetched_at=excluded.fetched_at;
	`, s.Resource, s.Page, s.Total, string(s.Payload), s.FetchedAt)
	return err
}

func (r *SnapshotRepo) Load(ctx context.Context, resource string) (Snapshot, error) {
	var s Snapshot
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT resource, page, total, payload, fetched_at FROM snapshots WHERE resource = ?`, resource).
		Scan(&s.Resource, &s.Page, &s.Total, &payload, &s.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	s.Payload = json.RawMessage(payload)
	return s, nil
}

func (r *SnapshotRepo) Delete(ctx context.Context, resource string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE resource = ?`, resource)
	return err
}

// SavePage stores items as the snapshot for resource.
func SavePage[E any](ctx context.Context, r *SnapshotRepo, resource string, page, total int, items []E) error {
	if items == nil {
		items = []E{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", resource, err)
	}
	return r.Save(ctx, Snapshot{Resource: resource, Page: page, Total: total, Payload: payload})
}

// LoadPage reads the snapshot for resource back into items.
func LoadPage[E any](ctx context.Context, r *SnapshotRepo, resource string) ([]E, Snapshot, error) {
	s, err := r.Load(ctx, resource)
	if err != nil {
		return nil, Snapshot{}, err
	}
	var items []E
	if err := json.Unmarshal(s.Payload, &items); err != nil {
		return nil, Snapshot{}, fmt.Errorf("store: decode %s: %w", resource, err)
	}
	return items, s, nil
}

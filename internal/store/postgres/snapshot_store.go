package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suimarket/kioskwatch/internal/domain"
)

// SnapshotStore archives reconciliation snapshots for history queries.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Insert archives one snapshot. Listings are stored as a JSONB document:
// snapshots are read back whole, never queried per listing.
func (s *SnapshotStore) Insert(ctx context.Context, snap domain.Snapshot) error {
	listings, err := json.Marshal(snap.Listings)
	if err != nil {
		return fmt.Errorf("postgres: marshal snapshot listings: %w", err)
	}

	const query = `
		INSERT INTO listing_snapshots (taken_at, listing_count, listings)
		VALUES ($1, $2, $3)`

	if _, err := s.pool.Exec(ctx, query, snap.TakenAt, len(snap.Listings), listings); err != nil {
		return fmt.Errorf("postgres: insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent n snapshots, newest first.
func (s *SnapshotStore) Latest(ctx context.Context, n int) ([]domain.Snapshot, error) {
	if n <= 0 {
		n = 1
	}

	const query = `
		SELECT taken_at, listings
		FROM listing_snapshots
		ORDER BY taken_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("postgres: query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		var listings []byte
		if err := rows.Scan(&snap.TakenAt, &listings); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		if err := json.Unmarshal(listings, &snap.Listings); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal snapshot listings: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate snapshots: %w", err)
	}
	return snaps, nil
}

// Prune deletes snapshots beyond the newest keep entries and returns how
// many rows were removed.
func (s *SnapshotStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	const query = `
		DELETE FROM listing_snapshots
		WHERE id NOT IN (
			SELECT id FROM listing_snapshots
			ORDER BY taken_at DESC
			LIMIT $1
		)`

	tag, err := s.pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

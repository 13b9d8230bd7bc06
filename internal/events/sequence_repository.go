package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

var errNoPartitionKey = errors.New("sequence: partition key is required")

// SequenceRepository hands out a strictly increasing sequence per partition key.
type SequenceRepository interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// rowQuerier is the slice of *sql.DB the SQL repository needs.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLSequenceRepository keeps counters in event_sequences. The upsert bumps
// and returns the counter in one statement, so concurrent publishers for the
// same session never receive the same number.
type SQLSequenceRepository struct {
	db rowQuerier
}

func NewSequenceRepository(db *sql.DB) *SQLSequenceRepository {
	return &SQLSequenceRepository{db: db}
}

const nextSequenceSQL = `
INSERT INTO event_sequences AS s (partition_key, last_sequence, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (partition_key)
DO UPDATE SET last_sequence = s.last_sequence + 1, updated_at = NOW()
RETURNING s.last_sequence`

func (r *SQLSequenceRepository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, errNoPartitionKey
	}

	var seq int64
	if err := r.db.QueryRowContext(ctx, nextSequenceSQL, partitionKey).Scan(&seq); err != nil {
		return 0, fmt.Errorf("sequence: bump %q: %w", partitionKey, err)
	}
	return seq, nil
}

// MemorySequenceRepository is used when no database backs the storefront.
// Sequences restart at 1 with the process.
type MemorySequenceRepository struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewMemorySequenceRepository() *MemorySequenceRepository {
	return &MemorySequenceRepository{last: make(map[string]int64)}
}

func (r *MemorySequenceRepository) NextSequence(_ context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, errNoPartitionKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.last[partitionKey]++
	return r.last[partitionKey], nil
}

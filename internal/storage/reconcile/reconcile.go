// Package reconcile rebuilds versioned values from rows of a history table.
package reconcile

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/model"
)

// ErrNoHistory is returned when a persisted value has no history rows
var ErrNoHistory = errors.New("no history rows")

// Row is one entry of a history table
type Row[T model.Number] struct {
	OwnerID   uuid.UUID
	Seq       int64
	Value     T
	CreatedAt time.Time
}

// Value orders rows newest first (created_at desc, then seq desc) and folds
// them into a VersionedValue. limit <= 0 keeps every row.
func Value[T model.Number](rows []Row[T], limit int) (model.VersionedValue[T], error) {
	if len(rows) == 0 {
		return model.VersionedValue[T]{}, ErrNoHistory
	}

	sorted := make([]Row[T], len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].Seq > sorted[j].Seq
	})

	n := len(sorted)
	if limit > 0 && n > limit {
		n = limit
	}
	history := make([]T, n)
	for i := 0; i < n; i++ {
		history[i] = sorted[i].Value
	}
	return model.VersionedValue[T]{Current: history[0], History: history}, nil
}

// GroupByOwner splits a joined result set by owning entity, preserving row order
func GroupByOwner[T model.Number](rows []Row[T]) map[uuid.UUID][]Row[T] {
	groups := make(map[uuid.UUID][]Row[T])
	for _, r := range rows {
		groups[r.OwnerID] = append(groups[r.OwnerID], r)
	}
	return groups
}

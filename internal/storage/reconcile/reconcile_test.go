package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestValueOrdersNewestFirst(t *testing.T) {
	owner := uuid.New()
	rows := []Row[int64]{
		{OwnerID: owner, Seq: 1, Value: 1000, CreatedAt: base},
		{OwnerID: owner, Seq: 3, Value: 1500, CreatedAt: base.Add(2 * time.Minute)},
		{OwnerID: owner, Seq: 2, Value: 1200, CreatedAt: base.Add(time.Minute)},
	}

	v, err := Value(rows, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), v.Current)
	assert.Equal(t, []int64{1500, 1200, 1000}, v.History)
	assert.True(t, v.Valid())
}

func TestValueBreaksTimestampTiesBySeq(t *testing.T) {
	rows := []Row[float64]{
		{Seq: 7, Value: 6.5, CreatedAt: base},
		{Seq: 9, Value: 7.0, CreatedAt: base},
		{Seq: 8, Value: 8.5, CreatedAt: base},
	}

	v, err := Value(rows, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{7.0, 8.5, 6.5}, v.History)
}

func TestValueLimit(t *testing.T) {
	var rows []Row[float64]
	for i := 0; i < 8; i++ {
		rows = append(rows, Row[float64]{Seq: int64(i), Value: float64(i), CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}

	v, err := Value(rows, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 6, 5}, v.History)
	assert.Equal(t, 7.0, v.Current)
}

func TestValueDoesNotReorderInput(t *testing.T) {
	rows := []Row[int64]{
		{Seq: 1, Value: 1, CreatedAt: base},
		{Seq: 2, Value: 2, CreatedAt: base.Add(time.Second)},
	}
	_, err := Value(rows, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows[0].Value)
}

func TestValueEmpty(t *testing.T) {
	_, err := Value[int64](nil, 0)
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestGroupByOwner(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	rows := []Row[int64]{
		{OwnerID: a, Seq: 1, Value: 10},
		{OwnerID: b, Seq: 2, Value: 20},
		{OwnerID: a, Seq: 3, Value: 30},
	}

	groups := GroupByOwner(rows)
	require.Len(t, groups, 2)
	assert.Len(t, groups[a], 2)
	assert.Equal(t, int64(30), groups[a][1].Value)
	assert.Len(t, groups[b], 1)
}

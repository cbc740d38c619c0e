package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	v := Seed(int64(1000))

	assert.Equal(t, int64(1000), v.Current)
	assert.Equal(t, []int64{1000}, v.History)
	assert.True(t, v.Valid())
}

func TestAdvancePrependsChangedValue(t *testing.T) {
	v := Seed(int64(1000))
	v = Advance(v, 1200)
	v = Advance(v, 1500)

	assert.Equal(t, int64(1500), v.Current)
	assert.Equal(t, []int64{1500, 1200, 1000}, v.History)
	assert.True(t, v.Valid())
}

func TestAdvanceUnchangedValueKeepsHistory(t *testing.T) {
	v := Seed(7.5)
	v = Advance(v, 7.5)

	assert.Equal(t, []float64{7.5}, v.History)
}

func TestAdvanceDoesNotAliasStoredHistory(t *testing.T) {
	stored := Seed(int64(10))
	next := Advance(stored, 20)
	next.History[1] = 99

	assert.Equal(t, []int64{10}, stored.History)
}

func TestAdvanceFromEmptySeeds(t *testing.T) {
	v := Advance(VersionedValue[int64]{}, 5)

	assert.Equal(t, []int64{5}, v.History)
}

func TestAppendRecordsRepeatedValue(t *testing.T) {
	v := Append(Seed(6.0), 6.0)

	assert.Equal(t, []float64{6.0, 6.0}, v.History)
}

func TestHistoryLengthAfterUpdates(t *testing.T) {
	v := Seed(int64(0))
	for i := int64(1); i <= 10; i++ {
		v = Advance(v, i)
		require.True(t, v.Valid())
	}
	assert.Len(t, v.History, 11)
}

func TestBounded(t *testing.T) {
	v := VersionedValue[float64]{Current: 9, History: []float64{9, 8, 7, 6, 5, 4, 3}}

	bounded := v.Bounded(5)
	assert.Equal(t, []float64{9, 8, 7, 6, 5}, bounded.History)
	assert.Len(t, v.History, 7, "original is untouched")

	assert.Len(t, v.Bounded(0).History, 7)
	assert.Len(t, v.Bounded(20).History, 7)
}

func TestValid(t *testing.T) {
	assert.False(t, VersionedValue[int64]{Current: 1}.Valid())
	assert.False(t, VersionedValue[int64]{Current: 1, History: []int64{2, 1}}.Valid())
	assert.True(t, VersionedValue[int64]{Current: 2, History: []int64{2, 1}}.Valid())
}

func TestPrevious(t *testing.T) {
	_, ok := Seed(int64(1)).Previous()
	assert.False(t, ok)

	prev, ok := Advance(Seed(int64(1)), 2).Previous()
	assert.True(t, ok)
	assert.Equal(t, int64(1), prev)
}

package model

// Number is the set of scalar types a VersionedValue can hold
type Number interface {
	~int64 | ~float64
}

// VersionedValue pairs a current value with its newest-first history.
//
// Once persisted, History is never empty and History[0] == Current.
// Writes only ever prepend to History.
type VersionedValue[T Number] struct {
	Current T   `json:"current"`
	History []T `json:"history"`
}

// Seed returns a VersionedValue whose history holds only v
func Seed[T Number](v T) VersionedValue[T] {
	return VersionedValue[T]{Current: v, History: []T{v}}
}

// Advance returns the value that results from writing next over stored.
// An unchanged value leaves the history as it was.
func Advance[T Number](stored VersionedValue[T], next T) VersionedValue[T] {
	if len(stored.History) == 0 {
		return Seed(next)
	}
	if next == stored.Current {
		return stored.Clone()
	}
	return Append(stored, next)
}

// Append returns the value that results from recording next as a new entry,
// even when it equals the current value.
func Append[T Number](stored VersionedValue[T], next T) VersionedValue[T] {
	history := make([]T, 0, len(stored.History)+1)
	history = append(history, next)
	history = append(history, stored.History...)
	return VersionedValue[T]{Current: next, History: history}
}

// Clone returns a deep copy
func (v VersionedValue[T]) Clone() VersionedValue[T] {
	if v.History == nil {
		return VersionedValue[T]{Current: v.Current}
	}
	history := make([]T, len(v.History))
	copy(history, v.History)
	return VersionedValue[T]{Current: v.Current, History: history}
}

// Bounded returns a copy keeping at most n history entries.
// n <= 0 keeps everything.
func (v VersionedValue[T]) Bounded(n int) VersionedValue[T] {
	out := v.Clone()
	if n > 0 && len(out.History) > n {
		out.History = out.History[:n]
	}
	return out
}

// Valid reports whether the at-rest invariant holds
func (v VersionedValue[T]) Valid() bool {
	return len(v.History) > 0 && v.History[0] == v.Current
}

// Previous returns the value before the current one, if any
func (v VersionedValue[T]) Previous() (T, bool) {
	if len(v.History) < 2 {
		var zero T
		return zero, false
	}
	return v.History[1], true
}

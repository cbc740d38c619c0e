package model

import "sort"

// DefaultFormLength is how many recent match ratings make up a player's form
const DefaultFormLength = 5

// SquadMember is a read-only projection of a player with recent form.
// Form holds the most recent match ratings across competitions, newest first.
type SquadMember struct {
	Player Player
	Form   []float64
}

// AverageForm returns the mean of the recent ratings, or 0 without any
func (m SquadMember) AverageForm() float64 {
	if len(m.Form) == 0 {
		return 0
	}
	var sum float64
	for _, r := range m.Form {
		sum += r
	}
	return sum / float64(len(m.Form))
}

// Form returns up to n match ratings for a player across competitions.
// Performances are taken most recently modified first (ties by id), each
// contributing its newest-first rating history. n <= 0 returns everything.
func Form(performances []MatchPerformance, n int) []float64 {
	ordered := make([]MatchPerformance, len(performances))
	copy(ordered, performances)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.LastModifiedDate.Equal(b.LastModifiedDate) {
			return a.LastModifiedDate.After(b.LastModifiedDate)
		}
		return a.ID.String() < b.ID.String()
	})

	form := []float64{}
	for _, p := range ordered {
		for _, r := range p.MatchRating.History {
			if n > 0 && len(form) == n {
				return form
			}
			form = append(form, r)
		}
	}
	return form
}

// SortSquad orders members by when the player was created, then id
func SortSquad(members []SquadMember) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i].Player, members[j].Player
		if !a.CreatedDate.Equal(b.CreatedDate) {
			return a.CreatedDate.Before(b.CreatedDate)
		}
		return a.ID.String() < b.ID.String()
	})
}

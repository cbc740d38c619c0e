package model

import "github.com/google/uuid"

// Position is a player's preferred position on the pitch
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DF"
	PositionMidfielder Position = "MF"
	PositionForward    Position = "FW"
)

// Valid reports whether p is a known position
func (p Position) Valid() bool {
	switch p {
	case PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward:
		return true
	}
	return false
}

// Player belongs to exactly one club
type Player struct {
	ID          uuid.UUID               `json:"id"`
	ClubID      uuid.UUID               `json:"club_id"`
	Name        string                  `json:"name"`
	CountryCode string                  `json:"country_code"`
	Position    Position                `json:"position"`
	Ability     VersionedValue[float64] `json:"ability"`
	Wages       VersionedValue[int64]   `json:"wages"`
	MarketValue VersionedValue[int64]   `json:"market_value"`
	Audit
}

func (p *Player) EntityID() uuid.UUID      { return p.ID }
func (p *Player) SetEntityID(id uuid.UUID) { p.ID = id }

// SeedHistory initialises each attribute history to [current]
func (p *Player) SeedHistory() {
	p.Ability = Seed(p.Ability.Current)
	p.Wages = Seed(p.Wages.Current)
	p.MarketValue = Seed(p.MarketValue.Current)
}

// AdvanceHistory prepends changed attribute values to the stored histories
func (p *Player) AdvanceHistory(stored *Player) {
	p.Ability = Advance(stored.Ability, p.Ability.Current)
	p.Wages = Advance(stored.Wages, p.Wages.Current)
	p.MarketValue = Advance(stored.MarketValue, p.MarketValue.Current)
}

// Clone returns a deep copy
func (p Player) Clone() Player {
	p.Ability = p.Ability.Clone()
	p.Wages = p.Wages.Clone()
	p.MarketValue = p.MarketValue.Clone()
	return p
}

// WithAbility returns a copy with a new ability rating
func (p Player) WithAbility(ability float64) Player {
	out := p.Clone()
	out.Ability = Advance(p.Ability, ability)
	return out
}

// WithWages returns a copy with new wages
func (p Player) WithWages(wages int64) Player {
	out := p.Clone()
	out.Wages = Advance(p.Wages, wages)
	return out
}

// WithMarketValue returns a copy with a new market value
func (p Player) WithMarketValue(value int64) Player {
	out := p.Clone()
	out.MarketValue = Advance(p.MarketValue, value)
	return out
}

// MatchPerformance accumulates a player's record in one competition
type MatchPerformance struct {
	ID            uuid.UUID               `json:"id"`
	PlayerID      uuid.UUID               `json:"player_id"`
	CompetitionID string                  `json:"competition_id"`
	Appearances   int                     `json:"appearances"`
	Goals         int                     `json:"goals"`
	Assists       int                     `json:"assists"`
	CleanSheets   int                     `json:"clean_sheets"`
	ManOfTheMatch int                     `json:"man_of_the_match"`
	MatchRating   VersionedValue[float64] `json:"match_rating"`
	Audit
}

func (m *MatchPerformance) EntityID() uuid.UUID      { return m.ID }
func (m *MatchPerformance) SetEntityID(id uuid.UUID) { m.ID = id }

// SeedHistory initialises the rating history to [current]
func (m *MatchPerformance) SeedHistory() {
	m.MatchRating = Seed(m.MatchRating.Current)
}

// AdvanceHistory prepends the rating to the stored history when it changed
// or when another appearance was recorded
func (m *MatchPerformance) AdvanceHistory(stored *MatchPerformance) {
	if m.Appearances > stored.Appearances {
		m.MatchRating = Append(stored.MatchRating, m.MatchRating.Current)
		return
	}
	m.MatchRating = Advance(stored.MatchRating, m.MatchRating.Current)
}

// Clone returns a deep copy
func (m MatchPerformance) Clone() MatchPerformance {
	m.MatchRating = m.MatchRating.Clone()
	return m
}

// MatchResult is one match's contribution to a performance record
type MatchResult struct {
	Goals         int
	Assists       int
	CleanSheet    bool
	ManOfTheMatch bool
	Rating        float64
}

// WithMatch returns a copy with the result of one more match applied
func (m MatchPerformance) WithMatch(r MatchResult) MatchPerformance {
	out := m.Clone()
	out.Appearances++
	out.Goals += r.Goals
	out.Assists += r.Assists
	if r.CleanSheet {
		out.CleanSheets++
	}
	if r.ManOfTheMatch {
		out.ManOfTheMatch++
	}
	out.MatchRating = Append(m.MatchRating, r.Rating)
	return out
}

package postgres

import (
	"github.com/mcoot/clubhouse/internal/model"
)

// schema maps an entity kind onto its base table and history tables.
// columns, values and dest list the non-versioned fields in the same order.
type schema[E any] struct {
	kind    model.Kind
	table   string
	columns []string
	values  func(*E) []any
	dest    func(*E) []any
	history []historyColumn[E]
}

var userSchema = schema[model.User]{
	kind:    model.KindUser,
	table:   "users",
	columns: []string{"email", "display_name", "password_hash"},
	values: func(u *model.User) []any {
		return []any{u.Email, u.DisplayName, u.PasswordHash}
	},
	dest: func(u *model.User) []any {
		return []any{&u.Email, &u.DisplayName, &u.PasswordHash}
	},
}

var authTokenSchema = schema[model.AuthToken]{
	kind:    model.KindAuthToken,
	table:   "auth_tokens",
	columns: []string{"user_id", "token_hash", "expires_at"},
	values: func(t *model.AuthToken) []any {
		return []any{t.UserID, t.TokenHash, t.ExpiresAt}
	},
	dest: func(t *model.AuthToken) []any {
		return []any{&t.UserID, &t.TokenHash, &t.ExpiresAt}
	},
}

var clubSchema = schema[model.Club]{
	kind:    model.KindClub,
	table:   "clubs",
	columns: []string{"user_id", "name", "country_code", "logo_url"},
	values: func(c *model.Club) []any {
		return []any{c.UserID, c.Name, c.CountryCode, c.LogoURL}
	},
	dest: func(c *model.Club) []any {
		return []any{&c.UserID, &c.Name, &c.CountryCode, &c.LogoURL}
	},
	history: []historyColumn[model.Club]{
		newHistory("club_manager_funds_history", "club_id", func(c *model.Club) *model.VersionedValue[int64] { return &c.ManagerFunds }),
		newHistory("club_transfer_budget_history", "club_id", func(c *model.Club) *model.VersionedValue[int64] { return &c.TransferBudget }),
		newHistory("club_wage_budget_history", "club_id", func(c *model.Club) *model.VersionedValue[int64] { return &c.WageBudget }),
	},
}

var playerSchema = schema[model.Player]{
	kind:    model.KindPlayer,
	table:   "players",
	columns: []string{"club_id", "name", "country_code", "position"},
	values: func(p *model.Player) []any {
		return []any{p.ClubID, p.Name, p.CountryCode, string(p.Position)}
	},
	dest: func(p *model.Player) []any {
		return []any{&p.ClubID, &p.Name, &p.CountryCode, (*string)(&p.Position)}
	},
	history: []historyColumn[model.Player]{
		newHistory("player_ability_history", "player_id", func(p *model.Player) *model.VersionedValue[float64] { return &p.Ability }),
		newHistory("player_wages_history", "player_id", func(p *model.Player) *model.VersionedValue[int64] { return &p.Wages }),
		newHistory("player_market_value_history", "player_id", func(p *model.Player) *model.VersionedValue[int64] { return &p.MarketValue }),
	},
}

var matchPerformanceSchema = schema[model.MatchPerformance]{
	kind:    model.KindMatchPerformance,
	table:   "match_performances",
	columns: []string{"player_id", "competition_id", "appearances", "goals", "assists", "clean_sheets", "man_of_the_match"},
	values: func(m *model.MatchPerformance) []any {
		return []any{m.PlayerID, m.CompetitionID, m.Appearances, m.Goals, m.Assists, m.CleanSheets, m.ManOfTheMatch}
	},
	dest: func(m *model.MatchPerformance) []any {
		return []any{&m.PlayerID, &m.CompetitionID, &m.Appearances, &m.Goals, &m.Assists, &m.CleanSheets, &m.ManOfTheMatch}
	},
	history: []historyColumn[model.MatchPerformance]{
		newHistory(ratingHistoryTable, "match_performance_id", func(m *model.MatchPerformance) *model.VersionedValue[float64] { return &m.MatchRating }),
	},
}

var boardObjectiveSchema = schema[model.BoardObjective]{
	kind:    model.KindBoardObjective,
	table:   "board_objectives",
	columns: []string{"club_id", "title", "description", "completed"},
	values: func(o *model.BoardObjective) []any {
		return []any{o.ClubID, o.Title, o.Description, o.Completed}
	},
	dest: func(o *model.BoardObjective) []any {
		return []any{&o.ClubID, &o.Title, &o.Description, &o.Completed}
	},
}

const ratingHistoryTable = "match_performance_match_rating_history"

package response

import (
	"time"

	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/services/auth"
)

// Versioned is a versioned value in API responses, history newest first
type Versioned[T model.Number] struct {
	Current T   `json:"current"`
	History []T `json:"history"`
}

func versionedFromModel[T model.Number](v model.VersionedValue[T]) Versioned[T] {
	history := v.History
	if history == nil {
		history = []T{}
	}
	return Versioned[T]{Current: v.Current, History: history}
}

// Audit carries the bookkeeping fields of an entity
type Audit struct {
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
	CreatedBy        string    `json:"created_by"`
}

func auditFromModel(a model.Audit) Audit {
	return Audit{
		CreatedDate:      a.CreatedDate,
		LastModifiedDate: a.LastModifiedDate,
		CreatedBy:        a.CreatedBy,
	}
}

// User represents a user in API responses. The password hash is never exposed.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Audit
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Audit:       auditFromModel(u.Audit),
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User      `json:"user"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Session describes an active login without its secret
type Session struct {
	ID        string    `json:"id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionsFromModel converts stored auth tokens
func SessionsFromModel(tokens []*model.AuthToken) []Session {
	out := make([]Session, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, Session{ID: t.ID.String(), IssuedAt: t.CreatedDate, ExpiresAt: t.ExpiresAt})
	}
	return out
}

// Club represents a club in API responses
type Club struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	Name           string           `json:"name"`
	CountryCode    string           `json:"country_code"`
	LogoURL        string           `json:"logo_url,omitempty"`
	ManagerFunds   Versioned[int64] `json:"manager_funds"`
	TransferBudget Versioned[int64] `json:"transfer_budget"`
	WageBudget     Versioned[int64] `json:"wage_budget"`
	Audit
}

// ClubFromModel converts a model.Club
func ClubFromModel(c *model.Club) Club {
	return Club{
		ID:             c.ID.String(),
		UserID:         c.UserID.String(),
		Name:           c.Name,
		CountryCode:    c.CountryCode,
		LogoURL:        c.LogoURL,
		ManagerFunds:   versionedFromModel(c.ManagerFunds),
		TransferBudget: versionedFromModel(c.TransferBudget),
		WageBudget:     versionedFromModel(c.WageBudget),
		Audit:          auditFromModel(c.Audit),
	}
}

// ClubsFromModel converts a list of clubs
func ClubsFromModel(clubs []*model.Club) []Club {
	out := make([]Club, 0, len(clubs))
	for _, c := range clubs {
		out = append(out, ClubFromModel(c))
	}
	return out
}

// Player represents a player in API responses
type Player struct {
	ID          string             `json:"id"`
	ClubID      string             `json:"club_id"`
	Name        string             `json:"name"`
	CountryCode string             `json:"country_code"`
	Position    string             `json:"position"`
	Ability     Versioned[float64] `json:"ability"`
	Wages       Versioned[int64]   `json:"wages"`
	MarketValue Versioned[int64]   `json:"market_value"`
	Audit
}

// PlayerFromModel converts a model.Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          p.ID.String(),
		ClubID:      p.ClubID.String(),
		Name:        p.Name,
		CountryCode: p.CountryCode,
		Position:    string(p.Position),
		Ability:     versionedFromModel(p.Ability),
		Wages:       versionedFromModel(p.Wages),
		MarketValue: versionedFromModel(p.MarketValue),
		Audit:       auditFromModel(p.Audit),
	}
}

// MatchPerformance represents a player's record in one competition
type MatchPerformance struct {
	ID            string             `json:"id"`
	PlayerID      string             `json:"player_id"`
	CompetitionID string             `json:"competition_id"`
	Appearances   int                `json:"appearances"`
	Goals         int                `json:"goals"`
	Assists       int                `json:"assists"`
	CleanSheets   int                `json:"clean_sheets"`
	ManOfTheMatch int                `json:"man_of_the_match"`
	MatchRating   Versioned[float64] `json:"match_rating"`
	Audit
}

// MatchPerformanceFromModel converts a model.MatchPerformance
func MatchPerformanceFromModel(m *model.MatchPerformance) MatchPerformance {
	return MatchPerformance{
		ID:            m.ID.String(),
		PlayerID:      m.PlayerID.String(),
		CompetitionID: m.CompetitionID,
		Appearances:   m.Appearances,
		Goals:         m.Goals,
		Assists:       m.Assists,
		CleanSheets:   m.CleanSheets,
		ManOfTheMatch: m.ManOfTheMatch,
		MatchRating:   versionedFromModel(m.MatchRating),
		Audit:         auditFromModel(m.Audit),
	}
}

// Form is a player's most recent ratings
type Form struct {
	PlayerID      string    `json:"player_id"`
	CompetitionID string    `json:"competition_id,omitempty"`
	Ratings       []float64 `json:"ratings"`
}

// SquadMember is one entry of a squad summary
type SquadMember struct {
	Player      Player    `json:"player"`
	Form        []float64 `json:"form"`
	AverageForm float64   `json:"average_form"`
}

// SquadFromModel converts a squad summary
func SquadFromModel(members []model.SquadMember) []SquadMember {
	out := make([]SquadMember, 0, len(members))
	for _, m := range members {
		form := m.Form
		if form == nil {
			form = []float64{}
		}
		out = append(out, SquadMember{
			Player:      PlayerFromModel(&m.Player),
			Form:        form,
			AverageForm: m.AverageForm(),
		})
	}
	return out
}

// Objective represents a board objective
type Objective struct {
	ID          string `json:"id"`
	ClubID      string `json:"club_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Audit
}

// ObjectiveFromModel converts a model.BoardObjective
func ObjectiveFromModel(o *model.BoardObjective) Objective {
	return Objective{
		ID:          o.ID.String(),
		ClubID:      o.ClubID.String(),
		Title:       o.Title,
		Description: o.Description,
		Completed:   o.Completed,
		Audit:       auditFromModel(o.Audit),
	}
}

// ObjectivesFromModel converts a list of objectives
func ObjectivesFromModel(objectives []*model.BoardObjective) []Objective {
	out := make([]Objective, 0, len(objectives))
	for _, o := range objectives {
		out = append(out, ObjectiveFromModel(o))
	}
	return out
}

// Health reports whether the server can reach its storage backend
type Health struct {
	Status    string `json:"status"`
	Backend   string `json:"backend"`
	LatencyMS int64  `json:"latency_ms"`
}

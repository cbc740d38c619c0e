package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Club:
		o.printClub(v)
	case []Club:
		for _, c := range v {
			o.printClub(c)
		}
	case []SquadMember:
		o.printSquad(v)
	case HealthResult:
		_, _ = fmt.Fprintf(o.w, "Status: %s (%s, %dms)\n", v.Status, v.Backend, v.LatencyMS)
	case VersionResult:
		_, _ = fmt.Fprintln(o.w, v.Version)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Versioned mirrors a versioned API value
type Versioned[T int64 | float64] struct {
	Current T   `json:"current"`
	History []T `json:"history"`
}

// User response type (matches API)
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// Club response type
type Club struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	CountryCode    string           `json:"country_code"`
	ManagerFunds   Versioned[int64] `json:"manager_funds"`
	TransferBudget Versioned[int64] `json:"transfer_budget"`
	WageBudget     Versioned[int64] `json:"wage_budget"`
}

// Player response type
type Player struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Position string             `json:"position"`
	Ability  Versioned[float64] `json:"ability"`
}

// SquadMember response type
type SquadMember struct {
	Player      Player    `json:"player"`
	Form        []float64 `json:"form"`
	AverageForm float64   `json:"average_form"`
}

// HealthResult response type
type HealthResult struct {
	Status    string `json:"status"`
	Backend   string `json:"backend"`
	LatencyMS int64  `json:"latency_ms"`
}

// VersionResult is printed by the version command
type VersionResult struct {
	Version string `json:"version"`
}

func (o *Output) printUser(u User) {
	_, _ = fmt.Fprintf(o.w, "User: %s <%s> (%s)\n", u.DisplayName, u.Email, u.ID)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	_, _ = fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printClub(c Club) {
	_, _ = fmt.Fprintf(o.w, "Club: %s [%s] (%s)\n", c.Name, c.CountryCode, c.ID)
	_, _ = fmt.Fprintf(o.w, "  Funds: %d  Transfer budget: %d  Wage budget: %d\n",
		c.ManagerFunds.Current, c.TransferBudget.Current, c.WageBudget.Current)
}

func (o *Output) printSquad(members []SquadMember) {
	if len(members) == 0 {
		_, _ = fmt.Fprintln(o.w, "No players")
		return
	}
	for _, m := range members {
		form := make([]string, len(m.Form))
		for i, r := range m.Form {
			form[i] = fmt.Sprintf("%.1f", r)
		}
		_, _ = fmt.Fprintf(o.w, "%-3s %-24s ability %.1f  form [%s] avg %.2f\n",
			m.Player.Position, m.Player.Name, m.Player.Ability.Current, strings.Join(form, " "), m.AverageForm)
	}
}

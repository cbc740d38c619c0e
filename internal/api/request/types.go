package request

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateClubRequest is the request body for creating a club
type CreateClubRequest struct {
	Name           string `json:"name"`
	CountryCode    string `json:"country_code"`
	LogoURL        string `json:"logo_url,omitempty"`
	ManagerFunds   int64  `json:"manager_funds"`
	TransferBudget int64  `json:"transfer_budget"`
	WageBudget     int64  `json:"wage_budget"`
}

// UpdateClubRequest is the request body for replacing a club's editable fields
type UpdateClubRequest struct {
	Name           string `json:"name"`
	CountryCode    string `json:"country_code"`
	LogoURL        string `json:"logo_url,omitempty"`
	TransferBudget int64  `json:"transfer_budget"`
	WageBudget     int64  `json:"wage_budget"`
}

// AdjustFundsRequest is the request body for changing manager funds
type AdjustFundsRequest struct {
	Delta int64 `json:"delta"`
}

// SignPlayerRequest is the request body for signing a player
type SignPlayerRequest struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	Position    string  `json:"position"`
	Ability     float64 `json:"ability"`
	Wages       int64   `json:"wages"`
	MarketValue int64   `json:"market_value"`
}

// UpdatePlayerRequest is the request body for changing player attributes.
// Omitted fields are left unchanged.
type UpdatePlayerRequest struct {
	Ability     *float64 `json:"ability,omitempty"`
	Wages       *int64   `json:"wages,omitempty"`
	MarketValue *int64   `json:"market_value,omitempty"`
}

// RecordMatchRequest is the request body for recording a match
type RecordMatchRequest struct {
	CompetitionID string  `json:"competition_id"`
	Goals         int     `json:"goals"`
	Assists       int     `json:"assists"`
	CleanSheet    bool    `json:"clean_sheet"`
	ManOfTheMatch bool    `json:"man_of_the_match"`
	Rating        float64 `json:"rating"`
}

// CreateObjectiveRequest is the request body for adding a board objective
type CreateObjectiveRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

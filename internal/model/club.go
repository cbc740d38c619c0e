package model

import "github.com/google/uuid"

// Club is a user's managed team. Its finances keep their full history.
type Club struct {
	ID             uuid.UUID             `json:"id"`
	UserID         uuid.UUID             `json:"user_id"`
	Name           string                `json:"name"`
	CountryCode    string                `json:"country_code"`
	LogoURL        string                `json:"logo_url,omitempty"`
	ManagerFunds   VersionedValue[int64] `json:"manager_funds"`
	TransferBudget VersionedValue[int64] `json:"transfer_budget"`
	WageBudget     VersionedValue[int64] `json:"wage_budget"`
	Audit
}

func (c *Club) EntityID() uuid.UUID      { return c.ID }
func (c *Club) SetEntityID(id uuid.UUID) { c.ID = id }

// SeedHistory initialises each finance history to [current]
func (c *Club) SeedHistory() {
	c.ManagerFunds = Seed(c.ManagerFunds.Current)
	c.TransferBudget = Seed(c.TransferBudget.Current)
	c.WageBudget = Seed(c.WageBudget.Current)
}

// AdvanceHistory prepends changed finance values to the stored histories
func (c *Club) AdvanceHistory(stored *Club) {
	c.ManagerFunds = Advance(stored.ManagerFunds, c.ManagerFunds.Current)
	c.TransferBudget = Advance(stored.TransferBudget, c.TransferBudget.Current)
	c.WageBudget = Advance(stored.WageBudget, c.WageBudget.Current)
}

// Clone returns a deep copy
func (c Club) Clone() Club {
	c.ManagerFunds = c.ManagerFunds.Clone()
	c.TransferBudget = c.TransferBudget.Clone()
	c.WageBudget = c.WageBudget.Clone()
	return c
}

// WithName returns a copy with the name replaced
func (c Club) WithName(name string) Club {
	out := c.Clone()
	out.Name = name
	return out
}

// WithManagerFunds returns a copy whose manager funds are set to funds
func (c Club) WithManagerFunds(funds int64) Club {
	out := c.Clone()
	out.ManagerFunds = Advance(c.ManagerFunds, funds)
	return out
}

// WithBudgets returns a copy with new transfer and wage budgets
func (c Club) WithBudgets(transfer, wages int64) Club {
	out := c.Clone()
	out.TransferBudget = Advance(c.TransferBudget, transfer)
	out.WageBudget = Advance(c.WageBudget, wages)
	return out
}

// BoardObjective is a target set for a club by its board
type BoardObjective struct {
	ID          uuid.UUID `json:"id"`
	ClubID      uuid.UUID `json:"club_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Audit
}

func (o *BoardObjective) EntityID() uuid.UUID              { return o.ID }
func (o *BoardObjective) SetEntityID(id uuid.UUID)         { o.ID = id }
func (o *BoardObjective) SeedHistory()                     {}
func (o *BoardObjective) AdvanceHistory(_ *BoardObjective) {}

// Clone returns a copy
func (o BoardObjective) Clone() BoardObjective {
	return o
}

// WithCompleted returns a copy with the completion flag set
func (o BoardObjective) WithCompleted(done bool) BoardObjective {
	o.Completed = done
	return o
}

package models

// Landing is the home page aggregate. Org is only populated for authenticated callers.
type Landing struct {
	Public      []ActivitySummary `json:"public"`
	Org         []ActivitySummary `json:"org"`
	Marketplace []ActivitySummary `json:"marketplace"`
	ShowOrg     bool              `json:"show_org"`
}

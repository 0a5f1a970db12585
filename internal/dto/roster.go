package dto

// RosterEntry is one person in a resolved compliance roster, decorated with
// display name and home affiliation. Bank is true for floating staff with no
// fixed home.
type RosterEntry struct {
	PersonID    string  `json:"personId"`
	DisplayName string  `json:"displayName"`
	HomeID      *string `json:"homeId,omitempty"`
	HomeName    string  `json:"homeName,omitempty"`
	Bank        bool    `json:"bank"`
	Manager     bool    `json:"manager"`
}

// RosterScopeKind discriminates the supported roster scopes.
type RosterScopeKind string

const (
	ScopeCompany      RosterScopeKind = "COMPANY"
	ScopeManagedHomes RosterScopeKind = "MANAGED_HOMES"
	ScopeSelf         RosterScopeKind = "SELF"
)

// RosterScope is the pre-resolved scope a caller passes into the roster
// resolver; the core performs no authorisation logic beyond honouring it.
type RosterScope struct {
	Kind           RosterScopeKind `json:"kind"`
	CompanyID      string          `json:"companyId,omitempty"`
	ManagedHomeIDs []string        `json:"managedHomeIds,omitempty"`
	ManagerID      string          `json:"managerId,omitempty"`
	SelfID         string          `json:"selfId,omitempty"`
	// ExcludeManager drops the manager's own entry, used by write paths where
	// a manager cannot assign training to themselves.
	ExcludeManager bool `json:"-"`
}

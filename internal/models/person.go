package models

import "time"

// PersonRole represents the available authorisation levels.
type PersonRole string

const (
	RolePlatformAdmin PersonRole = "PLATFORM_ADMIN"
	RoleCompanyAdmin  PersonRole = "COMPANY_ADMIN"
	RoleHomeManager   PersonRole = "HOME_MANAGER"
	RoleStaff         PersonRole = "STAFF"
)

// ParsePersonRole validates a raw role value at the store boundary.
func ParsePersonRole(raw string) (PersonRole, bool) {
	switch PersonRole(raw) {
	case RolePlatformAdmin, RoleCompanyAdmin, RoleHomeManager, RoleStaff:
		return PersonRole(raw), true
	}
	return RoleStaff, false
}

// Company is a tenant owning homes, staff and courses.
type Company struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Home is a residential home within a company.
type Home struct {
	ID        string    `db:"id" json:"id"`
	CompanyID string    `db:"company_id" json:"company_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StaffMember is a person on a company's staff roster. A nil HomeID marks
// bank staff floating across homes.
type StaffMember struct {
	ID        string    `db:"id" json:"id"`
	CompanyID string    `db:"company_id" json:"company_id"`
	HomeID    *string   `db:"home_id" json:"home_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HomeManager links a manager to a home they run. Managers may have no
// staff row and no training records at all; the roster must still carry them.
type HomeManager struct {
	HomeID   string `db:"home_id" json:"home_id"`
	PersonID string `db:"person_id" json:"person_id"`
}

// Profile carries the display name for a person. Absence is not an error;
// consumers fall back to a truncated identifier.
type Profile struct {
	PersonID string `db:"person_id" json:"person_id"`
	FullName string `db:"full_name" json:"full_name"`
}

package domain

// Role is a staff member's role. Super admins may lift organisation scoping.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleLoanOfficer Role = "loan_officer"
	RoleAccountant  Role = "accountant"
	RoleViewer      Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleLoanOfficer, RoleAccountant, RoleViewer:
		return true
	}
	return false
}

func (r Role) IsSuperAdmin() bool { return r == RoleSuperAdmin }

// RoleDefinition holds the permission set granted to a role. PK: role.
type RoleDefinition struct {
	Role        Role     `json:"role" dynamodbav:"role"`
	Name        string   `json:"name" dynamodbav:"name"`
	Enable      bool     `json:"enable" dynamodbav:"enable"`
	Permissions []string `json:"permissions,omitempty" dynamodbav:"permissions"`
}

type RoleInput struct {
	Name        string   `json:"name" validate:"required"`
	Enable      *bool    `json:"enable"`
	Permissions []string `json:"permissions"`
}

package domain

// MaxOpenLoans is the number of open loans a client may hold at once.
const MaxOpenLoans = 5

type UserRole string

const (
	UserRoleClient     UserRole = "CLIENT"
	UserRoleEmployee   UserRole = "EMPLOYEE"
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleSuperAdmin UserRole = "SUPERADMIN"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleClient, UserRoleEmployee, UserRoleAdmin, UserRoleSuperAdmin:
		return true
	}
	return false
}

// IsStaff reports employee-or-above capability.
func (r UserRole) IsStaff() bool {
	return r == UserRoleEmployee || r == UserRoleAdmin || r == UserRoleSuperAdmin
}

// IsAdmin reports admin-or-above capability.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin || r == UserRoleSuperAdmin
}

type ClientState string

const (
	ClientStateActive     ClientState = "ACTIVE"
	ClientStateRestricted ClientState = "RESTRICTED"
)

// User mirrors an identity-provider account locally. Client fields (State, Loans)
// are only meaningful for the CLIENT role.
type User struct {
	ID         int32       `json:"id"`
	ExternalID string      `json:"external_id"`
	Username   string      `json:"username"`
	Name       string      `json:"name"`
	LastName   string      `json:"last_name"`
	Rut        string      `json:"rut"`
	Phone      string      `json:"phone"`
	Email      string      `json:"email"`
	Role       UserRole    `json:"role"`
	State      ClientState `json:"state_client"`
	Loans      int32       `json:"loans"`
}

// IsRestricted reports whether the client is blocked from opening loans.
func (u *User) IsRestricted() bool {
	return u.State == ClientStateRestricted
}

// CanOpenLoan reports whether the open-loan counter leaves room for one more.
func (u *User) CanOpenLoan() bool {
	return u.Loans >= 0 && u.Loans < MaxOpenLoans
}

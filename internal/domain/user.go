package domain

import "time"

// UserRole enumerates platform operator roles.
type UserRole string

const (
	RoleEnterpriseAdmin UserRole = "ENTERPRISE_ADMIN"
	RoleDCAAgent        UserRole = "DCA_AGENT"
	RoleAnalyst         UserRole = "ANALYST"
)

// User is an operator of the platform: an enterprise administrator, a DCA
// agent working allocated cases, or a read-mostly analyst.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	DCAID        *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Role      UserRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}

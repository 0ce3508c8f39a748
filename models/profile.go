package models

import "time"

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleStaff      Role = "staff"
)

func (r Role) IsValid() bool {
	return r == RoleSuperadmin || r == RoleStaff
}

// Profile is an application user. Superadmins see everything, staff only
// what their campaign assignments and lead assignments grant.
type Profile struct {
	Base
	Email    string  `gorm:"uniqueIndex;not null" json:"email"`
	FullName *string `json:"full_name,omitempty"`
	Role     Role    `gorm:"type:varchar(20);not null" json:"role"`
}

// Account holds the login credentials for a profile.
type Account struct {
	ProfileID    string    `gorm:"type:varchar(36);primaryKey" json:"profile_id"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"-"`
}

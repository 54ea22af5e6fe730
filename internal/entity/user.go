package entity

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles the chat service knows about.
// Raw role strings from the users table are converted once via ParseRole
// and compared as Role values everywhere else.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMerchant Role = "merchant"
	RoleCustomer Role = "customer"
)

func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "merchant", "marchand":
		return RoleMerchant, nil
	case "customer", "client":
		return RoleCustomer, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Spellings returns every stored value ParseRole accepts for the role,
// for queries that filter on the raw column.
func (r Role) Spellings() []string {
	switch r {
	case RoleMerchant:
		return []string{"merchant", "marchand"}
	case RoleCustomer:
		return []string{"customer", "client"}
	default:
		return []string{string(r)}
	}
}

type User struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	Role      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// AccountRole converts the persisted role column into the closed variant.
func (u *User) AccountRole() (Role, error) {
	return ParseRole(u.Role)
}

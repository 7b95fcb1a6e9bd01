package models

import (
	"strings"

	"gorm.io/gorm"
)

const (
	RoleDietitian = "dietitian"
	RoleAdmin     = "admin"
	RolePatient   = "patient"
)

// User represents an account that can authenticate with the platform. Dietitians and
// admins manage patients and charts; patient accounts only read charts recorded
// against their email address.
type User struct {
	gorm.Model
	Email          string `gorm:"uniqueIndex;not null"`
	PasswordHash   string `gorm:"not null"`
	Name           string
	Role           string `gorm:"type:varchar(16);not null;default:dietitian"`
	Qualification  string
	Specialization string
	ContactNumber  string
}

// NormalizeRole maps unknown role values onto the dietitian role.
func NormalizeRole(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case RoleAdmin:
		return RoleAdmin
	case RolePatient:
		return RolePatient
	default:
		return RoleDietitian
	}
}

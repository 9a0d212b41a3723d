// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a portal user. Every user belongs to exactly one client
// organization; agency staff accounts use the agency's own org.
//
// Auth fields:
//   - LoginID: What the user types to identify themselves (stored lowercase)
//   - LoginIDCI: Case/diacritic-insensitive version for matching (folded)
//   - Email: Contact email (optional, stored lowercase)
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped

	// Authentication fields
	LoginID   *string `bson:"login_id" json:"login_id"`       // User identifier (lowercase)
	LoginIDCI *string `bson:"login_id_ci" json:"login_id_ci"` // Folded for case/diacritic-insensitive matching
	Email     *string `bson:"email" json:"email"`             // Contact email (lowercase, optional)

	// Password auth fields
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"` // bcrypt hash (never in JSON)
	PasswordTemp *bool   `bson:"password_temp,omitempty" json:"-"` // true if must change on next login

	// Organization membership
	OrgID primitive.ObjectID `bson:"org_id" json:"org_id"`

	// Role and status
	Role   string `bson:"role" json:"role"`                         // admin, analyst
	Status string `bson:"status,omitempty" json:"status,omitempty"` // active, disabled

	// User preferences
	ThemePreference string `bson:"theme_preference,omitempty" json:"theme_preference,omitempty"` // light, dark, system (empty = system)

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// User roles.
//
// Admins are agency staff: they see unmasked donor PII and manage users.
// Analysts are client-side users: donor PII is masked for them.
const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{
		RoleAdmin,
		RoleAnalyst,
	}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// CanViewPII reports whether a role may see unmasked donor PII.
// Only agency admins see raw donor records; everyone else gets the
// masked view.
func CanViewPII(role string) bool {
	return role == RoleAdmin
}

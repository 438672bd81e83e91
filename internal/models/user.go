package models

import "time"

type UserRole string

const (
	UserRoleAuthor     UserRole = "author"
	UserRoleEditor     UserRole = "editor"
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "superadmin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type Capability string

const (
	CapEditModels       Capability = "edit_models"
	CapEditOthersModels Capability = "edit_others_models"
	CapManageOptions    Capability = "manage_options"
)

var roleCapabilities = map[UserRole][]Capability{
	UserRoleAuthor:     {CapEditModels},
	UserRoleEditor:     {CapEditModels, CapEditOthersModels},
	UserRoleAdmin:      {CapEditModels, CapEditOthersModels, CapManageOptions},
	UserRoleSuperAdmin: {CapEditModels, CapEditOthersModels, CapManageOptions},
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := roleCapabilities[UserRole(role)]
	return ok
}

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) Can(capability Capability) bool {
	if u.Status != UserStatusActive {
		return false
	}
	for _, granted := range roleCapabilities[u.Role] {
		if granted == capability {
			return true
		}
	}
	return false
}

// CanEditItem applies the per-item edit rule: authors edit their own items,
// editors and above edit any item.
func (u User) CanEditItem(item ModelItem) bool {
	if !u.Can(CapEditModels) {
		return false
	}
	if item.AuthorID == u.ID {
		return true
	}
	return u.Can(CapEditOthersModels)
}

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	UserStatusActive    = "Active"
	UserStatusSuspended = "Suspended"

	RoleCustomer = "customer"
)

// ParseUserStatus accepts Active or Suspended in any casing.
func ParseUserStatus(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return UserStatusActive, nil
	case "suspended":
		return UserStatusSuspended, nil
	}
	return "", fmt.Errorf("unknown user status %q", s)
}

type User struct {
	ID            int64     `json:"user_id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	ContactNumber string    `json:"contact_number"`
	Address       string    `json:"address"`
	Roles         string    `json:"roles"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	PasswordHash  string    `json:"-"`
}

// NewUser is an account created from the admin panel.
type NewUser struct {
	FirstName     string
	LastName      string
	Username      string
	Email         string
	ContactNumber string
	Address       string
	Password      string
}

func (u NewUser) Validate() error {
	if strings.TrimSpace(u.FirstName) == "" || strings.TrimSpace(u.LastName) == "" ||
		strings.TrimSpace(u.Username) == "" || strings.TrimSpace(u.Email) == "" || u.Password == "" {
		return errors.New("First name, last name, username, email, and password are required.")
	}
	if !ValidEmail(u.Email) {
		return errors.New("Invalid email format.")
	}
	if len(u.Password) < 8 {
		return errors.New("Password must be at least 8 characters long.")
	}
	return nil
}

// ValidEmail reports whether s is a well-formed address.
func ValidEmail(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,email") == nil
}

const minPasswordLength = 8

// profileFields are the columns a customer may edit on their own account.
var profileFields = map[string]bool{
	"firstName":      true,
	"lastName":       true,
	"username":       true,
	"email":          true,
	"contact_number": true,
	"address":        true,
}

// ProfileChange is a single-field edit sent by the mobile app.
type ProfileChange struct {
	Field string
	Value string
}

func (p ProfileChange) Validate() error {
	if !profileFields[p.Field] {
		return errors.New("Invalid field name")
	}
	if p.Field == "email" && !ValidEmail(p.Value) {
		return errors.New("Invalid email format.")
	}
	return nil
}

// ValidateNewPassword applies the account password policy.
func ValidateNewPassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("New password must be at least %d characters", minPasswordLength)
	}
	return nil
}

const (
	RoleAdministrator = "Administrator"
	RoleModerator     = "Moderator"
	RoleEditor        = "Editor"
)

// ParseAdminRole accepts the admin roles in any casing; empty means Administrator.
func ParseAdminRole(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "administrator":
		return RoleAdministrator, nil
	case "moderator":
		return RoleModerator, nil
	case "editor":
		return RoleEditor, nil
	}
	return "", fmt.Errorf("unknown admin role %q", s)
}

type Admin struct {
	ID           int64      `json:"admin_id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
	PasswordHash string     `json:"-"`
}

// NewAdmin is an admin account created from the panel or the CLI.
type NewAdmin struct {
	FullName string
	Email    string
	Password string
	Role     string
}

func (a NewAdmin) Validate() error {
	if strings.TrimSpace(a.FullName) == "" || strings.TrimSpace(a.Email) == "" || a.Password == "" {
		return errors.New("Full name, email, and password are required fields.")
	}
	if !ValidEmail(a.Email) {
		return errors.New("Invalid email format.")
	}
	if len(a.Password) < minPasswordLength {
		return errors.New("Password must be at least 8 characters long.")
	}
	if _, err := ParseAdminRole(a.Role); err != nil {
		return errors.New("Role must be Administrator, Moderator, or Editor.")
	}
	return nil
}

// AdminUpdate carries only the profile fields an admin actually sent.
type AdminUpdate struct {
	FullName *string
	Email    *string
	Role     *string
	Password *string
}

func (u AdminUpdate) Validate() error {
	if u.FullName == nil && u.Email == nil && u.Role == nil && u.Password == nil {
		return errors.New("No fields to update.")
	}
	if u.FullName != nil && strings.TrimSpace(*u.FullName) == "" {
		return errors.New("Full name cannot be empty.")
	}
	if u.Email != nil && !ValidEmail(*u.Email) {
		return errors.New("Invalid email format.")
	}
	if u.Role != nil {
		if _, err := ParseAdminRole(*u.Role); err != nil {
			return errors.New("Role must be Administrator, Moderator, or Editor.")
		}
	}
	if u.Password != nil && len(*u.Password) < minPasswordLength {
		return errors.New("New password must be at least 8 characters.")
	}
	return nil
}

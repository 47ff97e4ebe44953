package controllers

import (
	"context"
	"errors"
	"strings"

	"hiryo-backoffice/models"
	"hiryo-backoffice/store"

	"github.com/gin-gonic/gin"
)

type UserStore interface {
	AllUsers(ctx context.Context) ([]models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	AddUser(ctx context.Context, nu models.NewUser) (int64, error)
	UpdateUserStatus(ctx context.Context, id int64, status string) error
	AuthenticateUser(ctx context.Context, login, password string) (*models.User, error)
	UpdateProfileField(ctx context.Context, userID int64, change models.ProfileChange) error
	ChangeUserPassword(ctx context.Context, userID int64, newPassword string) error
}

type UserController struct {
	store UserStore
	stats StatsInvalidator
}

func NewUserController(s UserStore, stats StatsInvalidator) *UserController {
	return &UserController{store: s, stats: stats}
}

// Handle serves /api/users.
func (uc *UserController) Handle() gin.HandlerFunc {
	return dispatch(map[string]action{
		"get_all_users":       admin(uc.GetAllUsers),
		"get_users_for_admin": admin(uc.GetAllUsers),
		"get_user_details":    admin(uc.GetUserDetails),
		"add_user":            admin(uc.AddUser),
		"update_user_status":  admin(uc.UpdateUserStatus),
		"login":               public(uc.Login),
		"update_profile":      public(uc.UpdateProfile),
		"change_password":     public(uc.ChangePassword),
	})
}

func (uc *UserController) GetAllUsers(c *gin.Context) {
	users, err := uc.store.AllUsers(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to list users", err)
		return
	}
	ok(c, gin.H{"users": nonNil(users)})
}

func (uc *UserController) GetUserDetails(c *gin.Context) {
	id, found := idParam(c, "user_id")
	if !found {
		invalid(c, "User ID is required")
		return
	}
	u, err := uc.store.UserByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrUserNotFound) {
		invalid(c, "User not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to get user", err)
		return
	}
	ok(c, gin.H{"user": u})
}

func (uc *UserController) AddUser(c *gin.Context) {
	nu := models.NewUser{
		FirstName:     param(c, "firstName"),
		LastName:      param(c, "lastName"),
		Username:      param(c, "username"),
		Email:         param(c, "email"),
		ContactNumber: param(c, "contact_number"),
		Address:       param(c, "address"),
		Password:      param(c, "password"),
	}
	if err := nu.Validate(); err != nil {
		invalid(c, err.Error())
		return
	}

	id, err := uc.store.AddUser(c.Request.Context(), nu)
	if errors.Is(err, store.ErrDuplicateUser) {
		invalid(c, "Username or email is already taken.")
		return
	}
	if err != nil {
		serverError(c, "Failed to add user", err)
		return
	}
	invalidateStats(c, uc.stats)
	ok(c, gin.H{
		"message": "User added successfully.",
		"user": gin.H{
			"user_id":   id,
			"firstName": nu.FirstName,
			"lastName":  nu.LastName,
			"username":  nu.Username,
			"email":     nu.Email,
			"roles":     models.RoleCustomer,
			"status":    models.UserStatusActive,
		},
	})
}

func (uc *UserController) UpdateUserStatus(c *gin.Context) {
	id, found := idParam(c, "user_id")
	if !found {
		invalid(c, "User ID is required")
		return
	}
	status, err := models.ParseUserStatus(param(c, "status"))
	if err != nil {
		invalid(c, "Status must be Active or Suspended")
		return
	}
	err = uc.store.UpdateUserStatus(c.Request.Context(), id, status)
	if errors.Is(err, store.ErrUserNotFound) {
		invalid(c, "User not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to update user status", err)
		return
	}
	invalidateStats(c, uc.stats)
	ok(c, gin.H{"message": "User status updated to " + status + "."})
}

// Login authenticates a mobile customer by username or email.
func (uc *UserController) Login(c *gin.Context) {
	login, password := param(c, "username"), param(c, "password")
	if login == "" {
		login = param(c, "email")
	}
	if login == "" || password == "" {
		invalid(c, "Please enter both username and password.")
		return
	}

	u, err := uc.store.AuthenticateUser(c.Request.Context(), login, password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		invalid(c, "Login failed. Invalid username or password.")
	case errors.Is(err, store.ErrAccountSuspended):
		invalid(c, "Your account has been suspended. Please contact support.")
	case err != nil:
		serverError(c, "Failed to authenticate user", err)
	default:
		ok(c, gin.H{"message": "Login successful!", "user": u})
	}
}

// credentials re-authenticates a mobile customer for a self-service change
// and writes the failure response itself.
func (uc *UserController) credentials(c *gin.Context, password, rejected string) (*models.User, bool) {
	u, err := uc.store.AuthenticateUser(c.Request.Context(), param(c, "username"), password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		invalid(c, rejected)
		return nil, false
	case errors.Is(err, store.ErrAccountSuspended):
		invalid(c, "Your account has been suspended. Please contact support.")
		return nil, false
	case err != nil:
		serverError(c, "Failed to authenticate user", err)
		return nil, false
	}
	return u, true
}

// UpdateProfile changes one field of the customer's own profile.
func (uc *UserController) UpdateProfile(c *gin.Context) {
	change := models.ProfileChange{Field: param(c, "field"), Value: param(c, "value")}
	if param(c, "username") == "" || param(c, "password") == "" || change.Field == "" || change.Value == "" {
		invalid(c, "Missing required fields")
		return
	}
	if err := change.Validate(); err != nil {
		invalid(c, err.Error())
		return
	}
	u, found := uc.credentials(c, param(c, "password"), "Invalid credentials")
	if !found {
		return
	}

	err := uc.store.UpdateProfileField(c.Request.Context(), u.ID, change)
	switch {
	case errors.Is(err, store.ErrDuplicateUser):
		invalid(c, "Username or email is already taken.")
	case errors.Is(err, store.ErrUserNotFound):
		invalid(c, "User not found")
	case err != nil:
		serverError(c, "Failed to update profile", err)
	default:
		ok(c, gin.H{"message": strings.ToUpper(change.Field[:1]) + change.Field[1:] + " updated successfully"})
	}
}

func (uc *UserController) ChangePassword(c *gin.Context) {
	current, next := param(c, "currentPassword"), param(c, "newPassword")
	if param(c, "username") == "" || current == "" || next == "" {
		invalid(c, "Missing required fields")
		return
	}
	if err := models.ValidateNewPassword(next); err != nil {
		invalid(c, err.Error())
		return
	}
	u, found := uc.credentials(c, current, "Invalid current password")
	if !found {
		return
	}

	err := uc.store.ChangeUserPassword(c.Request.Context(), u.ID, next)
	if errors.Is(err, store.ErrUserNotFound) {
		invalid(c, "User not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to change password", err)
		return
	}
	ok(c, gin.H{"message": "Password changed successfully"})
}

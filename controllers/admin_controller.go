package controllers

import (
	"context"
	"errors"
	"time"

	"hiryo-backoffice/middlewares"
	"hiryo-backoffice/models"
	"hiryo-backoffice/store"
	"hiryo-backoffice/utils"

	"github.com/gin-gonic/gin"
)

type AdminStore interface {
	AuthenticateAdmin(ctx context.Context, email, password string) (*models.Admin, error)
	AdminByID(ctx context.Context, id int64) (*models.Admin, error)
	AllAdmins(ctx context.Context) ([]models.Admin, error)
	AddAdmin(ctx context.Context, na models.NewAdmin) (int64, error)
	UpdateAdminStatus(ctx context.Context, id int64, status string) error
	UpdateAdminProfile(ctx context.Context, id int64, u models.AdminUpdate) error
}

type AdminController struct {
	store  AdminStore
	secret string
	ttl    time.Duration
}

func NewAdminController(s AdminStore, secret string, ttl time.Duration) *AdminController {
	return &AdminController{store: s, secret: secret, ttl: ttl}
}

// Handle serves /api/admin. Account management is only open to a signed-in
// admin; the first account is created with hiryoctl add-admin.
func (ac *AdminController) Handle() gin.HandlerFunc {
	return dispatch(map[string]action{
		"login":                public(ac.Login),
		"admin_login":          public(ac.Login),
		"profile":              admin(ac.Profile),
		"get_admin_profile":    admin(ac.Profile),
		"update_admin_profile": admin(ac.UpdateProfile),
		"get_all_admins":       admin(ac.GetAllAdmins),
		"add_admin":            admin(ac.AddAdmin),
		"admin_register":       admin(ac.AddAdmin),
		"update_admin_status":  admin(ac.UpdateStatus),
		"delete_admin":         admin(ac.Delete),
	})
}

// Login exchanges admin credentials for a bearer token.
func (ac *AdminController) Login(c *gin.Context) {
	email, password := param(c, "email"), param(c, "password")
	if email == "" || password == "" {
		invalid(c, "Please enter both email and password.")
		return
	}

	a, err := ac.store.AuthenticateAdmin(c.Request.Context(), email, password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		invalid(c, "Login failed. Invalid email or password.")
		return
	case errors.Is(err, store.ErrAccountSuspended):
		invalid(c, "This admin account is not active.")
		return
	case err != nil:
		serverError(c, "Failed to authenticate admin", err)
		return
	}

	token, expiresAt, err := utils.GenerateToken(ac.secret, ac.ttl, a.ID, a.Email, a.Role)
	if err != nil {
		serverError(c, "Failed to issue admin token", err)
		return
	}
	ok(c, gin.H{
		"message":    "Login successful!",
		"token":      token,
		"expires_at": expiresAt,
		"admin":      a,
	})
}

// targetAdmin reads admin_id, defaulting to the caller's own account.
func targetAdmin(c *gin.Context) (int64, bool) {
	if hasParam(c, "admin_id") {
		return idParam(c, "admin_id")
	}
	claims, err := middlewares.GetAdminClaims(c)
	if err != nil {
		return 0, false
	}
	return claims.AdminID, true
}

func (ac *AdminController) Profile(c *gin.Context) {
	id, found := targetAdmin(c)
	if !found {
		invalid(c, "Admin ID is required.")
		return
	}
	a, err := ac.store.AdminByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrUserNotFound) {
		invalid(c, "Admin not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to load admin profile", err)
		return
	}
	ok(c, gin.H{"admin": a})
}

func (ac *AdminController) UpdateProfile(c *gin.Context) {
	id, found := targetAdmin(c)
	if !found {
		invalid(c, "Admin ID is required.")
		return
	}
	u := models.AdminUpdate{
		FullName: nonEmpty(c, "full_name"),
		Email:    nonEmpty(c, "email"),
		Role:     nonEmpty(c, "role"),
		Password: nonEmpty(c, "password"),
	}
	if err := u.Validate(); err != nil {
		invalid(c, err.Error())
		return
	}

	err := ac.store.UpdateAdminProfile(c.Request.Context(), id, u)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		invalid(c, "Admin not found")
	case errors.Is(err, store.ErrDuplicateUser):
		invalid(c, "An admin account with this email already exists.")
	case err != nil:
		serverError(c, "Failed to update admin profile", err)
	default:
		ok(c, gin.H{"message": "Profile updated successfully!"})
	}
}

func (ac *AdminController) GetAllAdmins(c *gin.Context) {
	admins, err := ac.store.AllAdmins(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to list admins", err)
		return
	}
	ok(c, gin.H{"admins": nonNil(admins)})
}

// AddAdmin creates an admin. The panel's add form sends the display name
// as username; the register form sends full_name.
func (ac *AdminController) AddAdmin(c *gin.Context) {
	na := models.NewAdmin{
		FullName: param(c, "full_name"),
		Email:    param(c, "email"),
		Password: param(c, "password"),
		Role:     param(c, "role"),
	}
	if na.FullName == "" {
		na.FullName = param(c, "username")
	}
	if err := na.Validate(); err != nil {
		invalid(c, err.Error())
		return
	}

	id, err := ac.store.AddAdmin(c.Request.Context(), na)
	if errors.Is(err, store.ErrDuplicateUser) {
		invalid(c, "An admin account with this email already exists.")
		return
	}
	if err != nil {
		serverError(c, "Failed to create admin", err)
		return
	}
	ok(c, gin.H{"message": "Admin account created successfully!", "admin_id": id})
}

func (ac *AdminController) UpdateStatus(c *gin.Context) {
	id, found := idParam(c, "admin_id")
	status, err := models.ParseUserStatus(param(c, "status"))
	if !found || err != nil {
		invalid(c, "Invalid admin ID or status provided.")
		return
	}
	ac.setStatus(c, id, status, "Admin status updated successfully!")
}

// Delete deactivates an admin; accounts are kept for the audit trail.
func (ac *AdminController) Delete(c *gin.Context) {
	id, found := idParam(c, "admin_id")
	if !found {
		invalid(c, "Admin ID is required.")
		return
	}
	ac.setStatus(c, id, models.UserStatusSuspended, "Admin account deactivated successfully!")
}

func (ac *AdminController) setStatus(c *gin.Context, id int64, status, message string) {
	if claims, err := middlewares.GetAdminClaims(c); err == nil &&
		claims.AdminID == id && status != models.UserStatusActive {
		invalid(c, "You cannot deactivate your own account.")
		return
	}
	err := ac.store.UpdateAdminStatus(c.Request.Context(), id, status)
	if errors.Is(err, store.ErrUserNotFound) {
		invalid(c, "Admin not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to update admin status", err)
		return
	}
	ok(c, gin.H{"message": message})
}

// nonEmpty returns nil for a missing or blank field.
func nonEmpty(c *gin.Context, key string) *string {
	v := param(c, key)
	if v == "" {
		return nil
	}
	return &v
}

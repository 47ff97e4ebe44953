package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hiryo-backoffice/database"
	"hiryo-backoffice/models"
	"hiryo-backoffice/utils"
)

const userColumns = `
	user_id, COALESCE(firstName, ''), COALESCE(lastName, ''), username, email,
	COALESCE(contact_number, ''), COALESCE(address, ''), roles, status, created_at`

const userSelect = `SELECT ` + userColumns + ` FROM users`

func scanUser(sc scanner, extra ...any) (*models.User, error) {
	var u models.User
	dest := append([]any{&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email,
		&u.ContactNumber, &u.Address, &u.Roles, &u.Status, &u.CreatedAt}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) AllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.DB.QueryContext(ctx, userSelect+` ORDER BY created_at DESC, user_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, userSelect+` WHERE user_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// AddUser registers a customer account with a bcrypt password hash.
func (s *Store) AddUser(ctx context.Context, nu models.NewUser) (int64, error) {
	if err := nu.Validate(); err != nil {
		return 0, err
	}
	username := strings.TrimSpace(nu.Username)
	email := strings.TrimSpace(nu.Email)

	var existing int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT user_id FROM users WHERE username = ? OR email = ? LIMIT 1`, username, email).Scan(&existing)
	if err == nil {
		return 0, ErrDuplicateUser
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := utils.HashPassword(nu.Password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (firstName, lastName, username, email, contact_number, address, password, roles, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		strings.TrimSpace(nu.FirstName), strings.TrimSpace(nu.LastName), username, email,
		nu.ContactNumber, nu.Address, hash, models.RoleCustomer, models.UserStatusActive)
	if database.IsMySQLError(err, database.ErrDuplicateEntry) {
		return 0, ErrDuplicateUser
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) UpdateUserStatus(ctx context.Context, id int64, status string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET status = ? WHERE user_id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update status of user %d: %w", id, err)
	}
	return expectOne(res, ErrUserNotFound)
}

// AuthenticateUser checks a customer's username or email against the stored hash.
func (s *Store) AuthenticateUser(ctx context.Context, login, password string) (*models.User, error) {
	var hash string
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password FROM users WHERE username = ? OR email = ? LIMIT 1`,
		login, login), &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !utils.CheckPassword(hash, password) {
		return nil, ErrInvalidCredentials
	}
	if u.Status == models.UserStatusSuspended {
		return nil, ErrAccountSuspended
	}
	return u, nil
}

// UpdateProfileField applies one self-service profile edit.
func (s *Store) UpdateProfileField(ctx context.Context, userID int64, change models.ProfileChange) error {
	if err := change.Validate(); err != nil {
		return err
	}
	// The column name comes from the whitelist checked by Validate.
	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET `+change.Field+` = ? WHERE user_id = ?`, strings.TrimSpace(change.Value), userID)
	if database.IsMySQLError(err, database.ErrDuplicateEntry) {
		return ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("update %s of user %d: %w", change.Field, userID, err)
	}
	return expectOne(res, ErrUserNotFound)
}

func (s *Store) ChangeUserPassword(ctx context.Context, userID int64, newPassword string) error {
	if err := models.ValidateNewPassword(newPassword); err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET password = ? WHERE user_id = ?`, hash, userID)
	if err != nil {
		return fmt.Errorf("change password of user %d: %w", userID, err)
	}
	return expectOne(res, ErrUserNotFound)
}

const adminColumns = `admin_id, full_name, email, role, status, created_at, last_login`

const adminSelect = `SELECT ` + adminColumns + ` FROM admins`

func scanAdmin(sc scanner, extra ...any) (*models.Admin, error) {
	var a models.Admin
	dest := append([]any{&a.ID, &a.FullName, &a.Email, &a.Role, &a.Status, &a.CreatedAt, &a.LastLogin}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	return &a, nil
}

// AuthenticateAdmin verifies an admin login and stamps last_login.
func (s *Store) AuthenticateAdmin(ctx context.Context, email, password string) (*models.Admin, error) {
	var hash string
	a, err := scanAdmin(s.DB.QueryRowContext(ctx,
		`SELECT `+adminColumns+`, password_hash FROM admins WHERE email = ?`, strings.TrimSpace(email)), &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up admin: %w", err)
	}
	if !utils.CheckPassword(hash, password) {
		return nil, ErrInvalidCredentials
	}
	if a.Status != models.UserStatusActive {
		return nil, ErrAccountSuspended
	}
	if _, err := s.DB.ExecContext(ctx, `UPDATE admins SET last_login = NOW() WHERE admin_id = ?`, a.ID); err != nil {
		return nil, fmt.Errorf("record admin login: %w", err)
	}
	return a, nil
}

func (s *Store) AdminByID(ctx context.Context, id int64) (*models.Admin, error) {
	a, err := scanAdmin(s.DB.QueryRowContext(ctx, adminSelect+` WHERE admin_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin %d: %w", id, err)
	}
	return a, nil
}

func (s *Store) AllAdmins(ctx context.Context) ([]models.Admin, error) {
	rows, err := s.DB.QueryContext(ctx, adminSelect+` ORDER BY created_at DESC, admin_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	out := []models.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// AddAdmin creates an active admin account.
func (s *Store) AddAdmin(ctx context.Context, na models.NewAdmin) (int64, error) {
	if err := na.Validate(); err != nil {
		return 0, err
	}
	role, _ := models.ParseAdminRole(na.Role)
	hash, err := utils.HashPassword(na.Password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO admins (full_name, email, password_hash, role, status, created_at)
		VALUES (?, ?, ?, ?, 'Active', NOW())`,
		strings.TrimSpace(na.FullName), strings.TrimSpace(na.Email), hash, role)
	if database.IsMySQLError(err, database.ErrDuplicateEntry) {
		return 0, ErrDuplicateUser
	}
	if err != nil {
		return 0, fmt.Errorf("insert admin: %w", err)
	}
	return res.LastInsertId()
}

// UpdateAdminStatus activates or suspends an admin. Admins are never
// removed, so deleting one is a suspension.
func (s *Store) UpdateAdminStatus(ctx context.Context, id int64, status string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE admins SET status = ?, updated_at = NOW() WHERE admin_id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update status of admin %d: %w", id, err)
	}
	return expectOne(res, ErrUserNotFound)
}

// UpdateAdminProfile writes the fields present in u.
func (s *Store) UpdateAdminProfile(ctx context.Context, id int64, u models.AdminUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	var (
		sets []string
		args []any
	)
	if u.FullName != nil {
		sets, args = append(sets, "full_name = ?"), append(args, strings.TrimSpace(*u.FullName))
	}
	if u.Email != nil {
		sets, args = append(sets, "email = ?"), append(args, strings.TrimSpace(*u.Email))
	}
	if u.Role != nil {
		role, _ := models.ParseAdminRole(*u.Role)
		sets, args = append(sets, "role = ?"), append(args, role)
	}
	if u.Password != nil {
		hash, err := utils.HashPassword(*u.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		sets, args = append(sets, "password_hash = ?"), append(args, hash)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	res, err := s.DB.ExecContext(ctx,
		`UPDATE admins SET `+strings.Join(sets, ", ")+` WHERE admin_id = ?`, args...)
	if database.IsMySQLError(err, database.ErrDuplicateEntry) {
		return ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("update admin %d: %w", id, err)
	}
	return expectOne(res, ErrUserNotFound)
}

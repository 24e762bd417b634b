package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/repositories"
	"github.com/cppla/idportal/utils"
)

// CreateAdminInput is the payload for a new admin account.
type CreateAdminInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// AdminIdentity is what a verified credential resolves to.
type AdminIdentity struct {
	ID       uint
	Username string
	Email    string
	Role     string
}

// AdminService manages the admin roster and admin credentials.
type AdminService struct {
	admins repositories.AdminRepository
}

func NewAdminService(admins repositories.AdminRepository) *AdminService {
	return &AdminService{admins: admins}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Create registers a new admin. Username and email must both be unused.
func (s *AdminService) Create(ctx context.Context, in CreateAdminInput) (*models.Admin, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = models.DefaultAdminRole
	}
	if n := len(username); n < 3 || n > 64 {
		return nil, fmt.Errorf("%w: username must be 3-64 characters", ErrInvalidArgument)
	}
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidArgument)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidArgument)
	}

	exists, err := s.admins.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check admin uniqueness: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username or email already exists", ErrConflict)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	admin := &models.Admin{Username: username, Email: email, PasswordHash: hash, Role: role}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username or email already exists", ErrConflict)
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	utils.Sugar.Infow("admin created", "admin_id", admin.ID, "username", admin.Username)
	return admin, nil
}

// List returns every admin, newest first. Hashes never leave the model's JSON.
func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// Get returns one admin.
func (s *AdminService) Get(ctx context.Context, id uint) (*models.Admin, error) {
	admin, err := s.admins.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: admin not found", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return admin, nil
}

// Exists reports whether admin id is still on the roster. Tokens outlive deleted admins,
// so the admin guard asks on every request.
func (s *AdminService) Exists(ctx context.Context, id uint) (bool, error) {
	_, err := s.admins.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find admin: %w", err)
	}
	return true, nil
}

// Delete removes admin id on behalf of actingID. An admin cannot delete itself.
func (s *AdminService) Delete(ctx context.Context, actingID, id uint) error {
	if id == actingID {
		return fmt.Errorf("%w: you cannot delete your own account", ErrInvalidArgument)
	}
	err := s.admins.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: admin not found", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	utils.Sugar.Infow("admin deleted", "admin_id", id, "by", actingID)
	return nil
}

// VerifyCredential checks a username and password. Unknown users and wrong
// passwords yield the same ErrUnauthorized.
func (s *AdminService) VerifyCredential(ctx context.Context, username, password string) (*AdminIdentity, error) {
	admin, err := s.admins.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if !utils.CheckPassword(admin.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	return &AdminIdentity{ID: admin.ID, Username: admin.Username, Email: admin.Email, Role: admin.Role}, nil
}

// EnsureBootstrap creates the first admin when the roster is empty and credentials are configured.
func (s *AdminService) EnsureBootstrap(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}
	n, err := s.admins.Count(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.Create(ctx, CreateAdminInput{Username: username, Email: email, Password: password}); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	utils.Sugar.Infow("bootstrap admin created", "username", username)
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/rbac"
)

// UserStore manages dashboard accounts.
type UserStore interface {
	ListUsers(ctx context.Context, scope rbac.Scope) ([]model.User, error)
	GetUser(ctx context.Context, scope rbac.Scope, id uint) (*model.User, error)
	CreateUser(ctx context.Context, scope rbac.Scope, in UserInput) (*model.User, error)
	UpdateUser(ctx context.Context, scope rbac.Scope, id uint, apply func(*UserInput) error) (*model.User, error)
	DeleteUser(ctx context.Context, scope rbac.Scope, id uint) error

	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	ActiveUser(ctx context.Context, id uint) (*model.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// UserInput creates or replaces an account. An empty Password keeps the current one.
type UserInput struct {
	Username          string     `json:"username" binding:"required"`
	Name              string     `json:"name"`
	Password          string     `json:"password"`
	Role              model.Role `json:"role" binding:"required"`
	AssignedProjectID *uint      `json:"assignedProjectId"`
	IsActive          *bool      `json:"isActive"`
}

func (in *UserInput) validate(creating bool) error {
	v := violations{}
	v.required("username", in.Username)
	if !in.Role.Valid() {
		v.add("role", "must be one of super_admin, admin, site_manager")
	}
	if creating && in.Password == "" {
		v.add("password", "is required")
	}
	if in.Role == model.RoleSiteManager && (in.AssignedProjectID == nil || *in.AssignedProjectID == 0) {
		v.add("assignedProjectId", "is required for site managers")
	}
	return v.err()
}

func uniqueUsername(tx *gorm.DB, username string, exceptID uint) error {
	var count int64
	q := tx.Model(&model.User{}).Where("LOWER(username) = ?", toLower(username))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return apperr.Conflict("username %q is taken", trimmed(username))
	}
	return nil
}

// applyUser validates in and copies it onto u, hashing a new password when given.
func applyUser(tx *gorm.DB, u *model.User, in UserInput) error {
	if in.Role != model.RoleSiteManager {
		in.AssignedProjectID = nil
	}
	if in.AssignedProjectID != nil {
		if err := requireProject(tx, rbac.Unrestricted(), *in.AssignedProjectID); err != nil {
			return err
		}
	}
	if err := uniqueUsername(tx, in.Username, u.ID); err != nil {
		return err
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	u.Username = trimmed(in.Username)
	u.Name = in.Name
	u.Role = in.Role
	u.AssignedProjectID = in.AssignedProjectID
	u.IsActive = boolOr(in.IsActive, u.IsActive)
	return nil
}

func (s *gormStore) ListUsers(ctx context.Context, _ rbac.Scope) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *gormStore) GetUser(ctx context.Context, _ rbac.Scope, id uint) (*model.User, error) {
	var u model.User
	if err := first(s.db.WithContext(ctx), &u, id, "user", false); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) CreateUser(ctx context.Context, _ rbac.Scope, in UserInput) (*model.User, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	u := model.User{IsActive: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyUser(tx, &u, in); err != nil {
			return err
		}
		if err := tx.Create(&u).Error; err != nil {
			return notFound(err, "user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) UpdateUser(ctx context.Context, _ rbac.Scope, id uint, apply func(*UserInput) error) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &u, id, "user", true); err != nil {
			return err
		}
		active := u.IsActive
		in := UserInput{
			Username: u.Username, Name: u.Name, Role: u.Role,
			AssignedProjectID: u.AssignedProjectID, IsActive: &active,
		}
		if err := apply(&in); err != nil {
			return err
		}
		if err := in.validate(false); err != nil {
			return err
		}
		if err := applyUser(tx, &u, in); err != nil {
			return err
		}
		return tx.Save(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) DeleteUser(ctx context.Context, _ rbac.Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := first(tx, &u, id, "user", true); err != nil {
			return err
		}
		endpoints := tx.Model(&model.PushSubscription{}).Select("endpoint").Where("user_id = ?", id)
		if err := tx.Exec("DELETE FROM subscription_projects WHERE push_subscription_endpoint IN (?)", endpoints).Error; err != nil {
			return fmt.Errorf("delete subscribed projects of user %d: %w", id, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("delete subscriptions of user %d: %w", id, err)
		}
		return tx.Delete(&u).Error
	})
}

// Authenticate returns the active user matching the credentials.
func (s *gormStore) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("LOWER(username) = ?", toLower(username)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("account is disabled")
	}
	return &u, nil
}

func (s *gormStore) ActiveUser(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("account no longer exists")
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("account is disabled")
	}
	return &u, nil
}

func (s *gormStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"faculty-appraisal-api/models"

	"gorm.io/gorm"
)

type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, now: time.Now}
}

// ResolvePrincipal reloads the caller from the store so role changes apply on the next request.
func (s *UserService) ResolvePrincipal(ctx context.Context, userID int) (Principal, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Principal{}, notFound("user not found")
	}
	if err != nil {
		return Principal{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	return PrincipalFromUser(&user), nil
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role       models.Role
	Department string
}

// ListUsers is available to administrators only.
func (s *UserService) ListUsers(ctx context.Context, p Principal, f UserFilter) ([]models.User, error) {
	if !p.valid() || p.Role != models.RoleAdmin {
		return nil, forbidden("only administrators may list users")
	}

	query := s.db.WithContext(ctx).Where("delete_at IS NULL")
	if f.Role != "" {
		if !f.Role.IsValid() {
			return nil, validationError("unknown role %q", f.Role)
		}
		query = query.Where("role = ?", string(f.Role))
	}
	if department := strings.TrimSpace(f.Department); department != "" {
		query = query.Where("department = ?", department)
	}

	var users []models.User
	if err := query.Order("name ASC, user_id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ChangeRole promotes a faculty member to HOD or demotes an HOD to faculty.
// The admin role can neither be granted nor taken away here.
func (s *UserService) ChangeRole(ctx context.Context, p Principal, userID int, role models.Role) (*models.User, error) {
	if !p.valid() || p.Role != models.RoleAdmin {
		return nil, forbidden("only administrators may change user roles")
	}
	if role != models.RoleFaculty && role != models.RoleHOD {
		return nil, &Error{
			Kind:    ErrValidation,
			Message: "role can only be changed between faculty and hod",
			Fields:  Violations{"role": "invalid"},
		}
	}

	var updated models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user not found")
			}
			return fmt.Errorf("load user %d: %w", userID, err)
		}

		if user.Role == models.RoleAdmin {
			return forbidden("administrator accounts cannot be demoted")
		}
		if strings.TrimSpace(user.DepartmentName()) == "" {
			return &Error{
				Kind:    ErrValidation,
				Message: "the user must belong to a department before their role can change",
				Fields:  Violations{"department": "required"},
			}
		}
		if user.Role == role {
			updated = user
			return nil
		}

		now := s.now()
		res := tx.Model(&models.User{}).
			Where("user_id = ? AND role = ?", user.UserID, string(user.Role)).
			Updates(map[string]interface{}{"role": string(role), "update_at": now})
		if res.Error != nil {
			return fmt.Errorf("update user role: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidState("the role of %s changed while you were editing it", user.Name)
		}

		meta := requestMetaFrom(ctx)
		entityID := user.UserID
		values, err := json.Marshal(map[string]interface{}{"old_role": user.Role, "role": role})
		if err != nil {
			return fmt.Errorf("encode audit values: %w", err)
		}
		audit := models.AuditLog{
			UserID:      p.UserID,
			Action:      "update",
			EntityType:  "user",
			EntityID:    &entityID,
			NewValues:   ptr(string(values)),
			Description: ptr(fmt.Sprintf("Role changed from %s to %s", user.Role, role)),
			IPAddress:   meta.IPAddress,
			UserAgent:   ptr(strings.TrimSpace(meta.UserAgent)),
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("write audit log: %w", err)
		}

		return tx.Where("user_id = ?", user.UserID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

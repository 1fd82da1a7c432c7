package services

import (
	"strings"

	"faculty-appraisal-api/models"

	"gorm.io/gorm"
)

// Operation is an action a principal wants to perform on an appraisal.
type Operation string

const (
	OpCreate      Operation = "create"
	OpRead        Operation = "read"
	OpList        Operation = "list"
	OpHODDecide   Operation = "hodDecide"
	OpAdminDecide Operation = "adminDecide"
	OpEdit        Operation = "edit"
)

// Principal is the authenticated actor of a request, resolved fresh on every request.
type Principal struct {
	UserID       int
	Name         string
	Email        string
	Role         models.Role
	Department   string
	EmployeeCode string
}

// PrincipalFromUser builds the request principal from a stored user.
func PrincipalFromUser(u *models.User) Principal {
	p := Principal{
		UserID:     u.UserID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: strings.TrimSpace(u.DepartmentName()),
	}
	if u.EmployeeCode != nil {
		p.EmployeeCode = *u.EmployeeCode
	}
	return p
}

func (p Principal) valid() bool {
	if p.UserID <= 0 || !p.Role.IsValid() {
		return false
	}
	if p.Role.RequiresDepartment() && p.Department == "" {
		return false
	}
	return true
}

// Authorize decides whether p may perform op. appraisal may be nil for
// create/list, or to check only the role half of a rule before loading a record.
//
// Records outside the caller's visibility yield ErrNotFound so their existence
// is not leaked; visible records the caller may not act on yield ErrForbidden.
func Authorize(p Principal, appraisal *models.Appraisal, op Operation) error {
	if !p.valid() {
		return forbidden("your account is not allowed to use appraisals")
	}

	switch p.Role {
	case models.RoleAdmin:
		return authorizeAdmin(op)
	case models.RoleHOD:
		return authorizeHOD(p, appraisal, op)
	case models.RoleFaculty:
		return authorizeFaculty(p, appraisal, op)
	}
	return forbidden("role %q may not %s appraisals", p.Role, op)
}

func authorizeAdmin(op Operation) error {
	switch op {
	case OpRead, OpList, OpAdminDecide:
		return nil
	case OpHODDecide:
		return forbidden("only the head of department may record the HOD decision")
	default:
		return forbidden("administrators may only record the admin decision on an appraisal")
	}
}

func authorizeHOD(p Principal, appraisal *models.Appraisal, op Operation) error {
	switch op {
	case OpList:
		return nil
	case OpRead:
		if appraisal != nil && appraisal.Department != p.Department {
			return notFound("appraisal not found")
		}
		return nil
	case OpHODDecide:
		if appraisal != nil && appraisal.Department != p.Department {
			return forbidden("only the head of the %s department may review this appraisal", appraisal.Department)
		}
		return nil
	case OpAdminDecide:
		return forbidden("only an administrator may record the admin decision")
	default:
		return forbidden("heads of department may only record review decisions")
	}
}

func authorizeFaculty(p Principal, appraisal *models.Appraisal, op Operation) error {
	switch op {
	case OpCreate, OpList:
		return nil
	case OpRead:
		if appraisal != nil && appraisal.FacultyID != p.UserID {
			return notFound("appraisal not found")
		}
		return nil
	case OpEdit:
		if appraisal == nil {
			return nil
		}
		if appraisal.FacultyID != p.UserID {
			return notFound("appraisal not found")
		}
		if appraisal.Status != models.StatusPendingHOD && appraisal.Status != models.StatusRejected {
			return invalidState("appraisal is %s and can no longer be edited", describeStatus(appraisal.Status))
		}
		return nil
	case OpHODDecide:
		return forbidden("only the head of department may record the HOD decision")
	default:
		return forbidden("only an administrator may record the admin decision")
	}
}

// ScopeAppraisals restricts an appraisal query to the rows p may see.
func ScopeAppraisals(db *gorm.DB, p Principal) (*gorm.DB, error) {
	if err := Authorize(p, nil, OpList); err != nil {
		return nil, err
	}

	switch p.Role {
	case models.RoleHOD:
		return db.Where("department = ?", p.Department), nil
	case models.RoleFaculty:
		return db.Where("faculty_id = ?", p.UserID), nil
	default:
		return db, nil
	}
}

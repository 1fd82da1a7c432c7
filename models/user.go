package models

import (
	"time"
)

type Role string

const (
	RoleFaculty Role = "faculty"
	RoleHOD     Role = "hod"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleFaculty, RoleHOD, RoleAdmin:
		return true
	default:
		return false
	}
}

// RequiresDepartment reports whether users with this role must belong to a department.
func (r Role) RequiresDepartment() bool {
	return r == RoleFaculty || r == RoleHOD
}

type User struct {
	UserID       int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Name         string     `gorm:"column:name;size:150" json:"name"`
	Email        string     `gorm:"column:email;size:191;uniqueIndex" json:"email"`
	Role         Role       `gorm:"column:role;size:20;index;not null" json:"role"`
	Department   *string    `gorm:"column:department;size:120;index" json:"department,omitempty"`
	EmployeeCode *string    `gorm:"column:employee_code;size:40" json:"employee_code,omitempty"`
	CreateAt     time.Time  `gorm:"column:create_at;autoCreateTime" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at,omitempty"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

// DepartmentName returns the department or an empty string.
func (u *User) DepartmentName() string {
	if u.Department == nil {
		return ""
	}
	return *u.Department
}

package entity

import "time"

// User is the login account for anyone who can act on an evaluation.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Username     string    `json:"username" gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:100;not null"`
	FullName     string    `json:"full_name" gorm:"size:255"`
	Email        string    `json:"email" gorm:"size:128"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	IsAdmin      bool      `json:"is_admin" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Unit organizational unit
type Unit struct {
	ID       string  `json:"id" gorm:"primaryKey;size:36"`
	UnitCode string  `json:"unit_code" gorm:"size:10;not null;uniqueIndex"`
	Name     string  `json:"name" gorm:"size:255;not null"`
	ParentID *string `json:"parent_id" gorm:"size:36;index"`

	Parent *Unit `json:"-" gorm:"foreignKey:ParentID"`
}

func (Unit) TableName() string {
	return "units"
}

// JobRole job role catalog entry (code 900..909)
type JobRole struct {
	ID   string `json:"id" gorm:"primaryKey;size:36"`
	Code string `json:"code" gorm:"size:10;not null;uniqueIndex"`
	Name string `json:"name" gorm:"size:255;not null"`
}

func (JobRole) TableName() string {
	return "job_roles"
}

// EmployeeProfile binds a user to their unit and job role. The workflow
// reads role code and unit code through this profile; it never mutates it.
type EmployeeProfile struct {
	ID            string  `json:"id" gorm:"primaryKey;size:36"`
	UserID        string  `json:"user_id" gorm:"size:36;not null;uniqueIndex"`
	PersonnelCode string  `json:"personnel_code" gorm:"size:50;index"`
	UnitID        *string `json:"unit_id" gorm:"size:36;index"`
	JobRoleID     *string `json:"job_role_id" gorm:"size:36;index"`

	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Unit    *Unit    `json:"unit,omitempty" gorm:"foreignKey:UnitID"`
	JobRole *JobRole `json:"job_role,omitempty" gorm:"foreignKey:JobRoleID"`
}

func (EmployeeProfile) TableName() string {
	return "employee_profiles"
}

// RoleCode returns the job-role code, empty when no role is assigned.
func (p *EmployeeProfile) RoleCode() string {
	if p.JobRole == nil {
		return ""
	}
	return p.JobRole.Code
}

// UnitCode returns the unit code, empty when the profile has no unit.
func (p *EmployeeProfile) UnitCode() string {
	if p.Unit == nil {
		return ""
	}
	return p.Unit.UnitCode
}

// DisplayName returns the name used for signature snapshots.
func (p *EmployeeProfile) DisplayName() string {
	if p.User == nil {
		return ""
	}
	return p.User.DisplayName()
}

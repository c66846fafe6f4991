package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the stored authorization role of a user
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleBACSecretariat Role = "bac_secretariat"
	RoleBACChair       Role = "bac_chair"
	RoleTWGMember      Role = "twg_member"
	RoleSupplyOfficer  Role = "supply_officer"
	RoleInspector      Role = "inspector"
	RoleBudgetOfficer  Role = "budget_officer"
	RoleAccountant     Role = "accountant"
	RoleTreasurer      Role = "treasurer"
	RoleRequisitioner  Role = "requisitioner"
	RoleViewer         Role = "viewer"
)

// IsValidRole checks if the role is one of the known roles
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleBACSecretariat, RoleBACChair, RoleTWGMember, RoleSupplyOfficer,
		RoleInspector, RoleBudgetOfficer, RoleAccountant, RoleTreasurer, RoleRequisitioner, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string     `gorm:"not null" json:"name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Role        Role       `gorm:"not null;default:viewer" json:"role"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

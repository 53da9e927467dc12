package models

import (
	"time"

	"gorm.io/gorm"
)

// CommunityType controls who can see and post in a community.
type CommunityType string

const (
	CommunityTypePublic     CommunityType = "public"
	CommunityTypeRestricted CommunityType = "restricted"
	CommunityTypePrivate    CommunityType = "private"
)

// Valid reports whether t is a known community type.
func (t CommunityType) Valid() bool {
	switch t {
	case CommunityTypePublic, CommunityTypeRestricted, CommunityTypePrivate:
		return true
	}
	return false
}

// Community groups posts under one owner.
type Community struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Description    *string        `gorm:"type:text" json:"description,omitempty"`
	Type           CommunityType  `gorm:"type:varchar(16);not null;default:'public'" json:"type"`
	OwnerUserID    uint           `gorm:"not null;index" json:"owner_user_id"`
	IsPersonal     bool           `gorm:"not null;default:false" json:"is_personal"`
	PersonalUserID *uint          `gorm:"uniqueIndex" json:"personal_user_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommunityRole is a per-community grant. RoleNone means no row exists.
type CommunityRole string

const (
	RoleNone   CommunityRole = ""
	RoleOwner  CommunityRole = "owner"
	RoleMod    CommunityRole = "mod"
	RoleMember CommunityRole = "member"
	RoleBanned CommunityRole = "banned"
)

// Valid reports whether r is an assignable role.
func (r CommunityRole) Valid() bool {
	switch r {
	case RoleOwner, RoleMod, RoleMember, RoleBanned:
		return true
	}
	return false
}

// CommunityRoleAssignment holds at most one role per (community, user).
type CommunityRoleAssignment struct {
	CommunityID     uint          `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	UserID          uint          `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Role            CommunityRole `gorm:"type:varchar(16);not null" json:"role"`
	GrantedByUserID *uint         `json:"granted_by_user_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName keeps the historical table name.
func (CommunityRoleAssignment) TableName() string {
	return "community_roles"
}

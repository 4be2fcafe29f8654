package project

import "time"

// 项目成员角色
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Org 组织（租户边界的上层）
type Org struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid"`
	Name string `json:"name" gorm:"size:255;not null"`

	CreatedAt time.Time  `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"not null;autoUpdateTime"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

// Project 隔离边界：所有文档、问题与检索都挂在项目下
type Project struct {
	ID    string `json:"id" gorm:"primaryKey;type:uuid"`
	OrgID string `json:"orgId" gorm:"type:uuid;not null;index"`

	Name        string `json:"name" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`
	Address     string `json:"address" gorm:"size:500"`
	Status      string `json:"status" gorm:"size:50;not null;default:active"` // active, archived

	CreatedBy string `json:"createdBy" gorm:"type:uuid"`

	CreatedAt time.Time  `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"not null;autoUpdateTime"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

// ProjectMember 项目成员及其角色
type ProjectMember struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID string `json:"projectId" gorm:"type:uuid;not null;uniqueIndex:idx_project_user"`
	UserID    string `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_project_user"`
	Role      string `json:"role" gorm:"size:50;not null;default:member"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

// Team 项目内的工作组（如机电、结构）
type Team struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID string `json:"projectId" gorm:"type:uuid;not null;index"`
	Name      string `json:"name" gorm:"size:255;not null"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

// TeamMember 工作组成员
type TeamMember struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid"`
	TeamID string `json:"teamId" gorm:"type:uuid;not null;uniqueIndex:idx_team_user"`
	UserID string `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_team_user"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

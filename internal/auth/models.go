package auth

import "time"

// User 平台用户
type User struct {
	ID    string `json:"id" gorm:"primaryKey;type:uuid"`
	OrgID string `json:"orgId" gorm:"type:uuid;not null;index"`

	Email        string `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Name         string `json:"name" gorm:"size:255"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`

	Status string `json:"status" gorm:"size:50;not null;default:active"` // active, disabled

	CreatedAt time.Time  `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"not null;autoUpdateTime"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

package chat

import (
	"time"

	"gorm.io/datatypes"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 项目问答消息
type ChatMessage struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID string `json:"projectId" gorm:"type:uuid;not null;index"`
	UserID    string `json:"userId" gorm:"type:uuid;not null;index"`

	Role    string `json:"role" gorm:"size:20;not null"`
	Content string `json:"content" gorm:"type:text;not null"`

	// 助手回答引用的来源（Citation 列表的 JSON）
	Citations datatypes.JSON `json:"citations,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

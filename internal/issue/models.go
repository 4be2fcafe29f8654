package issue

import "time"

// 问题状态
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// 优先级
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Issue 现场问题（缺陷、冲突、待办）
type Issue struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID string `json:"projectId" gorm:"type:uuid;not null;index"`

	Title       string `json:"title" gorm:"size:500;not null"`
	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"size:50;not null;default:open;index"`
	Priority    string `json:"priority" gorm:"size:50;not null;default:medium"`

	// 关联的模型构件（IFC GlobalId），可为空
	ElementID string `json:"elementId,omitempty" gorm:"size:100;index"`

	CreatedBy  string `json:"createdBy" gorm:"type:uuid;not null"`
	AssignedTo string `json:"assignedTo,omitempty" gorm:"type:uuid;index"`

	DueDate *time.Time `json:"dueDate,omitempty"`

	CreatedAt time.Time  `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"not null;autoUpdateTime"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

// IssueComment 问题讨论
type IssueComment struct {
	ID      string `json:"id" gorm:"primaryKey;type:uuid"`
	IssueID string `json:"issueId" gorm:"type:uuid;not null;index"`

	AuthorID string `json:"authorId" gorm:"type:uuid;not null"`
	Content  string `json:"content" gorm:"type:text;not null"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

// Notification 站内通知
type Notification struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID string `json:"userId" gorm:"type:uuid;not null;index"`

	Type    string `json:"type" gorm:"size:50;not null"` // issue_assigned, issue_comment, issue_status
	Title   string `json:"title" gorm:"size:500"`
	Body    string `json:"body" gorm:"type:text"`
	IssueID string `json:"issueId,omitempty" gorm:"type:uuid;index"`

	Read      bool      `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

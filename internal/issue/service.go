package issue

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bob/internal/logger"
)

// Service 问题跟踪服务
type Service struct {
	db *gorm.DB
}

// NewService 创建问题服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateIssueInput 创建问题入参
type CreateIssueInput struct {
	Title       string
	Description string
	Priority    string
	ElementID   string
	AssignedTo  string
}

// CreateIssue 创建问题，指派时通知被指派人
func (s *Service) CreateIssue(ctx context.Context, projectID, userID string, input *CreateIssueInput) (*Issue, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("问题标题不能为空")
	}
	priority := input.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !isValidPriority(priority) {
		return nil, fmt.Errorf("非法优先级: %s", priority)
	}

	iss := &Issue{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Title:       input.Title,
		Description: input.Description,
		Status:      StatusOpen,
		Priority:    priority,
		ElementID:   input.ElementID,
		CreatedBy:   userID,
		AssignedTo:  input.AssignedTo,
	}
	if err := s.db.WithContext(ctx).Create(iss).Error; err != nil {
		return nil, fmt.Errorf("创建问题失败: %w", err)
	}

	if iss.AssignedTo != "" && iss.AssignedTo != userID {
		s.notify(ctx, iss.AssignedTo, "issue_assigned", fmt.Sprintf("你被指派了问题: %s", iss.Title), iss)
	}
	return iss, nil
}

// GetIssue 获取问题详情（租户内）
func (s *Service) GetIssue(ctx context.Context, projectID, issueID string) (*Issue, error) {
	var iss Issue
	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ? AND deleted_at IS NULL", issueID, projectID).
		First(&iss).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("问题不存在")
		}
		return nil, fmt.Errorf("查询问题失败: %w", err)
	}
	return &iss, nil
}

// ListIssues 列出项目问题，可按状态、指派人、构件过滤
func (s *Service) ListIssues(ctx context.Context, projectID, status, assignedTo, elementID string, page, pageSize int) ([]Issue, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&Issue{}).
		Where("project_id = ? AND deleted_at IS NULL", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if assignedTo != "" {
		query = query.Where("assigned_to = ?", assignedTo)
	}
	if elementID != "" {
		query = query.Where("element_id = ?", elementID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计问题失败: %w", err)
	}

	var issues []Issue
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&issues).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询问题列表失败: %w", err)
	}
	return issues, total, nil
}

// UpdateStatus 流转问题状态并通知创建人
func (s *Service) UpdateStatus(ctx context.Context, projectID, issueID, userID, status string) (*Issue, error) {
	if !isValidStatus(status) {
		return nil, fmt.Errorf("非法状态: %s", status)
	}
	iss, err := s.GetIssue(ctx, projectID, issueID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&Issue{}).
		Where("id = ?", issueID).
		Update("status", status).Error
	if err != nil {
		return nil, fmt.Errorf("更新问题状态失败: %w", err)
	}
	iss.Status = status

	if iss.CreatedBy != userID {
		s.notify(ctx, iss.CreatedBy, "issue_status", fmt.Sprintf("问题「%s」状态变更为 %s", iss.Title, status), iss)
	}
	return iss, nil
}

// Assign 指派问题并通知被指派人
func (s *Service) Assign(ctx context.Context, projectID, issueID, operatorID, assigneeID string) (*Issue, error) {
	iss, err := s.GetIssue(ctx, projectID, issueID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&Issue{}).
		Where("id = ?", issueID).
		Update("assigned_to", assigneeID).Error
	if err != nil {
		return nil, fmt.Errorf("指派问题失败: %w", err)
	}
	iss.AssignedTo = assigneeID

	if assigneeID != "" && assigneeID != operatorID {
		s.notify(ctx, assigneeID, "issue_assigned", fmt.Sprintf("你被指派了问题: %s", iss.Title), iss)
	}
	return iss, nil
}

// AddComment 添加讨论，通知创建人与指派人（评论者除外）
func (s *Service) AddComment(ctx context.Context, projectID, issueID, authorID, content string) (*IssueComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("评论内容不能为空")
	}
	iss, err := s.GetIssue(ctx, projectID, issueID)
	if err != nil {
		return nil, err
	}

	comment := &IssueComment{
		ID:       uuid.New().String(),
		IssueID:  issueID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("添加评论失败: %w", err)
	}

	recipients := map[string]bool{}
	if iss.CreatedBy != authorID {
		recipients[iss.CreatedBy] = true
	}
	if iss.AssignedTo != "" && iss.AssignedTo != authorID {
		recipients[iss.AssignedTo] = true
	}
	for userID := range recipients {
		s.notify(ctx, userID, "issue_comment", fmt.Sprintf("问题「%s」有新评论", iss.Title), iss)
	}
	return comment, nil
}

// ListComments 按时间顺序列出问题评论
func (s *Service) ListComments(ctx context.Context, projectID, issueID string) ([]IssueComment, error) {
	if _, err := s.GetIssue(ctx, projectID, issueID); err != nil {
		return nil, err
	}
	var comments []IssueComment
	err := s.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("查询评论失败: %w", err)
	}
	return comments, nil
}

// ListNotifications 列出用户通知
func (s *Service) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	var notifications []Notification
	if err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("查询通知失败: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead 标记通知已读
func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	result := s.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("更新通知失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("通知不存在")
	}
	return nil
}

// notify 写站内通知，失败只记日志不影响主流程
func (s *Service) notify(ctx context.Context, userID, typ, title string, iss *Issue) {
	n := &Notification{
		ID:      uuid.New().String(),
		UserID:  userID,
		Type:    typ,
		Title:   title,
		IssueID: iss.ID,
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		logger.Warn(fmt.Sprintf("写入通知失败: %v", err))
	}
}

func isValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

func isValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

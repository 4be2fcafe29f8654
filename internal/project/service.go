package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotMember 调用者不是项目成员
var ErrNotMember = errors.New("没有项目访问权限")

// Service 项目与成员管理服务
type Service struct {
	db *gorm.DB
}

// NewService 创建项目服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateProjectInput 创建项目入参
type CreateProjectInput struct {
	Name        string
	Description string
	Address     string
}

// CreateProject 创建项目，创建者自动成为管理员
func (s *Service) CreateProject(ctx context.Context, orgID, userID string, input *CreateProjectInput) (*Project, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("项目名称不能为空")
	}

	proj := &Project{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		Name:        input.Name,
		Description: input.Description,
		Address:     input.Address,
		Status:      "active",
		CreatedBy:   userID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(proj).Error; err != nil {
			return fmt.Errorf("创建项目失败: %w", err)
		}
		member := &ProjectMember{
			ID:        uuid.New().String(),
			ProjectID: proj.ID,
			UserID:    userID,
			Role:      RoleAdmin,
		}
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("创建项目成员失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proj, nil
}

// GetProject 获取项目详情，要求调用者是成员
func (s *Service) GetProject(ctx context.Context, projectID, userID string) (*Project, error) {
	if _, err := s.RoleOf(ctx, projectID, userID); err != nil {
		return nil, err
	}
	var proj Project
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", projectID).
		First(&proj).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("项目不存在")
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}
	return &proj, nil
}

// ListProjects 列出用户可见的项目
func (s *Service) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	var projects []Project
	err := s.db.WithContext(ctx).
		Joins("JOIN project_members pm ON pm.project_id = projects.id").
		Where("pm.user_id = ? AND projects.deleted_at IS NULL", userID).
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("查询项目列表失败: %w", err)
	}
	return projects, nil
}

// ArchiveProject 归档项目，仅管理员可操作
func (s *Service) ArchiveProject(ctx context.Context, projectID, userID string) error {
	role, err := s.RoleOf(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if role != RoleAdmin {
		return ErrNotMember
	}
	err = s.db.WithContext(ctx).Model(&Project{}).
		Where("id = ?", projectID).
		Updates(map[string]any{"status": "archived", "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("归档项目失败: %w", err)
	}
	return nil
}

// AddMember 添加项目成员，仅管理员可操作
func (s *Service) AddMember(ctx context.Context, projectID, operatorID, userID, role string) (*ProjectMember, error) {
	operatorRole, err := s.RoleOf(ctx, projectID, operatorID)
	if err != nil {
		return nil, err
	}
	if operatorRole != RoleAdmin {
		return nil, ErrNotMember
	}
	if role != RoleAdmin && role != RoleMember && role != RoleViewer {
		return nil, fmt.Errorf("非法角色: %s", role)
	}

	member := &ProjectMember{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, fmt.Errorf("添加成员失败: %w", err)
	}
	return member, nil
}

// RemoveMember 移除项目成员，仅管理员可操作
func (s *Service) RemoveMember(ctx context.Context, projectID, operatorID, userID string) error {
	operatorRole, err := s.RoleOf(ctx, projectID, operatorID)
	if err != nil {
		return err
	}
	if operatorRole != RoleAdmin {
		return ErrNotMember
	}
	result := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&ProjectMember{})
	if result.Error != nil {
		return fmt.Errorf("移除成员失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("成员不存在")
	}
	return nil
}

// ListMembers 列出项目成员
func (s *Service) ListMembers(ctx context.Context, projectID, userID string) ([]ProjectMember, error) {
	if _, err := s.RoleOf(ctx, projectID, userID); err != nil {
		return nil, err
	}
	var members []ProjectMember
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("查询成员列表失败: %w", err)
	}
	return members, nil
}

// RoleOf 返回用户在项目中的角色，非成员返回 ErrNotMember
func (s *Service) RoleOf(ctx context.Context, projectID, userID string) (string, error) {
	var member ProjectMember
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrNotMember
		}
		return "", fmt.Errorf("查询项目成员失败: %w", err)
	}
	return member.Role, nil
}

// CreateTeam 创建项目工作组
func (s *Service) CreateTeam(ctx context.Context, projectID, operatorID, name string) (*Team, error) {
	operatorRole, err := s.RoleOf(ctx, projectID, operatorID)
	if err != nil {
		return nil, err
	}
	if operatorRole != RoleAdmin {
		return nil, ErrNotMember
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("工作组名称不能为空")
	}
	team := &Team{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
	}
	if err := s.db.WithContext(ctx).Create(team).Error; err != nil {
		return nil, fmt.Errorf("创建工作组失败: %w", err)
	}
	return team, nil
}

// AddTeamMember 把项目成员加入工作组
func (s *Service) AddTeamMember(ctx context.Context, projectID, operatorID, teamID, userID string) error {
	operatorRole, err := s.RoleOf(ctx, projectID, operatorID)
	if err != nil {
		return err
	}
	if operatorRole != RoleAdmin {
		return ErrNotMember
	}
	// 被加入者必须先是项目成员
	if _, err := s.RoleOf(ctx, projectID, userID); err != nil {
		return err
	}
	tm := &TeamMember{
		ID:     uuid.New().String(),
		TeamID: teamID,
		UserID: userID,
	}
	if err := s.db.WithContext(ctx).Create(tm).Error; err != nil {
		return fmt.Errorf("加入工作组失败: %w", err)
	}
	return nil
}

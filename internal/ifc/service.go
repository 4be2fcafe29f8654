package ifc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service IFC 构件查询服务
type Service struct {
	db *gorm.DB
}

// NewService 创建 IFC 服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ElementInput 解析出的单个构件
type ElementInput struct {
	GlobalID     string
	IfcType      string
	Name         string
	Storey       string
	PropertySets map[string]any
}

// ReplaceElements 原子替换某文档解析出的全部构件
func (s *Service) ReplaceElements(ctx context.Context, projectID, documentID string, elements []ElementInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		err := tx.Model(&IfcElement{}).
			Where("document_id = ? AND deleted_at IS NULL", documentID).
			Update("deleted_at", now).Error
		if err != nil {
			return fmt.Errorf("清理旧构件失败: %w", err)
		}

		rows := make([]IfcElement, 0, len(elements))
		for _, e := range elements {
			if e.GlobalID == "" || e.IfcType == "" {
				continue
			}
			rows = append(rows, IfcElement{
				ID:           uuid.New().String(),
				ProjectID:    projectID,
				DocumentID:   documentID,
				GlobalID:     e.GlobalID,
				IfcType:      e.IfcType,
				Name:         e.Name,
				Storey:       e.Storey,
				PropertySets: datatypes.JSONMap(e.PropertySets),
			})
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("写入构件失败: %w", err)
			}
		}
		return nil
	})
}

// GetElement 按 GlobalId 获取构件
func (s *Service) GetElement(ctx context.Context, projectID, globalID string) (*IfcElement, error) {
	var element IfcElement
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND global_id = ? AND deleted_at IS NULL", projectID, globalID).
		First(&element).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("构件不存在")
		}
		return nil, fmt.Errorf("查询构件失败: %w", err)
	}
	return &element, nil
}

// SearchElements 按类型、楼层、名称检索构件
func (s *Service) SearchElements(ctx context.Context, projectID, ifcType, storey, name string, page, pageSize int) ([]IfcElement, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	query := s.db.WithContext(ctx).Model(&IfcElement{}).
		Where("project_id = ? AND deleted_at IS NULL", projectID)
	if ifcType != "" {
		query = query.Where("ifc_type = ?", ifcType)
	}
	if storey != "" {
		query = query.Where("storey = ?", storey)
	}
	if name != "" {
		query = query.Where("name LIKE ?", "%"+strings.TrimSpace(name)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计构件失败: %w", err)
	}

	var elements []IfcElement
	err := query.Order("ifc_type ASC, name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&elements).Error
	if err != nil {
		return nil, 0, fmt.Errorf("检索构件失败: %w", err)
	}
	return elements, total, nil
}

// ListStoreys 列出项目内出现过的楼层
func (s *Service) ListStoreys(ctx context.Context, projectID string) ([]string, error) {
	var storeys []string
	err := s.db.WithContext(ctx).Model(&IfcElement{}).
		Where("project_id = ? AND deleted_at IS NULL AND storey <> ''", projectID).
		Distinct("storey").
		Order("storey ASC").
		Pluck("storey", &storeys).Error
	if err != nil {
		return nil, fmt.Errorf("查询楼层失败: %w", err)
	}
	return storeys, nil
}

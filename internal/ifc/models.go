package ifc

import (
	"time"

	"gorm.io/datatypes"
)

// IfcElement BIM 模型构件，从 IFC 文档解析而来
type IfcElement struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID  string `json:"projectId" gorm:"type:uuid;not null;uniqueIndex:idx_project_global"`
	DocumentID string `json:"documentId" gorm:"type:uuid;not null;index"`

	// IFC GlobalId，项目内唯一定位构件
	GlobalID string `json:"globalId" gorm:"size:100;not null;uniqueIndex:idx_project_global"`

	IfcType string `json:"ifcType" gorm:"size:100;not null;index"` // IfcWall, IfcDoor, IfcSlab...
	Name    string `json:"name" gorm:"size:500"`
	Storey  string `json:"storey" gorm:"size:255;index"` // 所在楼层

	// 属性集（Psets），键为属性集名
	PropertySets datatypes.JSONMap `json:"propertySets,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time  `json:"createdAt" gorm:"not null;autoCreateTime"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

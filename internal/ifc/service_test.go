package ifc

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&IfcElement{}))
	return db
}

func seedElements(t *testing.T, svc *Service) {
	t.Helper()
	err := svc.ReplaceElements(context.Background(), "proj-1", "doc-1", []ElementInput{
		{GlobalID: "2O2Fr$t4X7Zf8NOew3FLOH", IfcType: "IfcWall", Name: "外墙 W-01", Storey: "1F"},
		{GlobalID: "1hOSvn6df7F8_7GcBWlR72", IfcType: "IfcWall", Name: "内墙 W-02", Storey: "2F"},
		{GlobalID: "0BTBFw6f90Nfh9rP1dlXre", IfcType: "IfcDoor", Name: "防火门 D-01", Storey: "1F",
			PropertySets: map[string]any{"Pset_DoorCommon": map[string]any{"FireRating": "甲级"}}},
	})
	require.NoError(t, err)
}

func TestReplaceElements(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()
	seedElements(t, svc)

	t.Run("重复解析替换旧构件", func(t *testing.T) {
		err := svc.ReplaceElements(ctx, "proj-1", "doc-1", []ElementInput{
			{GlobalID: "2O2Fr$t4X7Zf8NOew3FLOH", IfcType: "IfcWall", Name: "外墙 W-01 修订", Storey: "1F"},
		})
		require.NoError(t, err)

		_, total, err := svc.SearchElements(ctx, "proj-1", "", "", "", 1, 50)
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
	})

	t.Run("缺少 GlobalId 的构件被跳过", func(t *testing.T) {
		err := svc.ReplaceElements(ctx, "proj-1", "doc-2", []ElementInput{
			{GlobalID: "", IfcType: "IfcSlab"},
		})
		require.NoError(t, err)
	})
}

func TestSearchElements(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()
	seedElements(t, svc)

	t.Run("按类型过滤", func(t *testing.T) {
		elements, total, err := svc.SearchElements(ctx, "proj-1", "IfcWall", "", "", 1, 50)
		require.NoError(t, err)
		require.Equal(t, int64(2), total)
		require.Len(t, elements, 2)
	})

	t.Run("按楼层过滤", func(t *testing.T) {
		_, total, err := svc.SearchElements(ctx, "proj-1", "", "1F", "", 1, 50)
		require.NoError(t, err)
		require.Equal(t, int64(2), total)
	})

	t.Run("按名称模糊匹配", func(t *testing.T) {
		elements, total, err := svc.SearchElements(ctx, "proj-1", "", "", "防火门", 1, 50)
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		require.Equal(t, "IfcDoor", elements[0].IfcType)
	})

	t.Run("项目隔离", func(t *testing.T) {
		_, total, err := svc.SearchElements(ctx, "proj-2", "", "", "", 1, 50)
		require.NoError(t, err)
		require.Zero(t, total)
	})
}

func TestGetElement(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()
	seedElements(t, svc)

	element, err := svc.GetElement(ctx, "proj-1", "0BTBFw6f90Nfh9rP1dlXre")
	require.NoError(t, err)
	require.Equal(t, "IfcDoor", element.IfcType)
	require.Contains(t, element.PropertySets, "Pset_DoorCommon")

	_, err = svc.GetElement(ctx, "proj-1", "missing")
	require.Error(t, err)
}

func TestListStoreys(t *testing.T) {
	svc := NewService(setupTestDB(t))
	seedElements(t, svc)

	storeys, err := svc.ListStoreys(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Equal(t, []string{"1F", "2F"}, storeys)
}

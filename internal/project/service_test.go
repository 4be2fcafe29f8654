package project

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
	require.NoError(t, db.AutoMigrate(&Org{}, &Project{}, &ProjectMember{}, &Team{}, &TeamMember{}))
	return db
}

func TestCreateProject(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	proj, err := svc.CreateProject(ctx, "org-1", "user-1", &CreateProjectInput{Name: "市政大楼改造"})
	require.NoError(t, err)
	require.Equal(t, "active", proj.Status)

	t.Run("创建者自动成为管理员", func(t *testing.T) {
		role, err := svc.RoleOf(ctx, proj.ID, "user-1")
		require.NoError(t, err)
		require.Equal(t, RoleAdmin, role)
	})

	t.Run("空名称被拒绝", func(t *testing.T) {
		_, err := svc.CreateProject(ctx, "org-1", "user-1", &CreateProjectInput{Name: "  "})
		require.Error(t, err)
	})
}

func TestMembership(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	proj, err := svc.CreateProject(ctx, "org-1", "admin-1", &CreateProjectInput{Name: "厂房扩建"})
	require.NoError(t, err)

	t.Run("非成员访问被拒绝", func(t *testing.T) {
		_, err := svc.GetProject(ctx, proj.ID, "stranger")
		require.ErrorIs(t, err, ErrNotMember)
	})

	t.Run("管理员可添加成员", func(t *testing.T) {
		_, err := svc.AddMember(ctx, proj.ID, "admin-1", "user-2", RoleMember)
		require.NoError(t, err)
		role, err := svc.RoleOf(ctx, proj.ID, "user-2")
		require.NoError(t, err)
		require.Equal(t, RoleMember, role)
	})

	t.Run("普通成员不可添加成员", func(t *testing.T) {
		_, err := svc.AddMember(ctx, proj.ID, "user-2", "user-3", RoleViewer)
		require.ErrorIs(t, err, ErrNotMember)
	})

	t.Run("管理员可移除成员", func(t *testing.T) {
		require.NoError(t, svc.RemoveMember(ctx, proj.ID, "admin-1", "user-2"))
		_, err := svc.RoleOf(ctx, proj.ID, "user-2")
		require.ErrorIs(t, err, ErrNotMember)
	})
}

func TestListProjects(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	p1, err := svc.CreateProject(ctx, "org-1", "user-1", &CreateProjectInput{Name: "项目一"})
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, "org-1", "user-2", &CreateProjectInput{Name: "项目二"})
	require.NoError(t, err)

	projects, err := svc.ListProjects(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, p1.ID, projects[0].ID)
}

func TestTeams(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	proj, err := svc.CreateProject(ctx, "org-1", "admin-1", &CreateProjectInput{Name: "地铁站房"})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, proj.ID, "admin-1", "user-2", RoleMember)
	require.NoError(t, err)

	team, err := svc.CreateTeam(ctx, proj.ID, "admin-1", "机电组")
	require.NoError(t, err)

	t.Run("项目成员可加入工作组", func(t *testing.T) {
		require.NoError(t, svc.AddTeamMember(ctx, proj.ID, "admin-1", team.ID, "user-2"))
	})

	t.Run("非项目成员不可加入工作组", func(t *testing.T) {
		err := svc.AddTeamMember(ctx, proj.ID, "admin-1", team.ID, "stranger")
		require.ErrorIs(t, err, ErrNotMember)
	})
}

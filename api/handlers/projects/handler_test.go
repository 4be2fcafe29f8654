package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bob/internal/auth"
	"bob/internal/project"
)

type teamFixture struct {
	router      *gin.Engine
	project     *project.Project
	currentUser string
}

func setupTeamFixture(t *testing.T) *teamFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&project.Org{}, &project.Project{}, &project.ProjectMember{},
		&project.Team{}, &project.TeamMember{},
	))

	svc := project.NewService(db)
	ctx := context.Background()
	proj, err := svc.CreateProject(ctx, "org-1", "admin-1", &project.CreateProjectInput{Name: "地铁二号线"})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, proj.ID, "admin-1", "user-2", project.RoleMember)
	require.NoError(t, err)

	f := &teamFixture{project: proj, currentUser: "admin-1"}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	// 测试中直接注入用户身份
	router.Use(func(c *gin.Context) {
		c.Set("user_context", &auth.UserContext{UserID: f.currentUser, OrgID: "org-1"})
		c.Next()
	})
	handler := NewHandler(svc)
	router.POST("/api/projects/:id/teams", handler.CreateTeam)
	router.POST("/api/projects/:id/teams/:teamId/members", handler.AddTeamMember)
	f.router = router
	return f
}

func (f *teamFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestTeamRoutes(t *testing.T) {
	f := setupTeamFixture(t)
	base := "/api/projects/" + f.project.ID + "/teams"

	var teamID string
	t.Run("管理员创建工作组", func(t *testing.T) {
		w := f.post(t, base, gin.H{"name": "钢结构班组"})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.True(t, resp.Success)
		require.Equal(t, "钢结构班组", resp.Data.Name)
		require.NotEmpty(t, resp.Data.ID)
		teamID = resp.Data.ID
	})

	t.Run("管理员把成员加入工作组", func(t *testing.T) {
		w := f.post(t, base+"/"+teamID+"/members", gin.H{"user_id": "user-2"})
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("非项目成员不能加入工作组", func(t *testing.T) {
		w := f.post(t, base+"/"+teamID+"/members", gin.H{"user_id": "stranger"})
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("普通成员不能创建工作组", func(t *testing.T) {
		f.currentUser = "user-2"
		defer func() { f.currentUser = "admin-1" }()

		w := f.post(t, base, gin.H{"name": "水电班组"})
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("缺少名称返回参数错误", func(t *testing.T) {
		w := f.post(t, base, gin.H{})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

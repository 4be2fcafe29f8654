package projects

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	response "bob/api/handlers/common"
	"bob/internal/auth"
	"bob/internal/project"
)

// Handler 项目管理处理器
type Handler struct {
	projects *project.Service
}

// NewHandler 创建项目处理器
func NewHandler(projects *project.Service) *Handler {
	return &Handler{projects: projects}
}

// CreateRequest 创建项目请求
type CreateRequest struct {
	Name        string `json:"name" binding:"required,min=1"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// Create 创建项目
func (h *Handler) Create(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	proj, err := h.projects.CreateProject(c.Request.Context(), userCtx.OrgID, userCtx.UserID, &project.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.APIResponse{Success: true, Data: proj})
}

// List 列出当前用户可见的项目
func (h *Handler) List(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	projects, err := h.projects.ListProjects(c.Request.Context(), userCtx.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: projects})
}

// Get 获取项目详情
func (h *Handler) Get(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	proj, err := h.projects.GetProject(c.Request.Context(), c.Param("id"), userCtx.UserID)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: proj})
}

// Archive 归档项目
func (h *Handler) Archive(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	if err := h.projects.ArchiveProject(c.Request.Context(), c.Param("id"), userCtx.UserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Message: "项目已归档"})
}

// AddMemberRequest 添加成员请求
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// AddMember 添加项目成员
func (h *Handler) AddMember(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	member, err := h.projects.AddMember(c.Request.Context(), c.Param("id"), userCtx.UserID, req.UserID, req.Role)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.APIResponse{Success: true, Data: member})
}

// RemoveMember 移除项目成员
func (h *Handler) RemoveMember(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	err := h.projects.RemoveMember(c.Request.Context(), c.Param("id"), userCtx.UserID, c.Param("userId"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Message: "成员已移除"})
}

// CreateTeamRequest 创建工作组请求
type CreateTeamRequest struct {
	Name string `json:"name" binding:"required,min=1"`
}

// CreateTeam 创建项目工作组
func (h *Handler) CreateTeam(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	team, err := h.projects.CreateTeam(c.Request.Context(), c.Param("id"), userCtx.UserID, req.Name)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.APIResponse{Success: true, Data: team})
}

// AddTeamMemberRequest 加入工作组请求
type AddTeamMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// AddTeamMember 把项目成员加入工作组
func (h *Handler) AddTeamMember(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	var req AddTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	err := h.projects.AddTeamMember(c.Request.Context(), c.Param("id"), userCtx.UserID, c.Param("teamId"), req.UserID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.APIResponse{Success: true, Message: "已加入工作组"})
}

// ListMembers 列出项目成员
func (h *Handler) ListMembers(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	members, err := h.projects.ListMembers(c.Request.Context(), c.Param("id"), userCtx.UserID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: members})
}

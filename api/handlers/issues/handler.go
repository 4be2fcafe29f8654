package issues

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	response "bob/api/handlers/common"
	"bob/internal/auth"
	"bob/internal/issue"
	"bob/internal/project"
)

// Handler 问题跟踪处理器
type Handler struct {
	issues   *issue.Service
	projects *project.Service
}

// NewHandler 创建问题处理器
func NewHandler(issues *issue.Service, projects *project.Service) *Handler {
	return &Handler{issues: issues, projects: projects}
}

func (h *Handler) requireMember(c *gin.Context) (projectID, userID string, ok bool) {
	userCtx, _ := auth.GetUserContext(c)
	projectID = c.Param("id")

	if _, err := h.projects.RoleOf(c.Request.Context(), projectID, userCtx.UserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return "", "", false
	}
	return projectID, userCtx.UserID, true
}

// CreateRequest 创建问题请求
type CreateRequest struct {
	Title       string `json:"title" binding:"required,min=1"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	ElementID   string `json:"element_id"`
	AssignedTo  string `json:"assigned_to"`
}

// Create 创建问题
func (h *Handler) Create(c *gin.Context) {
	projectID, userID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	iss, err := h.issues.CreateIssue(c.Request.Context(), projectID, userID, &issue.CreateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		ElementID:   req.ElementID,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.APIResponse{Success: true, Data: iss})
}

// List 列出项目问题
func (h *Handler) List(c *gin.Context) {
	projectID, _, ok := h.requireMember(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	issues, total, err := h.issues.ListIssues(
		c.Request.Context(), projectID,
		c.Query("status"), c.Query("assigned_to"), c.Query("element_id"),
		page, pageSize,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{
		Success: true,
		Data:    response.NewListResponse(issues, page, pageSize, total),
	})
}

// Get 获取问题详情
func (h *Handler) Get(c *gin.Context) {
	projectID, _, ok := h.requireMember(c)
	if !ok {
		return
	}

	iss, err := h.issues.GetIssue(c.Request.Context(), projectID, c.Param("issueId"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: iss})
}

// UpdateStatusRequest 状态流转请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 流转问题状态
func (h *Handler) UpdateStatus(c *gin.Context) {
	projectID, userID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	iss, err := h.issues.UpdateStatus(c.Request.Context(), projectID, c.Param("issueId"), userID, req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: iss})
}

// AssignRequest 指派请求
type AssignRequest struct {
	AssignedTo string `json:"assigned_to" binding:"required"`
}

// Assign 指派问题
func (h *Handler) Assign(c *gin.Context) {
	projectID, userID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	iss, err := h.issues.Assign(c.Request.Context(), projectID, c.Param("issueId"), userID, req.AssignedTo)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: iss})
}

// CommentRequest 评论请求
type CommentRequest struct {
	Content string `json:"content" binding:"required,min=1"`
}

// AddComment 添加评论
func (h *Handler) AddComment(c *gin.Context) {
	projectID, userID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	comment, err := h.issues.AddComment(c.Request.Context(), projectID, c.Param("issueId"), userID, req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.APIResponse{Success: true, Data: comment})
}

// ListComments 列出评论
func (h *Handler) ListComments(c *gin.Context) {
	projectID, _, ok := h.requireMember(c)
	if !ok {
		return
	}

	comments, err := h.issues.ListComments(c.Request.Context(), projectID, c.Param("issueId"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: comments})
}

// ListNotifications 列出当前用户通知
func (h *Handler) ListNotifications(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.issues.ListNotifications(c.Request.Context(), userCtx.UserID, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: notifications})
}

// MarkNotificationRead 标记通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)

	if err := h.issues.MarkNotificationRead(c.Request.Context(), userCtx.UserID, c.Param("notificationId")); err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Message: "已读"})
}

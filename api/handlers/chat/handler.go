package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	response "bob/api/handlers/common"
	"bob/internal/auth"
	chatsvc "bob/internal/chat"
	"bob/internal/project"
)

// Handler 项目问答处理器
type Handler struct {
	chat     *chatsvc.Service
	projects *project.Service
}

// NewHandler 创建问答处理器
func NewHandler(chat *chatsvc.Service, projects *project.Service) *Handler {
	return &Handler{chat: chat, projects: projects}
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

// AskRequest 提问请求
type AskRequest struct {
	Question string `json:"question" binding:"required,min=1"`
	TopK     int    `json:"top_k"`
}

// Ask 基于项目资料提问
func (h *Handler) Ask(c *gin.Context) {
	projectID, userID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	answer, err := h.chat.Ask(c.Request.Context(), projectID, userID, &chatsvc.AskInput{
		Question: req.Question,
		TopK:     req.TopK,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: answer})
}

// History 对话历史
func (h *Handler) History(c *gin.Context) {
	projectID, userID, ok := h.requireMember(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.chat.History(c.Request.Context(), projectID, userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: messages})
}

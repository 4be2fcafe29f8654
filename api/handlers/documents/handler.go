package documents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	response "bob/api/handlers/common"
	"bob/internal/auth"
	"bob/internal/document"
	"bob/internal/project"
)

// Handler 文档管理处理器
type Handler struct {
	documents *document.Service
	projects  *project.Service
}

// NewHandler 创建文档处理器
func NewHandler(documents *document.Service, projects *project.Service) *Handler {
	return &Handler{documents: documents, projects: projects}
}

// requireMember 校验当前用户是项目成员，返回角色
func (h *Handler) requireMember(c *gin.Context) (string, string, bool) {
	userCtx, _ := auth.GetUserContext(c)
	projectID := c.Param("id")

	role, err := h.projects.RoleOf(c.Request.Context(), projectID, userCtx.UserID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return "", "", false
	}
	return projectID, role, true
}

// UploadRequest 上传文档请求
type UploadRequest struct {
	Title       string `json:"title"`
	FileName    string `json:"file_name" binding:"required"`
	SourceType  string `json:"source_type" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	StoragePath string `json:"storage_path"`
	Content     string `json:"content" binding:"required"`
}

// Upload 登记文档并触发后台索引
func (h *Handler) Upload(c *gin.Context) {
	projectID, role, ok := h.requireMember(c)
	if !ok {
		return
	}
	if role == project.RoleViewer {
		c.JSON(http.StatusForbidden, response.ErrorResponse{Success: false, Message: "只读成员不能上传文档"})
		return
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	userCtx, _ := auth.GetUserContext(c)
	doc, err := h.documents.CreateDocument(c.Request.Context(), projectID, &document.CreateDocumentInput{
		Title:       req.Title,
		FileName:    req.FileName,
		SourceType:  req.SourceType,
		ContentType: req.ContentType,
		StoragePath: req.StoragePath,
		FileSize:    int64(len(req.Content)),
		Content:     req.Content,
		UploadedBy:  userCtx.UserID,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.APIResponse{Success: true, Data: doc})
}

// List 列出项目文档
func (h *Handler) List(c *gin.Context) {
	projectID, _, ok := h.requireMember(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	docs, total, err := h.documents.ListDocuments(
		c.Request.Context(), projectID,
		c.Query("source_type"), c.Query("status"),
		page, pageSize,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{
		Success: true,
		Data:    response.NewListResponse(docs, page, pageSize, total),
	})
}

// Get 获取文档详情
func (h *Handler) Get(c *gin.Context) {
	projectID, _, ok := h.requireMember(c)
	if !ok {
		return
	}

	doc, err := h.documents.GetDocument(c.Request.Context(), projectID, c.Param("docId"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: doc})
}

// Delete 删除文档
func (h *Handler) Delete(c *gin.Context) {
	projectID, role, ok := h.requireMember(c)
	if !ok {
		return
	}
	if role == project.RoleViewer {
		c.JSON(http.StatusForbidden, response.ErrorResponse{Success: false, Message: "只读成员不能删除文档"})
		return
	}

	if err := h.documents.DeleteDocument(c.Request.Context(), projectID, c.Param("docId")); err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Message: "文档已删除"})
}

package elements

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	response "bob/api/handlers/common"
	"bob/internal/auth"
	"bob/internal/ifc"
	"bob/internal/project"
)

// Handler BIM 构件查询处理器
type Handler struct {
	elements *ifc.Service
	projects *project.Service
}

// NewHandler 创建构件处理器
func NewHandler(elements *ifc.Service, projects *project.Service) *Handler {
	return &Handler{elements: elements, projects: projects}
}

func (h *Handler) requireMember(c *gin.Context) (string, bool) {
	userCtx, _ := auth.GetUserContext(c)
	projectID := c.Param("id")

	if _, err := h.projects.RoleOf(c.Request.Context(), projectID, userCtx.UserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return "", false
	}
	return projectID, true
}

// Search 按类型、楼层、名称检索构件
func (h *Handler) Search(c *gin.Context) {
	projectID, ok := h.requireMember(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	results, total, err := h.elements.SearchElements(
		c.Request.Context(), projectID,
		c.Query("ifc_type"), c.Query("storey"), c.Query("name"),
		page, pageSize,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{
		Success: true,
		Data:    response.NewListResponse(results, page, pageSize, total),
	})
}

// Get 按 GlobalId 获取构件
func (h *Handler) Get(c *gin.Context) {
	projectID, ok := h.requireMember(c)
	if !ok {
		return
	}

	element, err := h.elements.GetElement(c.Request.Context(), projectID, c.Param("globalId"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: element})
}

// Storeys 列出项目楼层
func (h *Handler) Storeys(c *gin.Context) {
	projectID, ok := h.requireMember(c)
	if !ok {
		return
	}

	storeys, err := h.elements.ListStoreys(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: storeys})
}

package search

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	response "bob/api/handlers/common"
	"bob/internal/auth"
	"bob/internal/project"
	"bob/internal/retrieval"
)

// ContextSearcher 上下文检索入口
type ContextSearcher interface {
	Retrieve(ctx context.Context, projectID, query string, filters *retrieval.Filters, opts *retrieval.Options) (*retrieval.Result, error)
}

// MembershipChecker 项目成员校验
type MembershipChecker interface {
	RoleOf(ctx context.Context, projectID, userID string) (string, error)
}

// Handler 上下文检索处理器
type Handler struct {
	searcher ContextSearcher
	projects MembershipChecker
}

// NewHandler 创建检索处理器
func NewHandler(searcher ContextSearcher, projects MembershipChecker) *Handler {
	return &Handler{searcher: searcher, projects: projects}
}

// SearchRequest 检索请求
type SearchRequest struct {
	Query   string         `json:"query" binding:"required,min=1"`
	TopK    int            `json:"top_k"`
	Filters *FiltersOption `json:"filters"`
}

// FiltersOption 检索过滤条件
type FiltersOption struct {
	DocumentIDs []string `json:"document_ids"`
	SourceTypes []string `json:"source_types"`
	DateFrom    string   `json:"date_from"` // RFC3339
	DateTo      string   `json:"date_to"`
}

// Search 项目内上下文检索
func (h *Handler) Search(c *gin.Context) {
	userCtx, _ := auth.GetUserContext(c)
	projectID := c.Param("id")

	if _, err := h.projects.RoleOf(c.Request.Context(), projectID, userCtx.UserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, project.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	filters, err := req.Filters.toRetrieval()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	result, err := h.searcher.Retrieve(
		c.Request.Context(), projectID, req.Query,
		filters, &retrieval.Options{TopK: req.TopK},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: "检索失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: result})
}

// toRetrieval 把请求过滤条件转换为检索层过滤器
func (f *FiltersOption) toRetrieval() (*retrieval.Filters, error) {
	if f == nil {
		return nil, nil
	}
	filters := &retrieval.Filters{
		DocumentIDs: f.DocumentIDs,
		SourceTypes: f.SourceTypes,
	}
	if f.DateFrom != "" || f.DateTo != "" {
		filters.DateRange = &retrieval.DateRange{}
		if f.DateFrom != "" {
			from, err := time.Parse(time.RFC3339, f.DateFrom)
			if err != nil {
				return nil, errors.New("date_from 格式不正确，应为 RFC3339")
			}
			filters.DateRange.From = &from
		}
		if f.DateTo != "" {
			to, err := time.Parse(time.RFC3339, f.DateTo)
			if err != nil {
				return nil, errors.New("date_to 格式不正确，应为 RFC3339")
			}
			filters.DateRange.To = &to
		}
	}
	return filters, nil
}

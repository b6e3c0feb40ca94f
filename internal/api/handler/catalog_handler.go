package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/dto"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/service"
	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/response"
)

// CatalogHandler 课表目录模块 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListCatalogs 目录列表
// GET /api/v1/catalogs?program=BSCSE&page=1&page_size=20
func (h *CatalogHandler) ListCatalogs(c *gin.Context) {
	var req dto.CatalogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	page, err := h.catalogSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OKPage(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetCatalog 目录详情
// GET /api/v1/catalogs/:id
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	id, ok := MustGetParam(c, "id", "目录ID")
	if !ok {
		return
	}

	catalog, err := h.catalogSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, catalog)
}

// RenameCatalog 重命名目录（乐观锁）
// PUT /api/v1/catalogs/:id
func (h *CatalogHandler) RenameCatalog(c *gin.Context) {
	id, ok := MustGetParam(c, "id", "目录ID")
	if !ok {
		return
	}

	var req dto.RenameCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	catalog, err := h.catalogSvc.Rename(c.Request.Context(), id, &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, catalog)
}

// DeleteCatalog 删除目录
// DELETE /api/v1/catalogs/:id
func (h *CatalogHandler) DeleteCatalog(c *gin.Context) {
	id, ok := MustGetParam(c, "id", "目录ID")
	if !ok {
		return
	}

	if err := h.catalogSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListCourses 目录课程（可搜索）
// GET /api/v1/catalogs/:id/courses?q=
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	id, ok := MustGetParam(c, "id", "目录ID")
	if !ok {
		return
	}

	var query dto.CatalogCourseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.catalogSvc.Courses(c.Request.Context(), id, query.Q)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// handleCatalogError 统一处理课表目录模块业务错误
func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCatalogNotFound):
		response.NotFound(c, 21001, "课表目录不存在")
	case errors.Is(err, service.ErrCatalogVersionConflict):
		response.ErrorWithDetails(c, http.StatusConflict, 21002, "目录已被修改，请刷新后重试", err.Error())
	case errors.Is(err, service.ErrCatalogStorageDisabled):
		response.ServiceUnavailable(c, 21003, "未启用数据库，课表目录不可用")
	default:
		response.InternalError(c)
	}
}

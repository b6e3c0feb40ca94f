package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/dto"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/service"
	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	plannerSvc service.PlannerService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(plannerSvc service.PlannerService) *ExportHandler {
	return &ExportHandler{plannerSvc: plannerSvc}
}

// ExportPlans 导出会话方案
// GET /api/v1/planner/sessions/:sid/export?format=xlsx|ics&plan_id=&start_date=2026-01-10&weeks=14
func (h *ExportHandler) ExportPlans(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	opts := service.ExportOptions{Format: query.Format, Weeks: query.Weeks}
	if query.StartDate != "" {
		start, err := time.Parse(time.DateOnly, query.StartDate)
		if err != nil {
			response.BadRequest(c, 10001, "start_date 格式应为 YYYY-MM-DD")
			return
		}
		opts.StartDate = start
	}

	file, err := h.plannerSvc.Export(sid, query.PlanID, opts)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(file.Filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, file.ContentType, file.Content.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 22001, "规划会话不存在或已过期")
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, 22003, "方案不存在")
	case errors.Is(err, service.ErrExportNoCourses):
		response.UnprocessableEntity(c, 23001, "方案中没有可导出的课程")
	case errors.Is(err, service.ErrExportUnsupportedFormat):
		response.BadRequest(c, 23002, "不支持的导出格式")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/dto"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/service"
	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/pdftext"
	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/response"
)

// RoutineHandler 课表解析模块 HTTP 处理器
type RoutineHandler struct {
	routineSvc service.RoutineService
}

// NewRoutineHandler 创建 RoutineHandler
func NewRoutineHandler(routineSvc service.RoutineService) *RoutineHandler {
	return &RoutineHandler{routineSvc: routineSvc}
}

// Parse 解析课表
// POST /api/v1/routines/parse
//
// multipart/form-data：file（PDF）+ save + name
// application/json：{"text": "...", "save": false, "name": ""}
func (h *RoutineHandler) Parse(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.parseUpload(c)
		return
	}

	var req dto.ParseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.routineSvc.ParseText(c.Request.Context(), req.Text, service.ParseOptions{
		Save: req.Save,
		Name: req.Name,
	})
	if err != nil {
		h.handleRoutineError(c, result, err)
		return
	}
	response.OK(c, result)
}

func (h *RoutineHandler) parseUpload(c *gin.Context) {
	var form dto.ParseUploadForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			response.PayloadTooLarge(c, 20004, "PDF 文件过大")
			return
		}
		response.BadRequest(c, 10001, "缺少 PDF 文件")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, 20005, "无法读取上传的文件")
		return
	}
	defer file.Close()

	result, err := h.routineSvc.ParsePDF(c.Request.Context(), file, header.Size, service.ParseOptions{
		Save: form.Save,
		Name: form.Name,
	})
	if err != nil {
		h.handleRoutineError(c, result, err)
		return
	}
	response.OK(c, result)
}

// Demo 解析示例课表
// GET /api/v1/routines/demo
func (h *RoutineHandler) Demo(c *gin.Context) {
	result, err := h.routineSvc.Demo(c.Request.Context())
	if err != nil {
		h.handleRoutineError(c, result, err)
		return
	}
	response.OK(c, result)
}

// SearchCourses 在提交的课程列表中搜索
// POST /api/v1/courses/search
func (h *RoutineHandler) SearchCourses(c *gin.Context) {
	var req dto.SearchCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	courses := service.FilterCourses(req.Courses, req.Term)
	response.OK(c, dto.SearchCoursesResponse{Courses: courses, Total: len(courses)})
}

// handleRoutineError 统一处理课表解析模块业务错误
// 解析失败时 result 仍携带块数量与警告，一并返回给前端展示。
func (h *RoutineHandler) handleRoutineError(c *gin.Context, result *dto.ParseRoutineResponse, err error) {
	switch {
	case errors.Is(err, service.ErrRoutineEmptyText):
		response.BadRequest(c, 20001, "未能从 PDF 中提取到文本")
	case errors.Is(err, service.ErrMissingHeader):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, 20002, "未找到课表表头，PDF 版式可能不受支持", result)
	case errors.Is(err, service.ErrNoCoursesExtracted):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, 20003, "未能解析出任何课程", result)
	case errors.Is(err, service.ErrPDFTooLarge):
		response.ErrorWithDetails(c, http.StatusRequestEntityTooLarge, 20004, "PDF 文件过大", err.Error())
	case errors.Is(err, pdftext.ErrInvalidPDF):
		response.BadRequest(c, 20005, "文件不是有效的 PDF")
	case errors.Is(err, service.ErrDemoUnavailable):
		response.NotFound(c, 20006, "示例课表不可用")
	case errors.Is(err, service.ErrCatalogStorageDisabled):
		response.ServiceUnavailable(c, 20007, "未启用数据库，无法保存课表目录")
	default:
		response.InternalError(c)
	}
}

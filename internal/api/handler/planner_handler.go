package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/dto"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/service"
	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/response"
)

// PlannerHandler Section Planner 模块 HTTP 处理器
type PlannerHandler struct {
	plannerSvc service.PlannerService
}

// NewPlannerHandler 创建 PlannerHandler
func NewPlannerHandler(plannerSvc service.PlannerService) *PlannerHandler {
	return &PlannerHandler{plannerSvc: plannerSvc}
}

// ════════════════════════════════════════════════════════════
// 会话
// ════════════════════════════════════════════════════════════

// CreateSession 创建规划会话（请求体可省略）
// POST /api/v1/planner/sessions
func (h *PlannerHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sess, err := h.plannerSvc.CreateSession(c.Request.Context(), &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.Created(c, sess)
}

// GetSession 会话状态
// GET /api/v1/planner/sessions/:sid
func (h *PlannerHandler) GetSession(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	sess, err := h.plannerSvc.GetSession(sid)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, sess)
}

// DeleteSession 结束会话
// DELETE /api/v1/planner/sessions/:sid
func (h *PlannerHandler) DeleteSession(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	if err := h.plannerSvc.DeleteSession(sid); err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, nil)
}

// ════════════════════════════════════════════════════════════
// 方案
// ════════════════════════════════════════════════════════════

// AddPlan 新建空方案
// POST /api/v1/planner/sessions/:sid/plans
func (h *PlannerHandler) AddPlan(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	sess, err := h.plannerSvc.AddPlan(sid)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.Created(c, sess)
}

// ImportPlan 以课程列表新建方案
// POST /api/v1/planner/sessions/:sid/plans/import
func (h *PlannerHandler) ImportPlan(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.ImportPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sess, err := h.plannerSvc.ImportPlan(sid, &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.Created(c, sess)
}

// ImportCalendar 由 .ics 文件恢复方案
// POST /api/v1/planner/sessions/:sid/plans/import-ics（multipart：file + name）
func (h *PlannerHandler) ImportCalendar(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			response.PayloadTooLarge(c, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 10001, "缺少日历文件")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, 22012, "无法读取上传的文件")
		return
	}
	defer file.Close()

	result, err := h.plannerSvc.ImportCalendar(sid, file, c.PostForm("name"))
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.Created(c, result)
}

// RenamePlan 重命名方案
// PUT /api/v1/planner/sessions/:sid/plans/:pid
func (h *PlannerHandler) RenamePlan(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}
	pid, ok := MustGetParam(c, "pid", "方案ID")
	if !ok {
		return
	}

	var req dto.RenamePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sess, err := h.plannerSvc.RenamePlan(sid, pid, req.Name)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, sess)
}

// DeletePlan 删除方案
// DELETE /api/v1/planner/sessions/:sid/plans/:pid
func (h *PlannerHandler) DeletePlan(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}
	pid, ok := MustGetParam(c, "pid", "方案ID")
	if !ok {
		return
	}

	sess, err := h.plannerSvc.DeletePlan(sid, pid)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, sess)
}

// ════════════════════════════════════════════════════════════
// 选课
// ════════════════════════════════════════════════════════════

// SelectCourse 选课/取消选课
// POST /api/v1/planner/sessions/:sid/select
func (h *PlannerHandler) SelectCourse(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.SelectCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.plannerSvc.SelectCourse(sid, &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, result)
}

// MoveCourse 在方案间移动/交换课程
// POST /api/v1/planner/sessions/:sid/move
func (h *PlannerHandler) MoveCourse(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.MoveCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sess, err := h.plannerSvc.MoveCourse(sid, &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, sess)
}

// RemoveCourse 从方案中移除课程
// POST /api/v1/planner/sessions/:sid/remove
func (h *PlannerHandler) RemoveCourse(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.RemoveCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sess, err := h.plannerSvc.RemoveCourse(sid, &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, sess)
}

// ClearAll 清空所有方案
// POST /api/v1/planner/sessions/:sid/clear
func (h *PlannerHandler) ClearAll(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	sess, err := h.plannerSvc.ClearAll(sid)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, sess)
}

// CheckConflict 检查课程与方案是否冲突
// POST /api/v1/planner/sessions/:sid/conflicts
func (h *PlannerHandler) CheckConflict(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.plannerSvc.CheckConflict(sid, &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, result)
}

// ════════════════════════════════════════════════════════════
// 目录
// ════════════════════════════════════════════════════════════

// Search 搜索会话目录
// GET /api/v1/planner/sessions/:sid/search?q=
func (h *PlannerHandler) Search(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var query dto.PlannerSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.plannerSvc.Search(sid, query.Q)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, result)
}

// Generate 自动排课
// POST /api/v1/planner/sessions/:sid/generate
func (h *PlannerHandler) Generate(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.plannerSvc.Generate(sid, &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, result)
}

// handlePlannerError 统一处理 Section Planner 模块业务错误
func (h *PlannerHandler) handlePlannerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 22001, "规划会话不存在或已过期")
	case errors.Is(err, service.ErrSessionLimit):
		response.ServiceUnavailable(c, 22002, "当前规划会话数量已达上限，请稍后再试")
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, 22003, "方案不存在")
	case errors.Is(err, service.ErrDuplicateCourseCode):
		response.ErrorWithDetails(c, http.StatusConflict, 22004, "该方案中已存在同一课程的其他班级", err.Error())
	case errors.Is(err, service.ErrLastPlanProtected):
		response.Conflict(c, 22005, "不能删除最后一个方案")
	case errors.Is(err, service.ErrCourseNotInPlan):
		response.NotFound(c, 22006, "课程不在该方案中")
	case errors.Is(err, service.ErrInvalidCourse):
		response.ErrorWithDetails(c, http.StatusBadRequest, 22007, "课程缺少课程代码或班号", err.Error())
	case errors.Is(err, service.ErrSessionCatalogEmpty):
		response.UnprocessableEntity(c, 22008, "会话未包含课程目录")
	case errors.Is(err, service.ErrNoCoursesRequested):
		response.BadRequest(c, 22009, "未指定要排课的课程代码")
	case errors.Is(err, service.ErrCourseCodeNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, 22010, "课程目录中不存在满足条件的班级", err.Error())
	case errors.Is(err, service.ErrNoFeasibleSchedule):
		response.UnprocessableEntity(c, 22011, "找不到无冲突的排课组合")
	case errors.Is(err, service.ErrInvalidCalendar):
		response.ErrorWithDetails(c, http.StatusBadRequest, 22012, "日历文件格式错误", err.Error())
	case errors.Is(err, service.ErrCatalogNotFound):
		response.NotFound(c, 21001, "课表目录不存在")
	case errors.Is(err, service.ErrCatalogStorageDisabled):
		response.ServiceUnavailable(c, 21003, "未启用数据库，课表目录不可用")
	default:
		response.InternalError(c)
	}
}

package dto

import "github.com/Abdullah-Shahriar/UIU-Hub/internal/model"

// ── Section Planner 模块 DTO ──

// CreateSessionRequest 创建规划会话，可选绑定已保存的目录
type CreateSessionRequest struct {
	CatalogID string         `json:"catalog_id" binding:"omitempty,uuid"`
	Courses   []model.Course `json:"courses"` // 未绑定目录时可直接提交课程列表
}

// PlanResponse 单个方案
type PlanResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Courses     []model.Course `json:"courses"`
	CreditTotal int            `json:"credit_total"`
	Conflicts   int            `json:"conflicts"` // 方案内冲突对数
}

// SessionResponse 会话状态
type SessionResponse struct {
	ID            string         `json:"id"`
	CatalogID     string         `json:"catalog_id,omitempty"`
	CatalogSize   int            `json:"catalog_size"`
	Plans         []PlanResponse `json:"plans"`
	SelectedCount int            `json:"selected_count"`
	ExpiresAt     string         `json:"expires_at"`
}

// ImportPlanRequest 以课程列表新建方案
type ImportPlanRequest struct {
	Name    string         `json:"name"    binding:"omitempty,max=100"`
	Courses []model.Course `json:"courses" binding:"required"`
}

// RenamePlanRequest 重命名方案
type RenamePlanRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CourseRef 以 (课程代码, 班号) 引用课程
type CourseRef struct {
	CourseCode string `json:"course_code" binding:"required"`
	Section    string `json:"section"     binding:"required"`
}

// SelectCourseRequest 选课/取消选课；plan_id 为空时按跨方案切换处理
type SelectCourseRequest struct {
	Course model.Course `json:"course" binding:"required"`
	PlanID string       `json:"plan_id"`
}

// SelectCourseResponse 选课结果
type SelectCourseResponse struct {
	Outcome   string          `json:"outcome"` // added | removed
	Conflicts []model.Course  `json:"conflicts"`
	Session   SessionResponse `json:"session"`
}

// MoveCourseRequest 在方案间移动/交换课程
type MoveCourseRequest struct {
	Course     CourseRef `json:"course"       binding:"required"`
	FromPlanID string    `json:"from_plan_id" binding:"required"`
	ToPlanID   string    `json:"to_plan_id"   binding:"required"`
}

// RemoveCourseRequest 从指定方案移除课程
type RemoveCourseRequest struct {
	Course CourseRef `json:"course"  binding:"required"`
	PlanID string    `json:"plan_id" binding:"required"`
}

// ConflictCheckRequest 冲突检查
type ConflictCheckRequest struct {
	Course model.Course `json:"course"  binding:"required"`
	PlanID string       `json:"plan_id" binding:"required"`
}

// ConflictCheckResponse 冲突检查结果
type ConflictCheckResponse struct {
	HasConflict bool           `json:"has_conflict"`
	Conflicts   []model.Course `json:"conflicts"`
}

// GenerateRequest 自动排课
type GenerateRequest struct {
	CourseCodes    []string          `json:"course_codes"    binding:"required,min=1,max=12"`
	PinnedSections map[string]string `json:"pinned_sections"`
	AvoidDays      []string          `json:"avoid_days"      binding:"omitempty,dive,oneof=Sat Sun Mon Tue Wed Thu Fri"`
	MaxPlans       int               `json:"max_plans"       binding:"omitempty,min=1"`
	Import         int               `json:"import"          binding:"omitempty,min=0"` // 将前 N 个结果导入为方案
}

// GeneratedPlanResponse 自动排课候选方案
type GeneratedPlanResponse struct {
	Name     string         `json:"name"`
	Courses  []model.Course `json:"courses"`
	DaysUsed int            `json:"days_used"`
}

// GenerateResponse 自动排课结果
type GenerateResponse struct {
	Plans    []GeneratedPlanResponse `json:"plans"`
	Imported []string                `json:"imported_plan_ids"`
	Session  SessionResponse         `json:"session"`
}

// PlannerSearchQuery 会话内课程搜索
type PlannerSearchQuery struct {
	Q string `form:"q" binding:"omitempty,max=100"`
}

// ExportQuery 导出参数
type ExportQuery struct {
	Format    string `form:"format"     binding:"required,oneof=xlsx ics"`
	PlanID    string `form:"plan_id"`                                          // 为空时导出全部方案
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"` // 日历导出：学期首日
	Weeks     int    `form:"weeks"      binding:"omitempty,min=1,max=26"`
}

// ImportCalendarResponse 日历导入结果
type ImportCalendarResponse struct {
	PlanID    string          `json:"plan_id"`
	Imported  int             `json:"imported"`
	Unmatched []string        `json:"unmatched"`
	Session   SessionResponse `json:"session"`
}

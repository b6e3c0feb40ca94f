package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Abdullah-Shahriar/UIU-Hub/config"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/dto"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

// ── Section Planner 模块业务错误 ──

var (
	ErrInvalidCourse       = errors.New("课程缺少课程代码或班号")
	ErrSessionCatalogEmpty = errors.New("会话未包含课程目录")
)

const calendarImportName = "Imported Calendar"

// PlannerService Section Planner 业务接口
//
// 所有操作都在会话锁内完成：同一会话的请求串行执行，
// 返回的方案均为副本，可在锁外安全使用。
type PlannerService interface {
	// ── 会话 ──
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	GetSession(sid string) (*dto.SessionResponse, error)
	DeleteSession(sid string) error

	// ── 方案 ──
	AddPlan(sid string) (*dto.SessionResponse, error)
	ImportPlan(sid string, req *dto.ImportPlanRequest) (*dto.SessionResponse, error)
	ImportCalendar(sid string, r io.Reader, name string) (*dto.ImportCalendarResponse, error)
	RenamePlan(sid, planID, name string) (*dto.SessionResponse, error)
	DeletePlan(sid, planID string) (*dto.SessionResponse, error)

	// ── 选课 ──
	SelectCourse(sid string, req *dto.SelectCourseRequest) (*dto.SelectCourseResponse, error)
	MoveCourse(sid string, req *dto.MoveCourseRequest) (*dto.SessionResponse, error)
	RemoveCourse(sid string, req *dto.RemoveCourseRequest) (*dto.SessionResponse, error)
	ClearAll(sid string) (*dto.SessionResponse, error)
	CheckConflict(sid string, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)

	// ── 目录 ──
	Search(sid, q string) (*dto.SearchCoursesResponse, error)
	Generate(sid string, req *dto.GenerateRequest) (*dto.GenerateResponse, error)

	// Export 导出会话中的方案；planID 为空时导出全部
	Export(sid, planID string, opts ExportOptions) (*ExportFile, error)
}

type plannerService struct {
	sessions *SessionManager
	catalogs CatalogService
	exporter ExportService
	cfg      *config.PlannerConfig
	logger   *zap.Logger
}

// NewPlannerService 创建 PlannerService 实例
func NewPlannerService(
	cfg *config.PlannerConfig,
	sessions *SessionManager,
	catalogs CatalogService,
	exporter ExportService,
	logger *zap.Logger,
) PlannerService {
	return &plannerService{
		sessions: sessions,
		catalogs: catalogs,
		exporter: exporter,
		cfg:      cfg,
		logger:   logger,
	}
}

// ════════════════════════════════════════════════════════════
// 会话
// ════════════════════════════════════════════════════════════

// CreateSession 新建会话
// 指定 catalog_id 时从已保存目录加载课程，否则使用请求中的课程列表（可为空）。
func (s *plannerService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	catalog := req.Courses
	if req.CatalogID != "" {
		courses, err := s.catalogs.LoadCourses(ctx, req.CatalogID)
		if err != nil {
			return nil, err
		}
		catalog = courses
	} else {
		for _, c := range catalog {
			if err := validateCourse(c); err != nil {
				return nil, err
			}
		}
	}

	sess, err := s.sessions.Create(req.CatalogID, catalog)
	if err != nil {
		return nil, err
	}
	s.logger.Info("规划会话已创建",
		zap.String("session_id", sess.ID),
		zap.String("catalog_id", req.CatalogID),
		zap.Int("catalog_size", len(catalog)),
	)
	return s.read(sess)
}

func (s *plannerService) GetSession(sid string) (*dto.SessionResponse, error) {
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	return s.read(sess)
}

func (s *plannerService) DeleteSession(sid string) error {
	return s.sessions.Delete(sid)
}

// ════════════════════════════════════════════════════════════
// 方案
// ════════════════════════════════════════════════════════════

func (s *plannerService) AddPlan(sid string) (*dto.SessionResponse, error) {
	return s.mutate(sid, func(store *SectionPlanStore, _ []model.Course) error {
		store.AddNewPlan()
		return nil
	})
}

func (s *plannerService) ImportPlan(sid string, req *dto.ImportPlanRequest) (*dto.SessionResponse, error) {
	for _, c := range req.Courses {
		if err := validateCourse(c); err != nil {
			return nil, err
		}
	}
	return s.mutate(sid, func(store *SectionPlanStore, _ []model.Course) error {
		_, err := store.AddPlanFromImport(req.Courses, req.Name)
		return err
	})
}

// ImportCalendar 由导出的 .ics 文件恢复方案，课程需存在于会话目录中
func (s *plannerService) ImportCalendar(sid string, r io.Reader, name string) (*dto.ImportCalendarResponse, error) {
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return nil, err
	}

	var resp dto.ImportCalendarResponse
	err = sess.Do(func(store *SectionPlanStore, catalog []model.Course) error {
		if len(catalog) == 0 {
			return ErrSessionCatalogEmpty
		}
		imported, err := ParsePlanCalendar(r, catalog)
		if err != nil {
			return err
		}
		if len(imported.Courses) == 0 {
			return fmt.Errorf("%w: 日历中没有可识别的课程", ErrInvalidCalendar)
		}

		if strings.TrimSpace(name) == "" {
			name = calendarImportName
		}
		planID, err := store.AddPlanFromImport(imported.Courses, name)
		if err != nil {
			return err
		}

		resp.PlanID = planID
		resp.Imported = len(imported.Courses)
		resp.Unmatched = imported.Unmatched
		resp.Session = s.snapshot(sess, store, catalog)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *plannerService) RenamePlan(sid, planID, name string) (*dto.SessionResponse, error) {
	return s.mutate(sid, func(store *SectionPlanStore, _ []model.Course) error {
		return store.RenamePlan(planID, strings.TrimSpace(name))
	})
}

func (s *plannerService) DeletePlan(sid, planID string) (*dto.SessionResponse, error) {
	return s.mutate(sid, func(store *SectionPlanStore, _ []model.Course) error {
		return store.DeletePlan(planID)
	})
}

// ════════════════════════════════════════════════════════════
// 选课
// ════════════════════════════════════════════════════════════

// SelectCourse 选课/取消选课，加入方案时返回与之冲突的课程（冲突不阻止加入）
func (s *plannerService) SelectCourse(sid string, req *dto.SelectCourseRequest) (*dto.SelectCourseResponse, error) {
	if err := validateCourse(req.Course); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return nil, err
	}

	var resp dto.SelectCourseResponse
	err = sess.Do(func(store *SectionPlanStore, catalog []model.Course) error {
		course := resolveCourse(req.Course, catalog)

		targetID := req.PlanID
		if targetID == "" && !store.IsSelected(course) {
			targetID = store.Plans()[0].ID
		}

		outcome, err := store.SelectCourse(course, req.PlanID)
		if err != nil {
			return err
		}

		resp.Outcome = string(outcome)
		resp.Conflicts = []model.Course{}
		if outcome == SelectAdded {
			plan, err := store.Plan(targetID)
			if err != nil {
				return err
			}
			resp.Conflicts = ConflictingCourses(course, plan)
		}
		resp.Session = s.snapshot(sess, store, catalog)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *plannerService) MoveCourse(sid string, req *dto.MoveCourseRequest) (*dto.SessionResponse, error) {
	return s.mutate(sid, func(store *SectionPlanStore, _ []model.Course) error {
		return store.MoveCourse(refCourse(req.Course), req.FromPlanID, req.ToPlanID)
	})
}

func (s *plannerService) RemoveCourse(sid string, req *dto.RemoveCourseRequest) (*dto.SessionResponse, error) {
	return s.mutate(sid, func(store *SectionPlanStore, _ []model.Course) error {
		return store.RemoveCourse(refCourse(req.Course), req.PlanID)
	})
}

func (s *plannerService) ClearAll(sid string) (*dto.SessionResponse, error) {
	return s.mutate(sid, func(store *SectionPlanStore, _ []model.Course) error {
		store.ClearAll()
		return nil
	})
}

func (s *plannerService) CheckConflict(sid string, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return nil, err
	}

	var resp dto.ConflictCheckResponse
	err = sess.Do(func(store *SectionPlanStore, catalog []model.Course) error {
		plan, err := store.Plan(req.PlanID)
		if err != nil {
			return err
		}
		course := resolveCourse(req.Course, catalog)
		resp.Conflicts = ConflictingCourses(course, plan)
		resp.HasConflict = len(resp.Conflicts) > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 目录：搜索与自动排课
// ════════════════════════════════════════════════════════════

func (s *plannerService) Search(sid, q string) (*dto.SearchCoursesResponse, error) {
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return nil, err
	}

	var resp dto.SearchCoursesResponse
	_ = sess.Do(func(_ *SectionPlanStore, catalog []model.Course) error {
		resp.Courses = FilterCourses(catalog, q)
		resp.Total = len(resp.Courses)
		return nil
	})
	return &resp, nil
}

// Generate 自动排课；Import > 0 时将前 N 个结果导入为新方案
func (s *plannerService) Generate(sid string, req *dto.GenerateRequest) (*dto.GenerateResponse, error) {
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return nil, err
	}

	maxPlans := s.cfg.MaxGeneratedPlans
	if req.MaxPlans > 0 && req.MaxPlans < maxPlans {
		maxPlans = req.MaxPlans
	}

	var resp dto.GenerateResponse
	err = sess.Do(func(store *SectionPlanStore, catalog []model.Course) error {
		if len(catalog) == 0 {
			return ErrSessionCatalogEmpty
		}

		plans, err := GenerateSchedules(catalog, GenerateOptions{
			CourseCodes:    req.CourseCodes,
			PinnedSections: req.PinnedSections,
			AvoidDays:      req.AvoidDays,
			MaxPlans:       maxPlans,
		})
		if err != nil {
			return err
		}

		resp.Plans = make([]dto.GeneratedPlanResponse, 0, len(plans))
		for _, p := range plans {
			resp.Plans = append(resp.Plans, dto.GeneratedPlanResponse{
				Name:     p.Name,
				Courses:  p.Courses,
				DaysUsed: p.DaysUsed,
			})
		}

		resp.Imported = []string{}
		for i := 0; i < req.Import && i < len(plans); i++ {
			id, err := store.AddPlanFromImport(plans[i].Courses, plans[i].Name)
			if err != nil {
				return err
			}
			resp.Imported = append(resp.Imported, id)
		}

		resp.Session = s.snapshot(sess, store, catalog)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("自动排课完成",
		zap.String("session_id", sid),
		zap.Int("candidates", len(resp.Plans)),
		zap.Int("imported", len(resp.Imported)),
	)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 导出
// ════════════════════════════════════════════════════════════

func (s *plannerService) Export(sid, planID string, opts ExportOptions) (*ExportFile, error) {
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return nil, err
	}

	var plans []SectionPlan
	err = sess.Do(func(store *SectionPlanStore, _ []model.Course) error {
		if planID == "" {
			plans = store.Plans()
			return nil
		}
		plan, err := store.Plan(planID)
		if err != nil {
			return err
		}
		plans = []SectionPlan{plan}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 生成文件不需要持有会话锁
	return s.exporter.ExportPlans(plans, opts)
}

// ── 内部辅助方法 ──

// mutate 在会话锁内执行修改并返回修改后的会话状态
func (s *plannerService) mutate(sid string, fn func(store *SectionPlanStore, catalog []model.Course) error) (*dto.SessionResponse, error) {
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return nil, err
	}

	var resp dto.SessionResponse
	err = sess.Do(func(store *SectionPlanStore, catalog []model.Course) error {
		if err := fn(store, catalog); err != nil {
			return err
		}
		resp = s.snapshot(sess, store, catalog)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *plannerService) read(sess *PlannerSession) (*dto.SessionResponse, error) {
	var resp dto.SessionResponse
	_ = sess.Do(func(store *SectionPlanStore, catalog []model.Course) error {
		resp = s.snapshot(sess, store, catalog)
		return nil
	})
	return &resp, nil
}

func (s *plannerService) snapshot(sess *PlannerSession, store *SectionPlanStore, catalog []model.Course) dto.SessionResponse {
	plans := store.Plans()
	out := make([]dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, dto.PlanResponse{
			ID:          p.ID,
			Name:        p.Name,
			Courses:     p.Courses,
			CreditTotal: TotalCredits(p.Courses),
			Conflicts:   len(PlanConflicts(p)),
		})
	}
	return dto.SessionResponse{
		ID:            sess.ID,
		CatalogID:     sess.CatalogID,
		CatalogSize:   len(catalog),
		Plans:         out,
		SelectedCount: len(store.SelectedCourses()),
		ExpiresAt:     s.sessions.ExpiresAt(sess).Format(time.RFC3339),
	}
}

func validateCourse(c model.Course) error {
	if strings.TrimSpace(c.CourseCode) == "" || strings.TrimSpace(c.Section) == "" {
		return fmt.Errorf("%w: %q %q", ErrInvalidCourse, c.CourseCode, c.Section)
	}
	return nil
}

// resolveCourse 以目录中的同一班级记录为准，目录中没有时使用提交的记录
func resolveCourse(c model.Course, catalog []model.Course) model.Course {
	for _, candidate := range catalog {
		if candidate.SameSection(c) {
			return candidate
		}
	}
	return c
}

// refCourse 由 (课程代码, 班号) 构造用于查找的课程
func refCourse(ref dto.CourseRef) model.Course {
	return model.Course{CourseCode: ref.CourseCode, Section: ref.Section}
}

package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

// ── Section Plan 存储 ───────────────────────────────────────
//
// SectionPlanStore 是所有方案与选课状态的唯一持有者。
// 本身不加锁，由调用方（PlannerSession）串行化访问。
// 每个操作先校验、后修改：返回错误时状态保持不变。
// ─────────────────────────────────────────────────────────────

var (
	ErrDuplicateCourseCode = errors.New("该方案中已存在同一课程的其他班级，请使用移动/交换")
	ErrLastPlanProtected   = errors.New("不能删除最后一个方案")
	ErrPlanNotFound        = errors.New("方案不存在")
	ErrCourseNotInPlan     = errors.New("课程不在该方案中")
)

const (
	defaultPlanID     = "1"
	planNamePrefix    = "Section Plan "
	importDefaultName = "Imported Plan"
)

var trailingNumberPattern = regexp.MustCompile(`^(.*?)(\d+)$`)

// SectionPlan 一个命名的选课方案
type SectionPlan struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Courses []model.Course `json:"courses"`
}

func (p *SectionPlan) indexOf(c model.Course) int {
	for i, existing := range p.Courses {
		if existing.SameSection(c) {
			return i
		}
	}
	return -1
}

func (p *SectionPlan) indexOfCode(code string) int {
	for i, existing := range p.Courses {
		if existing.CourseCode == code {
			return i
		}
	}
	return -1
}

func (p *SectionPlan) removeAt(i int) {
	p.Courses = append(p.Courses[:i], p.Courses[i+1:]...)
}

func (p *SectionPlan) clone() SectionPlan {
	courses := make([]model.Course, len(p.Courses))
	copy(courses, p.Courses)
	return SectionPlan{ID: p.ID, Name: p.Name, Courses: courses}
}

// SelectOutcome SelectCourse 的结果
type SelectOutcome string

const (
	SelectAdded   SelectOutcome = "added"
	SelectRemoved SelectOutcome = "removed"
)

// SectionPlanStore 有序的方案集合
type SectionPlanStore struct {
	plans []*SectionPlan
}

// NewSectionPlanStore 创建只含一个空方案 "Section Plan 1" 的存储
func NewSectionPlanStore() *SectionPlanStore {
	return &SectionPlanStore{
		plans: []*SectionPlan{{ID: defaultPlanID, Name: planNamePrefix + defaultPlanID, Courses: []model.Course{}}},
	}
}

// ── 读视图（返回副本） ──

// Plans 返回所有方案的副本
func (s *SectionPlanStore) Plans() []SectionPlan {
	out := make([]SectionPlan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p.clone())
	}
	return out
}

// Plan 返回指定方案的副本
func (s *SectionPlanStore) Plan(id string) (SectionPlan, error) {
	p := s.find(id)
	if p == nil {
		return SectionPlan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return p.clone(), nil
}

// IsSelected 课程（代码+班号）是否出现在任一方案中
func (s *SectionPlanStore) IsSelected(c model.Course) bool {
	for _, p := range s.plans {
		if p.indexOf(c) != -1 {
			return true
		}
	}
	return false
}

// SelectedCourses 所有方案中已选课程的并集（按 代码+班号 去重，保持首次出现顺序）
func (s *SectionPlanStore) SelectedCourses() []model.Course {
	seen := make(map[[2]string]bool)
	out := make([]model.Course, 0)
	for _, p := range s.plans {
		for _, c := range p.Courses {
			key := [2]string{c.CourseCode, c.Section}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

// ── 方案管理 ──

// AddNewPlan 追加空方案 "Section Plan {id}"
func (s *SectionPlanStore) AddNewPlan() string {
	id := s.nextID()
	s.plans = append(s.plans, &SectionPlan{ID: id, Name: planNamePrefix + id, Courses: []model.Course{}})
	return id
}

// AddPlanFromImport 以给定课程创建新方案，名称冲突时追加递增序号
func (s *SectionPlanStore) AddPlanFromImport(courses []model.Course, proposedName string) (string, error) {
	seen := make(map[string]bool, len(courses))
	for _, c := range courses {
		if seen[c.CourseCode] {
			return "", fmt.Errorf("%w: %s", ErrDuplicateCourseCode, c.CourseCode)
		}
		seen[c.CourseCode] = true
	}

	name := strings.TrimSpace(proposedName)
	if name == "" {
		name = importDefaultName
	}

	id := s.nextID()
	copied := make([]model.Course, len(courses))
	copy(copied, courses)
	s.plans = append(s.plans, &SectionPlan{ID: id, Name: s.uniqueName(name), Courses: copied})
	return id, nil
}

// DeletePlan 删除方案，仅剩一个方案时拒绝
func (s *SectionPlanStore) DeletePlan(id string) error {
	idx := s.indexOfPlan(id)
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	if len(s.plans) == 1 {
		return ErrLastPlanProtected
	}
	s.plans = append(s.plans[:idx], s.plans[idx+1:]...)
	return nil
}

// RenamePlan 直接覆盖名称，不做唯一性处理
func (s *SectionPlanStore) RenamePlan(id, name string) error {
	p := s.find(id)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	p.Name = name
	return nil
}

// ── 选课操作 ──

// SelectCourse 选课/取消选课
//
// targetPlanID 为空时：课程已在任一方案中则从所有方案移除；否则加入第一个方案。
// 目标方案中已有同一班级则移除；已有同课程其他班级则返回 ErrDuplicateCourseCode。
func (s *SectionPlanStore) SelectCourse(c model.Course, targetPlanID string) (SelectOutcome, error) {
	if targetPlanID == "" {
		if s.IsSelected(c) {
			for _, p := range s.plans {
				if i := p.indexOf(c); i != -1 {
					p.removeAt(i)
				}
			}
			return SelectRemoved, nil
		}
		targetPlanID = s.plans[0].ID
	}

	target := s.find(targetPlanID)
	if target == nil {
		return "", fmt.Errorf("%w: %s", ErrPlanNotFound, targetPlanID)
	}

	if i := target.indexOf(c); i != -1 {
		target.removeAt(i)
		return SelectRemoved, nil
	}
	if target.indexOfCode(c.CourseCode) != -1 {
		return "", fmt.Errorf("%w: %s 已在 %s 中", ErrDuplicateCourseCode, c.CourseCode, target.Name)
	}

	target.Courses = append(target.Courses, c)
	return SelectAdded, nil
}

// MoveCourse 将课程从一个方案移到另一个方案
// 目标方案已有同课程代码的记录时，两条记录原位交换。
func (s *SectionPlanStore) MoveCourse(c model.Course, fromPlanID, toPlanID string) error {
	from := s.find(fromPlanID)
	if from == nil {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, fromPlanID)
	}
	to := s.find(toPlanID)
	if to == nil {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, toPlanID)
	}

	src := from.indexOf(c)
	if src == -1 {
		return fmt.Errorf("%w: %s %s", ErrCourseNotInPlan, c.CourseCode, c.Section)
	}

	if dst := to.indexOfCode(c.CourseCode); dst != -1 {
		from.Courses[src], to.Courses[dst] = to.Courses[dst], from.Courses[src]
		return nil
	}

	moving := from.Courses[src]
	from.removeAt(src)
	to.Courses = append(to.Courses, moving)
	return nil
}

// RemoveCourse 从指定方案移除课程（不影响其他方案）
func (s *SectionPlanStore) RemoveCourse(c model.Course, planID string) error {
	p := s.find(planID)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	if i := p.indexOf(c); i != -1 {
		p.removeAt(i)
	}
	return nil
}

// ClearAll 清空所有方案中的课程，方案本身保留
func (s *SectionPlanStore) ClearAll() {
	for _, p := range s.plans {
		p.Courses = []model.Course{}
	}
}

// ── 内部辅助 ──

func (s *SectionPlanStore) find(id string) *SectionPlan {
	if i := s.indexOfPlan(id); i != -1 {
		return s.plans[i]
	}
	return nil
}

func (s *SectionPlanStore) indexOfPlan(id string) int {
	for i, p := range s.plans {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// nextID 现有数字 ID 的最大值 + 1
func (s *SectionPlanStore) nextID() string {
	maxID := 0
	for _, p := range s.plans {
		if n, err := strconv.Atoi(p.ID); err == nil && n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}

// uniqueName "Schedule 1" 已存在时依次尝试 "Schedule 2"、"Schedule 3" ...
func (s *SectionPlanStore) uniqueName(proposed string) string {
	base := proposed
	if m := trailingNumberPattern.FindStringSubmatch(proposed); m != nil {
		base = strings.TrimSpace(m[1])
	}

	name := proposed
	for n := 2; s.hasName(name); n++ {
		name = fmt.Sprintf("%s %d", base, n)
	}
	return name
}

func (s *SectionPlanStore) hasName(name string) bool {
	for _, p := range s.plans {
		if p.Name == name {
			return true
		}
	}
	return false
}

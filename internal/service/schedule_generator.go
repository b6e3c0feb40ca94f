package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

// ── 自动排课 ────────────────────────────────────────────────
//
// 对每个请求的课程代码恰好选择一个班级，枚举所有互不冲突的组合。
// 深度优先 + 冲突剪枝；候选班级最少的课程先展开；结果数量有上限。
// 生成的方案命名为 "Schedule 1"、"Schedule 2"…，可通过 AddPlanFromImport 导入。
// ─────────────────────────────────────────────────────────────

var (
	ErrNoCoursesRequested = errors.New("未指定要排课的课程代码")
	ErrCourseCodeNotFound = errors.New("课程目录中不存在满足条件的班级")
	ErrNoFeasibleSchedule = errors.New("找不到无冲突的排课组合")
)

const generatedPlanPrefix = "Schedule "

// GenerateOptions 自动排课参数
type GenerateOptions struct {
	CourseCodes    []string          // 需要排入的课程代码
	PinnedSections map[string]string // 课程代码 → 固定班号
	AvoidDays      []string          // 不希望上课的星期
	MaxPlans       int               // 结果上限
}

// GeneratedPlan 一个候选方案
type GeneratedPlan struct {
	Name     string         `json:"name"`
	Courses  []model.Course `json:"courses"`
	DaysUsed int            `json:"days_used"`
}

type sectionGroup struct {
	code       string
	order      int
	candidates []model.Course
}

// GenerateSchedules 从课程目录生成无冲突的候选方案
//
// 结果按上课天数升序排列（相同天数保持搜索顺序）。
// 达到 MaxPlans 后停止搜索。
func GenerateSchedules(catalog []model.Course, opts GenerateOptions) ([]GeneratedPlan, error) {
	groups, err := buildSectionGroups(catalog, opts)
	if err != nil {
		return nil, err
	}

	// 候选最少的课程先展开，尽早剪枝
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].candidates) < len(groups[j].candidates)
	})

	limit := opts.MaxPlans
	if limit <= 0 {
		limit = 1
	}

	var (
		found  [][]model.Course
		picked = make([]model.Course, 0, len(groups))
		orders = make([]int, 0, len(groups))
	)

	var dfs func(gi int)
	dfs = func(gi int) {
		if len(found) >= limit {
			return
		}
		if gi == len(groups) {
			found = append(found, inRequestOrder(picked, orders))
			return
		}

		g := groups[gi]
		for _, cand := range g.candidates {
			if clashesWithAny(cand, picked) {
				continue
			}
			picked = append(picked, cand)
			orders = append(orders, g.order)
			dfs(gi + 1)
			picked = picked[:len(picked)-1]
			orders = orders[:len(orders)-1]
			if len(found) >= limit {
				return
			}
		}
	}
	dfs(0)

	if len(found) == 0 {
		return nil, ErrNoFeasibleSchedule
	}

	plans := make([]GeneratedPlan, 0, len(found))
	for _, courses := range found {
		plans = append(plans, GeneratedPlan{Courses: courses, DaysUsed: countDays(courses)})
	}
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].DaysUsed < plans[j].DaysUsed
	})
	for i := range plans {
		plans[i].Name = fmt.Sprintf("%s%d", generatedPlanPrefix, i+1)
	}
	return plans, nil
}

// buildSectionGroups 按请求的课程代码收集候选班级，并应用固定班号与避开星期
func buildSectionGroups(catalog []model.Course, opts GenerateOptions) ([]sectionGroup, error) {
	if len(opts.CourseCodes) == 0 {
		return nil, ErrNoCoursesRequested
	}

	avoid := make(map[string]bool, len(opts.AvoidDays))
	for _, d := range opts.AvoidDays {
		avoid[d] = true
	}
	pinned := make(map[string]string, len(opts.PinnedSections))
	for code, section := range opts.PinnedSections {
		pinned[normalizeCode(code)] = strings.ToUpper(strings.TrimSpace(section))
	}

	groups := make([]sectionGroup, 0, len(opts.CourseCodes))
	seenCode := make(map[string]bool)
	for _, raw := range opts.CourseCodes {
		code := normalizeCode(raw)
		if code == "" || seenCode[code] {
			continue
		}
		seenCode[code] = true

		g := sectionGroup{code: code, order: len(groups)}
		seenSection := make(map[string]bool)
		for _, c := range catalog {
			if normalizeCode(c.CourseCode) != code || seenSection[c.Section] {
				continue
			}
			if want, ok := pinned[code]; ok && c.Section != want {
				continue
			}
			if onAvoidedDay(c, avoid) {
				continue
			}
			seenSection[c.Section] = true
			g.candidates = append(g.candidates, c)
		}
		if len(g.candidates) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrCourseCodeNotFound, code)
		}
		groups = append(groups, g)
	}
	if len(groups) == 0 {
		return nil, ErrNoCoursesRequested
	}
	return groups, nil
}

func clashesWithAny(c model.Course, picked []model.Course) bool {
	for _, p := range picked {
		if coursesClash(c, p) {
			return true
		}
	}
	return false
}

func onAvoidedDay(c model.Course, avoid map[string]bool) bool {
	for _, d := range c.Days() {
		if avoid[d] {
			return true
		}
	}
	return false
}

func inRequestOrder(picked []model.Course, orders []int) []model.Course {
	out := make([]model.Course, len(picked))
	for i, c := range picked {
		out[orders[i]] = c
	}
	return out
}

func countDays(courses []model.Course) int {
	days := make(map[string]bool)
	for _, c := range courses {
		for _, d := range c.Days() {
			days[d] = true
		}
	}
	return len(days)
}

func normalizeCode(code string) string {
	return strings.ToUpper(collapseSpaces(code))
}

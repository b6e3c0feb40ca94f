package service

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

// ── ICS 导入 ────────────────────────────────────────────────
//
// 将本服务导出的 .ics 文件还原为课程列表，用于在新会话中恢复方案。
//   - 优先读取 X-UIU-COURSE 属性（"课程代码|班号"）
//   - 缺失时按 SUMMARY "CODE Title (SECTION)" 识别
//   - 课程以当前会话目录中的记录为准，目录中不存在的事件计入未匹配
//   - 同一课程的多个事件（不同星期）只保留一次
// ─────────────────────────────────────────────────────────────

const icsMaxFileSize = 2 * 1024 * 1024 // 2MB

var ErrInvalidCalendar = errors.New("日历文件格式错误")

var icsSummaryPattern = regexp.MustCompile(`^([A-Za-z]{2,4}\s+\d{3,4}[A-Za-z]?)\b.*\(([A-Za-z]{1,2})\)\s*$`)

// CalendarImport 日历导入结果
type CalendarImport struct {
	Courses   []model.Course
	Unmatched []string // 无法在目录中找到的事件摘要
}

// ParsePlanCalendar 解析日历并在目录中查找对应课程
func ParsePlanCalendar(r io.Reader, catalog []model.Course) (*CalendarImport, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}

	index := make(map[[2]string]model.Course, len(catalog))
	for _, c := range catalog {
		index[[2]string{normalizeCode(c.CourseCode), strings.ToUpper(c.Section)}] = c
	}

	result := &CalendarImport{Courses: []model.Course{}, Unmatched: []string{}}
	seen := make(map[[2]string]bool)
	for _, evt := range cal.Events() {
		key, label, ok := courseKeyOf(evt)
		if !ok {
			result.Unmatched = append(result.Unmatched, label)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		c, found := index[key]
		if !found {
			result.Unmatched = append(result.Unmatched, label)
			continue
		}
		result.Courses = append(result.Courses, c)
	}
	return result, nil
}

// courseKeyOf 从事件中取出 (课程代码, 班号)；label 用于报告未匹配项
func courseKeyOf(evt *ics.VEvent) ([2]string, string, bool) {
	label := ""
	if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil {
		label = p.Value
	}

	if p := evt.GetProperty(icsCourseProperty); p != nil {
		if code, section, ok := strings.Cut(p.Value, "|"); ok && code != "" && section != "" {
			if label == "" {
				label = code + " (" + section + ")"
			}
			return [2]string{normalizeCode(code), strings.ToUpper(section)}, label, true
		}
	}

	m := icsSummaryPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return [2]string{}, label, false
	}
	return [2]string{normalizeCode(m[1]), strings.ToUpper(m[2])}, label, true
}

package service

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Abdullah-Shahriar/UIU-Hub/config"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoCourses         = errors.New("方案中没有可导出的课程")
	ErrExportUnsupportedFormat = errors.New("不支持的导出格式")
	ErrExportGenerateFail      = errors.New("生成导出文件失败")
)

// 导出格式
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatICS  = "ics"
)

// 自定义日历属性，导入日历时据此还原课程
const icsCourseProperty ics.ComponentProperty = "X-UIU-COURSE"

const excelSheetNameLimit = 31

// weekdayOf 课表星期缩写 → time.Weekday
var weekdayOf = map[string]time.Weekday{
	"Sat": time.Saturday,
	"Sun": time.Sunday,
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
}

// ExportOptions 导出参数
type ExportOptions struct {
	Format    string
	StartDate time.Time // 日历导出：学期首日，零值表示今天
	Weeks     int       // 日历导出：重复周数，0 表示使用配置
}

// ExportFile 导出结果
type ExportFile struct {
	Content     *bytes.Buffer
	Filename    string
	ContentType string
}

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
//   - xlsx：每个方案一个 Sheet，冲突课程整行标红，末行合计学分
//   - ics：每门课每个上课星期一个按周重复的事件
type ExportService interface {
	ExportPlans(plans []SectionPlan, opts ExportOptions) (*ExportFile, error)
}

type exportService struct {
	cfg    *config.ExportConfig
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.ExportConfig, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, logger: logger}
}

func (s *exportService) ExportPlans(plans []SectionPlan, opts ExportOptions) (*ExportFile, error) {
	if countCourses(plans) == 0 {
		return nil, ErrExportNoCourses
	}

	switch opts.Format {
	case ExportFormatXLSX:
		buf, err := s.buildWorkbook(plans)
		if err != nil {
			s.logger.Error("写入 Excel 失败", zap.Error(err))
			return nil, ErrExportGenerateFail
		}
		return &ExportFile{
			Content:     buf,
			Filename:    exportFilename(plans, "xlsx"),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}, nil
	case ExportFormatICS:
		return s.buildCalendar(plans, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrExportUnsupportedFormat, opts.Format)
	}
}

// ═══════════════════════════════════════════════════════════
// Excel
// ═══════════════════════════════════════════════════════════
//
// 每个 Sheet：
//   - 第 1 行：方案名称（合并单元格）
//   - 第 2 行：表头
//   - 数据行：按方案内顺序
//   - 末行：学分合计

var excelHeaders = []string{
	"Course Code", "Title", "Section", "Day 1", "Time 1", "Day 2", "Time 2",
	"Room 1", "Room 2", "Faculty", "Initial", "Credit",
}

var excelColWidths = []float64{12, 40, 9, 8, 20, 8, 20, 9, 9, 28, 9, 8}

func (s *exportService) buildWorkbook(plans []SectionPlan) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F47B20"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	conflictStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8D7DA"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool)
	lastCol := colName(len(excelHeaders) - 1)

	for i, plan := range plans {
		sheet := uniqueSheetName(plan.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}

		for col, w := range excelColWidths {
			name := colName(col)
			_ = f.SetColWidth(sheet, name, name, w)
		}

		_ = f.SetCellValue(sheet, "A1", plan.Name)
		_ = f.MergeCell(sheet, "A1", cell(lastCol, 1))
		_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

		for col, h := range excelHeaders {
			_ = f.SetCellValue(sheet, cell(colName(col), 2), h)
		}
		_ = f.SetCellStyle(sheet, "A2", cell(lastCol, 2), headerStyle)

		clashing := conflictKeys(plan)
		row := 3
		for _, c := range plan.Courses {
			values := []interface{}{
				c.CourseCode, c.Title, c.Section, c.Day1, c.Time1, c.Day2, c.Time2,
				c.Room1, c.Room2, c.FacultyName, c.FacultyInitial, creditValue(c.Credit),
			}
			if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
				return nil, err
			}
			if clashing[[2]string{c.CourseCode, c.Section}] {
				_ = f.SetCellStyle(sheet, cell("A", row), cell(lastCol, row), conflictStyle)
			}
			row++
		}

		_ = f.SetCellValue(sheet, cell(colName(len(excelHeaders)-2), row), "Total")
		_ = f.SetCellValue(sheet, cell(lastCol, row), TotalCredits(plan.Courses))
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// uniqueSheetName 清理 Excel 不允许的字符并截断到 31 字符，重名时追加序号
func uniqueSheetName(name string, used map[string]bool) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	cleaned = strings.Trim(cleaned, "'")
	if cleaned == "" {
		cleaned = "Plan"
	}
	cleaned = truncateRunes(cleaned, excelSheetNameLimit)

	candidate := cleaned
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		candidate = truncateRunes(cleaned, excelSheetNameLimit-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// ═══════════════════════════════════════════════════════════
// iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每门课的每个上课星期生成一个事件：
//   - 首次上课为学期首日当天或之后的第一个对应星期
//   - 第 i 个星期使用第 i 个时间段，缺失时回退到第一个时间段
//   - 时间无法解析（TBA）的课程跳过
//   - RRULE:FREQ=WEEKLY;COUNT=weeks

func (s *exportService) buildCalendar(plans []SectionPlan, opts ExportOptions) (*ExportFile, error) {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		s.logger.Warn("导出时区无效，使用 UTC", zap.String("timezone", s.cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	// 学期首日只取年月日，按导出时区解释
	start := opts.StartDate
	if start.IsZero() {
		start = time.Now().In(loc)
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	weeks := opts.Weeks
	if weeks <= 0 {
		weeks = s.cfg.Weeks
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//UIU Hub//Section Planner//EN")
	cal.SetXWRCalName(calendarName(plans))
	cal.SetXWRTimezone(loc.String())

	stamp := time.Now().UTC()
	events := 0
	for _, plan := range plans {
		for _, c := range plan.Courses {
			for i, day := range []string{c.Day1, c.Day2} {
				weekday, ok := weekdayOf[day]
				if !ok {
					continue
				}
				span := c.Time1
				if i == 1 && c.Time2 != "" {
					span = c.Time2
				}
				tr, ok := ParseTimeRange(span)
				if !ok {
					continue
				}

				first := nextWeekday(start, weekday)
				uid := fmt.Sprintf("%s-%s-%s-%d@uiu-hub",
					plan.ID, strings.ReplaceAll(c.CourseCode, " ", ""), c.Section, i+1)

				event := cal.AddEvent(uid)
				event.SetDtStampTime(stamp)
				event.SetStartAt(first.Add(time.Duration(tr.Start) * time.Minute))
				event.SetEndAt(first.Add(time.Duration(tr.End) * time.Minute))
				event.SetSummary(fmt.Sprintf("%s %s (%s)", c.CourseCode, c.Title, c.Section))
				event.SetLocation(roomLabel(c, i))
				event.SetDescription(fmt.Sprintf("Faculty: %s (%s)\nCredit: %s\nPlan: %s",
					c.FacultyName, c.FacultyInitial, c.Credit, plan.Name))
				event.SetProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
				event.SetProperty(icsCourseProperty, c.CourseCode+"|"+c.Section)
				events++
			}
		}
	}
	if events == 0 {
		return nil, fmt.Errorf("%w: 所有课程均无固定上课时间", ErrExportNoCourses)
	}

	buf := new(bytes.Buffer)
	if err := cal.SerializeTo(buf); err != nil {
		s.logger.Error("写入日历失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ExportFile{
		Content:     buf,
		Filename:    exportFilename(plans, "ics"),
		ContentType: "text/calendar; charset=utf-8",
	}, nil
}

// nextWeekday 返回 from 当天或之后第一个指定星期的零点
func nextWeekday(from time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}

func roomLabel(c model.Course, i int) string {
	room := c.Room1
	if i == 1 && c.Room2 != "" {
		room = c.Room2
	}
	if room == "" || room == "TBA" {
		return "TBA"
	}
	return "Room " + room
}

func calendarName(plans []SectionPlan) string {
	if len(plans) == 1 {
		return plans[0].Name
	}
	return "UIU Section Plans"
}

// ── 辅助函数 ──

// TotalCredits 方案学分合计，无法解析的学分按 0 计
func TotalCredits(courses []model.Course) int {
	total := 0
	for _, c := range courses {
		n, _ := strconv.Atoi(c.Credit)
		total += n
	}
	return total
}

func countCourses(plans []SectionPlan) int {
	n := 0
	for _, p := range plans {
		n += len(p.Courses)
	}
	return n
}

func conflictKeys(plan SectionPlan) map[[2]string]bool {
	keys := make(map[[2]string]bool)
	for _, pc := range PlanConflicts(plan) {
		keys[[2]string{pc.A.CourseCode, pc.A.Section}] = true
		keys[[2]string{pc.B.CourseCode, pc.B.Section}] = true
	}
	return keys
}

func creditValue(credit string) interface{} {
	if n, err := strconv.Atoi(credit); err == nil {
		return n
	}
	return credit
}

func exportFilename(plans []SectionPlan, ext string) string {
	base := "section-plans"
	if len(plans) == 1 {
		base = strings.Join(strings.Fields(strings.ToLower(plans[0].Name)), "-")
		base = strings.Map(func(r rune) rune {
			switch r {
			case '/', '\\', '"', ':':
				return '-'
			}
			return r
		}, base)
	}
	return fmt.Sprintf("%s.%s", base, ext)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

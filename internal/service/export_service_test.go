package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Abdullah-Shahriar/UIU-Hub/config"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() ExportService {
	return NewExportService(&config.ExportConfig{Timezone: "Asia/Dhaka", Weeks: 14}, zap.NewNop())
}

func exportFixturePlans() []SectionPlan {
	dsa := timedCourse("CSE 2218", "A", "Sat", "Tue", "8:30:AM - 9:50:AM", "")
	dsa.Title, dsa.Room1, dsa.Room2, dsa.Credit = "Data Structures", "301", "302", "3"
	calc := timedCourse("MATH 1151", "B", "Sat", "", "9:00:AM - 10:20:AM", "")
	calc.Title, calc.Room1, calc.Credit = "Fundamental Calculus", "TBA", "3"
	lab := timedCourse("CSE 1112", "C", "Thu", "", "TBA", "")
	lab.Credit = "1"

	return []SectionPlan{
		{ID: "1", Name: "Plan: A/B", Courses: []model.Course{dsa, calc}},
		{ID: "2", Name: "Labs", Courses: []model.Course{lab}},
	}
}

// ── Excel ──

func TestExportService_XLSX(t *testing.T) {
	svc := setupTestExportService()

	file, err := svc.ExportPlans(exportFixturePlans(), ExportOptions{Format: ExportFormatXLSX})
	if err != nil {
		t.Fatalf("ExportPlans 应成功: %v", err)
	}
	if file.Filename != "section-plans.xlsx" {
		t.Errorf("文件名期望 section-plans.xlsx，实际 %s", file.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(file.Content.Bytes()))
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Plan- A-B" || sheets[1] != "Labs" {
		t.Fatalf("Sheet 名称不符: %v", sheets)
	}

	title, _ := f.GetCellValue(sheets[0], "A1")
	if title != "Plan: A/B" {
		t.Errorf("标题期望 Plan: A/B，实际 %q", title)
	}
	code, _ := f.GetCellValue(sheets[0], "A3")
	time1, _ := f.GetCellValue(sheets[0], "E3")
	if code != "CSE 2218" || time1 != "8:30:AM - 9:50:AM" {
		t.Errorf("数据行不符: %q %q", code, time1)
	}
	total, _ := f.GetCellValue(sheets[0], "L5")
	if total != "6" {
		t.Errorf("学分合计期望 6，实际 %q", total)
	}

	// 冲突行与普通行样式不同
	conflictStyle, _ := f.GetCellStyle(sheets[0], "A3")
	plainStyle, _ := f.GetCellStyle(sheets[1], "A3")
	if conflictStyle == plainStyle {
		t.Error("冲突课程应高亮")
	}
}

func TestUniqueSheetName(t *testing.T) {
	used := make(map[string]bool)
	long := strings.Repeat("x", 40)

	if got := uniqueSheetName("Plan [1]?", used); got != "Plan -1--" {
		t.Errorf("期望替换非法字符，实际 %q", got)
	}
	first := uniqueSheetName(long, used)
	second := uniqueSheetName(long, used)
	if len([]rune(first)) != 31 || len([]rune(second)) != 31 {
		t.Errorf("Sheet 名称应截断到 31 字符: %q %q", first, second)
	}
	if !strings.HasSuffix(second, " (2)") {
		t.Errorf("重名应追加序号，实际 %q", second)
	}
	if got := uniqueSheetName("   ", used); got != "Plan" {
		t.Errorf("空名称期望 Plan，实际 %q", got)
	}
}

// ── iCalendar ──

func TestExportService_ICS(t *testing.T) {
	svc := setupTestExportService()
	start := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC) // 周四

	file, err := svc.ExportPlans(exportFixturePlans()[:1], ExportOptions{
		Format:    ExportFormatICS,
		StartDate: start,
		Weeks:     12,
	})
	if err != nil {
		t.Fatalf("ExportPlans 应成功: %v", err)
	}
	if file.Filename != "plan--a-b.ics" {
		t.Errorf("文件名不符: %s", file.Filename)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(file.Content.String()))
	if err != nil {
		t.Fatalf("解析导出日历失败: %v", err)
	}
	events := cal.Events()
	// CSE 2218：Sat + Tue，MATH 1151：Sat
	if len(events) != 3 {
		t.Fatalf("期望 3 个事件，实际 %d", len(events))
	}

	dhaka, _ := time.LoadLocation("Asia/Dhaka")
	first := events[0]
	startAt, err := first.GetStartAt()
	if err != nil {
		t.Fatalf("读取 DTSTART 失败: %v", err)
	}
	want := time.Date(2026, 1, 10, 8, 30, 0, 0, dhaka) // 首个周六
	if !startAt.Equal(want) {
		t.Errorf("DTSTART 期望 %v，实际 %v", want, startAt)
	}
	if rrule := first.GetProperty(ics.ComponentPropertyRrule); rrule == nil || rrule.Value != "FREQ=WEEKLY;COUNT=12" {
		t.Errorf("RRULE 不符: %+v", rrule)
	}
	if loc := first.GetProperty(ics.ComponentPropertyLocation); loc == nil || loc.Value != "Room 301" {
		t.Errorf("LOCATION 不符: %+v", loc)
	}

	// 第二个上课日使用第二个教室
	tue := events[1]
	if loc := tue.GetProperty(ics.ComponentPropertyLocation); loc == nil || loc.Value != "Room 302" {
		t.Errorf("第二个上课日 LOCATION 不符: %+v", loc)
	}
	tueStart, _ := tue.GetStartAt()
	if want := time.Date(2026, 1, 13, 8, 30, 0, 0, dhaka); !tueStart.Equal(want) {
		t.Errorf("周二 DTSTART 期望 %v，实际 %v", want, tueStart)
	}
}

func TestExportService_ICS_NoTimedCourses(t *testing.T) {
	svc := setupTestExportService()

	_, err := svc.ExportPlans(exportFixturePlans()[1:], ExportOptions{Format: ExportFormatICS})
	if !errors.Is(err, ErrExportNoCourses) {
		t.Errorf("期望 ErrExportNoCourses，实际: %v", err)
	}
}

func TestExportService_Errors(t *testing.T) {
	svc := setupTestExportService()

	if _, err := svc.ExportPlans([]SectionPlan{{ID: "1", Name: "Empty"}}, ExportOptions{Format: ExportFormatXLSX}); !errors.Is(err, ErrExportNoCourses) {
		t.Errorf("期望 ErrExportNoCourses，实际: %v", err)
	}
	if _, err := svc.ExportPlans(exportFixturePlans(), ExportOptions{Format: "pdf"}); !errors.Is(err, ErrExportUnsupportedFormat) {
		t.Errorf("期望 ErrExportUnsupportedFormat，实际: %v", err)
	}
}

func TestParsePlanCalendar_SummaryFallback(t *testing.T) {
	raw := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
		"BEGIN:VEVENT\r\nUID:1\r\nSUMMARY:CSE 2218 Data Structures (A)\r\nEND:VEVENT\r\n" +
		"BEGIN:VEVENT\r\nUID:2\r\nSUMMARY:Gym\r\nEND:VEVENT\r\n" +
		"BEGIN:VEVENT\r\nUID:3\r\nSUMMARY:PHY 1101 Physics (C)\r\nEND:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
	catalog := []model.Course{newCourse("CSE 2218", "A"), newCourse("CSE 2218", "B")}

	got, err := ParsePlanCalendar(strings.NewReader(raw), catalog)
	if err != nil {
		t.Fatalf("ParsePlanCalendar 应成功: %v", err)
	}
	if len(got.Courses) != 1 || got.Courses[0].Section != "A" || got.Courses[0].Title != "CSE 2218 title" {
		t.Errorf("课程不符: %+v", got.Courses)
	}
	if len(got.Unmatched) != 2 {
		t.Errorf("期望 2 个未匹配事件，实际: %v", got.Unmatched)
	}
}

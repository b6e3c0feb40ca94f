package service

import (
	"errors"
	"testing"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

func newCourse(code, section string) model.Course {
	return model.Course{Program: "BSCSE", CourseCode: code, Section: section, Title: code + " title"}
}

func TestNewSectionPlanStore(t *testing.T) {
	s := NewSectionPlanStore()
	plans := s.Plans()
	if len(plans) != 1 {
		t.Fatalf("期望 1 个方案, 实际 %d", len(plans))
	}
	if plans[0].ID != "1" || plans[0].Name != "Section Plan 1" {
		t.Errorf("默认方案错误: %+v", plans[0])
	}
	if plans[0].Courses == nil {
		t.Error("课程列表应为空切片而非 nil")
	}
}

// ════════════════════════════════════════════════════════════
// SelectCourse
// ════════════════════════════════════════════════════════════

func TestSelectCourse_Toggle(t *testing.T) {
	s := NewSectionPlanStore()
	c := newCourse("CSE 2218", "A")

	outcome, err := s.SelectCourse(c, "1")
	if err != nil || outcome != SelectAdded {
		t.Fatalf("首次选择期望 added, 实际 %v, err=%v", outcome, err)
	}
	outcome, err = s.SelectCourse(c, "1")
	if err != nil || outcome != SelectRemoved {
		t.Fatalf("再次选择期望 removed, 实际 %v, err=%v", outcome, err)
	}
	if p, _ := s.Plan("1"); len(p.Courses) != 0 {
		t.Errorf("两次选择后期望 0 门课, 实际 %d", len(p.Courses))
	}
}

func TestSelectCourse_DuplicateCodeRejected(t *testing.T) {
	s := NewSectionPlanStore()
	if _, err := s.SelectCourse(newCourse("CSE 2218", "A"), "1"); err != nil {
		t.Fatalf("选课失败: %v", err)
	}

	_, err := s.SelectCourse(newCourse("CSE 2218", "B"), "1")
	if !errors.Is(err, ErrDuplicateCourseCode) {
		t.Fatalf("期望 ErrDuplicateCourseCode, 实际: %v", err)
	}
	p, _ := s.Plan("1")
	if len(p.Courses) != 1 || p.Courses[0].Section != "A" {
		t.Errorf("被拒绝后方案应保持不变, 实际 %+v", p.Courses)
	}
}

func TestSelectCourse_NoTargetTogglesAcrossPlans(t *testing.T) {
	s := NewSectionPlanStore()
	id2 := s.AddNewPlan()
	c := newCourse("CSE 2218", "A")

	// 未指定方案且未选中：加入第一个方案
	if outcome, _ := s.SelectCourse(c, ""); outcome != SelectAdded {
		t.Fatalf("期望 added, 实际 %v", outcome)
	}
	if _, err := s.SelectCourse(c, id2); err != nil {
		t.Fatalf("加入方案 %s 失败: %v", id2, err)
	}
	if !s.IsSelected(c) {
		t.Fatal("课程应处于已选状态")
	}

	// 未指定方案且已选中：从所有方案移除
	if outcome, _ := s.SelectCourse(c, ""); outcome != SelectRemoved {
		t.Fatalf("期望 removed, 实际 %v", outcome)
	}
	for _, p := range s.Plans() {
		if len(p.Courses) != 0 {
			t.Errorf("方案 %s 仍有课程: %+v", p.ID, p.Courses)
		}
	}
}

func TestSelectCourse_UnknownPlan(t *testing.T) {
	s := NewSectionPlanStore()
	if _, err := s.SelectCourse(newCourse("CSE 2218", "A"), "99"); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("期望 ErrPlanNotFound, 实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// MoveCourse
// ════════════════════════════════════════════════════════════

func TestMoveCourse_Swap(t *testing.T) {
	s := NewSectionPlanStore()
	id2 := s.AddNewPlan()
	a := newCourse("CSE 2218", "A")
	b := newCourse("CSE 2218", "B")
	other := newCourse("MATH 1151", "C")

	mustSelect(t, s, a, "1")
	mustSelect(t, s, other, "1")
	mustSelect(t, s, b, id2)

	if err := s.MoveCourse(a, "1", id2); err != nil {
		t.Fatalf("MoveCourse 失败: %v", err)
	}

	p1, _ := s.Plan("1")
	p2, _ := s.Plan(id2)
	if len(p1.Courses) != 2 || p1.Courses[0].Section != "B" {
		t.Errorf("源方案应原位换成 B 班, 实际 %+v", p1.Courses)
	}
	if len(p2.Courses) != 1 || p2.Courses[0].Section != "A" {
		t.Errorf("目标方案应换成 A 班, 实际 %+v", p2.Courses)
	}
}

func TestMoveCourse_Move(t *testing.T) {
	s := NewSectionPlanStore()
	id2 := s.AddNewPlan()
	a := newCourse("CSE 2218", "A")
	mustSelect(t, s, a, "1")

	if err := s.MoveCourse(a, "1", id2); err != nil {
		t.Fatalf("MoveCourse 失败: %v", err)
	}
	p1, _ := s.Plan("1")
	p2, _ := s.Plan(id2)
	if len(p1.Courses) != 0 || len(p2.Courses) != 1 {
		t.Errorf("期望 0/1 门课, 实际 %d/%d", len(p1.Courses), len(p2.Courses))
	}
}

func TestMoveCourse_Errors(t *testing.T) {
	s := NewSectionPlanStore()
	id2 := s.AddNewPlan()
	a := newCourse("CSE 2218", "A")

	if err := s.MoveCourse(a, "1", id2); !errors.Is(err, ErrCourseNotInPlan) {
		t.Errorf("期望 ErrCourseNotInPlan, 实际: %v", err)
	}
	mustSelect(t, s, a, "1")
	if err := s.MoveCourse(a, "1", "42"); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("期望 ErrPlanNotFound, 实际: %v", err)
	}
	if p, _ := s.Plan("1"); len(p.Courses) != 1 {
		t.Error("失败的移动不应修改源方案")
	}
}

// ════════════════════════════════════════════════════════════
// 方案管理
// ════════════════════════════════════════════════════════════

func TestDeletePlan_LastPlanProtected(t *testing.T) {
	s := NewSectionPlanStore()
	if err := s.DeletePlan("1"); !errors.Is(err, ErrLastPlanProtected) {
		t.Fatalf("期望 ErrLastPlanProtected, 实际: %v", err)
	}
	if len(s.Plans()) != 1 {
		t.Error("删除被拒绝后方案数量应不变")
	}

	id2 := s.AddNewPlan()
	if err := s.DeletePlan("1"); err != nil {
		t.Fatalf("DeletePlan 失败: %v", err)
	}
	if plans := s.Plans(); len(plans) != 1 || plans[0].ID != id2 {
		t.Errorf("期望仅剩方案 %s, 实际 %+v", id2, plans)
	}
}

func TestAddNewPlan_IDs(t *testing.T) {
	s := NewSectionPlanStore()
	id2 := s.AddNewPlan()
	id3 := s.AddNewPlan()
	if id2 != "2" || id3 != "3" {
		t.Fatalf("期望 ID 2/3, 实际 %s/%s", id2, id3)
	}
	if err := s.DeletePlan(id2); err != nil {
		t.Fatalf("DeletePlan 失败: %v", err)
	}
	if id := s.AddNewPlan(); id != "4" {
		t.Errorf("新 ID 应为现有最大值 + 1 = 4, 实际 %s", id)
	}
	p, _ := s.Plan("4")
	if p.Name != "Section Plan 4" {
		t.Errorf("名称期望 Section Plan 4, 实际 %s", p.Name)
	}
}

func TestAddPlanFromImport_NameDisambiguation(t *testing.T) {
	s := NewSectionPlanStore()
	courses := []model.Course{newCourse("CSE 2218", "A"), newCourse("MATH 1151", "C")}

	tests := []struct {
		proposed string
		want     string
	}{
		{"Schedule 1", "Schedule 1"},
		{"Schedule 1", "Schedule 2"},
		{"Schedule 1", "Schedule 3"},
		{"Section Plan 1", "Section Plan 2"},
		{"My Plan", "My Plan"},
		{"My Plan", "My Plan 2"},
	}
	for _, tt := range tests {
		id, err := s.AddPlanFromImport(courses, tt.proposed)
		if err != nil {
			t.Fatalf("AddPlanFromImport(%q) 失败: %v", tt.proposed, err)
		}
		p, _ := s.Plan(id)
		if p.Name != tt.want {
			t.Errorf("AddPlanFromImport(%q) 名称期望 %q, 实际 %q", tt.proposed, tt.want, p.Name)
		}
		if len(p.Courses) != 2 {
			t.Errorf("导入的方案期望 2 门课, 实际 %d", len(p.Courses))
		}
	}
}

func TestAddPlanFromImport_DuplicateCode(t *testing.T) {
	s := NewSectionPlanStore()
	_, err := s.AddPlanFromImport([]model.Course{newCourse("CSE 2218", "A"), newCourse("CSE 2218", "B")}, "X")
	if !errors.Is(err, ErrDuplicateCourseCode) {
		t.Fatalf("期望 ErrDuplicateCourseCode, 实际: %v", err)
	}
	if len(s.Plans()) != 1 {
		t.Error("失败的导入不应新增方案")
	}
}

func TestRenamePlan_NoUniqueness(t *testing.T) {
	s := NewSectionPlanStore()
	id2 := s.AddNewPlan()
	if err := s.RenamePlan(id2, "Section Plan 1"); err != nil {
		t.Fatalf("RenamePlan 失败: %v", err)
	}
	p, _ := s.Plan(id2)
	if p.Name != "Section Plan 1" {
		t.Errorf("重命名应直接覆盖, 实际 %q", p.Name)
	}
	if err := s.RenamePlan("77", "x"); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("期望 ErrPlanNotFound, 实际: %v", err)
	}
}

func TestRemoveCourseAndClearAll(t *testing.T) {
	s := NewSectionPlanStore()
	id2 := s.AddNewPlan()
	a := newCourse("CSE 2218", "A")
	mustSelect(t, s, a, "1")
	mustSelect(t, s, a, id2)

	if err := s.RemoveCourse(a, "1"); err != nil {
		t.Fatalf("RemoveCourse 失败: %v", err)
	}
	if !s.IsSelected(a) {
		t.Error("仅从方案 1 移除, 方案 2 中应仍保留")
	}
	if got := len(s.SelectedCourses()); got != 1 {
		t.Errorf("已选课程期望 1, 实际 %d", got)
	}

	s.ClearAll()
	if len(s.Plans()) != 2 {
		t.Error("ClearAll 不应删除方案")
	}
	if s.IsSelected(a) || len(s.SelectedCourses()) != 0 {
		t.Error("ClearAll 后不应有已选课程")
	}
}

func TestPlans_ReturnsCopies(t *testing.T) {
	s := NewSectionPlanStore()
	mustSelect(t, s, newCourse("CSE 2218", "A"), "1")

	plans := s.Plans()
	plans[0].Courses[0].Section = "Z"
	plans[0].Name = "changed"

	p, _ := s.Plan("1")
	if p.Courses[0].Section != "A" || p.Name != "Section Plan 1" {
		t.Error("读视图的修改不应影响存储")
	}
}

func mustSelect(t *testing.T, s *SectionPlanStore, c model.Course, planID string) {
	t.Helper()
	outcome, err := s.SelectCourse(c, planID)
	if err != nil {
		t.Fatalf("SelectCourse(%s %s → %s) 失败: %v", c.CourseCode, c.Section, planID, err)
	}
	if outcome != SelectAdded {
		t.Fatalf("SelectCourse(%s %s → %s) 期望 added, 实际 %v", c.CourseCode, c.Section, planID, outcome)
	}
}

package service

import (
	"errors"
	"testing"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

func generatorCatalog() []model.Course {
	return []model.Course{
		timedCourse("CSE 2218", "A", "Sat", "Tue", "8:30:AM - 9:50:AM", ""),
		timedCourse("CSE 2218", "B", "Sun", "Wed", "8:30:AM - 9:50:AM", ""),
		timedCourse("MATH 1151", "A", "Sat", "Tue", "8:30:AM - 9:50:AM", ""), // 与 CSE 2218 A 冲突
		timedCourse("MATH 1151", "B", "Sat", "Tue", "11:11:AM - 12:30:PM", ""),
		timedCourse("EEE 2113", "A", "Sun", "Wed", "8:30:AM - 9:50:AM", ""), // 唯一班级
	}
}

func TestGenerateSchedules(t *testing.T) {
	plans, err := GenerateSchedules(generatorCatalog(), GenerateOptions{
		CourseCodes: []string{"cse  2218", "MATH 1151", "EEE 2113"},
		MaxPlans:    10,
	})
	if err != nil {
		t.Fatalf("GenerateSchedules 失败: %v", err)
	}

	// EEE 2113 A 占用 Sun/Wed 8:30 → CSE 2218 只能选 A → MATH 1151 只能选 B
	if len(plans) != 1 {
		t.Fatalf("期望 1 个方案, 实际 %d: %+v", len(plans), plans)
	}
	p := plans[0]
	if p.Name != "Schedule 1" {
		t.Errorf("名称期望 Schedule 1, 实际 %s", p.Name)
	}
	wantSections := []string{"CSE 2218/A", "MATH 1151/B", "EEE 2113/A"}
	for i, c := range p.Courses {
		if got := c.CourseCode + "/" + c.Section; got != wantSections[i] {
			t.Errorf("课程 #%d 期望 %s, 实际 %s", i, wantSections[i], got)
		}
	}
	if p.DaysUsed != 4 {
		t.Errorf("上课天数期望 4, 实际 %d", p.DaysUsed)
	}
}

func TestGenerateSchedules_OrderAndLimit(t *testing.T) {
	catalog := []model.Course{
		timedCourse("CSE 1111", "A", "Sat", "Tue", "8:30:AM - 9:50:AM", ""),
		timedCourse("CSE 1111", "B", "Sun", "Wed", "8:30:AM - 9:50:AM", ""),
		timedCourse("MATH 1151", "A", "Sun", "Wed", "11:11:AM - 12:30:PM", ""),
		timedCourse("MATH 1151", "B", "Sat", "Tue", "11:11:AM - 12:30:PM", ""),
	}

	plans, err := GenerateSchedules(catalog, GenerateOptions{CourseCodes: []string{"CSE 1111", "MATH 1151"}, MaxPlans: 10})
	if err != nil {
		t.Fatalf("GenerateSchedules 失败: %v", err)
	}
	if len(plans) != 4 {
		t.Fatalf("期望 4 个方案, 实际 %d", len(plans))
	}
	// 天数少的排在前面
	if plans[0].DaysUsed != 2 || plans[len(plans)-1].DaysUsed != 4 {
		t.Errorf("排序错误: 首个 %d 天, 末个 %d 天", plans[0].DaysUsed, plans[len(plans)-1].DaysUsed)
	}

	limited, err := GenerateSchedules(catalog, GenerateOptions{CourseCodes: []string{"CSE 1111", "MATH 1151"}, MaxPlans: 3})
	if err != nil {
		t.Fatalf("GenerateSchedules 失败: %v", err)
	}
	if len(limited) != 3 {
		t.Errorf("期望截断为 3 个方案, 实际 %d", len(limited))
	}
}

func TestGenerateSchedules_PinnedAndAvoid(t *testing.T) {
	plans, err := GenerateSchedules(generatorCatalog(), GenerateOptions{
		CourseCodes:    []string{"CSE 2218", "MATH 1151"},
		PinnedSections: map[string]string{"cse 2218": "b"},
		MaxPlans:       10,
	})
	if err != nil {
		t.Fatalf("GenerateSchedules 失败: %v", err)
	}
	for _, p := range plans {
		if p.Courses[0].Section != "B" {
			t.Errorf("CSE 2218 应固定为 B 班, 实际 %s", p.Courses[0].Section)
		}
	}

	_, err = GenerateSchedules(generatorCatalog(), GenerateOptions{
		CourseCodes: []string{"EEE 2113"},
		AvoidDays:   []string{"Wed"},
		MaxPlans:    10,
	})
	if !errors.Is(err, ErrCourseCodeNotFound) {
		t.Errorf("避开唯一班级的上课日后期望 ErrCourseCodeNotFound, 实际: %v", err)
	}
}

func TestGenerateSchedules_Errors(t *testing.T) {
	if _, err := GenerateSchedules(generatorCatalog(), GenerateOptions{MaxPlans: 5}); !errors.Is(err, ErrNoCoursesRequested) {
		t.Errorf("期望 ErrNoCoursesRequested, 实际: %v", err)
	}
	if _, err := GenerateSchedules(generatorCatalog(), GenerateOptions{CourseCodes: []string{"XYZ 9999"}, MaxPlans: 5}); !errors.Is(err, ErrCourseCodeNotFound) {
		t.Errorf("期望 ErrCourseCodeNotFound, 实际: %v", err)
	}

	clash := []model.Course{
		timedCourse("CSE 1111", "A", "Sat", "", "8:30:AM - 9:50:AM", ""),
		timedCourse("CSE 1112", "A", "Sat", "", "9:00:AM - 10:00:AM", ""),
	}
	if _, err := GenerateSchedules(clash, GenerateOptions{CourseCodes: []string{"CSE 1111", "CSE 1112"}, MaxPlans: 5}); !errors.Is(err, ErrNoFeasibleSchedule) {
		t.Errorf("期望 ErrNoFeasibleSchedule, 实际: %v", err)
	}
}

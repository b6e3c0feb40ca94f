package service

import "github.com/Abdullah-Shahriar/UIU-Hub/internal/model"

// HasConflict 判断课程与方案中其他课程是否存在时间冲突
//
// 同一班级（代码+班号）的记录不参与比较；
// 冲突 = 至少共享一个上课星期 且 至少一对时间段重叠。
func HasConflict(c model.Course, plan SectionPlan) bool {
	for _, other := range plan.Courses {
		if coursesClash(c, other) {
			return true
		}
	}
	return false
}

// ConflictingCourses 返回方案中与课程冲突的全部记录
func ConflictingCourses(c model.Course, plan SectionPlan) []model.Course {
	out := make([]model.Course, 0)
	for _, other := range plan.Courses {
		if coursesClash(c, other) {
			out = append(out, other)
		}
	}
	return out
}

// PlanConflict 方案内的一对冲突课程
type PlanConflict struct {
	A model.Course `json:"a"`
	B model.Course `json:"b"`
}

// PlanConflicts 列出方案内所有两两冲突的课程对（按方案内顺序）
func PlanConflicts(plan SectionPlan) []PlanConflict {
	out := make([]PlanConflict, 0)
	for i := 0; i < len(plan.Courses); i++ {
		for j := i + 1; j < len(plan.Courses); j++ {
			if coursesClash(plan.Courses[i], plan.Courses[j]) {
				out = append(out, PlanConflict{A: plan.Courses[i], B: plan.Courses[j]})
			}
		}
	}
	return out
}

func coursesClash(a, b model.Course) bool {
	if a.SameSection(b) {
		return false
	}
	return shareDay(a, b) && anyTimeOverlap(a, b)
}

func shareDay(a, b model.Course) bool {
	for _, da := range a.Days() {
		for _, db := range b.Days() {
			if da == db {
				return true
			}
		}
	}
	return false
}

func anyTimeOverlap(a, b model.Course) bool {
	for _, ta := range a.Times() {
		for _, tb := range b.Times() {
			if TimesOverlap(ta, tb) {
				return true
			}
		}
	}
	return false
}

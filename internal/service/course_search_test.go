package service

import (
	"testing"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

func searchFixture() []model.Course {
	return []model.Course{
		{CourseCode: "CSE 1115", Title: "Object Oriented Programming", FacultyName: "Dr. Alice", FacultyInitial: "AL", Section: "A"},
		{CourseCode: "CSE 2217", Title: "Data Structures and Algorithms II", FacultyName: "Mr. Bob", FacultyInitial: "BB", Section: "B"},
		{CourseCode: "MATH 1151", Title: "Discrete Mathematics", FacultyName: "Ms. Carol", FacultyInitial: "CR", Section: "C"},
		{CourseCode: "CSE 2233", Title: "Theory of Computation", FacultyName: "TBA", FacultyInitial: "TBA", Section: "D"},
	}
}

func codesOf(courses []model.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.CourseCode)
	}
	return out
}

func TestFilterCourses(t *testing.T) {
	courses := searchFixture()

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"空检索词返回全部", "   ", []string{"CSE 1115", "CSE 2217", "MATH 1151", "CSE 2233"}},
		{"大写字母缩写", "oop", []string{"CSE 1115"}},
		{"大小写与空白不敏感", "  OOP ", []string{"CSE 1115"}},
		{"大写缩写包含", "dsa", []string{"CSE 2217"}},
		{"课程代码子串", "math", []string{"MATH 1151"}},
		{"教师缩写", "cr", []string{"MATH 1151"}},
		{"无匹配", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codesOf(FilterCourses(courses, tt.term))
			if len(got) != len(tt.want) {
				t.Fatalf("期望 %v, 实际 %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("期望 %v, 实际 %v", tt.want, got)
				}
			}
		})
	}
}

func TestMatchCourse_WordAcronyms(t *testing.T) {
	// 全小写标题没有大写缩写，只能走单词首字母规则
	c := model.Course{CourseCode: "X 0001", Title: "software engineering project management", Section: "A"}

	tests := []struct {
		term string
		want bool
	}{
		{"sepm", true},   // 完整缩写
		{"se", true},     // 完整缩写包含检索词
		{"xsepmz", true}, // 检索词包含完整缩写
		{"pm", true},     // 滑动窗口
		{"eng", true},    // 单词前缀
		{"ms", false},
	}
	for _, tt := range tests {
		if got := MatchCourse(c, tt.term); got != tt.want {
			t.Errorf("MatchCourse(%q) 期望 %v, 实际 %v", tt.term, tt.want, got)
		}
	}
}

func TestMatchCourse_StopWordsIgnored(t *testing.T) {
	c := model.Course{CourseCode: "X 0002", Title: "introduction to programming", Section: "A"}

	if MatchCourse(c, "itp") {
		t.Error("停用词不应参与缩写")
	}
	if words := significantWords(c.Title); len(words) != 1 || words[0] != "programming" {
		t.Errorf("有效单词期望 [programming], 实际 %v", words)
	}
}

func TestFilterCourses_DoesNotAliasInput(t *testing.T) {
	courses := searchFixture()
	out := FilterCourses(courses, "")
	out[0].Title = "changed"
	if courses[0].Title == "changed" {
		t.Error("返回结果不应与输入共享底层数组")
	}
}

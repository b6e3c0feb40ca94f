package model

// Course 课表 PDF 中解析出的一条课程班次记录（解析后不可变）
//
// 唯一键为 (CourseCode, Section)。字段均为字符串，保持与 PDF 原文一致：
// 缺失的教室/教师以 "TBA" 表示，缺失的星期/时间为空串。
type Course struct {
	Program        string `json:"program"`        // 学位项目代码，如 BSCSE
	CourseCode     string `json:"courseCode"`     // 如 "CSE 2218"
	Title          string `json:"title"`          // 课程名称
	Section        string `json:"section"`        // 1-2 位字母或 TBA
	Room1          string `json:"room1"`          // 3 位教室号或 TBA
	Room2          string `json:"room2"`          // 3 位教室号或 TBA
	Day1           string `json:"day1"`           // Sat/Sun/Mon/Tue/Wed/Thu/Fri 或空
	Day2           string `json:"day2"`           // 同上
	Time1          string `json:"time1"`          // 如 "8:30:AM - 9:50:AM" 或空
	Time2          string `json:"time2"`          // 同上
	FacultyName    string `json:"facultyName"`    // 教师姓名或 TBA
	FacultyInitial string `json:"facultyInitial"` // 教师缩写或 TBA
	Credit         string `json:"credit"`         // 学分（单个数字）
}

// SameSection 判断两条记录是否为同一课程的同一班次
func (c Course) SameSection(other Course) bool {
	return c.CourseCode == other.CourseCode && c.Section == other.Section
}

// Days 返回非空的上课星期
func (c Course) Days() []string {
	return nonEmpty(c.Day1, c.Day2)
}

// Times 返回非空的上课时间段
func (c Course) Times() []string {
	return nonEmpty(c.Time1, c.Time2)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

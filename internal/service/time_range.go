package service

import (
	"regexp"
	"strconv"
	"strings"
)

// ── 时间段解析 ──────────────────────────────────────────────
//
// 课表中的时间段形如 "8:30:AM-9:50:AM"，解析后的 Course.Time1/Time2
// 形如 "8:30:AM - 9:50:AM"。两种写法都需要识别。
// ─────────────────────────────────────────────────────────────

// timeRangePattern 允许连字符两侧与 AM/PM 前的冒号周围存在空白，AM/PM 可省略一侧
var timeRangePattern = regexp.MustCompile(`(?i)(\d+):(\d+)\s*:?\s*([AP]M)?\s*-\s*(\d+):(\d+)\s*:?\s*([AP]M)?`)

// TimeRange 以午夜起的分钟数表示的半开区间 [Start, End)
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps 判断两个区间是否重叠（首尾相接不算重叠）
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start < other.End && other.Start < r.End
}

// ParseTimeRange 解析 "H:MM:AM-H:MM:PM" 形式的时间段
// 一侧缺少 AM/PM 时继承另一侧；无法匹配时返回 false。
func ParseTimeRange(s string) (TimeRange, bool) {
	if s == "" {
		return TimeRange{}, false
	}
	m := timeRangePattern.FindStringSubmatch(s)
	if m == nil {
		return TimeRange{}, false
	}

	startHour, _ := strconv.Atoi(m[1])
	startMin, _ := strconv.Atoi(m[2])
	endHour, _ := strconv.Atoi(m[4])
	endMin, _ := strconv.Atoi(m[5])

	startPeriod := strings.ToUpper(m[3])
	endPeriod := strings.ToUpper(m[6])
	if startPeriod == "" {
		startPeriod = endPeriod
	}
	if endPeriod == "" {
		endPeriod = startPeriod
	}

	return TimeRange{
		Start: to24Hour(startHour, startPeriod)*60 + startMin,
		End:   to24Hour(endHour, endPeriod)*60 + endMin,
	}, true
}

// to24Hour 12 小时制转 24 小时制：12 AM → 0，12 PM 保持 12，其余 PM 加 12
func to24Hour(hour int, period string) int {
	switch {
	case period == "PM" && hour != 12:
		return hour + 12
	case period == "AM" && hour == 12:
		return 0
	}
	return hour
}

// TimesOverlap 判断两个时间段字符串是否重叠
// 任一侧无法解析时视为不冲突，避免格式异常的数据阻断用户操作。
func TimesOverlap(a, b string) bool {
	ra, ok := ParseTimeRange(a)
	if !ok {
		return false
	}
	rb, ok := ParseTimeRange(b)
	if !ok {
		return false
	}
	return ra.Overlaps(rb)
}

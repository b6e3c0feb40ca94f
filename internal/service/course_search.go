package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

// ── 课程搜索 ────────────────────────────────────────────────
//
// 规则按固定顺序求值，命中即返回：
//  1. 课程名/代码/教师/缩写/班号 子串
//  2. 课程名大写字母缩写（≥2 个大写字母）
//  3. 去停用词后的首字母缩写：完整、前缀、滑动窗口
//  4. 任一有效单词的前缀（检索词长度 ≥2）
// ─────────────────────────────────────────────────────────────

var searchStopWords = map[string]bool{
	"and": true, "of": true, "the": true, "for": true, "if": true, "required": true,
	"a": true, "an": true, "in": true, "on": true, "to": true, "using": true,
	"lab": true, "laboratory": true, "introduction": true, "basic": true,
	"advanced": true, "theory": true, "practical": true,
}

const maxWindowAcronym = 4

// FilterCourses 按检索词过滤课程，保持原有顺序；检索词为空时返回全部
func FilterCourses(courses []model.Course, term string) []model.Course {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		out := make([]model.Course, len(courses))
		copy(out, courses)
		return out
	}

	out := make([]model.Course, 0)
	for _, c := range courses {
		if MatchCourse(c, term) {
			out = append(out, c)
		}
	}
	return out
}

// MatchCourse 判断单门课程是否匹配检索词（term 须已小写并去除首尾空白）
func MatchCourse(c model.Course, term string) bool {
	if matchFields(c, term) {
		return true
	}
	if matchUppercaseAcronym(c.Title, term) {
		return true
	}

	words := significantWords(c.Title)
	if len(words) >= 2 && matchWordAcronyms(words, term) {
		return true
	}
	return matchWordPrefix(words, term)
}

func matchFields(c model.Course, term string) bool {
	for _, f := range []string{c.Title, c.CourseCode, c.FacultyName, c.FacultyInitial, c.Section} {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// matchUppercaseAcronym "Object Oriented Programming" → "oop"
func matchUppercaseAcronym(title, term string) bool {
	var b strings.Builder
	for _, r := range title {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	if b.Len() < 2 {
		return false
	}
	acronym := strings.ToLower(b.String())
	return acronym == term ||
		strings.Contains(acronym, term) ||
		(len(term) >= 2 && strings.HasPrefix(acronym, term))
}

func matchWordAcronyms(words []string, term string) bool {
	full := acronymOf(words)
	if full == term || strings.Contains(full, term) || strings.Contains(term, full) {
		return true
	}

	// 前缀缩写
	limit := min(len(words), utf8.RuneCountInString(term)+2)
	for i := 2; i <= limit; i++ {
		if acronymOf(words[:i]) == term {
			return true
		}
	}

	// 滑动窗口缩写
	for start := 0; start+2 <= len(words); start++ {
		for n := 2; n <= maxWindowAcronym && start+n <= len(words); n++ {
			if acronymOf(words[start:start+n]) == term {
				return true
			}
		}
	}
	return false
}

func matchWordPrefix(words []string, term string) bool {
	if utf8.RuneCountInString(term) < 2 {
		return false
	}
	for _, w := range words {
		if strings.HasPrefix(strings.ToLower(w), term) {
			return true
		}
	}
	return false
}

// significantWords 按空白切分课程名，去掉单字符词与停用词
func significantWords(title string) []string {
	fields := strings.Fields(title)
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		if utf8.RuneCountInString(w) <= 1 || searchStopWords[strings.ToLower(w)] {
			continue
		}
		words = append(words, w)
	}
	return words
}

func acronymOf(words []string) string {
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Abdullah-Shahriar/UIU-Hub/config"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

// ── 课表 PDF 文本解析器 ─────────────────────────────────────
//
// 职责：将外部 PDF 文本提取得到的扁平字符串解析为 Course 列表。
//
// 设计决策：
//   - 只支持两种固定表格版式，由表头 "Credit" / "Cr." 区分
//   - 先按"课程起始位置"切块，再对每块独立解析，单块失败只记录警告
//   - 块内解析为从右向左逐段消费的流水线：每个阶段取出一个字段并返回剩余片段
//     教师/学分 → 时间 → 星期 → 教室 → 班号 → 余下即课程名
// ─────────────────────────────────────────────────────────────

// RoutineFormat 课表版式
type RoutineFormat string

const (
	// RoutineFormatCredit 表头含 "Credit"，每行以序号开头（如 "1 BSCSE CSE 2218"）
	RoutineFormatCredit RoutineFormat = "credit"
	// RoutineFormatCr 表头含 "Cr."，每行直接以项目代码开头（如 "BSCSE CSE 2218"）
	RoutineFormatCr RoutineFormat = "cr"
)

const (
	headerCredit = "Credit"
	headerCr     = "Cr."

	tba           = "TBA"
	defaultCredit = "0"
	snippetMaxLen = 100
)

// ── 解析错误 ──

var (
	ErrMissingHeader      = errors.New("未找到课表表头（Credit / Cr.），PDF 版式可能不受支持")
	ErrNoCoursesExtracted = errors.New("找到了课程块，但未能解析出任何课程，PDF 结构可能已变化")
)

// 解析阶段名称
const (
	stagePrefix = "prefix"
)

// BlockError 单个课程块解析失败（非致命，仅跳过该块）
type BlockError struct {
	Block   int    `json:"block"`   // 块序号（从 0 开始）
	Stage   string `json:"stage"`   // 失败阶段
	Snippet string `json:"snippet"` // 块内容片段
	Reason  string `json:"reason"`
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("课程块 #%d 在 %s 阶段解析失败: %s", e.Block, e.Stage, e.Reason)
}

// ParseResult 解析结果
type ParseResult struct {
	Format     RoutineFormat  `json:"format"`
	BlockCount int            `json:"block_count"`
	Programs   []string       `json:"programs"`
	Courses    []model.Course `json:"courses"`
	Warnings   []BlockError   `json:"warnings,omitempty"`
}

// ── 固定模式 ──

var (
	spacedTimeRangePattern = regexp.MustCompile(`(\d{1,2}:\d{2}:[AP]M)\s*-\s*(\d{1,2}:\d{2}:[AP]M)`)
	facultyPattern         = regexp.MustCompile(`([A-Za-z.\s]+?)\s*([A-Za-z]{1,5}|TBA)\s*(\d)\b`)
	leadingPeriodPattern   = regexp.MustCompile(`^\s*(?:AM|PM)\b`)
	periodTokenPattern     = regexp.MustCompile(`\b(?:AM|PM)\b`)
	trailingCreditPattern  = regexp.MustCompile(`(\d)\s*$`)
	compactTimePattern     = regexp.MustCompile(`\d{1,2}:\d{2}:[AP]M-\d{1,2}:\d{2}:[AP]M`)
	dayPattern             = regexp.MustCompile(`\b(?:Sat|Sun|Mon|Tue|Wed|Thu|Fri)\b`)
	roomPattern            = regexp.MustCompile(`\d{3}`)
	sectionPattern         = regexp.MustCompile(`(?i)\b([A-Z]{1,2})(?:\s*\(If\s+Required\))?$`)
)

// RoutineParser 课表文本解析器（无状态，可并发复用）
type RoutineParser struct {
	footerMarkers []string
	blockStart    map[RoutineFormat]*regexp.Regexp
	prefix        map[RoutineFormat]*regexp.Regexp
	logger        *zap.Logger
}

// NewRoutineParser 根据配置的项目代码与页脚标记构建解析器
func NewRoutineParser(cfg *config.ParserConfig, logger *zap.Logger) *RoutineParser {
	quoted := make([]string, 0, len(cfg.Programs))
	for _, p := range cfg.Programs {
		quoted = append(quoted, regexp.QuoteMeta(strings.TrimSpace(p)))
	}
	programs := "(?:" + strings.Join(quoted, "|") + ")"
	code := `([A-Z]{2,4}\s+\d{4}[A-Z]?)`

	return &RoutineParser{
		footerMarkers: cfg.FooterMarkers,
		blockStart: map[RoutineFormat]*regexp.Regexp{
			RoutineFormatCredit: regexp.MustCompile(`\d+\s+` + programs),
			RoutineFormatCr:     regexp.MustCompile(programs + `\s+[A-Z]{2,4}\s+\d{4}`),
		},
		prefix: map[RoutineFormat]*regexp.Regexp{
			RoutineFormatCredit: regexp.MustCompile(`^\d+\s+(` + programs + `)\s+` + code),
			RoutineFormatCr:     regexp.MustCompile(`^(` + programs + `)\s+` + code),
		},
		logger: logger,
	}
}

// Parse 解析课表文本
//
// 返回值始终非 nil：
//   - 未找到表头：返回空结果与 ErrMissingHeader
//   - 找到课程块但全部失败：返回带警告的空结果与 ErrNoCoursesExtracted
func (p *RoutineParser) Parse(raw string) (*ParseResult, error) {
	result := &ParseResult{Courses: []model.Course{}, Programs: []string{}}

	// 1. 版式识别
	cleaned := spacedTimeRangePattern.ReplaceAllString(raw, "${1}-${2}")
	format, data, ok := detectFormat(cleaned)
	if !ok {
		p.logger.Warn("课表文本中未找到表头", zap.Int("text_len", len(raw)))
		return result, ErrMissingHeader
	}
	result.Format = format

	// 2. 切块
	blocks := splitBlocks(data, p.blockStart[format])
	result.BlockCount = len(blocks)
	p.logger.Debug("课表切块完成",
		zap.String("format", string(format)),
		zap.Int("blocks", len(blocks)),
	)

	// 3. 逐块解析
	seenPrograms := make(map[string]bool)
	for i, block := range blocks {
		course, blockErr := p.parseBlock(i, block, format)
		if blockErr != nil {
			p.logger.Warn("跳过无法解析的课程块",
				zap.Int("block", blockErr.Block),
				zap.String("stage", blockErr.Stage),
				zap.String("snippet", blockErr.Snippet),
			)
			result.Warnings = append(result.Warnings, *blockErr)
			continue
		}
		result.Courses = append(result.Courses, course)
		if !seenPrograms[course.Program] {
			seenPrograms[course.Program] = true
			result.Programs = append(result.Programs, course.Program)
		}
	}

	if len(result.Courses) == 0 && len(blocks) > 0 {
		return result, ErrNoCoursesExtracted
	}

	p.logger.Info("课表解析完成",
		zap.String("format", string(format)),
		zap.Int("blocks", len(blocks)),
		zap.Int("courses", len(result.Courses)),
		zap.Int("skipped", len(result.Warnings)),
	)
	return result, nil
}

// detectFormat 优先识别 "Credit" 表头，其次 "Cr."，返回表头之后的正文
func detectFormat(text string) (RoutineFormat, string, bool) {
	if idx := strings.Index(text, headerCredit); idx != -1 {
		return RoutineFormatCredit, strings.TrimSpace(text[idx+len(headerCredit):]), true
	}
	if idx := strings.Index(text, headerCr); idx != -1 {
		return RoutineFormatCr, strings.TrimSpace(text[idx+len(headerCr):]), true
	}
	return "", "", false
}

// splitBlocks 在每个课程起始位置切分正文，丢弃空块
func splitBlocks(data string, start *regexp.Regexp) []string {
	positions := []int{0}
	for _, loc := range start.FindAllStringIndex(data, -1) {
		if loc[0] > 0 {
			positions = append(positions, loc[0])
		}
	}
	positions = append(positions, len(data))

	blocks := make([]string, 0, len(positions)-1)
	for i := 0; i+1 < len(positions); i++ {
		block := data[positions[i]:positions[i+1]]
		if strings.TrimSpace(block) == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// parseBlock 解析单个课程块
func (p *RoutineParser) parseBlock(index int, block string, format RoutineFormat) (model.Course, *BlockError) {
	rest := stripFooter(block, p.footerMarkers)

	program, code, rest, ok := takePrefix(rest, p.prefix[format])
	if !ok {
		return model.Course{}, &BlockError{
			Block:   index,
			Stage:   stagePrefix,
			Snippet: snippet(block),
			Reason:  "块开头不是 项目代码 + 课程代码",
		}
	}

	faculty, rest := takeFaculty(rest)
	time1, time2, rest := takeTimes(rest)
	day1, day2, rest := takeDays(rest)
	room1, room2, rest := takeRooms(rest)
	section, rest := takeSection(rest)

	return model.Course{
		Program:        program,
		CourseCode:     code,
		Title:          collapseSpaces(rest),
		Section:        section,
		Room1:          room1,
		Room2:          room2,
		Day1:           day1,
		Day2:           day2,
		Time1:          time1,
		Time2:          time2,
		FacultyName:    faculty.name,
		FacultyInitial: faculty.initial,
		Credit:         faculty.credit,
	}, nil
}

// ── 流水线各阶段：输入剩余片段，返回字段与新的剩余片段 ──

// stripFooter 在最早出现的页脚标记处截断
func stripFooter(block string, markers []string) string {
	cut := len(block)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if idx := strings.Index(block, m); idx != -1 && idx < cut {
			cut = idx
		}
	}
	return strings.TrimSpace(block[:cut])
}

// takePrefix 匹配并消费块开头的 (序号) 项目代码 课程代码
func takePrefix(rest string, prefix *regexp.Regexp) (program, code, remaining string, ok bool) {
	m := prefix.FindStringSubmatchIndex(rest)
	if m == nil {
		return "", "", rest, false
	}
	program = rest[m[2]:m[3]]
	code = collapseSpaces(rest[m[4]:m[5]])
	return program, code, strings.TrimSpace(rest[m[1]:]), true
}

type facultyInfo struct {
	name    string
	initial string
	credit  string
}

// takeFaculty 取最后一处 "姓名 缩写 学分"，剩余片段为其之前的内容
//
// 姓名字符集包含字母，紧邻的上一个时间段末尾的 AM/PM 会被吞入姓名开头；
// 该记号归还给剩余片段，姓名中其他 AM/PM 记号直接剔除。
// 找不到时只取末尾的单个数字作为学分，教师信息为 TBA。
func takeFaculty(rest string) (facultyInfo, string) {
	info := facultyInfo{name: tba, initial: tba, credit: defaultCredit}

	matches := facultyPattern.FindAllStringSubmatchIndex(rest, -1)
	if len(matches) == 0 {
		if m := trailingCreditPattern.FindStringSubmatchIndex(rest); m != nil {
			info.credit = rest[m[2]:m[3]]
			rest = rest[:m[0]]
		}
		return info, strings.TrimSpace(rest)
	}

	last := matches[len(matches)-1]
	cut := last[0]
	name := rest[last[2]:last[3]]
	if loc := leadingPeriodPattern.FindStringIndex(name); loc != nil {
		cut += loc[1]
		name = name[loc[1]:]
	}
	name = collapseSpaces(periodTokenPattern.ReplaceAllString(name, " "))
	if name != "" {
		info.name = name
	}
	info.initial = rest[last[4]:last[5]]
	info.credit = rest[last[6]:last[7]]

	return info, strings.TrimSpace(rest[:cut])
}

// takeTimes 取至多两个时间段，剩余片段截断到第一个时间段之前
func takeTimes(rest string) (time1, time2, remaining string) {
	locs := compactTimePattern.FindAllStringIndex(rest, 2)
	if len(locs) == 0 {
		return "", "", rest
	}
	time1 = formatTimeRange(rest[locs[0][0]:locs[0][1]])
	if len(locs) > 1 {
		time2 = formatTimeRange(rest[locs[1][0]:locs[1][1]])
	}
	return time1, time2, strings.TrimSpace(rest[:locs[0][0]])
}

// takeDays 取至多两个星期缩写，剩余片段截断到第一个星期之前
func takeDays(rest string) (day1, day2, remaining string) {
	locs := dayPattern.FindAllStringIndex(rest, 2)
	if len(locs) == 0 {
		return "", "", rest
	}
	day1 = rest[locs[0][0]:locs[0][1]]
	if len(locs) > 1 {
		day2 = rest[locs[1][0]:locs[1][1]]
	}
	return day1, day2, strings.TrimSpace(rest[:locs[0][0]])
}

// takeRooms 取至多两个 3 位教室号；只有一个时复用，没有则为 TBA
func takeRooms(rest string) (room1, room2, remaining string) {
	locs := roomPattern.FindAllStringIndex(rest, 2)
	if len(locs) == 0 {
		return tba, tba, rest
	}
	room1 = rest[locs[0][0]:locs[0][1]]
	room2 = room1
	if len(locs) > 1 {
		room2 = rest[locs[1][0]:locs[1][1]]
	}
	return room1, room2, strings.TrimSpace(rest[:locs[0][0]])
}

// takeSection 取末尾的 1-2 位字母班号（可带 "(If Required)"），没有则为 TBA
func takeSection(rest string) (section, remaining string) {
	m := sectionPattern.FindStringSubmatchIndex(rest)
	if m == nil {
		return tba, rest
	}
	return strings.ToUpper(rest[m[2]:m[3]]), strings.TrimSpace(rest[:m[0]])
}

// ── 辅助函数 ──

// formatTimeRange "8:30:AM-9:50:AM" → "8:30:AM - 9:50:AM"
func formatTimeRange(s string) string {
	return strings.Replace(s, "-", " - ", 1)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func snippet(s string) string {
	r := []rune(collapseSpaces(s))
	if len(r) <= snippetMaxLen {
		return string(r)
	}
	return string(r[:snippetMaxLen])
}

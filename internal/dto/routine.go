package dto

import "github.com/Abdullah-Shahriar/UIU-Hub/internal/model"

// ── 课表解析模块 DTO ──

// ParseTextRequest 以纯文本提交课表（已由客户端完成 PDF 文本提取）
type ParseTextRequest struct {
	Text string `json:"text" binding:"required"`
	Save bool   `json:"save"`
	Name string `json:"name" binding:"omitempty,max=200"`
}

// ParseUploadForm multipart 上传 PDF 时的附加字段
type ParseUploadForm struct {
	Save bool   `form:"save"`
	Name string `form:"name" binding:"omitempty,max=200"`
}

// BlockWarning 被跳过的课程块
type BlockWarning struct {
	Block   int    `json:"block"`
	Stage   string `json:"stage"`
	Snippet string `json:"snippet"`
	Reason  string `json:"reason"`
}

// ParseRoutineResponse 解析结果
type ParseRoutineResponse struct {
	CatalogID  string         `json:"catalog_id,omitempty"` // save=true 时返回
	Format     string         `json:"format"`
	BlockCount int            `json:"block_count"`
	Programs   []string       `json:"programs"`
	Courses    []model.Course `json:"courses"`
	Warnings   []BlockWarning `json:"warnings"`
	Cached     bool           `json:"cached"`
}

// SearchCoursesRequest 无状态课程搜索
type SearchCoursesRequest struct {
	Courses []model.Course `json:"courses" binding:"required"`
	Term    string         `json:"term"`
}

// SearchCoursesResponse 搜索结果
type SearchCoursesResponse struct {
	Courses []model.Course `json:"courses"`
	Total   int            `json:"total"`
}

package dto

// ── 课表目录模块 DTO ──

// CatalogListRequest 目录列表查询参数
type CatalogListRequest struct {
	PaginationRequest
	Program string `form:"program" binding:"omitempty,max=20"`
}

// RenameCatalogRequest 重命名目录
type RenameCatalogRequest struct {
	Name    string `json:"name"    binding:"required,min=1,max=200"`
	Version int    `json:"version" binding:"required,min=1"`
}

// CatalogResponse 目录信息
type CatalogResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Format      string         `json:"format"`
	Programs    []string       `json:"programs"`
	BlockCount  int            `json:"block_count"`
	CourseCount int            `json:"course_count"`
	Warnings    []BlockWarning `json:"warnings"`
	Version     int            `json:"version"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// CatalogCourseQuery 目录课程查询参数
type CatalogCourseQuery struct {
	Q string `form:"q" binding:"omitempty,max=100"`
}

package dto

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationRequest 通用分页参数（query: page / page_size）
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (p *PaginationRequest) GetPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

// GetPageSize 未传时取默认值，超过上限时截断
func (p *PaginationRequest) GetPageSize() int {
	switch {
	case p.PageSize < 1:
		return defaultPageSize
	case p.PageSize > maxPageSize:
		return maxPageSize
	}
	return p.PageSize
}

func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// PageResponse Service 层返回的分页结果，由 response.OKPage 输出
type PageResponse[T any] struct {
	Items    []T
	Total    int64
	Page     int
	PageSize int
}

// NewPageResponse 按请求参数填充页码
func NewPageResponse[T any](items []T, total int64, req *PaginationRequest) *PageResponse[T] {
	return &PageResponse[T]{
		Items:    items,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}
}

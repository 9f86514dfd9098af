package mapper

// PageResult is one page of a query plus the totals needed to render a pager.
type PageResult[T any] struct {
	PageNum    int64 `json:"pageNum"`
	PageSize   int64 `json:"pageSize"`
	TotalSize  int64 `json:"totalSize"`
	TotalPages int64 `json:"totalPages"`
	Content    []T   `json:"content"`
}

func newPage[T any](pageNum, pageSize, total int64, content []T) PageResult[T] {
	return PageResult[T]{
		PageNum:    pageNum,
		PageSize:   pageSize,
		TotalSize:  total,
		TotalPages: totalPages(total, pageSize),
		Content:    content,
	}
}

func totalPages(total, pageSize int64) int64 {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

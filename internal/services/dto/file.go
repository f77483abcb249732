package dto

// Pagination is the standard paging envelope for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

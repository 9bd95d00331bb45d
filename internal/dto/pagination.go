package dto

import "github.com/yukikurage/project-management-api/internal/utils"

// Pagination is embedded in every list response
type Pagination struct {
	TotalItems  int64 `json:"totalItems"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{
		TotalItems:  total,
		CurrentPage: page,
		TotalPages:  utils.TotalPages(total, limit),
	}
}

// MessageResponse is returned by operations without a resource body
type MessageResponse struct {
	Message string `json:"message"`
}

package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kutay/teacherportal/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	DefaultPage     = 1 // Page numbers are 1-based
)

// ParsePageParam extracts the page query parameter. A missing, non-integer
// or non-positive value falls back to page 1; clamping against the last
// page happens once the total is known, in ClampPage.
func ParsePageParam(c *gin.Context) int {
	pageStr := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		return DefaultPage
	}
	return page
}

// TotalPages computes the number of pages for totalItems at the given size.
// An empty result set still has one (empty) page.
func TotalPages(totalItems int64, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if totalItems <= 0 {
		return 1
	}
	return int(math.Ceil(float64(totalItems) / float64(size)))
}

// ClampPage clamps a 1-based page number into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return DefaultPage
	}
	if totalPages > 0 && page > totalPages {
		return totalPages
	}
	return page
}

// CalculateOffsetLimit converts a 1-based page number to a SQL offset and limit.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	if size <= 0 {
		limit = DefaultPageSize
	} else {
		limit = size
	}

	if page < 1 {
		page = DefaultPage
	}

	offset = uint64((page - 1) * limit)
	return offset, limit
}

// NewPaginationInfo creates a standard PaginationInfo DTO for a clamped page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if size <= 0 {
		size = DefaultPageSize
	}

	totalPages := TotalPages(totalItems, size)

	return dto.PaginationInfo{
		CurrentPage: ClampPage(page, totalPages),
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

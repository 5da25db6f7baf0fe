package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollment/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based roster page requested through the page and size query parameters.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit is the maximum number of rows on this page.
func (p Page) Limit() int {
	return p.Size
}

// Info describes this page of a listing holding totalItems rows.
func (p Page) Info(totalItems int64) dto.PaginationInfo {
	totalPages := int((totalItems + int64(p.Size) - 1) / int64(p.Size))
	if totalPages == 0 {
		totalPages = 1
	}
	return dto.PaginationInfo{
		CurrentPage: min(p.Number, totalPages),
		TotalPages:  totalPages,
		PageSize:    p.Size,
		TotalItems:  totalItems,
	}
}

// ParsePage reads page and size from the query string. Missing or out-of-range
// values fall back to the first page and the default size.
func ParsePage(c *gin.Context) Page {
	page := Page{Number: 1, Size: DefaultPageSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n >= 1 {
		page.Number = n
	}
	if n, err := strconv.Atoi(c.Query("size")); err == nil && n >= 1 && n <= MaxPageSize {
		page.Size = n
	}
	return page
}

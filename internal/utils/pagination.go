// internal/utils/pagination.go
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type PaginationParams struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Search string `json:"search"`
}

type PaginationResult struct {
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
	Total  int64       `json:"total"`
	Data   interface{} `json:"data"`
}

// ClampLimit keeps a page size inside 1..MaxLimit. Zero means the default.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// GetPaginationParams reads limit/offset. A page parameter is accepted as
// an alternative to offset.
func GetPaginationParams(c *gin.Context) PaginationParams {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil {
		limit = DefaultLimit
	}
	limit = ClampLimit(limit)

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if _, hasOffset := c.GetQuery("offset"); !hasOffset {
		if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 1 {
			offset = (page - 1) * limit
		}
	}

	return PaginationParams{
		Limit:  limit,
		Offset: ClampOffset(offset),
		Search: c.Query("search"),
	}
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	return PaginationResult{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
		Data:   data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Limit", strconv.Itoa(result.Limit))
	c.Header("X-Offset", strconv.Itoa(result.Offset))
}

package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/pandora-pm/internal/constants"
)

// PaginationParams is one page of an ordered listing.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse is the page metadata returned next to a listing.
type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPage clamps page and limit into range. Pages are 1-based; an oversized
// limit is capped at MaxPageSize and a non-positive one gets the default.
func NewPage(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < constants.MinPageSize:
		limit = constants.DefaultPageSize
	case limit > constants.MaxPageSize:
		limit = constants.MaxPageSize
	}
	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// GetPaginationParams reads ?page= and ?limit= from the request.
// Unparsable values fall back to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = constants.DefaultPageSize
	}
	return NewPage(page, limit)
}

// Response builds the metadata for a page out of total rows.
func (p PaginationParams) Response(total int64) PaginationResponse {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return PaginationResponse{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
	}
}

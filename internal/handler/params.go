package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/blog-api/pkg/config"
)

// pageParams reads limit and offset query parameters, clamping them to the
// configured listing bounds.
func pageParams(c *gin.Context, listing config.ListingConfig) (int, int) {
	limit := listing.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > listing.MaxLimit {
		limit = listing.MaxLimit
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}
	return limit, offset
}

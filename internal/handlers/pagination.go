package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"feedbackportal/internal/config"

	"github.com/gin-gonic/gin"
)

// ParsePagination parses limit/offset query params, applying defaults and the
// hard page-size cap.
func ParsePagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(config.DefaultPageSize)))
	if err != nil || limit < 1 {
		limit = config.DefaultPageSize
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}

	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ParseFilters returns a map of non-empty trimmed query params for the given keys.
func ParseFilters(c *gin.Context, keys ...string) map[string]string {
	filters := make(map[string]string, len(keys))
	for _, key := range keys {
		if val := strings.TrimSpace(c.Query(key)); val != "" {
			filters[key] = val
		}
	}
	return filters
}

// WritePaginated standardizes paginated list responses.
func WritePaginated(c *gin.Context, itemsKey string, items interface{}, total, limit, offset int) {
	c.JSON(http.StatusOK, gin.H{
		itemsKey: items,
		"pagination": gin.H{
			"total":   total,
			"limit":   limit,
			"offset":  offset,
			"hasMore": offset+limit < total,
		},
	})
}

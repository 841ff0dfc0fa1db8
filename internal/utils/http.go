// Package utils holds small helpers shared by the HTTP handlers.
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageParam reads the "page" query parameter. Missing or malformed
// values fall back to page 1; range clamping happens later against the
// actual result count.
func PageParam(c *gin.Context) int {
	raw := c.Query("page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

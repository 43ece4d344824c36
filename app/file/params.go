package file

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// fileIDParam reads the :id path parameter
func fileIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}

	return uint(id), true
}

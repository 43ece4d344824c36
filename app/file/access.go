package file

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/files/:id/access
func Access(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	fileID, ok := fileIDParam(c)
	if !ok {
		respond.Fail(c, http.StatusBadRequest, "Invalid file ID")
		return
	}

	can, err := d.Sharing.CanRead(c.Request.Context(), fileID, userID)
	if err != nil {
		respond.Error(c, err, nil)
		return
	}

	respond.OK(c, http.StatusOK, "OK", gin.H{
		"can_read": can,
	})
}

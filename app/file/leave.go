package file

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/files/:id/leave
func Leave(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	fileID, ok := fileIDParam(c)
	if !ok {
		respond.Fail(c, http.StatusNotFound, "File not found")
		return
	}

	if err := d.Sharing.Leave(c.Request.Context(), fileID, userID); err != nil {
		respond.Error(c, err, respond.Messages{
			service.ErrNotFound: "You do not have access to this file or it was never shared with you",
		})
		return
	}

	respond.OK(c, http.StatusOK, "You have left the collaboration", nil)
}

package file

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DELETE /api/files/:id
func Delete(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	fileID, ok := fileIDParam(c)
	if !ok {
		respond.Fail(c, http.StatusNotFound, "File not found")
		return
	}

	if err := d.Files.Delete(c.Request.Context(), fileID, userID); err != nil {
		respond.Error(c, err, respond.Messages{
			service.ErrForbidden: "You cannot delete a file that you do not own",
			service.ErrNotFound:  "File not found",
		})
		return
	}

	respond.OK(c, http.StatusOK, "File deleted successfully", nil)
}

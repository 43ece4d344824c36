package file

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/download/:id
func Download(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	fileID, ok := fileIDParam(c)
	if !ok {
		respond.Fail(c, http.StatusNotFound, "File not found")
		return
	}

	url, err := d.Files.DownloadURL(c.Request.Context(), fileID, userID)
	if err != nil {
		respond.Error(c, err, respond.Messages{
			service.ErrNotFound: "File not found",
		})
		return
	}

	respond.OK(c, http.StatusOK, "OK", gin.H{
		"download_url": url,
	})
}

package user

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/user
func Fetch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	u, err := d.Directory.Get(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err, respond.Messages{
			service.ErrNotFound: "User not found",
		})
		return
	}

	respond.OK(c, http.StatusOK, "OK", gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"created_at": respond.Time(u.CreatedAt),
		"stats": gin.H{
			"used_storage":   u.Stats.UsedStorage,
			"uploaded_files": u.Stats.UploadedFiles,
		},
	})
}

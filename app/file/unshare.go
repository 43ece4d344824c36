package file

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type unshareBody struct {
	FileID uint   `json:"file_id" binding:"required"`
	UserID string `json:"user_id" binding:"required"`
}

// POST /api/unshare
func Unshare(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data unshareBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Missing file_id or user_id")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := d.Sharing.Unshare(c.Request.Context(), data.FileID, userID, data.UserID); err != nil {
		respond.Error(c, err, respond.Messages{
			service.ErrForbidden: "Only owners can unshare files",
			service.ErrNotFound:  "Share not found",
		})
		return
	}

	respond.OK(c, http.StatusOK, "Access revoked", nil)
}

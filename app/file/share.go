package file

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/model"
	"bitwise74/file-share-api/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type shareBody struct {
	FileID         uint   `json:"file_id" binding:"required"`
	RecipientEmail string `json:"recipient_email" binding:"required"`
	AccessLevel    string `json:"access_level"`
}

// POST /api/share
func Share(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data shareBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Missing file_id or recipient_email")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	s, err := d.Sharing.Share(c.Request.Context(), data.FileID, userID, data.RecipientEmail, model.AccessLevel(data.AccessLevel))
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			respond.Fail(c, http.StatusBadRequest, "The recipient already has access to this file")
			return
		}

		respond.Error(c, err, respond.Messages{
			service.ErrForbidden: "Only owners can share files",
			service.ErrNotFound:  "File or recipient not found",
		})
		return
	}

	respond.OK(c, http.StatusOK, "File shared successfully", gin.H{
		"user_id":      s.GranteeID,
		"access_level": s.Access,
		"shared_at":    respond.Time(s.GrantedAt),
	})
}

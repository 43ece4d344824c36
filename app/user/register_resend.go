package user

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resendBody struct {
	VerificationID string `json:"verification_id" binding:"required"`
}

// POST /api/register-resend
func RegisterResend(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resendBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Verification ID is required")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	p, err := d.Registrations.Resend(c.Request.Context(), data.VerificationID)
	if err != nil {
		if respond.Status(err) == http.StatusNotFound {
			respond.Fail(c, http.StatusBadRequest, "Verification not found or already completed")
			return
		}

		respond.Error(c, err, respond.Messages{
			service.ErrRateLimited: "Please wait before requesting another code",
		})
		return
	}

	respond.OK(c, http.StatusOK, "Verification code resent", gin.H{
		"expires_at": respond.Time(p.ExpiresAt),
	})
}

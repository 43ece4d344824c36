package user

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type verifyBody struct {
	VerificationID string `json:"verification_id" binding:"required"`
	Code           string `json:"code" binding:"required"`
}

// POST /api/register-verify
func RegisterVerify(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data verifyBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Verification ID and code are required")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	u, err := d.Registrations.Verify(c.Request.Context(), data.VerificationID, data.Code)
	if err != nil {
		status := respond.Status(err)
		if status == http.StatusNotFound {
			// Unknown or already used ids are a client mistake here
			respond.Fail(c, http.StatusBadRequest, "Verification not found or already completed")
			return
		}

		respond.Error(c, err, respond.Messages{
			service.ErrExpired:         "Verification code expired",
			service.ErrInvalidCode:     "Invalid verification code",
			service.ErrTooManyAttempts: "Too many attempts, request a new code",
		})
		return
	}

	respond.OK(c, http.StatusCreated, "Registration complete", gin.H{
		"user_id": u.ID,
	})
}

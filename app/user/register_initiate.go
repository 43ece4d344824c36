package user

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type signupBody struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/register-initiate
func RegisterInitiate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data signupBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Username, email and password are required")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	p, err := d.Registrations.Initiate(c.Request.Context(), data.Username, data.Email, data.Password)
	if err != nil {
		respond.Error(c, err, respond.Messages{
			service.ErrConflict:    "Username or email already registered",
			service.ErrRateLimited: "Please wait before requesting another code",
		})
		return
	}

	respond.OK(c, http.StatusOK, "Verification code sent", gin.H{
		"verification_id": p.ID,
		"expires_at":      respond.Time(p.ExpiresAt),
	})
}

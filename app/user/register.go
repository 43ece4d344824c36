package user

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// POST /api/register registers without email verification
func Register(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data signupBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Username, email and password are required")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	u, err := d.Directory.RegisterDirect(c.Request.Context(), data.Username, data.Email, data.Password)
	if err != nil {
		respond.Error(c, err, respond.Messages{
			service.ErrConflict: "Username or email already registered",
		})
		return
	}

	respond.OK(c, http.StatusCreated, "User registered", gin.H{
		"user_id": u.ID,
	})
}

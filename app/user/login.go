package user

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/service"
	"bitwise74/file-share-api/pkg/security"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginBody struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// POST /api/login
func Login(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Identifier and password are required")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	u, err := d.Directory.Authenticate(c.Request.Context(), data.Identifier, data.Password)
	if err != nil {
		respond.Error(c, err, respond.Messages{
			service.ErrUnauthenticated: "Invalid credentials",
		})
		return
	}

	cfg := d.Config
	token, err := security.MakeToken(u.ID, []byte(cfg.JWT.Secret), cfg.JWT.TTL)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Internal server error")

		zap.L().Error("Failed to generate JWT auth token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.SetCookie("auth_token", token, int(cfg.JWT.TTL.Seconds()), "/", "", cfg.Host.SSL.Enabled, true)

	respond.OK(c, http.StatusOK, "Logged in", gin.H{
		"access_token": token,
		"user_id":      u.ID,
	})
}

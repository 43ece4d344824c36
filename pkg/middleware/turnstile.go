package middleware

import (
	"bitwise74/file-share-api/config"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const siteVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewTurnstileMiddleware checks the TurnstileToken header against Cloudflare.
// It does nothing when turnstile is disabled.
func NewTurnstileMiddleware(cfg *config.TurnstileConfig) gin.HandlerFunc {
	return newTurnstile(cfg, siteVerifyURL, &http.Client{Timeout: 10 * time.Second})
}

func newTurnstile(cfg *config.TurnstileConfig, endpoint string, client *http.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		requestID := c.MustGet("requestID").(string)

		token := c.GetHeader("TurnstileToken")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"msg":       "Missing or invalid turnstile token",
				"requestID": requestID,
			})
			return
		}

		resp, err := client.PostForm(endpoint, url.Values{
			"secret":   {cfg.SecretToken},
			"response": {token},
			"remoteip": {c.ClientIP()},
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"msg":       "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to reach turnstile", zap.Error(err), zap.String("requestID", requestID))
			return
		}
		defer resp.Body.Close()

		var res turnstileResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil || !res.Success {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"msg":       "Unauthorized",
				"requestID": requestID,
			})

			zap.L().Debug("Turnstile rejected request", zap.Strings("codes", res.ErrorCodes), zap.String("requestID", requestID))
			return
		}

		c.Next()
	}
}

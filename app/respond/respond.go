// Package respond writes the JSON bodies shared by every handler
package respond

import (
	"bitwise74/file-share-api/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TimeFormat is ISO-8601 in UTC with a Z suffix
const TimeFormat = "2006-01-02T15:04:05Z"

// Time formats t for a response body
func Time(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

type mapping struct {
	err    error
	status int
}

// Checked in order, the first match wins
var mappings = []mapping{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrInvalidCode, http.StatusUnauthorized},
	{service.ErrExpired, http.StatusBadRequest},
	{service.ErrTooManyAttempts, http.StatusTooManyRequests},
	{service.ErrRateLimited, http.StatusTooManyRequests},
}

// Status returns the HTTP status for a service error. Anything outside the
// taxonomy, dependency failures included, is a 500.
func Status(err error) int {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status
		}
	}

	return http.StatusInternalServerError
}

// OK writes status with msg and any extra fields
func OK(c *gin.Context, status int, msg string, extra gin.H) {
	body := gin.H{"msg": msg}
	for k, v := range extra {
		body[k] = v
	}

	c.JSON(status, body)
}

// Fail writes a client error body
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"msg":       msg,
		"requestID": c.GetString("requestID"),
	})
}

// Messages overrides the body text per service error
type Messages map[error]string

// Error maps err onto a response. Client errors without an entry in msgs
// expose the error text. 500s are logged and never leak err.
func Error(c *gin.Context, err error, msgs Messages) {
	status := Status(err)
	requestID := c.GetString("requestID")

	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
		Fail(c, status, "Internal server error")
		return
	}

	msg := err.Error()
	for target, m := range msgs {
		if errors.Is(err, target) {
			msg = m
			break
		}
	}

	zap.L().Debug("Request rejected", zap.Error(err), zap.Int("status", status), zap.String("requestID", requestID))
	Fail(c, status, msg)
}

package file

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/pkg/middleware"
	"bitwise74/file-share-api/pkg/validators"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// POST /api/upload
func Upload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fh, err := c.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			respond.Fail(c, http.StatusRequestEntityTooLarge, validators.ErrFileTooLarge.Error())
			return
		}

		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			respond.Fail(c, http.StatusBadRequest, validators.ErrNoFile.Error())
			return
		}

		respond.Fail(c, http.StatusBadRequest, "Invalid multipart form")

		zap.L().Debug("Failed to read multipart file", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	code, f, contentType, err := validators.FileValidator(fh, d.Config.Upload.MaxSize)
	if err != nil {
		if code == http.StatusInternalServerError {
			respond.Fail(c, code, "Internal server error")

			zap.L().Error("Failed to open uploaded file", zap.String("requestID", requestID), zap.Error(err))
			return
		}

		respond.Fail(c, code, err.Error())
		return
	}
	defer f.Close()

	file, err := d.Files.Upload(c.Request.Context(), userID, fh.Filename, f, fh.Size, contentType)
	if err != nil {
		respond.Error(c, err, nil)
		return
	}

	respond.OK(c, http.StatusCreated, "File uploaded", gin.H{
		"file_id": file.ID,
	})
}

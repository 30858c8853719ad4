package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"clipstream/video-api/service"
	"clipstream/video-api/validators"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VideoUpload accepts a multipart video, runs the synchronous checks and
// hands the transfer to the orchestrator. The response carries the upload
// id and the progress stream URL; the actual transfer finishes long after
// this handler returned.
func (a *API) VideoUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)
	username := c.GetString("username")
	avatarURL := c.GetString("avatarURL")

	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to parse multipart form", zap.Error(err))
		return
	}

	files := form.File["video"]
	if len(files) <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	fh := files[0]

	code, f, err := validators.VideoValidator(fh)
	if err != nil {
		if code == http.StatusInternalServerError {
			zap.L().Error("Failed to validate file", zap.Error(err))

			// That's to set the error into a general one for the users
			err = errors.New("internal server error")
		}

		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer f.Close()

	// Spool to disk so the transfer can outlive this request
	temp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create temporary file", zap.Error(err))
		return
	}

	if _, err := io.Copy(temp, f); err != nil {
		temp.Close()
		os.Remove(temp.Name())

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to copy data to temporary file", zap.Error(err))
		return
	}
	temp.Close()

	ext := strings.ToLower(path.Ext(fh.Filename))
	uploadID := uuid.NewString()

	err = a.Orchestrator.Begin(&service.UploadJob{
		UploadID:     uploadID,
		TempPath:     temp.Name(),
		OriginalName: fh.Filename,
		Size:         fh.Size,
		Extension:    ext,
		ContentType:  service.ResolveContentType(ext),
		OwnerID:      userID,
		OwnerName:    username,
		OwnerAvatar:  avatarURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrQuotaExceeded) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":     "Not enough storage space left",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to start upload", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploadId":    uploadID,
		"progressUrl": "/api/upload/progress/" + uploadID,
	})
}

package file

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/angulliamysara-del/MYCloud/internal/auth"
	"github.com/angulliamysara-del/MYCloud/internal/metrics"
	"github.com/angulliamysara-del/MYCloud/internal/quota"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the proxy operations on an authenticated group.
func RegisterRoutes(group gin.IRoutes, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/upload", handler.upload)
	group.GET("/files", handler.list)
	group.GET("/download/:fileId", handler.download)
	group.DELETE("/delete/:name", handler.remove)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) upload(c *gin.Context) {
	username, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	stored, err := h.service.Upload(c.Request.Context(), username, fileHeader)
	if err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Storage Quota Exceeded (5GB Limit)"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Upload success", "fileId": stored.ID})
}

func (h *httpHandler) list(c *gin.Context) {
	username, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	files, err := h.service.List(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list files"})
		return
	}

	c.JSON(http.StatusOK, files)
}

func (h *httpHandler) download(c *gin.Context) {
	username, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	meta, reader, err := h.service.Download(c.Request.Context(), username, c.Param("fileId"))
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error downloading file"})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Name))
	c.Header("Content-Type", meta.MimeType)
	if meta.Size > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", meta.Size))
	}

	// Headers are committed once bytes flow; a mid-stream provider error can
	// only end the response early, not roll it back.
	written, err := io.Copy(c.Writer, reader)
	metrics.ObserveDownload(written)
	if err != nil {
		c.Abort()
		return
	}
}

func (h *httpHandler) remove(c *gin.Context) {
	username, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), username, c.Param("name")); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

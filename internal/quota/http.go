package quota

import (
	"net/http"

	"github.com/angulliamysara-del/MYCloud/internal/auth"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the quota endpoint on an authenticated group.
func RegisterRoutes(group gin.IRoutes, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/quota", handler.getQuota)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) getQuota(c *gin.Context) {
	username, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rec, err := h.service.Get(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read quota"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

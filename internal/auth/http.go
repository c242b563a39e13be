package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the registration and login endpoints.
func RegisterRoutes(router gin.IRoutes, service *Service) {
	handler := &httpHandler{service: service}
	router.POST("/register", handler.register)
	router.POST("/login", handler.login)
}

type httpHandler struct {
	service *Service
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *httpHandler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	if _, err := h.service.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrUsernameExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		case errors.Is(err, ErrCapacityExceeded):
			c.JSON(http.StatusForbidden, gin.H{"error": "Registration closed. Max users reached."})
		case errors.Is(err, ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registration successful"})
}

func (h *httpHandler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	token, account, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "username": account.Username})
}

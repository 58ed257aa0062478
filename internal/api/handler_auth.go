package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailproof/internal/util"
)

type AuthHandler struct {
	jwtSecret string
	adminHash string
}

func NewAuthHandler(jwtSecret, adminHash string) *AuthHandler {
	return &AuthHandler{
		jwtSecret: jwtSecret,
		adminHash: adminHash,
	}
}

// Login handles POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !util.CheckPassword(req.Password, h.adminHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}

	token, err := util.GenerateAdminJWT(h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

package api

import (
	"net/http"

	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/service/checkin"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	registry *checkin.Registry
}

func NewAuthHandler(registry *checkin.Registry) *AuthHandler {
	return &AuthHandler{registry: registry}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login)
	router.POST("/admin/login", h.adminLogin)
	router.POST("/logout", h.logout)
	router.GET("/me", h.me)
}

func (h *AuthHandler) login(c *gin.Context) {
	var creds domain.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, err.Error())
		return
	}
	token, err := backendFrom(c).Login(c.Request.Context(), creds)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *AuthHandler) adminLogin(c *gin.Context) {
	var creds domain.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, err.Error())
		return
	}
	token, err := backendFrom(c).AdminLogin(c.Request.Context(), creds)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// logout drops the page state held for the token; the backend keeps no
// server-side session.
func (h *AuthHandler) logout(c *gin.Context) {
	if token := tokenFrom(c); token != "" {
		h.registry.Forget(token)
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) me(c *gin.Context) {
	user, err := backendFrom(c).Me(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

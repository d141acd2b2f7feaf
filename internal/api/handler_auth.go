package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/model"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	u, err := h.store.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	token, expires, err := h.issuer.Issue(*u)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.log.WithField("user_id", u.ID).Info("user logged in")
	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: *u})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	u, err := h.store.GetUser(c.Request.Context(), scopeOf(c), actor(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

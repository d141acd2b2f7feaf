package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/store"
)

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context(), scopeOf(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	u, err := h.store.GetUser(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in store.UserInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	u, err := h.store.CreateUser(c.Request.Context(), scopeOf(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	u, err := h.store.UpdateUser(c.Request.Context(), scopeOf(c), id, patch[store.UserInput](c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteUser removes an account. Users cannot delete themselves.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if id == actor(c).UserID {
		h.respondError(c, apperr.Conflict("cannot delete your own account"))
		return
	}
	if err := h.store.DeleteUser(c.Request.Context(), scopeOf(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

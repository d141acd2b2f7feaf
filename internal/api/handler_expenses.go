package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/store"
)

func (h *Handler) ListExpenses(c *gin.Context) {
	f, err := filterQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListExpenses(c.Request.Context(), scopeOf(c), f)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) GetExpense(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.GetExpense(c.Request.Context(), scopeOf(c), id)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateExpense(c *gin.Context) {
	var in store.ExpenseInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	in.CreatedBy = actor(c).UserID
	out, err := h.store.CreateExpense(c.Request.Context(), scopeOf(c), in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) UpdateExpense(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.UpdateExpense(c.Request.Context(), scopeOf(c), id, patch[store.ExpenseInput](c))
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteExpense(c.Request.Context(), scopeOf(c), id))
}

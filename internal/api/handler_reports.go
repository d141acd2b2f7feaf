package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
)

// CashExpenses lists a project's cash outflows on ?date=YYYY-MM-DD, grouped by category.
func (h *Handler) CashExpenses(c *gin.Context) {
	id, err := idParam(c, "projectId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		h.respondError(c, apperr.Fields(map[string]string{"date": "is required"}))
		return
	}
	day, err := parse.ParseDate(raw)
	if err != nil {
		h.respondError(c, apperr.Fields(map[string]string{"date": err.Error()}))
		return
	}
	out, err := h.store.CashExpenses(c.Request.Context(), scopeOf(c), id, model.NewDate(day))
	respond(h, c, http.StatusOK, out, err)
}

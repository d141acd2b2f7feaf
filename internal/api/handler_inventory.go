package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/store"
)

func (h *Handler) ListCategories(c *gin.Context) {
	out, err := h.store.ListCategories(c.Request.Context(), scopeOf(c))
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) GetCategory(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.GetCategory(c.Request.Context(), scopeOf(c), id)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var in store.CategoryInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateCategory(c.Request.Context(), scopeOf(c), in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.UpdateCategory(c.Request.Context(), scopeOf(c), id, patch[store.CategoryInput](c))
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteCategory(c.Request.Context(), scopeOf(c), id))
}

// ListItems lists non-consumable items, optionally of one ?categoryId.
func (h *Handler) ListItems(c *gin.Context) {
	var categoryID *uint
	if raw := c.Query("categoryId"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.respondError(c, apperr.Fields(map[string]string{"categoryId": "must be a number"}))
			return
		}
		id := uint(v)
		categoryID = &id
	}
	out, err := h.store.ListItems(c.Request.Context(), scopeOf(c), categoryID)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) GetItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.GetItem(c.Request.Context(), scopeOf(c), id)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateItem(c *gin.Context) {
	var in store.ItemInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateItem(c.Request.Context(), scopeOf(c), in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.UpdateItem(c.Request.Context(), scopeOf(c), id, patch[store.ItemInput](c))
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) DeleteItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteItem(c.Request.Context(), scopeOf(c), id))
}

// MoveItem shifts quantity between an item's location buckets.
func (h *Handler) MoveItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in store.MoveInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.MoveItem(c.Request.Context(), scopeOf(c), id, in)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) ListMaterials(c *gin.Context) {
	f, err := filterQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListMaterials(c.Request.Context(), scopeOf(c), f)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) GetMaterial(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.GetMaterial(c.Request.Context(), scopeOf(c), id)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateMaterial(c *gin.Context) {
	var in store.MaterialInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateMaterial(c.Request.Context(), scopeOf(c), in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) UpdateMaterial(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.UpdateMaterial(c.Request.Context(), scopeOf(c), id, patch[store.MaterialInput](c))
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) DeleteMaterial(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteMaterial(c.Request.Context(), scopeOf(c), id))
}

func (h *Handler) ListMovements(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListMovements(c.Request.Context(), scopeOf(c), id)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateMovement(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in store.MovementInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateMovement(c.Request.Context(), scopeOf(c), id, in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) DeleteMovement(c *gin.Context) {
	v, err := ids(c, "id", "movementId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteMovement(c.Request.Context(), scopeOf(c), v[0], v[1]))
}

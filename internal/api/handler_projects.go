package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/export"
	"sitebooks-backend/internal/store"
)

func (h *Handler) ListProjects(c *gin.Context) {
	f, err := filterQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	projects, err := h.store.ListProjects(c.Request.Context(), scopeOf(c), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	p, err := h.store.GetProject(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateProject(c *gin.Context) {
	var in store.ProjectInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	p, err := h.store.CreateProject(c.Request.Context(), scopeOf(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	p, err := h.store.UpdateProject(c.Request.Context(), scopeOf(c), id, patch[store.ProjectInput](c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteProject(c.Request.Context(), scopeOf(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ProjectLedger returns the project's running balance, optionally limited by from/to.
func (h *Handler) ProjectLedger(c *gin.Context) {
	report, ok := h.projectLedger(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportProjectLedger streams the project ledger as an xlsx workbook.
func (h *Handler) ExportProjectLedger(c *gin.Context) {
	report, ok := h.projectLedger(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.ProjectLedger(&buf, "Project: "+report.Project.Name, report.ProjectBook); err != nil {
		h.respondError(c, err)
		return
	}
	sendWorkbook(c, fmt.Sprintf("project-%d-ledger.xlsx", report.Project.ID), buf.Bytes())
}

func (h *Handler) projectLedger(c *gin.Context) (*store.ProjectLedgerReport, bool) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	r, err := rangeQuery(c)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	report, err := h.store.ProjectLedger(c.Request.Context(), scopeOf(c), id, r)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return report, true
}

func (h *Handler) ListAdjustments(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListAdjustments(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateAdjustment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in store.AdjustmentInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	in.CreatedBy = actor(c).UserID
	adj, err := h.store.CreateAdjustment(c.Request.Context(), scopeOf(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, adj)
}

func (h *Handler) DeleteAdjustment(c *gin.Context) {
	p, err := ids(c, "id", "adjustmentId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteAdjustment(c.Request.Context(), scopeOf(c), p[0], p[1]); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func sendWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, data)
}

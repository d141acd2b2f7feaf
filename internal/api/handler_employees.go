package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/store"
)

func (h *Handler) ListEmployees(c *gin.Context) {
	f, err := filterQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListEmployees(c.Request.Context(), scopeOf(c), f)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) GetEmployee(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.GetEmployee(c.Request.Context(), scopeOf(c), id)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	var in store.EmployeeInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateEmployee(c.Request.Context(), scopeOf(c), in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) UpdateEmployee(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.UpdateEmployee(c.Request.Context(), scopeOf(c), id, patch[store.EmployeeInput](c))
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) DeleteEmployee(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteEmployee(c.Request.Context(), scopeOf(c), id))
}

func (h *Handler) ListAttendance(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListAttendance(c.Request.Context(), scopeOf(c), id, r)
	respond(h, c, http.StatusOK, out, err)
}

// MarkAttendance sets the employee's status for a date, replacing any earlier mark.
func (h *Handler) MarkAttendance(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in store.AttendanceInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.MarkAttendance(c.Request.Context(), scopeOf(c), id, in)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) ListEmployeePayments(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListEmployeePayments(c.Request.Context(), scopeOf(c), id, r)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateEmployeePayment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in store.PaymentInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateEmployeePayment(c.Request.Context(), scopeOf(c), id, in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) DeleteEmployeePayment(c *gin.Context) {
	v, err := ids(c, "id", "paymentId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteEmployeePayment(c.Request.Context(), scopeOf(c), v[0], v[1]))
}

// EmployeeSummary reports attendance and wages for ?month=YYYY-MM.
func (h *Handler) EmployeeSummary(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	month := c.Query("month")
	if month == "" {
		h.respondError(c, apperr.Fields(map[string]string{"month": "is required"}))
		return
	}
	out, err := h.store.EmployeeSummary(c.Request.Context(), scopeOf(c), id, month)
	respond(h, c, http.StatusOK, out, err)
}

package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/export"
	"sitebooks-backend/internal/store"
)

func (h *Handler) ListVendors(c *gin.Context) {
	f, err := filterQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListVendors(c.Request.Context(), scopeOf(c), f)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) GetVendor(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.GetVendor(c.Request.Context(), scopeOf(c), id)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateVendor(c *gin.Context) {
	var in store.VendorInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateVendor(c.Request.Context(), scopeOf(c), in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) UpdateVendor(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.UpdateVendor(c.Request.Context(), scopeOf(c), id, patch[store.VendorInput](c))
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) DeleteVendor(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteVendor(c.Request.Context(), scopeOf(c), id))
}

func (h *Handler) ListVendorBills(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListVendorBills(c.Request.Context(), scopeOf(c), id, r)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateVendorBill(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in store.VendorBillInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateVendorBill(c.Request.Context(), scopeOf(c), id, in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) DeleteVendorBill(c *gin.Context) {
	v, err := ids(c, "id", "billId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteVendorBill(c.Request.Context(), scopeOf(c), v[0], v[1]))
}

func (h *Handler) ListVendorPayments(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListVendorPayments(c.Request.Context(), scopeOf(c), id, r)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateVendorPayment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in store.VendorPaymentInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateVendorPayment(c.Request.Context(), scopeOf(c), id, in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) DeleteVendorPayment(c *gin.Context) {
	v, err := ids(c, "id", "paymentId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteVendorPayment(c.Request.Context(), scopeOf(c), v[0], v[1]))
}

func (h *Handler) VendorLedger(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.VendorLedger(c.Request.Context(), scopeOf(c), id, r)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) ExportVendorLedger(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	report, err := h.store.VendorLedger(c.Request.Context(), scopeOf(c), id, r)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.PartyLedger(&buf, "Vendor: "+report.Vendor.Name, report.Book); err != nil {
		h.respondError(c, err)
		return
	}
	sendWorkbook(c, fmt.Sprintf("vendor-%d-ledger.xlsx", id), buf.Bytes())
}

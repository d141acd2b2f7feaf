package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/store"
)

func (h *Handler) ListBankAccounts(c *gin.Context) {
	f, err := filterQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListBankAccounts(c.Request.Context(), scopeOf(c), f)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) GetBankAccount(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.GetBankAccount(c.Request.Context(), scopeOf(c), id)
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) CreateBankAccount(c *gin.Context) {
	var in store.BankAccountInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateBankAccount(c.Request.Context(), scopeOf(c), in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) UpdateBankAccount(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.UpdateBankAccount(c.Request.Context(), scopeOf(c), id, patch[store.BankAccountInput](c))
	respond(h, c, http.StatusOK, out, err)
}

func (h *Handler) DeleteBankAccount(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteBankAccount(c.Request.Context(), scopeOf(c), id))
}

func (h *Handler) ListBankTransactions(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.ListBankTransactions(c.Request.Context(), scopeOf(c), id, r)
	respond(h, c, http.StatusOK, out, err)
}

// CreateBankTransaction records a credit or debit and moves the account balance.
func (h *Handler) CreateBankTransaction(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in store.BankTransactionInput
	if err := bind(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.CreateBankTransaction(c.Request.Context(), scopeOf(c), id, in)
	respond(h, c, http.StatusCreated, out, err)
}

func (h *Handler) DeleteBankTransaction(c *gin.Context) {
	v, err := ids(c, "id", "txId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	noContent(h, c, h.store.DeleteBankTransaction(c.Request.Context(), scopeOf(c), v[0], v[1]))
}

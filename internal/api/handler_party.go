package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/export"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
	"sitebooks-backend/internal/rbac"
	"sitebooks-backend/internal/store"
)

// partyEndpoints serves one party family (contractors or machines): the party itself
// (T, created from In) with its entries (E), payments (P) and allocations (A).
type partyEndpoints[T, In, E, P, A any] struct {
	h        *Handler
	resource rbac.Resource
	title    string

	list   func(context.Context, rbac.Scope, store.Filter) ([]T, error)
	get    func(context.Context, rbac.Scope, uint) (*T, error)
	create func(context.Context, rbac.Scope, In) (*T, error)
	update func(context.Context, rbac.Scope, uint, func(*In) error) (*T, error)
	remove func(context.Context, rbac.Scope, uint) error

	listEntries func(context.Context, rbac.Scope, uint, parse.Range) ([]E, error)
	createEntry func(context.Context, rbac.Scope, uint, store.EntryInput) (*E, error)
	updateEntry func(context.Context, rbac.Scope, uint, uint, func(*store.EntryInput) error) (*E, error)
	deleteEntry func(context.Context, rbac.Scope, uint, uint) error

	listPayments  func(context.Context, rbac.Scope, uint, parse.Range) ([]P, error)
	createPayment func(context.Context, rbac.Scope, uint, store.PaymentInput) (*P, error)
	updatePayment func(context.Context, rbac.Scope, uint, uint, func(*store.PaymentInput) error) (*P, error)
	deletePayment func(context.Context, rbac.Scope, uint, uint) error

	listAllocations  func(context.Context, rbac.Scope, uint) ([]A, error)
	createAllocation func(context.Context, rbac.Scope, uint, store.AllocationInput) (*A, error)
	deleteAllocation func(context.Context, rbac.Scope, uint, uint) error

	ledger func(context.Context, rbac.Scope, uint, parse.Range) (*store.PartyLedger, error)
}

// register mounts the eight route groups of the party under g.
func (p *partyEndpoints[T, In, E, P, A]) register(g *gin.RouterGroup, cached gin.HandlerFunc) {
	view := rbac.Require(p.resource, rbac.View)
	create := rbac.Require(p.resource, rbac.Create)
	update := rbac.Require(p.resource, rbac.Update)
	del := rbac.Require(p.resource, rbac.Delete)

	g.GET("", view, p.listParties)
	g.POST("", create, p.createParty)
	g.GET("/:id", view, p.getParty)
	g.PATCH("/:id", update, p.updateParty)
	g.DELETE("/:id", del, p.deleteParty)

	g.GET("/:id/entries", view, p.listEntriesOf)
	g.POST("/:id/entries", create, p.createEntryOf)
	g.PATCH("/:id/entries/:entryId", update, p.updateEntryOf)
	g.DELETE("/:id/entries/:entryId", del, p.deleteEntryOf)

	g.GET("/:id/payments", view, p.listPaymentsOf)
	g.POST("/:id/payments", create, p.createPaymentOf)
	g.PATCH("/:id/payments/:paymentId", update, p.updatePaymentOf)
	g.DELETE("/:id/payments/:paymentId", del, p.deletePaymentOf)

	g.GET("/:id/allocations", view, p.listAllocationsOf)
	g.POST("/:id/allocations", create, p.createAllocationOf)
	g.DELETE("/:id/allocations/:allocationId", del, p.deleteAllocationOf)

	g.GET("/:id/ledger", view, cached, p.ledgerOf)
	g.GET("/:id/ledger/export", view, p.exportLedger)
}

func (p *partyEndpoints[T, In, E, P, A]) listParties(c *gin.Context) {
	f, err := filterQuery(c)
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.list(c.Request.Context(), scopeOf(c), f)
	respond(p.h, c, http.StatusOK, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) getParty(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.get(c.Request.Context(), scopeOf(c), id)
	respond(p.h, c, http.StatusOK, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) createParty(c *gin.Context) {
	var in In
	if err := bind(c, &in); err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.create(c.Request.Context(), scopeOf(c), in)
	respond(p.h, c, http.StatusCreated, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) updateParty(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.update(c.Request.Context(), scopeOf(c), id, patch[In](c))
	respond(p.h, c, http.StatusOK, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) deleteParty(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	noContent(p.h, c, p.remove(c.Request.Context(), scopeOf(c), id))
}

func (p *partyEndpoints[T, In, E, P, A]) listEntriesOf(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.listEntries(c.Request.Context(), scopeOf(c), id, r)
	respond(p.h, c, http.StatusOK, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) createEntryOf(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	var in store.EntryInput
	if err := bind(c, &in); err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.createEntry(c.Request.Context(), scopeOf(c), id, in)
	respond(p.h, c, http.StatusCreated, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) updateEntryOf(c *gin.Context) {
	v, err := ids(c, "id", "entryId")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.updateEntry(c.Request.Context(), scopeOf(c), v[0], v[1], patch[store.EntryInput](c))
	respond(p.h, c, http.StatusOK, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) deleteEntryOf(c *gin.Context) {
	v, err := ids(c, "id", "entryId")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	noContent(p.h, c, p.deleteEntry(c.Request.Context(), scopeOf(c), v[0], v[1]))
}

func (p *partyEndpoints[T, In, E, P, A]) listPaymentsOf(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.listPayments(c.Request.Context(), scopeOf(c), id, r)
	respond(p.h, c, http.StatusOK, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) createPaymentOf(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	var in store.PaymentInput
	if err := bind(c, &in); err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.createPayment(c.Request.Context(), scopeOf(c), id, in)
	respond(p.h, c, http.StatusCreated, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) updatePaymentOf(c *gin.Context) {
	v, err := ids(c, "id", "paymentId")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.updatePayment(c.Request.Context(), scopeOf(c), v[0], v[1], patch[store.PaymentInput](c))
	respond(p.h, c, http.StatusOK, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) deletePaymentOf(c *gin.Context) {
	v, err := ids(c, "id", "paymentId")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	noContent(p.h, c, p.deletePayment(c.Request.Context(), scopeOf(c), v[0], v[1]))
}

func (p *partyEndpoints[T, In, E, P, A]) listAllocationsOf(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.listAllocations(c.Request.Context(), scopeOf(c), id)
	respond(p.h, c, http.StatusOK, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) createAllocationOf(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	var in store.AllocationInput
	if err := bind(c, &in); err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.createAllocation(c.Request.Context(), scopeOf(c), id, in)
	respond(p.h, c, http.StatusCreated, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) deleteAllocationOf(c *gin.Context) {
	v, err := ids(c, "id", "allocationId")
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	noContent(p.h, c, p.deleteAllocation(c.Request.Context(), scopeOf(c), v[0], v[1]))
}

func (p *partyEndpoints[T, In, E, P, A]) ledgerOf(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	out, err := p.ledger(c.Request.Context(), scopeOf(c), id, r)
	respond(p.h, c, http.StatusOK, out, err)
}

func (p *partyEndpoints[T, In, E, P, A]) exportLedger(c *gin.Context) {
	id, r, err := idAndRange(c)
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	report, err := p.ledger(c.Request.Context(), scopeOf(c), id, r)
	if err != nil {
		p.h.respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.PartyLedger(&buf, p.title+": "+report.Name, report.Book); err != nil {
		p.h.respondError(c, err)
		return
	}
	sendWorkbook(c, fmt.Sprintf("%s-%d-ledger.xlsx", p.resource, id), buf.Bytes())
}

func idAndRange(c *gin.Context) (uint, parse.Range, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return 0, parse.Range{}, err
	}
	r, err := rangeQuery(c)
	return id, r, err
}

// respond writes v with status, or the error envelope when err is set.
func respond(h *Handler, c *gin.Context, status int, v any, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, v)
}

func noContent(h *Handler, c *gin.Context, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) contractorEndpoints() *partyEndpoints[model.Contractor, store.ContractorInput, model.ContractorEntry, model.ContractorPayment, model.ContractorPaymentAllocation] {
	s := h.store
	return &partyEndpoints[model.Contractor, store.ContractorInput, model.ContractorEntry, model.ContractorPayment, model.ContractorPaymentAllocation]{
		h: h, resource: rbac.Contractors, title: "Contractor",
		list: s.ListContractors, get: s.GetContractor, create: s.CreateContractor,
		update: s.UpdateContractor, remove: s.DeleteContractor,
		listEntries: s.ListContractorEntries, createEntry: s.CreateContractorEntry,
		updateEntry: s.UpdateContractorEntry, deleteEntry: s.DeleteContractorEntry,
		listPayments: s.ListContractorPayments, createPayment: s.CreateContractorPayment,
		updatePayment: s.UpdateContractorPayment, deletePayment: s.DeleteContractorPayment,
		listAllocations: s.ListContractorAllocations, createAllocation: s.CreateContractorAllocation,
		deleteAllocation: s.DeleteContractorAllocation,
		ledger:           s.ContractorLedger,
	}
}

func (h *Handler) machineEndpoints() *partyEndpoints[model.Machine, store.MachineInput, model.MachineEntry, model.MachinePayment, model.MachinePaymentAllocation] {
	s := h.store
	return &partyEndpoints[model.Machine, store.MachineInput, model.MachineEntry, model.MachinePayment, model.MachinePaymentAllocation]{
		h: h, resource: rbac.Machines, title: "Machine",
		list: s.ListMachines, get: s.GetMachine, create: s.CreateMachine,
		update: s.UpdateMachine, remove: s.DeleteMachine,
		listEntries: s.ListMachineEntries, createEntry: s.CreateMachineEntry,
		updateEntry: s.UpdateMachineEntry, deleteEntry: s.DeleteMachineEntry,
		listPayments: s.ListMachinePayments, createPayment: s.CreateMachinePayment,
		updatePayment: s.UpdateMachinePayment, deletePayment: s.DeleteMachinePayment,
		listAllocations: s.ListMachineAllocations, createAllocation: s.CreateMachineAllocation,
		deleteAllocation: s.DeleteMachineAllocation,
		ledger:           s.MachineLedger,
	}
}

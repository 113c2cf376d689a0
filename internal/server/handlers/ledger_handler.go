package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/service/ledger"
)

// LedgerHandler serves the chart of accounts and its entries.
type LedgerHandler struct {
	svc    *ledger.Service
	logger *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(svc *ledger.Service, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{svc: svc, logger: nopIfNil(logger)}
}

func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var acc models.Account
	if !bind(c, h.logger, &acc) {
		return
	}
	out, err := h.svc.CreateAccount(c.Request.Context(), &acc)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, "Account created successfully", out)
}

func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	page := pageOf(c)
	accounts, total, err := h.svc.ListAccounts(c.Request.Context(), page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	paged(c, "Accounts retrieved successfully", page, total, accounts)
}

func (h *LedgerHandler) GetAccount(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	acc, err := h.svc.GetAccount(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Account retrieved successfully", acc)
}

// Entries lists the journal lines posted to an account, newest first.
func (h *LedgerHandler) Entries(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	page := pageOf(c)
	entries, total, err := h.svc.Entries(c.Request.Context(), id, page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	paged(c, "Ledger entries retrieved successfully", page, total, entries)
}

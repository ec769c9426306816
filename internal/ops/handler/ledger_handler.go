package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
)

type LedgerHandler struct {
	svc *service.LedgerService
}

func NewLedgerHandler(svc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

func (h *LedgerHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.LedgerListParams{
		PartID:       c.Query("part_id"),
		LocationKind: c.Query("location_kind"),
		LocationID:   c.Query("location_id"),
		Page:         page,
		Size:         size,
	}
	entries, total, err := h.svc.List(params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": entries, "total": total, "page": page, "size": size})
}

// Quantity reads one balance: GET /ledger/quantity?part_id=&kind=&location_id=
func (h *LedgerHandler) Quantity(c *gin.Context) {
	loc := entity.Location{Kind: c.Query("kind"), ID: c.Query("location_id")}
	qty, err := h.svc.Quantity(c.Request.Context(), c.Query("part_id"), loc)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"quantity": qty})
}

// Alerts lists storage balances at or below a threshold:
// GET /ledger/alerts?threshold=5
func (h *LedgerHandler) Alerts(c *gin.Context) {
	threshold, err := strconv.ParseInt(c.DefaultQuery("threshold", "0"), 10, 64)
	if err != nil {
		badRequest(c, fmt.Errorf("threshold must be an integer"))
		return
	}
	entries, err := h.svc.LowStock(threshold)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": entries, "threshold": threshold})
}

func (h *LedgerHandler) Movements(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	moves, total, err := h.svc.ListMovements(c.Query("part_id"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": moves, "total": total, "page": page, "size": size})
}

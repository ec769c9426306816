package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
)

type MovementHandler struct {
	svc *service.MovementService
}

func NewMovementHandler(svc *service.MovementService) *MovementHandler {
	return &MovementHandler{svc: svc}
}

// Apply runs a named action on an ordered part:
// POST /ordered-parts/:id/actions/:action
func (h *MovementHandler) Apply(c *gin.Context) {
	var params service.ActionParams
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&params); err != nil {
			badRequest(c, err)
			return
		}
	}
	err := h.svc.Apply(c.Request.Context(), c.Param("action"), c.Param("id"), actorID(c), params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

type scrapRequest struct {
	FactoryID string `json:"factory_id" binding:"required"`
	PartID    string `json:"part_id" binding:"required"`
	Qty       int64  `json:"qty" binding:"required,gt=0"`
	Reason    string `json:"reason" binding:"required"`
}

// Scrap writes down damaged stock: POST /ledger/scrap
func (h *MovementHandler) Scrap(c *gin.Context) {
	var req scrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := h.svc.ScrapDamaged(c.Request.Context(), req.FactoryID, req.PartID, req.Qty, actorID(c), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

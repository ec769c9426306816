package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
)

type OrderHandler struct {
	svc      *service.OrderService
	workflow *service.WorkflowService
	tracker  *service.TrackerService
}

func NewOrderHandler(svc *service.OrderService, workflow *service.WorkflowService, tracker *service.TrackerService) *OrderHandler {
	return &OrderHandler{svc: svc, workflow: workflow, tracker: tracker}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.svc.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 40402, "message": err.Error()})
		return
	}
	ok(c, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	statusID, _ := strconv.Atoi(c.Query("status_id"))
	params := repository.OrderListParams{
		OrderType: c.Query("order_type"),
		FactoryID: c.Query("factory_id"),
		MachineID: c.Query("machine_id"),
		StatusID:  statusID,
		Page:      page,
		Size:      size,
	}
	orders, total, err := h.svc.List(params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": orders, "total": total, "page": page, "size": size})
}

func (h *OrderHandler) Advance(c *gin.Context) {
	next, err := h.svc.Advance(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"new_status_id": next})
}

type reviewRequest struct {
	Note string `json:"note"`
}

func (h *OrderHandler) Deny(c *gin.Context) {
	var req reviewRequest
	c.ShouldBindJSON(&req)
	if err := h.svc.Deny(c.Request.Context(), c.Param("id"), actorID(c), req.Note); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *OrderHandler) Revise(c *gin.Context) {
	var req reviewRequest
	c.ShouldBindJSON(&req)
	prev, err := h.svc.Revise(c.Request.Context(), c.Param("id"), actorID(c), req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"new_status_id": prev})
}

func (h *OrderHandler) Progress(c *gin.Context) {
	progress, err := h.svc.Progress(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, progress)
}

func (h *OrderHandler) History(c *gin.Context) {
	history, err := h.tracker.HistoryFor(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, history)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *OrderHandler) Workflow(c *gin.Context) {
	seq, err := h.workflow.Sequence(c.Param("orderType"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"order_type": c.Param("orderType"), "sequence": seq})
}

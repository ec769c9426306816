package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
)

type LoanHandler struct {
	svc *service.LoanService
}

func NewLoanHandler(svc *service.LoanService) *LoanHandler {
	return &LoanHandler{svc: svc}
}

func (h *LoanHandler) Start(c *gin.Context) {
	var req service.StartLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	loan, err := h.svc.Start(c.Request.Context(), req, actorID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, loan)
}

func (h *LoanHandler) Complete(c *gin.Context) {
	if err := h.svc.Complete(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *LoanHandler) Get(c *gin.Context) {
	loan, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 40403, "message": err.Error()})
		return
	}
	ok(c, loan)
}

func (h *LoanHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	var completed *bool
	if v := c.Query("completed"); v != "" {
		b := v == "true"
		completed = &b
	}
	loans, total, err := h.svc.List(completed, page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": loans, "total": total, "page": page, "size": size})
}

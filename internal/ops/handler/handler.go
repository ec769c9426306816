package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/sse"
)

// Handlers bundles the engine's HTTP handlers.
type Handlers struct {
	Order    *OrderHandler
	Movement *MovementHandler
	Loan     *LoanHandler
	Ledger   *LedgerHandler
	Document *DocumentHandler
	SSE      *SSEHandler
}

func NewHandlers(services *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		Order:    NewOrderHandler(services.Order, services.Workflow, services.Tracker),
		Movement: NewMovementHandler(services.Movement),
		Loan:     NewLoanHandler(services.Loan),
		Ledger:   NewLedgerHandler(services.Ledger),
		Document: NewDocumentHandler(services.Document),
		SSE:      NewSSEHandler(hub),
	}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
}

// fail maps engine sentinels to HTTP responses. Every error is a
// user-visible failure of one action; nothing here is fatal.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrIncompleteTransferData),
		errors.Is(err, service.ErrPreconditionNotMet):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 42201, "message": err.Error()})
	case errors.Is(err, service.ErrInsufficientQuantity):
		c.JSON(http.StatusConflict, gin.H{"code": 40901, "message": err.Error()})
	case errors.Is(err, service.ErrAlreadyTerminal),
		errors.Is(err, service.ErrNoNextStatus),
		errors.Is(err, service.ErrNoPreviousStatus),
		errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrAlreadyApproved):
		c.JSON(http.StatusConflict, gin.H{"code": 40902, "message": err.Error()})
	case errors.Is(err, service.ErrConcurrentModification):
		// Transient: the caller should re-query state and retry.
		c.JSON(http.StatusConflict, gin.H{"code": 40903, "message": err.Error()})
	case errors.Is(err, service.ErrUnknownWorkflow):
		c.JSON(http.StatusNotFound, gin.H{"code": 40401, "message": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 40402, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

func actorID(c *gin.Context) string {
	if v, exists := c.Get("user_id"); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

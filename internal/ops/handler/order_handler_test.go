package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/middleware"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/sse"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/testutil"
)

func setupOrderTest(t *testing.T) (*testutil.TestEnv, *service.Services) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	svcs := service.NewServices(repos, testutil.NopNotifier{}, nil, "", testutil.Logger())
	hub := sse.NewHub(testutil.Logger())
	handlers := NewHandlers(svcs, hub)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/orders", middleware.RequirePermission("orders:create"), handlers.Order.Create)
	api.GET("/orders", handlers.Order.List)
	api.GET("/orders/:id", handlers.Order.Get)
	api.POST("/orders/:id/advance", middleware.RequirePermission("orders:advance"), handlers.Order.Advance)
	api.POST("/orders/:id/deny", middleware.RequirePermission("orders:review"), handlers.Order.Deny)
	api.GET("/orders/:id/progress", handlers.Order.Progress)
	api.GET("/orders/:id/history", handlers.Order.History)
	api.GET("/workflows/:orderType", handlers.Order.Workflow)

	return &testutil.TestEnv{DB: db, Router: router, T: t}, svcs
}

func seedWorkflow(t *testing.T, db *gorm.DB, svcs *service.Services, orderType string, seq []int) {
	t.Helper()
	var statuses []entity.Status
	var steps []entity.WorkflowStep
	for i, id := range seq {
		statuses = append(statuses, entity.Status{ID: id, Name: fmt.Sprintf("Status %d", id)})
		steps = append(steps, entity.WorkflowStep{OrderType: orderType, Position: i + 1, StatusID: id})
	}
	repos := repository.NewRepositories(db)
	if err := repos.Workflow.Seed(statuses,
		[]entity.OrderWorkflow{{OrderType: orderType, Name: orderType + " workflow"}}, steps); err != nil {
		t.Fatalf("Failed to seed workflow: %v", err)
	}
	if err := svcs.Workflow.Load(); err != nil {
		t.Fatalf("Failed to load workflow catalog: %v", err)
	}
}

func TestOrderCreateAndAdvance(t *testing.T) {
	env, svcs := setupOrderTest(t)
	token := testutil.DefaultTestToken()
	seedWorkflow(t, env.DB, svcs, "PFM", []int{1, 2, 8})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusInactive)
	partID := uuid.New().String()
	testutil.SeedPart(t, env.DB, partID, "Bearing 6204")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/orders", map[string]interface{}{
		"order_type": "PFM",
		"factory_id": "f1",
		"machine_id": "m1",
		"parts":      []map[string]interface{}{{"part_id": partID, "qty": 2}},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	orderID := data["id"].(string)
	if data["current_status_id"].(float64) != 1 {
		t.Errorf("Expected initial status 1, got %v", data["current_status_id"])
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/orders/"+orderID+"/advance", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["new_status_id"].(float64) != 2 {
		t.Errorf("Expected new status 2, got %v", resp["data"])
	}

	// History shows both transitions.
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/orders/"+orderID+"/history", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if entries := resp["data"].([]interface{}); len(entries) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(entries))
	}
}

func TestOrderAdvancePastTerminal(t *testing.T) {
	env, svcs := setupOrderTest(t)
	token := testutil.DefaultTestToken()
	seedWorkflow(t, env.DB, svcs, "PFM", []int{1, 8})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusActive)
	partID := uuid.New().String()
	testutil.SeedPart(t, env.DB, partID, "Bearing 6204")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/orders", map[string]interface{}{
		"order_type": "PFM",
		"factory_id": "f1",
		"machine_id": "m1",
		"parts":      []map[string]interface{}{{"part_id": partID, "qty": 1}},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	orderID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/orders/"+orderID+"/advance", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/orders/"+orderID+"/advance", nil, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 past terminal status, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOrderCreateValidation(t *testing.T) {
	env, svcs := setupOrderTest(t)
	token := testutil.DefaultTestToken()
	seedWorkflow(t, env.DB, svcs, "PFM", []int{1, 8})

	// No parts.
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/orders", map[string]interface{}{
		"order_type": "PFM",
		"factory_id": "f1",
		"parts":      []map[string]interface{}{},
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty parts, got %d", w.Code)
	}

	// Unknown order type.
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/orders", map[string]interface{}{
		"order_type": "ZZZ",
		"factory_id": "f1",
		"parts":      []map[string]interface{}{{"part_id": "p1", "qty": 1}},
	}, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown order type, got %d: %s", w.Code, w.Body.String())
	}
}

// Acting on an order that does not exist answers 404, same as reading it.
func TestOrderActionsUnknownID(t *testing.T) {
	env, svcs := setupOrderTest(t)
	token := testutil.DefaultTestToken()
	seedWorkflow(t, env.DB, svcs, "PFM", []int{1, 8})
	missing := uuid.New().String()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/orders/"+missing+"/advance", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 advancing unknown order, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/orders/"+missing+"/deny",
		map[string]interface{}{"note": "nope"}, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 denying unknown order, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/orders/"+missing+"/progress", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown order progress, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOrderRoutesRequireAuth(t *testing.T) {
	env, _ := setupOrderTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/orders", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/orders", gin.H{}, "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a bad token, got %d", w.Code)
	}
}

func TestWorkflowEndpoint(t *testing.T) {
	env, svcs := setupOrderTest(t)
	token := testutil.DefaultTestToken()
	seedWorkflow(t, env.DB, svcs, "STM", []int{1, 10, 11})

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/workflows/STM", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	seq := resp["data"].(map[string]interface{})["sequence"].([]interface{})
	if len(seq) != 3 {
		t.Errorf("Expected 3 steps, got %d", len(seq))
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/workflows/NOPE", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown workflow, got %d", w.Code)
	}
}

package service_test

import (
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/testutil"
)

type testEnv struct {
	DB    *gorm.DB
	Repos *repository.Repositories
	Svcs  *service.Services
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svcs := service.NewServices(repos, testutil.NopNotifier{}, nil, "", testutil.Logger())
	return &testEnv{DB: db, Repos: repos, Svcs: svcs}
}

// seedCatalog installs a status sequence for one order type and reloads
// the in-memory catalog.
func seedCatalog(t *testing.T, env *testEnv, orderType string, seq []int) {
	t.Helper()
	var statuses []entity.Status
	var steps []entity.WorkflowStep
	for i, id := range seq {
		statuses = append(statuses, entity.Status{ID: id, Name: fmt.Sprintf("Status %d", id)})
		steps = append(steps, entity.WorkflowStep{OrderType: orderType, Position: i + 1, StatusID: id})
	}
	workflows := []entity.OrderWorkflow{{OrderType: orderType, Name: orderType + " workflow"}}
	if err := env.Repos.Workflow.Seed(statuses, workflows, steps); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if err := env.Svcs.Workflow.Load(); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
}

// creditLedger puts qty of a part at a location, bypassing business
// actions, for test arrangement.
func creditLedger(t *testing.T, env *testEnv, partID string, loc entity.Location, qty int64) {
	t.Helper()
	err := env.Svcs.Ledger.Adjust(t.Context(), partID, loc, qty, service.MovementRef{
		Kind:    entity.MoveAdjust,
		RefType: "ADJUST",
		RefID:   "test-seed",
		ActorID: "test",
	})
	if err != nil {
		t.Fatalf("credit ledger: %v", err)
	}
}

func quantity(t *testing.T, env *testEnv, partID string, loc entity.Location) int64 {
	t.Helper()
	qty, err := env.Svcs.Ledger.Quantity(t.Context(), partID, loc)
	if err != nil {
		t.Fatalf("read quantity: %v", err)
	}
	return qty
}

package service_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/testutil"
)

func createPFMOrder(t *testing.T, env *testEnv, machineID string, qty int64) *entity.Order {
	t.Helper()
	partID := uuid.New().String()
	testutil.SeedPart(t, env.DB, partID, "Bearing 6204")
	order, err := env.Svcs.Order.Create(t.Context(), service.CreateOrderRequest{
		OrderType: entity.OrderTypePFM,
		FactoryID: "f1",
		MachineID: &machineID,
		Parts:     []service.CreateOrderPart{{PartID: partID, Qty: qty}},
	}, "officer-1")
	require.NoError(t, err)
	return order
}

// The canonical walk: created at the first status, each advance moves
// exactly one step, the terminal status refuses further advances.
func TestAdvanceWalksSequence(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, 2, 8})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusInactive)

	order := createPFMOrder(t, env, "m1", 4)
	assert.Equal(t, 1, order.CurrentStatusID)

	next, err := env.Svcs.Order.Advance(t.Context(), order.ID, "officer-2")
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	history, err := env.Svcs.Tracker.HistoryFor(order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	next, err = env.Svcs.Order.Advance(t.Context(), order.ID, "officer-2")
	require.NoError(t, err)
	assert.Equal(t, 8, next)

	_, err = env.Svcs.Order.Advance(t.Context(), order.ID, "officer-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrAlreadyTerminal))

	// Every recorded status is a member of the canonical sequence.
	history, err = env.Svcs.Tracker.HistoryFor(order.ID)
	require.NoError(t, err)
	for _, e := range history {
		contains, err := env.Svcs.Workflow.Contains("PFM", e.StatusID)
		require.NoError(t, err)
		assert.True(t, contains, "status %d outside sequence", e.StatusID)
	}
}

// Creation writes the order and its first history entry together; the
// history of a fresh order is never empty.
func TestCreateRecordsInitialHistory(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, 2, 8})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusActive)

	order := createPFMOrder(t, env, "m1", 1)

	history, err := env.Svcs.Tracker.HistoryFor(order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].StatusID)
	assert.Equal(t, entity.TrackerActionAdvance, history[0].Action)
	assert.Equal(t, "order created", history[0].Note)
}

// An order referencing a missing factory or part is rejected before
// anything is written.
func TestCreateRejectsUnknownReferences(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, 2, 8})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	machineID := "m1"
	partID := uuid.New().String()
	testutil.SeedPart(t, env.DB, partID, "Bearing 6204")

	_, err := env.Svcs.Order.Create(t.Context(), service.CreateOrderRequest{
		OrderType: entity.OrderTypePFM,
		FactoryID: "f9",
		MachineID: &machineID,
		Parts:     []service.CreateOrderPart{{PartID: partID, Qty: 1}},
	}, "officer-1")
	assert.True(t, errors.Is(err, service.ErrPreconditionNotMet))

	_, err = env.Svcs.Order.Create(t.Context(), service.CreateOrderRequest{
		OrderType: entity.OrderTypePFM,
		FactoryID: "f1",
		MachineID: &machineID,
		Parts:     []service.CreateOrderPart{{PartID: uuid.New().String(), Qty: 1}},
	}, "officer-1")
	assert.True(t, errors.Is(err, service.ErrPreconditionNotMet))

	_, total, err := env.Svcs.Order.List(repository.OrderListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestAdvanceUnknownWorkflow(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, 2, 8})

	order := &entity.Order{
		OrderType:       "XXX",
		FactoryID:       "f1",
		CurrentStatusID: 1,
		CreatedBy:       "officer-1",
	}
	require.NoError(t, env.Repos.Order.Create(env.Repos.Order.DB(), order))

	_, err := env.Svcs.Order.Advance(t.Context(), order.ID, "officer-1")
	assert.True(t, errors.Is(err, service.ErrUnknownWorkflow))
}

func TestAdvanceForeignStatus(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, 2, 8})

	// A stored status that is not part of the sequence is a data
	// error, not a terminal order.
	order := &entity.Order{
		OrderType:       "PFM",
		FactoryID:       "f1",
		CurrentStatusID: 42,
		CreatedBy:       "officer-1",
	}
	require.NoError(t, env.Repos.Order.Create(env.Repos.Order.DB(), order))

	_, err := env.Svcs.Order.Advance(t.Context(), order.ID, "officer-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrNoNextStatus))
	assert.False(t, errors.Is(err, service.ErrAlreadyTerminal))
}

// Reaching "machine parts received" reactivates the machine when no
// other open order targets it.
func TestAdvanceReactivatesMachine(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, entity.StatusMachinePartsReceived})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusInactive)

	order := createPFMOrder(t, env, "m1", 2)

	next, err := env.Svcs.Order.Advance(t.Context(), order.ID, "officer-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusMachinePartsReceived, next)

	m, err := env.Repos.Machine.GetByID("m1")
	require.NoError(t, err)
	assert.Equal(t, entity.MachineStatusActive, m.Status)
}

// With a second open order on the machine the reactivation is skipped.
func TestAdvanceKeepsMachineDownWhileOrdersOpen(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, entity.StatusMachinePartsReceived})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusInactive)

	first := createPFMOrder(t, env, "m1", 2)
	createPFMOrder(t, env, "m1", 1) // second open order, stays at status 1

	_, err := env.Svcs.Order.Advance(t.Context(), first.ID, "officer-1")
	require.NoError(t, err)

	m, err := env.Repos.Machine.GetByID("m1")
	require.NoError(t, err)
	assert.Equal(t, entity.MachineStatusInactive, m.Status)
}

func TestDenyHoldsStatus(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, 2, 8})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusActive)

	order := createPFMOrder(t, env, "m1", 1)
	require.NoError(t, env.Svcs.Order.Deny(t.Context(), order.ID, "manager-1", "missing vendor"))

	got, err := env.Svcs.Order.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStatusID)

	history, err := env.Svcs.Tracker.HistoryFor(order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.TrackerActionDeny, history[1].Action)
	assert.Equal(t, "missing vendor", history[1].Note)
}

func TestReviseStepsBack(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, 2, 8})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusActive)

	order := createPFMOrder(t, env, "m1", 1)
	_, err := env.Svcs.Order.Advance(t.Context(), order.ID, "officer-1")
	require.NoError(t, err)

	prev, err := env.Svcs.Order.Revise(t.Context(), order.ID, "manager-1", "redo quotation")
	require.NoError(t, err)
	assert.Equal(t, 1, prev)

	// Revising the initial status has nowhere to go.
	_, err = env.Svcs.Order.Revise(t.Context(), order.ID, "manager-1", "again")
	assert.True(t, errors.Is(err, service.ErrNoPreviousStatus))
}

func TestProgressDerivation(t *testing.T) {
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, 2, 8})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusActive)

	order := createPFMOrder(t, env, "m1", 1)
	_, err := env.Svcs.Order.Advance(t.Context(), order.ID, "officer-1")
	require.NoError(t, err)

	progress, err := env.Svcs.Order.Progress(order.ID)
	require.NoError(t, err)
	require.Len(t, progress, 3)
	assert.Equal(t, entity.StepComplete, progress[0].State)
	assert.Equal(t, entity.StepCurrent, progress[1].State)
	assert.Equal(t, entity.StepPending, progress[2].State)
}

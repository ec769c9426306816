package service_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/testutil"
)

type movementFixture struct {
	env     *testEnv
	order   *entity.Order
	part    *entity.OrderedPart
	partID  string
	machine string
	factory string
}

func setupMovementFixture(t *testing.T, qty int64, fromStorage bool) *movementFixture {
	t.Helper()
	env := setupEnv(t)
	seedCatalog(t, env, "PFM", []int{1, 2, 8})
	testutil.SeedFactory(t, env.DB, "f1", "Plant One")
	testutil.SeedMachine(t, env.DB, "m1", "f1", "Loom 3", entity.MachineStatusInactive)

	partID := uuid.New().String()
	testutil.SeedPart(t, env.DB, partID, "Spindle shaft")
	machineID := "m1"
	order, err := env.Svcs.Order.Create(t.Context(), service.CreateOrderRequest{
		OrderType: entity.OrderTypePFM,
		FactoryID: "f1",
		MachineID: &machineID,
		Parts:     []service.CreateOrderPart{{PartID: partID, Qty: qty, FromStorage: fromStorage}},
	}, "officer-1")
	require.NoError(t, err)
	require.Len(t, order.Parts, 1)

	return &movementFixture{
		env:     env,
		order:   order,
		part:    &order.Parts[0],
		partID:  partID,
		machine: machineID,
		factory: "f1",
	}
}

// Approving a defective machine part moves its quantity from the
// machine bucket to the factory's damaged bucket; a second approval is
// rejected by the latch and leaves the ledger alone.
func TestApprovePendingFromFactory(t *testing.T) {
	f := setupMovementFixture(t, 4, false)
	creditLedger(t, f.env, f.partID, entity.MachineLoc(f.machine), 10)

	err := f.env.Svcs.Movement.ApprovePendingFromFactory(t.Context(), f.part.ID, "manager-1")
	require.NoError(t, err)

	assert.Equal(t, int64(6), quantity(t, f.env, f.partID, entity.MachineLoc(f.machine)))
	assert.Equal(t, int64(4), quantity(t, f.env, f.partID, entity.DamagedLoc(f.factory)))

	err = f.env.Svcs.Movement.ApprovePendingFromFactory(t.Context(), f.part.ID, "manager-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrAlreadyApproved))

	assert.Equal(t, int64(6), quantity(t, f.env, f.partID, entity.MachineLoc(f.machine)))
	assert.Equal(t, int64(4), quantity(t, f.env, f.partID, entity.DamagedLoc(f.factory)))
}

// When the machine bucket cannot cover the defective quantity the whole
// approval rolls back, latch included.
func TestApprovePendingInsufficientRollsBack(t *testing.T) {
	f := setupMovementFixture(t, 4, false)
	creditLedger(t, f.env, f.partID, entity.MachineLoc(f.machine), 2)

	err := f.env.Svcs.Movement.ApprovePendingFromFactory(t.Context(), f.part.ID, "manager-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInsufficientQuantity))

	assert.Equal(t, int64(2), quantity(t, f.env, f.partID, entity.MachineLoc(f.machine)))
	assert.Equal(t, int64(0), quantity(t, f.env, f.partID, entity.DamagedLoc(f.factory)))

	// Latch rolled back, so the retry with enough stock succeeds.
	creditLedger(t, f.env, f.partID, entity.MachineLoc(f.machine), 5)
	require.NoError(t, f.env.Svcs.Movement.ApprovePendingFromFactory(t.Context(), f.part.ID, "manager-1"))
	assert.Equal(t, int64(3), quantity(t, f.env, f.partID, entity.MachineLoc(f.machine)))
}

func TestApprovePendingRejectsStorageSourcedPart(t *testing.T) {
	f := setupMovementFixture(t, 4, true)
	err := f.env.Svcs.Movement.ApprovePendingFromFactory(t.Context(), f.part.ID, "manager-1")
	assert.True(t, errors.Is(err, service.ErrPreconditionNotMet))
}

func TestApproveBudgetNeedsQuotation(t *testing.T) {
	f := setupMovementFixture(t, 1, false)

	err := f.env.Svcs.Movement.ApproveBudget(t.Context(), f.part.ID, "manager-1")
	assert.True(t, errors.Is(err, service.ErrPreconditionNotMet))

	require.NoError(t, f.env.Svcs.Movement.SetQuotation(t.Context(), f.part.ID, "officer-1", service.ActionParams{
		Brand:    "SKF",
		Vendor:   "Acme Supplies",
		UnitCost: decimal.NewFromInt(120),
	}))
	require.NoError(t, f.env.Svcs.Movement.ApproveBudget(t.Context(), f.part.ID, "manager-1"))

	// One-way latch.
	err = f.env.Svcs.Movement.ApproveBudget(t.Context(), f.part.ID, "manager-1")
	assert.True(t, errors.Is(err, service.ErrAlreadyApproved))
}

// The purchase pipeline: quotation, budget, purchased, sent, received.
// Receiving credits the machine and stamps the valuation.
func TestReceiveAtFactoryPipeline(t *testing.T) {
	f := setupMovementFixture(t, 3, false)

	// Out-of-order milestones are refused.
	err := f.env.Svcs.Movement.ReceiveAtFactory(t.Context(), f.part.ID, "keeper-1")
	assert.True(t, errors.Is(err, service.ErrPreconditionNotMet))
	err = f.env.Svcs.Movement.MarkPurchased(t.Context(), f.part.ID, "officer-1")
	assert.True(t, errors.Is(err, service.ErrPreconditionNotMet))

	require.NoError(t, f.env.Svcs.Movement.SetQuotation(t.Context(), f.part.ID, "officer-1", service.ActionParams{
		Brand:    "SKF",
		Vendor:   "Acme Supplies",
		UnitCost: decimal.NewFromFloat(95.50),
	}))
	require.NoError(t, f.env.Svcs.Movement.ApproveBudget(t.Context(), f.part.ID, "manager-1"))
	require.NoError(t, f.env.Svcs.Movement.MarkPurchased(t.Context(), f.part.ID, "officer-1"))

	err = f.env.Svcs.Movement.ReceiveAtFactory(t.Context(), f.part.ID, "keeper-1")
	assert.True(t, errors.Is(err, service.ErrPreconditionNotMet), "ship date still missing")

	require.NoError(t, f.env.Svcs.Movement.MarkSentByOffice(t.Context(), f.part.ID, "officer-1"))
	require.NoError(t, f.env.Svcs.Movement.ReceiveAtFactory(t.Context(), f.part.ID, "keeper-1"))

	assert.Equal(t, int64(3), quantity(t, f.env, f.partID, entity.MachineLoc(f.machine)))

	entry, err := f.env.Repos.Ledger.Get(f.partID, entity.MachineLoc(f.machine))
	require.NoError(t, err)
	assert.True(t, entry.AvgUnitCost.Equal(decimal.NewFromFloat(95.50)))

	// Receiving twice is refused and the quantity stays put.
	err = f.env.Svcs.Movement.ReceiveAtFactory(t.Context(), f.part.ID, "keeper-1")
	assert.True(t, errors.Is(err, service.ErrAlreadyApproved))
	assert.Equal(t, int64(3), quantity(t, f.env, f.partID, entity.MachineLoc(f.machine)))
}

func TestInstallFromStorage(t *testing.T) {
	f := setupMovementFixture(t, 2, true)
	creditLedger(t, f.env, f.partID, entity.StorageLoc(f.factory), 5)

	// Needs the withdrawal approval first.
	err := f.env.Svcs.Movement.InstallFromStorage(t.Context(), f.part.ID, "keeper-1")
	assert.True(t, errors.Is(err, service.ErrPreconditionNotMet))

	require.NoError(t, f.env.Svcs.Movement.ApproveStorageWithdrawal(t.Context(), f.part.ID, "manager-1"))
	require.NoError(t, f.env.Svcs.Movement.InstallFromStorage(t.Context(), f.part.ID, "keeper-1"))

	assert.Equal(t, int64(3), quantity(t, f.env, f.partID, entity.StorageLoc(f.factory)))
	assert.Equal(t, int64(2), quantity(t, f.env, f.partID, entity.MachineLoc(f.machine)))
}

// A duplicate install submission is stopped by the install marker and
// moves nothing; a retrying caller can observe installed_at on the part.
func TestInstallFromStorageTwice(t *testing.T) {
	f := setupMovementFixture(t, 2, true)
	creditLedger(t, f.env, f.partID, entity.StorageLoc(f.factory), 5)

	require.NoError(t, f.env.Svcs.Movement.ApproveStorageWithdrawal(t.Context(), f.part.ID, "manager-1"))
	require.NoError(t, f.env.Svcs.Movement.InstallFromStorage(t.Context(), f.part.ID, "keeper-1"))

	part, err := f.env.Repos.Order.GetOrderedPart(f.part.ID)
	require.NoError(t, err)
	require.NotNil(t, part.InstalledAt)

	err = f.env.Svcs.Movement.InstallFromStorage(t.Context(), f.part.ID, "keeper-1")
	assert.True(t, errors.Is(err, service.ErrAlreadyApproved))
	assert.Equal(t, int64(3), quantity(t, f.env, f.partID, entity.StorageLoc(f.factory)))
	assert.Equal(t, int64(2), quantity(t, f.env, f.partID, entity.MachineLoc(f.machine)))
}

func TestScrapDamaged(t *testing.T) {
	env := setupEnv(t)
	partID := uuid.New().String()
	testutil.SeedPart(t, env.DB, partID, "Cracked gear")
	creditLedger(t, env, partID, entity.DamagedLoc("f1"), 7)

	require.NoError(t, env.Svcs.Movement.ScrapDamaged(t.Context(), "f1", partID, 3, "keeper-1", "beyond repair"))
	assert.Equal(t, int64(4), quantity(t, env, partID, entity.DamagedLoc("f1")))

	err := env.Svcs.Movement.ScrapDamaged(t.Context(), "f1", partID, 5, "keeper-1", "too many")
	assert.True(t, errors.Is(err, service.ErrInsufficientQuantity))
	assert.Equal(t, int64(4), quantity(t, env, partID, entity.DamagedLoc("f1")))

	err = env.Svcs.Movement.ScrapDamaged(t.Context(), "f1", partID, 0, "keeper-1", "noop")
	assert.True(t, errors.Is(err, service.ErrPreconditionNotMet))
}

func TestApplyDispatchesUnknownAction(t *testing.T) {
	f := setupMovementFixture(t, 1, false)
	err := f.env.Svcs.Movement.Apply(t.Context(), "definitely_not_an_action", f.part.ID, "x", service.ActionParams{})
	assert.Error(t, err)
}

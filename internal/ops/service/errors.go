package service

import "errors"

// Sentinel errors surfaced by the engine. Handlers map these to HTTP
// status codes with errors.Is; none of them is fatal to the process.
var (
	// ErrInsufficientQuantity means an adjustment or transfer would
	// drive a ledger balance below zero. Nothing is applied.
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrNoNextStatus means the order's current status is not part of
	// its workflow sequence, so no forward step can be computed.
	ErrNoNextStatus = errors.New("no next status")

	// ErrNoPreviousStatus means the order sits at the first status of
	// its sequence (or a foreign one), so a revise has nowhere to go.
	ErrNoPreviousStatus = errors.New("no previous status")

	// ErrAlreadyTerminal means the order already sits at the last
	// status of its workflow.
	ErrAlreadyTerminal = errors.New("order already terminal")

	// ErrUnknownWorkflow means the order type has no catalog entry.
	ErrUnknownWorkflow = errors.New("unknown workflow")

	// ErrAlreadyCompleted means a loan transfer was completed before.
	ErrAlreadyCompleted = errors.New("loan transfer already completed")

	// ErrIncompleteTransferData means a loan transfer request is
	// missing required fields.
	ErrIncompleteTransferData = errors.New("incomplete transfer data")

	// ErrPreconditionNotMet means a gated action ran before its
	// prerequisites (quotation, approvals, milestone dates) were set.
	ErrPreconditionNotMet = errors.New("precondition not met")

	// ErrAlreadyApproved means an approval latch was already set; the
	// duplicate submission had no effect.
	ErrAlreadyApproved = errors.New("already approved")

	// ErrConcurrentModification means a conditional update lost a race.
	// Actions retry internally a bounded number of times before
	// surfacing this as a transient failure.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrStorageUnavailable means object storage is not configured, so
	// document upload/download cannot be served.
	ErrStorageUnavailable = errors.New("object storage unavailable")
)

// maxRetries bounds internal retries on ErrConcurrentModification.
const maxRetries = 3

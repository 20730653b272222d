package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clubroster/internal/adapters/metrics"
	"clubroster/internal/domain/account"
	"clubroster/internal/domain/member"
	"clubroster/internal/domain/transfer"
)

// Transfer actions, also used as metric labels.
const (
	TransferActionRequest = "request"
	TransferActionApprove = "approve"
	TransferActionRevoke  = "revoke"
	TransferActionReject  = "reject"
)

// TransferStore defines the store interface needed by the transfer orchestrators.
type TransferStore interface {
	GetByID(ctx context.Context, id string) (transfer.Transfer, error)
	Save(ctx context.Context, t transfer.Transfer) error
	ListPendingForMember(ctx context.Context, memberID string) ([]transfer.Transfer, error)
}

// MemberStoreForTransfer defines the member store interface needed by transfers.
type MemberStoreForTransfer interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// TransferDeps holds dependencies for the transfer orchestrators.
type TransferDeps struct {
	TransferStore TransferStore
	MemberStore   MemberStoreForTransfer
	ClubStore     ClubLookup
	Metrics       *metrics.Metrics
	GenerateID    func() string
	Now           func() time.Time
}

// RequestTransferInput carries input for a transfer request.
type RequestTransferInput struct {
	MemberID     string
	SourceClubID string
	TargetClubID string
	Actor        account.Account
}

// ExecuteRequestTransfer records a request to move a member between clubs.
// The requesting club is the actor's club.
// PRE: Member is in SourceClubID; actor's club is source or target
// POST: A requested Transfer exists with the other club as approver
// INVARIANT: at most one pending request per member and route
func ExecuteRequestTransfer(ctx context.Context, input RequestTransferInput, deps TransferDeps) (transfer.Transfer, error) {
	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return transfer.Transfer{}, err
	}
	if _, err := deps.ClubStore.GetByID(ctx, input.TargetClubID); err != nil {
		return transfer.Transfer{}, fmt.Errorf("target club: %w", err)
	}

	t, err := transfer.Request(deps.GenerateID(), m.ID, m.ClubID, input.SourceClubID, input.TargetClubID,
		input.Actor.ClubID, input.Actor.ID, deps.Now())
	if err != nil {
		return transfer.Transfer{}, err
	}

	pending, err := deps.TransferStore.ListPendingForMember(ctx, m.ID)
	if err != nil {
		return transfer.Transfer{}, fmt.Errorf("list pending transfers: %w", err)
	}
	for _, p := range pending {
		if p.SameRoute(t) {
			return transfer.Transfer{}, transfer.ErrPendingExists
		}
	}

	if err := deps.TransferStore.Save(ctx, t); err != nil {
		return transfer.Transfer{}, fmt.Errorf("save transfer: %w", err)
	}
	deps.Metrics.IncrementTransfer(TransferActionRequest)
	slog.Info("transfer_event", "event", "transfer_requested", "transfer_id", t.ID, "member_id", m.ID,
		"source_club_id", t.SourceClubID, "target_club_id", t.TargetClubID, "account_id", input.Actor.ID)
	return t, nil
}

// DecideTransferInput carries input for approve, revoke and reject.
type DecideTransferInput struct {
	TransferID string
	Actor      account.Account
}

// ExecuteApproveTransfer processes a transfer and moves the member.
// PRE: Transfer is requested; actor's club is the approving club
// POST: Transfer processed; member in target club; other pending requests
// for the member are cancelled
func ExecuteApproveTransfer(ctx context.Context, input DecideTransferInput, deps TransferDeps) (transfer.Transfer, error) {
	t, err := deps.TransferStore.GetByID(ctx, input.TransferID)
	if err != nil {
		return transfer.Transfer{}, err
	}
	if err := t.Approve(input.Actor.ID, input.Actor.ClubID, deps.Now()); err != nil {
		return t, err
	}

	m, err := deps.MemberStore.GetByID(ctx, t.MemberID)
	if err != nil {
		return transfer.Transfer{}, err
	}
	if m.ClubID != t.SourceClubID {
		return t, transfer.ErrNotInSourceClub
	}

	if err := deps.TransferStore.Save(ctx, t); err != nil {
		return transfer.Transfer{}, fmt.Errorf("save transfer: %w", err)
	}
	m.ClubID = t.TargetClubID
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return transfer.Transfer{}, fmt.Errorf("move member: %w", err)
	}

	pending, err := deps.TransferStore.ListPendingForMember(ctx, m.ID)
	if err != nil {
		return transfer.Transfer{}, fmt.Errorf("list pending transfers: %w", err)
	}
	for _, p := range pending {
		if p.ID == t.ID || !p.Cancel() {
			continue
		}
		if err := deps.TransferStore.Save(ctx, p); err != nil {
			return transfer.Transfer{}, fmt.Errorf("cancel transfer %s: %w", p.ID, err)
		}
		slog.Info("transfer_event", "event", "transfer_cancelled", "transfer_id", p.ID, "member_id", m.ID)
	}

	deps.Metrics.IncrementTransfer(TransferActionApprove)
	slog.Info("transfer_event", "event", "transfer_approved", "transfer_id", t.ID, "member_id", m.ID,
		"target_club_id", t.TargetClubID, "account_id", input.Actor.ID)
	return t, nil
}

// ExecuteRevokeTransfer withdraws a request on behalf of the requesting club.
// PRE: Transfer is requested; actor's club is the requesting club
// POST: Transfer revoked
func ExecuteRevokeTransfer(ctx context.Context, input DecideTransferInput, deps TransferDeps) (transfer.Transfer, error) {
	return decideTransfer(ctx, input, deps, TransferActionRevoke, func(t *transfer.Transfer) error {
		return t.Revoke(input.Actor.ClubID)
	})
}

// ExecuteRejectTransfer declines a request on behalf of the approving club.
// PRE: Transfer is requested; actor's club is the approving club
// POST: Transfer rejected; member stays in the source club
func ExecuteRejectTransfer(ctx context.Context, input DecideTransferInput, deps TransferDeps) (transfer.Transfer, error) {
	return decideTransfer(ctx, input, deps, TransferActionReject, func(t *transfer.Transfer) error {
		return t.Reject(input.Actor.ClubID)
	})
}

func decideTransfer(ctx context.Context, input DecideTransferInput, deps TransferDeps, action string, apply func(*transfer.Transfer) error) (transfer.Transfer, error) {
	t, err := deps.TransferStore.GetByID(ctx, input.TransferID)
	if err != nil {
		return transfer.Transfer{}, err
	}
	if err := apply(&t); err != nil {
		return t, err
	}
	if err := deps.TransferStore.Save(ctx, t); err != nil {
		return transfer.Transfer{}, fmt.Errorf("save transfer: %w", err)
	}
	deps.Metrics.IncrementTransfer(action)
	slog.Info("transfer_event", "event", "transfer_"+t.State, "transfer_id", t.ID, "account_id", input.Actor.ID)
	return t, nil
}

package projections

import (
	"context"

	"clubroster/internal/domain/account"
	domainTransfer "clubroster/internal/domain/transfer"
)

// ClubTransfersLimit caps the transfer history shown to a club.
const ClubTransfersLimit = 50

// TransferRow is one transfer as seen by the actor's club.
type TransferRow struct {
	ID         string
	State      string
	MemberName string
	SourceClub string
	TargetClub string
	CreatedAt  string
	CanApprove bool
	CanRevoke  bool
}

// GetClubTransfersDeps holds dependencies for GetClubTransfers.
type GetClubTransfersDeps struct {
	TransferStore TransferStore
	MemberStore   MemberStore
	ClubStore     ClubStore
}

// QueryGetClubTransfers lists transfers the actor's club takes part in,
// newest first, with the actions the actor may take.
// PRE: Actor has a club
// POST: At most ClubTransfersLimit rows
func QueryGetClubTransfers(ctx context.Context, actor account.Account, deps GetClubTransfersDeps) ([]TransferRow, error) {
	transfers, err := deps.TransferStore.ListForClub(ctx, actor.ClubID, ClubTransfersLimit)
	if err != nil {
		return nil, err
	}
	clubs, err := deps.ClubStore.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(clubs))
	for _, c := range clubs {
		names[c.ID] = c.Name
	}

	rows := make([]TransferRow, 0, len(transfers))
	for _, t := range transfers {
		row := TransferRow{
			ID:         t.ID,
			State:      t.State,
			SourceClub: names[t.SourceClubID],
			TargetClub: names[t.TargetClubID],
			CreatedAt:  t.CreatedAt.Format("2006-01-02"),
			CanApprove: t.State == domainTransfer.StateRequested && t.ApprovingClubID == actor.ClubID,
			CanRevoke:  t.State == domainTransfer.StateRequested && t.RequestingClubID == actor.ClubID,
		}
		if m, err := deps.MemberStore.GetByID(ctx, t.MemberID); err == nil {
			row.MemberName = m.FullName()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

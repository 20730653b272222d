package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"clubroster/internal/domain/account"
	"clubroster/internal/domain/member"
)

// MemberStoreForStatus defines the store interface needed by SetMemberActive.
type MemberStoreForStatus interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// SetMemberActiveInput carries input for deactivating or reactivating a member.
type SetMemberActiveInput struct {
	MemberID string
	Active   bool
	Actor    account.Account
}

// SetMemberActiveDeps holds dependencies for SetMemberActive.
type SetMemberActiveDeps struct {
	MemberStore MemberStoreForStatus
}

// ExecuteSetMemberActive deactivates or reactivates a member of the actor's club.
// PRE: Member exists and belongs to a club the actor manages
// POST: Member.Active equals input.Active
func ExecuteSetMemberActive(ctx context.Context, input SetMemberActiveInput, deps SetMemberActiveDeps) (member.Member, error) {
	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return member.Member{}, err
	}
	if !input.Actor.CanManageClub(m.ClubID) {
		return member.Member{}, ErrForbidden
	}

	event := "member_reactivated"
	if input.Active {
		err = m.Reactivate()
	} else {
		err = m.Deactivate()
		event = "member_deactivated"
	}
	if err != nil {
		return m, err
	}

	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, fmt.Errorf("save member: %w", err)
	}
	slog.Info("member_event", "event", event, "member_id", m.ID, "account_id", input.Actor.ID)
	return m, nil
}

package projections

import (
	"context"

	"clubroster/internal/domain/account"
	domainClub "clubroster/internal/domain/club"
)

// TransferForm is the prefilled transfer request form.
type TransferForm struct {
	// Member is nil until a member was picked from the search.
	Member     *SearchRow
	SourceClub domainClub.Club
	// Targets lists the selectable target clubs.
	Targets []domainClub.Club
	// TargetLocked is true when the actor's club is the only possible target.
	TargetLocked bool
}

// GetTransferFormDeps holds dependencies for GetTransferForm.
type GetTransferFormDeps struct {
	MemberStore MemberStore
	ClubStore   ClubStore
}

// QueryGetTransferForm prepares the transfer form for memberID.
// A member of the actor's club may go to any other club; a member of another
// club can only be asked for into the actor's club.
// PRE: Actor has a club
// POST: Returns an empty form when memberID is ""
func QueryGetTransferForm(ctx context.Context, memberID string, actor account.Account, deps GetTransferFormDeps) (TransferForm, error) {
	if memberID == "" {
		return TransferForm{}, nil
	}
	m, err := deps.MemberStore.GetByID(ctx, memberID)
	if err != nil {
		return TransferForm{}, err
	}
	source, err := deps.ClubStore.GetByID(ctx, m.ClubID)
	if err != nil {
		return TransferForm{}, err
	}

	form := TransferForm{
		Member:     &SearchRow{ID: m.ID, FullName: m.FullName(), ClubName: source.Name},
		SourceClub: source,
	}
	if !m.BirthDate.IsZero() {
		form.Member.BirthYear = m.BirthDate.Year()
	}

	if m.ClubID == actor.ClubID {
		clubs, err := deps.ClubStore.List(ctx)
		if err != nil {
			return TransferForm{}, err
		}
		for _, c := range clubs {
			if c.ID != m.ClubID {
				form.Targets = append(form.Targets, c)
			}
		}
		return form, nil
	}

	own, err := deps.ClubStore.GetByID(ctx, actor.ClubID)
	if err != nil {
		return TransferForm{}, err
	}
	form.Targets = []domainClub.Club{own}
	form.TargetLocked = true
	return form, nil
}

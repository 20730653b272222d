package transfer

import (
	"errors"
	"time"
)

// Transfer states
const (
	StateRequested = "requested"
	StateProcessed = "processed"
	StateRevoked   = "revoked"
	StateRejected  = "rejected"
	StateCancelled = "cancelled"
)

// Domain errors
var (
	ErrNotInSourceClub      = errors.New("member is not in source club")
	ErrAlreadyInTargetClub  = errors.New("member is already in target club")
	ErrSameClub             = errors.New("target club must be different from source club")
	ErrNotParty             = errors.New("requesting club must be the source or target club")
	ErrPendingExists        = errors.New("member already has a pending transfer request")
	ErrNotRequestedApprove  = errors.New("transfer must be in REQUESTED state to be approved")
	ErrNotRequestedRevoke   = errors.New("transfer must be in REQUESTED state to be canceled")
	ErrNotRequestedReject   = errors.New("transfer must be in REQUESTED state to be rejected")
	ErrNotApprovingClub     = errors.New("only the approving club can decide on the transfer")
	ErrNotRequestingClub    = errors.New("only the requesting club can revoke the transfer")
	ErrApproverRequired     = errors.New("approved by agent must be set")
	ErrUnknownState         = errors.New("unknown transfer state")
	ErrMemberRequired       = errors.New("transfer must reference a member")
	ErrRequestedByRequired  = errors.New("transfer must record the requesting agent")
	ErrApprovingClubMissing = errors.New("transfer must have an approving club")
)

// Transfer moves a member from the source club to the target club once the
// approving club agrees.
type Transfer struct {
	ID               string
	MemberID         string
	State            string
	SourceClubID     string
	TargetClubID     string
	RequestingClubID string
	ApprovingClubID  string
	RequestedBy      string
	ApprovedBy       string
	ApprovedAt       time.Time
	CreatedAt        time.Time
}

// Request builds a new transfer in the requested state. memberClubID is the
// member's current club; requestingClubID is the club of the acting agent.
// The approving club is the other side of the transfer.
// PRE: ids are non-empty
// POST: Returns a requested Transfer or a domain error
func Request(id, memberID, memberClubID, sourceClubID, targetClubID, requestingClubID, agentID string, now time.Time) (Transfer, error) {
	if memberClubID != sourceClubID {
		return Transfer{}, ErrNotInSourceClub
	}
	if memberClubID == targetClubID {
		return Transfer{}, ErrAlreadyInTargetClub
	}
	if requestingClubID != sourceClubID && requestingClubID != targetClubID {
		return Transfer{}, ErrNotParty
	}

	approving := sourceClubID
	if requestingClubID == sourceClubID {
		approving = targetClubID
	}

	t := Transfer{
		ID:               id,
		MemberID:         memberID,
		State:            StateRequested,
		SourceClubID:     sourceClubID,
		TargetClubID:     targetClubID,
		RequestingClubID: requestingClubID,
		ApprovingClubID:  approving,
		RequestedBy:      agentID,
		CreatedAt:        now,
	}
	return t, t.Validate()
}

// Validate checks if the Transfer has valid data.
// PRE: Transfer struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: a processed transfer always records who approved it
func (t *Transfer) Validate() error {
	if t.MemberID == "" {
		return ErrMemberRequired
	}
	if t.SourceClubID == t.TargetClubID {
		return ErrSameClub
	}
	if t.RequestedBy == "" {
		return ErrRequestedByRequired
	}
	if t.ApprovingClubID == "" {
		return ErrApprovingClubMissing
	}
	switch t.State {
	case StateRequested, StateRevoked, StateRejected, StateCancelled:
	case StateProcessed:
		if t.ApprovedBy == "" {
			return ErrApproverRequired
		}
	default:
		return ErrUnknownState
	}
	return nil
}

// IsPending returns true while the transfer awaits a decision.
// INVARIANT: Transfer fields are not mutated
func (t *Transfer) IsPending() bool {
	return t.State == StateRequested
}

// SameRoute reports whether other moves the same member between the same clubs.
func (t *Transfer) SameRoute(other Transfer) bool {
	return t.MemberID == other.MemberID &&
		t.SourceClubID == other.SourceClubID &&
		t.TargetClubID == other.TargetClubID
}

// Approve processes the transfer on behalf of the approving club.
// PRE: State is requested, agentClubID is the approving club
// POST: State is processed, approver and time recorded
func (t *Transfer) Approve(agentID, agentClubID string, now time.Time) error {
	if t.State != StateRequested {
		return ErrNotRequestedApprove
	}
	if agentClubID != t.ApprovingClubID {
		return ErrNotApprovingClub
	}
	t.State = StateProcessed
	t.ApprovedBy = agentID
	t.ApprovedAt = now
	return nil
}

// Revoke withdraws the request on behalf of the requesting club.
// PRE: State is requested, agentClubID is the requesting club
// POST: State is revoked
func (t *Transfer) Revoke(agentClubID string) error {
	if t.State != StateRequested {
		return ErrNotRequestedRevoke
	}
	if agentClubID != t.RequestingClubID {
		return ErrNotRequestingClub
	}
	t.State = StateRevoked
	return nil
}

// Reject declines the request on behalf of the approving club.
// PRE: State is requested, agentClubID is the approving club
// POST: State is rejected
func (t *Transfer) Reject(agentClubID string) error {
	if t.State != StateRequested {
		return ErrNotRequestedReject
	}
	if agentClubID != t.ApprovingClubID {
		return ErrNotApprovingClub
	}
	t.State = StateRejected
	return nil
}

// Cancel closes a competing request after another transfer of the same
// member was approved. Non-pending transfers are left untouched.
// POST: a requested transfer is cancelled; returns true when it changed
func (t *Transfer) Cancel() bool {
	if t.State != StateRequested {
		return false
	}
	t.State = StateCancelled
	return true
}

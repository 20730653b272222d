package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clubroster/internal/domain/member"
)

// Consent field names on the confirmation form.
const (
	FieldDataOK           = "data_ok"
	FieldBasicConsent     = "basic_consent"
	FieldMarketingConsent = "marketing_consent"
)

// MemberStoreForConfirm defines the store interface needed by ConfirmEmail.
type MemberStoreForConfirm interface {
	GetByConfirmationToken(ctx context.Context, token string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// ConfirmEmailInput carries the submitted confirmation form.
type ConfirmEmailInput struct {
	Token            string
	DataOK           bool
	BasicConsent     bool
	MarketingConsent bool
}

// ConfirmEmailDeps holds dependencies for ConfirmEmail.
type ConfirmEmailDeps struct {
	MemberStore MemberStoreForConfirm
	Now         func() time.Time
}

// ExecuteConfirmEmail consumes a confirmation token.
// PRE: Token was issued by SaveMember and not yet used
// POST: Member has EmailConfirmedAt set and no token; marketing consent
// recorded when given and not recorded before
func ExecuteConfirmEmail(ctx context.Context, input ConfirmEmailInput, deps ConfirmEmailDeps) (member.Member, error) {
	m, err := deps.MemberStore.GetByConfirmationToken(ctx, input.Token)
	if err != nil {
		return member.Member{}, err
	}

	errs := member.FieldErrors{}
	if !input.DataOK {
		errs[FieldDataOK] = "This field is required"
	}
	if !input.BasicConsent {
		errs[FieldBasicConsent] = "This field is required"
	}
	if len(errs) > 0 {
		return m, errs
	}

	consent := input.MarketingConsent && m.MarketingConsentGivenAt.IsZero()
	if err := m.ConfirmEmail(input.Token, consent, deps.Now()); err != nil {
		return m, err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, fmt.Errorf("save member: %w", err)
	}

	slog.Info("member_event", "event", "email_confirmed", "member_id", m.ID, "marketing_consent", consent)
	return m, nil
}

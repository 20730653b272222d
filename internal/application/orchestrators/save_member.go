package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	emailAdapter "clubroster/internal/adapters/email"
	"clubroster/internal/adapters/metrics"
	"clubroster/internal/domain/account"
	"clubroster/internal/domain/birthnumber"
	"clubroster/internal/domain/club"
	"clubroster/internal/domain/member"
)

// ErrForbidden is returned when the acting account may not manage the club.
var ErrForbidden = errors.New("account may not manage this club")

// Uniqueness messages, keyed to the form field that collides.
const (
	msgEmailTaken       = "Member with this email already exists"
	msgBirthNumberTaken = "Member with this birth number already exists"
)

// MemberStoreForSave defines the store interface needed by SaveMember.
type MemberStoreForSave interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	BirthNumberTaken(ctx context.Context, birthNumber, excludeID string) (bool, error)
}

// ClubLookup defines the interface for reading a club.
type ClubLookup interface {
	GetByID(ctx context.Context, id string) (club.Club, error)
}

// SaveMemberInput carries input for registering or updating a member.
type SaveMemberInput struct {
	// MemberID is empty for a registration.
	MemberID string
	// ClubID selects the club of a new member; agents always register into
	// their own club and only admins may pick another.
	ClubID string
	Actor  account.Account
	// Draft holds the submitted user-editable fields.
	Draft member.Member
}

// SaveMemberResult reports what SaveMember did.
type SaveMemberResult struct {
	Member           member.Member
	Created          bool
	ConfirmationSent bool
}

// SaveMemberDeps holds dependencies for SaveMember.
type SaveMemberDeps struct {
	MemberStore   MemberStoreForSave
	ClubStore     ClubLookup
	EmailSender   emailAdapter.Sender
	Metrics       *metrics.Metrics
	Rules         member.Rules
	BaseURL       string
	GenerateID    func() string
	GenerateToken func() string
	Now           func() time.Time
}

// ExecuteSaveMember validates and persists a member, then mails a
// confirmation link when the contact email is new or changed.
// PRE: Actor is authenticated; Draft carries the submitted fields
// POST: Member saved with a normalized birth number, or FieldErrors returned
// INVARIANT: email and birth number are unique across all clubs
func ExecuteSaveMember(ctx context.Context, input SaveMemberInput, deps SaveMemberDeps) (SaveMemberResult, error) {
	now := deps.Now()

	var (
		m        member.Member
		previous member.Member
		created  bool
	)
	if input.MemberID == "" {
		clubID := input.Actor.ClubID
		if input.ClubID != "" && input.Actor.IsAdmin() {
			clubID = input.ClubID
		}
		if !input.Actor.CanManageClub(clubID) {
			return SaveMemberResult{}, ErrForbidden
		}
		m = member.Member{
			ID:        deps.GenerateID(),
			ClubID:    clubID,
			Active:    true,
			CreatedAt: now,
		}
		created = true
	} else {
		existing, err := deps.MemberStore.GetByID(ctx, input.MemberID)
		if err != nil {
			return SaveMemberResult{}, err
		}
		if !input.Actor.CanManageClub(existing.ClubID) {
			return SaveMemberResult{}, ErrForbidden
		}
		m, previous = existing, existing
	}

	applyDraft(&m, input.Draft)

	if err := m.Validate(now, deps.Rules); err != nil {
		return SaveMemberResult{}, err
	}
	if err := checkUnique(ctx, m, deps.MemberStore); err != nil {
		return SaveMemberResult{}, err
	}

	// The contact address is read through the age gate of the new birth date
	// on both sides so a birthday alone never triggers a new confirmation.
	sendToken := false
	contact := m.ContactEmail(now)
	if created || contact != previousContact(previous, m.ContactEmailField(now)) {
		m.EmailConfirmedAt = time.Time{}
		m.EmailConfirmationToken = ""
		if contact != "" {
			m.EmailConfirmationToken = deps.GenerateToken()
			sendToken = true
		}
	}

	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return SaveMemberResult{}, fmt.Errorf("save member: %w", err)
	}

	event := "member_updated"
	if created {
		event = "member_registered"
		deps.Metrics.IncrementRegistrations()
	}
	slog.Info("member_event", "event", event, "member_id", m.ID, "club_id", m.ClubID, "account_id", input.Actor.ID)

	result := SaveMemberResult{Member: m, Created: created}
	if sendToken {
		result.ConfirmationSent = sendConfirmation(ctx, m, contact, deps) == nil
	}
	return result, nil
}

// applyDraft copies the user-editable fields from d onto m.
func applyDraft(m *member.Member, d member.Member) {
	m.FirstName = strings.TrimSpace(d.FirstName)
	m.LastName = strings.TrimSpace(d.LastName)
	m.BirthDate = d.BirthDate
	m.Sex = d.Sex
	m.Citizenship = strings.ToUpper(strings.TrimSpace(d.Citizenship))
	m.BirthNumber = birthnumber.Normalize(strings.TrimSpace(d.BirthNumber))
	m.Street = strings.TrimSpace(d.Street)
	m.HouseNumber = strings.TrimSpace(d.HouseNumber)
	m.City = strings.TrimSpace(d.City)
	m.PostalCode = strings.TrimSpace(d.PostalCode)
	m.Email = strings.TrimSpace(d.Email)
	m.LegalGuardianEmail = strings.TrimSpace(d.LegalGuardianEmail)
	m.LegalGuardianFirstName = strings.TrimSpace(d.LegalGuardianFirstName)
	m.LegalGuardianLastName = strings.TrimSpace(d.LegalGuardianLastName)
	m.DefaultJerseyNumber = d.DefaultJerseyNumber
}

// uniquenessChecker is the part of the member store that reports collisions.
type uniquenessChecker interface {
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	BirthNumberTaken(ctx context.Context, birthNumber, excludeID string) (bool, error)
}

func checkUnique(ctx context.Context, m member.Member, store uniquenessChecker) error {
	errs := member.FieldErrors{}
	if m.Email != "" {
		taken, err := store.EmailTaken(ctx, m.Email, m.ID)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			errs[member.FieldEmail] = msgEmailTaken
		}
	}
	if m.BirthNumber != "" {
		taken, err := store.BirthNumberTaken(ctx, m.BirthNumber, m.ID)
		if err != nil {
			return fmt.Errorf("check birth number: %w", err)
		}
		if taken {
			errs[member.FieldBirthNumber] = msgBirthNumberTaken
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func previousContact(previous member.Member, field string) string {
	if field == member.FieldEmail {
		return previous.Email
	}
	return previous.LegalGuardianEmail
}

// ConfirmationSubject is the subject of the confirmation email.
const ConfirmationSubject = "Please confirm your email"

// ConfirmationLink returns the public URL that confirms token.
func ConfirmationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/confirm-email/" + token
}

// confirmationBody is the Markdown body of the confirmation email.
func confirmationBody(clubName, link string) string {
	return fmt.Sprintf("You have been registered as a member of **%s**.\n"+
		"Please confirm your email by clicking on the following link: [%s](%s)\n", clubName, link, link)
}

// sendConfirmation mails the confirmation link to address. Failures are
// logged and counted; the member stays saved and can be re-sent by editing.
func sendConfirmation(ctx context.Context, m member.Member, address string, deps SaveMemberDeps) error {
	clubName := m.ClubID
	if c, err := deps.ClubStore.GetByID(ctx, m.ClubID); err == nil {
		clubName = c.Name
	}

	link := ConfirmationLink(deps.BaseURL, m.EmailConfirmationToken)
	req, err := emailAdapter.NewMarkdownRequest([]string{address}, ConfirmationSubject, confirmationBody(clubName, link))
	if err == nil {
		_, err = deps.EmailSender.Send(ctx, req)
	}
	deps.Metrics.IncrementEmail(err)
	if err != nil {
		slog.Error("member_event", "event", "confirmation_failed", "member_id", m.ID, "error", err)
		return err
	}
	slog.Info("member_event", "event", "confirmation_sent", "member_id", m.ID, "to", address)
	return nil
}

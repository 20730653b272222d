package orchestrators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emailAdapter "clubroster/internal/adapters/email"
	"clubroster/internal/adapters/metrics"
	"clubroster/internal/domain/account"
	"clubroster/internal/domain/club"
	"clubroster/internal/domain/member"
)

var (
	agentC1 = account.Account{ID: "a1", Email: "agent@c1.example", Role: account.RoleAgent, ClubID: "c1"}
	agentC2 = account.Account{ID: "a2", Email: "agent@c2.example", Role: account.RoleAgent, ClubID: "c2"}
	admin   = account.Account{ID: "root", Email: "admin@example.com", Role: account.RoleAdmin, ClubID: "c1"}
)

func adultDraft() member.Member {
	return member.Member{
		FirstName:   " Jana ",
		LastName:    "Novakova",
		BirthDate:   time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC),
		Sex:         member.SexFemale,
		Citizenship: "cz",
		BirthNumber: "995101/0003",
		Email:       "jana@example.com",
	}
}

func childDraft() member.Member {
	return member.Member{
		FirstName:              "Tom",
		LastName:               "Smith",
		BirthDate:              time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC),
		Sex:                    member.SexMale,
		Citizenship:            "SK",
		LegalGuardianEmail:     "parent@example.com",
		LegalGuardianFirstName: "Anna",
		LegalGuardianLastName:  "Smith",
	}
}

type saveFixture struct {
	members *fakeMemberStore
	sender  *emailAdapter.NoopSender
	deps    SaveMemberDeps
}

func newSaveFixture(existing ...member.Member) *saveFixture {
	f := &saveFixture{
		members: newFakeMemberStore(existing...),
		sender:  emailAdapter.NewNoopSender(),
	}
	f.deps = SaveMemberDeps{
		MemberStore:   f.members,
		ClubStore:     &fakeClubStore{clubs: []club.Club{{ID: "c1", Name: "Home Club"}, {ID: "c2", Name: "Away Club"}}},
		EmailSender:   f.sender,
		Metrics:       metrics.New(),
		BaseURL:       "https://roster.example/",
		GenerateID:    sequence("m"),
		GenerateToken: sequence("tok"),
		Now:           fixedNow,
	}
	return f
}

// TestSaveMember_Register covers a new adult registration end to end.
func TestSaveMember_Register(t *testing.T) {
	f := newSaveFixture()

	res, err := ExecuteSaveMember(context.Background(), SaveMemberInput{Actor: agentC1, Draft: adultDraft()}, f.deps)
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.True(t, res.ConfirmationSent)
	m := f.members.members["m-1"]
	assert.Equal(t, "c1", m.ClubID)
	assert.Equal(t, "Jana", m.FirstName)
	assert.Equal(t, member.CitizenshipCZ, m.Citizenship)
	assert.Equal(t, "9951010003", m.BirthNumber)
	assert.True(t, m.Active)
	assert.Equal(t, "tok-1", m.EmailConfirmationToken)
	assert.Equal(t, testNow, m.CreatedAt)

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"jana@example.com"}, sent[0].To)
	assert.Equal(t, ConfirmationSubject, sent[0].Subject)
	assert.Contains(t, sent[0].Text, "https://roster.example/confirm-email/tok-1")
	assert.Contains(t, sent[0].HTML, "<strong>Home Club</strong>")
}

// TestSaveMember_ChildConfirmsThroughGuardian verifies the guardian gets the mail.
func TestSaveMember_ChildConfirmsThroughGuardian(t *testing.T) {
	f := newSaveFixture()

	res, err := ExecuteSaveMember(context.Background(), SaveMemberInput{Actor: agentC1, Draft: childDraft()}, f.deps)
	require.NoError(t, err)
	assert.True(t, res.ConfirmationSent)
	require.Len(t, f.sender.Sent(), 1)
	assert.Equal(t, []string{"parent@example.com"}, f.sender.Sent()[0].To)
}

// TestSaveMember_NoContactEmail registers without a token or mail.
func TestSaveMember_NoContactEmail(t *testing.T) {
	f := newSaveFixture()
	d := adultDraft()
	d.Email = ""

	res, err := ExecuteSaveMember(context.Background(), SaveMemberInput{Actor: agentC1, Draft: d}, f.deps)
	require.NoError(t, err)
	assert.False(t, res.ConfirmationSent)
	assert.Empty(t, res.Member.EmailConfirmationToken)
	assert.Empty(t, f.sender.Sent())
}

// TestSaveMember_ValidationErrors returns field errors and saves nothing.
func TestSaveMember_ValidationErrors(t *testing.T) {
	f := newSaveFixture()
	d := adultDraft()
	d.BirthNumber = "9951010004"
	d.FirstName = ""

	_, err := ExecuteSaveMember(context.Background(), SaveMemberInput{Actor: agentC1, Draft: d}, f.deps)
	var fe member.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, member.FieldBirthNumber)
	assert.Contains(t, fe, member.FieldFirstName)
	assert.Zero(t, f.members.saves)
	assert.Empty(t, f.sender.Sent())
}

// TestSaveMember_Uniqueness rejects a second member with the same email and birth number.
func TestSaveMember_Uniqueness(t *testing.T) {
	existing := adultDraft()
	existing.ID = "other"
	existing.ClubID = "c2"
	existing.BirthNumber = "9951010003"
	f := newSaveFixture(existing)

	_, err := ExecuteSaveMember(context.Background(), SaveMemberInput{Actor: agentC1, Draft: adultDraft()}, f.deps)
	var fe member.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, msgEmailTaken, fe[member.FieldEmail])
	assert.Equal(t, msgBirthNumberTaken, fe[member.FieldBirthNumber])
}

// TestSaveMember_Update covers the confirmation token rules on edit.
func TestSaveMember_Update(t *testing.T) {
	confirmedAt := testNow.Add(-24 * time.Hour)
	stored := func() member.Member {
		m := adultDraft()
		m.ID = "m1"
		m.ClubID = "c1"
		m.Citizenship = member.CitizenshipCZ
		m.BirthNumber = "9951010003"
		m.FirstName = "Jana"
		m.Active = true
		m.EmailConfirmedAt = confirmedAt
		return m
	}

	tests := []struct {
		name          string
		email         string
		wantToken     string
		wantConfirmed bool
		wantMail      bool
	}{
		{"same email keeps confirmation", "jana@example.com", "", true, false},
		{"changed email needs confirmation", "jana@new.example", "tok-1", false, true},
		{"cleared email drops confirmation", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSaveFixture(stored())
			d := adultDraft()
			d.Email = tt.email
			d.LastName = "Dvorakova"

			res, err := ExecuteSaveMember(context.Background(), SaveMemberInput{MemberID: "m1", Actor: agentC1, Draft: d}, f.deps)
			require.NoError(t, err)
			assert.False(t, res.Created)

			m := f.members.members["m1"]
			assert.Equal(t, "Dvorakova", m.LastName)
			assert.Equal(t, tt.wantToken, m.EmailConfirmationToken)
			assert.Equal(t, tt.wantConfirmed, m.HasEmailConfirmed())
			assert.Equal(t, tt.wantMail, len(f.sender.Sent()) == 1)
		})
	}
}

// TestSaveMember_ClubAccess checks agents stay within their club.
func TestSaveMember_ClubAccess(t *testing.T) {
	stored := adultDraft()
	stored.ID = "m1"
	stored.ClubID = "c1"

	t.Run("agent of another club cannot edit", func(t *testing.T) {
		f := newSaveFixture(stored)
		_, err := ExecuteSaveMember(context.Background(), SaveMemberInput{MemberID: "m1", Actor: agentC2, Draft: adultDraft()}, f.deps)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("agent cannot register into another club", func(t *testing.T) {
		f := newSaveFixture()
		res, err := ExecuteSaveMember(context.Background(), SaveMemberInput{ClubID: "c2", Actor: agentC1, Draft: adultDraft()}, f.deps)
		require.NoError(t, err)
		assert.Equal(t, "c1", res.Member.ClubID)
	})

	t.Run("admin picks the club", func(t *testing.T) {
		f := newSaveFixture()
		res, err := ExecuteSaveMember(context.Background(), SaveMemberInput{ClubID: "c2", Actor: admin, Draft: adultDraft()}, f.deps)
		require.NoError(t, err)
		assert.Equal(t, "c2", res.Member.ClubID)
		assert.Contains(t, f.sender.Sent()[0].HTML, "Away Club")
	})

	t.Run("unknown member", func(t *testing.T) {
		f := newSaveFixture()
		_, err := ExecuteSaveMember(context.Background(), SaveMemberInput{MemberID: "nope", Actor: admin, Draft: adultDraft()}, f.deps)
		assert.Error(t, err)
	})
}

// TestSaveMember_SendFailureKeepsMember verifies a provider outage is not fatal.
func TestSaveMember_SendFailureKeepsMember(t *testing.T) {
	f := newSaveFixture()
	f.deps.EmailSender = failingSender{}

	res, err := ExecuteSaveMember(context.Background(), SaveMemberInput{Actor: agentC1, Draft: adultDraft()}, f.deps)
	require.NoError(t, err)
	assert.False(t, res.ConfirmationSent)
	assert.Equal(t, 1, f.members.saves)
	assert.NotEmpty(t, res.Member.EmailConfirmationToken)
}

func TestConfirmationLink(t *testing.T) {
	assert.Equal(t, "https://a.example/confirm-email/x", ConfirmationLink("https://a.example/", "x"))
	assert.Equal(t, "/confirm-email/x", ConfirmationLink("", "x"))
}

package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	emailAdapter "clubroster/internal/adapters/email"
	"clubroster/internal/domain/account"
	"clubroster/internal/domain/club"
	"clubroster/internal/domain/member"
	"clubroster/internal/domain/transfer"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// sequence returns a generator of ids prefixed with p.
func sequence(p string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", p, n)
	}
}

// --- Fake member store ---

type fakeMemberStore struct {
	members map[string]member.Member
	saves   int
}

func newFakeMemberStore(ms ...member.Member) *fakeMemberStore {
	s := &fakeMemberStore{members: make(map[string]member.Member)}
	for _, m := range ms {
		s.members[m.ID] = m
	}
	return s
}

func (s *fakeMemberStore) GetByID(_ context.Context, id string) (member.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return member.Member{}, fmt.Errorf("member not found: %w", sql.ErrNoRows)
	}
	return m, nil
}

func (s *fakeMemberStore) GetByConfirmationToken(_ context.Context, token string) (member.Member, error) {
	for _, m := range s.members {
		if token != "" && m.EmailConfirmationToken == token {
			return m, nil
		}
	}
	return member.Member{}, fmt.Errorf("member not found: %w", sql.ErrNoRows)
}

func (s *fakeMemberStore) Save(_ context.Context, m member.Member) error {
	s.members[m.ID] = m
	s.saves++
	return nil
}

func (s *fakeMemberStore) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	for _, m := range s.members {
		if m.ID != excludeID && strings.EqualFold(m.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeMemberStore) BirthNumberTaken(_ context.Context, bn, excludeID string) (bool, error) {
	for _, m := range s.members {
		if m.ID != excludeID && m.BirthNumber == bn {
			return true, nil
		}
	}
	return false, nil
}

// --- Fake club store ---

type fakeClubStore struct {
	clubs []club.Club
}

func (s *fakeClubStore) GetByID(_ context.Context, id string) (club.Club, error) {
	for _, c := range s.clubs {
		if c.ID == id {
			return c, nil
		}
	}
	return club.Club{}, fmt.Errorf("club not found: %w", sql.ErrNoRows)
}

func (s *fakeClubStore) List(_ context.Context) ([]club.Club, error) {
	return s.clubs, nil
}

func (s *fakeClubStore) Save(_ context.Context, c club.Club) error {
	s.clubs = append(s.clubs, c)
	return nil
}

// --- Fake transfer store ---

type fakeTransferStore struct {
	transfers map[string]transfer.Transfer
}

func newFakeTransferStore(ts ...transfer.Transfer) *fakeTransferStore {
	s := &fakeTransferStore{transfers: make(map[string]transfer.Transfer)}
	for _, t := range ts {
		s.transfers[t.ID] = t
	}
	return s
}

func (s *fakeTransferStore) GetByID(_ context.Context, id string) (transfer.Transfer, error) {
	t, ok := s.transfers[id]
	if !ok {
		return transfer.Transfer{}, fmt.Errorf("transfer not found: %w", sql.ErrNoRows)
	}
	return t, nil
}

func (s *fakeTransferStore) Save(_ context.Context, t transfer.Transfer) error {
	s.transfers[t.ID] = t
	return nil
}

func (s *fakeTransferStore) ListPendingForMember(_ context.Context, memberID string) ([]transfer.Transfer, error) {
	var out []transfer.Transfer
	for _, t := range s.transfers {
		if t.MemberID == memberID && t.IsPending() {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- Fake account store ---

type fakeAccountStore struct {
	accounts map[string]account.Account
	failGet  error
}

func newFakeAccountStore(as ...account.Account) *fakeAccountStore {
	s := &fakeAccountStore{accounts: make(map[string]account.Account)}
	for _, a := range as {
		s.accounts[strings.ToLower(a.Email)] = a
	}
	return s
}

func (s *fakeAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	if s.failGet != nil {
		return account.Account{}, s.failGet
	}
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return account.Account{}, fmt.Errorf("account not found: %w", sql.ErrNoRows)
	}
	return a, nil
}

func (s *fakeAccountStore) Save(_ context.Context, a account.Account) error {
	s.accounts[strings.ToLower(a.Email)] = a
	return nil
}

// --- Failing sender ---

type failingSender struct{}

func (failingSender) Send(context.Context, emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	return emailAdapter.SendResult{}, errors.New("provider down")
}

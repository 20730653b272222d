package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clubroster/internal/domain/account"
	"clubroster/internal/domain/club"
)

// SeedStores defines the stores needed by SeedAdmin.
type SeedStores struct {
	Accounts interface {
		GetByEmail(ctx context.Context, email string) (account.Account, error)
		Save(ctx context.Context, a account.Account) error
	}
	Clubs interface {
		List(ctx context.Context) ([]club.Club, error)
		Save(ctx context.Context, c club.Club) error
	}
}

// SeedAdminInput carries the admin credentials and home club name.
type SeedAdminInput struct {
	Email    string
	Password string
	ClubName string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	Stores     SeedStores
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteSeedAdmin creates the home club and the admin account if missing.
// It is idempotent: an existing account or any existing club is left alone.
// PRE: Database is migrated
// POST: At least one club exists; an admin account with input.Email exists
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) error {
	if input.Email == "" || input.Password == "" {
		return errors.New("admin email and password are required")
	}

	clubs, err := deps.Stores.Clubs.List(ctx)
	if err != nil {
		return fmt.Errorf("list clubs: %w", err)
	}
	var home club.Club
	if len(clubs) > 0 {
		home = clubs[0]
	} else {
		home = club.Club{ID: deps.GenerateID(), Name: input.ClubName}
		if err := home.Validate(); err != nil {
			return err
		}
		if err := deps.Stores.Clubs.Save(ctx, home); err != nil {
			return fmt.Errorf("save club: %w", err)
		}
		slog.Info("seed_event", "event", "club_created", "club_id", home.ID, "name", home.Name)
	}

	_, err = deps.Stores.Accounts.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     input.Email,
		Role:      account.RoleAdmin,
		ClubID:    home.ID,
		CreatedAt: deps.Now(),
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return err
	}
	if err := acct.Validate(); err != nil {
		return err
	}
	if err := deps.Stores.Accounts.Save(ctx, acct); err != nil {
		return fmt.Errorf("save admin: %w", err)
	}
	slog.Info("seed_event", "event", "admin_created", "account_id", acct.ID, "email", acct.Email)
	return nil
}

package member

import (
	"context"

	domain "clubroster/internal/domain/member"
)

// Store persists Member state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	GetByConfirmationToken(ctx context.Context, token string) (domain.Member, error)
	Save(ctx context.Context, value domain.Member) error
	List(ctx context.Context, filter ListFilter) ([]domain.Member, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	BirthNumberTaken(ctx context.Context, birthNumber, excludeID string) (bool, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit       int
	Offset      int
	ClubID      string
	Search      string
	Active      *bool
	Sex         int
	Citizenship string
	Sort        string
	Dir         string
}

// SearchResult is a member found by name together with their club's name.
type SearchResult struct {
	Member   domain.Member
	ClubName string
}

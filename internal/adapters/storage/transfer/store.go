package transfer

import (
	"context"

	domain "clubroster/internal/domain/transfer"
)

// Store persists Transfer state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Transfer, error)
	Save(ctx context.Context, value domain.Transfer) error
	ListPendingForMember(ctx context.Context, memberID string) ([]domain.Transfer, error)
	ListForClub(ctx context.Context, clubID string, limit int) ([]domain.Transfer, error)
}

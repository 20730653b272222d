package projections

import (
	"context"

	memberStore "clubroster/internal/adapters/storage/member"
	domainClub "clubroster/internal/domain/club"
	domainMember "clubroster/internal/domain/member"
	domainTransfer "clubroster/internal/domain/transfer"
)

// MemberStore interface for member queries.
type MemberStore interface {
	GetByID(ctx context.Context, id string) (domainMember.Member, error)
	List(ctx context.Context, filter memberStore.ListFilter) ([]domainMember.Member, error)
	Count(ctx context.Context, filter memberStore.ListFilter) (int, error)
	Search(ctx context.Context, query string, limit int) ([]memberStore.SearchResult, error)
}

// ClubStore interface for club queries.
type ClubStore interface {
	GetByID(ctx context.Context, id string) (domainClub.Club, error)
	List(ctx context.Context) ([]domainClub.Club, error)
}

// TransferStore interface for transfer queries.
type TransferStore interface {
	ListForClub(ctx context.Context, clubID string, limit int) ([]domainTransfer.Transfer, error)
}

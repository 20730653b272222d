package transfer

import (
	"context"
	"database/sql"
	"fmt"

	"clubroster/internal/adapters/storage"
	domain "clubroster/internal/domain/transfer"
)

const selectColumns = `SELECT id, member_id, state, source_club_id, target_club_id, requesting_club_id,
	approving_club_id, requested_by, approved_by, approved_at, created_at FROM transfer`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new TransferStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Transfer by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Transfer, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanTransfer(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Transfer{}, fmt.Errorf("transfer not found: %w", err)
	}
	return entity, err
}

// Save persists a Transfer to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, t domain.Transfer) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO transfer (id, member_id, state, source_club_id, target_club_id,
			requesting_club_id, approving_club_id, requested_by, approved_by, approved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state=excluded.state, approved_by=excluded.approved_by,
			approved_at=excluded.approved_at`,
		t.ID, t.MemberID, t.State, t.SourceClubID, t.TargetClubID,
		t.RequestingClubID, t.ApprovingClubID, t.RequestedBy,
		storage.NullString(t.ApprovedBy), storage.NullTime(t.ApprovedAt), storage.FormatTime(t.CreatedAt),
	)
	return err
}

// ListPendingForMember returns the requested transfers of a member.
// PRE: memberID is non-empty
// POST: Returns pending transfers, oldest first
func (s *SQLiteStore) ListPendingForMember(ctx context.Context, memberID string) ([]domain.Transfer, error) {
	return s.list(ctx, selectColumns+" WHERE member_id = ? AND state = ? ORDER BY created_at, id",
		memberID, domain.StateRequested)
}

// ListForClub returns transfers where clubID is source or target, newest first.
// PRE: clubID is non-empty
func (s *SQLiteStore) ListForClub(ctx context.Context, clubID string, limit int) ([]domain.Transfer, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.list(ctx, selectColumns+" WHERE source_club_id = ? OR target_club_id = ? ORDER BY created_at DESC, id LIMIT ?",
		clubID, clubID, limit)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Transfer
	for rows.Next() {
		entity, err := scanTransfer(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanTransfer(scan func(dest ...any) error) (domain.Transfer, error) {
	var t domain.Transfer
	var approvedBy, approvedAt sql.NullString
	var createdAt string
	err := scan(
		&t.ID,
		&t.MemberID,
		&t.State,
		&t.SourceClubID,
		&t.TargetClubID,
		&t.RequestingClubID,
		&t.ApprovingClubID,
		&t.RequestedBy,
		&approvedBy,
		&approvedAt,
		&createdAt,
	)
	if err != nil {
		return domain.Transfer{}, err
	}
	t.ApprovedBy = approvedBy.String
	if approvedAt.Valid {
		t.ApprovedAt, _ = storage.ParseTime(approvedAt.String)
	}
	t.CreatedAt, _ = storage.ParseTime(createdAt)
	return t, nil
}

package club

import (
	"context"
	"database/sql"
	"fmt"

	"clubroster/internal/adapters/storage"
	domain "clubroster/internal/domain/club"
)

const selectColumns = "SELECT id, name, short_name, email, website, city FROM club"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ClubStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Club by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Club, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanClub(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Club{}, fmt.Errorf("club not found: %w", err)
	}
	return entity, err
}

// Save persists a Club to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Club) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO club (id, name, short_name, email, website, city)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, short_name=excluded.short_name,
			email=excluded.email, website=excluded.website, city=excluded.city`,
		entity.ID, entity.Name, entity.ShortName, entity.Email, entity.Website, entity.City,
	)
	return err
}

// List returns all clubs ordered by name.
// POST: Returns every club
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Club, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Club
	for rows.Next() {
		entity, err := scanClub(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanClub(scan func(dest ...any) error) (domain.Club, error) {
	var c domain.Club
	err := scan(&c.ID, &c.Name, &c.ShortName, &c.Email, &c.Website, &c.City)
	return c, err
}

package member

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"clubroster/internal/adapters/storage"
	domain "clubroster/internal/domain/member"
)

var columns = []string{
	"id", "club_id", "first_name", "last_name", "birth_date", "sex", "citizenship", "birth_number",
	"street", "house_number", "city", "postal_code", "email",
	"legal_guardian_email", "legal_guardian_first_name", "legal_guardian_last_name",
	"email_confirmation_token", "email_confirmed_at", "marketing_consent_given_at",
	"is_active", "default_jersey_number", "created_at",
}

var selectColumns = "SELECT " + strings.Join(prefixed("m.", columns), ", ") + " FROM member m"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new MemberStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE m.id = ?", id)
	entity, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return entity, err
}

// GetByConfirmationToken retrieves the Member waiting for token.
// PRE: token is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByConfirmationToken(ctx context.Context, token string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE m.email_confirmation_token = ?", token)
	entity, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return entity, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Member) error {
	updates := make([]string, 0, len(columns))
	for _, c := range columns[1:] {
		if c == "created_at" {
			continue
		}
		updates = append(updates, c+"=excluded."+c)
	}

	query := fmt.Sprintf(
		"INSERT INTO member (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
		strings.Join(updates, ", "),
	)

	var jersey any
	if entity.DefaultJerseyNumber != 0 {
		jersey = entity.DefaultJerseyNumber
	}

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.ClubID,
		entity.FirstName,
		entity.LastName,
		storage.FormatDate(entity.BirthDate),
		entity.Sex,
		entity.Citizenship,
		entity.BirthNumber,
		entity.Street,
		entity.HouseNumber,
		entity.City,
		entity.PostalCode,
		entity.Email,
		entity.LegalGuardianEmail,
		entity.LegalGuardianFirstName,
		entity.LegalGuardianLastName,
		storage.NullString(entity.EmailConfirmationToken),
		storage.NullTime(entity.EmailConfirmedAt),
		storage.NullTime(entity.MarketingConsentGivenAt),
		entity.Active,
		jersey,
		storage.FormatTime(entity.CreatedAt),
	)
	return err
}

// EmailTaken reports whether another member already uses email.
// PRE: email is non-empty
func (s *SQLiteStore) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	return s.exists(ctx, "email = ? COLLATE NOCASE", email, excludeID)
}

// BirthNumberTaken reports whether another member already has birthNumber.
// PRE: birthNumber is non-empty and normalized
func (s *SQLiteStore) BirthNumberTaken(ctx context.Context, birthNumber, excludeID string) (bool, error) {
	return s.exists(ctx, "birth_number = ?", birthNumber, excludeID)
}

func (s *SQLiteStore) exists(ctx context.Context, cond, value, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM member WHERE "+cond+" AND id != ?", value, excludeID,
	).Scan(&n)
	return n > 0, err
}

// Search finds active members across all clubs by name. Two terms match
// first and last name in either order; otherwise any term may match either.
// PRE: query is non-empty, limit > 0
// POST: Returns matches ordered by last and first name
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var cond string
	var args []any
	like := func(v string) string { return "%" + v + "%" }
	if len(terms) == 2 {
		cond = "((m.first_name LIKE ? AND m.last_name LIKE ?) OR (m.first_name LIKE ? AND m.last_name LIKE ?))"
		args = append(args, like(terms[0]), like(terms[1]), like(terms[1]), like(terms[0]))
	} else {
		parts := make([]string, 0, len(terms))
		for _, term := range terms {
			parts = append(parts, "m.first_name LIKE ? OR m.last_name LIKE ?")
			args = append(args, like(term), like(term))
		}
		cond = "(" + strings.Join(parts, " OR ") + ")"
	}

	q := "SELECT " + strings.Join(prefixed("m.", columns), ", ") + ", c.name FROM member m JOIN club c ON c.id = m.club_id" +
		" WHERE m.is_active = 1 AND " + cond + " ORDER BY m.last_name, m.first_name LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var clubName string
		entity, err := scanMember(func(dest ...any) error {
			return rows.Scan(append(dest, &clubName)...)
		})
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Member: entity, ClubName: clubName})
	}
	return results, rows.Err()
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if filter.ClubID != "" {
		where += " AND m.club_id = ?"
		args = append(args, filter.ClubID)
	}
	if filter.Active != nil {
		where += " AND m.is_active = ?"
		args = append(args, *filter.Active)
	}
	if filter.Sex != 0 {
		where += " AND m.sex = ?"
		args = append(args, filter.Sex)
	}
	if filter.Citizenship != "" {
		where += " AND m.citizenship = ?"
		args = append(args, filter.Citizenship)
	}
	if filter.Search != "" {
		where += " AND (m.first_name LIKE ? OR m.last_name LIKE ? OR m.email LIKE ? OR m.legal_guardian_email LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term, term)
	}
	return where, args
}

// sortClause returns a safe ORDER BY clause. Only allowed columns are accepted.
func sortClause(filter ListFilter) string {
	allowed := map[string]string{
		"first_name": "m.first_name", "last_name": "m.last_name",
		"birth_date": "m.birth_date", "email": "m.email",
		"citizenship": "m.citizenship", "created_at": "m.created_at",
	}
	col, ok := allowed[filter.Sort]
	if !ok {
		return " ORDER BY m.last_name ASC, m.first_name ASC"
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + ", m.id ASC"
}

// Count returns the total number of members matching the filter.
// PRE: filter has valid parameters
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member m"+where, args...).Scan(&count)
	return count, err
}

// List retrieves a list of Members based on the filter.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	where, args := listWhereClause(filter)
	query := selectColumns + where + sortClause(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		entity, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanMember(scan func(dest ...any) error) (domain.Member, error) {
	var m domain.Member
	var birthDate, createdAt string
	var token, confirmedAt, consentAt sql.NullString
	var jersey sql.NullInt64
	err := scan(
		&m.ID,
		&m.ClubID,
		&m.FirstName,
		&m.LastName,
		&birthDate,
		&m.Sex,
		&m.Citizenship,
		&m.BirthNumber,
		&m.Street,
		&m.HouseNumber,
		&m.City,
		&m.PostalCode,
		&m.Email,
		&m.LegalGuardianEmail,
		&m.LegalGuardianFirstName,
		&m.LegalGuardianLastName,
		&token,
		&confirmedAt,
		&consentAt,
		&m.Active,
		&jersey,
		&createdAt,
	)
	if err != nil {
		return domain.Member{}, err
	}
	m.BirthDate, _ = storage.ParseDate(birthDate)
	m.CreatedAt, _ = storage.ParseTime(createdAt)
	m.EmailConfirmationToken = token.String
	if confirmedAt.Valid {
		m.EmailConfirmedAt, _ = storage.ParseTime(confirmedAt.String)
	}
	if consentAt.Valid {
		m.MarketingConsentGivenAt, _ = storage.ParseTime(consentAt.String)
	}
	m.DefaultJerseyNumber = int(jersey.Int64)
	return m, nil
}

func prefixed(prefix string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return out
}

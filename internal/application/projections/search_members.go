package projections

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Member search limits.
const (
	MinSearchLength = 3
	SearchLimit     = 10
)

// SearchRow is one typeahead suggestion.
type SearchRow struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	BirthYear int    `json:"birth_year"`
	ClubName  string `json:"club_name"`
}

// SearchMembersDeps holds dependencies for SearchMembers.
type SearchMembersDeps struct {
	MemberStore MemberStore
}

// QuerySearchMembers finds active members of any club by name.
// PRE: none
// POST: empty result for queries under MinSearchLength characters;
// otherwise at most SearchLimit rows
func QuerySearchMembers(ctx context.Context, query string, deps SearchMembersDeps) ([]SearchRow, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchLength {
		return []SearchRow{}, nil
	}

	found, err := deps.MemberStore.Search(ctx, query, SearchLimit)
	if err != nil {
		return nil, err
	}
	rows := make([]SearchRow, 0, len(found))
	for _, r := range found {
		row := SearchRow{ID: r.Member.ID, FullName: r.Member.FullName(), ClubName: r.ClubName}
		if !r.Member.BirthDate.IsZero() {
			row.BirthYear = r.Member.BirthDate.Year()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

package projections

import (
	"context"
	"strings"
	"time"

	"clubroster/internal/adapters/storage"
	memberStore "clubroster/internal/adapters/storage/member"
	"clubroster/internal/application/listutil"
	"clubroster/internal/domain/agegate"
	domainMember "clubroster/internal/domain/member"
)

// Filter keys of the member table.
const (
	FilterActive      = "active"
	FilterSex         = "sex"
	FilterCitizenship = "citizenship"
)

// MemberSortColumns are the sortable columns of the member table.
var MemberSortColumns = []string{"first_name", "last_name", "birth_date", "email", "citizenship", "created_at"}

// MemberFilterChoices are the dropdown filters of the member table.
var MemberFilterChoices = listutil.Choices{
	FilterActive:      {"true", "false"},
	FilterSex:         {"1", "2"},
	FilterCitizenship: nil,
}

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	ClubID string
	Params listutil.ListParams
}

// MemberRow is one line of the member table.
type MemberRow struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	BirthDate      string `json:"birth_date"`
	Age            int    `json:"age"`
	Sex            string `json:"sex"`
	Citizenship    string `json:"citizenship"`
	BirthNumber    string `json:"birth_number"`
	ContactEmail   string `json:"contact_email"`
	EmailConfirmed bool   `json:"email_confirmed"`
	Active         bool   `json:"active"`
	JerseyNumber   int    `json:"jersey_number,omitempty"`
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Rows   []MemberRow         `json:"rows"`
	Page   listutil.PageInfo   `json:"page"`
	Params listutil.ListParams `json:"-"`
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	MemberStore MemberStore
	Now         func() time.Time
}

// QueryGetMemberList returns one page of a club's members.
// PRE: ClubID is non-empty
// POST: Rows hold at most PerPage members matching search and filters
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	p := query.Params
	filter := memberStore.ListFilter{
		ClubID:      query.ClubID,
		Search:      strings.TrimSpace(p.Search),
		Active:      p.Bool(FilterActive),
		Sex:         p.Int(FilterSex),
		Citizenship: strings.ToUpper(p.Filters[FilterCitizenship]),
		Sort:        p.Sort,
		Dir:         p.Dir,
	}

	total, err := deps.MemberStore.Count(ctx, filter)
	if err != nil {
		return GetMemberListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	members, err := deps.MemberStore.List(ctx, filter)
	if err != nil {
		return GetMemberListResult{}, err
	}

	now := deps.Now()
	rows := make([]MemberRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, toMemberRow(m, now))
	}
	p.Page = page.Page
	return GetMemberListResult{Rows: rows, Page: page, Params: p}, nil
}

func toMemberRow(m domainMember.Member, now time.Time) MemberRow {
	row := MemberRow{
		ID:             m.ID,
		FullName:       m.FullName(),
		Citizenship:    m.Citizenship,
		BirthNumber:    m.BirthNumber,
		ContactEmail:   m.ContactEmail(now),
		EmailConfirmed: m.HasEmailConfirmed(),
		Active:         m.Active,
		JerseyNumber:   m.DefaultJerseyNumber,
		Sex:            SexLabel(m.Sex),
	}
	if !m.BirthDate.IsZero() {
		row.BirthDate = storage.FormatDate(m.BirthDate)
		row.Age = agegate.AgeAt(m.BirthDate, now)
	}
	return row
}

// SexLabel returns the display name of a sex code.
func SexLabel(sex int) string {
	switch sex {
	case domainMember.SexFemale:
		return "Female"
	case domainMember.SexMale:
		return "Male"
	default:
		return ""
	}
}

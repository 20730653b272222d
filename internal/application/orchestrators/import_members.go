package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"clubroster/internal/adapters/metrics"
	"clubroster/internal/domain/account"
	"clubroster/internal/domain/agegate"
	"clubroster/internal/domain/birthnumber"
	"clubroster/internal/domain/member"
)

// importColumns are the recognised CSV headers. They match the member form
// input names.
var importColumns = map[string]bool{
	member.FieldFirstName:              true,
	member.FieldLastName:               true,
	member.FieldBirthDate:              true,
	member.FieldSex:                    true,
	member.FieldCitizenship:            true,
	member.FieldBirthNumber:            true,
	member.FieldStreet:                 true,
	member.FieldHouseNumber:            true,
	member.FieldCity:                   true,
	member.FieldPostalCode:             true,
	member.FieldEmail:                  true,
	member.FieldLegalGuardianEmail:     true,
	member.FieldLegalGuardianFirstName: true,
	member.FieldLegalGuardianLastName:  true,
	member.FieldDefaultJerseyNumber:    true,
}

// MemberStoreForImport defines the store interface needed by ImportMembers.
type MemberStoreForImport interface {
	Save(ctx context.Context, m member.Member) error
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	BirthNumberTaken(ctx context.Context, birthNumber, excludeID string) (bool, error)
}

// ImportMembersInput carries the CSV stream and import options.
// PRE: Reader is a CSV stream with a header row; Actor is authenticated
// POST: Returns aggregate counts and per-row errors; nothing is written when DryRun=true
// INVARIANT: Existing members are never modified
type ImportMembersInput struct {
	Reader io.Reader
	Actor  account.Account
	// ClubID selects the target club; only admins may pick another club
	// than their own.
	ClubID string
	DryRun bool
}

// ImportMembersResult holds aggregate counts and per-row errors from an import run.
type ImportMembersResult struct {
	Total   int                     `json:"total"`
	Created int                     `json:"created"`
	Errors  []ImportMembersRowError `json:"errors"`
	DryRun  bool                    `json:"dry_run"`
	Unknown []string                `json:"unknown_columns,omitempty"`
}

// ImportMembersRowError describes why a single CSV row was not imported.
type ImportMembersRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportMembersDeps holds external dependencies for the import orchestrator.
type ImportMembersDeps struct {
	MemberStore MemberStoreForImport
	ClubStore   ClubLookup
	Metrics     *metrics.Metrics
	Rules       member.Rules
	GenerateID  func() string
	Now         func() time.Time
}

// ImportMembersValidationError is returned when the CSV structure is invalid.
type ImportMembersValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ImportMembersValidationError) Error() string {
	return e.Message
}

// ExecuteImportMembers registers one member per CSV row into a club.
// Every row goes through the same validation as the member form. An empty
// birth date or sex is filled from the birth number.
// PRE: Input.Reader has first_name and last_name columns
// POST: Valid rows are saved unless DryRun; invalid rows are reported by line
// INVARIANT: email and birth number stay unique across the store and the file
func ExecuteImportMembers(ctx context.Context, input ImportMembersInput, deps ImportMembersDeps) (ImportMembersResult, error) {
	clubID := input.Actor.ClubID
	if input.ClubID != "" && input.Actor.IsAdmin() {
		clubID = input.ClubID
	}
	if !input.Actor.CanManageClub(clubID) {
		return ImportMembersResult{}, ErrForbidden
	}
	if _, err := deps.ClubStore.GetByID(ctx, clubID); err != nil {
		return ImportMembersResult{}, err
	}

	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ImportMembersResult{}, &ImportMembersValidationError{Message: "CSV is empty"}
		}
		return ImportMembersResult{}, fmt.Errorf("read CSV header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	var unknownCols []string
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if !importColumns[name] {
			unknownCols = append(unknownCols, h)
			continue
		}
		colIdx[name] = i
	}
	for _, required := range []string{member.FieldFirstName, member.FieldLastName} {
		if _, ok := colIdx[required]; !ok {
			return ImportMembersResult{}, &ImportMembersValidationError{Message: "CSV missing required column: " + required}
		}
	}

	getCol := func(row []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	now := deps.Now()
	result := ImportMembersResult{DryRun: input.DryRun, Unknown: unknownCols}
	seenEmails := make(map[string]int)
	seenBirthNumbers := make(map[string]int)
	rowNum := 1

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.Total++
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return result, fmt.Errorf("read CSV row %d: %w", rowNum, err)
		}
		result.Total++

		draft, convErrs := importDraft(func(col string) string { return getCol(row, col) })

		m := member.Member{ClubID: clubID, Active: true, CreatedAt: now}
		applyDraft(&m, draft)

		if err := m.Validate(now, deps.Rules); err != nil || len(convErrs) > 0 {
			var fieldErrs member.FieldErrors
			if err != nil && !errors.As(err, &fieldErrs) {
				return result, err
			}
			errs := member.FieldErrors{}
			for k, v := range fieldErrs {
				errs[k] = v
			}
			for k, v := range convErrs {
				errs[k] = v
			}
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: errs.Error()})
			continue
		}

		if msg := duplicateInFile(m, seenEmails, seenBirthNumbers); msg != "" {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: msg})
			continue
		}
		if err := checkUnique(ctx, m, deps.MemberStore); err != nil {
			var fieldErrs member.FieldErrors
			if !errors.As(err, &fieldErrs) {
				return result, err
			}
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: fieldErrs.Error()})
			continue
		}
		if m.Email != "" {
			seenEmails[strings.ToLower(m.Email)] = rowNum
		}
		if m.BirthNumber != "" {
			seenBirthNumbers[m.BirthNumber] = rowNum
		}

		if input.DryRun {
			result.Created++
			continue
		}

		m.ID = deps.GenerateID()
		if err := deps.MemberStore.Save(ctx, m); err != nil {
			slog.Error("member_event", "event", "import_save_failed", "row", rowNum, "error", err)
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "save failed (see server log)"})
			continue
		}
		deps.Metrics.IncrementRegistrations()
		result.Created++
	}

	slog.Info("member_event",
		"event", "members_imported",
		"account_id", input.Actor.ID,
		"club_id", clubID,
		"dry_run", input.DryRun,
		"total", result.Total,
		"created", result.Created,
		"errors", len(result.Errors),
	)

	return result, nil
}

// importDraft builds a member draft from one row. Values that cannot be
// converted are reported per field.
func importDraft(col func(string) string) (member.Member, member.FieldErrors) {
	errs := member.FieldErrors{}
	d := member.Member{
		FirstName:              col(member.FieldFirstName),
		LastName:               col(member.FieldLastName),
		Citizenship:            col(member.FieldCitizenship),
		BirthNumber:            col(member.FieldBirthNumber),
		Street:                 col(member.FieldStreet),
		HouseNumber:            col(member.FieldHouseNumber),
		City:                   col(member.FieldCity),
		PostalCode:             col(member.FieldPostalCode),
		Email:                  col(member.FieldEmail),
		LegalGuardianEmail:     col(member.FieldLegalGuardianEmail),
		LegalGuardianFirstName: col(member.FieldLegalGuardianFirstName),
		LegalGuardianLastName:  col(member.FieldLegalGuardianLastName),
	}
	if d.Citizenship == "" {
		d.Citizenship = member.CitizenshipCZ
	}

	if v := col(member.FieldBirthDate); v != "" {
		birth, err := agegate.Parse(v)
		if err != nil {
			errs[member.FieldBirthDate] = "Enter a valid date"
		} else {
			d.BirthDate = birth
		}
	}
	if v := col(member.FieldSex); v != "" {
		sex, ok := parseImportSex(v)
		if !ok {
			errs[member.FieldSex] = "Select a valid choice"
		} else {
			d.Sex = sex
		}
	}
	if v := col(member.FieldDefaultJerseyNumber); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs[member.FieldDefaultJerseyNumber] = "Enter a whole number"
		} else {
			d.DefaultJerseyNumber = n
		}
	}

	if d.BirthNumber != "" && (d.BirthDate.IsZero() || d.Sex == 0) {
		if info, err := birthnumber.StrictDecode.Decode(d.BirthNumber); err == nil {
			if d.BirthDate.IsZero() {
				d.BirthDate = time.Date(info.Year, time.Month(info.Month), info.Day, 0, 0, 0, 0, time.UTC)
			}
			if d.Sex == 0 {
				d.Sex = int(info.Sex)
			}
		}
	}
	return d, errs
}

// parseImportSex accepts the form codes and their names.
func parseImportSex(v string) (int, bool) {
	switch strings.ToLower(v) {
	case "1", "f", "female":
		return member.SexFemale, true
	case "2", "m", "male":
		return member.SexMale, true
	}
	return 0, false
}

// duplicateInFile reports a row that repeats the email or birth number of an
// earlier row of the same file.
func duplicateInFile(m member.Member, emails, birthNumbers map[string]int) string {
	if row, ok := emails[strings.ToLower(m.Email)]; ok && m.Email != "" {
		return fmt.Sprintf("email: same email as row %d", row)
	}
	if row, ok := birthNumbers[m.BirthNumber]; ok && m.BirthNumber != "" {
		return fmt.Sprintf("birth_number: same birth number as row %d", row)
	}
	return ""
}

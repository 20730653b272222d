package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"clubroster/internal/adapters/storage"
	"clubroster/internal/application/formfields"
	"clubroster/internal/domain/agegate"
	"clubroster/internal/domain/club"
	"clubroster/internal/domain/member"
)

// memberFormFields lists the inputs of the member form in display order.
var memberFormFields = []string{
	member.FieldFirstName,
	member.FieldLastName,
	member.FieldCitizenship,
	member.FieldBirthNumber,
	member.FieldBirthDate,
	member.FieldSex,
	member.FieldStreet,
	member.FieldHouseNumber,
	member.FieldCity,
	member.FieldPostalCode,
	member.FieldEmail,
	member.FieldLegalGuardianEmail,
	member.FieldLegalGuardianFirstName,
	member.FieldLegalGuardianLastName,
	member.FieldDefaultJerseyNumber,
}

// citizenshipChoices are the countries offered by the member form.
var citizenshipChoices = []string{member.CitizenshipCZ, "SK", "PL", "DE", "AT", "UA", "GB", "US"}

// Form fields outside the member record.
const (
	formFieldTrigger = "trigger"
	formFieldClubID  = "club_id"
)

// memberFormView is the data of the member form templates.
type memberFormView struct {
	Action      string
	Title       string
	Values      map[string]string
	Fields      map[string]formfields.FieldState
	Errors      member.FieldErrors
	AtLeast15   bool
	DecodeError string
	// Clubs is set for admins, who pick the club of a new member.
	Clubs []club.Club
}

// formValues reads the member inputs of a parsed form. Disabled inputs are
// not submitted and read as "".
func formValues(form url.Values) map[string]string {
	values := make(map[string]string, len(memberFormFields))
	for _, f := range memberFormFields {
		values[f] = strings.TrimSpace(form.Get(f))
	}
	return values
}

// memberValues renders a stored member into form values.
func memberValues(m member.Member) map[string]string {
	values := map[string]string{
		member.FieldFirstName:              m.FirstName,
		member.FieldLastName:               m.LastName,
		member.FieldCitizenship:            m.Citizenship,
		member.FieldBirthNumber:            m.BirthNumber,
		member.FieldStreet:                 m.Street,
		member.FieldHouseNumber:            m.HouseNumber,
		member.FieldCity:                   m.City,
		member.FieldPostalCode:             m.PostalCode,
		member.FieldEmail:                  m.Email,
		member.FieldLegalGuardianEmail:     m.LegalGuardianEmail,
		member.FieldLegalGuardianFirstName: m.LegalGuardianFirstName,
		member.FieldLegalGuardianLastName:  m.LegalGuardianLastName,
	}
	if !m.BirthDate.IsZero() {
		values[member.FieldBirthDate] = storage.FormatDate(m.BirthDate)
	}
	if m.Sex != 0 {
		values[member.FieldSex] = strconv.Itoa(m.Sex)
	}
	if m.DefaultJerseyNumber != 0 {
		values[member.FieldDefaultJerseyNumber] = strconv.Itoa(m.DefaultJerseyNumber)
	}
	return values
}

// parseDraft converts form values into a member draft. Values that cannot be
// converted are reported per field; empty values stay zero and are left to
// member validation.
func parseDraft(values map[string]string) (member.Member, member.FieldErrors) {
	errs := member.FieldErrors{}
	d := member.Member{
		FirstName:              values[member.FieldFirstName],
		LastName:               values[member.FieldLastName],
		Citizenship:            values[member.FieldCitizenship],
		BirthNumber:            values[member.FieldBirthNumber],
		Street:                 values[member.FieldStreet],
		HouseNumber:            values[member.FieldHouseNumber],
		City:                   values[member.FieldCity],
		PostalCode:             values[member.FieldPostalCode],
		Email:                  values[member.FieldEmail],
		LegalGuardianEmail:     values[member.FieldLegalGuardianEmail],
		LegalGuardianFirstName: values[member.FieldLegalGuardianFirstName],
		LegalGuardianLastName:  values[member.FieldLegalGuardianLastName],
	}
	if v := values[member.FieldBirthDate]; v != "" {
		birth, err := agegate.Parse(v)
		if err != nil {
			errs[member.FieldBirthDate] = "Enter a valid date"
		} else {
			d.BirthDate = birth
		}
	}
	if v := values[member.FieldSex]; v != "" {
		sex, err := strconv.Atoi(v)
		if err != nil {
			errs[member.FieldSex] = "Select a valid choice"
		} else {
			d.Sex = sex
		}
	}
	if v := values[member.FieldDefaultJerseyNumber]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs[member.FieldDefaultJerseyNumber] = "Enter a whole number"
		} else {
			d.DefaultJerseyNumber = n
		}
	}
	return d, errs
}

// parseMemberForm reads the posted member form.
func parseMemberForm(r *http.Request) (map[string]string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return formValues(r.PostForm), nil
}

// checkbox reports whether a checkbox input was ticked.
func checkbox(r *http.Request, name string) bool {
	v := r.PostFormValue(name)
	return v == "on" || v == "true" || v == "1"
}

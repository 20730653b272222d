package member

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"clubroster/internal/domain/agegate"
	"clubroster/internal/domain/birthnumber"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 32
	MaxStreetLength      = 128
	MaxCityLength        = 64
	MaxHouseNumberLength = 16
	PostalCodeLength     = 5
	MinJerseyNumber      = 1
	MaxJerseyNumber      = 99
)

// Business rule constants
const (
	CitizenshipCZ = "CZ"
	SexFemale     = int(birthnumber.SexFemale)
	SexMale       = int(birthnumber.SexMale)
)

// Field names used as FieldErrors keys. They match the form input names.
const (
	FieldFirstName              = "first_name"
	FieldLastName               = "last_name"
	FieldBirthDate              = "birth_date"
	FieldSex                    = "sex"
	FieldCitizenship            = "citizenship"
	FieldBirthNumber            = "birth_number"
	FieldStreet                 = "street"
	FieldHouseNumber            = "house_number"
	FieldCity                   = "city"
	FieldPostalCode             = "postal_code"
	FieldEmail                  = "email"
	FieldLegalGuardianEmail     = "legal_guardian_email"
	FieldLegalGuardianFirstName = "legal_guardian_first_name"
	FieldLegalGuardianLastName  = "legal_guardian_last_name"
	FieldDefaultJerseyNumber    = "default_jersey_number"
)

// AddressFields lists the address inputs in form order.
var AddressFields = []string{FieldStreet, FieldHouseNumber, FieldCity, FieldPostalCode}

// Domain errors
var (
	ErrAlreadyInactive = errors.New("member is already inactive")
	ErrAlreadyActive   = errors.New("member is already active")
	ErrTokenInvalid    = errors.New("email confirmation token is invalid")
	ErrNoContactEmail  = errors.New("member has no contact email")
)

// FieldErrors maps a form field to its validation message.
type FieldErrors map[string]string

// Error joins the messages in field order so the output is stable.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Member holds state for the concept.
type Member struct {
	ID                      string
	ClubID                  string
	FirstName               string
	LastName                string
	BirthDate               time.Time
	Sex                     int
	Citizenship             string
	BirthNumber             string
	Street                  string
	HouseNumber             string
	City                    string
	PostalCode              string
	Email                   string
	LegalGuardianEmail      string
	LegalGuardianFirstName  string
	LegalGuardianLastName   string
	EmailConfirmationToken  string
	EmailConfirmedAt        time.Time
	MarketingConsentGivenAt time.Time
	Active                  bool
	DefaultJerseyNumber     int // 0 means none
	CreatedAt               time.Time
}

// FullName returns first and last name joined by a space.
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// LegalGuardianFullName returns the guardian's name, or "" when unknown.
func (m *Member) LegalGuardianFullName() string {
	return strings.TrimSpace(m.LegalGuardianFirstName + " " + m.LegalGuardianLastName)
}

// Address formats the postal address of a foreign member, or "" when none is set.
func (m *Member) Address() string {
	if m.Street == "" {
		return ""
	}
	return fmt.Sprintf("%s %s, %s %s, Czech Republic", m.Street, m.HouseNumber, m.PostalCode, m.City)
}

// IsCzech returns true if the member has Czech citizenship.
// INVARIANT: Member fields are not mutated
func (m *Member) IsCzech() bool {
	return m.Citizenship == CitizenshipCZ
}

// IsAtLeast15 reports whether the member is 15 or older at now.
// INVARIANT: Member fields are not mutated
func (m *Member) IsAtLeast15(now time.Time) bool {
	if m.BirthDate.IsZero() {
		return agegate.UnknownBirthDateIsAdult
	}
	return agegate.IsAdultAt(m.BirthDate, now)
}

// ContactEmailField returns the field confirmation mail goes to: the member's
// own email from 15 on, the legal guardian's below.
func (m *Member) ContactEmailField(now time.Time) string {
	if m.IsAtLeast15(now) {
		return FieldEmail
	}
	return FieldLegalGuardianEmail
}

// ContactEmail returns the address in ContactEmailField.
func (m *Member) ContactEmail(now time.Time) string {
	if m.ContactEmailField(now) == FieldEmail {
		return m.Email
	}
	return m.LegalGuardianEmail
}

// HasEmailConfirmed returns true once the contact email was confirmed.
func (m *Member) HasEmailConfirmed() bool {
	return !m.EmailConfirmedAt.IsZero()
}

// Rules carries feature switches that change validation.
type Rules struct {
	// EmailRequired makes the contact email mandatory.
	EmailRequired bool
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns FieldErrors if validation fails, nil otherwise
// INVARIANT: uniqueness of email and birth number is checked by the caller against the store
func (m *Member) Validate(now time.Time, rules Rules) error {
	errs := FieldErrors{}

	m.validateNames(errs)

	if m.BirthDate.IsZero() {
		errs[FieldBirthDate] = "This field is required"
	} else if m.BirthDate.After(now) {
		errs[FieldBirthDate] = "Birth date cannot be in the future"
	}
	if m.Sex != SexFemale && m.Sex != SexMale {
		errs[FieldSex] = "Select a valid choice"
	}
	if len(m.Citizenship) != 2 {
		errs[FieldCitizenship] = "Select a valid country"
	}

	if m.IsCzech() {
		m.validateCzech(errs, now)
	} else {
		m.validateForeigner(errs)
	}

	if m.Email != "" && !strings.Contains(m.Email, "@") {
		errs[FieldEmail] = "Enter a valid email address"
	}
	if m.LegalGuardianEmail != "" && !strings.Contains(m.LegalGuardianEmail, "@") {
		errs[FieldLegalGuardianEmail] = "Enter a valid email address"
	}

	if m.IsAtLeast15(now) {
		if rules.EmailRequired && m.Email == "" {
			errs[FieldEmail] = "This field is required"
		}
	} else {
		const msg = "This field is required for children under 15"
		if rules.EmailRequired && m.LegalGuardianEmail == "" {
			errs[FieldLegalGuardianEmail] = msg
		}
		if m.LegalGuardianFirstName == "" {
			errs[FieldLegalGuardianFirstName] = msg
		}
		if m.LegalGuardianLastName == "" {
			errs[FieldLegalGuardianLastName] = msg
		}
	}

	if m.DefaultJerseyNumber != 0 && (m.DefaultJerseyNumber < MinJerseyNumber || m.DefaultJerseyNumber > MaxJerseyNumber) {
		errs[FieldDefaultJerseyNumber] = "Jersey number must be between 1 and 99"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (m *Member) validateNames(errs FieldErrors) {
	for field, value := range map[string]string{
		FieldFirstName:              m.FirstName,
		FieldLastName:               m.LastName,
		FieldLegalGuardianFirstName: m.LegalGuardianFirstName,
		FieldLegalGuardianLastName:  m.LegalGuardianLastName,
	} {
		if len(value) > MaxNameLength {
			errs[field] = fmt.Sprintf("Ensure this value has at most %d characters", MaxNameLength)
		}
	}
	if strings.TrimSpace(m.FirstName) == "" {
		errs[FieldFirstName] = "This field is required"
	}
	if strings.TrimSpace(m.LastName) == "" {
		errs[FieldLastName] = "This field is required"
	}
}

func (m *Member) validateCzech(errs FieldErrors, now time.Time) {
	if m.BirthNumber == "" {
		errs[FieldBirthNumber] = "Birth number is required for czech citizens"
	} else if err := birthnumber.ValidateAt(m.BirthNumber, now); err != nil {
		errs[FieldBirthNumber] = capitalize(err.Error())
	} else if !birthnumber.MatchesBirthDateAt(m.BirthDate, m.BirthNumber, now) {
		errs[FieldBirthNumber] = "Invalid birth number or birth date"
	}
	for field, value := range m.addressValues() {
		if value != "" {
			errs[field] = "This field is required only for non-czech citizens"
		}
	}
}

func (m *Member) validateForeigner(errs FieldErrors) {
	values := m.addressValues()
	anySet := false
	for _, v := range values {
		if v != "" {
			anySet = true
		}
	}
	if anySet {
		for field, v := range values {
			if v == "" {
				errs[field] = "This field is required if an address is provided"
			}
		}
	}
	if m.PostalCode != "" && !isPostalCode(m.PostalCode) {
		errs[FieldPostalCode] = "Invalid postal code format"
	}
	if len(m.Street) > MaxStreetLength {
		errs[FieldStreet] = fmt.Sprintf("Ensure this value has at most %d characters", MaxStreetLength)
	}
	if len(m.City) > MaxCityLength {
		errs[FieldCity] = fmt.Sprintf("Ensure this value has at most %d characters", MaxCityLength)
	}
	if len(m.HouseNumber) > MaxHouseNumberLength {
		errs[FieldHouseNumber] = fmt.Sprintf("Ensure this value has at most %d characters", MaxHouseNumberLength)
	}
}

func (m *Member) addressValues() map[string]string {
	return map[string]string{
		FieldStreet:      m.Street,
		FieldHouseNumber: m.HouseNumber,
		FieldCity:        m.City,
		FieldPostalCode:  m.PostalCode,
	}
}

// Deactivate hides the member from selection lists.
// PRE: Member is active
// POST: Active is false
func (m *Member) Deactivate() error {
	if !m.Active {
		return ErrAlreadyInactive
	}
	m.Active = false
	return nil
}

// Reactivate makes a deactivated member selectable again.
// PRE: Member is inactive
// POST: Active is true
func (m *Member) Reactivate() error {
	if m.Active {
		return ErrAlreadyActive
	}
	m.Active = true
	return nil
}

// ConfirmEmail marks the contact email as confirmed and consumes the token.
// PRE: token equals EmailConfirmationToken
// POST: EmailConfirmedAt is now, token cleared, consent recorded when given
func (m *Member) ConfirmEmail(token string, marketingConsent bool, now time.Time) error {
	if token == "" || token != m.EmailConfirmationToken {
		return ErrTokenInvalid
	}
	m.EmailConfirmedAt = now
	m.EmailConfirmationToken = ""
	if marketingConsent {
		m.MarketingConsentGivenAt = now
	}
	return nil
}

func isPostalCode(v string) bool {
	if len(v) != PostalCodeLength {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package birthnumber

import (
	"fmt"
	"time"
)

// ErrorKind classifies a DecodeError.
type ErrorKind string

const (
	KindInvalidLength     ErrorKind = "invalid-length"
	KindInvalidCharacters ErrorKind = "invalid-characters"
	KindInvalidDate       ErrorKind = "invalid-date"
)

// DecodeError is returned when a birth number cannot be decoded under a policy.
type DecodeError struct {
	Kind       ErrorKind
	Identifier string
	Detail     string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("birth number %q: %s: %s", e.Identifier, e.Kind, e.Detail)
}

// Policy selects how much the decoder checks beyond the positional layout.
type Policy int

const (
	// LenientDecode mirrors the registration form: once the layout is readable,
	// month and day pass through unchecked, so "991301..." yields "1999-13-01".
	// The form's own validation is expected to catch such dates.
	LenientDecode Policy = iota

	// StrictDecode additionally requires the decoded date to exist in the
	// calendar.
	StrictDecode
)

// String returns the policy name used in query parameters and CLI flags.
func (p Policy) String() string {
	if p == StrictDecode {
		return "strict"
	}
	return "lenient"
}

// ParsePolicy maps "lenient", "strict" or "" (lenient) to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "lenient":
		return LenientDecode, nil
	case "strict":
		return StrictDecode, nil
	default:
		return LenientDecode, fmt.Errorf("unknown decode policy %q", name)
	}
}

// Info is the decoded content of a birth number.
type Info struct {
	BirthDate string // YYYY-MM-DD
	Year      int
	Month     int
	Day       int
	Sex       Sex
}

// Decode reads date and sex from identifier under policy p.
func (p Policy) Decode(identifier string) (Info, error) {
	f, err := split(identifier)
	if err != nil {
		return Info{}, err
	}
	sex, month := f.sex()
	year := f.fullYear()

	if p == StrictDecode && !isCalendarDate(year, month, f.day) {
		return Info{}, &DecodeError{
			Kind:       KindInvalidDate,
			Identifier: identifier,
			Detail:     fmt.Sprintf("%04d-%02d-%02d is not a calendar date", year, month, f.day),
		}
	}

	return Info{
		BirthDate: fmt.Sprintf("%04d-%02d-%02d", year, month, f.day),
		Year:      year,
		Month:     month,
		Day:       f.day,
		Sex:       sex,
	}, nil
}

// DecodeDate returns the ISO birth date encoded in identifier under policy p.
func (p Policy) DecodeDate(identifier string) (string, error) {
	info, err := p.Decode(identifier)
	if err != nil {
		return "", err
	}
	return info.BirthDate, nil
}

// DecodeSex returns the sex encoded in identifier. Only the month digits are
// read, so the result does not depend on the policy beyond layout checks.
func (p Policy) DecodeSex(identifier string) (Sex, error) {
	f, err := split(identifier)
	if err != nil {
		return 0, err
	}
	sex, _ := f.sex()
	return sex, nil
}

// Decode reads date and sex under LenientDecode.
func Decode(identifier string) (Info, error) {
	return LenientDecode.Decode(identifier)
}

// DecodeDate returns the ISO birth date under LenientDecode.
//
// Example: "9901011234" -> "1999-01-01", "0551011234" -> "2005-01-01".
func DecodeDate(identifier string) (string, error) {
	return LenientDecode.DecodeDate(identifier)
}

// DecodeSex returns SexFemale when the encoded month exceeds 50, SexMale otherwise.
func DecodeSex(identifier string) (Sex, error) {
	return LenientDecode.DecodeSex(identifier)
}

func isCalendarDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

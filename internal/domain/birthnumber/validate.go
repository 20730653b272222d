package birthnumber

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// Validation errors returned by Validate.
var (
	ErrInvalidLength = errors.New("birth number must have 9 or 10 digits")
	ErrInvalidFormat = errors.New("invalid birth number format")
	ErrInvalidDate   = errors.New("invalid birth number")
	ErrChecksum      = errors.New("birth number is not divisible by 11")
)

// ExtendedFemaleMonthOffset is used for women when the regular series of a
// day is exhausted.
const ExtendedFemaleMonthOffset = 70

var formatPattern = regexp.MustCompile(`^\d{6}/?\d{3,4}$`)

// now is replaced in tests.
var now = time.Now

// Validate checks value the way the member registry stores it: 9 or 10 digits,
// a real birth date and, for 10 digits, divisibility by 11.
//
// Unlike the decoder, the century comes from the current year: a two-digit
// year later than this year's belongs to the 1900s.
func Validate(value string) error {
	return ValidateAt(value, now())
}

// ValidateAt is Validate with an explicit reference time.
func ValidateAt(value string, at time.Time) error {
	cleaned := Normalize(value)
	if len(cleaned) != ShortLength && len(cleaned) != LongLength {
		return ErrInvalidLength
	}
	if !formatPattern.MatchString(value) {
		return ErrInvalidFormat
	}

	if _, ok := registryDate(cleaned, at); !ok {
		return ErrInvalidDate
	}

	if len(cleaned) == LongLength {
		n, err := strconv.ParseUint(cleaned, 10, 64)
		if err != nil || n%11 != 0 {
			return ErrChecksum
		}
	}
	return nil
}

// MatchesBirthDate reports whether birthDate is the date encoded in id.
func MatchesBirthDate(birthDate time.Time, id string) bool {
	return MatchesBirthDateAt(birthDate, id, now())
}

// MatchesBirthDateAt is MatchesBirthDate with an explicit reference time.
func MatchesBirthDateAt(birthDate time.Time, id string, at time.Time) bool {
	cleaned := Normalize(id)
	if len(cleaned) < 6 {
		return false
	}
	encoded, ok := registryDate(cleaned, at)
	if !ok {
		return false
	}
	y, m, d := birthDate.Date()
	return encoded.Year() == y && encoded.Month() == m && encoded.Day() == d
}

// registryDate resolves the calendar date of a cleaned birth number using the
// current-year century rule. ok is false when the digits do not form a date.
func registryDate(cleaned string, at time.Time) (time.Time, bool) {
	for i := 0; i < 6; i++ {
		if cleaned[i] < '0' || cleaned[i] > '9' {
			return time.Time{}, false
		}
	}
	year, _ := strconv.Atoi(cleaned[0:2])
	month, _ := strconv.Atoi(cleaned[2:4])
	day, _ := strconv.Atoi(cleaned[4:6])

	switch {
	case month > ExtendedFemaleMonthOffset:
		month -= ExtendedFemaleMonthOffset
	case month > FemaleMonthOffset:
		month -= FemaleMonthOffset
	}

	century := 2000
	if year > at.Year()%100 || len(cleaned) == ShortLength {
		century = 1900
	}
	if !isCalendarDate(century+year, month, day) {
		return time.Time{}, false
	}
	return time.Date(century+year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

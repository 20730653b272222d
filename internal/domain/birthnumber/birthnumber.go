// Package birthnumber decodes and validates national birth numbers.
//
// A birth number is a digit string of 9, 10 or 11 characters with an optional
// single "/" separator between the date part and the suffix. The first six
// digits encode YY MM DD; the month carries +50 for women. The suffix is not
// interpreted by the decoder, only by Validate.
//
// Decoding is a pure function of its argument: no I/O, no logging, no shared
// state. Validate additionally reads the clock. Everything is safe to call from
// any goroutine.
package birthnumber

import (
	"fmt"
	"strconv"
	"strings"
)

// Separator is the optional character between the date part and the suffix.
const Separator = "/"

const (
	// FemaleMonthOffset is added to the month of birth for women.
	FemaleMonthOffset = 50

	// CenturyPivot splits 10-digit numbers between centuries: two-digit years
	// below it belong to the 2000s, the rest to the 1900s.
	CenturyPivot = 54
)

// Lengths of a birth number after the separator is removed.
const (
	ShortLength = 9  // issued before 1954, always 1900s
	LongLength  = 10 // issued from 1954 on
	MaxLength   = 11 // accepted by the decoder, century falls back to 1900s
)

// Sex is the code stored on the member record.
type Sex int

const (
	SexFemale Sex = 1
	SexMale   Sex = 2
)

// String returns the lowercase name of the sex code.
func (s Sex) String() string {
	switch s {
	case SexFemale:
		return "female"
	case SexMale:
		return "male"
	default:
		return "unknown"
	}
}

// Code returns the numeric form value, "1" or "2".
func (s Sex) Code() string {
	return strconv.Itoa(int(s))
}

// Normalize removes the first separator from value. Only one separator is
// recognised; anything after it is left as-is and rejected by the decoder.
func Normalize(value string) string {
	return strings.Replace(value, Separator, "", 1)
}

// fields holds the positional parts of a normalized birth number.
type fields struct {
	length   int
	rawYear  int
	rawMonth int
	day      int
}

// split extracts the positional fields. It rejects input the decoder cannot
// read at all: more than one separator, a wrong length or non-digits in the
// first six characters.
func split(identifier string) (fields, error) {
	if n := strings.Count(identifier, Separator); n > 1 {
		return fields{}, &DecodeError{
			Kind:       KindInvalidLength,
			Identifier: identifier,
			Detail:     fmt.Sprintf("%d separators, at most one allowed", n),
		}
	}
	normalized := Normalize(identifier)
	n := len(normalized)
	if n != ShortLength && n != LongLength && n != MaxLength {
		return fields{}, &DecodeError{
			Kind:       KindInvalidLength,
			Identifier: identifier,
			Detail:     fmt.Sprintf("%d characters after removing the separator", n),
		}
	}
	for i := 0; i < 6; i++ {
		if normalized[i] < '0' || normalized[i] > '9' {
			return fields{}, &DecodeError{
				Kind:       KindInvalidCharacters,
				Identifier: identifier,
				Detail:     fmt.Sprintf("non-digit %q at position %d", normalized[i], i),
			}
		}
	}
	year, _ := strconv.Atoi(normalized[0:2])
	month, _ := strconv.Atoi(normalized[2:4])
	day, _ := strconv.Atoi(normalized[4:6])
	return fields{length: n, rawYear: year, rawMonth: month, day: day}, nil
}

// sex reports the sex encoded in the raw month and the true month.
func (f fields) sex() (Sex, int) {
	if f.rawMonth > FemaleMonthOffset {
		return SexFemale, f.rawMonth - FemaleMonthOffset
	}
	return SexMale, f.rawMonth
}

// fullYear resolves the century from the normalized length.
func (f fields) fullYear() int {
	switch f.length {
	case ShortLength:
		return 1900 + f.rawYear
	case LongLength:
		if f.rawYear < CenturyPivot {
			return 2000 + f.rawYear
		}
		return 1900 + f.rawYear
	default:
		return 1900 + f.rawYear
	}
}

// Package agegate derives the minimum-age predicate that decides which
// contact fields apply to a member: their own email from MinimumAge on,
// a legal guardian's details below it.
package agegate

import (
	"strconv"
	"strings"
	"time"
)

// MinimumAge is the age from which a member registers with their own email.
const MinimumAge = 15

// DateLayout is the ISO date format used by date inputs.
const DateLayout = "2006-01-02"

const (
	// UnknownBirthDateIsAdult is the answer when no birth date is known yet.
	// Guardian fields stay disabled until a date says otherwise.
	UnknownBirthDateIsAdult = true

	// UnparsableBirthDateIsAdult is the answer for a date that cannot be read,
	// such as "1999-13-01" from a mistyped birth number. Guardian fields are
	// enabled so the mistake stays visible.
	UnparsableBirthDateIsAdult = false
)

// Now is the clock used by IsAtLeast15. It is read on every call.
var Now = time.Now

// IsAtLeast15 reports whether a person born on birthDate (YYYY-MM-DD) is
// MinimumAge or older today. An empty birthDate returns UnknownBirthDateIsAdult.
func IsAtLeast15(birthDate string) bool {
	return IsAtLeastAt(birthDate, MinimumAge, Now())
}

// IsAtLeastAt reports whether a person born on birthDate is at least minAge
// years old at now.
func IsAtLeastAt(birthDate string, minAge int, now time.Time) bool {
	if strings.TrimSpace(birthDate) == "" {
		return UnknownBirthDateIsAdult
	}
	birth, err := Parse(birthDate)
	if err != nil {
		return UnparsableBirthDateIsAdult
	}
	return AgeAt(birth, now) >= minAge
}

// AgeAt returns the number of whole years between birth and now. The age
// increases on the birthday itself.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// IsAdultAt is IsAtLeastAt for an already parsed birth date and MinimumAge.
func IsAdultAt(birth, now time.Time) bool {
	return AgeAt(birth, now) >= MinimumAge
}

// Parse reads a YYYY-MM-DD date. Month must be 1..12 and day 1..31; a day
// past the end of the month rolls over into the next one, so "2019-02-30"
// reads as 2 March 2019.
func Parse(value string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return time.Time{}, &time.ParseError{Layout: DateLayout, Value: value, Message: ": expected YYYY-MM-DD"}
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || strings.ContainsAny(p, "+-") {
			return time.Time{}, &time.ParseError{Layout: DateLayout, Value: value, Message: ": non-numeric field"}
		}
		nums[i] = n
	}
	if nums[1] < 1 || nums[1] > 12 {
		return time.Time{}, &time.ParseError{Layout: DateLayout, Value: value, Message: ": month out of range"}
	}
	if nums[2] < 1 || nums[2] > 31 {
		return time.Time{}, &time.ParseError{Layout: DateLayout, Value: value, Message: ": day out of range"}
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC), nil
}

package club

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength      = 128
	MaxShortNameLength = 32
)

// Domain errors
var (
	ErrEmptyName    = errors.New("club name cannot be empty")
	ErrNameTooLong  = errors.New("club name cannot exceed 128 characters")
	ErrInvalidEmail = errors.New("club email must contain '@'")
)

// Club is a sports club that owns members and is managed by agents.
type Club struct {
	ID        string
	Name      string
	ShortName string
	Email     string
	Website   string
	City      string
}

// DisplayName returns the short name when set, the full name otherwise.
func (c *Club) DisplayName() string {
	if c.ShortName != "" {
		return c.ShortName
	}
	return c.Name
}

// Validate checks if the Club has valid data.
// PRE: Club struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (c *Club) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(c.ShortName) > MaxShortNameLength {
		return errors.New("club short name cannot exceed 32 characters")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

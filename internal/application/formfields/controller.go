// Package formfields computes which member form inputs are enabled, cleared
// or shown read-only for a given form state. It is the server-side rendition
// of the member form's field toggling: the page posts its current values and
// the trigger that fired, and re-renders the fields from the Result.
package formfields

import (
	"time"

	"clubroster/internal/domain/agegate"
	"clubroster/internal/domain/birthnumber"
	"clubroster/internal/domain/member"
)

// Trigger names the form event that caused a recomputation.
type Trigger string

const (
	TriggerLoad               Trigger = "load"
	TriggerBirthNumberChanged Trigger = "birth_number_changed"
	TriggerBirthDateBlurred   Trigger = "birth_date_blurred"
	TriggerCitizenshipChanged Trigger = "citizenship_changed"
)

// ParseTrigger maps a form value to a Trigger. Unknown values read as load,
// which recomputes everything.
func ParseTrigger(v string) Trigger {
	switch Trigger(v) {
	case TriggerBirthNumberChanged, TriggerBirthDateBlurred, TriggerCitizenshipChanged:
		return Trigger(v)
	default:
		return TriggerLoad
	}
}

// Field groups toggled by the controller.
var (
	// CzechDisabledFields are cleared and look read-only for Czech citizens.
	CzechDisabledFields = member.AddressFields

	// ForeignerDisabledFields are disabled and cleared for non-Czech citizens.
	ForeignerDisabledFields = []string{member.FieldBirthNumber}

	// GuardianFields are disabled and cleared from MinimumAge on.
	GuardianFields = []string{
		member.FieldLegalGuardianEmail,
		member.FieldLegalGuardianFirstName,
		member.FieldLegalGuardianLastName,
	}

	// RegularEmailFields are disabled and cleared below MinimumAge.
	RegularEmailFields = []string{member.FieldEmail}
)

// FieldState describes how one input is rendered.
type FieldState struct {
	Disabled     bool
	ReadOnlyLook bool
	Cleared      bool
}

// State is the submitted form: every input value keyed by its name plus the
// trigger that fired.
type State struct {
	Values  map[string]string
	Trigger Trigger
}

// Result is the recomputed form.
type Result struct {
	Values    map[string]string
	Fields    map[string]FieldState
	AtLeast15 bool
	// Decoded is true when the birth number overwrote birth date and sex.
	Decoded bool
	// DecodeErr is set when a birth number of decodable length could not be
	// read. The form stays usable and keeps the previous birth date.
	DecodeErr error
}

// Controller applies the toggling rules.
type Controller struct {
	Policy birthnumber.Policy
	Now    func() time.Time
}

// New returns a Controller using LenientDecode and the age gate clock.
func New() *Controller {
	return &Controller{Policy: birthnumber.LenientDecode, Now: agegate.Now}
}

// Apply recomputes the form for state.
// PRE: state.Values may be nil or partial
// POST: Result.Values is a new map; state.Values is not mutated
// INVARIANT: the age gate always runs against the birth date in Result.Values
func (c *Controller) Apply(state State) Result {
	res := Result{
		Values: make(map[string]string, len(state.Values)),
		Fields: make(map[string]FieldState),
	}
	for k, v := range state.Values {
		res.Values[k] = v
	}

	c.applyCitizenship(&res)

	if state.Trigger == TriggerLoad || state.Trigger == TriggerBirthNumberChanged {
		c.applyBirthNumber(&res)
	}

	c.applyAgeGate(&res)
	return res
}

func (c *Controller) applyCitizenship(res *Result) {
	czech := res.Values[member.FieldCitizenship] == member.CitizenshipCZ

	for _, f := range CzechDisabledFields {
		if czech {
			res.clear(f)
			res.Fields[f] = FieldState{ReadOnlyLook: true, Cleared: true}
		} else {
			res.Fields[f] = FieldState{}
		}
	}
	for _, f := range ForeignerDisabledFields {
		if czech {
			res.Fields[f] = FieldState{}
		} else {
			res.clear(f)
			res.Fields[f] = FieldState{Disabled: true, Cleared: true}
		}
	}
}

// applyBirthNumber decodes date and sex once the stripped identifier has 10
// or 11 characters. Shorter input is still being typed and is left alone.
func (c *Controller) applyBirthNumber(res *Result) {
	raw := res.Values[member.FieldBirthNumber]
	n := len(birthnumber.Normalize(raw))
	if n != birthnumber.LongLength && n != birthnumber.MaxLength {
		return
	}
	info, err := c.Policy.Decode(raw)
	if err != nil {
		res.DecodeErr = err
		return
	}
	res.Values[member.FieldBirthDate] = info.BirthDate
	res.Values[member.FieldSex] = info.Sex.Code()
	res.Decoded = true
}

func (c *Controller) applyAgeGate(res *Result) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	adult := agegate.IsAtLeastAt(res.Values[member.FieldBirthDate], agegate.MinimumAge, now())
	res.AtLeast15 = adult

	for _, f := range GuardianFields {
		if adult {
			res.clear(f)
			res.Fields[f] = FieldState{Disabled: true, Cleared: true}
		} else {
			res.Fields[f] = FieldState{}
		}
	}
	for _, f := range RegularEmailFields {
		if adult {
			res.Fields[f] = FieldState{}
		} else {
			res.clear(f)
			res.Fields[f] = FieldState{Disabled: true, Cleared: true}
		}
	}
}

func (r *Result) clear(field string) {
	r.Values[field] = ""
}

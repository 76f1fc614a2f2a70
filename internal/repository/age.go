package repository

import (
	"time"

	"github.com/Moyowalker/onye-test/internal/nlp"
)

// BirthdateWindow is an age constraint translated into birth date bounds.
// A zero bound means that side is open. After is exclusive on neither side:
// both bounds are inclusive, matching FHIR's ge/le prefixes.
type BirthdateWindow struct {
	NotBefore time.Time // birthdate >= NotBefore
	NotAfter  time.Time // birthdate <= NotAfter
}

// BirthdateWindowFromAge translates an age filter into birth date bounds
// relative to today:
//
//	gt N     => born before today-N years
//	lt N     => born after today-N years
//	eq N     => born within the year window [today-(N+1)y, today-Ny]
//	range A..B => born within [today-By, today-Ay]
//
// Returns nil for a nil filter or an unrecognized operator.
func BirthdateWindowFromAge(af *nlp.AgeFilter, today time.Time) *BirthdateWindow {
	if af == nil {
		return nil
	}

	switch af.Operator {
	case nlp.AgeOpGreaterThan:
		if af.Value == nil {
			return nil
		}
		return &BirthdateWindow{NotAfter: yearsAgo(today, *af.Value).AddDate(0, 0, -1)}
	case nlp.AgeOpLessThan:
		if af.Value == nil {
			return nil
		}
		return &BirthdateWindow{NotBefore: yearsAgo(today, *af.Value).AddDate(0, 0, 1)}
	case nlp.AgeOpEquals:
		if af.Value == nil {
			return nil
		}
		return &BirthdateWindow{
			NotBefore: yearsAgo(today, *af.Value+1).AddDate(0, 0, 1),
			NotAfter:  yearsAgo(today, *af.Value),
		}
	case nlp.AgeOpRange:
		if af.Min == nil || af.Max == nil {
			return nil
		}
		return &BirthdateWindow{
			NotBefore: yearsAgo(today, *af.Max+1).AddDate(0, 0, 1),
			NotAfter:  yearsAgo(today, *af.Min),
		}
	default:
		return nil
	}
}

// SearchValues renders the window as FHIR birthdate search parameter
// values, e.g. ["ge1974-08-30", "le2004-08-29"].
func (w *BirthdateWindow) SearchValues() []string {
	if w == nil {
		return nil
	}
	var vals []string
	if !w.NotBefore.IsZero() {
		vals = append(vals, "ge"+w.NotBefore.Format("2006-01-02"))
	}
	if !w.NotAfter.IsZero() {
		vals = append(vals, "le"+w.NotAfter.Format("2006-01-02"))
	}
	return vals
}

// yearsAgo subtracts whole years from a date. A Feb 29 anchor lands on
// Feb 28 in non-leap years rather than rolling into March.
func yearsAgo(today time.Time, years int) time.Time {
	d := today.AddDate(-years, 0, 0)
	if today.Month() == time.February && today.Day() == 29 && d.Month() == time.March {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// CalculateAge returns the age in whole years for a birth date, as of
// today.
func CalculateAge(birthDate, today time.Time) int {
	age := today.Year() - birthDate.Year()
	if today.Month() < birthDate.Month() ||
		(today.Month() == birthDate.Month() && today.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// MatchesAge reports whether an age satisfies the filter. Used by the
// in-memory source, which filters computed ages directly instead of going
// through birth date bounds.
func MatchesAge(age int, af *nlp.AgeFilter) bool {
	if af == nil {
		return true
	}
	switch af.Operator {
	case nlp.AgeOpGreaterThan:
		return af.Value != nil && age > *af.Value
	case nlp.AgeOpLessThan:
		return af.Value != nil && age < *af.Value
	case nlp.AgeOpEquals:
		return af.Value != nil && age == *af.Value
	case nlp.AgeOpRange:
		return af.Min != nil && af.Max != nil && age >= *af.Min && age <= *af.Max
	default:
		return false
	}
}

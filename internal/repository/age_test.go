package repository

import (
	"reflect"
	"testing"
	"time"

	"github.com/Moyowalker/onye-test/internal/nlp"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBirthdateWindowFromAge(t *testing.T) {
	today := date(2026, time.August, 29)

	tests := []struct {
		name      string
		filter    *nlp.AgeFilter
		notBefore time.Time
		notAfter  time.Time
	}{
		{
			name:     "greater than",
			filter:   nlp.GreaterThan(50),
			notAfter: date(1976, time.August, 28),
		},
		{
			name:      "less than",
			filter:    nlp.LessThan(18),
			notBefore: date(2008, time.August, 30),
		},
		{
			name:      "equals covers one year of birth dates",
			filter:    nlp.Equals(30),
			notBefore: date(1995, time.August, 30),
			notAfter:  date(1996, time.August, 29),
		},
		{
			name:      "range",
			filter:    nlp.Range(30, 50),
			notBefore: date(1975, time.August, 30),
			notAfter:  date(1996, time.August, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := BirthdateWindowFromAge(tt.filter, today)
			if w == nil {
				t.Fatal("expected a window, got nil")
			}
			if !w.NotBefore.Equal(tt.notBefore) {
				t.Errorf("NotBefore = %s, want %s", w.NotBefore, tt.notBefore)
			}
			if !w.NotAfter.Equal(tt.notAfter) {
				t.Errorf("NotAfter = %s, want %s", w.NotAfter, tt.notAfter)
			}
		})
	}
}

func TestBirthdateWindowFromAgeNil(t *testing.T) {
	if w := BirthdateWindowFromAge(nil, time.Now()); w != nil {
		t.Errorf("nil filter: got %+v, want nil", w)
	}
	if w := BirthdateWindowFromAge(&nlp.AgeFilter{Operator: "between"}, time.Now()); w != nil {
		t.Errorf("unknown operator: got %+v, want nil", w)
	}
}

func TestBirthdateWindowSearchValues(t *testing.T) {
	today := date(2026, time.August, 29)

	w := BirthdateWindowFromAge(nlp.Range(30, 50), today)
	want := []string{"ge1975-08-30", "le1996-08-29"}
	if got := w.SearchValues(); !reflect.DeepEqual(got, want) {
		t.Errorf("SearchValues() = %v, want %v", got, want)
	}

	w = BirthdateWindowFromAge(nlp.GreaterThan(65), today)
	want = []string{"le1961-08-28"}
	if got := w.SearchValues(); !reflect.DeepEqual(got, want) {
		t.Errorf("SearchValues() = %v, want %v", got, want)
	}
}

func TestYearsAgoLeapDay(t *testing.T) {
	// A Feb 29 anchor must not roll into March in a non-leap year.
	got := yearsAgo(date(2024, time.February, 29), 1)
	want := date(2023, time.February, 28)
	if !got.Equal(want) {
		t.Errorf("yearsAgo(2024-02-29, 1) = %s, want %s", got, want)
	}
}

func TestCalculateAge(t *testing.T) {
	today := date(2026, time.August, 29)

	tests := []struct {
		birth time.Time
		want  int
	}{
		{date(1985, time.March, 15), 41},
		{date(2000, time.September, 1), 25}, // birthday not yet reached
		{date(2000, time.August, 29), 26},   // birthday today
	}
	for _, tt := range tests {
		if got := CalculateAge(tt.birth, today); got != tt.want {
			t.Errorf("CalculateAge(%s) = %d, want %d", tt.birth.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestMatchesAge(t *testing.T) {
	tests := []struct {
		name   string
		age    int
		filter *nlp.AgeFilter
		want   bool
	}{
		{"nil filter matches", 40, nil, true},
		{"gt strict", 50, nlp.GreaterThan(50), false},
		{"gt above", 51, nlp.GreaterThan(50), true},
		{"lt strict", 18, nlp.LessThan(18), false},
		{"eq", 30, nlp.Equals(30), true},
		{"range inclusive low", 30, nlp.Range(30, 50), true},
		{"range inclusive high", 50, nlp.Range(30, 50), true},
		{"range outside", 51, nlp.Range(30, 50), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesAge(tt.age, tt.filter); got != tt.want {
				t.Errorf("MatchesAge(%d, %+v) = %v, want %v", tt.age, tt.filter, got, tt.want)
			}
		})
	}
}

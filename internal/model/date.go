package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date with no time component
type Date struct {
	t time.Time
}

// NewDate builds a date from its calendar parts
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date in the time's own location
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar date
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// AddDays returns the date n days later (or earlier for negative n)
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before o
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// After reports whether d is strictly after o
func (d Date) After(o Date) bool {
	return d.t.After(o.t)
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" when unset
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

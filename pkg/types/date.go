package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time-of-day component. Scheme windows,
// order dates and return dates all compare at day granularity, so the zone
// and clock of the originating request never leak into eligibility checks.
type Date string

// NewDate builds a Date from a time.Time, truncating the clock.
func NewDate(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// Today returns the current calendar day in UTC.
func Today() Date {
	return NewDate(time.Now().UTC())
}

// ParseDate validates raw input against the YYYY-MM-DD layout.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return NewDate(t), nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == ""
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return string(d)
}

// Before reports whether d falls strictly before other. The ISO layout is
// zero-padded, so lexical comparison matches chronological order.
func (d Date) Before(other Date) bool {
	return string(d) < string(other)
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return string(d) > string(other)
}

// Within reports whether d falls inside the inclusive [start, end] window.
func (d Date) Within(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

// Time returns the midnight UTC instant for the date.
func (d Date) Time() (time.Time, error) {
	return time.Parse(dateLayout, string(d))
}

// Value implements driver.Valuer so dates persist as SQL DATE values.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	if _, err := d.Time(); err != nil {
		return nil, err
	}
	return string(d), nil
}

// Scan implements sql.Scanner for DATE, text and timestamp columns.
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = ""
		return nil
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

func (d *Date) scanString(raw string) error {
	if raw == "" {
		*d = ""
		return nil
	}
	if len(raw) > len(dateLayout) {
		raw = raw[:len(dateLayout)]
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON renders the date as a plain YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// UnmarshalJSON accepts a plain YYYY-MM-DD string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		*d = ""
		return nil
	}
	parsed, err := ParseDate(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

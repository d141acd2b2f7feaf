package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"sitebooks-backend/internal/parse"
)

// Date is a calendar date stored at UTC midnight and encoded as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date.
func NewDate(t time.Time) Date {
	return Date{Time: parse.Truncate(t)}
}

// MustDate parses a YYYY-MM-DD literal and panics on error. Intended for tests and seeds.
func MustDate(s string) Date {
	t, err := parse.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return Date{Time: t}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(parse.DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := parse.ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		d.Time = parse.Truncate(v)
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	for _, layout := range []string{parse.DateLayout, "2006-01-02 15:04:05Z07:00", "2006-01-02 15:04:05", time.RFC3339Nano} {
		if len(s) < len(parse.DateLayout) {
			break
		}
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = parse.Truncate(t)
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as date", s)
}

// GormDataType sets the column type.
func (Date) GormDataType() string {
	return "date"
}

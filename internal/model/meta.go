// Package model defines the typed records kept in the store and the schema
// that applies defaults, validates and migrates them at the persistence
// boundary.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Meta carries the fields every stored record has.
type Meta struct {
	ID        int64      `json:"id"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Ref points at another record by id. Zero means no reference. It accepts
// numbers, numeric strings, empty strings and null, since older data stored
// select-box values as strings.
type Ref int64

// Valid reports whether the reference is set.
func (r Ref) Valid() bool { return r > 0 }

// Int64 returns the referenced id.
func (r Ref) Int64() int64 { return int64(r) }

// MarshalJSON writes null for an unset reference.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r <= 0 {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(int64(r), 10)), nil
}

// UnmarshalJSON reads numbers and numeric strings.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*r = 0
			return nil
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("model: invalid reference %s", data)
	}
	*r = Ref(int64(f))
	return nil
}

// Date is a calendar day as entered by the operator, "2006-01-02". Values
// carrying a time part are accepted and compared by their day.
type Date string

const dayLayout = "2006-01-02"

// Day returns the YYYY-MM-DD part.
func (d Date) Day() string {
	s := strings.TrimSpace(string(d))
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	return s
}

// Time parses the day at midnight UTC.
func (d Date) Time() (time.Time, bool) {
	day := d.Day()
	if day == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dayLayout, day)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsZero reports whether no date is set.
func (d Date) IsZero() bool { return d.Day() == "" }

// Within reports whether the day falls inside [from, to]. Empty bounds are open.
func (d Date) Within(from, to Date) bool {
	day := d.Day()
	if day == "" {
		return false
	}
	if !from.IsZero() && day < from.Day() {
		return false
	}
	if !to.IsZero() && day > to.Day() {
		return false
	}
	return true
}

// DateOf formats t as a Date.
func DateOf(t time.Time) Date {
	return Date(t.Format(dayLayout))
}

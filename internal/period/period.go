// Package period models the monthly billing unit, written as YYYY-MM.
package period

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid_period")

const layout = "2006-01"

// Period is a calendar month. The zero value is invalid.
type Period struct {
	Year  int
	Month time.Month
}

func New(year int, month time.Month) (Period, error) {
	if year < 1 || year > 9999 || month < time.January || month > time.December {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Year: year, Month: month}, nil
}

// Parse accepts only the zero-padded YYYY-MM form.
func Parse(raw string) (Period, error) {
	if len(raw) != len(layout) {
		return Period{}, ErrInvalidPeriod
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return New(t.Year(), t.Month())
}

func MustParse(raw string) Period {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Of returns the period containing t in t's location.
func Of(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Previous wraps January back to December of the prior year.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Start returns the first instant of the period in loc.
func (p Period) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
}

func (p Period) End(loc *time.Location) time.Time {
	return p.Next().Start(loc)
}

func (p Period) Contains(t time.Time) bool {
	return p.Year == t.Year() && p.Month == t.Month()
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

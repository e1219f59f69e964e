// Package partition implements the typed partition-key model: parsing,
// ordering, stepping and rendering for the five partition granularities
// a destination table can be keyed by.
package partition

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the closed set of partition granularities a destination table
// can declare.
type Type string

const (
	TypeHour          Type = "HOUR"
	TypeDay           Type = "DAY"
	TypeMonth         Type = "MONTH"
	TypeYear          Type = "YEAR"
	TypeRange         Type = "RANGE"
	TypeIngestionTime Type = "INGESTION_TIME"
)

// Key is a tagged partition value. Exactly one of the typed fields is
// meaningful, selected by Kind. Ordering is total within a Kind and
// undefined across Kinds — callers must not compare keys of different
// Kind.
type Key struct {
	Kind  Type
	Hour  time.Time // truncated to the hour, UTC
	Day   time.Time // truncated to the day, UTC
	Year  int
	Month time.Month
	Range int64
}

// Hour constructs an Hour key, truncating t to the hour in UTC.
func Hour(t time.Time) Key {
	t = t.UTC()
	return Key{Kind: TypeHour, Hour: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)}
}

// Day constructs a Day key, truncating t to the calendar day in UTC.
func Day(t time.Time) Key {
	t = t.UTC()
	return Key{Kind: TypeDay, Day: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MonthKey constructs a Month key.
func MonthKey(year int, month time.Month) Key {
	return Key{Kind: TypeMonth, Year: year, Month: month}
}

// YearKey constructs a Year key.
func YearKey(year int) Key {
	return Key{Kind: TypeYear, Year: year}
}

// RangeKey constructs an integer-range key.
func RangeKey(n int64) Key {
	return Key{Kind: TypeRange, Range: n}
}

// Date returns the calendar date this key falls on, used by VersionDef
// resolution (version_for operates on dates). Range keys have no date
// and return the zero time.
func (k Key) Date() time.Time {
	switch k.Kind {
	case TypeHour:
		return k.Hour
	case TypeDay, TypeIngestionTime:
		return k.Day
	case TypeMonth:
		return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
	case TypeYear:
		return time.Date(k.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

// Decorator renders the short warehouse partition-table decorator, e.g.
// table$20240615 for a Day key.
func (k Key) Decorator() string {
	switch k.Kind {
	case TypeHour:
		return "$" + k.Hour.Format("2006010215")
	case TypeDay, TypeIngestionTime:
		return "$" + k.Day.Format("20060102")
	case TypeMonth:
		return fmt.Sprintf("$%04d%02d", k.Year, int(k.Month))
	case TypeYear:
		return fmt.Sprintf("$%04d", k.Year)
	case TypeRange:
		return fmt.Sprintf("$%d", k.Range)
	default:
		return ""
	}
}

// SQLLiteral renders the typed SQL literal for this key, e.g.
// DATE '2024-06-15'.
func (k Key) SQLLiteral() string {
	switch k.Kind {
	case TypeHour:
		return "TIMESTAMP '" + k.Hour.Format("2006-01-02 15:00:00") + "'"
	case TypeDay, TypeIngestionTime:
		return "DATE '" + k.Day.Format("2006-01-02") + "'"
	case TypeMonth:
		return fmt.Sprintf("DATE '%04d-%02d-01'", k.Year, int(k.Month))
	case TypeYear:
		return fmt.Sprintf("DATE '%04d-01-01'", k.Year)
	case TypeRange:
		return strconv.FormatInt(k.Range, 10)
	default:
		return ""
	}
}

// String renders the canonical external form: YYYY-MM-DDTHH for Hour,
// YYYY-MM-DD for Day, YYYY-MM for Month, YYYY for Year, and the decimal
// integer for Range.
func (k Key) String() string {
	switch k.Kind {
	case TypeHour:
		return k.Hour.Format("2006-01-02T15")
	case TypeDay, TypeIngestionTime:
		return k.Day.Format("2006-01-02")
	case TypeMonth:
		return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
	case TypeYear:
		return fmt.Sprintf("%04d", k.Year)
	case TypeRange:
		return strconv.FormatInt(k.Range, 10)
	default:
		return ""
	}
}

// Equal reports whether two keys denote the same partition. Keys of
// different Kind are never equal.
func (k Key) Equal(other Key) bool {
	if k.Kind != other.Kind {
		return false
	}
	switch k.Kind {
	case TypeHour:
		return k.Hour.Equal(other.Hour)
	case TypeDay, TypeIngestionTime:
		return k.Day.Equal(other.Day)
	case TypeMonth:
		return k.Year == other.Year && k.Month == other.Month
	case TypeYear:
		return k.Year == other.Year
	case TypeRange:
		return k.Range == other.Range
	default:
		return false
	}
}

// Less reports whether k sorts before other. Only meaningful within the
// same Kind; callers comparing across Kinds get an arbitrary but stable
// result based on Kind name.
func (k Key) Less(other Key) bool {
	if k.Kind != other.Kind {
		return k.Kind < other.Kind
	}
	switch k.Kind {
	case TypeHour:
		return k.Hour.Before(other.Hour)
	case TypeDay, TypeIngestionTime:
		return k.Day.Before(other.Day)
	case TypeMonth:
		if k.Year != other.Year {
			return k.Year < other.Year
		}
		return k.Month < other.Month
	case TypeYear:
		return k.Year < other.Year
	case TypeRange:
		return k.Range < other.Range
	default:
		return false
	}
}

// Next advances the key by one unit of its granularity: an hour, a
// calendar day (respecting month/year boundaries), a month (December
// rolls to next January), a year, or +1 for Range. NextBy is the only
// way to step a Range key by more than one.
func (k Key) Next() Key {
	switch k.Kind {
	case TypeHour:
		return Key{Kind: TypeHour, Hour: k.Hour.Add(time.Hour)}
	case TypeDay, TypeIngestionTime:
		return Key{Kind: k.Kind, Day: k.Day.AddDate(0, 0, 1)}
	case TypeMonth:
		if k.Month == time.December {
			return MonthKey(k.Year+1, time.January)
		}
		return MonthKey(k.Year, k.Month+1)
	case TypeYear:
		return YearKey(k.Year + 1)
	case TypeRange:
		return RangeKey(k.Range + 1)
	default:
		return k
	}
}

// NextBy advances a Range key by n. It panics for any other Kind —
// stepping by an arbitrary count is defined only for Range partitions.
func (k Key) NextBy(n int64) Key {
	if k.Kind != TypeRange {
		panic("partition: NextBy is only defined for Range keys")
	}
	return RangeKey(k.Range + n)
}

// Parse parses s as a partition key of the given type. Hour accepts both
// "YYYY-MM-DDTHH" and the full-seconds form "YYYY-MM-DDTHH:MM:SS".
func Parse(s string, t Type) (Key, error) {
	switch t {
	case TypeHour:
		if ts, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			return Hour(ts), nil
		}
		ts, err := time.Parse("2006-01-02T15", s)
		if err != nil {
			return Key{}, fmt.Errorf("partition: invalid hour key %q: %w", s, err)
		}
		return Hour(ts), nil
	case TypeDay, TypeIngestionTime:
		ts, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Key{}, fmt.Errorf("partition: invalid day key %q: %w", s, err)
		}
		return Key{Kind: t, Day: ts}, nil
	case TypeMonth:
		ts, err := time.Parse("2006-01", s)
		if err != nil {
			return Key{}, fmt.Errorf("partition: invalid month key %q: %w", s, err)
		}
		return MonthKey(ts.Year(), ts.Month()), nil
	case TypeYear:
		y, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return Key{}, fmt.Errorf("partition: invalid year key %q: %w", s, err)
		}
		return YearKey(y), nil
	case TypeRange:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Key{}, fmt.Errorf("partition: invalid range key %q: %w", s, err)
		}
		return RangeKey(n), nil
	default:
		return Key{}, fmt.Errorf("partition: unknown partition type %q", t)
	}
}

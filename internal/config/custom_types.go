package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FlexBool is a boolean type that can be unmarshalled from a boolean, a string, or a number.
type FlexBool bool

// UnmarshalYAML implements the yaml.Unmarshaler interface for FlexBool.
func (fb *FlexBool) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!bool":
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		*fb = FlexBool(b)
	case "!!str":
		b, err := strconv.ParseBool(value.Value)
		if err != nil {
			return fmt.Errorf("cannot unmarshal string %q into FlexBool", value.Value)
		}
		*fb = FlexBool(b)
	case "!!int":
		i, err := strconv.Atoi(value.Value)
		if err != nil {
			return err
		}
		*fb = FlexBool(i != 0)
	case "!!float":
		f, err := strconv.ParseFloat(value.Value, 64)
		if err != nil {
			return err
		}
		*fb = FlexBool(f != 0)
	default:
		return fmt.Errorf("cannot unmarshal %s into FlexBool", value.Tag)
	}
	return nil
}

// ClockTime is a time of day written as "HH:MM".
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return ClockTime{}, fmt.Errorf("cannot parse %q as HH:MM", s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes returns minutes after midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for ClockTime.
func (c *ClockTime) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseClockTime(value.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Date is a calendar date written as "YYYY-MM-DD", held as midnight UTC.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("cannot parse %q as YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// MustDate is ParseDate that panics, for literals.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Midnight returns midnight of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Date.
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDate(value.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SymbolPair is two correlated symbols written as a two-element list.
type SymbolPair struct {
	First  string
	Second string
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for SymbolPair.
func (p *SymbolPair) UnmarshalYAML(value *yaml.Node) error {
	var pair []string
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("correlation pair must be a list of two symbols: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("correlation pair must have exactly two symbols, got %d", len(pair))
	}
	*p = SymbolPair{First: strings.ToUpper(pair[0]), Second: strings.ToUpper(pair[1])}
	return nil
}

package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyTitle      = errors.New("empty title")
	ErrInvalidTime     = errors.New("invalid time, expected HH:MM")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD or YYYY-MM-DD HH:MM")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// ISOLayout is the storage layout for exam datetimes: naive local time,
// no embedded offset.
const ISOLayout = "2006-01-02T15:04:05"

var (
	timeRe     = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	dateTimeRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:\s+(\d{2}):(\d{2}))?$`)
)

// ParseNotifyTime validates an "HH:MM" string and returns it zero-padded.
func ParseNotifyTime(s string) (string, error) {
	m := timeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", ErrInvalidTime
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h < 0 || h > 23 || min < 0 || min > 59 {
		return "", ErrInvalidTime
	}
	return fmt.Sprintf("%02d:%02d", h, min), nil
}

// SplitNotifyTime returns the hour and minute of a normalized "HH:MM" string.
func SplitNotifyTime(s string) (hour, minute int, err error) {
	norm, err := ParseNotifyTime(s)
	if err != nil {
		return 0, 0, err
	}
	h, _ := strconv.Atoi(norm[:2])
	m, _ := strconv.Atoi(norm[3:])
	return h, m, nil
}

// ValidateTZ checks that tz names a valid IANA location and returns its
// canonical name.
func ValidateTZ(tz string) (string, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(tz))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	return loc.String(), nil
}

// ParseExamDateTime parses "YYYY-MM-DD" or "YYYY-MM-DD HH:MM" into the naive
// ISO storage form. Date-only input gets defaultTime ("HH:MM") as the time of
// day.
func ParseExamDateTime(s, defaultTime string) (string, error) {
	m := dateTimeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", ErrInvalidDate
	}
	hhmm := defaultTime
	if m[4] != "" {
		hhmm = m[4] + ":" + m[5]
	}
	hour, minute, err := SplitNotifyTime(hhmm)
	if err != nil {
		return "", ErrInvalidDate
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	dt := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components; reject rather than accept
	// e.g. 2026-02-30.
	if dt.Year() != year || int(dt.Month()) != month || dt.Day() != day {
		return "", ErrInvalidDate
	}
	return dt.Format(ISOLayout), nil
}

// ParseISO parses a stored exam datetime. The shorter form without seconds is
// accepted for rows written by older versions.
func ParseISO(iso string) (time.Time, error) {
	if t, err := time.Parse(ISOLayout, iso); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", iso)
}

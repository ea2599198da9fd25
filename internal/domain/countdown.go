package domain

import (
	"fmt"
	"strings"
	"time"
)

// DaysUntil returns the signed whole-day distance between "now" in the given
// timezone and the exam's date component. Time of day is deliberately ignored:
// an exam later today must classify as today, not passed.
func DaysUntil(iso, tz string, now time.Time) (int, error) {
	examDT, err := ParseISO(iso)
	if err != nil {
		return 0, err
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	localNow := now.In(loc)

	examDate := time.Date(examDT.Year(), examDT.Month(), examDT.Day(), 0, 0, 0, 0, time.UTC)
	todayDate := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, time.UTC)
	return int(examDate.Sub(todayDate).Hours() / 24), nil
}

// CountdownPhrase renders a day count as the user-facing countdown wording.
func CountdownPhrase(days int) string {
	switch {
	case days < 0:
		return "passed"
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

// ReminderMessage builds the daily reminder text for a user's exams, listing
// only exams whose date is today or later. ok is false when nothing qualifies.
func ReminderMessage(exams []Exam, tz string, now time.Time) (text string, ok bool) {
	var lines []string
	for _, e := range exams {
		days, err := DaysUntil(e.DateTime, tz, now)
		if err != nil {
			continue
		}
		if days >= 0 {
			lines = append(lines, fmt.Sprintf("- %s — %s", e.Title, CountdownPhrase(days)))
		}
	}
	if len(lines) == 0 {
		return "", false
	}
	return "📚 Exam reminder:\n" + strings.Join(lines, "\n"), true
}

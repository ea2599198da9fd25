package domain

import (
	"strings"
	"testing"
	"time"
)

// helper: a moment expressed in a given zone, returned as UTC.
func atLocal(t *testing.T, tz string, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc).UTC()
}

func TestDaysUntil_DateOnlyClassification(t *testing.T) {
	// An exam at 23:59 today must classify as today even at 00:01, never as
	// passed.
	now := atLocal(t, "Europe/Rome", 2026, time.March, 10, 0, 1)
	days, err := DaysUntil("2026-03-10T23:59:00", "Europe/Rome", now)
	if err != nil {
		t.Fatal(err)
	}
	if days != 0 {
		t.Fatalf("want 0 (today), got %d", days)
	}
}

func TestDaysUntil_Signed(t *testing.T) {
	now := atLocal(t, "Europe/Rome", 2026, time.March, 10, 12, 0)
	cases := []struct {
		iso  string
		want int
	}{
		{"2026-03-09T09:00:00", -1},
		{"2026-03-10T09:00:00", 0},
		{"2026-03-11T09:00:00", 1},
		{"2026-03-17T09:00:00", 7},
	}
	for _, c := range cases {
		days, err := DaysUntil(c.iso, "Europe/Rome", now)
		if err != nil {
			t.Fatal(err)
		}
		if days != c.want {
			t.Errorf("DaysUntil(%s) = %d, want %d", c.iso, days, c.want)
		}
	}
}

func TestDaysUntil_UsesUserTimezone(t *testing.T) {
	// 23:30 on Mar 10 in Rome is already Mar 11 in Tokyo; the same instant
	// classifies differently per user.
	now := atLocal(t, "Europe/Rome", 2026, time.March, 10, 23, 30)

	days, err := DaysUntil("2026-03-11T09:00:00", "Europe/Rome", now)
	if err != nil {
		t.Fatal(err)
	}
	if days != 1 {
		t.Fatalf("Rome: want 1 (tomorrow), got %d", days)
	}

	days, err = DaysUntil("2026-03-11T09:00:00", "Asia/Tokyo", now)
	if err != nil {
		t.Fatal(err)
	}
	if days != 0 {
		t.Fatalf("Tokyo: want 0 (today), got %d", days)
	}
}

func TestCountdownPhrase(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{-3, "passed"},
		{0, "today"},
		{1, "tomorrow"},
		{2, "2 days left"},
		{30, "30 days left"},
	}
	for _, c := range cases {
		if got := CountdownPhrase(c.days); got != c.want {
			t.Errorf("CountdownPhrase(%d) = %q, want %q", c.days, got, c.want)
		}
	}
}

func TestReminderMessage_RomeScenario(t *testing.T) {
	exams := []Exam{
		{UserID: 1, UserExamID: 1, Title: "Math", DateTime: "2026-01-15T09:00:00"},
	}
	now := atLocal(t, "Europe/Rome", 2026, time.January, 14, 9, 0)

	text, ok := ReminderMessage(exams, "Europe/Rome", now)
	if !ok {
		t.Fatal("want a message")
	}
	if !strings.Contains(text, "Math — tomorrow") {
		t.Fatalf("want %q in message, got %q", "Math — tomorrow", text)
	}
}

func TestReminderMessage_FiltersPassedExams(t *testing.T) {
	exams := []Exam{
		{Title: "Old", DateTime: "2026-01-01T09:00:00"},
		{Title: "Soon", DateTime: "2026-01-20T09:00:00"},
	}
	now := atLocal(t, "Europe/Rome", 2026, time.January, 14, 9, 0)

	text, ok := ReminderMessage(exams, "Europe/Rome", now)
	if !ok {
		t.Fatal("want a message")
	}
	if strings.Contains(text, "Old") {
		t.Fatalf("passed exam must be excluded, got %q", text)
	}
	if !strings.Contains(text, "Soon") {
		t.Fatalf("upcoming exam missing, got %q", text)
	}
}

func TestReminderMessage_EmptyWhenAllPassed(t *testing.T) {
	exams := []Exam{{Title: "Old", DateTime: "2026-01-01T09:00:00"}}
	now := atLocal(t, "Europe/Rome", 2026, time.June, 1, 9, 0)

	if _, ok := ReminderMessage(exams, "Europe/Rome", now); ok {
		t.Fatal("want no message when every exam has passed")
	}
	if _, ok := ReminderMessage(nil, "Europe/Rome", now); ok {
		t.Fatal("want no message for zero exams")
	}
}

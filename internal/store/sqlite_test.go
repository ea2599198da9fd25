package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/MahyarPz/Exam-Countdown-Bot/internal/config"
	"github.com/MahyarPz/Exam-Countdown-Bot/internal/domain"
)

var testDefaults = Defaults{Timezone: "Europe/Rome", NotifyTime: "09:00"}

func openTestStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), testDefaults, zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetOrCreateUser_CreatesWithDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, err := s.GetOrCreateUser(ctx, 42, "Ada", "ada")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != 42 || u.Timezone != "Europe/Rome" || u.NotifyTime != "09:00" {
		t.Fatalf("unexpected defaults: %+v", u)
	}
	if u.DisplayName != "Ada" || u.Handle != "ada" {
		t.Fatalf("name/handle not stored: %+v", u)
	}
}

func TestGetOrCreateUser_IdempotentAndNeverClobbers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetOrCreateUser(ctx, 42, "Ada", "ada"); err != nil {
		t.Fatal(err)
	}
	// Blank caller input must not clobber known values.
	u, err := s.GetOrCreateUser(ctx, 42, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if u.DisplayName != "Ada" || u.Handle != "ada" {
		t.Fatalf("blank input clobbered name/handle: %+v", u)
	}
	// A new non-empty value does update.
	u, err = s.GetOrCreateUser(ctx, 42, "Ada L.", "")
	if err != nil {
		t.Fatal(err)
	}
	if u.DisplayName != "Ada L." || u.Handle != "ada" {
		t.Fatalf("update went wrong: %+v", u)
	}
}

func TestUpdateUserPreferences(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetOrCreateUser(ctx, 1, "", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateUserTimezone(ctx, 1, "Asia/Tokyo"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateUserNotifyTime(ctx, 1, "07:30"); err != nil {
		t.Fatal(err)
	}
	u, err := s.GetOrCreateUser(ctx, 1, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if u.Timezone != "Asia/Tokyo" || u.NotifyTime != "07:30" {
		t.Fatalf("preferences not updated: %+v", u)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdateUserTimezone(context.Background(), 999, "UTC")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAddExam_SequentialPerUserIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if _, err := s.GetOrCreateUser(ctx, id, "", ""); err != nil {
			t.Fatal(err)
		}
	}

	// Ids start at 1 per user and increase by 1, independently of other
	// users' counters.
	for i := 1; i <= 3; i++ {
		got, err := s.AddExam(ctx, 1, "exam", "2026-06-01T09:00:00")
		if err != nil {
			t.Fatal(err)
		}
		if got != i {
			t.Fatalf("user 1: want id %d, got %d", i, got)
		}
	}
	got, err := s.AddExam(ctx, 2, "other", "2026-06-01T09:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Fatalf("user 2 counter not independent: got %d", got)
	}
}

func TestAddExam_ReusesHighestIDAfterDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetOrCreateUser(ctx, 1, "", ""); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.AddExam(ctx, 1, "exam", "2026-06-01T09:00:00"); err != nil {
			t.Fatal(err)
		}
	}
	if ok, err := s.DeleteExam(ctx, 3, 1); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	// The running counter is max(existing)+1, so the freed top id comes back.
	got, err := s.AddExam(ctx, 1, "again", "2026-06-01T09:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Fatalf("want reused id 3, got %d", got)
	}
}

func TestAddExam_EmptyTitle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.GetOrCreateUser(ctx, 1, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddExam(ctx, 1, "   ", "2026-06-01T09:00:00"); !errors.Is(err, domain.ErrEmptyTitle) {
		t.Fatalf("want ErrEmptyTitle, got %v", err)
	}
}

func TestGetUserExams_OrderedByDate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.GetOrCreateUser(ctx, 1, "", ""); err != nil {
		t.Fatal(err)
	}
	// Inserted out of date order on purpose.
	for _, e := range []struct{ title, iso string }{
		{"Late", "2026-09-01T09:00:00"},
		{"Early", "2026-02-01T09:00:00"},
		{"Mid", "2026-05-01T09:00:00"},
	} {
		if _, err := s.AddExam(ctx, 1, e.title, e.iso); err != nil {
			t.Fatal(err)
		}
	}
	exams, err := s.GetUserExams(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Early", "Mid", "Late"}
	if len(exams) != len(want) {
		t.Fatalf("want %d exams, got %d", len(want), len(exams))
	}
	for i, w := range want {
		if exams[i].Title != w {
			t.Fatalf("position %d: want %q, got %q", i, w, exams[i].Title)
		}
	}
}

func TestDeleteExam_ScopedToOwner(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		if _, err := s.GetOrCreateUser(ctx, id, "", ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.AddExam(ctx, 1, "Math", "2026-06-01T09:00:00"); err != nil {
		t.Fatal(err)
	}

	// Wrong owner: no-op, reported as false.
	ok, err := s.DeleteExam(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("cross-user delete must report false")
	}
	exams, err := s.GetUserExams(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(exams) != 1 {
		t.Fatal("row must survive a cross-user delete")
	}

	// Correct owner: removed.
	ok, err = s.DeleteExam(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("owner delete must report true")
	}
	exams, err = s.GetUserExams(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(exams) != 0 {
		t.Fatal("row must be gone after owner delete")
	}
}

func TestUpdateExam_PartialUpdates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.GetOrCreateUser(ctx, 1, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddExam(ctx, 1, "Math", "2026-06-01T09:00:00"); err != nil {
		t.Fatal(err)
	}

	newTitle := "Math Analysis"
	ok, err := s.UpdateExam(ctx, 1, 1, &newTitle, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("update must match the row")
	}
	e, err := s.GetExamByID(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if e == nil || e.Title != "Math Analysis" || e.DateTime != "2026-06-01T09:00:00" {
		t.Fatalf("title-only update wrong: %+v", e)
	}

	newISO := "2026-07-01T14:00:00"
	if _, err := s.UpdateExam(ctx, 1, 1, nil, &newISO); err != nil {
		t.Fatal(err)
	}
	e, err = s.GetExamByID(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if e == nil || e.Title != "Math Analysis" || e.DateTime != newISO {
		t.Fatalf("date-only update wrong: %+v", e)
	}

	// Wrong owner never matches.
	ok, err = s.UpdateExam(ctx, 1, 2, &newTitle, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("cross-user update must report false")
	}
}

func TestGetExamByID_AbsentIsNil(t *testing.T) {
	s := openTestStore(t)
	e, err := s.GetExamByID(context.Background(), 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	if e != nil {
		t.Fatalf("want nil for absent exam, got %+v", e)
	}
}

func TestGetAllUsers_OrderedByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, id := range []int64{30, 10, 20} {
		if _, err := s.GetOrCreateUser(ctx, id, "", ""); err != nil {
			t.Fatal(err)
		}
	}
	users, err := s.GetAllUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{10, 20, 30}
	if len(users) != len(want) {
		t.Fatalf("want %d users, got %d", len(want), len(users))
	}
	for i, w := range want {
		if users[i].ID != w {
			t.Fatalf("position %d: want %d, got %d", i, w, users[i].ID)
		}
	}
}

// TestMigration_BackfillsLegacySchema simulates a database created by an
// older version: no user_exam_id column, historical exam rows. Opening the
// store must add the column and assign sequential per-user ids in insertion
// order.
func TestMigration_BackfillsLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	ctx := context.Background()

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	stmts := []string{
		`CREATE TABLE users (
			user_id INTEGER PRIMARY KEY,
			timezone TEXT NOT NULL DEFAULT 'Europe/Rome',
			notify_time TEXT NOT NULL DEFAULT '09:00'
		)`,
		`CREATE TABLE exams (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			exam_datetime_iso TEXT NOT NULL
		)`,
		`INSERT INTO users (user_id) VALUES (1), (2)`,
		`INSERT INTO exams (user_id, title, exam_datetime_iso) VALUES
			(1, 'A', '2026-03-01T09:00:00'),
			(2, 'X', '2026-03-02T09:00:00'),
			(1, 'B', '2026-03-03T09:00:00')`,
	}
	for _, stmt := range stmts {
		if _, err := raw.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	if err := raw.Close(); err != nil {
		t.Fatal(err)
	}

	s, err := OpenSQLite(ctx, path, testDefaults, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	byTitle := map[string]int{}
	for _, userID := range []int64{1, 2} {
		exams, err := s.GetUserExams(ctx, userID)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range exams {
			byTitle[e.Title] = e.UserExamID
		}
	}
	if byTitle["A"] != 1 || byTitle["B"] != 2 {
		t.Fatalf("user 1 backfill wrong: %v", byTitle)
	}
	if byTitle["X"] != 1 {
		t.Fatalf("user 2 backfill wrong: %v", byTitle)
	}

	// And the counter continues after the backfilled rows.
	next, err := s.AddExam(ctx, 1, "C", "2026-03-04T09:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if next != 3 {
		t.Fatalf("want next id 3 after backfill, got %d", next)
	}
}

// TestOpen_FirestoreFallback verifies the selection chain: firestore enabled
// but unconfigured degrades to the embedded relational backend, and the
// store remains usable.
func TestOpen_FirestoreFallback(t *testing.T) {
	cfg := config.Config{
		UseFirestore:      true, // no project id, no credentials
		DBPath:            filepath.Join(t.TempDir(), "fallback.db"),
		DefaultTimezone:   "Europe/Rome",
		DefaultNotifyTime: "09:00",
	}
	s, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("selection must not fail: %v", err)
	}
	defer s.Close()

	u, err := s.GetOrCreateUser(context.Background(), 1, "", "")
	if err != nil {
		t.Fatalf("fallback store unusable: %v", err)
	}
	if u.Timezone != "Europe/Rome" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

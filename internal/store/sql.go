package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver (pure Go)

	"github.com/MahyarPz/Exam-Countdown-Bot/internal/domain"
)

// sqlStore implements Store on database/sql; the dialect supplies DDL and
// placeholder style for SQLite and PostgreSQL.
type sqlStore struct {
	db       *sql.DB
	d        dialect
	defaults Defaults
	log      *zap.Logger
}

// OpenSQLite opens (or creates) the embedded SQLite database at path and
// bootstraps its schema.
func OpenSQLite(ctx context.Context, path string, defaults Defaults, log *zap.Logger) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: apply pragmas: %v", ErrUnavailable, err)
		}
	}

	s := &sqlStore{db: db, d: sqliteDialect, defaults: defaults, log: log}
	s.ensureSchema(ctx)
	return s, nil
}

// OpenPostgres opens a PostgreSQL connection via the pgx stdlib driver and
// bootstraps its schema. sql.Open does not dial, so an unreachable server
// surfaces on the first operation rather than at selection time.
func OpenPostgres(ctx context.Context, databaseURL string, defaults Defaults, log *zap.Logger) (Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s := &sqlStore{db: db, d: postgresDialect, defaults: defaults, log: log}
	s.ensureSchema(ctx)
	return s, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) GetOrCreateUser(ctx context.Context, userID int64, displayName, handle string) (domain.User, error) {
	u, err := s.getUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx, s.d.rebind(`
			INSERT INTO users (user_id, timezone, notify_time, display_name, handle)
			VALUES (?, ?, ?, ?, ?)`),
			userID, s.defaults.Timezone, s.defaults.NotifyTime, displayName, handle,
		)
		if err != nil {
			return domain.User{}, err
		}
		return s.getUser(ctx, userID)
	}
	if err != nil {
		return domain.User{}, err
	}

	// Refresh name/handle only when the caller actually supplied them.
	if (displayName != "" && displayName != u.DisplayName) || (handle != "" && handle != u.Handle) {
		if displayName == "" {
			displayName = u.DisplayName
		}
		if handle == "" {
			handle = u.Handle
		}
		_, err = s.db.ExecContext(ctx, s.d.rebind(`
			UPDATE users SET display_name = ?, handle = ? WHERE user_id = ?`),
			displayName, handle, userID,
		)
		if err != nil {
			return domain.User{}, err
		}
		u.DisplayName = displayName
		u.Handle = handle
	}
	return u, nil
}

func (s *sqlStore) getUser(ctx context.Context, userID int64) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, s.d.rebind(`
		SELECT user_id, timezone, notify_time, display_name, handle
		FROM users WHERE user_id = ?`), userID,
	).Scan(&u.ID, &u.Timezone, &u.NotifyTime, &u.DisplayName, &u.Handle)
	return u, err
}

func (s *sqlStore) UpdateUserTimezone(ctx context.Context, userID int64, tz string) error {
	return s.updateUserField(ctx, userID, "timezone", tz)
}

func (s *sqlStore) UpdateUserNotifyTime(ctx context.Context, userID int64, hhmm string) error {
	return s.updateUserField(ctx, userID, "notify_time", hhmm)
}

func (s *sqlStore) updateUserField(ctx context.Context, userID int64, column, value string) error {
	res, err := s.db.ExecContext(ctx,
		s.d.rebind(fmt.Sprintf(`UPDATE users SET %s = ? WHERE user_id = ?`, column)),
		value, userID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// AddExam assigns max(user_exam_id)+1 for the user and inserts, in one
// transaction. Deleting the highest-numbered exam means its id is reused by
// the next insert.
func (s *sqlStore) AddExam(ctx context.Context, userID int64, title, isoDateTime string) (int, error) {
	if strings.TrimSpace(title) == "" {
		return 0, domain.ErrEmptyTitle
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	err = tx.QueryRowContext(ctx, s.d.rebind(`
		SELECT COALESCE(MAX(user_exam_id), 0) + 1 FROM exams WHERE user_id = ?`), userID,
	).Scan(&next)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, s.d.rebind(`
		INSERT INTO exams (user_id, user_exam_id, title, exam_datetime_iso)
		VALUES (?, ?, ?, ?)`),
		userID, next, title, isoDateTime,
	)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *sqlStore) GetUserExams(ctx context.Context, userID int64) ([]domain.Exam, error) {
	rows, err := s.db.QueryContext(ctx, s.d.rebind(`
		SELECT user_id, user_exam_id, title, exam_datetime_iso
		FROM exams WHERE user_id = ?
		ORDER BY exam_datetime_iso ASC`), userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []domain.Exam
	for rows.Next() {
		var e domain.Exam
		if err := rows.Scan(&e.UserID, &e.UserExamID, &e.Title, &e.DateTime); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

func (s *sqlStore) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, timezone, notify_time, display_name, handle
		FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Timezone, &u.NotifyTime, &u.DisplayName, &u.Handle); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *sqlStore) DeleteExam(ctx context.Context, userExamID int, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`
		DELETE FROM exams WHERE user_exam_id = ? AND user_id = ?`),
		userExamID, userID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqlStore) GetExamByID(ctx context.Context, userExamID int, userID int64) (*domain.Exam, error) {
	var e domain.Exam
	err := s.db.QueryRowContext(ctx, s.d.rebind(`
		SELECT user_id, user_exam_id, title, exam_datetime_iso
		FROM exams WHERE user_exam_id = ? AND user_id = ?`),
		userExamID, userID,
	).Scan(&e.UserID, &e.UserExamID, &e.Title, &e.DateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *sqlStore) UpdateExam(ctx context.Context, userExamID int, userID int64, title, isoDateTime *string) (bool, error) {
	var (
		sets []string
		args []any
	)
	if title != nil {
		if strings.TrimSpace(*title) == "" {
			return false, domain.ErrEmptyTitle
		}
		sets = append(sets, "title = ?")
		args = append(args, *title)
	}
	if isoDateTime != nil {
		sets = append(sets, "exam_datetime_iso = ?")
		args = append(args, *isoDateTime)
	}
	if len(sets) == 0 {
		exam, err := s.GetExamByID(ctx, userExamID, userID)
		return exam != nil, err
	}
	args = append(args, userExamID, userID)

	res, err := s.db.ExecContext(ctx, s.d.rebind(fmt.Sprintf(`
		UPDATE exams SET %s WHERE user_exam_id = ? AND user_id = ?`,
		strings.Join(sets, ", "))),
		args...,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

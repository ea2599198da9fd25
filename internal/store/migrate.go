package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ensureSchema bootstraps the relational schema and migrates older layouts.
// Failures are logged and swallowed: running against a slightly stale schema
// beats refusing to start.
func (s *sqlStore) ensureSchema(ctx context.Context) {
	for _, ddl := range []string{s.d.createUsers, s.d.createExams} {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			s.log.Warn("schema bootstrap failed, continuing anyway",
				zap.String("dialect", s.d.name), zap.Error(err))
			return
		}
	}

	if err := s.ensureUserColumns(ctx); err != nil {
		s.log.Warn("user column migration failed, continuing anyway", zap.Error(err))
	}
	if err := s.ensureUserExamID(ctx); err != nil {
		s.log.Warn("user_exam_id migration failed, continuing anyway", zap.Error(err))
	}
}

// ensureUserColumns adds the display_name/handle columns to users tables
// created before they existed.
func (s *sqlStore) ensureUserColumns(ctx context.Context) error {
	for _, col := range []string{"display_name", "handle"} {
		ok, err := s.hasColumn(ctx, "users", col)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		s.log.Info("adding column to users table", zap.String("column", col))
		ddl := fmt.Sprintf(`ALTER TABLE users ADD COLUMN %s TEXT NOT NULL DEFAULT ''`, col)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

// ensureUserExamID adds the per-user exam id column if an older schema lacks
// it, backfills historical rows, and installs the per-user unique index.
// Index creation is best-effort.
func (s *sqlStore) ensureUserExamID(ctx context.Context) error {
	ok, err := s.hasColumn(ctx, "exams", "user_exam_id")
	if err != nil {
		return err
	}
	if !ok {
		s.log.Info("adding user_exam_id column to exams table")
		if _, err := s.db.ExecContext(ctx, s.d.alterAddColumn); err != nil {
			return err
		}
	}

	if err := s.backfillUserExamID(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.d.createIndex); err != nil {
		// Tolerated: the index may already exist under a concurrent or
		// partially migrated schema.
		s.log.Debug("unique index creation failed", zap.Error(err))
	}
	return nil
}

func (s *sqlStore) hasColumn(ctx context.Context, table, column string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.d.rebind(s.d.hasColumn), table, column).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// backfillUserExamID assigns sequential per-user ids, ordered by internal
// insertion id, to every historical exam row where user_exam_id is null.
func (s *sqlStore) backfillUserExamID(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM exams WHERE user_exam_id IS NULL`)
	if err != nil {
		return err
	}
	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		userIDs = append(userIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	s.log.Info("backfilling user_exam_id", zap.Int("users", len(userIDs)))

	for _, userID := range userIDs {
		rows, err := s.db.QueryContext(ctx, s.d.rebind(`
			SELECT id FROM exams WHERE user_id = ? AND user_exam_id IS NULL ORDER BY id`), userID)
		if err != nil {
			return err
		}
		var examIDs []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			examIDs = append(examIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for i, examID := range examIDs {
			_, err := s.db.ExecContext(ctx, s.d.rebind(`
				UPDATE exams SET user_exam_id = ? WHERE id = ?`), i+1, examID)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

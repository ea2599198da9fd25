// Package store provides the storage port for users and exams, satisfied by
// an embedded SQLite backend, a PostgreSQL backend, and a Firestore backend.
package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/MahyarPz/Exam-Countdown-Bot/internal/config"
	"github.com/MahyarPz/Exam-Countdown-Bot/internal/domain"
)

var (
	// ErrNotFound reports an operation scoped to a user that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable reports a backend that cannot be reached or is
	// misconfigured.
	ErrUnavailable = errors.New("storage backend unavailable")
)

// Defaults are applied to users created lazily on first interaction.
type Defaults struct {
	Timezone   string
	NotifyTime string
}

// Store is the backend-agnostic contract for reading and writing user and
// exam records. All implementations must be safe for concurrent use.
type Store interface {
	// GetOrCreateUser returns the user, inserting one with defaults if
	// absent. A non-empty displayName/handle updates the stored value;
	// empty inputs never clobber previously known values.
	GetOrCreateUser(ctx context.Context, userID int64, displayName, handle string) (domain.User, error)
	UpdateUserTimezone(ctx context.Context, userID int64, tz string) error
	UpdateUserNotifyTime(ctx context.Context, userID int64, hhmm string) error

	// AddExam assigns the next sequential per-user exam id and inserts.
	AddExam(ctx context.Context, userID int64, title, isoDateTime string) (int, error)
	// GetUserExams returns the user's exams ordered by exam datetime
	// ascending.
	GetUserExams(ctx context.Context, userID int64) ([]domain.Exam, error)
	// GetAllUsers returns every user ordered by user id.
	GetAllUsers(ctx context.Context) ([]domain.User, error)
	// DeleteExam removes the exam only if it belongs to userID and reports
	// whether a row was actually removed.
	DeleteExam(ctx context.Context, userExamID int, userID int64) (bool, error)
	GetExamByID(ctx context.Context, userExamID int, userID int64) (*domain.Exam, error)
	// UpdateExam applies a partial update of title and/or datetime, scoped
	// to the owner. Nil fields are left unchanged.
	UpdateExam(ctx context.Context, userExamID int, userID int64, title, isoDateTime *string) (bool, error)

	Close() error
}

// Open selects and initializes a backend. The chain is decided once at
// startup: Firestore when enabled and minimally configured, falling back to
// PostgreSQL when DATABASE_URL is set, otherwise the embedded SQLite file.
// A broken Firestore configuration degrades to the relational chain instead
// of aborting startup.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (Store, error) {
	defaults := Defaults{Timezone: cfg.DefaultTimezone, NotifyTime: cfg.DefaultNotifyTime}

	if cfg.UseFirestore {
		if cfg.FirebaseProjectID == "" || cfg.GoogleCredentials == "" {
			log.Warn("firestore enabled but not fully configured, falling back to relational storage",
				zap.Bool("have_project_id", cfg.FirebaseProjectID != ""),
				zap.Bool("have_credentials", cfg.GoogleCredentials != ""),
			)
		} else {
			fs, err := OpenFirestore(ctx, cfg.FirebaseProjectID, cfg.GoogleCredentials, defaults, log)
			if err != nil {
				log.Warn("firestore initialization failed, falling back to relational storage", zap.Error(err))
			} else {
				log.Info("using firestore backend", zap.String("project_id", cfg.FirebaseProjectID))
				return fs, nil
			}
		}
	}

	if cfg.DatabaseURL != "" {
		s, err := OpenPostgres(ctx, cfg.DatabaseURL, defaults, log)
		if err != nil {
			return nil, err
		}
		log.Info("using postgresql backend")
		return s, nil
	}

	s, err := OpenSQLite(ctx, cfg.DBPath, defaults, log)
	if err != nil {
		return nil, err
	}
	log.Info("using sqlite backend", zap.String("path", cfg.DBPath))
	return s, nil
}

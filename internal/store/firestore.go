package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MahyarPz/Exam-Countdown-Bot/internal/domain"
)

// firestoreStore implements Store on a per-user document hierarchy:
// users/{user_id} documents, each with an "exams" subcollection keyed by the
// per-user exam id. The client is a long-lived singleton created once at
// selection time.
type firestoreStore struct {
	client   *firestore.Client
	defaults Defaults
	log      *zap.Logger
}

type userDoc struct {
	UserID      int64  `firestore:"user_id"`
	Timezone    string `firestore:"timezone"`
	NotifyTime  string `firestore:"notify_time"`
	DisplayName string `firestore:"display_name"`
	Handle      string `firestore:"handle"`
}

type examDoc struct {
	UserID     int64  `firestore:"user_id"`
	UserExamID int    `firestore:"user_exam_id"`
	Title      string `firestore:"title"`
	DateTime   string `firestore:"exam_datetime_iso"`
}

// OpenFirestore initializes the Firestore client. Credentials are accepted as
// either a service-account file path or the JSON blob itself.
func OpenFirestore(ctx context.Context, projectID, credentials string, defaults Defaults, log *zap.Logger) (Store, error) {
	var opt option.ClientOption
	if strings.HasPrefix(strings.TrimSpace(credentials), "{") {
		opt = option.WithCredentialsJSON([]byte(credentials))
	} else {
		opt = option.WithCredentialsFile(credentials)
	}

	client, err := firestore.NewClient(ctx, projectID, opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &firestoreStore{client: client, defaults: defaults, log: log}, nil
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}

func (s *firestoreStore) userRef(userID int64) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(strconv.FormatInt(userID, 10))
}

func (s *firestoreStore) examRef(userID int64, userExamID int) *firestore.DocumentRef {
	return s.userRef(userID).Collection("exams").Doc(strconv.Itoa(userExamID))
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *firestoreStore) GetOrCreateUser(ctx context.Context, userID int64, displayName, handle string) (domain.User, error) {
	ref := s.userRef(userID)
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		doc := userDoc{
			UserID:      userID,
			Timezone:    s.defaults.Timezone,
			NotifyTime:  s.defaults.NotifyTime,
			DisplayName: displayName,
			Handle:      handle,
		}
		if _, err := ref.Set(ctx, doc); err != nil {
			return domain.User{}, err
		}
		s.log.Info("created new user", zap.Int64("user_id", userID))
		return userFromDoc(doc), nil
	}
	if err != nil {
		return domain.User{}, err
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.User{}, err
	}

	var updates []firestore.Update
	if displayName != "" && displayName != doc.DisplayName {
		updates = append(updates, firestore.Update{Path: "display_name", Value: displayName})
		doc.DisplayName = displayName
	}
	if handle != "" && handle != doc.Handle {
		updates = append(updates, firestore.Update{Path: "handle", Value: handle})
		doc.Handle = handle
	}
	if len(updates) > 0 {
		if _, err := ref.Update(ctx, updates); err != nil {
			return domain.User{}, err
		}
	}
	return userFromDoc(doc), nil
}

func userFromDoc(doc userDoc) domain.User {
	return domain.User{
		ID:          doc.UserID,
		Timezone:    doc.Timezone,
		NotifyTime:  doc.NotifyTime,
		DisplayName: doc.DisplayName,
		Handle:      doc.Handle,
	}
}

func (s *firestoreStore) UpdateUserTimezone(ctx context.Context, userID int64, tz string) error {
	return s.updateUserField(ctx, userID, "timezone", tz)
}

func (s *firestoreStore) UpdateUserNotifyTime(ctx context.Context, userID int64, hhmm string) error {
	return s.updateUserField(ctx, userID, "notify_time", hhmm)
}

func (s *firestoreStore) updateUserField(ctx context.Context, userID int64, path, value string) error {
	_, err := s.userRef(userID).Update(ctx, []firestore.Update{{Path: path, Value: value}})
	if isNotFound(err) {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return err
}

func (s *firestoreStore) AddExam(ctx context.Context, userID int64, title, isoDateTime string) (int, error) {
	if strings.TrimSpace(title) == "" {
		return 0, domain.ErrEmptyTitle
	}

	// Next id is max(existing)+1 over the user's subcollection.
	maxID := 0
	iter := s.userRef(userID).Collection("exams").Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, err
		}
		var doc examDoc
		if err := snap.DataTo(&doc); err != nil {
			return 0, err
		}
		if doc.UserExamID > maxID {
			maxID = doc.UserExamID
		}
	}

	next := maxID + 1
	doc := examDoc{UserID: userID, UserExamID: next, Title: title, DateTime: isoDateTime}
	if _, err := s.examRef(userID, next).Set(ctx, doc); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *firestoreStore) GetUserExams(ctx context.Context, userID int64) ([]domain.Exam, error) {
	iter := s.userRef(userID).Collection("exams").
		OrderBy("exam_datetime_iso", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var exams []domain.Exam
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var doc examDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		exams = append(exams, domain.Exam{
			UserID:     doc.UserID,
			UserExamID: doc.UserExamID,
			Title:      doc.Title,
			DateTime:   doc.DateTime,
		})
	}
	return exams, nil
}

func (s *firestoreStore) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	iter := s.client.Collection("users").OrderBy("user_id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var users []domain.User
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var doc userDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		users = append(users, userFromDoc(doc))
	}
	return users, nil
}

func (s *firestoreStore) DeleteExam(ctx context.Context, userExamID int, userID int64) (bool, error) {
	ref := s.examRef(userID, userExamID)
	// Delete on a missing document succeeds in Firestore; check existence
	// first so cross-user deletes report false instead of silently passing.
	_, err := ref.Get(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *firestoreStore) GetExamByID(ctx context.Context, userExamID int, userID int64) (*domain.Exam, error) {
	snap, err := s.examRef(userID, userExamID).Get(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc examDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return &domain.Exam{
		UserID:     doc.UserID,
		UserExamID: doc.UserExamID,
		Title:      doc.Title,
		DateTime:   doc.DateTime,
	}, nil
}

func (s *firestoreStore) UpdateExam(ctx context.Context, userExamID int, userID int64, title, isoDateTime *string) (bool, error) {
	ref := s.examRef(userID, userExamID)
	_, err := ref.Get(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var updates []firestore.Update
	if title != nil {
		if strings.TrimSpace(*title) == "" {
			return false, domain.ErrEmptyTitle
		}
		updates = append(updates, firestore.Update{Path: "title", Value: *title})
	}
	if isoDateTime != nil {
		updates = append(updates, firestore.Update{Path: "exam_datetime_iso", Value: *isoDateTime})
	}
	if len(updates) == 0 {
		return true, nil
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		return false, err
	}
	return true, nil
}

// Package schedule owns the per-user recurring reminder jobs: an in-process
// registry of cron entries keyed by user id, and the dispatcher each entry
// invokes at fire time.
package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/MahyarPz/Exam-Countdown-Bot/internal/domain"
	"github.com/MahyarPz/Exam-Countdown-Bot/internal/store"
)

// fastSpec fires every minute for manual testing; it ignores the user's
// notify time and timezone entirely.
const fastSpec = "@every 1m"

// Registry maps each user to at most one live recurring cron entry.
// Entries are ephemeral: they are rebuilt from durable user records on every
// process start and replaced reactively on preference changes.
type Registry struct {
	cron       *cron.Cron
	store      store.Store
	dispatcher *Dispatcher
	log        *zap.Logger
	fastMode   bool

	mu      sync.Mutex
	entries map[int64]cron.EntryID
}

// NewRegistry creates an empty registry. fastMode swaps daily triggers for
// the fixed debug interval.
func NewRegistry(st store.Store, dispatcher *Dispatcher, log *zap.Logger, fastMode bool) *Registry {
	return &Registry{
		cron:       cron.New(),
		store:      st,
		dispatcher: dispatcher,
		log:        log,
		fastMode:   fastMode,
		entries:    make(map[int64]cron.EntryID),
	}
}

// Start begins firing scheduled entries.
func (r *Registry) Start() { r.cron.Start() }

// Stop cancels all future fires; in-flight dispatches are not interrupted.
func (r *Registry) Stop() { r.cron.Stop() }

// Install cancels any existing entry for the user and registers a new
// recurring trigger firing daily at the given local wall-clock time in the
// given zone. The timezone database handles DST transitions.
func (r *Registry) Install(userID int64, hhmm, tz string) error {
	spec := fastSpec
	if !r.fastMode {
		hour, minute, err := domain.SplitNotifyTime(hhmm)
		if err != nil {
			return err
		}
		if _, err := domain.ValidateTZ(tz); err != nil {
			return err
		}
		spec = fmt.Sprintf("CRON_TZ=%s %d %d * * *", tz, minute, hour)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.entries[userID]; ok {
		r.cron.Remove(id)
		delete(r.entries, userID)
	}

	id, err := r.cron.AddFunc(spec, func() {
		r.dispatcher.Dispatch(context.Background(), userID)
	})
	if err != nil {
		return fmt.Errorf("schedule user %d: %w", userID, err)
	}
	r.entries[userID] = id

	r.log.Info("scheduled daily reminder",
		zap.Int64("user_id", userID),
		zap.String("spec", spec),
	)
	return nil
}

// Ensure installs an entry from the user's stored preferences if none is
// live. Invoked on user-facing read paths to self-heal after a restart wipes
// the in-memory registry while the durable user record survives.
func (r *Registry) Ensure(ctx context.Context, userID int64) error {
	if r.Scheduled(userID) {
		return nil
	}
	u, err := r.store.GetOrCreateUser(ctx, userID, "", "")
	if err != nil {
		return err
	}
	r.log.Info("re-installing missing schedule entry", zap.Int64("user_id", userID))
	return r.Install(userID, u.NotifyTime, u.Timezone)
}

// BootstrapAll installs one entry per known user. Run once at process start,
// before the transport begins accepting traffic. A scheduling failure for one
// user leaves the remaining users unaffected.
func (r *Registry) BootstrapAll(ctx context.Context) error {
	users, err := r.store.GetAllUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := r.Install(u.ID, u.NotifyTime, u.Timezone); err != nil {
			r.log.Error("bootstrap scheduling failed for user",
				zap.Int64("user_id", u.ID), zap.Error(err))
		}
	}
	r.log.Info("bootstrapped reminder schedules", zap.Int("users", len(users)))
	return nil
}

// Remove cancels the user's entry; no-op if none exists.
func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.entries[userID]; ok {
		r.cron.Remove(id)
		delete(r.entries, userID)
	}
}

// Scheduled reports whether the user has a live entry.
func (r *Registry) Scheduled(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[userID]
	return ok
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

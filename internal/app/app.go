package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/MahyarPz/Exam-Countdown-Bot/internal/config"
	"github.com/MahyarPz/Exam-Countdown-Bot/internal/schedule"
	"github.com/MahyarPz/Exam-Countdown-Bot/internal/store"
	"github.com/MahyarPz/Exam-Countdown-Bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server

	repo     store.Store
	registry *schedule.Registry
	router   *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting exam countdown bot",
		zap.Bool("debug_fast_schedule", a.cfg.DebugFastSchedule),
		zap.String("http", a.cfg.HTTPAddr),
	)

	// Select the storage backend; an unusable Firestore configuration falls
	// back to the relational chain inside Open.
	repo, err := store.Open(ctx, a.cfg, a.log)
	if err != nil {
		a.log.Error("storage init failed", zap.Error(err))
		return err
	}
	a.repo = repo

	sender := telegram.NewSender(a.bot)
	dispatcher := schedule.NewDispatcher(repo, sender, a.log, a.cfg.NotifyWhenEmpty)
	a.registry = schedule.NewRegistry(repo, dispatcher, a.log, a.cfg.DebugFastSchedule)

	// Rebuild every user's schedule entry before accepting any traffic.
	if err := a.registry.BootstrapAll(ctx); err != nil {
		a.log.Error("schedule bootstrap failed", zap.Error(err))
		return err
	}
	a.registry.Start()

	a.router = telegram.NewRouter(a.bot, a.log, repo, a.registry, dispatcher, a.cfg.AdminID)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.registry.Stop()

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

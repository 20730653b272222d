package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"clubroster/internal/adapters/email"
	web "clubroster/internal/adapters/http"
	"clubroster/internal/adapters/metrics"
	"clubroster/internal/adapters/storage"
	accountStore "clubroster/internal/adapters/storage/account"
	clubStore "clubroster/internal/adapters/storage/club"
	memberStore "clubroster/internal/adapters/storage/member"
	transferStore "clubroster/internal/adapters/storage/transfer"
	"clubroster/internal/application/orchestrators"
	"clubroster/internal/config"
	"clubroster/internal/domain/birthnumber"
	"clubroster/internal/domain/member"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server_event", "event", "fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WAL mode, foreign keys and a busy timeout on every pooled connection
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := storage.InitDB(db); err != nil {
		return err
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return err
	}

	m := metrics.New()
	timedDB := storage.NewTimedDB(db, m, cfg.SlowQuery())
	stores := &web.Stores{
		AccountStore:  accountStore.NewSQLiteStore(timedDB),
		ClubStore:     clubStore.NewSQLiteStore(timedDB),
		MemberStore:   memberStore.NewSQLiteStore(timedDB),
		TransferStore: transferStore.NewSQLiteStore(timedDB),
	}

	if cfg.AdminEmail != "" {
		err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
			ClubName: cfg.AdminClubName,
		}, orchestrators.SeedAdminDeps{
			Stores:     orchestrators.SeedStores{Accounts: stores.AccountStore, Clubs: stores.ClubStore},
			GenerateID: func() string { return uuid.New().String() },
			Now:        time.Now,
		})
		if err != nil {
			return err
		}
	}

	var sender email.Sender
	if cfg.HasResend() {
		sender = email.NewResendSender(cfg.ResendKey, cfg.ResendFrom, cfg.ReplyTo)
		slog.Info("server_event", "event", "email_sender", "provider", "resend")
	} else {
		sender = email.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("server_event", "event", "email_sender", "provider", "noop", "detail", "CLUBROSTER_RESEND_KEY is not set; email delivery is disabled")
		}
	}

	policy := birthnumber.LenientDecode
	if cfg.StrictDecoding {
		policy = birthnumber.StrictDecode
	}

	handler, err := web.NewMux(ctx, stores, web.Options{
		CSRFKey:       []byte(cfg.CSRFKey),
		SecureCookies: cfg.IsProduction(),
		BaseURL:       cfg.BaseURL,
		Sender:        sender,
		Metrics:       m,
		Rules:         member.Rules{EmailRequired: cfg.EmailRequired},
		DecodePolicy:  policy,
		SlowRequest:   cfg.SlowRequest(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "started", "version", version, "addr", cfg.Addr,
			"env", cfg.Env, "schema", storage.LatestSchemaVersion(), "decode_policy", policy.String())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_event", "event", "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupLogging installs the default slog logger: JSON in production, text
// for local development.
func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

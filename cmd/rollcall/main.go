package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/dhearn/rollcall/internal/backup"
	"github.com/dhearn/rollcall/internal/database"
	"github.com/dhearn/rollcall/internal/logging"
	"github.com/dhearn/rollcall/internal/server"
	"github.com/dhearn/rollcall/internal/store"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	logger := logging.Setup(os.Getenv("ROLLCALL_LOG_LEVEL"))

	port := envOr("ROLLCALL_PORT", "8080")
	dbPath := envOr("ROLLCALL_DB_PATH", "rollcall.db")
	baseURL := envOr("ROLLCALL_BASE_URL", "http://localhost:"+port)

	validity := 30 * time.Second
	if v := os.Getenv("ROLLCALL_TOKEN_VALIDITY"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			logger.Error("invalid ROLLCALL_TOKEN_VALIDITY", "value", v)
			os.Exit(1)
		}
		validity = time.Duration(secs) * time.Second
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := seedAdmin(db, logger); err != nil {
		logger.Error("seed admin", "error", err)
		os.Exit(1)
	}

	srv := server.New(db, server.Config{
		BaseURL:       baseURL,
		TokenValidity: validity,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runCleanup(rootCtx, srv, logger)

	archiver := backup.NewArchiver(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("ROLLCALL_S3_ENDPOINT"),
			Bucket:    os.Getenv("ROLLCALL_S3_BUCKET"),
			Region:    envOr("ROLLCALL_S3_REGION", "auto"),
			AccessKey: os.Getenv("ROLLCALL_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("ROLLCALL_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("ROLLCALL_BACKUP_PASSPHRASE"),
	}, db, logger.With("component", "backup"))
	if archiver.Enabled() {
		go runBackups(rootCtx, archiver, logger)
	} else {
		logger.Info("backups disabled, S3 or passphrase not configured")
	}

	go func() {
		logger.Info("server listening", "port", port, "base_url", baseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedAdmin creates the bootstrap admin account on first run so the
// instance is reachable before any other account exists.
func seedAdmin(db *sql.DB, logger *slog.Logger) error {
	admins := store.NewAdminStore(db)
	count, err := admins.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := envOr("ROLLCALL_ADMIN_PASSWORD", "admin123")
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := admins.Create("admin", string(hash)); err != nil {
		return err
	}

	logger.Warn("created default admin account, change its password", "username", "admin")
	return nil
}

// runCleanup prunes expired auth sessions and dead tokens. Expiry itself
// is enforced at read time; this only keeps the tables from growing.
func runCleanup(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			} else if n > 0 {
				logger.Debug("pruned expired sessions", "count", n)
			}
			if n, err := srv.QRTokenStore().DeleteExpired(); err != nil {
				logger.Error("token cleanup", "error", err)
			} else if n > 0 {
				logger.Debug("pruned dead tokens", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}
}

func runBackups(ctx context.Context, archiver *backup.Archiver, logger *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := archiver.Run(ctx); err != nil {
				logger.Error("backup failed", "error", err)
			}
		}
	}
}

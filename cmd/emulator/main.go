// Command emulator serves the documents API the sync client talks to,
// backed by a local SQLite file. It is meant for development and tests.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iudanet/finsync/internal/logging"
	"github.com/iudanet/finsync/internal/server"
	"github.com/iudanet/finsync/internal/server/documents"
	"github.com/iudanet/finsync/internal/server/handlers"
	"github.com/iudanet/finsync/internal/server/jwt"
	"github.com/iudanet/finsync/internal/server/middleware"
	"github.com/iudanet/finsync/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// SecretEnv names the variable holding the token signing secret
const SecretEnv = "FINSYNC_EMULATOR_SECRET"

type options struct {
	addr       string
	dbPath     string
	secret     string
	issueToken string
	logLevel   string
	logFormat  string
	tokenTTL   time.Duration
	rateWindow time.Duration
	rateLimit  int
}

func main() {
	// .env опционален
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: failed to load .env: %v\n", err)
		os.Exit(1)
	}

	var opts options
	showVersion := flag.Bool("version", false, "Show version information")
	flag.StringVar(&opts.addr, "addr", "127.0.0.1:8080", "Listen address")
	flag.StringVar(&opts.dbPath, "db", "emulator.db", "SQLite database path")
	flag.StringVar(&opts.secret, "secret", os.Getenv(SecretEnv), "Token signing secret (env "+SecretEnv+")")
	flag.DurationVar(&opts.tokenTTL, "token-ttl", 24*time.Hour, "Lifetime of issued tokens, 0 for no expiry")
	flag.IntVar(&opts.rateLimit, "rate-limit", 0, "Requests per window per user, 0 disables limiting")
	flag.DurationVar(&opts.rateWindow, "rate-window", time.Minute, "Rate limit window")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.logFormat, "log-format", logging.FormatText, "Log format: text or json")
	flag.StringVar(&opts.issueToken, "issue-token", "", "Print a token for the given user id and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.secret == "" {
		return fmt.Errorf("signing secret is required: set -secret or %s", SecretEnv)
	}
	tokens := jwt.NewService(opts.secret, opts.tokenTTL)

	if opts.issueToken != "" {
		token, exp, err := tokens.Issue(opts.issueToken)
		if err != nil {
			return err
		}
		fmt.Println(token)
		if !exp.IsZero() {
			fmt.Fprintf(os.Stderr, "expires at %s\n", exp.Format(time.RFC3339))
		}
		return nil
	}

	logger, err := logging.New(logging.Options{Level: opts.logLevel, Format: opts.logFormat})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	cfg := server.Config{
		Documents: documents.NewService(store, logger),
		Tokens:    tokens,
		Health:    handlers.NewHealthHandler(logger, Version, store.DB().PingContext),
		Logger:    logger,
	}
	if opts.rateLimit > 0 {
		cfg.Limiter = middleware.NewRateLimiter(opts.rateLimit, opts.rateWindow, logger)
		defer cfg.Limiter.Stop()
	}

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           server.NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Emulator starting",
		slog.String("addr", opts.addr),
		slog.String("db", opts.dbPath),
		slog.String("version", Version))

	return server.Serve(ctx, srv, logger)
}

func printVersion() {
	fmt.Printf("finsync emulator\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

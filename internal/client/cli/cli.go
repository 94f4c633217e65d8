// Package cli wires the client components behind cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/finsync/internal/client/api"
	"github.com/iudanet/finsync/internal/client/auth"
	"github.com/iudanet/finsync/internal/client/data"
	"github.com/iudanet/finsync/internal/client/iocli"
	"github.com/iudanet/finsync/internal/client/merge"
	"github.com/iudanet/finsync/internal/client/outbox"
	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/client/storage/boltdb"
	"github.com/iudanet/finsync/internal/client/storage/sqlite"
	clientsync "github.com/iudanet/finsync/internal/client/sync"
	"github.com/iudanet/finsync/internal/config"
	"github.com/iudanet/finsync/internal/logging"
)

// EnvPassphrase names the variable holding the credential passphrase.
const EnvPassphrase = "FINSYNC_PASSPHRASE"

// VersionInfo is set via ldflags in main
type VersionInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Options are the persistent flags
type Options struct {
	ConfigPath     string
	EnvFile        string
	DBPath         string
	AuthDBPath     string
	BaseURL        string
	Project        string
	LogLevel       string
	PassphraseFile string
}

// Cli holds the wired client. Local components are opened before every
// command; remote ones only by commands that talk to the document store.
type Cli struct {
	io      iocli.IO
	cfg     *config.Config
	logger  *slog.Logger
	version VersionInfo
	opts    Options

	store     storage.Store
	authStore *boltdb.Storage
	auth      auth.Service
	data      data.Service
	merger    *merge.Merger

	tokens    api.TokenSource
	userUID   string
	gateway   clientsync.Gateway
	protocol  *clientsync.Protocol
	bootstrap *clientsync.Bootstrapper
}

// New creates a Cli writing to io
func New(io iocli.IO, version VersionInfo) *Cli {
	return &Cli{io: io, version: version}
}

// Execute runs the command line in args. Call Close when done.
func (c *Cli) Execute(ctx context.Context, args []string) error {
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(c.io)
	root.SetErr(os.Stderr)
	return root.ExecuteContext(ctx)
}

func (c *Cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "finsync",
		Short:         "Offline-first sync for personal finance data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "version", "help", "completion":
				return nil
			}
			return c.setup(cmd.Context())
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.opts.ConfigPath, "config", os.Getenv("FINSYNC_CONFIG"), "path to YAML config")
	f.StringVar(&c.opts.EnvFile, "env-file", ".env", "dotenv file with FINSYNC_* variables")
	f.StringVar(&c.opts.DBPath, "db", "", "local database path")
	f.StringVar(&c.opts.AuthDBPath, "auth-db", "", "credential database path")
	f.StringVar(&c.opts.BaseURL, "base-url", "", "document store REST root")
	f.StringVar(&c.opts.Project, "project", "", "document store project id")
	f.StringVar(&c.opts.LogLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&c.opts.PassphraseFile, "passphrase-file", "", "file holding the credential passphrase")

	root.AddCommand(
		c.versionCommand(),
		c.tokenCommand(),
		c.syncCommand(),
		c.pushCommand(),
		c.pullCommand(),
		c.bootstrapCommand(),
		c.statusCommand(),
		c.runCommand(),
		c.compactCommand(),
		c.deadLettersCommand(),
		c.accountCommand(),
		c.categoryCommand(),
		c.txCommand(),
		c.budgetCommand(),
		c.recurringCommand(),
	)
	return root
}

// setup loads configuration and opens local storage. Already wired
// components are kept.
func (c *Cli) setup(ctx context.Context) error {
	if c.store != nil {
		return nil
	}

	cfg, err := config.Read(c.opts.ConfigPath, c.opts.EnvFile)
	if err != nil {
		return err
	}
	// флаги приоритетнее файла и окружения
	override(&cfg.Store.Path, c.opts.DBPath)
	override(&cfg.Store.AuthPath, c.opts.AuthDBPath)
	override(&cfg.Remote.BaseURL, c.opts.BaseURL)
	override(&cfg.Remote.Project, c.opts.Project)
	override(&cfg.Log.Level, c.opts.LogLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	c.logger, err = logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	st, err := sqlite.New(ctx, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}
	c.store = st

	c.authStore, err = boltdb.New(ctx, cfg.Store.AuthPath)
	if err != nil {
		return fmt.Errorf("failed to open credential database: %w", err)
	}
	c.auth = auth.NewService(c.authStore, c.logger)
	c.data = data.NewService(c.store, outbox.NewWriter(), c.logger)
	c.merger = merge.NewMerger(c.logger)
	return nil
}

// remote resolves credentials and builds the gateway, protocol and
// bootstrapper
func (c *Cli) remote(ctx context.Context) error {
	if c.protocol != nil {
		return nil
	}

	if c.tokens == nil {
		if err := c.resolveTokens(ctx); err != nil {
			return err
		}
	}
	if c.gateway == nil {
		c.gateway = api.NewClient(c.cfg.Remote.BaseURL, c.cfg.Remote.Project, c.tokens,
			api.WithTimeout(c.cfg.Remote.Timeout),
			api.WithLogger(c.logger))
	}

	deviceID, err := clientsync.EnsureDeviceID(ctx, c.store)
	if err != nil {
		return err
	}

	c.protocol = clientsync.NewProtocol(c.store, c.gateway, c.merger, clientsync.Config{
		UserUID:         c.userUID,
		DeviceID:        deviceID,
		Retry:           c.cfg.RetryPolicy(),
		DeadLetterAfter: c.cfg.Sync.DeadLetterAfter,
	}, c.logger)
	c.bootstrap = clientsync.NewBootstrapper(c.store, c.gateway, c.merger, c.userUID, c.logger)
	return nil
}

// resolveTokens prefers FINSYNC_TOKEN and otherwise unlocks the stored token
func (c *Cli) resolveTokens(ctx context.Context) error {
	if token := os.Getenv(auth.EnvToken); token != "" {
		session, err := auth.NewSession(token)
		if err != nil {
			return fmt.Errorf("%s: %w", auth.EnvToken, err)
		}
		c.tokens, c.userUID = session, session.UserID()
		return nil
	}

	passphrase, err := c.passphrase()
	if err != nil {
		return err
	}
	session, err := c.auth.Unlock(ctx, passphrase)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return fmt.Errorf("no stored token, run 'finsync token set' or export %s", auth.EnvToken)
		}
		return err
	}
	if session.Expired() {
		return fmt.Errorf("stored token expired at %s, run 'finsync token set'", session.ExpiresAt())
	}
	c.tokens, c.userUID = session, session.UserID()
	return nil
}

// passphrase reads from FINSYNC_PASSPHRASE, --passphrase-file, then a prompt
func (c *Cli) passphrase() (string, error) {
	if p := os.Getenv(EnvPassphrase); p != "" {
		return p, nil
	}

	if c.opts.PassphraseFile != "" {
		content, err := os.ReadFile(c.opts.PassphraseFile)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase file: %w", err)
		}
		p := strings.TrimSpace(string(content))
		if p == "" {
			return "", errors.New("passphrase file is empty")
		}
		return p, nil
	}

	p, err := c.io.ReadPassword("Passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if p == "" {
		return "", errors.New("passphrase cannot be empty")
	}
	return p, nil
}

// Close releases opened databases
func (c *Cli) Close() {
	if c.store != nil {
		if err := c.store.Close(); err != nil && c.logger != nil {
			c.logger.Error("failed to close local database", "error", err)
		}
	}
	if c.authStore != nil {
		if err := c.authStore.Close(); err != nil && c.logger != nil {
			c.logger.Error("failed to close credential database", "error", err)
		}
	}
}

func (c *Cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			c.io.Printf("finsync\n")
			c.io.Printf("Version:    %s\n", c.version.Version)
			c.io.Printf("Build Date: %s\n", c.version.BuildDate)
			c.io.Printf("Git Commit: %s\n", c.version.GitCommit)
		},
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/finsync/internal/client/scheduler"
	clientsync "github.com/iudanet/finsync/internal/client/sync"
	"github.com/iudanet/finsync/pkg/api"
)

const statusTemplate = `=== Sync Status ===

Device:          {{.DeviceID}}
Initial sync:    {{if .InitialSyncCompleted}}completed{{else}}pending{{end}}
Last pull:       {{fmtTime .LastPull}}
{{- if .LastEventID}}
Last event:      {{.LastEventID}}
{{- end}}
Last push:       {{fmtTime .LastPush}}
Pending events:  {{.Pending}}
{{- if .DeadLetters}}
Dead letters:    {{.DeadLetters}} (run 'finsync deadletters requeue')
{{- end}}
Applied events:  {{.AppliedEvents}}
`

var templateFuncs = template.FuncMap{
	"fmtTime": func(t *time.Time) string {
		if t == nil {
			return "never"
		}
		return t.Local().Format(time.RFC3339)
	},
}

var statusTmpl = template.Must(template.New("status").Funcs(templateFuncs).Parse(statusTemplate))

func (c *Cli) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending changes, then pull and merge remote events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSync(cmd.Context())
		},
	}
}

func (c *Cli) runSync(ctx context.Context) error {
	if err := c.remote(ctx); err != nil {
		return err
	}
	if err := c.ensureBootstrapped(ctx); err != nil {
		return err
	}

	res := c.protocol.SyncNow(ctx, c.cfg.Sync.PushLimit, c.cfg.Sync.PullLimit)
	c.printResult(res)
	if !res.Success {
		return fmt.Errorf("synchronization failed: %s", res.Error)
	}
	return nil
}

// ensureBootstrapped runs the initial snapshot import on a fresh database
func (c *Cli) ensureBootstrapped(ctx context.Context) error {
	needed, err := c.bootstrap.NeedsInitialSync(ctx)
	if err != nil {
		return err
	}
	if !needed {
		return nil
	}
	return c.runBootstrap(ctx, false)
}

func (c *Cli) printResult(res clientsync.Result) {
	if res.Success {
		c.io.Println("✓ Synchronization completed")
	} else {
		c.io.Printf("✗ Synchronization failed: %s\n", res.Error)
	}
	c.io.Printf("Pushed: %d\n", res.Pushed)
	c.io.Printf("Pulled: %d\n", res.Pulled)
}

func (c *Cli) pushCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload due outbox records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.remote(ctx); err != nil {
				return err
			}
			if limit <= 0 {
				limit = c.cfg.Sync.PushLimit
			}
			n, err := c.protocol.Push(ctx, limit)
			if err != nil {
				return err
			}
			c.io.Printf("Pushed: %d\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to push")
	return cmd
}

func (c *Cli) pullCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch and merge one page of remote events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.remote(ctx); err != nil {
				return err
			}
			if limit <= 0 {
				limit = c.cfg.Sync.PullLimit
			}
			n, err := c.protocol.PullAndApply(ctx, limit)
			if err != nil {
				return err
			}
			c.io.Printf("Pulled: %d\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	return cmd
}

func (c *Cli) bootstrapCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the local database from remote snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.remote(ctx); err != nil {
				return err
			}
			return c.runBootstrap(ctx, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "run even if already completed")
	return cmd
}

func (c *Cli) runBootstrap(ctx context.Context, force bool) error {
	res, err := c.bootstrap.Run(ctx, force)
	if err != nil {
		return err
	}
	if res.Skipped {
		c.io.Println("Initial sync already completed")
		return nil
	}
	c.io.Printf("Initial sync imported %d documents\n", res.Total())
	for _, coll := range []string{api.CollectionAccounts, api.CollectionCategories, api.CollectionBudgets, api.CollectionTransactions} {
		if n := res.Inserted[coll]; n > 0 {
			c.io.Printf("  %-13s %d\n", coll+":", n)
		}
	}
	return nil
}

func (c *Cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync state and stored credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runStatus(cmd.Context())
		},
	}
}

func (c *Cli) runStatus(ctx context.Context) error {
	p, err := c.localProtocol(ctx)
	if err != nil {
		return err
	}

	info, err := p.LastSyncInfo(ctx)
	if err != nil {
		return err
	}
	if err := statusTmpl.Execute(c.io, info); err != nil {
		return err
	}

	c.io.Println()
	return c.printTokenStatus(ctx)
}

func (c *Cli) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the background scheduler until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.runScheduler(ctx)
		},
	}
}

func (c *Cli) runScheduler(ctx context.Context) error {
	if err := c.remote(ctx); err != nil {
		return err
	}
	if err := c.ensureBootstrapped(ctx); err != nil {
		return err
	}

	sched := scheduler.New(c.protocol, c.data, scheduler.Config{
		Retry:             c.cfg.RetryPolicy(),
		Interval:          c.cfg.Sync.Interval,
		RecurringInterval: c.cfg.Sync.RecurringInterval,
		PushLimit:         c.cfg.Sync.PushLimit,
		PullLimit:         c.cfg.Sync.PullLimit,
		CompactLedger:     c.cfg.Sync.CompactLedger,
		RunOnStart:        c.cfg.Sync.RunOnStart,
	}, scheduler.Callbacks{
		OnComplete: func(res clientsync.Result, at time.Time) {
			c.io.Printf("[%s] synced: pushed %d, pulled %d\n", at.Local().Format(time.TimeOnly), res.Pushed, res.Pulled)
		},
		OnError: func(e scheduler.CycleError) {
			if e.WillRetry {
				c.io.Printf("sync failed (attempt %d), retrying in %s: %v\n", e.Attempt, e.RetryIn.Round(time.Second), e.Err)
				return
			}
			c.io.Printf("sync failed: %v\n", e.Err)
		},
	}, c.logger)

	if err := sched.Start(ctx); err != nil {
		return err
	}
	c.io.Printf("Scheduler started: every %s, recurring every %s. Press Ctrl+C to stop.\n",
		c.cfg.Sync.Interval, c.cfg.Sync.RecurringInterval)

	<-ctx.Done()
	sched.Stop()

	st := sched.Status()
	c.io.Printf("Scheduler stopped after %d consecutive errors\n", st.ErrorCount)
	return nil
}

func (c *Cli) compactCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Drop applied-event ledger rows behind the watermark",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := c.localProtocol(ctx)
			if err != nil {
				return err
			}
			n, err := p.CompactLedger(ctx)
			if err != nil {
				return err
			}
			c.io.Printf("Removed %d ledger rows\n", n)
			return nil
		},
	}
}

func (c *Cli) deadLettersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadletters",
		Short: "Inspect or requeue outbox records that stopped retrying",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List dead-lettered records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.localProtocol(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := p.DeadLetters(cmd.Context())
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				c.io.Println("No dead letters")
				return nil
			}
			for _, r := range recs {
				c.io.Printf("%s  %-20s %-36s retries=%d  %s\n", r.ID, r.EventType, r.EntityID, r.RetryCount, r.LastError)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "requeue",
		Short: "Make dead-lettered records due again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.localProtocol(cmd.Context())
			if err != nil {
				return err
			}
			n, err := p.RequeueDeadLetters(cmd.Context())
			if err != nil {
				return err
			}
			c.io.Printf("Requeued %d records\n", n)
			return nil
		},
	})
	return cmd
}

// localProtocol returns the wired protocol or, for commands that never
// touch the network, one without a gateway
func (c *Cli) localProtocol(ctx context.Context) (*clientsync.Protocol, error) {
	if c.protocol != nil {
		return c.protocol, nil
	}
	deviceID, err := clientsync.EnsureDeviceID(ctx, c.store)
	if err != nil {
		return nil, err
	}
	return clientsync.NewProtocol(c.store, nil, c.merger, clientsync.Config{DeviceID: deviceID}, c.logger), nil
}

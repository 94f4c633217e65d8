package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/finsync/internal/client/storage"
)

func (c *Cli) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored bearer token",
	}

	var tokenFile string
	set := &cobra.Command{
		Use:   "set",
		Short: "Encrypt and store a bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTokenSet(cmd.Context(), tokenFile)
		},
	}
	set.Flags().StringVar(&tokenFile, "token-file", "", "read the token from a file instead of a prompt")

	cmd.AddCommand(set, &cobra.Command{
		Use:   "status",
		Short: "Show the stored token owner and expiry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printTokenStatus(cmd.Context())
		},
	}, &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.auth.Logout(cmd.Context()); err != nil {
				if errors.Is(err, storage.ErrAuthNotFound) {
					c.io.Println("No stored token")
					return nil
				}
				return err
			}
			c.io.Println("✓ Token removed")
			return nil
		},
	})
	return cmd
}

func (c *Cli) runTokenSet(ctx context.Context, tokenFile string) error {
	var token string
	if tokenFile != "" {
		content, err := os.ReadFile(tokenFile)
		if err != nil {
			return fmt.Errorf("failed to read token file: %w", err)
		}
		token = strings.TrimSpace(string(content))
	} else {
		var err error
		if token, err = c.io.ReadPassword("Token: "); err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	passphrase, err := c.passphrase()
	if err != nil {
		return err
	}

	session, err := c.auth.Save(ctx, token, passphrase)
	if err != nil {
		return err
	}

	c.io.Println("✓ Token stored")
	c.io.Printf("User: %s\n", session.UserID())
	if exp := session.ExpiresAt(); !exp.IsZero() {
		c.io.Printf("Expires: %s\n", exp.Local().Format(time.RFC3339))
	}
	return nil
}

func (c *Cli) printTokenStatus(ctx context.Context) error {
	info, err := c.auth.Info(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			c.io.Println("Token: not stored")
			return nil
		}
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	c.io.Printf("User: %s\n", info.UserID)
	if info.ExpiresAt == 0 {
		c.io.Println("Token: stored, no expiry")
		return nil
	}

	expiresAt := time.Unix(info.ExpiresAt, 0)
	if remaining := time.Until(expiresAt); remaining > 0 {
		c.io.Printf("Token: valid for %s\n", remaining.Round(time.Second))
	} else {
		c.io.Printf("Token: expired at %s\n", expiresAt.Local().Format(time.RFC3339))
	}
	return nil
}

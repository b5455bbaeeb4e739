package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/rdx/internal/store"
)

var setCmd = &cobra.Command{
	Use:   "set <connection> <key> <value>",
	Short: "Write a string value",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPointHandle(args[0], func(ctx context.Context, h store.Handle) error {
			if err := h.Set(ctx, args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK %s\n", args[1])
			return nil
		})
	},
}

var delCmd = &cobra.Command{
	Use:   "del <connection> <key>",
	Short: "Delete a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPointHandle(args[0], func(ctx context.Context, h store.Handle) error {
			if err := h.Del(ctx, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[1])
			return nil
		})
	},
}

var ttlCmd = &cobra.Command{
	Use:   "ttl <connection> <key> <duration>",
	Short: "Set a key's time to live",
	Long: `Sets the key's expiry from a human-readable duration such as "30m"
or "1h30m". The duration is validated before any store call.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := time.ParseDuration(args[2])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[2], err)
		}
		if d < 0 {
			return fmt.Errorf("invalid duration %q: must not be negative", args[2])
		}
		return withPointHandle(args[0], func(ctx context.Context, h store.Handle) error {
			accepted, err := h.Expire(ctx, args[1], int64(d/time.Second))
			if err != nil {
				return err
			}
			if !accepted {
				return fmt.Errorf("key %q does not exist", args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expires in %s: %s\n", d, args[1])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(setCmd, delCmd, ttlCmd)
}

// withPointHandle resolves the pooled handle for a named connection and
// runs one point command against it.
func withPointHandle(name string, fn func(context.Context, store.Handle) error) error {
	_, provider, err := loadSetup()
	if err != nil {
		return err
	}
	defer func() { _ = provider.Close(name) }()

	ctx, cancel := context.WithTimeout(rootCtx, scanTimeout)
	defer cancel()
	h, err := provider.GetConnection(ctx, name)
	if err != nil {
		return err
	}
	return fn(ctx, h)
}

package cmd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/rdx/internal/session"
)

var getAll bool

var getCmd = &cobra.Command{
	Use:   "get <connection> <key>",
	Short: "Load and print a key's value",
	Long: `Loads the value through the same per-type strategies the browser
uses: strings print pretty-printed when they hold JSON, binary values
print as a hex dump, lists print the first page (use --all to page
through the rest).`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getAll, "all", false, "load every list page, not just the first")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.CloseAll()
	s, err := reg.Open(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(rootCtx, scanTimeout)
	defer cancel()

	key := args[1]
	s.SelectKey(key)
	snap, err := awaitSelection(ctx, s)
	if err != nil {
		return err
	}
	if snap.ValueErr != "" {
		return errors.New(snap.ValueErr)
	}
	v := snap.Value
	if v.IsMissing() {
		return fmt.Errorf("key %q does not exist", key)
	}

	if list, ok := v.ListValue(); ok && getAll {
		for len(list.Loaded) < list.Total {
			loaded := len(list.Loaded)
			s.LoadMoreListValue()
			snap, err = awaitListGrowth(ctx, s, loaded)
			if err != nil {
				return err
			}
			list, _ = snap.Value.ListValue()
		}
		v = snap.Value
	}

	out := cmd.OutOrStdout()
	printValueHeader(out, v)
	switch data := v.Data.(type) {
	case session.StringData:
		fmt.Fprintln(out, string(data))
	case session.BytesData:
		fmt.Fprint(out, hex.Dump(data))
	case session.ListData:
		for _, elem := range data.Loaded {
			fmt.Fprintln(out, elem)
		}
		if len(data.Loaded) < data.Total {
			fmt.Fprintf(out, "... %d more elements (rerun with --all)\n", data.Total-len(data.Loaded))
		}
	}
	return nil
}

func printValueHeader(out io.Writer, v *session.Value) {
	header := fmt.Sprintf("# %s, size %d", v.Type.Label(), v.Size)
	if remaining, ok := v.TTLRemaining(time.Now()); ok && remaining >= 0 {
		header += fmt.Sprintf(", ttl %s", remaining)
	}
	fmt.Fprintln(out, header)
}

func awaitSelection(ctx context.Context, s *session.Session) (*session.Snapshot, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap := s.Snapshot()
		if snap.Value != nil || snap.ValueErr != "" {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("value load did not settle: %w", ctx.Err())
		case <-s.Changes():
		case <-ticker.C:
		}
	}
}

func awaitListGrowth(ctx context.Context, s *session.Session, seen int) (*session.Snapshot, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap := s.Snapshot()
		if list, ok := snap.Value.ListValue(); ok && len(list.Loaded) > seen {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("list page did not arrive: %w", ctx.Err())
		case <-s.Changes():
		case <-ticker.C:
		}
	}
}

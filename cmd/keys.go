package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/rdx/internal/filterexpr"
	"github.com/oakwood-commons/rdx/internal/session"
)

// scanTimeout bounds one-shot commands; the TUI has no such limit.
const scanTimeout = 30 * time.Second

var (
	keysMode       string
	keysExpr       string
	keysTree       bool
	keysScanRounds int
)

var keysCmd = &cobra.Command{
	Use:   "keys <connection> [keyword]",
	Short: "Scan a connection and list matching keys",
	Long: `Runs the incremental scanner until its first chain ends, then prints
the discovered keys with their resolved types. Use --scan-rounds to keep
scanning past the per-round result cap, and --expr to narrow the listing
with a CEL predicate over the variables "key" and "type".`,
	Example: "\n  rdx keys local\n  rdx keys local user --mode prefix --tree\n  rdx keys local --expr 'key.contains(\"session\") && type != \"LIST\"'\n",
	Args:    cobra.RangeArgs(1, 2),
	RunE:    runKeys,
}

func init() {
	keysCmd.Flags().StringVar(&keysMode, "mode", "all", "match mode: all (substring), prefix, exact")
	keysCmd.Flags().StringVar(&keysExpr, "expr", "", "CEL predicate over 'key' and 'type' applied client-side")
	keysCmd.Flags().BoolVar(&keysTree, "tree", false, "print keys as a namespace tree")
	keysCmd.Flags().IntVar(&keysScanRounds, "scan-rounds", 0, "extra scan rounds past the first result cap")
	rootCmd.AddCommand(keysCmd)
}

func parseMode(s string) (session.QueryMode, error) {
	switch s {
	case "", "all":
		return session.ModeAll, nil
	case "prefix":
		return session.ModePrefix, nil
	case "exact":
		return session.ModeExact, nil
	default:
		return session.ModeAll, fmt.Errorf("invalid --mode %q: want all, prefix, or exact", s)
	}
}

func runKeys(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(keysMode)
	if err != nil {
		return err
	}
	var pred *filterexpr.Predicate
	if keysExpr != "" {
		pred, err = filterexpr.Compile(keysExpr)
		if err != nil {
			return err
		}
	}

	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.CloseAll()
	s, err := reg.Open(args[0])
	if err != nil {
		return err
	}

	keyword := ""
	if len(args) == 2 {
		keyword = args[1]
	}

	ctx, cancel := context.WithTimeout(rootCtx, scanTimeout)
	defer cancel()

	s.StartScan(keyword, mode)
	snap, err := awaitScanEnd(ctx, s, keyword, mode, 0)
	if err != nil {
		return err
	}
	for r := 0; r < keysScanRounds && !snap.Completed; r++ {
		s.ScanMore()
		snap, err = awaitScanEnd(ctx, s, keyword, mode, snap.Round+1)
		if err != nil {
			return err
		}
	}

	keys, err := filterKeys(snap, pred)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no keys found")
		return nil
	}

	out := cmd.OutOrStdout()
	if keysTree {
		fmt.Fprint(out, renderKeyTree(keys, s.Separator(), terminalWidth()))
	} else {
		fmt.Fprint(out, renderKeyList(keys, terminalWidth()))
	}
	if !snap.Completed {
		fmt.Fprintf(out, "\n(partial: %d keys after round %d; rerun with --scan-rounds to continue)\n", snap.KeyCount(), snap.Round)
	}
	return nil
}

// awaitScanEnd blocks until the active scan chain has ended and the
// snapshot reflects the requested filter generation. minRound is the round
// the chain must have reached; after ScanMore pass the previous round plus
// one so a still-stale snapshot from the finished round cannot satisfy the
// wait.
func awaitScanEnd(ctx context.Context, s *session.Session, keyword string, mode session.QueryMode, minRound int) (*session.Snapshot, error) {
	seenScanning := false
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap := s.Snapshot()
		if snap.Scanning {
			seenScanning = true
		}
		if scanSettled(snap, keyword, mode, minRound, seenScanning) {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("scan did not settle: %w", ctx.Err())
		case <-s.Changes():
		case <-ticker.C:
		}
	}
}

// scanSettled reports whether the snapshot is the end state of the awaited
// chain. The first chain of a filter has no round to make progress against,
// so it additionally needs evidence the scan ran at all: the notification
// channel coalesces, and an idle pre-scan snapshot already has the right
// filter and a false scanning flag.
func scanSettled(snap *session.Snapshot, keyword string, mode session.QueryMode, minRound int, seenScanning bool) bool {
	if snap.Filter != keyword || snap.Mode != mode || snap.Scanning || snap.Round < minRound {
		return false
	}
	return minRound > 0 || seenScanning || snap.Completed || snap.KeyCount() > 0
}

// filterKeys applies the optional CEL predicate over the snapshot's keys.
func filterKeys(snap *session.Snapshot, pred *filterexpr.Predicate) (map[string]session.KeyType, error) {
	if pred == nil {
		return snap.Keys, nil
	}
	out := make(map[string]session.KeyType)
	for key, kt := range snap.Keys {
		ok, err := pred.Match(key, kt.Label())
		if err != nil {
			return nil, err
		}
		if ok {
			out[key] = kt
		}
	}
	return out, nil
}

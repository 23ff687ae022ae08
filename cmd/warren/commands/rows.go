package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/internal/resolver"
	"github.com/dyluth/warren/internal/tally"
	"github.com/dyluth/warren/internal/timespec"
	"github.com/dyluth/warren/pkg/kv"
)

var (
	rowsSession      string
	rowsOutputFormat string
	rowsSince        string
	rowsUntil        string
	rowsTag          string
	rowsFollowupOnly bool
)

var rowsCmd = &cobra.Command{
	Use:   "rows [ORDER]",
	Short: "Inspect a session's recorded answers",
	Long: `Inspect the answer rows recorded for a session in list or get mode.

List Mode (no ORDER):
  Displays rows matching filters as a table or JSONL stream.

Get Mode (with ORDER):
  Displays the complete row with that screen order as pretty-printed JSON.

Time Filters (list mode only):
  --since  - Show rows confirmed after this time
  --until  - Show rows confirmed before this time

Content Filters (list mode only):
  --tag            - Filter by screen tag (glob pattern: "BASE", "S*")
  --followup-only  - Only rows carrying a follow-up answer

Examples:
  warren rows --session resp-7
  warren rows --session resp-7 --tag=SANITY --output=jsonl | jq .sanity_primary
  warren rows --session resp-7 --since=2h
  warren rows 14 --session resp-7`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRows,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions with stored state",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

func init() {
	rowsCmd.Flags().StringVarP(&rowsSession, "session", "s", "", "Session ID (required)")
	rowsCmd.Flags().StringVarP(&rowsOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	rowsCmd.Flags().StringVar(&rowsSince, "since", "", "Show rows after time (duration or RFC3339)")
	rowsCmd.Flags().StringVar(&rowsUntil, "until", "", "Show rows before time (duration or RFC3339)")
	rowsCmd.Flags().StringVar(&rowsTag, "tag", "", "Filter by screen tag (glob pattern)")
	rowsCmd.Flags().BoolVar(&rowsFollowupOnly, "followup-only", false, "Only rows with a follow-up answer")
	rowsCmd.MarkFlagRequired("session")

	rootCmd.AddCommand(rowsCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runRows(cmd *cobra.Command, args []string) error {
	isGetMode := len(args) > 0

	var order int
	if isGetMode {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return printer.Error("invalid order", fmt.Sprintf("%q is not a screen order.", args[0]))
		}
		order = n
	}

	format := tally.OutputFormat(rowsOutputFormat)
	if !isGetMode {
		if err := format.Validate(); err != nil {
			return printer.Error("invalid output format", fmt.Sprintf("Unknown format: %s", rowsOutputFormat), "Valid formats: default, jsonl")
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return printer.Error("nothing to inspect",
			"The memory backend keeps no state between runs.",
			"Set storage.backend to redis or sqlite")
	}
	defer store.Close()

	session, err := resolveSession(ctx, store, rowsSession)
	if err != nil {
		return err
	}
	rowsSession = session

	key, err := tally.FindRowsKey(ctx, store, rowsSession, cfg.Storage.Name)
	if err != nil {
		if errors.Is(err, tally.ErrNoCollection) {
			return printer.Error(
				fmt.Sprintf("no answers for session '%s'", rowsSession),
				"The session has not confirmed any screen, or ran in ghost mode.",
				"List sessions:\n  warren sessions",
			)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if isGetMode {
		if err := tally.GetRow(ctx, store, rowsSession, key, order, out); err != nil {
			if tally.IsNotFound(err) {
				return printer.Error(err.Error(), "No row with that order was recorded.",
					fmt.Sprintf("List rows:\n  warren rows --session %s", rowsSession))
			}
			return fmt.Errorf("failed to get row: %w", err)
		}
		return nil
	}

	window, err := timespec.ParseWindow(rowsSince, rowsUntil, time.Now())
	if err != nil {
		return printer.Error("invalid time filter", err.Error(),
			"Use duration format like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z'")
	}
	filters := &tally.FilterCriteria{
		Window:       window,
		TagGlob:      rowsTag,
		FollowupOnly: rowsFollowupOnly,
	}
	if err := tally.ListRows(ctx, store, rowsSession, key, format, filters, out); err != nil {
		return fmt.Errorf("failed to list rows: %w", err)
	}
	return nil
}

// resolveSession expands a session ID prefix. Unknown IDs pass through
// unchanged so callers report them in their own terms.
func resolveSession(ctx context.Context, store kv.Store, id string) (string, error) {
	full, err := resolver.ResolveSessionID(ctx, store, id)
	switch {
	case err == nil:
		return full, nil
	case resolver.IsAmbiguousError(err):
		fmt.Fprintln(os.Stderr, resolver.FormatAmbiguousError(err.(*resolver.AmbiguousError)))
		return "", fmt.Errorf("ambiguous session ID")
	default:
		return id, nil
	}
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return printer.Error("nothing to list",
			"The memory backend keeps no state between runs.",
			"Set storage.backend to redis or sqlite")
	}
	defer store.Close()

	ids, err := tally.Sessions(ctx, store)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No sessions found")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

package main

import (
	"fmt"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/newthinker/llmlab/internal/app"
	"github.com/newthinker/llmlab/internal/storage/runlog"
	"github.com/newthinker/llmlab/internal/tracking"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect archived calls",
	Long:  `Commands for reading the run log configured under tracking.archive.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list [run-id]",
	Short: "List runs, or the calls of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show one archived call",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}

func openRunLog() (runlog.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := app.OpenStore(cfg.Tracking.Archive)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("archiving is disabled; set tracking.archive.type")
	}
	return store, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openRunLog()
	if err != nil {
		return err
	}

	prefix := tracking.RunsPrefix
	if len(args) == 1 {
		prefix += args[0] + "/"
	}
	keys, err := store.List(cmd.Context(), prefix)
	if err != nil {
		return fmt.Errorf("listing %s: %w", prefix, err)
	}

	w := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, run := range runIDs(keys) {
			fmt.Fprintln(w, run)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tKIND\tMODEL\tSAMPLING\tTOKENS\tELAPSED")
	for _, key := range keys {
		rec, err := tracking.LoadRecord(cmd.Context(), store, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			key, rec.Kind, rec.Model, rec.Sampling, rec.TotalTokens, rec.Elapsed.Round(1e6))
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openRunLog()
	if err != nil {
		return err
	}

	rec, err := tracking.LoadRecord(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = colorBold.Fprintf(w, "%s\n", rec.ID)
	fmt.Fprintf(w, "  Run:       %s\n", rec.RunID)
	fmt.Fprintf(w, "  Kind:      %s\n", rec.Kind)
	fmt.Fprintf(w, "  Model:     %s\n", rec.Model)
	fmt.Fprintf(w, "  Sampling:  %s\n", rec.Sampling)
	fmt.Fprintf(w, "  Tokens:    prompt=%d completion=%d total=%d\n", rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens)
	fmt.Fprintf(w, "  Elapsed:   %s\n", rec.Elapsed)
	fmt.Fprintf(w, "  Timestamp: %s\n", rec.Timestamp.Format("2006-01-02 15:04:05.000 MST"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, rec.Text)
	return nil
}

// runIDs extracts the distinct run ids from keys of the form
// runs/<run-id>/<call>.json, in sorted key order.
func runIDs(keys []string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, key := range keys {
		rest := strings.TrimPrefix(key, tracking.RunsPrefix)
		id := path.Dir(rest)
		if id == "." {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

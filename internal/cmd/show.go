package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Dallionking/levelchain/internal/snapshot"
	"github.com/Dallionking/levelchain/internal/tui/styles"
)

var (
	showJSON  bool
	showWatch bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved level chain",
	Long: `Print the level chain saved by the wizard.

--json prints the stored snapshot as-is. --watch keeps running and reprints
whenever the snapshot changes, for example while the wizard is open in
another terminal (file storage only).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if err := renderChain(out, a.adapter, showJSON); err != nil {
			return err
		}
		if !showWatch {
			return nil
		}

		fs, ok := a.store.(*snapshot.FileStore)
		if !ok {
			return errors.New("--watch needs the file storage backend")
		}
		w, err := snapshot.NewWatcher(fs, snapshot.Key, a.logger)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchChain(ctx, out, a.adapter, w)
	},
}

// watchChain reprints the chain on every snapshot event until ctx is done.
func watchChain(ctx context.Context, out io.Writer, a *snapshot.Adapter, w *snapshot.Watcher) error {
	fmt.Fprintln(out, styles.Dim("watching for changes, ctrl+c to stop"))
	for ev := range w.Watch(ctx) {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.Dim(fmt.Sprintf("%s  snapshot %s", ev.Time.Format(time.TimeOnly), ev.Type)))
		if err := renderChain(out, a, showJSON); err != nil {
			return err
		}
	}
	return nil
}

// renderChain prints the restored chain as a table, or as its stored JSON
// shape.
func renderChain(w io.Writer, a *snapshot.Adapter, asJSON bool) error {
	s := a.Restore()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot.FromState(s))
	}

	fmt.Fprintln(w, styles.Label.Render("PROJECT")+"   "+styles.Gold(s.ProjectID))
	fmt.Fprintln(w, styles.Label.Render("SAVED IN")+"  "+styles.Value.Render(a.Location()))
	if at, err := a.SavedAt(); err == nil {
		fmt.Fprintln(w, styles.Label.Render("SAVED AT")+"  "+styles.Value.Render(at.Local().Format(time.DateTime)))
	}
	fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Level", "Dataset", "Object", "Type", "Status", "Query"})
	for _, i := range s.Visible {
		l, saved := s.Level(i)
		status := "empty"
		switch {
		case s.IsComplete(i):
			status = "complete"
		case saved:
			status = "incomplete"
		}
		t.AppendRow(table.Row{i, l.DatasetID, l.ObjectName, l.ObjectType, status, styles.TruncateWithEllipsis(oneLine(l.Query), 48)})
	}
	t.Render()

	if s.AllComplete() {
		fmt.Fprintln(w, styles.Green("ready to submit"))
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the stored snapshot as JSON")
	showCmd.Flags().BoolVarP(&showWatch, "watch", "w", false, "reprint whenever the snapshot changes")
	rootCmd.AddCommand(showCmd)
}

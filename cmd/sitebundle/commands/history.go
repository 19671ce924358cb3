package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/sitebundle/internal/eventstore"
	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	BuildID string `arg:"" optional:"" help:"Show the events of one build"`
	Limit   int    `default:"10" help:"Number of builds to list"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if cfg.Events.StorePath == "" {
		return foundation.ConfigError("events.store_path is not set; no build history is recorded").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.Events.StorePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return h.print(context.Background(), os.Stdout, store)
}

func (h *HistoryCmd) print(ctx context.Context, out io.Writer, store eventstore.Store) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	if h.BuildID != "" {
		records, err := store.GetByBuildID(ctx, h.BuildID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return foundation.NotFoundError("no events for build").WithContext("build_id", h.BuildID).Build()
		}
		_, _ = fmt.Fprintln(tw, "TIME\tTYPE\tPATH")
		for _, r := range records {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Timestamp.Format(time.RFC3339), r.Type, r.Path)
		}
		return nil
	}

	builds, err := store.Builds(ctx, h.Limit)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tDURATION\tEVENTS\tFAILURES")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			b.BuildID, humanize.Time(b.StartedAt), b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond), b.Events, b.Failures)
	}
	return nil
}

package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show (0 for all)" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if cfg.State.Database == "" {
		return ferrors.ConfigError("build history is disabled").
			WithField("state.database").
			WithSource(root.Config).
			Build()
	}
	store, err := history.NewSQLiteStore(cfg.State.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()
	builds, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	return printHistory(g, builds)
}

func printHistory(g *Global, builds []history.Build) error {
	out := g.out()
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(out, "No builds recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tOUTCOME\tDOCS\tDRAFTS\tTAGS\tDIGEST")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			b.ID,
			b.Started.Local().Format(time.DateTime),
			b.Duration.Truncate(time.Millisecond),
			b.Outcome,
			b.Documents, b.Drafts, b.Tags,
			b.ManifestDigest)
	}
	return tw.Flush()
}

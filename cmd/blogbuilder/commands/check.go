package commands

import (
	"fmt"

	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Drafts bool `help:"Include draft documents"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if c.Drafts {
		cfg.Build.IncludeDrafts = true
	}
	ctx, cancel := signalContext()
	defer cancel()

	report, err := site.NewGenerator(cfg, cfg.Output.Directory).WithLogger(g.Logger).Check(ctx)
	if err != nil {
		return err
	}
	out := g.out()
	_, _ = fmt.Fprintf(out, "Documents:     %d published, %d drafts excluded\n", report.Documents, report.Drafts)
	_, _ = fmt.Fprintf(out, "Tags:          %d\n", report.Tags)
	for _, tc := range report.TopTags {
		_, _ = fmt.Fprintf(out, "  %-12s %d\n", tc.Name, tc.Count)
	}
	_, _ = fmt.Fprintf(out, "Listing pages: %d\n", report.ListingPages)
	_, _ = fmt.Fprintf(out, "Tag pages:     %d\n", report.TagPages)
	_, _ = fmt.Fprintf(out, "Feed entries:  %d\n", report.FeedEntries)
	_, _ = fmt.Fprintf(out, "Search index:  %d records\n", report.SearchRecords)
	_, _ = fmt.Fprintln(out, "Content OK")
	return nil
}

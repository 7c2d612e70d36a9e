package commands

import (
	"fmt"
	"net"
	"strconv"

	"git.home.luguber.info/inful/blogbuilder/internal/preview"
)

// PreviewCmd serves a preview build including drafts and rebuilds it when
// content changes.
type PreviewCmd struct {
	Host   string `name:"host" default:"localhost" help:"Interface to listen on."`
	Port   int    `name:"port" default:"1316" help:"Port to listen on."`
	Output string `short:"o" name:"output" default:"" help:"Output directory for the preview build (defaults to temp)."`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	srv, err := preview.New(cfg, preview.Options{
		Host:      p.Host,
		Port:      p.Port,
		OutputDir: p.Output,
		Logger:    g.Logger,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Preview at http://%s/ (Ctrl+C to stop)\n", net.JoinHostPort(p.Host, strconv.Itoa(p.Port)))
	return srv.Run(ctx)
}

package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebundle/internal/publish"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	DryRun bool `name:"dry-run" help:"List the objects that would be uploaded without uploading"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}

	var store publish.ObjectStore
	if !p.DryRun {
		s, err := publish.NewMinioStore(cfg.Publish)
		if err != nil {
			return err
		}
		store = s
	}

	ctx, stop := signalContext()
	defer stop()

	pub := publish.New(afero.NewOsFs(), store).WithRetry(cfg.Publish.Retry.Policy())
	res, err := pub.Publish(ctx, publish.Request{
		OutputDir: cfg.Output.Directory,
		ReportDir: cfg.Report.Directory,
		Target:    cfg.Publish,
		DryRun:    p.DryRun,
	})
	if err != nil {
		return err
	}
	if p.DryRun {
		for _, o := range res.Objects {
			fmt.Printf("%s\t%s\n", o.Key, humanize.Bytes(uint64(o.Size)))
		}
	}
	fmt.Printf("%d objects (%s) from build %s\n", len(res.Objects), humanize.Bytes(uint64(res.Bytes())), res.BuildID)
	return nil
}

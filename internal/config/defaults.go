package config

import (
	"git.home.luguber.info/inful/sitebundle/internal/manifest"
	"git.home.luguber.info/inful/sitebundle/internal/retry"
)

const (
	defaultSourceRoot      = "."
	defaultOutputDirectory = "dist"
	defaultAssetsDirectory = "images"
	defaultReportDirectory = "reports"
	defaultNATSSubject     = "sitebundle.events"
	defaultServeAddr       = "localhost:8000"
	defaultPrecompressMin  = 256
)

// defaultStaticFiles are copied to the output root when they exist.
var defaultStaticFiles = []string{"favicon.ico", "robots.txt"}

func applyDefaults(cfg *Config) {
	if cfg.Source.Root == "" {
		cfg.Source.Root = defaultSourceRoot
	}
	if cfg.Source.Files.Len() == 0 {
		cfg.Source.Files = manifest.Default()
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDirectory
	}
	if cfg.Assets.Directory == "" {
		cfg.Assets.Directory = defaultAssetsDirectory
	}
	if cfg.Assets.Static == nil {
		cfg.Assets.Static = append([]string(nil), defaultStaticFiles...)
	}
	if cfg.LinkCheck.Mode == "" {
		cfg.LinkCheck.Mode = LinkCheckWarn
	}
	if cfg.Precompress.MinSize <= 0 {
		cfg.Precompress.MinSize = defaultPrecompressMin
	}
	if cfg.Report.Directory == "" {
		cfg.Report.Directory = defaultReportDirectory
	}
	if cfg.Events.NATS.Subject == "" {
		cfg.Events.NATS.Subject = defaultNATSSubject
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = defaultServeAddr
	}
	if cfg.Publish.Region == "" {
		cfg.Publish.Region = "us-east-1"
	}
	if cfg.Publish.Retry.Backoff == "" {
		cfg.Publish.Retry.Backoff = retry.BackoffLinear
	}
}

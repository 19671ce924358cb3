package config

import (
	"path/filepath"
	"strings"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
)

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if err := cfg.Source.Files.Validate(); err != nil {
		return foundation.WrapError(err, foundation.CategoryConfig, "invalid source file list").Fatal().Build()
	}
	if sameDir(cfg.Source.Root, cfg.Output.Directory) {
		return foundation.ConfigError("output directory must differ from the source root").
			WithContext("output", cfg.Output.Directory).Build()
	}
	if cfg.Build.Concurrency < 0 {
		return foundation.ConfigError("build.concurrency cannot be negative").
			WithContext("concurrency", cfg.Build.Concurrency).Build()
	}
	switch cfg.LinkCheck.Mode {
	case LinkCheckOff, LinkCheckWarn, LinkCheckStrict:
	default:
		return foundation.ConfigError("link_check.mode must be off, warn or strict").
			WithContext("mode", string(cfg.LinkCheck.Mode)).Build()
	}
	for _, name := range cfg.Assets.Static {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return foundation.ConfigError("assets.static entries must be plain file names").
				WithContext("entry", name).Build()
		}
	}
	return nil
}

// ValidatePublish checks the fields the publish command needs.
func ValidatePublish(p PublishConfig) error {
	missing := []string{}
	if strings.TrimSpace(p.Endpoint) == "" {
		missing = append(missing, "endpoint")
	}
	if strings.TrimSpace(p.AccessKey) == "" {
		missing = append(missing, "access_key")
	}
	if strings.TrimSpace(p.SecretKey) == "" {
		missing = append(missing, "secret_key")
	}
	if strings.TrimSpace(p.Bucket) == "" {
		missing = append(missing, "bucket")
	}
	if len(missing) > 0 {
		return foundation.ConfigError("publish configuration incomplete").
			WithContext("missing", strings.Join(missing, ",")).Build()
	}
	if strings.Contains(p.Endpoint, "://") {
		return foundation.ConfigError("publish.endpoint must not include a scheme").
			WithContext("endpoint", p.Endpoint).Build()
	}
	return nil
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

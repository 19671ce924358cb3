package config

import (
	"log/slog"
	"sort"
	"strings"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/retry"
)

// enumNormalizer maps case- and whitespace-insensitive spellings onto enum values.
type enumNormalizer[T ~string] struct {
	field  string
	values map[string]T
	keys   []string // sorted, for error messages
}

func newEnumNormalizer[T ~string](field string, values ...T) *enumNormalizer[T] {
	n := &enumNormalizer[T]{field: field, values: make(map[string]T, len(values))}
	for _, v := range values {
		key := normalizeKey(string(v))
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// normalize returns the canonical value for raw. An empty raw maps to def.
func (n *enumNormalizer[T]) normalize(raw, def T) (T, error) {
	cleaned := normalizeKey(string(raw))
	if cleaned == "" {
		return def, nil
	}
	v, ok := n.values[cleaned]
	if !ok {
		return raw, foundation.ConfigError("invalid "+n.field).
			WithContext("value", string(raw)).
			WithContext("valid", strings.Join(n.keys, ",")).Build()
	}
	if string(v) != string(raw) {
		slog.Warn("Normalized configuration value", "field", n.field, "from", string(raw), "to", string(v))
	}
	return v, nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	linkCheckModes = newEnumNormalizer("link_check.mode", LinkCheckOff, LinkCheckWarn, LinkCheckStrict)
	backoffModes   = newEnumNormalizer("publish.retry.backoff", retry.BackoffFixed, retry.BackoffLinear, retry.BackoffExponential)
)

// normalize canonicalizes enum fields in place.
func normalize(cfg *Config) error {
	mode, err := linkCheckModes.normalize(cfg.LinkCheck.Mode, LinkCheckWarn)
	if err != nil {
		return err
	}
	cfg.LinkCheck.Mode = mode

	backoff, err := backoffModes.normalize(cfg.Publish.Retry.Backoff, retry.BackoffLinear)
	if err != nil {
		return err
	}
	cfg.Publish.Retry.Backoff = backoff
	return nil
}

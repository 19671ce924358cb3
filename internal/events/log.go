package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/sitebundle/internal/logfields"
	"git.home.luguber.info/inful/sitebundle/internal/observability"
)

// LogSink writes events as console log lines.
type LogSink struct{}

// Emit logs e at a level matching its type.
func (LogSink) Emit(ctx context.Context, e Event) error {
	ctx = observability.WithBuildID(ctx, e.BuildID)
	if e.Stage != "" {
		ctx = observability.WithStage(ctx, e.Stage)
	}

	switch e.Type {
	case BuildStarted:
		observability.InfoContext(ctx, "Build started", logfields.Count(e.Count))
	case FileMinified:
		observability.InfoContext(ctx, "✓ Minified "+e.Path,
			logfields.Kind(e.Category),
			logfields.BytesIn(e.BytesIn),
			logfields.BytesOut(e.BytesOut),
			slog.String("saved", humanize.Bytes(uint64(max(e.BytesIn-e.BytesOut, 0)))))
	case FileFailed:
		observability.ErrorContext(ctx, "✗ Failed "+e.Path, logfields.Kind(e.Category), slog.String(logfields.KeyError, e.Error))
	case AssetsCopied:
		observability.InfoContext(ctx, fmt.Sprintf("✓ Copied %d assets", e.Count), slog.String("size", humanize.Bytes(uint64(max(e.BytesOut, 0)))))
	case StaticCopied:
		observability.InfoContext(ctx, "✓ Copied "+e.Path)
	case LinkBroken:
		observability.WarnContext(ctx, "Broken local link", logfields.Path(e.Path), logfields.URL(e.Message))
	case FilePrecompressed:
		observability.DebugContext(ctx, "Precompressed "+e.Path, logfields.BytesIn(e.BytesIn), logfields.BytesOut(e.BytesOut))
	case BuildCompleted:
		observability.InfoContext(ctx, "Build completed successfully", logfields.Count(e.Count), logfields.Status("success"))
	case BuildFailed:
		observability.ErrorContext(ctx, "Build failed", slog.String(logfields.KeyError, e.Error), logfields.Status("failed"))
	default:
		observability.DebugContext(ctx, string(e.Type), logfields.Path(e.Path))
	}
	return nil
}

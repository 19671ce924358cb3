package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyKind       = "kind"
	KeyBytesIn    = "bytes_in"
	KeyBytesOut   = "bytes_out"
	KeyCount      = "count"
	KeyStatus     = "status"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyHTTPStatus = "http_status"
	KeyEncoding   = "encoding"
	KeyBucket     = "bucket"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func BytesIn(n int64) slog.Attr       { return slog.Int64(KeyBytesIn, n) }
func BytesOut(n int64) slog.Attr      { return slog.Int64(KeyBytesOut, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func HTTPStatus(code int) slog.Attr   { return slog.Int(KeyHTTPStatus, code) }
func Encoding(e string) slog.Attr     { return slog.String(KeyEncoding, e) }
func Bucket(b string) slog.Attr       { return slog.String(KeyBucket, b) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Stage", KeyStage, "minify", Stage("minify")},
		{"File", KeyFile, "script.js", File("script.js")},
		{"Path", KeyPath, "/tmp/dist", Path("/tmp/dist")},
		{"Kind", KeyKind, "stylesheet", Kind("stylesheet")},
		{"Status", KeyStatus, "success", Status("success")},
		{"URL", KeyURL, "nats://localhost:4222", URL("nats://localhost:4222")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"Encoding", KeyEncoding, "br", Encoding("br")},
		{"Bucket", KeyBucket, "www-example-com", Bucket("www-example-com")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := BytesIn(1024); a.Key != KeyBytesIn || a.Value.Int64() != 1024 {
		t.Fatalf("BytesIn: %v", a)
	}
	if a := BytesOut(512); a.Key != KeyBytesOut || a.Value.Int64() != 512 {
		t.Fatalf("BytesOut: %v", a)
	}
	if a := HTTPStatus(404); a.Key != KeyHTTPStatus || a.Value.Int64() != 404 {
		t.Fatalf("HTTPStatus: %v", a)
	}
	if a := Count(4); a.Key != KeyCount || a.Value.Int64() != 4 {
		t.Fatalf("Count: %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should render empty, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("expected boom, got %q", a.Value.String())
	}
}

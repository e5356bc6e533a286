package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
)

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	return entry
}

func TestErrorDumpsRetryableChain(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	cause := fmt.Errorf("dial tcp: connection refused")
	err := pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "loading order")
	logg.Error(context.Background(), "load failed", err)

	entry := lastLogLine(t, &buf)
	dump, ok := entry["error_dump"].(map[string]any)
	if !ok {
		t.Fatalf("error_dump missing from log line: %v", entry)
	}
	if dump["code"] != string(pkgerrors.CodeDependency) {
		t.Fatalf("dump code = %v, want %s", dump["code"], pkgerrors.CodeDependency)
	}
	chain, ok := dump["chain"].([]any)
	if !ok || len(chain) < 2 {
		t.Fatalf("dump chain missing or too short: %v", dump["chain"])
	}
}

func TestErrorDumpsUntypedErrors(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", fmt.Errorf("plain failure"))

	entry := lastLogLine(t, &buf)
	dump, ok := entry["error_dump"].(map[string]any)
	if !ok {
		t.Fatalf("error_dump missing for untyped error: %v", entry)
	}
	if dump["code"] != string(pkgerrors.CodeInternal) {
		t.Fatalf("dump code = %v, want internal fallback", dump["code"])
	}
}

func TestErrorSkipsDumpForTerminalCodes(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "rejected", pkgerrors.New(pkgerrors.CodeValidation, "bad input"))

	entry := lastLogLine(t, &buf)
	if _, ok := entry["error_dump"]; ok {
		t.Fatalf("validation error carried a dump: %v", entry)
	}
	if entry["error"] == nil {
		t.Fatalf("error field missing: %v", entry)
	}
}

package log

import (
	"os"
	"path/filepath"
	"testing"

	"polydros.ai/internal/sim/simtest"
)

func TestTickLogger_RoundTrip(t *testing.T) {
	res := simtest.NewHarness(t).Run(42, 2, 5)
	path := TickLogPath(t.TempDir(), res.Config.Seed)

	l := NewTickLogger(path)
	for _, ts := range res.Timeseries {
		if err := l.WriteTick(ts); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadTickLog(path)
	if err != nil {
		t.Fatalf("ReadTickLog: %v", err)
	}
	if len(got) != len(res.Timeseries) {
		t.Fatalf("entries=%d want %d", len(got), len(res.Timeseries))
	}
	for i, e := range got {
		ts := res.Timeseries[i]
		if e.Tick != ts.Tick || e.Digest != ts.Digest || len(e.Events) != len(ts.Events) {
			t.Fatalf("entry %d mismatch: %+v", i, e)
		}
	}
}

func TestJSONLZstdWriter_LazyOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "x.jsonl.zst")
	w := NewJSONLZstdWriter(path)
	if err := w.Close(); err != nil {
		t.Fatalf("Close unopened: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file created without writes")
	}
	if err := w.Write(map[string]int{"a": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Fatalf("expected non-empty file: %v", err)
	}
}

func TestReadTickLog_Missing(t *testing.T) {
	if _, err := ReadTickLog(filepath.Join(t.TempDir(), "none.zst")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}

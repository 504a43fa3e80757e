package runfile

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"polydros.ai/internal/sim/simtest"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	res := simtest.NewHarness(t).Run(42, 3, 6)
	path := Path(t.TempDir(), 42)
	if err := Write(path, res); err != nil {
		t.Fatalf("Write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Seed != 42 || h.Ticks != 6 || h.Agents != 3 || h.FinalDigest != res.Timeseries[6].Digest {
		t.Fatalf("header=%+v", h)
	}

	_, got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	a, _ := json.Marshal(res)
	b, _ := json.Marshal(got)
	if !bytes.Equal(a, b) {
		t.Fatalf("round trip changed the result")
	}
}

func TestRead_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json.zst")
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Read(path); err == nil {
		t.Fatalf("expected error for garbage input")
	}
	if _, err := ReadHeader(filepath.Join(t.TempDir(), "missing")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}

func TestPath(t *testing.T) {
	if p := Path("/data", 7); !strings.HasSuffix(p, filepath.Join("runs", "run-7.json.zst")) {
		t.Fatalf("path=%q", p)
	}
}

func TestWrite_ReportsEncodeError(t *testing.T) {
	res := simtest.NewHarness(t).Run(42, 2, 1)
	res.Agents[0].CardInstances[0].CurrentPrice = math.Inf(1)
	if err := Write(Path(t.TempDir(), 42), res); err == nil || !strings.Contains(err.Error(), "json encode") {
		t.Fatalf("expected encode error, got %v", err)
	}
}

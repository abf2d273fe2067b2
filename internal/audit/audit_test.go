package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestLogger_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)

	entries := []Entry{
		{Time: "2024-03-15T10:00:00Z", PlayerID: "p1", Op: "buy", ItemID: "lamp1", Code: "OK_PURCHASED", Balance: 970},
		{Time: "2024-03-15T10:00:01Z", PlayerID: "p1", Op: "place", ItemID: "lamp1", Code: "OK_PLACED", Balance: 970},
	}
	for _, e := range entries {
		if err := l.Write(e); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "ops-*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("audit files: %v (%v)", files, err)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var got []Entry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("entries: got %d, want %d", len(got), len(entries))
	}
	if got[0] != entries[0] || got[1] != entries[1] {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

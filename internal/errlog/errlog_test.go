package errlog

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// resetGlobal tears down the package-level singleton so each test starts clean.
func resetGlobal() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.close()
		global = nil
	}
}

func TestInitAndLogf(t *testing.T) {
	resetGlobal()
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	Logf("import failed: %s", "bad package")

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "[ERROR] import failed: bad package") {
		t.Errorf("log line = %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("log line missing trailing newline")
	}
}

func TestInitIsIdempotent(t *testing.T) {
	resetGlobal()
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	defer Close()
	if err := Init(t.TempDir()); err != nil {
		t.Fatalf("second Init: %v", err)
	}

	mu.Lock()
	gotDir := global.dir
	mu.Unlock()
	if gotDir != dir {
		t.Errorf("second Init replaced logger: dir = %q", gotDir)
	}
}

func TestLogfWithoutInitIsNoop(t *testing.T) {
	resetGlobal()
	Logf("should not panic")
}

func TestRotateCompressesAndReopens(t *testing.T) {
	resetGlobal()
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	Logf("before rotation")

	mu.Lock()
	l := global
	mu.Unlock()
	l.mu.Lock()
	l.rotate()
	l.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var archive string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".log.gz") {
			archive = e.Name()
		}
	}
	if archive == "" {
		t.Fatal("no archive created")
	}

	f, err := os.Open(filepath.Join(dir, archive))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := gzip.NewReader(f); err != nil {
		t.Errorf("archive is not valid gzip: %v", err)
	}

	Logf("after rotation")
	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "after rotation") {
		t.Error("log file not reopened after rotation")
	}
	if strings.Contains(string(data), "before rotation") {
		t.Error("log file not truncated by rotation")
	}
}

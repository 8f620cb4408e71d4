// Package errlog provides a dedicated error-only file logger that writes
// to /var/log/slideflow/error.log (Linux) or logs/error.log (Windows).
// The file rotates at maxFileSize; rotated logs are gzip-compressed and
// pruned to maxBackups archives. All operations are mutex-protected.
package errlog

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	defaultLogDir = "/var/log/slideflow"
	windowsLogDir = "logs"
	logFileName   = "error.log"

	// maxFileSize is the rotation threshold in bytes.
	maxFileSize = 100 << 20
	// maxBackups is the number of compressed archives to keep.
	maxBackups = 5
)

var (
	global *errorLogger
	mu     sync.Mutex // protects Init / Close and the global pointer
)

type errorLogger struct {
	mu   sync.Mutex
	file *os.File
	dir  string
	path string
	size int64
	buf  []byte
}

// Init initializes the error logger in dir; an empty dir selects the
// platform default. Calling Init when the logger is already running is a
// no-op, so a failed Init can be retried.
func Init(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	if dir == "" {
		dir = defaultLogDir
		if runtime.GOOS == "windows" {
			dir = windowsLogDir
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create error log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open error log file %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat error log file: %w", err)
	}

	global = &errorLogger{file: f, dir: dir, path: path, size: info.Size(), buf: make([]byte, 0, 4096)}
	return nil
}

// Logf writes a formatted error message to the error log file. If the
// logger is not initialized the call is silently ignored.
func Logf(format string, args ...interface{}) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l != nil {
		l.logf(format, args...)
	}
}

// Close flushes and closes the error log file. Call on shutdown.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if global == nil {
		return
	}
	global.close()
	global = nil
}

func (l *errorLogger) logf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}

	l.buf = l.buf[:0]
	l.buf = time.Now().AppendFormat(l.buf, "2006/01/02 15:04:05")
	l.buf = append(l.buf, " [ERROR] "...)
	l.buf = fmt.Appendf(l.buf, format, args...)
	if len(l.buf) == 0 || l.buf[len(l.buf)-1] != '\n' {
		l.buf = append(l.buf, '\n')
	}

	n, err := l.file.Write(l.buf)
	if err != nil {
		return
	}
	l.size += int64(n)
	if l.size >= maxFileSize {
		l.rotate()
	}
}

// rotate compresses the current log file into a timestamped archive and
// reopens a fresh one. Caller must hold l.mu.
func (l *errorLogger) rotate() {
	l.file.Sync()
	l.file.Close()
	l.file = nil

	archive := filepath.Join(l.dir, fmt.Sprintf("error-%s.log.gz", time.Now().Format("20060102-150405")))
	compressFile(l.path, archive)
	os.Truncate(l.path, 0)
	l.pruneArchives()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	l.file = f
	l.size = 0
}

// pruneArchives removes the oldest archives beyond maxBackups. Archive
// names embed the timestamp, so lexical order is chronological.
func (l *errorLogger) pruneArchives() {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return
	}
	var archives []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "error-") && strings.HasSuffix(name, ".log.gz") {
			archives = append(archives, name)
		}
	}
	if len(archives) <= maxBackups {
		return
	}
	sort.Strings(archives)
	for _, name := range archives[:len(archives)-maxBackups] {
		os.Remove(filepath.Join(l.dir, name))
	}
}

func (l *errorLogger) close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Sync()
		l.file.Close()
		l.file = nil
	}
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	gw, err := gzip.NewWriterLevel(out, gzip.BestSpeed)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	// Close the gzip writer before the file to flush the footer.
	if err := gw.Close(); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

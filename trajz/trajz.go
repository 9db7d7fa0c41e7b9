// Package trajz reads and writes position files, gzipped when the name ends in .gz.
package trajz

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

type GZFileWriter struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool
	closed bool
}

type GZFileWriterConfig struct {
	CompressionLevel int
	Flag             int
	FilePerm         os.FileMode
	DirPerm          os.FileMode
}

// DefaultGZFileWriterConfig truncates the target. Output files are whole reconstructions, not logs.
func DefaultGZFileWriterConfig() *GZFileWriterConfig {
	return &GZFileWriterConfig{
		CompressionLevel: gzip.DefaultCompression,
		Flag:             os.O_WRONLY | os.O_TRUNC | os.O_CREATE,
		FilePerm:         0660,
		DirPerm:          0770,
	}
}

func NewGZFileWriter(path string, config *GZFileWriterConfig) (*GZFileWriter, error) {
	if config == nil {
		config = DefaultGZFileWriterConfig()
	}
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	gzw, err := gzip.NewWriterLevel(fi, config.CompressionLevel)
	if err != nil {
		_ = fi.Close()
		return nil, err
	}
	return &GZFileWriter{f: fi, gzw: gzw}, nil
}

// Write locks the file for exclusive access on first use.
// The lock is released when the file is closed.
func (g *GZFileWriter) Write(p []byte) (int, error) {
	g.lock()
	return g.gzw.Write(p)
}

func (g *GZFileWriter) lock() {
	if g.locked || g.closed {
		return
	}
	_ = syscall.Flock(int(g.f.Fd()), syscall.LOCK_EX)
	g.locked = true
}

func (g *GZFileWriter) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if err := g.gzw.Close(); err != nil {
		_ = g.f.Close()
		return err
	}
	if err := g.f.Sync(); err != nil {
		_ = g.f.Close()
		return err
	}
	return g.f.Close()
}

func (g *GZFileWriter) Path() string {
	return g.f.Name()
}

type GZFileReader struct {
	f      *os.File
	gzr    *gzip.Reader
	closed bool
}

// NewGZFileReader opens path and holds a shared lock on it until Close,
// so a concurrent GZFileWriter does not write under the reader.
func NewGZFileReader(path string) (*GZFileReader, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	_ = syscall.Flock(int(fi.Fd()), syscall.LOCK_SH)
	gzr, err := gzip.NewReader(fi)
	if err != nil {
		_ = fi.Close()
		return nil, err
	}
	return &GZFileReader{f: fi, gzr: gzr}, nil
}

// Read satisfies the io.Reader interface.
func (g *GZFileReader) Read(p []byte) (int, error) {
	return g.gzr.Read(p)
}

// Close closes the gzip reader and the file, releasing the lock.
func (g *GZFileReader) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if err := g.gzr.Close(); err != nil {
		_ = g.f.Close()
		return err
	}
	return g.f.Close()
}

func (g *GZFileReader) Path() string {
	return g.f.Name()
}

// IsGZ reports whether path names a gzipped file.
func IsGZ(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// Open opens path for reading, decompressing .gz files.
func Open(path string) (io.ReadCloser, error) {
	if IsGZ(path) {
		return NewGZFileReader(path)
	}
	return os.Open(path)
}

// Create creates or truncates path for writing, compressing .gz files.
func Create(path string) (io.WriteCloser, error) {
	if IsGZ(path) {
		return NewGZFileWriter(path, nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return nil, err
	}
	return os.Create(path)
}

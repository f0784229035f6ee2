package trace

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// StdinPath is the path that stands for the standard input.
const StdinPath = "-"

// Open opens a trace file. Files ending in ".gz" or ".zst" are decompressed
// on the fly. The path "-" reads the standard input, which is never
// decompressed.
func Open(path string) (io.ReadCloser, error) {
	if path == StdinPath || path == "" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}

	rc, err := Decompress(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}

	return rc, nil
}

// Decompress wraps rc with the decompressor the file name calls for. Closing
// the result also closes rc.
func Decompress(rc io.ReadCloser, name string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("opening gzip trace %s: %w", name, err)
		}

		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("opening zstd trace %s: %w", name, err)
		}

		return &stackedCloser{
			Reader:  zr,
			closers: []io.Closer{zr.IOReadCloser(), rc},
		}, nil
	default:
		return rc, nil
	}
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var firstErr error

	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Package edgelist reads and writes whitespace separated edge lists,
// optionally compressed with zstd or lz4.
//
// Every line holds "source target [property...]". A line with a single id
// declares an isolated node. Empty lines and lines starting with '#' or '%'
// are skipped. Commas are accepted as separators.
package edgelist

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/hugegraph/internal/errs"
)

// Compression identifies the stream encoding.
type Compression uint8

const (
	// Auto detects the encoding from the stream's magic bytes.
	Auto Compression = iota
	// None is plain text.
	None
	// LZ4 is an lz4 frame stream.
	LZ4
	// Zstd is a zstd frame stream.
	Zstd
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func (c Compression) String() string {
	switch c {
	case Auto:
		return "auto"
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression maps a name as printed by String back to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return Auto, nil
	case "none", "plain":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zst":
		return Zstd, nil
	default:
		return Auto, fmt.Errorf("%w: edgelist: unknown compression %q", errs.ErrInvalidInput, name)
	}
}

// Detect peeks at the first bytes of r without consuming them.
func Detect(r *bufio.Reader) (Compression, error) {
	head, err := r.Peek(4)
	if err != nil && err != io.EOF {
		return None, err
	}
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd, nil
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4, nil
	default:
		return None, nil
	}
}

// NoTarget is the Target of an Edge that declares an isolated node.
const NoTarget = -1

// Edge is one parsed line.
type Edge struct {
	Source     int64
	Target     int64
	Properties []float64
}

// IsNode reports whether the line only declared Source.
func (e Edge) IsNode() bool { return e.Target == NoTarget }

// Reader parses edges from a possibly compressed stream.
type Reader struct {
	scanner     *bufio.Scanner
	closeFn     func()
	compression Compression
	line        int
	props       []float64
}

// NewReader wraps r. With Auto the compression is detected from the stream.
func NewReader(r io.Reader, c Compression) (*Reader, error) {
	br := bufio.NewReader(r)
	if c == Auto {
		var err error
		if c, err = Detect(br); err != nil {
			return nil, err
		}
	}

	var (
		src     io.Reader = br
		closeFn           = func() {}
	)
	switch c {
	case None:
	case LZ4:
		src = lz4.NewReader(br)
	case Zstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("edgelist: zstd: %w", err)
		}
		src, closeFn = dec, dec.Close
	default:
		return nil, fmt.Errorf("%w: edgelist: compression %d", errs.ErrInvalidInput, c)
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	return &Reader{scanner: scanner, closeFn: closeFn, compression: c}, nil
}

// Compression returns the encoding in use.
func (r *Reader) Compression() Compression { return r.compression }

// Line returns the number of the last line read.
func (r *Reader) Line() int { return r.line }

// Next returns the next edge, or io.EOF. The Properties slice is reused by
// the following call.
func (r *Reader) Next() (Edge, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || text[0] == '#' || text[0] == '%' {
			continue
		}
		return r.parse(text)
	}
	if err := r.scanner.Err(); err != nil {
		return Edge{}, fmt.Errorf("edgelist: line %d: %w", r.line+1, err)
	}
	return Edge{}, io.EOF
}

func (r *Reader) parse(text string) (Edge, error) {
	fields := strings.FieldsFunc(text, func(c rune) bool {
		return c == ' ' || c == '\t' || c == ','
	})

	source, err := r.parseID(fields[0])
	if err != nil {
		return Edge{}, err
	}
	if len(fields) == 1 {
		return Edge{Source: source, Target: NoTarget}, nil
	}
	target, err := r.parseID(fields[1])
	if err != nil {
		return Edge{}, err
	}

	r.props = r.props[:0]
	for _, f := range fields[2:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Edge{}, fmt.Errorf("%w: edgelist: line %d: property %q", errs.ErrInvalidInput, r.line, f)
		}
		r.props = append(r.props, v)
	}
	return Edge{Source: source, Target: target, Properties: r.props}, nil
}

func (r *Reader) parseID(field string) (int64, error) {
	id, err := strconv.ParseInt(field, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: edgelist: line %d: node id %q", errs.ErrInvalidInput, r.line, field)
	}
	return id, nil
}

// Close releases decoder resources. It does not close the underlying reader.
func (r *Reader) Close() error {
	r.closeFn()
	return nil
}

// ReadAll calls fn for every edge of r until the stream ends, fn fails or
// ctx is done. It returns the number of lines passed to fn.
func ReadAll(ctx context.Context, r *Reader, fn func(Edge) error) (int64, error) {
	var n int64
	for {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return n, fmt.Errorf("%w: %w", errs.ErrCancelled, err)
			}
		}
		e, err := r.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := fn(e); err != nil {
			return n, fmt.Errorf("edgelist: line %d: %w", r.Line(), err)
		}
		n++
	}
}

package edgelist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/hugegraph/internal/errs"
)

// Writer writes edges in the text format read by Reader.
type Writer struct {
	buf     *bufio.Writer
	enc     io.WriteCloser
	scratch []byte
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// NewWriter wraps w. Auto is treated as None.
func NewWriter(w io.Writer, c Compression) (*Writer, error) {
	var enc io.WriteCloser
	switch c {
	case Auto, None:
		enc = nopCloser{w}
	case LZ4:
		enc = lz4.NewWriter(w)
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("edgelist: zstd: %w", err)
		}
		enc = zw
	default:
		return nil, fmt.Errorf("%w: edgelist: compression %d", errs.ErrInvalidInput, c)
	}
	return &Writer{buf: bufio.NewWriter(enc), enc: enc}, nil
}

// Write writes one edge. An edge with IsNode() writes the source alone.
func (w *Writer) Write(e Edge) error {
	b := strconv.AppendInt(w.scratch[:0], e.Source, 10)
	if !e.IsNode() {
		b = append(b, ' ')
		b = strconv.AppendInt(b, e.Target, 10)
		for _, p := range e.Properties {
			b = append(b, ' ')
			b = strconv.AppendFloat(b, p, 'g', -1, 64)
		}
	}
	b = append(b, '\n')
	w.scratch = b
	_, err := w.buf.Write(b)
	return err
}

// Close flushes buffered data and finishes the compressed stream. It does not
// close the underlying writer.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.enc.Close()
}

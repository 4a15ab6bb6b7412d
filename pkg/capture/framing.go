package capture

import (
	"encoding/binary"
	"io"

	"github.com/robotalks/stp.go/pkg/stp"
)

// MaxChunkSize limits the size of a single frame.
const MaxChunkSize = 1 << 24

// Reader reads a framed capture.
// Each frame is prefixed by 4-byte (little-endian) indicate the length,
// a zero-length frame marks a sync loss.
type Reader struct {
	io.Reader
}

// NewReader creates a Reader with io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r}
}

// ReadChunk implements stp.ChunkReader.
func (r *Reader) ReadChunk() ([]byte, error) {
	var size uint32
	if err := binary.Read(r.Reader, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, stp.ErrSyncLoss
	}
	if size > MaxChunkSize {
		return nil, &ChunkSizeError{Size: size}
	}
	chunk := make([]byte, size)
	if _, err := io.ReadFull(r.Reader, chunk); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return chunk, nil
}

// Writer writes a framed capture.
type Writer struct {
	io.Writer
}

// NewWriter creates a Writer with io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w}
}

// WriteChunk writes a frame. An empty chunk is skipped as it would read
// back as a sync loss.
func (w *Writer) WriteChunk(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	if len(chunk) > MaxChunkSize {
		return &ChunkSizeError{Size: uint32(len(chunk))}
	}
	if err := binary.Write(w.Writer, binary.LittleEndian, uint32(len(chunk))); err != nil {
		return err
	}
	_, err := w.Write(chunk)
	return err
}

// WriteSyncLoss writes a sync loss marker.
func (w *Writer) WriteSyncLoss() error {
	return binary.Write(w.Writer, binary.LittleEndian, uint32(0))
}

// RawReader reads an unframed stream in fixed size chunks.
type RawReader struct {
	io.Reader
	size int
}

// DefaultRawChunkSize is used when Raw is given a non-positive size.
const DefaultRawChunkSize = 4096

// Raw wraps an unframed stream as a stp.ChunkReader.
func Raw(r io.Reader, size int) *RawReader {
	if size <= 0 {
		size = DefaultRawChunkSize
	}
	return &RawReader{Reader: r, size: size}
}

// ReadChunk implements stp.ChunkReader.
func (r *RawReader) ReadChunk() ([]byte, error) {
	buf := make([]byte, r.size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if err != nil {
			return nil, err
		}
	}
}

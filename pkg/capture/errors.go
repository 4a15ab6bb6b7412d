package capture

import "fmt"

// ChunkSizeError indicates a frame exceeds MaxChunkSize.
type ChunkSizeError struct {
	Size uint32
}

func (e *ChunkSizeError) Error() string {
	return fmt.Sprintf("chunk size %d exceeds %d", e.Size, MaxChunkSize)
}

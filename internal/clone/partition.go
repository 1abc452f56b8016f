package clone

import "fmt"

// Partition splits ids into consecutive chunks of size elements. The last
// chunk holds the remainder. Chunks share no backing array with ids.
func Partition(ids []string, size int) ([][]string, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGroupSize, size)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunk := make([]string, end-start)
		copy(chunk, ids[start:end])
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

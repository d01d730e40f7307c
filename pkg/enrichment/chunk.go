package enrichment

import (
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// Chunk is a contiguous run of top-level fields sent in one request.
type Chunk struct {
	Index  int
	Start  int // inclusive
	End    int // exclusive
	Fields []models.Field
}

// Partition splits fields into consecutive chunks of at most size fields.
// Chunk i holds fields[i*size : min((i+1)*size, len(fields))]. Chunks share the input's
// backing array. A non-positive size selects DefaultChunkSize.
func Partition(fields []models.Field, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(fields) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, (len(fields)+size-1)/size)
	for start := 0; start < len(fields); start += size {
		end := min(start+size, len(fields))
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Start:  start,
			End:    end,
			Fields: fields[start:end:end],
		})
	}
	return chunks
}

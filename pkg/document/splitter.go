package document

// Splitter cuts documents into fixed sliding windows measured in runes.
// Boundaries depend only on ChunkSize/Overlap and the content, so re-running
// with the same parameters always yields the same chunk sequence.
type Splitter struct {
	ChunkSize int // window width, e.g. 1000
	Overlap   int // runes shared between consecutive windows, e.g. 200
}

// DefaultSplitter matches the indexing parameters used for the persisted store.
func DefaultSplitter() Splitter {
	return Splitter{ChunkSize: 1000, Overlap: 200}
}

// Split chunks every document, inheriting its metadata. Empty input yields
// empty output.
func (s Splitter) Split(docs []Document) []Document {
	size, overlap := s.ChunkSize, s.Overlap
	if size <= 0 {
		size, overlap = 1000, 200
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []Document
	for _, doc := range docs {
		runes := []rune(doc.Content)
		if len(runes) == 0 {
			continue
		}
		for i := 0; i < len(runes); i += size - overlap {
			end := i + size
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, Document{
				Content:  string(runes[i:end]),
				Metadata: doc.Metadata,
			})
			if end == len(runes) {
				break
			}
		}
	}
	return chunks
}

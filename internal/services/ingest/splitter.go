package ingest

// Splitter breaks text into chunks of at most chunkSize runes with
// overlap runes shared between consecutive chunks. Splitting is
// deterministic: identical input always yields identical chunks.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter. Overlap is clamped below chunkSize so
// the window always advances.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the sliding-window chunks of text. The last chunk may be
// shorter than chunkSize. Empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	step := s.chunkSize - s.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/models"
)

// minRecordLength is the shortest supplemental text worth indexing.
// Records and sub-chunks below this are dropped entirely.
const minRecordLength = 20

// Loader turns the raw knowledge sources into ordered passage sequences.
// Read or parse errors degrade to an empty sequence; ingestion never
// fails past its boundary.
type Loader struct {
	splitter *Splitter
	logger   arbor.ILogger
}

// NewLoader creates a loader using the configured chunking parameters
func NewLoader(cfg *common.ProcessingConfig, logger arbor.ILogger) *Loader {
	return &Loader{
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		logger:   logger,
	}
}

// LoadFacts reads the authoritative text source and splits it into
// passages with doc ids "F{n}" and chunk ids "c{n}", n sequential from 1.
func (l *Loader) LoadFacts(path string) []models.Passage {
	content, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error().Err(err).Str("path", path).Msg("Failed to load facts source")
		return nil
	}

	chunks := l.splitter.Split(string(content))

	passages := make([]models.Passage, 0, len(chunks))
	for i, chunk := range chunks {
		passages = append(passages, models.Passage{
			Content:    chunk,
			SourceKind: models.SourceAuthoritative,
			DocID:      fmt.Sprintf("F%d", i+1),
			ChunkID:    fmt.Sprintf("c%d", i+1),
			Origin:     path,
		})
	}

	l.logger.Info().Int("passages", len(passages)).Str("path", path).Msg("Loaded authoritative passages")
	return passages
}

// externalRecord is one entry of the supplemental JSON source. The
// transcript is carried in one of two shapes; the nested one wins.
type externalRecord struct {
	VideoID        string `json:"video_id"`
	Title          string `json:"title"`
	Transcript     string `json:"transcript"`
	TranscriptText *struct {
		Content string `json:"content"`
	} `json:"transcriptText"`
}

// transcript extracts the record's text, checking the nested
// transcriptText.content shape before the flat transcript field
func (r *externalRecord) transcript() string {
	if r.TranscriptText != nil && r.TranscriptText.Content != "" {
		return r.TranscriptText.Content
	}
	return r.Transcript
}

// LoadExternal parses the supplemental JSON source into passages.
// Doc ids "E{n}" are 1-indexed over all input records, including dropped
// ones, so numbering always reflects original position. Records whose
// text trims below minRecordLength produce no passages; long records are
// re-split and short sub-chunks dropped.
func (l *Loader) LoadExternal(path string) []models.Passage {
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error().Err(err).Str("path", path).Msg("Failed to load external source")
		return nil
	}

	var records []externalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		l.logger.Error().Err(err).Str("path", path).Msg("Failed to parse external source")
		return nil
	}

	var passages []models.Passage
	for i, record := range records {
		content := record.transcript()
		if len(strings.TrimSpace(content)) < minRecordLength {
			continue
		}

		docID := fmt.Sprintf("E%d", i+1)
		passages = append(passages, l.recordPassages(content, docID, record)...)
	}

	l.logger.Info().Int("passages", len(passages)).Str("path", path).Msg("Loaded supplemental passages")
	return passages
}

// recordPassages chunks one surviving record. Content within chunk_size
// stays whole as "c1"; longer content is split, with chunk ids keeping
// their split position even when short sub-chunks are dropped.
func (l *Loader) recordPassages(content, docID string, record externalRecord) []models.Passage {
	base := models.Passage{
		SourceKind: models.SourceSupplemental,
		DocID:      docID,
		Title:      record.Title,
		Origin:     record.VideoID,
	}

	if len([]rune(content)) <= l.splitter.chunkSize {
		base.Content = content
		base.ChunkID = "c1"
		return []models.Passage{base}
	}

	var passages []models.Passage
	for j, chunk := range l.splitter.Split(content) {
		if len(strings.TrimSpace(chunk)) < minRecordLength {
			continue
		}
		p := base
		p.Content = chunk
		p.ChunkID = fmt.Sprintf("c%d", j+1)
		passages = append(passages, p)
	}
	return passages
}

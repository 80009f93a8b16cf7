package models

// Word is one positioned word on a PDF page. Coordinates are in PDF user
// space: origin bottom-left, so larger Bottom means higher on the page.
type Word struct {
	Text      string
	Left      float64
	Right     float64
	Top       float64
	Bottom    float64
	FontSizes []float64 // one entry per glyph
}

// MaxFontSize returns the largest glyph size in the word, or 0 when the
// word carries no glyph sizes.
func (w Word) MaxFontSize() float64 {
	max := 0.0
	for _, size := range w.FontSizes {
		if size > max {
			max = size
		}
	}
	return max
}

// PageRecord is the reconstructed text of one content page of a book.
// PageIndex is 1-based over retained (non-blank) pages.
type PageRecord struct {
	DocumentID string `json:"document_id"`
	PageIndex  int    `json:"page_index"`
	Text       string `json:"text"`
}

// IndexEntry is one page held by the in-memory retrieval index.
type IndexEntry struct {
	Key       string     `json:"key"`
	Embedding []float32  `json:"-"`
	Text      string     `json:"text"`
	System    RuleSystem `json:"system"`
}

// IndexStats summarizes the retrieval index.
type IndexStats struct {
	Indexed   bool           `json:"indexed"`
	Pages     int            `json:"pages"`
	PerSystem map[string]int `json:"per_system"`
	CorpusDir string         `json:"corpus_dir,omitempty"`
}

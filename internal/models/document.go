package models

// DocumentStats summarizes the shape of an input document
type DocumentStats struct {
	CharacterCount           int     `json:"character_count"`
	WordCount                int     `json:"word_count"`
	LineCount                int     `json:"line_count"`
	ParagraphCount           int     `json:"paragraph_count"`
	SentenceCount            int     `json:"sentence_count"`
	AvgWordsPerParagraph     float64 `json:"avg_words_per_paragraph"`
	AvgSentencesPerParagraph float64 `json:"avg_sentences_per_paragraph"`
	DocumentType             string  `json:"document_type"`
}

// Section is a heading-scoped region of a document. Subsections nest by
// heading level.
type Section struct {
	Level       int       `json:"level"`
	Heading     string    `json:"heading"`
	Content     string    `json:"content"`
	Subsections []Section `json:"subsections,omitempty"`
}

// BulletType distinguishes ordered from unordered list groups
type BulletType string

const (
	BulletTypeOrdered   BulletType = "ordered"
	BulletTypeUnordered BulletType = "unordered"
)

// BulletGroup is a contiguous run of list items of one type, with the
// preceding non-list text captured as context
type BulletGroup struct {
	Type    BulletType `json:"type"`
	Context string     `json:"context,omitempty"`
	Items   []string   `json:"items"`
}

// Keyword is a ranked term extracted from a document
type Keyword struct {
	Word  string  `json:"word"`
	Count int     `json:"count"`
	Score float64 `json:"score"` // count / total significant words
}

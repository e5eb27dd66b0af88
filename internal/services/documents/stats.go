package documents

import (
	"strings"

	"github.com/ternarybob/ostendo/internal/models"
)

// AnalyzeText computes descriptive statistics for a document
func AnalyzeText(text string) models.DocumentStats {
	stats := models.DocumentStats{
		CharacterCount: len([]rune(text)),
		WordCount:      len(strings.Fields(text)),
		DocumentType:   "text",
	}

	if text == "" {
		return stats
	}

	stats.LineCount = strings.Count(text, "\n") + 1

	paragraphs := splitParagraphs(text)
	stats.ParagraphCount = len(paragraphs)

	totalSentences := 0
	totalWords := 0
	for _, p := range paragraphs {
		totalSentences += countSentences(p)
		totalWords += len(strings.Fields(p))
	}
	stats.SentenceCount = totalSentences

	if stats.ParagraphCount > 0 {
		stats.AvgWordsPerParagraph = float64(totalWords) / float64(stats.ParagraphCount)
		stats.AvgSentencesPerParagraph = float64(totalSentences) / float64(stats.ParagraphCount)
	}

	return stats
}

// splitParagraphs breaks text on blank lines, dropping empty chunks
func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	raw := strings.Split(normalized, "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// countSentences counts terminal punctuation runs as sentence boundaries
func countSentences(text string) int {
	count := 0
	inTerminator := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inTerminator {
				count++
				inTerminator = true
			}
		default:
			inTerminator = false
		}
	}

	// Text with words but no terminal punctuation still reads as one sentence
	if count == 0 && len(strings.Fields(text)) > 0 {
		count = 1
	}

	return count
}

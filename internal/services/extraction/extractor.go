package extraction

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/models"
)

// Content type keys used in the generation context
const (
	ContentTypeSections = "sections"
	ContentTypeBullets  = "bullet_points"
	ContentTypeKeywords = "keywords"
)

var (
	headingPattern     = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	unorderedPattern   = regexp.MustCompile(`^\s*[-*+]\s+(.+)$`)
	orderedPattern     = regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`)
	wordStripPattern   = regexp.MustCompile(`[^a-z0-9]+`)
	defaultMaxKeywords = 10
	stopWords          = map[string]struct{}{}
	stopWordList       = []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can", "her",
		"was", "one", "our", "out", "day", "get", "has", "him", "his", "how",
		"its", "may", "new", "now", "old", "see", "two", "way", "who", "did",
		"that", "this", "with", "from", "they", "will", "have", "been", "were",
		"said", "each", "which", "their", "would", "there", "about", "could",
		"other", "into", "more", "some", "them", "then", "these", "than",
		"when", "what", "your", "also", "such", "only", "over", "very",
		"just", "most", "both", "any", "had", "she", "too", "use", "used",
		"using", "between", "because", "through", "during", "where", "while",
		"should", "after", "before", "being", "under", "does", "doing",
	}
)

func init() {
	for _, w := range stopWordList {
		stopWords[w] = struct{}{}
	}
}

// Extractor pulls structured material out of document text for the
// planning stage. All operations are pure line scans, no I/O.
type Extractor struct {
	logger arbor.ILogger
}

// NewExtractor creates a content extractor
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractSections builds a heading hierarchy from markdown-style
// headings. Deeper headings nest under the most recent shallower one.
func (e *Extractor) ExtractSections(text string, gctx *models.GenerationContext) []models.Section {
	flat := e.scanSections(text)
	sections := organizeHierarchy(flat)

	if gctx != nil {
		gctx.AddExtractedContent(ContentTypeSections, sections)
	}

	e.logger.Debug().Int("top_level", len(sections)).Msg("Extracted document sections")

	return sections
}

// scanSections produces the flat, in-order section list
func (e *Extractor) scanSections(text string) []models.Section {
	var flat []models.Section
	var current *models.Section
	var content strings.Builder

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(content.String())
			flat = append(flat, *current)
		}
		content.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = &models.Section{
				Level:   len(m[1]),
				Heading: strings.TrimSpace(m[2]),
			}
			continue
		}
		if current != nil {
			content.WriteString(line)
			content.WriteString("\n")
		}
	}
	flush()

	return flat
}

// organizeHierarchy nests sections using a stack of open ancestors
func organizeHierarchy(flat []models.Section) []models.Section {
	var roots []models.Section
	var stack []*models.Section

	for _, section := range flat {
		// Pop anything at the same or deeper level
		for len(stack) > 0 && stack[len(stack)-1].Level >= section.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, section)
			stack = append(stack, &roots[len(roots)-1])
		} else {
			parent := stack[len(stack)-1]
			parent.Subsections = append(parent.Subsections, section)
			stack = append(stack, &parent.Subsections[len(parent.Subsections)-1])
		}
	}

	return roots
}

// ExtractBullets finds contiguous list-item runs. A run breaks on a
// blank line or a change of list type; the preceding non-list line
// becomes the group's context.
func (e *Extractor) ExtractBullets(text string, gctx *models.GenerationContext) []models.BulletGroup {
	var groups []models.BulletGroup
	var current *models.BulletGroup
	lastText := ""

	flush := func() {
		if current != nil && len(current.Items) > 0 {
			groups = append(groups, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush()
			continue
		}

		var itemType models.BulletType
		var item string
		if m := unorderedPattern.FindStringSubmatch(line); m != nil {
			itemType, item = models.BulletTypeUnordered, strings.TrimSpace(m[1])
		} else if m := orderedPattern.FindStringSubmatch(line); m != nil {
			itemType, item = models.BulletTypeOrdered, strings.TrimSpace(m[1])
		} else {
			flush()
			lastText = trimmed
			continue
		}

		if current != nil && current.Type != itemType {
			flush()
		}
		if current == nil {
			current = &models.BulletGroup{
				Type:    itemType,
				Context: lastText,
			}
		}
		current.Items = append(current.Items, item)
	}
	flush()

	if gctx != nil {
		gctx.AddExtractedContent(ContentTypeBullets, groups)
	}

	e.logger.Debug().Int("groups", len(groups)).Msg("Extracted bullet groups")

	return groups
}

// ExtractKeywords ranks significant words by frequency. Words are
// lowercased and stripped of punctuation; short words and stop words
// are skipped. Score is raw count over total significant words.
func (e *Extractor) ExtractKeywords(text string, maxKeywords int, gctx *models.GenerationContext) []models.Keyword {
	if maxKeywords <= 0 {
		maxKeywords = defaultMaxKeywords
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	total := 0

	for _, raw := range strings.Fields(strings.ToLower(text)) {
		word := wordStripPattern.ReplaceAllString(raw, "")
		if len(word) <= 2 {
			continue
		}
		if _, skip := stopWords[word]; skip {
			continue
		}
		if _, seen := counts[word]; !seen {
			firstSeen[word] = total
		}
		counts[word]++
		total++
	}

	if total == 0 {
		if gctx != nil {
			gctx.AddExtractedContent(ContentTypeKeywords, []models.Keyword{})
		}
		return nil
	}

	keywords := make([]models.Keyword, 0, len(counts))
	for word, count := range counts {
		keywords = append(keywords, models.Keyword{
			Word:  word,
			Count: count,
			Score: float64(count) / float64(total),
		})
	}

	// Rank by count, breaking ties by first appearance for stable output
	sort.SliceStable(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return firstSeen[keywords[i].Word] < firstSeen[keywords[j].Word]
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	if gctx != nil {
		gctx.AddExtractedContent(ContentTypeKeywords, keywords)
	}

	e.logger.Debug().Int("keywords", len(keywords)).Msg("Extracted keywords")

	return keywords
}

// ExtractAll runs every extraction step and marks the stage complete
func (e *Extractor) ExtractAll(text string, maxKeywords int, gctx *models.GenerationContext) {
	if gctx != nil {
		gctx.SetStageStatus(models.StageContentExtraction, models.StageInProgress)
	}

	e.ExtractSections(text, gctx)
	e.ExtractBullets(text, gctx)
	e.ExtractKeywords(text, maxKeywords, gctx)

	if gctx != nil {
		gctx.SetStageStatus(models.StageContentExtraction, models.StageCompleted)
	}
}

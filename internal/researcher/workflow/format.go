package workflow

import (
	"fmt"
	"path"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/deepresearch-core-poc/server/internal/researcher/model"
)

// metaString reads a metadata value as a string, empty when absent or not text.
func metaString(doc *schema.Document, key string) string {
	if doc.MetaData == nil {
		return ""
	}
	if s, ok := doc.MetaData[key].(string); ok {
		return s
	}
	return ""
}

// FormatDocumentsWithMetadata renders retrieved documents as display-ready
// blocks with a markdown source link, separated by horizontal rules. Documents
// without a usable path fall back to a files/<filename> location so the link
// is always present.
func FormatDocumentsWithMetadata(docs []*schema.Document) string {
	formatted := make([]string, 0, len(docs))
	for _, doc := range docs {
		source := metaString(doc, "source")
		if source == "" {
			source = "Unknown source"
		}

		filename := source
		if source != "Unknown source" {
			filename = path.Base(source)
		}

		docPath := metaString(doc, "path")
		if docPath == "" {
			docPath = path.Join("files", filename)
		}

		formatted = append(formatted,
			fmt.Sprintf("SOURCE: [%s](%s)\n\nContent: %s", filename, docPath, doc.Content))
	}
	return strings.Join(formatted, "\n\n---\n\n")
}

// FormatSummarizerContext renders retrieved documents as the Content / Source /
// Path line triplets the summarizer prompt instructs the model to cite from.
func FormatSummarizerContext(docs []*schema.Document) string {
	lines := make([]string, 0, len(docs))
	for _, doc := range docs {
		source := metaString(doc, "source")
		if source == "" {
			source = "Unknown"
		}
		docPath := metaString(doc, "path")
		if docPath == "" {
			docPath = "Unknown"
		}
		lines = append(lines,
			fmt.Sprintf("Content: %s\nSource: %s\nPath: %s", doc.Content, source, docPath))
	}
	return strings.Join(lines, "\n")
}

// AggregateInformation builds the information block for the report writer:
// one Query/Summary pair per research query that produced a summary, in
// research-query order, followed by the web search result when one exists.
func AggregateInformation(s *model.ResearchSession) string {
	var parts []string
	for _, q := range s.ResearchQueries {
		for _, doc := range s.SearchSummaries[q] {
			parts = append(parts, fmt.Sprintf("Query: %s\nSummary: %s\n", q, doc.Content))
		}
	}
	if s.InternetResult != "" {
		parts = append(parts, fmt.Sprintf("Internet Search Results:\n%s", s.InternetResult))
	}
	return strings.Join(parts, "\n\n")
}

// ConcatSummaries joins every summary's text in research-query order, one per
// line, for the quality checker's source context.
func ConcatSummaries(s *model.ResearchSession) string {
	var b strings.Builder
	for _, q := range s.ResearchQueries {
		for _, doc := range s.SearchSummaries[q] {
			b.WriteString(doc.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

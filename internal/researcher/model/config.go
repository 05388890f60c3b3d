package model

// ================ Config ================

// DefaultReportStructure is used when no structure template is configured.
const DefaultReportStructure = `
# Introduction
- Brief overview of the research topic or question.
- Purpose and scope of the report.

# Main Body
- Detailed explanation of concepts.
- Key findings supported by research.

# Key Takeaways
- Bullet points summarizing important insights.

# Conclusion
- Final summary and implications.
`

// ResearchConfig holds every tunable of a research run. It is snapshotted into
// the session at creation time and never mutated afterwards, so a user
// changing settings mid-run cannot race an executing workflow.
type ResearchConfig struct {
	ReportModel          string `envconfig:"REPORT_MODEL" default:"gemini-2.5-flash"`
	SummarizationModel   string `envconfig:"SUMMARIZATION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxSearchQueries     int    `envconfig:"MAX_SEARCH_QUERIES" default:"5"`
	EnableWebSearch      bool   `envconfig:"ENABLE_WEB_SEARCH" default:"false"`
	EnableQualityChecker bool   `envconfig:"ENABLE_QUALITY_CHECKER" default:"true"`
	SelectedDatabase     string `envconfig:"SELECTED_DATABASE"`
	ReportStructure      string `envconfig:"REPORT_STRUCTURE"`
}

// WithDefaults fills in the fields envconfig cannot default sensibly
// (multi-line template text) and returns the completed snapshot.
func (c ResearchConfig) WithDefaults() ResearchConfig {
	if c.ReportStructure == "" {
		c.ReportStructure = DefaultReportStructure
	}
	if c.MaxSearchQueries <= 0 {
		c.MaxSearchQueries = 5
	}
	return c
}

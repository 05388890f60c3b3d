package model

import "fmt"

// accuracyThreshold is the score above which a report is accepted.
const accuracyThreshold = 300

// QualityVerdict is the structured quality assessment of a generated report.
// QualityScore is the sum of four 0-100 sub-scores (factual, semantic,
// structural, source fidelity).
type QualityVerdict struct {
	QualityScore           int    `json:"quality_score"`
	IsAccurate             bool   `json:"is_accurate"`
	IssuesFound            string `json:"issues_found"`
	MissingElements        string `json:"missing_elements"`
	CitationIssues         string `json:"citation_issues"`
	ImprovementNeeded      bool   `json:"improvement_needed"`
	ImprovementSuggestions string `json:"improvement_suggestions"`
}

// Validate enforces the verdict invariant:
//
//	is_accurate == (quality_score > 300) == !improvement_needed
//
// A verdict violating it is malformed model output and must be treated as a
// parse failure, not silently accepted.
func (v *QualityVerdict) Validate() error {
	if v.QualityScore < 0 || v.QualityScore > 400 {
		return fmt.Errorf("quality_score %d out of range [0,400]", v.QualityScore)
	}
	accurate := v.QualityScore > accuracyThreshold
	if v.IsAccurate != accurate {
		return fmt.Errorf("is_accurate=%v inconsistent with quality_score=%d", v.IsAccurate, v.QualityScore)
	}
	if v.ImprovementNeeded == v.IsAccurate {
		return fmt.Errorf("improvement_needed=%v inconsistent with is_accurate=%v", v.ImprovementNeeded, v.IsAccurate)
	}
	return nil
}

// FallbackVerdict is the conservative result used when the quality checker
// itself fails (gateway error or unparseable output). Availability over
// correctness: the workflow continues with the answer it has.
func FallbackVerdict() *QualityVerdict {
	return &QualityVerdict{QualityScore: 350, IsAccurate: true}
}

// AutoPassVerdict is the result recorded when quality checking is disabled.
// No model call is made and the reflection counter is not touched.
func AutoPassVerdict() *QualityVerdict {
	return &QualityVerdict{IsAccurate: true}
}

package workflow

import "github.com/deepresearch-core-poc/server/internal/researcher/model"

// maxReflections caps the quality-check retry loop. Once the counter reaches
// it, the workflow proceeds with whatever answer it has.
const maxReflections = 2

// Routing decisions. Pure, total, deterministic.
const (
	RouteProceed = "proceed"
	RouteRetry   = "retry"
	RouteSearch  = "search"
	RouteSkip    = "skip"
)

// QualityGate decides whether the generated report is accepted. It proceeds
// when the verdict marks the report accurate or the reflection budget is
// spent; otherwise the answer is regenerated.
func QualityGate(verdict *model.QualityVerdict, reflectionCount int) string {
	if verdict != nil && verdict.IsAccurate {
		return RouteProceed
	}
	if reflectionCount >= maxReflections {
		return RouteProceed
	}
	return RouteRetry
}

// WebSearchGate decides whether the web-search stage runs at all.
func WebSearchGate(enabled bool) string {
	if enabled {
		return RouteSearch
	}
	return RouteSkip
}
